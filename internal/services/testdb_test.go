package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cinemai/backend/internal/config"
	"github.com/cinemai/backend/internal/dto"
	"github.com/cinemai/backend/internal/models"
	"github.com/cinemai/backend/internal/payments"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT DEFAULT 'user',
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE user_profiles (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			subscription_tier TEXT NOT NULL DEFAULT 'BASIC',
			stripe_customer_id TEXT,
			stripe_subscription_id TEXT,
			subscription_active BOOLEAN DEFAULT FALSE,
			subscription_end DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE movies (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			year INTEGER,
			genre TEXT DEFAULT '',
			director TEXT DEFAULT '',
			plot TEXT DEFAULT '',
			poster_url TEXT DEFAULT '',
			imdb_id TEXT UNIQUE,
			rating REAL,
			runtime_minutes INTEGER,
			created_at DATETIME
		)`,
		`CREATE TABLE watchlist_items (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			movie_id TEXT NOT NULL,
			watched BOOLEAN DEFAULT FALSE,
			notes TEXT DEFAULT '',
			added_at DATETIME,
			UNIQUE(user_id, movie_id)
		)`,
		`CREATE TABLE search_histories (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			query TEXT NOT NULL,
			genre TEXT DEFAULT '',
			created_at DATETIME
		)`,
		`CREATE TABLE refresh_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			expires_at DATETIME NOT NULL,
			revoked BOOLEAN DEFAULT FALSE,
			created_at DATETIME
		)`,
		`CREATE TABLE password_reset_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token_hash TEXT NOT NULL UNIQUE,
			expires_at DATETIME NOT NULL,
			used BOOLEAN DEFAULT FALSE,
			created_at DATETIME
		)`,
		`CREATE TABLE webhook_events (
			id TEXT PRIMARY KEY,
			provider TEXT NOT NULL,
			provider_event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT,
			processed_at DATETIME,
			created_at DATETIME,
			UNIQUE(provider, provider_event_id)
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		JWTAccessExpiry:    15 * time.Minute,
		JWTRefreshExpiry:   168 * time.Hour,
		CheckoutSuccessURL: "https://example.com/success",
		CheckoutCancelURL:  "https://example.com/cancel",
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	svc := NewAuthService(db, testConfig(), &fakeMailer{})
	resp, err := svc.Register(&dto.RegisterRequest{Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}

	var user models.User
	if err := db.First(&user, "id = ?", resp.User.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	return &user
}

func createTestMovie(t *testing.T, db *gorm.DB, title, genre string) *models.Movie {
	t.Helper()

	movie := models.Movie{ID: uuid.New(), Title: title, Genre: genre}
	if err := db.Create(&movie).Error; err != nil {
		t.Fatalf("create movie %s: %v", title, err)
	}
	return &movie
}

// --- fakes ---

type fakeCompleter struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeCheckout struct {
	sessionID string
	err       error
	lastParam payments.CheckoutParams
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, p payments.CheckoutParams) (string, error) {
	f.lastParam = p
	if f.err != nil {
		return "", f.err
	}
	return f.sessionID, nil
}

type fakeMailer struct {
	to      []string
	bodies  []string
	sendErr error
}

func (f *fakeMailer) Send(to, _, body string) error {
	f.to = append(f.to, to)
	f.bodies = append(f.bodies, body)
	return f.sendErr
}
