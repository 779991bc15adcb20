package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cinemai/backend/internal/config"
	"github.com/cinemai/backend/internal/models"
	"github.com/cinemai/backend/internal/payments"
	"github.com/cinemai/backend/internal/services"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const webhookTestSecret = "whsec_test"

func setupWebhookApp(t *testing.T) (*fiber.App, *gorm.DB, uuid.UUID) {
	t.Helper()

	dsn := fmt.Sprintf("file:webhookdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
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

	userID := uuid.New()
	if err := db.Create(&models.User{ID: userID, Email: "hook@example.com", Password: "x"}).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := db.Create(&models.UserProfile{ID: uuid.New(), UserID: userID, SubscriptionTier: models.TierBasic}).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}

	pay := payments.New("sk_test", webhookTestSecret, "https://api.stripe.example")
	svc := services.NewSubscriptionService(db, pay, &config.Config{})
	handler := NewWebhookHandler(svc, pay)

	app := fiber.New()
	app.Post("/api/webhooks/stripe", handler.HandleStripe)
	return app, db, userID
}

func signPayload(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookTestSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func checkoutPayload(userID uuid.UUID) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_hook_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_hook_1",
			"client_reference_id": %q,
			"customer": "cus_hook",
			"subscription": "sub_hook",
			"metadata": {"tier": "PRO"}
		}}
	}`, userID))
}

func TestStripeWebhookAppliesSignedEvent(t *testing.T) {
	app, db, userID := setupWebhookApp(t)

	payload := checkoutPayload(userID)
	req := httptest.NewRequest("POST", "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload(payload))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var profile models.UserProfile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.SubscriptionTier != models.TierPro || !profile.SubscriptionActive {
		t.Fatalf("profile not activated: %+v", profile)
	}
}

func TestStripeWebhookRejectsTamperedPayload(t *testing.T) {
	app, db, userID := setupWebhookApp(t)

	payload := checkoutPayload(userID)
	header := signPayload(payload)
	tampered := bytes.Replace(payload, []byte(`"PRO"`), []byte(`"STANDARD"`), 1)

	req := httptest.NewRequest("POST", "/api/webhooks/stripe", bytes.NewReader(tampered))
	req.Header.Set("Stripe-Signature", header)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var profile models.UserProfile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.SubscriptionActive {
		t.Fatal("tampered delivery must not mutate the profile")
	}
}

func TestStripeWebhookRejectsMissingSignature(t *testing.T) {
	app, _, userID := setupWebhookApp(t)

	req := httptest.NewRequest("POST", "/api/webhooks/stripe", bytes.NewReader(checkoutPayload(userID)))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
