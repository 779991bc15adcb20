package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cinemai/backend/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Completer is the chat-completion dependency of the search service.
// aiclient.Client satisfies it; tests inject fakes.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const searchCacheTTL = 15 * time.Minute

type SearchService struct {
	db    *gorm.DB
	ai    Completer
	cache *redis.Client
}

// NewSearchService builds the resolver. ai may be nil (no API key configured)
// and cache may be nil (no redis); both degrade gracefully.
func NewSearchService(db *gorm.DB, ai Completer, cache *redis.Client) *SearchService {
	return &SearchService{db: db, ai: ai, cache: cache}
}

// SearchResult carries the resolved movies plus a non-fatal warning when the
// recommendation lookup failed.
type SearchResult struct {
	Query   string
	Movies  []models.Movie
	Warning string
}

// Search records the query and resolves recommendations. The history append
// happens first and is never rolled back, whatever happens downstream.
func (s *SearchService) Search(ctx context.Context, userID uuid.UUID, query, genre string) (*SearchResult, error) {
	history := models.SearchHistory{
		ID:     uuid.New(),
		UserID: userID,
		Query:  query,
		Genre:  genre,
	}
	if err := s.db.Create(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to record search: %w", err)
	}

	result := &SearchResult{Query: query, Movies: []models.Movie{}}

	if s.ai != nil && query != "" {
		titles, err := s.recommendTitles(ctx, query, genre)
		if err != nil {
			slog.Error("recommendation lookup failed", "error", err, "user_id", userID.String())
			result.Warning = "Error getting recommendations: " + err.Error()
			return result, nil
		}
		for _, title := range titles {
			movie, err := s.findOrCreateMovie(title, genre)
			if err != nil {
				return nil, err
			}
			result.Movies = append(result.Movies, *movie)
		}
		return result, nil
	}

	movies, err := s.searchCatalog(query, genre)
	if err != nil {
		return nil, err
	}
	result.Movies = movies
	return result, nil
}

// History returns the user's most recent searches.
func (s *SearchService) History(userID uuid.UUID, limit int) ([]models.SearchHistory, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var entries []models.SearchHistory
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (s *SearchService) recommendTitles(ctx context.Context, query, genre string) ([]string, error) {
	if cached, ok := s.cachedTitles(ctx, query, genre); ok {
		return cached, nil
	}

	prompt := "Recommend 10 movies based on: " + query
	if genre != "" {
		prompt += " in the " + genre + " genre"
	}
	prompt += ". Return only movie titles, one per line."

	content, err := s.ai.Complete(ctx, "You are a movie recommendation assistant.", prompt)
	if err != nil {
		return nil, err
	}

	titles := parseTitles(content)
	s.cacheTitles(ctx, query, genre, titles)
	return titles, nil
}

// parseTitles splits a completion into bare titles, stripping the leading
// ordinal noise ("1. ", "10) " etc.) models tend to prepend.
func parseTitles(content string) []string {
	lines := strings.Split(content, "\n")
	titles := make([]string, 0, len(lines))
	for _, line := range lines {
		title := strings.TrimLeft(strings.TrimSpace(line), "0123456789.) ")
		if title != "" {
			titles = append(titles, title)
		}
	}
	return titles
}

// findOrCreateMovie is idempotent on exact title. Titles differing only in
// case or punctuation create distinct rows; that imprecision is accepted.
func (s *SearchService) findOrCreateMovie(title, genre string) (*models.Movie, error) {
	var movie models.Movie
	err := s.db.Where("title = ?", title).
		Attrs(models.Movie{ID: uuid.New(), Genre: genre}).
		FirstOrCreate(&movie).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve movie %q: %w", title, err)
	}
	return &movie, nil
}

// searchCatalog is the fallback path: case-insensitive substring match over
// existing titles, narrowed by genre when supplied, newest first.
func (s *SearchService) searchCatalog(query, genre string) ([]models.Movie, error) {
	q := s.db.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(query)+"%")
	if genre != "" {
		q = q.Where("LOWER(genre) LIKE ?", "%"+strings.ToLower(genre)+"%")
	}

	var movies []models.Movie
	if err := q.Order("created_at DESC").Find(&movies).Error; err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}
	return movies, nil
}

func searchCacheKey(query, genre string) string {
	return "search:" + strings.ToLower(query) + ":" + strings.ToLower(genre)
}

func (s *SearchService) cachedTitles(ctx context.Context, query, genre string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, searchCacheKey(query, genre)).Result()
	if err != nil {
		return nil, false
	}
	var titles []string
	if err := json.Unmarshal([]byte(raw), &titles); err != nil {
		return nil, false
	}
	return titles, true
}

func (s *SearchService) cacheTitles(ctx context.Context, query, genre string, titles []string) {
	if s.cache == nil || len(titles) == 0 {
		return
	}
	raw, err := json.Marshal(titles)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, searchCacheKey(query, genre), raw, searchCacheTTL).Err(); err != nil {
		slog.Warn("failed to cache recommendations", "error", err)
	}
}
