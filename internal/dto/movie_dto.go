package dto

import "github.com/cinemai/backend/internal/models"

type SearchRequest struct {
	Query string `json:"query"`
	Genre string `json:"genre"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Movies  []models.Movie `json:"movies"`
	Warning string         `json:"warning,omitempty"`
}

type SeedMovieRequest struct {
	Title          string   `json:"title"`
	Year           *int     `json:"year"`
	Genre          string   `json:"genre"`
	Director       string   `json:"director"`
	Plot           string   `json:"plot"`
	PosterURL      string   `json:"poster_url"`
	IMDBID         *string  `json:"imdb_id"`
	Rating         *float64 `json:"rating"`
	RuntimeMinutes *int     `json:"runtime_minutes"`
}

type UpdateWatchlistRequest struct {
	Watched *bool   `json:"watched"`
	Notes   *string `json:"notes"`
}
