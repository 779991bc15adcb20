package models

import (
	"time"

	"github.com/google/uuid"
)

// Movie catalog entry. Rows come from admin seeding or from the search
// service's find-or-create step, which keys on the exact title.
type Movie struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title          string    `gorm:"not null;size:255;index" json:"title"`
	Year           *int      `json:"year,omitempty"`
	Genre          string    `gorm:"size:100" json:"genre"`
	Director       string    `gorm:"size:255" json:"director"`
	Plot           string    `gorm:"type:text" json:"plot"`
	PosterURL      string    `gorm:"size:500" json:"poster_url"`
	IMDBID         *string   `gorm:"column:imdb_id;size:20;uniqueIndex" json:"imdb_id,omitempty"`
	Rating         *float64  `json:"rating,omitempty"`
	RuntimeMinutes *int      `json:"runtime_minutes,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}
