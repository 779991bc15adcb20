package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchlistItem links a user to a movie. The composite unique index keeps
// a movie from appearing twice on the same user's list.
type WatchlistItem struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_watchlist_user_movie" json:"user_id"`
	MovieID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_watchlist_user_movie" json:"movie_id"`
	Watched bool      `gorm:"default:false" json:"watched"`
	Notes   string    `gorm:"type:text" json:"notes"`
	AddedAt time.Time `gorm:"autoCreateTime;index" json:"added_at"`
	Movie   Movie     `gorm:"foreignKey:MovieID" json:"movie"`
	User    User      `gorm:"foreignKey:UserID" json:"-"`
}
