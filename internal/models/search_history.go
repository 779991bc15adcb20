package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchHistory is an append-only audit trail of search submissions.
type SearchHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Query     string    `gorm:"size:255;not null" json:"query"`
	Genre     string    `gorm:"size:100" json:"genre"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}
