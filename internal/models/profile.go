package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription tiers. Tier changes go through Stripe checkout; the webhook
// reconciler is the only writer of the Stripe reference fields.
const (
	TierBasic    = "BASIC"
	TierStandard = "STANDARD"
	TierPro      = "PRO"
)

// TierPrices maps a tier to its monthly price in cents.
var TierPrices = map[string]int64{
	TierBasic:    999,
	TierStandard: 1499,
	TierPro:      1999,
}

// UserProfile holds subscription state, one per user. Created in the same
// transaction as the User record.
type UserProfile struct {
	ID                   uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID               uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	SubscriptionTier     string     `gorm:"size:10;not null;default:'BASIC'" json:"subscription_tier"`
	StripeCustomerID     *string    `gorm:"size:255" json:"-"`
	StripeSubscriptionID *string    `gorm:"size:255" json:"-"`
	SubscriptionActive   bool       `gorm:"default:false" json:"subscription_active"`
	SubscriptionEnd      *time.Time `json:"subscription_end,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	User                 User       `gorm:"foreignKey:UserID" json:"-"`
}
