package dto

import "github.com/cinemai/backend/internal/models"

type CheckoutRequest struct {
	Tier string `json:"tier"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
}

type SubscriptionResponse struct {
	Profile models.UserProfile `json:"profile"`
	Prices  map[string]int64   `json:"prices"`
}
