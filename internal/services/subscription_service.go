package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cinemai/backend/internal/config"
	"github.com/cinemai/backend/internal/models"
	"github.com/cinemai/backend/internal/payments"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CheckoutClient is the payment-provider dependency of the subscription
// service. payments.Client satisfies it; tests inject fakes.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, p payments.CheckoutParams) (string, error)
}

type SubscriptionService struct {
	db       *gorm.DB
	payments CheckoutClient
	cfg      *config.Config
}

func NewSubscriptionService(db *gorm.DB, pc CheckoutClient, cfg *config.Config) *SubscriptionService {
	return &SubscriptionService{db: db, payments: pc, cfg: cfg}
}

// GetProfile returns the user's subscription profile.
func (s *SubscriptionService) GetProfile(userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("profile not found: %w", err)
	}
	return &profile, nil
}

// CreateCheckout starts a hosted checkout session for the requested tier.
// Nothing is written locally; activation waits for the webhook.
func (s *SubscriptionService) CreateCheckout(ctx context.Context, userID uuid.UUID, tier string) (string, error) {
	tier = strings.ToUpper(strings.TrimSpace(tier))
	price, ok := models.TierPrices[tier]
	if !ok {
		price = models.TierPrices[models.TierBasic]
	}

	return s.payments.CreateCheckoutSession(ctx, payments.CheckoutParams{
		ProductName:       "CinemAI " + titleCase(tier) + " Subscription",
		UnitAmount:        price,
		Currency:          "usd",
		ClientReferenceID: userID.String(),
		Tier:              tier,
		SuccessURL:        s.cfg.CheckoutSuccessURL,
		CancelURL:         s.cfg.CheckoutCancelURL,
	})
}

// HandleWebhookEvent applies a verified provider event. Only
// checkout.session.completed mutates anything; every other event type is
// acknowledged and ignored. An event id is skipped only once a previous
// delivery finished with it; a delivery that failed mid-flight leaves
// processed_at null and is reprocessed when the provider redelivers.
func (s *SubscriptionService) HandleWebhookEvent(event *payments.Event, rawPayload []byte) error {
	record, err := s.eventRecord(event, rawPayload)
	if err != nil || record == nil {
		return err
	}

	if event.Type == payments.EventCheckoutCompleted {
		session, err := event.CheckoutSession()
		if err != nil {
			return err
		}
		if err := s.applyCheckoutCompleted(session); err != nil {
			return err
		}
	}

	now := time.Now()
	return s.db.Model(record).Update("processed_at", &now).Error
}

// eventRecord finds or creates the dedup row for an event. A nil record with
// nil error means a finished duplicate: acknowledge and touch nothing.
func (s *SubscriptionService) eventRecord(event *payments.Event, rawPayload []byte) (*models.WebhookEvent, error) {
	var existing models.WebhookEvent
	err := s.db.Where("provider = ? AND provider_event_id = ?", "stripe", event.ID).
		First(&existing).Error
	if err == nil {
		if existing.ProcessedAt != nil {
			slog.Info("webhook event already processed", "event_id", event.ID)
			return nil, nil
		}
		// Recorded by an earlier delivery that never finished; retry it.
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up webhook event: %w", err)
	}

	record := models.WebhookEvent{
		ID:              uuid.New(),
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       event.Type,
		Payload:         datatypes.JSON(rawPayload),
	}
	if createErr := s.db.Create(&record).Error; createErr != nil {
		// A concurrent delivery may have won the unique-index race. Anything
		// else is a storage failure the provider should retry.
		if s.db.Where("provider = ? AND provider_event_id = ?", "stripe", event.ID).
			First(&existing).Error == nil {
			slog.Info("webhook event already recorded", "event_id", event.ID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to record webhook event: %w", createErr)
	}
	return &record, nil
}

// applyCheckoutCompleted overwrites the referenced user's profile with the
// session's tier and provider references. An unresolvable user reference is
// dropped on purpose so the provider stops redelivering.
func (s *SubscriptionService) applyCheckoutCompleted(session *payments.CheckoutSession) error {
	userID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		slog.Warn("webhook client reference is not a user id", "client_reference_id", session.ClientReferenceID)
		return nil
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		slog.Warn("webhook references unknown user", "user_id", userID.String())
		return nil
	}

	tier := strings.ToUpper(session.Metadata["tier"])
	if _, ok := models.TierPrices[tier]; !ok {
		tier = models.TierBasic
	}

	updates := map[string]interface{}{
		"subscription_tier":   tier,
		"subscription_active": true,
	}
	if session.Customer != "" {
		updates["stripe_customer_id"] = session.Customer
	}
	if session.Subscription != "" {
		updates["stripe_subscription_id"] = session.Subscription
	}

	if err := s.db.Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("subscription activated", "user_id", userID.String(), "tier", tier)
	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
