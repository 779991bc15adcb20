package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cinemai/backend/internal/models"
	"github.com/cinemai/backend/internal/payments"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func checkoutCompletedPayload(t *testing.T, eventID, userRef, tier, customer, subscription string) []byte {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"id":   eventID,
		"type": "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id":                  "cs_" + eventID,
				"client_reference_id": userRef,
				"customer":            customer,
				"subscription":        subscription,
				"metadata":            map[string]string{"tier": tier},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return payload
}

func deliverEvent(t *testing.T, svc *SubscriptionService, payload []byte) {
	t.Helper()

	event, err := payments.ParseEvent(payload)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if err := svc.HandleWebhookEvent(event, payload); err != nil {
		t.Fatalf("handle event: %v", err)
	}
}

func loadProfile(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.UserProfile {
	t.Helper()

	var profile models.UserProfile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		t.Fatalf("load profile: %v", err)
	}
	return &profile
}

func TestCheckoutCompletedActivatesProfile(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "subscriber@example.com")
	svc := NewSubscriptionService(db, &fakeCheckout{}, testConfig())

	payload := checkoutCompletedPayload(t, "evt_1", user.ID.String(), "STANDARD", "cus_42", "sub_42")
	deliverEvent(t, svc, payload)

	profile := loadProfile(t, db, user.ID)
	if profile.SubscriptionTier != models.TierStandard {
		t.Fatalf("expected tier STANDARD, got %s", profile.SubscriptionTier)
	}
	if !profile.SubscriptionActive {
		t.Fatal("expected subscription to be active")
	}
	if profile.StripeCustomerID == nil || *profile.StripeCustomerID != "cus_42" {
		t.Fatalf("expected customer cus_42, got %v", profile.StripeCustomerID)
	}
	if profile.StripeSubscriptionID == nil || *profile.StripeSubscriptionID != "sub_42" {
		t.Fatalf("expected subscription sub_42, got %v", profile.StripeSubscriptionID)
	}

	var event models.WebhookEvent
	if err := db.Where("provider_event_id = ?", "evt_1").First(&event).Error; err != nil {
		t.Fatalf("load webhook event: %v", err)
	}
	if event.ProcessedAt == nil {
		t.Fatal("expected processed_at to be set")
	}
}

func TestUnresolvableUserIsAcknowledged(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "bystander@example.com")
	svc := NewSubscriptionService(db, &fakeCheckout{}, testConfig())

	// Unknown uuid and garbage reference must neither error nor mutate.
	deliverEvent(t, svc, checkoutCompletedPayload(t, "evt_2", uuid.NewString(), "PRO", "cus_x", "sub_x"))
	deliverEvent(t, svc, checkoutCompletedPayload(t, "evt_3", "not-a-uuid", "PRO", "cus_x", "sub_x"))

	profile := loadProfile(t, db, user.ID)
	if profile.SubscriptionActive || profile.SubscriptionTier != models.TierBasic {
		t.Fatalf("bystander profile mutated: %+v", profile)
	}
}

func TestUnhandledEventTypesAreIgnored(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "subscriber@example.com")
	svc := NewSubscriptionService(db, &fakeCheckout{}, testConfig())

	payload := []byte(`{"id":"evt_4","type":"invoice.paid","data":{"object":{}}}`)
	deliverEvent(t, svc, payload)

	profile := loadProfile(t, db, user.ID)
	if profile.SubscriptionActive {
		t.Fatal("unhandled event type must not mutate the profile")
	}

	// Ignored events are still terminal; a redelivery must not reprocess.
	var event models.WebhookEvent
	if err := db.Where("provider_event_id = ?", "evt_4").First(&event).Error; err != nil {
		t.Fatalf("load webhook event: %v", err)
	}
	if event.ProcessedAt == nil {
		t.Fatal("expected the ignored event to be marked processed")
	}
}

func TestDuplicateDeliveryIsNotReapplied(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "subscriber@example.com")
	svc := NewSubscriptionService(db, &fakeCheckout{}, testConfig())

	payload := checkoutCompletedPayload(t, "evt_5", user.ID.String(), "PRO", "cus_1", "sub_1")
	deliverEvent(t, svc, payload)

	// Simulate a later state change, then a provider redelivery of evt_5.
	if err := db.Model(&models.UserProfile{}).Where("user_id = ?", user.ID).
		Update("subscription_tier", models.TierBasic).Error; err != nil {
		t.Fatalf("downgrade profile: %v", err)
	}
	deliverEvent(t, svc, payload)

	profile := loadProfile(t, db, user.ID)
	if profile.SubscriptionTier != models.TierBasic {
		t.Fatalf("redelivered event was reapplied, tier = %s", profile.SubscriptionTier)
	}
}

func TestFailedDeliveryIsRetried(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "subscriber@example.com")
	svc := NewSubscriptionService(db, &fakeCheckout{}, testConfig())

	// Fail the first profile write, as a dropped connection would.
	failNext := true
	err := db.Callback().Update().Before("gorm:update").Register("profile_outage", func(tx *gorm.DB) {
		if failNext && tx.Statement.Table == "user_profiles" {
			failNext = false
			tx.AddError(errors.New("connection reset by peer"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	defer db.Callback().Update().Remove("profile_outage")

	payload := checkoutCompletedPayload(t, "evt_6", user.ID.String(), "STANDARD", "cus_6", "sub_6")
	event, err := payments.ParseEvent(payload)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if err := svc.HandleWebhookEvent(event, payload); err == nil {
		t.Fatal("expected the first delivery to fail")
	}

	// The provider redelivers after a 5xx; the retry must finish the job.
	deliverEvent(t, svc, payload)

	profile := loadProfile(t, db, user.ID)
	if profile.SubscriptionTier != models.TierStandard || !profile.SubscriptionActive {
		t.Fatalf("retry did not activate the profile: %+v", profile)
	}

	var eventRow models.WebhookEvent
	if err := db.Where("provider_event_id = ?", "evt_6").First(&eventRow).Error; err != nil {
		t.Fatalf("load webhook event: %v", err)
	}
	if eventRow.ProcessedAt == nil {
		t.Fatal("expected processed_at after the successful retry")
	}
}

func TestWebhookStorageErrorSurfaces(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "subscriber@example.com")
	svc := NewSubscriptionService(db, &fakeCheckout{}, testConfig())

	if err := db.Exec("DROP TABLE webhook_events").Error; err != nil {
		t.Fatalf("drop table: %v", err)
	}

	payload := checkoutCompletedPayload(t, "evt_7", user.ID.String(), "PRO", "cus_7", "sub_7")
	event, err := payments.ParseEvent(payload)
	if err != nil {
		t.Fatalf("parse event: %v", err)
	}
	if err := svc.HandleWebhookEvent(event, payload); err == nil {
		t.Fatal("expected a storage error, not a silent acknowledge")
	}

	profile := loadProfile(t, db, user.ID)
	if profile.SubscriptionActive {
		t.Fatal("profile must not change when the event cannot be recorded")
	}
}

func TestCreateCheckoutPriceMapping(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "subscriber@example.com")

	cases := []struct {
		tier       string
		wantAmount int64
		wantTier   string
	}{
		{"BASIC", 999, "BASIC"},
		{"standard", 1499, "STANDARD"},
		{"PRO", 1999, "PRO"},
		{"PLATINUM", 999, "PLATINUM"}, // unknown tier falls back to the BASIC price
	}

	for _, tc := range cases {
		t.Run(tc.tier, func(t *testing.T) {
			fake := &fakeCheckout{sessionID: "cs_ok"}
			svc := NewSubscriptionService(db, fake, testConfig())

			sessionID, err := svc.CreateCheckout(context.Background(), user.ID, tc.tier)
			if err != nil {
				t.Fatalf("create checkout: %v", err)
			}
			if sessionID != "cs_ok" {
				t.Fatalf("expected session cs_ok, got %s", sessionID)
			}
			if fake.lastParam.UnitAmount != tc.wantAmount {
				t.Fatalf("tier %s: expected amount %d, got %d", tc.tier, tc.wantAmount, fake.lastParam.UnitAmount)
			}
			if fake.lastParam.Tier != tc.wantTier {
				t.Fatalf("tier %s: expected metadata tier %s, got %s", tc.tier, tc.wantTier, fake.lastParam.Tier)
			}
			if fake.lastParam.ClientReferenceID != user.ID.String() {
				t.Fatalf("expected client reference %s, got %s", user.ID, fake.lastParam.ClientReferenceID)
			}
		})
	}
}

func TestCreateCheckoutDoesNotTouchProfile(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "subscriber@example.com")
	svc := NewSubscriptionService(db, &fakeCheckout{sessionID: "cs_ok"}, testConfig())

	if _, err := svc.CreateCheckout(context.Background(), user.ID, "PRO"); err != nil {
		t.Fatalf("create checkout: %v", err)
	}

	profile := loadProfile(t, db, user.ID)
	if profile.SubscriptionActive || profile.SubscriptionTier != models.TierBasic {
		t.Fatal("checkout initiation must not modify the profile")
	}
}

func TestCreateCheckoutProviderError(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "subscriber@example.com")
	svc := NewSubscriptionService(db, &fakeCheckout{err: errors.New("provider down")}, testConfig())

	if _, err := svc.CreateCheckout(context.Background(), user.ID, "BASIC"); err == nil {
		t.Fatal("expected provider error to surface")
	}
}
