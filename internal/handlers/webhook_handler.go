package handlers

import (
	"log/slog"

	"github.com/cinemai/backend/internal/dto"
	"github.com/cinemai/backend/internal/payments"
	"github.com/cinemai/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// SignatureVerifier is the slice of the payments client the webhook handler
// needs; tests inject fakes.
type SignatureVerifier interface {
	VerifySignature(payload []byte, sigHeader string) error
}

type WebhookHandler struct {
	subscriptionService *services.SubscriptionService
	verifier            SignatureVerifier
}

func NewWebhookHandler(subscriptionService *services.SubscriptionService, verifier SignatureVerifier) *WebhookHandler {
	return &WebhookHandler{
		subscriptionService: subscriptionService,
		verifier:            verifier,
	}
}

// HandleStripe verifies and applies a Stripe webhook delivery. Verification
// failures are the only hard failures; everything past that point is
// acknowledged so the provider stops retrying.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	payload := c.Body()

	if err := h.verifier.VerifySignature(payload, c.Get("Stripe-Signature")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid signature",
		})
	}

	event, err := payments.ParseEvent(payload)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid payload",
		})
	}

	if err := h.subscriptionService.HandleWebhookEvent(event, payload); err != nil {
		slog.Error("webhook processing failed", "event_type", event.Type, "event_id", event.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "event_type", event.Type, "event_id", event.ID)
	return c.JSON(fiber.Map{"status": "success"})
}
