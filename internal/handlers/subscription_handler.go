package handlers

import (
	"github.com/cinemai/backend/internal/dto"
	"github.com/cinemai/backend/internal/middleware"
	"github.com/cinemai/backend/internal/models"
	"github.com/cinemai/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type SubscriptionHandler struct {
	service *services.SubscriptionService
}

func NewSubscriptionHandler(service *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// Get returns the caller's subscription profile and the price table.
func (h *SubscriptionHandler) Get(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	profile, err := h.service.GetProfile(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(dto.SubscriptionResponse{
		Profile: *profile,
		Prices:  models.TierPrices,
	})
}

// CreateCheckout starts a hosted checkout session. Provider errors come back
// as a 400 error payload, never a 5xx.
func (h *SubscriptionHandler) CreateCheckout(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	sessionID, err := h.service.CreateCheckout(c.Context(), userID, req.Tier)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(dto.CheckoutResponse{SessionID: sessionID})
}

// Success is the checkout return page. Activation itself happens on the
// webhook; this just confirms the redirect landed.
func (h *SubscriptionHandler) Success(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Subscription activated successfully!"})
}
