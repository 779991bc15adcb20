package handlers

import (
	"errors"

	"github.com/cinemai/backend/internal/dto"
	"github.com/cinemai/backend/internal/middleware"
	"github.com/cinemai/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type WatchlistHandler struct {
	service *services.WatchlistService
}

func NewWatchlistHandler(service *services.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{service: service}
}

func (h *WatchlistHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	items, err := h.service.List(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load watchlist",
		})
	}

	return c.JSON(fiber.Map{"watchlist": items})
}

func (h *WatchlistHandler) Add(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	movieID, err := uuid.Parse(c.Params("movieID"))
	if err != nil {
		return badRequest(c, "Invalid movie id")
	}

	item, alreadyPresent, err := h.service.Add(userID, movieID)
	if err != nil {
		if errors.Is(err, services.ErrMovieNotFound) {
			return notFound(c, err.Error())
		}
		return badRequest(c, err.Error())
	}

	if alreadyPresent {
		return c.JSON(fiber.Map{
			"item":    item,
			"message": item.Movie.Title + " is already in your watchlist",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"item":    item,
		"message": item.Movie.Title + " added to your watchlist",
	})
}

func (h *WatchlistHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid watchlist id")
	}

	var req dto.UpdateWatchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	item, err := h.service.Update(userID, itemID, req.Watched, req.Notes)
	if err != nil {
		if errors.Is(err, services.ErrNotInWatchlist) {
			return notFound(c, err.Error())
		}
		return badRequest(c, err.Error())
	}

	return c.JSON(item)
}

func (h *WatchlistHandler) Remove(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	itemID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid watchlist id")
	}

	if err := h.service.Remove(userID, itemID); err != nil {
		if errors.Is(err, services.ErrNotInWatchlist) {
			return notFound(c, err.Error())
		}
		return badRequest(c, err.Error())
	}

	return c.JSON(fiber.Map{"message": "Removed from watchlist"})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}
