package handlers

import (
	"errors"

	"github.com/cinemai/backend/internal/dto"
	"github.com/cinemai/backend/internal/middleware"
	"github.com/cinemai/backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type MovieHandler struct {
	searchService *services.SearchService
	movieService  *services.MovieService
}

func NewMovieHandler(searchService *services.SearchService, movieService *services.MovieService) *MovieHandler {
	return &MovieHandler{searchService: searchService, movieService: movieService}
}

// Search runs the recommendation resolver. Provider failures come back as a
// warning inside a 200 response, never as a server error.
func (h *MovieHandler) Search(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	result, err := h.searchService.Search(c.Context(), userID, req.Query, req.Genre)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Search failed",
		})
	}

	return c.JSON(dto.SearchResponse{
		Query:   result.Query,
		Movies:  result.Movies,
		Warning: result.Warning,
	})
}

func (h *MovieHandler) SearchHistory(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	limit := c.QueryInt("limit", 20)
	entries, err := h.searchService.History(userID, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load search history",
		})
	}

	return c.JSON(fiber.Map{"history": entries})
}

// SeedMovie is the admin catalog-seeding endpoint.
func (h *MovieHandler) SeedMovie(c *fiber.Ctx) error {
	var req dto.SeedMovieRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request")
	}

	movie, err := h.movieService.Seed(&req)
	if err != nil {
		if errors.Is(err, services.ErrIMDBIDTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(movie)
}
