package routes

import (
	"time"

	"github.com/cinemai/backend/internal/config"
	"github.com/cinemai/backend/internal/handlers"
	"github.com/cinemai/backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	movieHandler *handlers.MovieHandler,
	watchlistHandler *handlers.WatchlistHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	webhookHandler *handlers.WebhookHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth — public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/password-reset", authHandler.RequestPasswordReset)
	auth.Post("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	// Account (JWT required)
	jwt := middleware.JWTProtected(cfg)
	api.Post("/auth/logout", jwt, authHandler.Logout)
	api.Get("/account", jwt, authHandler.GetAccount)
	api.Put("/account", jwt, authHandler.UpdateAccount)
	api.Delete("/account", jwt, authHandler.DeleteAccount)

	// Search & recommendations
	api.Post("/movies/search", jwt, movieHandler.Search)
	api.Get("/movies/search/history", jwt, movieHandler.SearchHistory)

	// Watchlist
	api.Get("/watchlist", jwt, watchlistHandler.List)
	api.Post("/watchlist/:movieID", jwt, watchlistHandler.Add)
	api.Put("/watchlist/:id", jwt, watchlistHandler.Update)
	api.Delete("/watchlist/:id", jwt, watchlistHandler.Remove)

	// Subscription
	api.Get("/subscription", jwt, subscriptionHandler.Get)
	api.Post("/subscription/checkout", jwt, subscriptionHandler.CreateCheckout)
	api.Get("/subscription/success", jwt, subscriptionHandler.Success)

	// Admin catalog seeding
	admin := api.Group("/admin", jwt, middleware.AdminRequired(db, cfg))
	admin.Post("/movies", movieHandler.SeedMovie)

	// Webhooks — signature-verified, no JWT
	api.Post("/webhooks/stripe", webhookHandler.HandleStripe)
}
