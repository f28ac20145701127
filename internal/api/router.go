package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"sharebnb/internal/api/handler"
	"sharebnb/internal/api/middleware"
	"sharebnb/internal/app/service"
)

func NewRouter(
	authenticator *middleware.Authenticator,
	authService *service.AuthService,
	userService *service.UserService,
	listingService *service.ListingService,
	messageService *service.MessageService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Resolve the Authorization header once per request. Anonymous requests
	// pass through; route groups opt into RequireAuth / AdminOnly.
	r.Use(authenticator.WithIdentity)

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// User routes (authenticated)
		userHandler := handler.NewUserHandler(userService)
		v1.Route("/users", userHandler.RegisterRoutes)

		// Listing routes (search and detail public, mutations authenticated)
		listingHandler := handler.NewListingHandler(listingService)
		v1.Route("/listings", listingHandler.RegisterRoutes)

		// Message routes (authenticated)
		messageHandler := handler.NewMessageHandler(messageService)
		v1.Route("/messages", messageHandler.RegisterRoutes)
	})

	return r
}
