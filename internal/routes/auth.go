package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moyobank/moyobank/internal/auth"
)

// RegisterAuthRoutes wires the login endpoint.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/token", rateLimiter, h.Login)
	} else {
		r.Post("/token", h.Login)
	}
}
