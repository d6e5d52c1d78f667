package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moyobank/moyobank/internal/account"
	"github.com/moyobank/moyobank/internal/transfer"
)

// RegisterAccountRoutes wires account directory and transfer endpoints.
// The transfer route is registered before the :id routes so "transfer"
// is never captured as an account id.
func RegisterAccountRoutes(r fiber.Router, accounts *account.Handler, transfers *transfer.Handler) {
	r.Post("/accounts/transfer", transfers.Transfer)

	r.Get("/accounts", accounts.List)
	r.Post("/accounts", accounts.Create)
	r.Get("/accounts/:id", accounts.Get)
	r.Put("/accounts/:id", accounts.Update)
	r.Delete("/accounts/:id", accounts.Delete)
}
