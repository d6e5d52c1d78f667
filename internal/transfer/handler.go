package transfer

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/moyobank/moyobank/internal/account"
	"github.com/moyobank/moyobank/internal/middleware"
)

// Handler exposes the transfer endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	ToAccountNumber int64 `json:"to_account_number"`
	Amount          int64 `json:"amount"`
}

// Transfer moves funds from the authenticated caller to the destination
// account number.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	caller, ok := middleware.Caller(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "could not validate credentials")
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	receipt, err := h.service.Transfer(c.UserContext(), caller, req.ToAccountNumber, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrSelfTransfer):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, account.ErrInsufficientFunds):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDestinationNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		default:
			return fiber.NewError(http.StatusInternalServerError, ErrTransactionFailed.Error())
		}
	}

	return c.Status(http.StatusOK).JSON(receipt)
}
