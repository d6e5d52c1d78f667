package account

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes account directory endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	AccountNumber int64  `json:"account_number"`
	Balance       int64  `json:"balance"`
	Password      string `json:"password"`
}

type updateRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	AccountNumber int64  `json:"account_number"`
}

// Response is the client-facing account shape. The password hash never
// leaves the service.
type Response struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AccountNumber int64     `json:"account_number"`
	Balance       int64     `json:"balance"`
	Disabled      bool      `json:"disabled"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewResponse maps an account to its client-facing shape.
func NewResponse(acc Account) Response {
	return Response{
		ID:            acc.ID,
		Username:      acc.Username,
		Email:         acc.Email,
		FullName:      acc.FullName,
		AccountNumber: acc.AccountNumber,
		Balance:       acc.Balance,
		Disabled:      acc.Disabled,
		CreatedAt:     acc.CreatedAt,
	}
}

// Create opens a new account.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acc, err := h.service.Create(c.UserContext(), CreateInput{
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		AccountNumber: req.AccountNumber,
		Balance:       req.Balance,
		Password:      req.Password,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(NewResponse(acc))
}

// Get returns a single account by id.
func (h *Handler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid account id")
	}
	acc, err := h.service.Get(c.UserContext(), int64(id))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(NewResponse(acc))
}

// List returns a page of accounts in insertion order.
func (h *Handler) List(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 0)
	accounts, err := h.service.List(c.UserContext(), offset, limit)
	if err != nil {
		return mapError(err)
	}
	out := make([]Response, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, NewResponse(acc))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Update replaces the mutable fields of an account.
func (h *Handler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid account id")
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acc, err := h.service.Update(c.UserContext(), int64(id), UpdateInput{
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		AccountNumber: req.AccountNumber,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(NewResponse(acc))
}

// Delete removes an account and echoes the deleted record.
func (h *Handler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid account id")
	}
	acc, err := h.service.Delete(c.UserContext(), int64(id))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(NewResponse(acc))
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
