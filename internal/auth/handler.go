package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the login endpoint.
type Handler struct {
	svc *Service
}

// NewHandler constructs an auth HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Login verifies credentials and issues a bearer token. Any credential
// failure yields the same 401 body.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	acc, err := h.svc.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
	}
	signed, err := h.svc.tokens.Issue(acc.Username)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(loginResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.svc.tokens.TTL().Seconds()),
	})
}
