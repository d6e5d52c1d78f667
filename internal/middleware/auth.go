package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/moyobank/moyobank/internal/account"
	"github.com/moyobank/moyobank/internal/auth"
)

const callerKey = "caller"

// BearerAuth resolves the calling account from the Authorization header and
// stores it in request locals. Every protected route runs behind this gate;
// handlers read the caller via Caller. Disabled accounts get 403, every
// other failure the same generic 401.
func BearerAuth(guard *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, auth.ErrUnauthorized.Error())
		}
		bearer := strings.TrimSpace(authz[len("Bearer "):])

		caller, err := guard.CurrentUser(c.UserContext(), bearer)
		if err != nil {
			if errors.Is(err, auth.ErrInactiveAccount) {
				return fiber.NewError(http.StatusForbidden, err.Error())
			}
			return fiber.NewError(http.StatusUnauthorized, auth.ErrUnauthorized.Error())
		}

		c.Locals(callerKey, caller)
		return c.Next()
	}
}

// Caller returns the account resolved by BearerAuth for this request.
func Caller(c *fiber.Ctx) (account.Account, bool) {
	caller, ok := c.Locals(callerKey).(account.Account)
	return caller, ok
}
