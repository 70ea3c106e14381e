package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/loopmarket/loopmarket/internal/identity"
)

// OwnerAuth resolves the caller's owner id through the identity collaborator
// and stores it in request locals under "owner_id".
func OwnerAuth(auth identity.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		ownerID, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid credentials")
		}

		c.Locals("owner_id", ownerID)
		return c.Next()
	}
}
