package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/smartcart/internal/config"
	"github.com/example/smartcart/internal/utils"
)

const claimsContextKey = "authClaims"

// AuthMiddleware validates bearer tokens and loads the verified claims into
// the request context. Requests without a valid token never reach handlers.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := utils.ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		c.Locals(claimsContextKey, claims)
		return c.Next()
	}
}

// GetAuthClaims extracts the authenticated token claims from context.
func GetAuthClaims(c *fiber.Ctx) (utils.Claims, bool) {
	value := c.Locals(claimsContextKey)
	if value == nil {
		return utils.Claims{}, false
	}

	if claims, ok := value.(utils.Claims); ok {
		return claims, true
	}

	return utils.Claims{}, false
}
