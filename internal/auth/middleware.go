package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/support-ai-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Tokens are self-contained;
// no database lookup happens on the request path.
type Principal struct {
	AgentID   string
	AgentName string
}

// AuthMiddleware validates bearer tokens and attaches principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	required bool
}

// NewAuthMiddleware constructs middleware. When required is false the
// middleware still parses valid tokens but lets anonymous requests through,
// which is how the customer-facing intake endpoint runs.
func NewAuthMiddleware(tokens *TokenManager, required bool) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, required: required}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if m.required {
			return apperrors.NewUnauthorized("missing authorization header")
		}
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{AgentID: claims.AgentID, AgentName: claims.AgentName})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
