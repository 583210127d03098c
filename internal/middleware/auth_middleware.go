package middleware

import (
	"errors"
	"strings"

	"go-accounting/internal/access"
	"go-accounting/internal/service"
	"go-accounting/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on a WebSocket upgrade, so those may pass ?token= instead.
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if websocket.IsWebSocketUpgrade(c) && c.Query("token") != "" {
			return c.Query("token"), nil
		}
		return "", jwt.ErrMissingToken
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("invalid authorization format, use: Bearer <token>")
	}
	return parts[1], nil
}

// RequireAuth resolves the caller's session and stores the principal and
// token privileges for the handlers after it. Inactive accounts and
// replaced sessions are rejected.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		session, err := auth.Authenticate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}

		c.Locals(privilegesKey, session.Privileges)
		// Superuser flag is taken from the DB so a demotion applies immediately
		c.Locals(PrincipalKey, session.User.Principal())
		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get privileges from context (set by RequireAuth)
		privileges, ok := c.Locals(privilegesKey).([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		// Check if user has the required privilege
		for _, p := range privileges {
			if p == requiredPrivilege {
				return c.Next()
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires '" + requiredPrivilege + "' privilege",
		})
	}
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(privilegesKey).([]string)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(requiredPrivileges, ", ") + " privileges",
		})
	}
}

const (
	// PrincipalKey holds the access.Principal of an authenticated request.
	// contrib/websocket copies it onto the connection.
	PrincipalKey  = "principal"
	privilegesKey = "user_privileges"
)

// CurrentPrincipal returns the identity set by RequireAuth. Outside
// protected routes it is the zero Principal, which sees nothing.
func CurrentPrincipal(c *fiber.Ctx) access.Principal {
	p, _ := c.Locals(PrincipalKey).(access.Principal)
	return p
}

// RequireSuperuser rejects callers without elevated privilege.
func RequireSuperuser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !CurrentPrincipal(c).IsSuperuser {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden: superuser only"})
		}
		return c.Next()
	}
}
