package middleware

import (
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/meinhoongagan/healthcoach-api/utils"
	"go.uber.org/zap"
)

const principalKey = "principal"

// Protected accepts only access tokens and stores the caller's Principal.
func Protected(secret []byte) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    secret,
		SigningMethod: "HS256",
		ErrorHandler:  jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return unauthorized(c)
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauthorized(c)
			}
			p, err := utils.PrincipalFromClaims(claims, utils.TokenAccess)
			if err != nil {
				logger.Log.Debug("rejected token claims", zap.Error(err))
				return unauthorized(c)
			}

			c.Locals(principalKey, p)
			c.Locals("userID", p.UserID)
			return c.Next()
		},
	})
}

// CurrentPrincipal returns the caller set by Protected.
func CurrentPrincipal(c *fiber.Ctx) (models.Principal, bool) {
	p, ok := c.Locals(principalKey).(models.Principal)
	return p, ok && p.UserID != 0
}

// SetPrincipal is used by tests and internal callers that authenticate by other means.
func SetPrincipal(c *fiber.Ctx, p models.Principal) {
	c.Locals(principalKey, p)
	c.Locals("userID", p.UserID)
}

// RequireUserType rejects callers of any other user type with 403.
func RequireUserType(t models.UserType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := CurrentPrincipal(c)
		if !ok {
			return unauthorized(c)
		}
		if p.UserType != t {
			detail := "Permission denied"
			if t == models.UserTypeConsultant {
				detail = "Consultant access required"
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"detail": detail})
		}
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"detail": "Could not validate credentials",
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	logger.Log.Debug("JWT error", zap.Error(err))
	return unauthorized(c)
}
