package middleware

import (
	"coursemarket/backend/utils"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// AuthMiddleware verifies the caller's session token and stores its claims
// for the handlers behind it.
func AuthMiddleware(verifier *utils.SessionVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := utils.ExtractSessionFromRequest(c, verifier)
		if err != nil {
			return err
		}
		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// TeacherMiddleware lets only sessions carrying the teacher role through.
// It must run after AuthMiddleware.
func TeacherMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := Session(c)
		if session == nil {
			return utils.NewUnauthorizedError("Unauthorized")
		}
		if !session.IsTeacher() {
			return utils.NewForbiddenError("Forbidden - teacher access required")
		}
		return c.Next()
	}
}

// SelfMiddleware rejects requests whose :param differs from the caller's id.
func SelfMiddleware(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := Session(c)
		if session == nil {
			return utils.NewUnauthorizedError("Unauthorized")
		}
		if c.Params(param) != session.UserID {
			return utils.NewForbiddenError("Access denied")
		}
		return c.Next()
	}
}

// Session returns the claims stored by AuthMiddleware, or nil.
func Session(c *fiber.Ctx) *utils.SessionClaims {
	session, _ := c.Locals(sessionKey).(*utils.SessionClaims)
	return session
}
