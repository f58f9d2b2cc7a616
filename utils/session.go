package utils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// FormSessionCookie identifies one browser's form session. The id scopes the
// pending-attachment store and the duplicate-submit guard; it carries no
// authentication.
const FormSessionCookie = "eventownik_form_session"

// FormSessionID returns the request's form-session id, minting and setting a
// new one when the cookie is absent.
func FormSessionID(c *fiber.Ctx) string {
	if id := c.Cookies(FormSessionCookie); id != "" {
		return id
	}
	id := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     FormSessionCookie,
		Value:    id,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
	return id
}
