package auth

import (
	"food-dashboard/internal/navigation"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type LoginRequest struct {
	Password string `json:"password" form:"password"`
}

// POST /admin/login
func LoginHandler(g *Gate, state *navigation.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !g.Enabled() {
			return c.Redirect("/", fiber.StatusSeeOther)
		}

		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if !g.CheckPassword(body.Password) {
			log.WithField("ip", c.IP()).Warn("admin login failed")
			if err := state.Flash(c, navigation.FlashWarning, "Incorrect password."); err != nil {
				return err
			}
			return c.Redirect("/", fiber.StatusSeeOther)
		}

		token, expires, err := g.Issue()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "token could not be created")
		}
		c.Cookie(&fiber.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     "/",
			Expires:  expires,
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteStrictMode,
		})

		if err := state.Flash(c, navigation.FlashSuccess, "Signed in."); err != nil {
			return err
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// POST /admin/logout
func LogoutHandler(state *navigation.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.ClearCookie(CookieName)
		if err := state.Flash(c, navigation.FlashInfo, "Signed out."); err != nil {
			return err
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}
