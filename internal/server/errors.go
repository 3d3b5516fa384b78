package server

import (
	"errors"
	"strings"

	"food-dashboard/internal/database"
	"food-dashboard/internal/views"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// ErrorHandler turns handler errors into an error page, or a JSON body for
// API callers. A malformed table file is shown to the user as is; there is
// no repair.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Unexpected server error"

	var fe *fiber.Error
	var pe *database.ParseError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.As(err, &pe):
		message = "Malformed data file: " + pe.Error()
	}

	if code >= fiber.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"path":   c.Path(),
			"method": c.Method(),
		}).Error("request failed")
	}

	if wantsJSON(c) {
		return c.Status(code).JSON(fiber.Map{"error": message})
	}
	c.Status(code)
	if rerr := views.RenderError(c, message); rerr != nil {
		log.WithError(rerr).Error("error page could not be rendered")
		return c.Status(code).SendString(message)
	}
	return nil
}

func wantsJSON(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), "/api/") {
		return true
	}
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
