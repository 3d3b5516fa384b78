package admin

import (
	"errors"
	"net/url"

	"food-dashboard/internal/audit"
	"food-dashboard/internal/database"
	"food-dashboard/internal/navigation"
	"food-dashboard/internal/records"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type DeleteEntryRequest struct {
	Table    string `json:"table" form:"table"`
	Position int    `json:"position" form:"position"`
	Revision string `json:"revision" form:"revision"`
}

type ResetRequest struct {
	Confirm string `json:"confirm" form:"confirm"`
}

func panelURL(p Panel, t database.Table) string {
	q := url.Values{"panel": {string(p)}}
	if t != "" {
		q.Set("table", string(t))
	}
	return "/?" + q.Encode()
}

// POST /admin/delete
func DeleteEntryHandler(svc *records.Service, state *navigation.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DeleteEntryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "position must be a whole number")
		}
		t, err := database.ParseTable(body.Table)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		removed, err := svc.DeleteRow(c.UserContext(), audit.RequestID(c), t, body.Position, body.Revision)
		if errors.Is(err, database.ErrEmptyTable) {
			if err := state.Flash(c, navigation.FlashInfo, EmptyMessage(t)); err != nil {
				return err
			}
			return c.Redirect(panelURL(PanelDelete, t), fiber.StatusSeeOther)
		}
		if err != nil {
			return records.HTTPError(err)
		}
		log.WithFields(log.Fields{
			"table":    t,
			"position": body.Position,
			"row":      removed,
		}).Info("admin deleted row")

		if err := state.Flash(c, navigation.FlashSuccess, "✅ Deleted."); err != nil {
			return err
		}
		return c.Redirect(panelURL(PanelDelete, t), fiber.StatusSeeOther)
	}
}

// POST /admin/reset
func ResetHandler(svc *records.Service, state *navigation.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Confirm != "yes" {
			return fiber.NewError(fiber.StatusBadRequest, "reset needs confirm=yes")
		}

		keys, err := svc.ResetAll(c.UserContext(), audit.RequestID(c))
		if err != nil {
			return err
		}
		log.WithField("backups", keys).Warn("all data cleared")

		if err := state.Flash(c, navigation.FlashSuccess, "🚫 All data cleared."); err != nil {
			return err
		}
		return c.Redirect(panelURL(PanelReset, ""), fiber.StatusSeeOther)
	}
}
