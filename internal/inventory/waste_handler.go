package inventory

import (
	"errors"
	"fmt"

	"food-dashboard/internal/audit"
	"food-dashboard/internal/database"
	"food-dashboard/internal/models"
	"food-dashboard/internal/navigation"
	"food-dashboard/internal/records"
	"food-dashboard/internal/views"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type CreateWasteRequest struct {
	Item     string `json:"item" form:"item"`
	Quantity int    `json:"quantity" form:"quantity"`
	Reason   string `json:"reason" form:"reason"`
}

type DeleteRowRequest struct {
	Position int    `json:"position" form:"position"`
	Revision string `json:"revision" form:"revision"` // table revision the row was picked from
}

// WasteLabel names a waste row in the delete picker.
func WasteLabel(pos int, row []string) string {
	return fmt.Sprintf("%d - %s (%s)", pos, row[0], row[3])
}

// LogWasteHandler shows the log form for known inventory items and the
// delete picker over the waste log.
func LogWasteHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		inv, err := store.LoadInventory()
		if err != nil {
			return err
		}
		waste, err := store.Load(database.WasteLog)
		if err != nil {
			return err
		}

		data := fiber.Map{
			"Items":      models.DistinctItems(inv),
			"WasteEmpty": waste.Empty(),
		}
		if !waste.Empty() {
			selected := views.SelectedRow(c, waste)
			data["Selected"] = selected
			data["Options"] = views.RowOptions(waste, selected, WasteLabel)
			data["Preview"] = views.RowGrid(waste, selected)
			data["Revision"] = waste.Revision
		}
		return views.Render(c, navigation.Waste, data)
	}
}

// POST /waste
func CreateWasteHandler(svc *records.Service, state *navigation.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateWasteRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be a whole number")
		}

		rec, pos, err := svc.LogWaste(c.UserContext(), audit.RequestID(c), body.Item, body.Quantity, body.Reason)
		if errors.Is(err, records.ErrNoInventory) {
			if err := state.Flash(c, navigation.FlashInfo, "Inventory empty."); err != nil {
				return err
			}
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		if err != nil {
			return records.HTTPError(err)
		}
		log.WithFields(log.Fields{
			"item":     rec.Item,
			"quantity": rec.QuantityWasted,
			"position": pos,
		}).Info("waste logged")

		if err := state.Flash(c, navigation.FlashSuccess, "✅ Waste logged."); err != nil {
			return err
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}

// POST /waste/delete
func DeleteWasteHandler(svc *records.Service, state *navigation.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DeleteRowRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "position must be a whole number")
		}

		_, err := svc.DeleteRow(c.UserContext(), audit.RequestID(c), database.WasteLog, body.Position, body.Revision)
		if errors.Is(err, database.ErrEmptyTable) {
			if err := state.Flash(c, navigation.FlashInfo, "No waste logs to delete."); err != nil {
				return err
			}
			return c.Redirect("/", fiber.StatusSeeOther)
		}
		if err != nil {
			return records.HTTPError(err)
		}

		if err := state.Flash(c, navigation.FlashSuccess, "🧹 Deleted successfully."); err != nil {
			return err
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}
