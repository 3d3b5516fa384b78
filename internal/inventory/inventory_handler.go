package inventory

import (
	"strings"

	"food-dashboard/internal/audit"
	"food-dashboard/internal/database"
	"food-dashboard/internal/models"
	"food-dashboard/internal/navigation"
	"food-dashboard/internal/records"
	"food-dashboard/internal/views"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type CreateInventoryRequest struct {
	Item       string `json:"item" form:"item"`
	Quantity   int    `json:"quantity" form:"quantity"`
	ExpiryDate string `json:"expiry_date" form:"expiry_date"` // "2024-06-01", empty means today
}

// ListInventoryHandler shows the inventory table in file order.
func ListInventoryHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := store.Load(database.Inventory)
		if err != nil {
			return err
		}
		return views.Render(c, navigation.Inventory, fiber.Map{"Grid": views.GridOf(snap)})
	}
}

func AddInventoryFormHandler(svc *records.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return views.Render(c, navigation.Add, fiber.Map{
			"Today": models.FormatDate(svc.Today()),
		})
	}
}

// POST /inventory
func CreateInventoryHandler(svc *records.Service, state *navigation.State) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateInventoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "quantity must be a whole number")
		}

		expiry := svc.Today()
		if s := strings.TrimSpace(body.ExpiryDate); s != "" {
			d, err := models.ParseDate(s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "expiry date must be YYYY-MM-DD")
			}
			expiry = d
		}

		rec, pos, err := svc.AddInventory(c.UserContext(), audit.RequestID(c), body.Item, body.Quantity, expiry)
		if err != nil {
			return records.HTTPError(err)
		}
		log.WithFields(log.Fields{
			"item":     rec.Item,
			"quantity": rec.Quantity,
			"position": pos,
		}).Info("inventory added")

		if err := state.Flash(c, navigation.FlashSuccess, "✅ Item added to inventory."); err != nil {
			return err
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	}
}
