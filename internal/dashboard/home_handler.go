package dashboard

import (
	"food-dashboard/internal/database"
	"food-dashboard/internal/navigation"
	"food-dashboard/internal/views"

	"github.com/gofiber/fiber/v2"
)

// HomeHandler shows the row count of both tables and the most wasted item.
func HomeHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		inv, err := store.Load(database.Inventory)
		if err != nil {
			return err
		}
		waste, err := store.Load(database.WasteLog)
		if err != nil {
			return err
		}
		records, err := database.WasteRecords(waste)
		if err != nil {
			return err
		}

		data := fiber.Map{
			"InventoryCount": inv.Len(),
			"WasteCount":     waste.Len(),
		}
		if top, ok := MostWasted(records); ok {
			data["MostWasted"] = top
		}
		return views.Render(c, navigation.Home, data)
	}
}
