package dashboard

import (
	"food-dashboard/internal/database"
	"food-dashboard/internal/navigation"
	"food-dashboard/internal/views"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler charts waste per item. Totals, chart and raw table all
// come from the one snapshot loaded here.
func AnalyticsHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap, err := store.Load(database.WasteLog)
		if err != nil {
			return err
		}
		if snap.Empty() {
			return views.Render(c, navigation.Analytics, fiber.Map{"Empty": true})
		}

		records, err := database.WasteRecords(snap)
		if err != nil {
			return err
		}
		totals := TotalsByItem(records)
		chart, err := RenderBarChart(totals)
		if err != nil {
			return err
		}
		return views.Render(c, navigation.Analytics, fiber.Map{
			"Totals": totals,
			"Chart":  chart,
			"Log":    views.GridOf(snap),
		})
	}
}

type WasteTotalsResponse struct {
	Records    int         `json:"records"`
	Totals     []ItemTotal `json:"totals"`
	MostWasted *ItemTotal  `json:"most_wasted"`
}

// GET /api/waste/totals
func WasteTotalsHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := store.LoadWasteLog()
		if err != nil {
			return err
		}
		resp := WasteTotalsResponse{
			Records: len(records),
			Totals:  TotalsByItem(records),
		}
		if top, ok := MostWasted(records); ok {
			resp.MostWasted = &top
		}
		return c.JSON(resp)
	}
}
