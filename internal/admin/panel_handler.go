package admin

import (
	"food-dashboard/internal/audit"
	"food-dashboard/internal/auth"
	"food-dashboard/internal/database"
	"food-dashboard/internal/navigation"
	"food-dashboard/internal/records"
	"food-dashboard/internal/views"

	"github.com/gofiber/fiber/v2"
)

const historyLimit = 50

// Panel is one of the admin sub-views, picked with ?panel=.
type Panel string

const (
	PanelNone     Panel = ""
	PanelView     Panel = "view"
	PanelDelete   Panel = "delete"
	PanelReset    Panel = "reset"
	PanelDownload Panel = "download"
	PanelHistory  Panel = "history"
)

func Panels() []Panel {
	return []Panel{PanelView, PanelDelete, PanelReset, PanelDownload, PanelHistory}
}

func (p Panel) Title() string {
	switch p {
	case PanelView:
		return "View Data"
	case PanelDelete:
		return "Delete Entry"
	case PanelReset:
		return "Reset All"
	case PanelDownload:
		return "Download CSV"
	case PanelHistory:
		return "History"
	}
	return ""
}

func parsePanel(s string) (Panel, bool) {
	if s == "" {
		return PanelNone, true
	}
	for _, p := range Panels() {
		if string(p) == s {
			return p, true
		}
	}
	return PanelNone, false
}

// TableChoice is one entry of the "Delete From" selector.
type TableChoice struct {
	Value    database.Table
	Label    string
	Selected bool
}

// EmptyMessage is shown instead of the delete picker for an empty table.
func EmptyMessage(t database.Table) string {
	if t == database.WasteLog {
		return "Waste log is empty."
	}
	return t.Label() + " is empty."
}

// PanelHandler renders the admin page with the sub-panel named by ?panel=.
func PanelHandler(svc *records.Service, gate *auth.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data := fiber.Map{
			"Panels": Panels(),
			"Gated":  gate.Enabled(),
		}
		if !gate.Authenticated(c) {
			data["Locked"] = true
			return views.Render(c, navigation.Admin, data)
		}

		panel, ok := parsePanel(c.Query("panel"))
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown admin panel")
		}
		data["Panel"] = panel

		var err error
		switch panel {
		case PanelView:
			err = viewPanel(svc.Store, data)
		case PanelDelete:
			err = deletePanel(c, svc.Store, data)
		case PanelDownload:
			data["Files"] = downloadFiles()
		case PanelHistory:
			err = historyPanel(c, svc, data)
		}
		if err != nil {
			return err
		}
		return views.Render(c, navigation.Admin, data)
	}
}

func viewPanel(store *database.Store, data fiber.Map) error {
	inv, err := store.Load(database.Inventory)
	if err != nil {
		return err
	}
	waste, err := store.Load(database.WasteLog)
	if err != nil {
		return err
	}
	data["InventoryGrid"] = views.GridOf(inv)
	data["WasteGrid"] = views.GridOf(waste)
	return nil
}

func deletePanel(c *fiber.Ctx, store *database.Store, data fiber.Map) error {
	t := database.Inventory
	if s := c.Query("table"); s != "" {
		parsed, err := database.ParseTable(s)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		t = parsed
	}

	choices := make([]TableChoice, 0, len(database.Tables()))
	for _, tbl := range database.Tables() {
		choices = append(choices, TableChoice{Value: tbl, Label: tbl.Label(), Selected: tbl == t})
	}
	data["Table"] = t
	data["Tables"] = choices

	snap, err := store.Load(t)
	if err != nil {
		return err
	}
	if snap.Empty() {
		data["EmptyMessage"] = EmptyMessage(t)
		return nil
	}
	selected := views.SelectedRow(c, snap)
	data["Selected"] = selected
	data["Options"] = views.RowOptions(snap, selected, views.PositionLabel)
	data["Preview"] = views.RowGrid(snap, selected)
	data["Revision"] = snap.Revision
	return nil
}

func historyPanel(c *fiber.Ctx, svc *records.Service, data fiber.Map) error {
	logs, err := svc.History(c.UserContext(), historyLimit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "audit history could not be loaded")
	}
	entries := make([]audit.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, audit.ToResponse(l))
	}
	data["History"] = entries
	return nil
}
