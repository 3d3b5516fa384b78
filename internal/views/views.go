// Package views holds the HTML templates of the dashboard and the helpers
// handlers use to render them inside the shared layout.
package views

import (
	"embed"
	"io/fs"
	"net/http"
	"strconv"

	"food-dashboard/internal/database"
	"food-dashboard/internal/navigation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

//go:embed templates
var templatesFS embed.FS

const layout = "layouts/main"

// Engine parses the embedded templates.
func Engine() *html.Engine {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("add", func(a, b int) int { return a + b })
	return engine
}

// Render draws page's template inside the layout with the sidebar and any
// pending flash message.
func Render(c *fiber.Ctx, page navigation.Page, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Pages"] = navigation.Pages()
	data["Active"] = page
	data["Title"] = page.Title()
	data["Flash"] = navigation.PendingFlash(c)
	c.Type("html", "utf-8")
	return c.Render(string(page), data, layout)
}

// RenderError draws the error page; the caller sets the status.
func RenderError(c *fiber.Ctx, message string) error {
	c.Type("html", "utf-8")
	return c.Render("error", fiber.Map{
		"Pages":   navigation.Pages(),
		"Active":  navigation.Active(c),
		"Title":   "Error",
		"Message": message,
	}, layout)
}

// Grid is a table as displayed: header plus rows labelled by position.
type Grid struct {
	Header []string
	Rows   []GridRow
}

type GridRow struct {
	Position int
	Cells    []string
}

func (g Grid) Empty() bool { return len(g.Rows) == 0 }

// GridOf shows every row of snap in file order.
func GridOf(snap database.Snapshot) Grid {
	g := Grid{Header: snap.Header, Rows: make([]GridRow, 0, len(snap.Rows))}
	for i, row := range snap.Rows {
		g.Rows = append(g.Rows, GridRow{Position: i, Cells: row})
	}
	return g
}

// RowGrid shows the single row at position, or nothing when out of range.
func RowGrid(snap database.Snapshot, position int) Grid {
	g := Grid{Header: snap.Header}
	if position >= 0 && position < len(snap.Rows) {
		g.Rows = []GridRow{{Position: position, Cells: snap.Rows[position]}}
	}
	return g
}

// Option is one entry of a row picker.
type Option struct {
	Value    int
	Label    string
	Selected bool
}

// RowOptions labels every row of snap with label(position, row).
func RowOptions(snap database.Snapshot, selected int, label func(int, []string) string) []Option {
	opts := make([]Option, 0, len(snap.Rows))
	for i, row := range snap.Rows {
		opts = append(opts, Option{Value: i, Label: label(i, row), Selected: i == selected})
	}
	return opts
}

// PositionLabel is the plain row number.
func PositionLabel(i int, _ []string) string {
	return strconv.Itoa(i)
}

// SelectedRow reads ?row=N, defaulting to the first row.
func SelectedRow(c *fiber.Ctx, snap database.Snapshot) int {
	pos := c.QueryInt("row", 0)
	if pos < 0 || pos >= len(snap.Rows) {
		return 0
	}
	return pos
}
