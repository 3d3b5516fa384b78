package admin

import (
	"bytes"
	"fmt"
	"strconv"

	"food-dashboard/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const (
	WorkbookName = "food_dashboard.xlsx"
	mimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DownloadFile is one link of the download panel.
type DownloadFile struct {
	Label string
	Name  string
}

func downloadFiles() []DownloadFile {
	files := make([]DownloadFile, 0, len(database.Tables())+1)
	for _, t := range database.Tables() {
		files = append(files, DownloadFile{Label: "Download " + t.Label(), Name: t.Filename()})
	}
	return append(files, DownloadFile{Label: "Download Workbook", Name: WorkbookName})
}

// GET /admin/download/:file
//
// The CSV files are sent exactly as stored.
func DownloadHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("file")
		if name == WorkbookName {
			return sendWorkbook(c, store)
		}

		for _, t := range database.Tables() {
			if t.Filename() != name {
				continue
			}
			data, err := store.Raw(t)
			if err != nil {
				return err
			}
			c.Attachment(name)
			c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
			return c.Send(data)
		}
		return fiber.NewError(fiber.StatusNotFound, "no such download")
	}
}

func sendWorkbook(c *fiber.Ctx, store *database.Store) error {
	snaps := make([]database.Snapshot, 0, len(database.Tables()))
	for _, t := range database.Tables() {
		snap, err := store.Load(t)
		if err != nil {
			return err
		}
		snaps = append(snaps, snap)
	}

	buf, err := BuildWorkbook(snaps...)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	c.Attachment(WorkbookName)
	c.Set(fiber.HeaderContentType, mimeXLSX)
	return c.Send(buf.Bytes())
}

// BuildWorkbook writes one sheet per snapshot, named by the table label.
// The quantity column is stored as numbers, everything else as text.
func BuildWorkbook(snaps ...database.Snapshot) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for _, snap := range snaps {
		sheet := snap.Table.Label()
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}

		header := make([]interface{}, len(snap.Header))
		for j, h := range snap.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return nil, err
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return nil, err
		}

		for r, row := range snap.Rows {
			values := make([]interface{}, len(row))
			for j, v := range row {
				values[j] = v
			}
			// column 1 is Quantity / Quantity Wasted in both tables
			if n, err := strconv.Atoi(row[1]); err == nil {
				values[1] = n
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &values); err != nil {
				return nil, err
			}
		}
	}

	if len(snaps) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, err
		}
		idx, err := f.GetSheetIndex(snaps[0].Table.Label())
		if err != nil {
			return nil, err
		}
		f.SetActiveSheet(idx)
	}
	return f.WriteToBuffer()
}
