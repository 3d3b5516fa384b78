package database

import (
	"fmt"

	"food-dashboard/internal/models"
)

// Table identifies one of the two CSV files.
type Table string

const (
	Inventory Table = "inventory"
	WasteLog  Table = "waste_log"
)

func Tables() []Table {
	return []Table{Inventory, WasteLog}
}

func ParseTable(s string) (Table, error) {
	switch Table(s) {
	case Inventory, WasteLog:
		return Table(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, s)
}

func (t Table) Filename() string {
	return string(t) + ".csv"
}

// Label is the human name shown in the UI.
func (t Table) Label() string {
	switch t {
	case Inventory:
		return "Inventory"
	case WasteLog:
		return "Waste Log"
	}
	return string(t)
}

func (t Table) Header() []string {
	switch t {
	case Inventory:
		return append([]string(nil), models.InventoryHeader...)
	case WasteLog:
		return append([]string(nil), models.WasteHeader...)
	}
	return nil
}

func (t Table) validate(row []string) error {
	var err error
	switch t {
	case Inventory:
		_, err = models.InventoryFromRow(row)
	case WasteLog:
		_, err = models.WasteFromRow(row)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownTable, string(t))
	}
	return err
}
