package models

import (
	"fmt"
	"strconv"
	"time"
)

// WasteHeader is the header row of waste_log.csv.
var WasteHeader = []string{"Item", "Quantity Wasted", "Reason", "Waste Date"}

// WasteRecord: food thrown away. Item usually names an inventory item
// but nothing checks it.
type WasteRecord struct {
	Item           string    `json:"item"`
	QuantityWasted int       `json:"quantity_wasted"`
	Reason         string    `json:"reason"`
	WasteDate      time.Time `json:"waste_date"`
}

func (r WasteRecord) Row() []string {
	return []string{
		r.Item,
		strconv.Itoa(r.QuantityWasted),
		r.Reason,
		FormatDate(r.WasteDate),
	}
}

func WasteFromRow(row []string) (WasteRecord, error) {
	if len(row) != len(WasteHeader) {
		return WasteRecord{}, fmt.Errorf("expected %d fields, got %d", len(WasteHeader), len(row))
	}
	qty, err := strconv.Atoi(row[1])
	if err != nil {
		return WasteRecord{}, fmt.Errorf("Quantity Wasted %q is not an integer", row[1])
	}
	d, err := ParseDate(row[3])
	if err != nil {
		return WasteRecord{}, fmt.Errorf("Waste Date: %w", err)
	}
	return WasteRecord{
		Item:           row[0],
		QuantityWasted: qty,
		Reason:         row[2],
		WasteDate:      d,
	}, nil
}
