package models

import (
	"fmt"
	"strconv"
	"time"
)

// InventoryHeader is the header row of inventory.csv.
var InventoryHeader = []string{"Item", "Quantity", "Date Received", "Expiry Date"}

// InventoryRecord: one received batch of food. Identity is its row position.
type InventoryRecord struct {
	Item         string    `json:"item"`
	Quantity     int       `json:"quantity"`
	DateReceived time.Time `json:"date_received"`
	ExpiryDate   time.Time `json:"expiry_date"`
}

func (r InventoryRecord) Row() []string {
	return []string{
		r.Item,
		strconv.Itoa(r.Quantity),
		FormatDate(r.DateReceived),
		FormatDate(r.ExpiryDate),
	}
}

// InventoryFromRow decodes one CSV row laid out as InventoryHeader.
func InventoryFromRow(row []string) (InventoryRecord, error) {
	if len(row) != len(InventoryHeader) {
		return InventoryRecord{}, fmt.Errorf("expected %d fields, got %d", len(InventoryHeader), len(row))
	}
	qty, err := strconv.Atoi(row[1])
	if err != nil {
		return InventoryRecord{}, fmt.Errorf("Quantity %q is not an integer", row[1])
	}
	received, err := ParseDate(row[2])
	if err != nil {
		return InventoryRecord{}, fmt.Errorf("Date Received: %w", err)
	}
	expiry, err := ParseDate(row[3])
	if err != nil {
		return InventoryRecord{}, fmt.Errorf("Expiry Date: %w", err)
	}
	return InventoryRecord{
		Item:         row[0],
		Quantity:     qty,
		DateReceived: received,
		ExpiryDate:   expiry,
	}, nil
}

// DistinctItems returns each item name once, in first-seen order.
func DistinctItems(records []InventoryRecord) []string {
	seen := make(map[string]struct{}, len(records))
	items := make([]string, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.Item]; ok {
			continue
		}
		seen[r.Item] = struct{}{}
		items = append(items, r.Item)
	}
	return items
}
