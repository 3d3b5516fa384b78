package dashboard

import (
	"sort"

	"food-dashboard/internal/models"
)

// ItemTotal is the summed wasted quantity of one item.
type ItemTotal struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// TotalsByItem groups the waste log by exact item text and sums the wasted
// quantity. The result is ordered by item.
func TotalsByItem(records []models.WasteRecord) []ItemTotal {
	buckets := make(map[string]int)
	for _, r := range records {
		buckets[r.Item] += r.QuantityWasted
	}

	totals := make([]ItemTotal, 0, len(buckets))
	for item, qty := range buckets {
		totals = append(totals, ItemTotal{Item: item, Quantity: qty})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Item < totals[j].Item
	})
	return totals
}

// MostWasted returns the item with the largest total. Equal totals resolve
// to the smallest item name. ok is false for an empty log.
func MostWasted(records []models.WasteRecord) (top ItemTotal, ok bool) {
	for _, t := range TotalsByItem(records) {
		// totals are sorted by item, so a strict > keeps the first of a tie
		if !ok || t.Quantity > top.Quantity {
			top, ok = t, true
		}
	}
	return top, ok
}
