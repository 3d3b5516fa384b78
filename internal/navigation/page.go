package navigation

import "fmt"

// Page is the view selected by the side navigation.
type Page string

const (
	Home      Page = "home"
	Inventory Page = "inventory"
	Add       Page = "add"
	Waste     Page = "waste"
	Analytics Page = "analytics"
	Admin     Page = "admin"
)

// Pages lists the destinations in sidebar order.
func Pages() []Page {
	return []Page{Home, Inventory, Add, Waste, Analytics, Admin}
}

func ParsePage(s string) (Page, error) {
	for _, p := range Pages() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown page %q", s)
}

func (p Page) Title() string {
	switch p {
	case Home:
		return "Home"
	case Inventory:
		return "Inventory"
	case Add:
		return "Add Inventory"
	case Waste:
		return "Log Waste"
	case Analytics:
		return "Waste Analytics"
	case Admin:
		return "Admin Panel"
	}
	return string(p)
}

func (p Page) Icon() string {
	switch p {
	case Home:
		return "🏠"
	case Inventory:
		return "📦"
	case Add:
		return "➕"
	case Waste:
		return "♻️"
	case Analytics:
		return "📊"
	case Admin:
		return "🔐"
	}
	return ""
}
