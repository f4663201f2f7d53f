package services

import (
	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/models"
)

// ShoppingListItem is one consolidated entry of a shopping list
type ShoppingListItem struct {
	Name            string
	MeasurementUnit models.MeasurementUnit
	Amount          int
}

type shoppingListKey struct {
	name string
	unit models.MeasurementUnit
}

// AggregateShoppingList sums the amounts of cart line items that share an
// ingredient name and unit. Entries keep the order in which each (name, unit)
// pair was first seen, so the same name in two units yields two entries.
func AggregateShoppingList(lines []database.ShoppingCartLine) []ShoppingListItem {
	items := make([]ShoppingListItem, 0, len(lines))
	positions := make(map[shoppingListKey]int, len(lines))

	for _, line := range lines {
		key := shoppingListKey{name: line.Name, unit: line.MeasurementUnit}
		if i, ok := positions[key]; ok {
			items[i].Amount += line.Amount
			continue
		}
		positions[key] = len(items)
		items = append(items, ShoppingListItem{
			Name:            line.Name,
			MeasurementUnit: line.MeasurementUnit,
			Amount:          line.Amount,
		})
	}
	return items
}
