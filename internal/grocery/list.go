package grocery

import (
	"sort"
	"strings"

	"github.com/dukerupert/mealweek/internal/model"
)

// Item is one ingredient and the dishes that need it.
type Item struct {
	Name   string      `json:"name"`
	Dishes []string    `json:"dishes"`
	Days   []model.Day `json:"days"`
}

type Section struct {
	Aisle string `json:"aisle"`
	Items []Item `json:"items"`
}

// List builds the shopping list for a week. Leftover days need no new
// shopping and are skipped. Ingredients merge case-insensitively, keeping the
// first spelling seen in day order.
func List(meals map[model.Day]model.MealCell) []Section {
	type entry struct {
		item   Item
		dishes map[string]bool
	}
	byKey := make(map[string]*entry)
	var order []string

	for _, day := range model.Days {
		cell := meals[day]
		if cell.Dish == nil || cell.IsLeftover {
			continue
		}
		for _, tag := range cell.Dish.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			e, ok := byKey[key]
			if !ok {
				e = &entry{item: Item{Name: tag}, dishes: make(map[string]bool)}
				byKey[key] = e
				order = append(order, key)
			}
			if !e.dishes[cell.Dish.Name] {
				e.dishes[cell.Dish.Name] = true
				e.item.Dishes = append(e.item.Dishes, cell.Dish.Name)
			}
			if n := len(e.item.Days); n == 0 || e.item.Days[n-1] != day {
				e.item.Days = append(e.item.Days, day)
			}
		}
	}

	byAisle := make(map[string][]Item)
	for _, key := range order {
		item := byKey[key].item
		aisle := Aisle(item.Name)
		byAisle[aisle] = append(byAisle[aisle], item)
	}

	sections := []Section{}
	for _, aisle := range Aisles {
		items := byAisle[aisle]
		if len(items) == 0 {
			continue
		}
		sort.Slice(items, func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		})
		sections = append(sections, Section{Aisle: aisle, Items: items})
	}
	return sections
}
