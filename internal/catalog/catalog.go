// Package catalog holds the built-in dish list and the views derived from it:
// the dish union a plan resolves against, the ingredient index and the dish
// of the day.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/mealweek/internal/model"
)

//go:embed dishes.json
var builtinDishes []byte

// IDPrefix marks built-in dish ids.
const IDPrefix = "catalog:"

// Catalog is the fixed set of shared dishes. It is never mutated after
// construction.
type Catalog struct {
	dishes []model.Dish
	byID   map[string]int
}

// Builtin parses the embedded dish list.
func Builtin() (*Catalog, error) {
	var dishes []model.Dish
	if err := json.Unmarshal(builtinDishes, &dishes); err != nil {
		return nil, fmt.Errorf("parse builtin dishes: %w", err)
	}
	return New(dishes)
}

// New builds a catalog from dishes. Ids and names must be unique.
func New(dishes []model.Dish) (*Catalog, error) {
	c := &Catalog{
		dishes: make([]model.Dish, len(dishes)),
		byID:   make(map[string]int, len(dishes)),
	}
	names := make(map[string]bool, len(dishes))
	for i, d := range dishes {
		if d.ID == "" || d.Name == "" {
			return nil, fmt.Errorf("dish %d: id and name are required", i)
		}
		if _, ok := c.byID[d.ID]; ok {
			return nil, fmt.Errorf("duplicate dish id %q", d.ID)
		}
		if names[d.Name] {
			return nil, fmt.Errorf("duplicate dish name %q", d.Name)
		}
		d.OwnerID = ""
		c.dishes[i] = d
		c.byID[d.ID] = i
		names[d.Name] = true
	}
	return c, nil
}

// All returns a copy of the catalog in its declared order.
func (c *Catalog) All() []model.Dish {
	out := make([]model.Dish, len(c.dishes))
	copy(out, c.dishes)
	return out
}

func (c *Catalog) Len() int {
	return len(c.dishes)
}

func (c *Catalog) Get(id string) (model.Dish, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.Dish{}, false
	}
	return c.dishes[i], true
}

// Union combines the catalog with user dishes for one viewing scope.
func (c *Catalog) Union(userDishes []model.Dish) *Union {
	u := &Union{
		dishes: make([]model.Dish, 0, len(c.dishes)+len(userDishes)),
		byID:   make(map[string]int),
		byName: make(map[string]int),
	}
	for _, d := range c.dishes {
		u.add(d)
	}
	for _, d := range userDishes {
		u.add(d)
	}
	return u
}

// Union is the set of dishes a plan's rows resolve against. When a name is
// shared, the first dish added wins, so catalog entries shadow user dishes.
type Union struct {
	dishes []model.Dish
	byID   map[string]int
	byName map[string]int
}

func (u *Union) add(d model.Dish) {
	if _, ok := u.byID[d.ID]; ok {
		return
	}
	u.dishes = append(u.dishes, d)
	i := len(u.dishes) - 1
	u.byID[d.ID] = i
	if _, ok := u.byName[d.Name]; !ok {
		u.byName[d.Name] = i
	}
}

func (u *Union) All() []model.Dish {
	out := make([]model.Dish, len(u.dishes))
	copy(out, u.dishes)
	return out
}

func (u *Union) ByID(id string) (*model.Dish, bool) {
	i, ok := u.byID[id]
	if !ok {
		return nil, false
	}
	d := u.dishes[i]
	return &d, true
}

func (u *Union) ByName(name string) (*model.Dish, bool) {
	i, ok := u.byName[name]
	if !ok {
		return nil, false
	}
	d := u.dishes[i]
	return &d, true
}

// Resolve looks a stored reference up by user dish id first, then by name.
func (u *Union) Resolve(userDishID, name string) (*model.Dish, bool) {
	if userDishID != "" {
		if d, ok := u.ByID(userDishID); ok {
			return d, true
		}
	}
	if name != "" {
		return u.ByName(name)
	}
	return nil, false
}

// Ingredients returns the distinct ingredient tags across dishes, compared
// case-insensitively and sorted. The first spelling seen is kept.
func Ingredients(dishes []model.Dish) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range dishes {
		for _, tag := range d.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, tag)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// DishOfTheDay picks one dish deterministically for the calendar day of t.
func DishOfTheDay(dishes []model.Dish, t time.Time) (model.Dish, bool) {
	if len(dishes) == 0 {
		return model.Dish{}, false
	}
	return dishes[(t.YearDay()-1)%len(dishes)], true
}

// Filter narrows a dish list for the dish picker. Zero fields match
// everything.
type Filter struct {
	Search      string
	Ingredients []string
	CookingTime model.CookingTime
	Cuisine     string
}

// Apply returns the dishes matching every set field. Search matches a
// substring of the name; each ingredient must appear among the dish's tags.
// Comparisons ignore case.
func (f Filter) Apply(dishes []model.Dish) []model.Dish {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]model.Dish, 0, len(dishes))
	for _, d := range dishes {
		if search != "" && !strings.Contains(strings.ToLower(d.Name), search) {
			continue
		}
		if f.CookingTime != "" && d.CookingTime != f.CookingTime {
			continue
		}
		if f.Cuisine != "" && !strings.EqualFold(d.Cuisine, f.Cuisine) {
			continue
		}
		if !hasAllTags(d, f.Ingredients) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func hasAllTags(d model.Dish, want []string) bool {
	for _, w := range want {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		found := false
		for _, tag := range d.Tags {
			if strings.EqualFold(strings.TrimSpace(tag), w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
