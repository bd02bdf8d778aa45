package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dukerupert/mealweek/internal/model"
)

func TestBuiltinIsValid(t *testing.T) {
	c, err := Builtin()
	if err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("builtin catalog is empty")
	}
	for _, d := range c.All() {
		if !strings.HasPrefix(d.ID, IDPrefix) {
			t.Errorf("dish %q id %q lacks prefix", d.Name, d.ID)
		}
		if !d.CookingTime.Valid() || !d.Difficulty.Valid() {
			t.Errorf("dish %q has cookingTime=%q difficulty=%q", d.Name, d.CookingTime, d.Difficulty)
		}
		if len(d.Tags) == 0 {
			t.Errorf("dish %q has no tags", d.Name)
		}
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name   string
		dishes []model.Dish
	}{
		{"duplicate id", []model.Dish{{ID: "a", Name: "A"}, {ID: "a", Name: "B"}}},
		{"duplicate name", []model.Dish{{ID: "a", Name: "A"}, {ID: "b", Name: "A"}}},
		{"missing name", []model.Dish{{ID: "a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.dishes); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUnionResolve(t *testing.T) {
	c, err := New([]model.Dish{
		{ID: "catalog:curry", Name: "Curry"},
		{ID: "catalog:tacos", Name: "Tacos"},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	u := c.Union([]model.Dish{
		{ID: "u1", Name: "Grandma's Soup", OwnerID: "user-a"},
		{ID: "u2", Name: "Curry", OwnerID: "user-a"},
	})

	tests := []struct {
		name       string
		userDishID string
		dishName   string
		wantID     string
		wantOK     bool
	}{
		{"by user dish id", "u1", "Renamed", "u1", true},
		{"by name", "", "Tacos", "catalog:tacos", true},
		{"catalog shadows user name", "", "Curry", "catalog:curry", true},
		{"id wins over name", "u2", "Curry", "u2", true},
		{"stale id falls back to name", "gone", "Tacos", "catalog:tacos", true},
		{"unresolvable", "gone", "Lasagna", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := u.Resolve(tt.userDishID, tt.dishName)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && d.ID != tt.wantID {
				t.Errorf("id = %q, want %q", d.ID, tt.wantID)
			}
		})
	}

	if n := len(u.All()); n != 4 {
		t.Errorf("union has %d dishes, want 4", n)
	}
}

func TestIngredients(t *testing.T) {
	got := Ingredients([]model.Dish{
		{Tags: []string{"Tomato", "onion", " basil "}},
		{Tags: []string{"tomato", "", "Garlic"}},
	})
	want := []string{"basil", "Garlic", "onion", "Tomato"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ingredients mismatch (-want +got):\n%s", diff)
	}
}

func TestDishOfTheDay(t *testing.T) {
	dishes := []model.Dish{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	jan1 := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	d, ok := DishOfTheDay(dishes, jan1)
	if !ok || d.ID != "a" {
		t.Errorf("jan 1 = %q, want a", d.ID)
	}
	d, _ = DishOfTheDay(dishes, jan1.AddDate(0, 0, 4))
	if d.ID != "b" {
		t.Errorf("jan 5 = %q, want b", d.ID)
	}
	again, _ := DishOfTheDay(dishes, jan1.AddDate(0, 0, 4).Add(10*time.Hour))
	if again.ID != d.ID {
		t.Error("dish of the day changed within the same day")
	}

	if _, ok := DishOfTheDay(nil, jan1); ok {
		t.Error("expected no dish for empty list")
	}
}

func TestFilterApply(t *testing.T) {
	dishes := []model.Dish{
		{ID: "1", Name: "Chicken Curry", Tags: []string{"chicken", "rice"}, CookingTime: model.CookingMedium, Cuisine: "Indian"},
		{ID: "2", Name: "Fried Rice", Tags: []string{"Rice", "egg"}, CookingTime: model.CookingQuick, Cuisine: "Chinese"},
		{ID: "3", Name: "Roast Chicken", Tags: []string{"chicken", "potato"}, CookingTime: model.CookingLong, Cuisine: "British"},
	}

	ids := func(ds []model.Dish) []string {
		out := []string{}
		for _, d := range ds {
			out = append(out, d.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"zero filter", Filter{}, []string{"1", "2", "3"}},
		{"search", Filter{Search: "chicken"}, []string{"1", "3"}},
		{"ingredient case-insensitive", Filter{Ingredients: []string{"rice"}}, []string{"1", "2"}},
		{"all ingredients required", Filter{Ingredients: []string{"rice", "chicken"}}, []string{"1"}},
		{"cooking time", Filter{CookingTime: model.CookingQuick}, []string{"2"}},
		{"cuisine", Filter{Cuisine: "british"}, []string{"3"}},
		{"no match", Filter{Ingredients: []string{"tofu"}}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ids(tt.filter.Apply(dishes))); diff != "" {
				t.Errorf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
