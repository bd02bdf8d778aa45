package store

import (
	"testing"

	"github.com/dukerupert/mealweek/internal/model"

	"github.com/google/go-cmp/cmp"
)

func setupDishTestDB(t *testing.T) *DishStore {
	t.Helper()
	return NewDishStore(openTestDB(t))
}

func sampleDish(name string) model.Dish {
	return model.Dish{
		Name:        name,
		Tags:        []string{"pasta", "egg", "guanciale"},
		CookingTime: model.CookingQuick,
		Difficulty:  model.DifficultyMedium,
		Cuisine:     "Italian",
		Category:    "Pasta",
	}
}

func TestDishCRUD(t *testing.T) {
	ds := setupDishTestDB(t)

	// Create
	d, err := ds.Create("user-alice", sampleDish("Nonna's Carbonara"))
	if err != nil {
		t.Fatalf("create dish: %v", err)
	}
	if d.ID == "" {
		t.Fatal("expected generated id")
	}
	if d.OwnerID != "user-alice" {
		t.Errorf("owner = %q, want %q", d.OwnerID, "user-alice")
	}
	if diff := cmp.Diff([]string{"pasta", "egg", "guanciale"}, d.Tags); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}

	// Update
	changed := sampleDish("Carbonara")
	changed.Tags = []string{"pasta"}
	changed.Difficulty = model.DifficultyHard
	updated, err := ds.Update(d.ID, changed)
	if err != nil {
		t.Fatalf("update dish: %v", err)
	}
	if updated.Name != "Carbonara" || updated.Difficulty != model.DifficultyHard {
		t.Errorf("updated = %+v", updated.Dish)
	}
	if len(updated.Tags) != 1 {
		t.Errorf("tags = %v, want [pasta]", updated.Tags)
	}

	// Image
	withImage, err := ds.SetImageURL(d.ID, "https://cdn.example.com/dishes/x.jpg")
	if err != nil {
		t.Fatalf("set image: %v", err)
	}
	if withImage.ImageURL != "https://cdn.example.com/dishes/x.jpg" {
		t.Errorf("image url = %q", withImage.ImageURL)
	}

	// Delete
	if err := ds.Delete(d.ID); err != nil {
		t.Fatalf("delete dish: %v", err)
	}
	gone, err := ds.GetByID(d.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if gone != nil {
		t.Error("expected nil after delete")
	}
}

func TestDishNilTags(t *testing.T) {
	ds := setupDishTestDB(t)

	dish := sampleDish("Toast")
	dish.Tags = nil
	d, err := ds.Create("user-alice", dish)
	if err != nil {
		t.Fatalf("create dish: %v", err)
	}
	if d.Tags == nil || len(d.Tags) != 0 {
		t.Errorf("tags = %#v, want empty slice", d.Tags)
	}
}

func TestDishListByOwners(t *testing.T) {
	ds := setupDishTestDB(t)

	ds.Create("user-alice", sampleDish("zucchini fritters"))
	ds.Create("user-alice", sampleDish("Apple Pie"))
	ds.Create("user-bob", sampleDish("Bibimbap"))
	ds.Create("user-carol", sampleDish("Curry"))

	dishes, err := ds.ListByOwners("user-alice", "user-bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, d := range dishes {
		names = append(names, d.Name)
	}
	want := []string{"Apple Pie", "Bibimbap", "zucchini fritters"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	none, err := ds.ListByOwners()
	if err != nil {
		t.Fatalf("list none: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no dishes, got %d", len(none))
	}
}

func TestDishInvalidEnumRejected(t *testing.T) {
	ds := setupDishTestDB(t)

	dish := sampleDish("Mystery")
	dish.CookingTime = "forever"
	if _, err := ds.Create("user-alice", dish); err == nil {
		t.Fatal("expected check constraint error")
	}
}
