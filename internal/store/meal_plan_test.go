package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dukerupert/mealweek/internal/database"
	"github.com/dukerupert/mealweek/internal/model"
)

var testWeek = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func setupMealPlanTestDB(t *testing.T) (*MealPlanStore, *GroupStore) {
	t.Helper()
	db := openTestDB(t)
	return NewMealPlanStore(db), NewGroupStore(db)
}

func curryRow() *model.MealPlanRow {
	return &model.MealPlanRow{
		DishName:     "Chicken Curry",
		DishSnapshot: &model.Dish{ID: "catalog:chicken-curry", Name: "Chicken Curry", Tags: []string{"chicken", "rice"}, CookingTime: model.CookingMedium, Difficulty: model.DifficultyMedium},
		AddedBy:      "user-a",
	}
}

func TestMealPlanApplyAndList(t *testing.T) {
	ms, _ := setupMealPlanTestDB(t)
	ctx := context.Background()
	scope := model.PersonalScope(testWeek, "user-a")

	leftover := &model.MealPlanRow{DishName: "Chicken Curry", IsLeftover: true, LeftoverOf: "Chicken Curry", Notes: "reheat", AddedBy: "user-a"}
	version, err := ms.ApplyCells(ctx, scope, "user-a", []CellWrite{
		{Day: model.Wednesday, Row: leftover},
		{Day: model.Monday, Row: curryRow()},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}

	rows, err := ms.ListWeek(ctx, scope)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Day != model.Monday || rows[1].Day != model.Wednesday {
		t.Errorf("days = %s,%s, want monday,wednesday", rows[0].Day, rows[1].Day)
	}
	if rows[0].UserID != "user-a" || rows[0].GroupID != nil {
		t.Errorf("owner = (%q, %v), want personal row", rows[0].UserID, rows[0].GroupID)
	}
	if diff := cmp.Diff(curryRow().DishSnapshot, rows[0].DishSnapshot); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if !rows[1].IsLeftover || rows[1].LeftoverOf != "Chicken Curry" || rows[1].Notes != "reheat" {
		t.Errorf("leftover row = %+v", rows[1])
	}
	if rows[0].Revision != 1 || rows[1].Revision != 1 {
		t.Errorf("revisions = %d,%d, want 1,1", rows[0].Revision, rows[1].Revision)
	}
}

func TestMealPlanScopesAreIsolated(t *testing.T) {
	ms, gs := setupMealPlanTestDB(t)
	ctx := context.Background()
	g, _, err := gs.Create("Flat", "user-a", "A")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	personal := model.PersonalScope(testWeek, "user-a")
	group := model.GroupScope(testWeek, g.ID)
	nextWeek := model.PersonalScope(testWeek.AddDate(0, 0, 7), "user-a")

	if _, err := ms.ApplyCells(ctx, group, "user-a", []CellWrite{{Day: model.Friday, Row: curryRow()}}); err != nil {
		t.Fatalf("apply group: %v", err)
	}

	for _, s := range []model.WeekScope{personal, nextWeek} {
		rows, err := ms.ListWeek(ctx, s)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("scope %s sees %d rows, want 0", s.Topic(), len(rows))
		}
	}

	rows, err := ms.ListWeek(ctx, group)
	if err != nil {
		t.Fatalf("list group: %v", err)
	}
	if len(rows) != 1 || rows[0].GroupID == nil || *rows[0].GroupID != g.ID {
		t.Fatalf("group rows = %+v", rows)
	}
}

func TestMealPlanConflictWritesNothing(t *testing.T) {
	ms, _ := setupMealPlanTestDB(t)
	ctx := context.Background()
	scope := model.PersonalScope(testWeek, "user-a")

	if _, err := ms.ApplyCells(ctx, scope, "user-a", []CellWrite{{Day: model.Monday, Row: curryRow()}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Both writes claim the days were empty; Monday no longer is.
	_, err := ms.ApplyCells(ctx, scope, "user-b", []CellWrite{
		{Day: model.Monday, Row: &model.MealPlanRow{DishName: "Ramen", AddedBy: "user-b"}},
		{Day: model.Tuesday, Row: &model.MealPlanRow{DishName: "Tacos", AddedBy: "user-b"}},
	})
	if !errors.Is(err, ErrRevisionConflict) {
		t.Fatalf("err = %v, want ErrRevisionConflict", err)
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || len(ce.Days) != 1 || ce.Days[0] != model.Monday {
		t.Errorf("conflict days = %+v, want [monday]", ce)
	}

	rows, err := ms.ListWeek(ctx, scope)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].DishName != "Chicken Curry" {
		t.Errorf("rows after conflict = %+v, want only the seeded curry", rows)
	}
	if v, _ := ms.Version(ctx, scope); v != 1 {
		t.Errorf("version = %d, want 1 (unchanged)", v)
	}
}

func TestMealPlanDifferentDaysBothPersist(t *testing.T) {
	ms, _ := setupMealPlanTestDB(t)
	ctx := context.Background()
	scope := model.PersonalScope(testWeek, "user-a")

	// Two editors loaded the same empty week.
	if _, err := ms.ApplyCells(ctx, scope, "user-a", []CellWrite{{Day: model.Monday, Row: curryRow()}}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := ms.ApplyCells(ctx, scope, "user-b", []CellWrite{{Day: model.Thursday, Row: &model.MealPlanRow{DishName: "Tacos", AddedBy: "user-b"}}}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	rows, err := ms.ListWeek(ctx, scope)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1].Revision != 2 || rows[0].Revision != 1 {
		t.Errorf("revisions = %d,%d, want 1,2", rows[0].Revision, rows[1].Revision)
	}
}

func TestMealPlanConcurrentSavesOnFileDB(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "mealweek.db"))
	if err != nil {
		t.Fatalf("open file db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ms := NewMealPlanStore(db)
	ctx := context.Background()

	for round := 0; round < 5; round++ {
		scope := model.PersonalScope(testWeek.AddDate(0, 0, 7*round), "user-a")

		var wg sync.WaitGroup
		errs := make(chan error, len(model.Days))
		for _, day := range model.Days {
			wg.Add(1)
			go func(day model.Day) {
				defer wg.Done()
				row := &model.MealPlanRow{DishName: "Dish " + string(day), AddedBy: "user-a"}
				if _, err := ms.ApplyCells(ctx, scope, "user-a", []CellWrite{{Day: day, Row: row}}); err != nil {
					errs <- err
				}
			}(day)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("round %d: save failed: %v", round, err)
		}

		rows, err := ms.ListWeek(ctx, scope)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(rows) != 7 {
			t.Errorf("round %d: got %d rows, want 7", round, len(rows))
		}
		version, err := ms.Version(ctx, scope)
		if err != nil {
			t.Fatalf("version: %v", err)
		}
		if version != 7 {
			t.Errorf("round %d: version = %d, want 7", round, version)
		}
	}
}

func TestMealPlanDeleteCell(t *testing.T) {
	ms, _ := setupMealPlanTestDB(t)
	ctx := context.Background()
	scope := model.PersonalScope(testWeek, "user-a")

	if _, err := ms.ApplyCells(ctx, scope, "user-a", []CellWrite{{Day: model.Monday, Row: curryRow()}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := ms.ApplyCells(ctx, scope, "user-a", []CellWrite{{Day: model.Monday, ExpectedRevision: 1}}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rows, err := ms.ListWeek(ctx, scope)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestMealPlanDeleteWeek(t *testing.T) {
	ms, _ := setupMealPlanTestDB(t)
	ctx := context.Background()
	scope := model.PersonalScope(testWeek, "user-a")
	other := scope.Previous()

	for _, s := range []model.WeekScope{scope, other} {
		if _, err := ms.ApplyCells(ctx, s, "user-a", []CellWrite{{Day: model.Monday, Row: curryRow()}}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	version, err := ms.DeleteWeek(ctx, scope, "user-a")
	if err != nil {
		t.Fatalf("delete week: %v", err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}
	if rows, _ := ms.ListWeek(ctx, scope); len(rows) != 0 {
		t.Errorf("week still has %d rows", len(rows))
	}
	if rows, _ := ms.ListWeek(ctx, other); len(rows) != 1 {
		t.Errorf("previous week has %d rows, want 1", len(rows))
	}
}

func TestMealPlanEmptyApplyIsNoop(t *testing.T) {
	ms, _ := setupMealPlanTestDB(t)
	scope := model.PersonalScope(testWeek, "user-a")

	version, err := ms.ApplyCells(context.Background(), scope, "user-a", nil)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if version != 0 {
		t.Errorf("version = %d, want 0", version)
	}
}
