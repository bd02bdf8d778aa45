package store

import (
	"testing"

	"github.com/dukerupert/mealweek/internal/model"
)

func setupAttendanceTestDB(t *testing.T) (*AttendanceStore, int64) {
	t.Helper()
	db := openTestDB(t)
	g, _, err := NewGroupStore(db).Create("Flat", "user-a", "A")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return NewAttendanceStore(db), g.ID
}

func TestAttendanceUpsertLastWriteWins(t *testing.T) {
	as, gid := setupAttendanceTestDB(t)

	if _, err := as.Upsert(gid, "user-a", model.Monday, "2025-03-10", model.Attending); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	a, err := as.Upsert(gid, "user-a", model.Monday, "2025-03-10", model.NotAttending)
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if a.Status != model.NotAttending {
		t.Errorf("status = %q, want not_attending", a.Status)
	}

	list, err := as.ListDay(gid, model.Monday, "2025-03-10")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d records, want 1", len(list))
	}
}

func TestAttendanceListFilters(t *testing.T) {
	as, gid := setupAttendanceTestDB(t)

	records := []struct {
		user string
		day  model.Day
		week string
	}{
		{"user-a", model.Monday, "2025-03-10"},
		{"user-b", model.Monday, "2025-03-10"},
		{"user-a", model.Tuesday, "2025-03-10"},
		{"user-a", model.Monday, "2025-03-17"},
	}
	for _, r := range records {
		if _, err := as.Upsert(gid, r.user, r.day, r.week, model.Attending); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	day, err := as.ListDay(gid, model.Monday, "2025-03-10")
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if len(day) != 2 || day[0].UserID != "user-a" || day[1].UserID != "user-b" {
		t.Errorf("day list = %+v", day)
	}

	week, err := as.ListWeek(gid, "2025-03-10")
	if err != nil {
		t.Fatalf("list week: %v", err)
	}
	if len(week) != 3 {
		t.Errorf("week list has %d records, want 3", len(week))
	}
}

func TestAttendanceRejectsBadStatus(t *testing.T) {
	as, gid := setupAttendanceTestDB(t)

	if _, err := as.Upsert(gid, "user-a", model.Monday, "2025-03-10", "maybe"); err == nil {
		t.Fatal("expected check constraint error")
	}
}
