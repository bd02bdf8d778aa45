package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/mealweek/internal/auth"
	"github.com/dukerupert/mealweek/internal/catalog"
	"github.com/dukerupert/mealweek/internal/database"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/server"
)

func newTestAPI(t *testing.T) (*httptest.Server, *auth.Verifier) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	verifier := auth.NewVerifier("test-secret", "")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := server.New(db, server.Options{Catalog: cat, Verifier: verifier}, logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, verifier
}

func newTestClient(t *testing.T, ts *httptest.Server, v *auth.Verifier, userID string) *Client {
	t.Helper()
	tok, err := v.Issue(auth.AuthContext{UserID: userID}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return New(ts.URL+"/", tok, WithHTTPClient(ts.Client()))
}

func TestClientPlanFlow(t *testing.T) {
	ts, v := newTestAPI(t)
	c := newTestClient(t, ts, v, "alice")
	ctx := context.Background()
	s := Scope{Week: "2025-03-10"}

	p, err := c.GetPlan(ctx, s)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if len(p.Meals) != 7 {
		t.Fatalf("meals = %d, want 7", len(p.Meals))
	}

	if _, err := c.Assign(ctx, s, model.Monday, model.AssignRequest{DishName: "Chicken Curry"}); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	p, err = c.Assign(ctx, s, model.Tuesday, model.AssignRequest{DishName: "Chicken Curry"})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if p.Warning == nil {
		t.Error("expected duplicate warning")
	}

	p, swapped, err := c.Swap(ctx, s, model.Tuesday, model.Sunday)
	if err != nil || !swapped {
		t.Fatalf("Swap: swapped=%v err=%v", swapped, err)
	}
	if p.Meals[model.Sunday].Dish == nil || p.Meals[model.Tuesday].Dish != nil {
		t.Errorf("after swap: %+v", p.Meals)
	}

	if _, err := c.SetNote(ctx, s, model.Monday, "spicy"); err != nil {
		t.Fatalf("SetNote: %v", err)
	}
	if _, err := c.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	p, err = c.Reload(ctx, s)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := p.Meals[model.Monday].Notes; got != "spicy" {
		t.Errorf("monday notes = %q", got)
	}

	p, err = c.Remove(ctx, s, model.Monday)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !p.Meals[model.Monday].Empty() {
		t.Errorf("monday after remove = %+v", p.Meals[model.Monday])
	}

	p, err = c.Clear(ctx, s)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if p.Meals[model.Sunday].Dish != nil {
		t.Error("clear left sunday filled")
	}
}

func TestClientErrors(t *testing.T) {
	ts, v := newTestAPI(t)
	c := newTestClient(t, ts, v, "alice")
	ctx := context.Background()
	s := Scope{Week: "2025-03-10"}

	_, err := c.SetNote(ctx, s, model.Monday, "nothing here")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("SetNote on empty day: %v", err)
	}

	_, err = c.RepeatPreviousWeek(ctx, s)
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("RepeatPreviousWeek: %v", err)
	}

	bad := New(ts.URL, "not-a-token", WithHTTPClient(ts.Client()))
	_, err = bad.GetPlan(ctx, s)
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("bad token: %v", err)
	}
}

func TestClientConflict(t *testing.T) {
	ts, v := newTestAPI(t)
	alice := newTestClient(t, ts, v, "alice")
	bob := newTestClient(t, ts, v, "bob")
	ctx := context.Background()

	var created struct {
		Group    model.Group `json:"group"`
		JoinCode string      `json:"joinCode"`
	}
	if err := alice.do(ctx, "POST", "/api/groups", nil, model.CreateGroupRequest{Name: "Flat", DisplayName: "Alice"}, &created); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := bob.do(ctx, "POST", "/api/groups/join", nil, model.JoinGroupRequest{Code: created.JoinCode, DisplayName: "Bob"}, nil); err != nil {
		t.Fatalf("join group: %v", err)
	}

	s := Scope{Week: "2025-03-10", GroupID: created.Group.ID}
	if _, err := bob.GetPlan(ctx, s); err != nil {
		t.Fatalf("bob GetPlan: %v", err)
	}

	alice.Assign(ctx, s, model.Friday, model.AssignRequest{DishName: "Miso Ramen"})
	if _, err := alice.Save(ctx, s); err != nil {
		t.Fatalf("alice Save: %v", err)
	}

	bob.Assign(ctx, s, model.Friday, model.AssignRequest{DishName: "Dal Tadka"})
	_, err := bob.Save(ctx, s)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("bob Save err = %v, want ErrConflict", err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && (len(apiErr.Days) != 1 || apiErr.Days[0] != model.Friday) {
		t.Errorf("conflict days = %v", apiErr.Days)
	}

	if err := bob.SetAttendance(ctx, s, model.Friday, model.Attending); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}
	day, err := alice.Attendance(ctx, s, model.Friday)
	if err != nil {
		t.Fatalf("Attendance: %v", err)
	}
	if day.Attending != 1 || day.Unknown != 1 {
		t.Errorf("attendance = %+v", day)
	}
}

func TestClientDishes(t *testing.T) {
	ts, v := newTestAPI(t)
	c := newTestClient(t, ts, v, "alice")

	dishes, err := c.Dishes(context.Background(), Scope{Week: "2025-03-10"}, "ramen")
	if err != nil {
		t.Fatalf("Dishes: %v", err)
	}
	found := false
	for _, d := range dishes {
		if d.Name == "Miso Ramen" {
			found = true
		}
	}
	if !found {
		t.Errorf("search for ramen returned %d dishes without Miso Ramen", len(dishes))
	}
}

func TestClientSubscribe(t *testing.T) {
	ts, v := newTestAPI(t)
	alice := newTestClient(t, ts, v, "alice")
	bob := newTestClient(t, ts, v, "bob")
	mallory := newTestClient(t, ts, v, "mallory")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var created struct {
		Group    model.Group `json:"group"`
		JoinCode string      `json:"joinCode"`
	}
	if err := alice.do(ctx, "POST", "/api/groups", nil, model.CreateGroupRequest{Name: "Flat", DisplayName: "Alice"}, &created); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if err := bob.do(ctx, "POST", "/api/groups/join", nil, model.JoinGroupRequest{Code: created.JoinCode, DisplayName: "Bob"}, nil); err != nil {
		t.Fatalf("join group: %v", err)
	}
	s := Scope{Week: "2025-03-10", GroupID: created.Group.ID}

	if _, err := mallory.Subscribe(ctx, s); err == nil {
		t.Error("non-member subscribed")
	} else {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
			t.Errorf("non-member err = %v, want 403", err)
		}
	}

	events, err := alice.Subscribe(ctx, s)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Saving with nothing changed publishes nothing, so the first event is bob's.
	if _, err := alice.Save(ctx, s); err != nil {
		t.Fatalf("Save without changes: %v", err)
	}
	if _, err := bob.Assign(ctx, s, model.Tuesday, model.AssignRequest{DishName: "Miso Ramen"}); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := bob.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	select {
	case msg, ok := <-events:
		if !ok {
			t.Fatal("feed closed")
		}
		if msg.Type != "plan_saved" || msg.Extra["by"] != "bob" {
			t.Errorf("message = %+v", msg)
		}
	case <-ctx.Done():
		t.Fatal("no change notification")
	}
}
