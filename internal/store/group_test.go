package store

import (
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/dukerupert/mealweek/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupGroupTestDB(t *testing.T) *GroupStore {
	t.Helper()
	return NewGroupStore(openTestDB(t))
}

func TestGroupCreate(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, code, err := gs.Create("Flatmates", "user-alice", "Alice")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if g.Name != "Flatmates" {
		t.Errorf("name = %q, want %q", g.Name, "Flatmates")
	}
	if g.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if !strings.HasPrefix(code, "1-") || len(code) != len("1-")+8 {
		t.Errorf("join code = %q, want 1-XXXXXXXX", code)
	}

	m, err := gs.GetMember(g.ID, "user-alice")
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m == nil || m.Role != "admin" {
		t.Fatalf("creator membership = %+v, want admin", m)
	}
	if m.DisplayName != "Alice" {
		t.Errorf("display name = %q, want %q", m.DisplayName, "Alice")
	}
}

func TestGroupJoinCodeNotStoredInPlaintext(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, code, err := gs.Create("Flatmates", "user-alice", "Alice")
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	_, secret, _ := ParseJoinCode(code)

	var stored string
	gs.db.QueryRow(`SELECT join_code FROM meal_groups WHERE id = ?`, g.ID).Scan(&stored)
	if stored == secret || stored == "" {
		t.Errorf("stored join code = %q, expected a hash", stored)
	}
}

func TestGroupJoin(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, code, _ := gs.Create("Flatmates", "user-alice", "Alice")

	m, err := gs.Join(code, "user-bob", "Bob")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if m.GroupID != g.ID || m.Role != "member" {
		t.Errorf("membership = %+v, want member of %d", m, g.ID)
	}

	// Joining twice is idempotent.
	again, err := gs.Join(strings.ToLower(code), "user-bob", "Bob")
	if err != nil {
		t.Fatalf("join again: %v", err)
	}
	if again.ID != m.ID {
		t.Errorf("second join id = %d, want %d", again.ID, m.ID)
	}
}

func TestGroupJoinInvalidCode(t *testing.T) {
	gs := setupGroupTestDB(t)
	g, _, _ := gs.Create("Flatmates", "user-alice", "Alice")

	tests := []struct {
		name string
		code string
	}{
		{"empty", ""},
		{"no separator", "ABCDEFGH"},
		{"bad id", "x-ABCDEFGH"},
		{"unknown group", "999-ABCDEFGH"},
		{"wrong secret", formatJoinCode(g.ID, "ZZZZZZZZ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gs.Join(tt.code, "user-bob", "Bob")
			if !errors.Is(err, ErrInvalidJoinCode) {
				t.Errorf("err = %v, want ErrInvalidJoinCode", err)
			}
		})
	}
}

func TestGroupGetByIDNotFound(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, err := gs.GetByID(999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if g != nil {
		t.Error("expected nil for nonexistent group")
	}
}

func TestGroupUpdate(t *testing.T) {
	gs := setupGroupTestDB(t)

	created, _, _ := gs.Create("Old Name", "user-alice", "Alice")
	updated, err := gs.Update(created.ID, "New Name")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("name = %q, want %q", updated.Name, "New Name")
	}
}

func TestGroupDeleteCascadesMembers(t *testing.T) {
	gs := setupGroupTestDB(t)

	created, _, _ := gs.Create("To Delete", "user-alice", "Alice")
	if err := gs.Delete(created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	g, err := gs.GetByID(created.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if g != nil {
		t.Error("expected nil after delete")
	}
	members, err := gs.ListMembers(created.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("expected members removed, got %d", len(members))
	}
}

func TestGroupAddMemberDuplicate(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, _, _ := gs.Create("Flatmates", "user-alice", "Alice")
	if _, err := gs.AddMember(g.ID, "user-alice", "Alice", "member"); err == nil {
		t.Fatal("expected error for duplicate membership, got nil")
	}
}

func TestGroupRemoveMember(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, _, _ := gs.Create("Flatmates", "user-alice", "Alice")
	gs.AddMember(g.ID, "user-bob", "Bob", "member")

	if err := gs.RemoveMember(g.ID, "user-bob"); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	m, err := gs.GetMember(g.ID, "user-bob")
	if err != nil {
		t.Fatalf("get member after remove: %v", err)
	}
	if m != nil {
		t.Error("expected nil after remove")
	}
}

func TestGroupListMembersAndGroups(t *testing.T) {
	gs := setupGroupTestDB(t)

	g1, _, _ := gs.Create("B Group", "user-alice", "Alice")
	g2, _, _ := gs.Create("A Group", "user-bob", "Bob")
	gs.AddMember(g1.ID, "user-bob", "Bob", "member")

	members, err := gs.ListMembers(g1.ID)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	groups, err := gs.ListGroupsForUser("user-bob")
	if err != nil {
		t.Fatalf("list groups for user: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].ID != g2.ID {
		t.Errorf("groups not ordered by name: first = %q", groups[0].Name)
	}
}

func TestGroupUpdateMemberRole(t *testing.T) {
	gs := setupGroupTestDB(t)

	g, _, _ := gs.Create("Flatmates", "user-alice", "Alice")
	gs.AddMember(g.ID, "user-bob", "Bob", "member")

	m, err := gs.UpdateMemberRole(g.ID, "user-bob", "admin")
	if err != nil {
		t.Fatalf("update member role: %v", err)
	}
	if m.Role != "admin" {
		t.Errorf("role = %q, want %q", m.Role, "admin")
	}
}
