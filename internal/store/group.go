package store

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/dukerupert/mealweek/internal/model"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidJoinCode is returned when a join code is malformed or does not
// match the group's stored hash.
var ErrInvalidJoinCode = errors.New("invalid join code")

const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type GroupStore struct {
	db *sql.DB
}

func NewGroupStore(db *sql.DB) *GroupStore {
	return &GroupStore{db: db}
}

func scanGroup(scanner interface{ Scan(...any) error }) (*model.Group, error) {
	var g model.Group
	err := scanner.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanGroupMember(scanner interface{ Scan(...any) error }) (*model.GroupMember, error) {
	var m model.GroupMember
	err := scanner.Scan(&m.ID, &m.GroupID, &m.UserID, &m.DisplayName, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const groupCols = `id, name, created_by, created_at, updated_at`
const groupMemberCols = `id, group_id, user_id, display_name, role, created_at, updated_at`

// generateSecret returns 8 characters from an unambiguous alphabet.
func generateSecret() (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate secret: %w", err)
		}
		sb.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Create inserts a group, adds the creator as admin and returns the plaintext
// join code. Only the bcrypt hash of the code is stored.
func (s *GroupStore) Create(name, createdBy, displayName string) (*model.Group, string, error) {
	secret, err := generateSecret()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash join code: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO meal_groups (name, join_code, created_by) VALUES (?, ?, ?)`,
		name, string(hash), createdBy,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert group: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, "", fmt.Errorf("last insert id: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO group_members (group_id, user_id, display_name, role) VALUES (?, ?, ?, ?)`,
		id, createdBy, displayName, model.RoleAdmin,
	); err != nil {
		return nil, "", fmt.Errorf("add creator: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, "", fmt.Errorf("commit: %w", err)
	}

	g, err := s.GetByID(id)
	if err != nil {
		return nil, "", err
	}
	return g, formatJoinCode(id, secret), nil
}

func formatJoinCode(groupID int64, secret string) string {
	return strconv.FormatInt(groupID, 10) + "-" + secret
}

// ParseJoinCode splits a join code into its group id and secret.
func ParseJoinCode(code string) (int64, string, error) {
	idPart, secret, ok := strings.Cut(strings.TrimSpace(code), "-")
	if !ok || secret == "" {
		return 0, "", ErrInvalidJoinCode
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, "", ErrInvalidJoinCode
	}
	return id, strings.ToUpper(secret), nil
}

// Join verifies the code and adds the user as a member. Joining a group the
// user already belongs to returns the existing membership.
func (s *GroupStore) Join(code, userID, displayName string) (*model.GroupMember, error) {
	groupID, secret, err := ParseJoinCode(code)
	if err != nil {
		return nil, err
	}

	var hash string
	err = s.db.QueryRow(`SELECT join_code FROM meal_groups WHERE id = ?`, groupID).Scan(&hash)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidJoinCode
	}
	if err != nil {
		return nil, fmt.Errorf("get join code: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return nil, ErrInvalidJoinCode
	}

	existing, err := s.GetMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.AddMember(groupID, userID, displayName, model.RoleMember)
}

func (s *GroupStore) GetByID(id int64) (*model.Group, error) {
	row := s.db.QueryRow(`SELECT `+groupCols+` FROM meal_groups WHERE id = ?`, id)
	g, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func (s *GroupStore) Update(id int64, name string) (*model.Group, error) {
	_, err := s.db.Exec(`UPDATE meal_groups SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update group: %w", err)
	}
	return s.GetByID(id)
}

func (s *GroupStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM meal_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func (s *GroupStore) AddMember(groupID int64, userID, displayName, role string) (*model.GroupMember, error) {
	result, err := s.db.Exec(
		`INSERT INTO group_members (group_id, user_id, display_name, role) VALUES (?, ?, ?, ?)`,
		groupID, userID, displayName, role,
	)
	if err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+groupMemberCols+` FROM group_members WHERE id = ?`, id)
	return scanGroupMember(row)
}

func (s *GroupStore) RemoveMember(groupID int64, userID string) error {
	_, err := s.db.Exec(
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *GroupStore) GetMember(groupID int64, userID string) (*model.GroupMember, error) {
	row := s.db.QueryRow(
		`SELECT `+groupMemberCols+` FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	m, err := scanGroupMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *GroupStore) ListMembers(groupID int64) ([]model.GroupMember, error) {
	rows, err := s.db.Query(
		`SELECT `+groupMemberCols+` FROM group_members WHERE group_id = ? ORDER BY created_at ASC, id ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.GroupMember
	for rows.Next() {
		m, err := scanGroupMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *GroupStore) ListGroupsForUser(userID string) ([]model.Group, error) {
	rows, err := s.db.Query(
		`SELECT g.id, g.name, g.created_by, g.created_at, g.updated_at
		 FROM meal_groups g
		 JOIN group_members gm ON g.id = gm.group_id
		 WHERE gm.user_id = ?
		 ORDER BY g.name ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list groups for user: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func (s *GroupStore) UpdateMemberRole(groupID int64, userID, role string) (*model.GroupMember, error) {
	_, err := s.db.Exec(
		`UPDATE group_members SET role = ? WHERE group_id = ? AND user_id = ?`,
		role, groupID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update member role: %w", err)
	}
	return s.GetMember(groupID, userID)
}
