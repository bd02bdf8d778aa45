package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealweek/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

const activityCols = `id, group_id, user_id, action, day_of_week, week_start_date, dish_name, created_at`

func scanActivity(scanner interface{ Scan(...any) error }) (*model.Activity, error) {
	var a model.Activity
	err := scanner.Scan(&a.ID, &a.GroupID, &a.UserID, &a.Action, &a.Day, &a.WeekStart, &a.DishName, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *ActivityStore) Append(a model.Activity) (*model.Activity, error) {
	result, err := s.db.Exec(
		`INSERT INTO group_activity (group_id, user_id, action, day_of_week, week_start_date, dish_name)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.GroupID, a.UserID, a.Action, a.Day, a.WeekStart, a.DishName,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	created, err := scanActivity(s.db.QueryRow(`SELECT `+activityCols+` FROM group_activity WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	return created, nil
}

// ListRecent returns the group's newest activity first.
func (s *ActivityStore) ListRecent(groupID int64, limit int) ([]model.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT `+activityCols+` FROM group_activity
		 WHERE group_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		groupID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var result []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
