package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/mealweek/internal/model"
)

type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

const attendanceCols = `group_id, user_id, day_of_week, week_start_date, status, updated_at`

func scanAttendance(scanner interface{ Scan(...any) error }) (*model.Attendance, error) {
	var a model.Attendance
	err := scanner.Scan(&a.GroupID, &a.UserID, &a.Day, &a.WeekStart, &a.Status, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert records a member's status for one day; the last write wins.
func (s *AttendanceStore) Upsert(groupID int64, userID string, day model.Day, weekStart string, status model.AttendanceStatus) (*model.Attendance, error) {
	_, err := s.db.Exec(
		`INSERT INTO attendance (group_id, user_id, day_of_week, week_start_date, status)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (group_id, user_id, day_of_week, week_start_date) DO UPDATE SET
		   status = excluded.status,
		   updated_at = CURRENT_TIMESTAMP`,
		groupID, userID, day, weekStart, status,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}

	a, err := scanAttendance(s.db.QueryRow(
		`SELECT `+attendanceCols+` FROM attendance
		 WHERE group_id = ? AND user_id = ? AND day_of_week = ? AND week_start_date = ?`,
		groupID, userID, day, weekStart,
	))
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return a, nil
}

// ListDay returns the recorded statuses for one day. Members with no record
// are absent from the result.
func (s *AttendanceStore) ListDay(groupID int64, day model.Day, weekStart string) ([]model.Attendance, error) {
	return s.list(
		`SELECT `+attendanceCols+` FROM attendance
		 WHERE group_id = ? AND day_of_week = ? AND week_start_date = ?
		 ORDER BY user_id`,
		groupID, day, weekStart,
	)
}

// ListWeek returns every recorded status for the group's week.
func (s *AttendanceStore) ListWeek(groupID int64, weekStart string) ([]model.Attendance, error) {
	return s.list(
		`SELECT `+attendanceCols+` FROM attendance
		 WHERE group_id = ? AND week_start_date = ?
		 ORDER BY user_id`,
		groupID, weekStart,
	)
}

func (s *AttendanceStore) list(query string, args ...any) ([]model.Attendance, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var result []model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
