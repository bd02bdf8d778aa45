package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dukerupert/mealweek/internal/model"
)

// ErrRevisionConflict means a cell changed remotely after it was loaded.
var ErrRevisionConflict = errors.New("meal plan changed since it was loaded")

// ConflictError lists the days whose remote revision no longer matches.
type ConflictError struct {
	Days []model.Day
}

func (e *ConflictError) Error() string {
	days := make([]string, len(e.Days))
	for i, d := range e.Days {
		days[i] = string(d)
	}
	return fmt.Sprintf("%v: %s", ErrRevisionConflict, strings.Join(days, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrRevisionConflict
}

// CellWrite replaces or deletes one day of a scoped week. ExpectedRevision is
// the revision observed at load time; zero means the day was empty.
type CellWrite struct {
	Day              model.Day
	Row              *model.MealPlanRow
	ExpectedRevision int64
}

type MealPlanStore struct {
	db *sql.DB
}

func NewMealPlanStore(db *sql.DB) *MealPlanStore {
	return &MealPlanStore{db: db}
}

func scanMealPlanRow(scanner interface{ Scan(...any) error }) (*model.MealPlanRow, error) {
	var r model.MealPlanRow
	var userID, userDishID, snapshot, leftoverOf, notes sql.NullString
	var groupID sql.NullInt64
	var leftover int

	err := scanner.Scan(
		&r.ID, &r.ScopeKey, &r.WeekStart, &r.Day, &userID, &groupID,
		&r.DishName, &userDishID, &snapshot, &leftover, &leftoverOf,
		&notes, &r.AddedBy, &r.Revision, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.UserID = userID.String
	if groupID.Valid {
		r.GroupID = &groupID.Int64
	}
	r.UserDishID = userDishID.String
	r.IsLeftover = leftover != 0
	r.LeftoverOf = leftoverOf.String
	r.Notes = notes.String
	if snapshot.Valid && snapshot.String != "" {
		var d model.Dish
		if err := json.Unmarshal([]byte(snapshot.String), &d); err != nil {
			return nil, fmt.Errorf("decode dish snapshot: %w", err)
		}
		r.DishSnapshot = &d
	}
	return &r, nil
}

const mealPlanCols = `id, scope_key, week_start_date, day_of_week, user_id, group_id, dish_name, user_dish_id, dish_snapshot, is_leftover, leftover_of_dish, notes, added_by, revision, created_at, updated_at`

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListWeek returns the stored rows for the scope's week in day order.
func (s *MealPlanStore) ListWeek(ctx context.Context, scope model.WeekScope) ([]model.MealPlanRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mealPlanCols+` FROM meal_plans WHERE scope_key = ? AND week_start_date = ?`,
		scope.Key(), scope.WeekStartDate(),
	)
	if err != nil {
		return nil, fmt.Errorf("list meal plan: %w", err)
	}
	defer rows.Close()

	var result []model.MealPlanRow
	for rows.Next() {
		r, err := scanMealPlanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meal plan row: %w", err)
		}
		result = append(result, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortRowsByDay(result)
	return result, nil
}

func sortRowsByDay(rows []model.MealPlanRow) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Day.Index() < rows[j].Day.Index()
	})
}

// Version returns the scope's current week version; zero if never written.
func (s *MealPlanStore) Version(ctx context.Context, scope model.WeekScope) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM meal_plan_versions WHERE scope_key = ? AND week_start_date = ?`,
		scope.Key(), scope.WeekStartDate(),
	).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get meal plan version: %w", err)
	}
	return v, nil
}

func bumpVersion(ctx context.Context, tx *sql.Tx, scope model.WeekScope, actor string) (int64, error) {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO meal_plan_versions (scope_key, week_start_date, version, updated_by)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT (scope_key, week_start_date) DO UPDATE SET
		   version = version + 1,
		   updated_by = excluded.updated_by,
		   updated_at = CURRENT_TIMESTAMP`,
		scope.Key(), scope.WeekStartDate(), actor,
	)
	if err != nil {
		return 0, fmt.Errorf("bump version: %w", err)
	}
	var v int64
	err = tx.QueryRowContext(ctx,
		`SELECT version FROM meal_plan_versions WHERE scope_key = ? AND week_start_date = ?`,
		scope.Key(), scope.WeekStartDate(),
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return v, nil
}

// ApplyCells writes the given days in a single transaction. If any day's
// current revision differs from its ExpectedRevision nothing is written and a
// *ConflictError is returned. Other days of the week are never touched.
func (s *MealPlanStore) ApplyCells(ctx context.Context, scope model.WeekScope, actor string, writes []CellWrite) (int64, error) {
	if len(writes) == 0 {
		return s.Version(ctx, scope)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	current := make(map[model.Day]int64, 7)
	rows, err := tx.QueryContext(ctx,
		`SELECT day_of_week, revision FROM meal_plans WHERE scope_key = ? AND week_start_date = ?`,
		scope.Key(), scope.WeekStartDate(),
	)
	if err != nil {
		return 0, fmt.Errorf("read revisions: %w", err)
	}
	for rows.Next() {
		var day model.Day
		var rev int64
		if err := rows.Scan(&day, &rev); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan revision: %w", err)
		}
		current[day] = rev
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var conflicts []model.Day
	for _, w := range writes {
		if current[w.Day] != w.ExpectedRevision {
			conflicts = append(conflicts, w.Day)
		}
	}
	if len(conflicts) > 0 {
		return 0, &ConflictError{Days: conflicts}
	}

	version, err := bumpVersion(ctx, tx, scope, actor)
	if err != nil {
		return 0, err
	}

	for _, w := range writes {
		if w.Row == nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM meal_plans WHERE scope_key = ? AND week_start_date = ? AND day_of_week = ?`,
				scope.Key(), scope.WeekStartDate(), w.Day,
			); err != nil {
				return 0, fmt.Errorf("delete %s: %w", w.Day, err)
			}
			continue
		}
		if err := upsertRow(ctx, tx, scope, w.Day, w.Row, version); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return version, nil
}

func upsertRow(ctx context.Context, tx *sql.Tx, scope model.WeekScope, day model.Day, r *model.MealPlanRow, version int64) error {
	var snapshot sql.NullString
	if r.DishSnapshot != nil {
		b, err := json.Marshal(r.DishSnapshot)
		if err != nil {
			return fmt.Errorf("encode dish snapshot: %w", err)
		}
		snapshot = sql.NullString{String: string(b), Valid: true}
	}
	var userID sql.NullString
	var groupID sql.NullInt64
	if scope.IsGroup() {
		groupID = sql.NullInt64{Int64: scope.GroupID, Valid: true}
	} else {
		userID = nullString(scope.OwnerID)
	}
	var leftover int
	if r.IsLeftover {
		leftover = 1
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO meal_plans (scope_key, week_start_date, day_of_week, user_id, group_id, dish_name, user_dish_id, dish_snapshot, is_leftover, leftover_of_dish, notes, added_by, revision)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (scope_key, week_start_date, day_of_week) DO UPDATE SET
		   dish_name = excluded.dish_name,
		   user_dish_id = excluded.user_dish_id,
		   dish_snapshot = excluded.dish_snapshot,
		   is_leftover = excluded.is_leftover,
		   leftover_of_dish = excluded.leftover_of_dish,
		   notes = excluded.notes,
		   added_by = excluded.added_by,
		   revision = excluded.revision,
		   updated_at = CURRENT_TIMESTAMP`,
		scope.Key(), scope.WeekStartDate(), day, userID, groupID,
		r.DishName, nullString(r.UserDishID), snapshot, leftover,
		nullString(r.LeftoverOf), nullString(r.Notes), r.AddedBy, version,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", day, err)
	}
	return nil
}

// DeleteWeek removes every row of the scope's week and returns the new
// version.
func (s *MealPlanStore) DeleteWeek(ctx context.Context, scope model.WeekScope, actor string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM meal_plans WHERE scope_key = ? AND week_start_date = ?`,
		scope.Key(), scope.WeekStartDate(),
	); err != nil {
		return 0, fmt.Errorf("delete week: %w", err)
	}
	version, err := bumpVersion(ctx, tx, scope, actor)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return version, nil
}
