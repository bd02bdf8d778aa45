package model

import (
	"fmt"
	"strings"
	"time"
)

type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Days lists the canonical day keys, Monday first.
var Days = [7]Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Index returns the position of d in Days, or -1 if d is not a canonical key.
func (d Day) Index() int {
	for i, day := range Days {
		if day == d {
			return i
		}
	}
	return -1
}

func (d Day) Valid() bool {
	return d.Index() >= 0
}

// ParseDay accepts a day key in any letter case.
func ParseDay(s string) (Day, error) {
	d := Day(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("unknown day %q", s)
	}
	return d, nil
}

// DayOf returns the day key for t.
func DayOf(t time.Time) Day {
	return Days[(int(t.Weekday())+6)%7]
}

// MealCell is one day's assignment within a weekly plan.
type MealCell struct {
	Dish        *Dish  `json:"dish"`
	IsLeftover  bool   `json:"isLeftover"`
	LeftoverOf  string `json:"leftoverOf,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// Empty reports whether no dish is assigned.
func (c MealCell) Empty() bool {
	return c.Dish == nil
}

// MealPlanRow is one persisted (scope, day) assignment.
type MealPlanRow struct {
	ID           int64     `json:"id"`
	ScopeKey     string    `json:"scopeKey"`
	WeekStart    string    `json:"weekStartDate"`
	Day          Day       `json:"dayOfWeek"`
	UserID       string    `json:"userId,omitempty"`
	GroupID      *int64    `json:"groupId"`
	DishName     string    `json:"dishName"`
	UserDishID   string    `json:"userDishId,omitempty"`
	DishSnapshot *Dish     `json:"dishSnapshot,omitempty"`
	IsLeftover   bool      `json:"isLeftover"`
	LeftoverOf   string    `json:"leftoverOfDish,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	AddedBy      string    `json:"addedBy"`
	Revision     int64     `json:"revision"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
