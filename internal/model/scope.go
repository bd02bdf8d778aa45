package model

import (
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// WeekScope identifies the plan for one week owned either by a single user or
// by a group. GroupID zero means personal scope.
type WeekScope struct {
	WeekStart time.Time
	OwnerID   string
	GroupID   int64
}

// MondayOf returns midnight UTC of the Monday on or before t.
func MondayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// ParseWeek parses a YYYY-MM-DD date and aligns it to its Monday.
func ParseWeek(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse week %q: %w", s, err)
	}
	return MondayOf(t), nil
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func PersonalScope(week time.Time, userID string) WeekScope {
	return WeekScope{WeekStart: MondayOf(week), OwnerID: userID}
}

func GroupScope(week time.Time, groupID int64) WeekScope {
	return WeekScope{WeekStart: MondayOf(week), GroupID: groupID}
}

func (s WeekScope) IsGroup() bool {
	return s.GroupID != 0
}

// Key identifies the owner independent of the week.
func (s WeekScope) Key() string {
	if s.IsGroup() {
		return "group:" + strconv.FormatInt(s.GroupID, 10)
	}
	return "user:" + s.OwnerID
}

func (s WeekScope) WeekStartDate() string {
	return FormatDate(s.WeekStart)
}

// Topic names the realtime channel for this scope and week.
func (s WeekScope) Topic() string {
	return s.Key() + "/" + s.WeekStartDate()
}

// Previous returns the same owner's scope one week earlier.
func (s WeekScope) Previous() WeekScope {
	s.WeekStart = s.WeekStart.AddDate(0, 0, -7)
	return s
}

// GroupIDPtr returns nil for personal scopes.
func (s WeekScope) GroupIDPtr() *int64 {
	if !s.IsGroup() {
		return nil
	}
	id := s.GroupID
	return &id
}
