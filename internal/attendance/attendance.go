// Package attendance tracks per-day RSVPs for group members, independent of
// which dish is planned.
package attendance

import (
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/mealweek/internal/model"
)

var (
	ErrInvalidStatus = errors.New("invalid attendance status")
	ErrNotMember     = errors.New("not a member of this group")
)

type Store interface {
	Upsert(groupID int64, userID string, day model.Day, weekStart string, status model.AttendanceStatus) (*model.Attendance, error)
	ListDay(groupID int64, day model.Day, weekStart string) ([]model.Attendance, error)
	ListWeek(groupID int64, weekStart string) ([]model.Attendance, error)
}

type Members interface {
	GetMember(groupID int64, userID string) (*model.GroupMember, error)
	ListMembers(groupID int64) ([]model.GroupMember, error)
}

type Entry struct {
	UserID      string                 `json:"userId"`
	DisplayName string                 `json:"displayName"`
	Status      model.AttendanceStatus `json:"status"`
}

// Day is every member's status for one day with the totals derived from it.
type Day struct {
	Day          model.Day `json:"dayOfWeek"`
	Entries      []Entry   `json:"entries"`
	Attending    int       `json:"attending"`
	NotAttending int       `json:"notAttending"`
	Unknown      int       `json:"unknown"`
}

type Service struct {
	store   Store
	members Members
}

func NewService(store Store, members Members) *Service {
	return &Service{store: store, members: members}
}

// SetStatus records a member's answer for one day. The latest answer replaces
// any earlier one.
func (s *Service) SetStatus(groupID int64, userID string, day model.Day, weekStart time.Time, status model.AttendanceStatus) (*model.Attendance, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if !day.Valid() {
		return nil, fmt.Errorf("set attendance: unknown day %q", day)
	}
	m, err := s.members.GetMember(groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if m == nil {
		return nil, ErrNotMember
	}
	return s.store.Upsert(groupID, userID, day, model.FormatDate(model.MondayOf(weekStart)), status)
}

// List returns every current member's status for the day. Members who never
// answered are reported as unknown.
func (s *Service) List(groupID int64, day model.Day, weekStart time.Time) (*Day, error) {
	members, err := s.members.ListMembers(groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	records, err := s.store.ListDay(groupID, day, model.FormatDate(model.MondayOf(weekStart)))
	if err != nil {
		return nil, err
	}
	d := build(day, members, records)
	return &d, nil
}

// Week returns all seven days, Monday first.
func (s *Service) Week(groupID int64, weekStart time.Time) ([]Day, error) {
	members, err := s.members.ListMembers(groupID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	records, err := s.store.ListWeek(groupID, model.FormatDate(model.MondayOf(weekStart)))
	if err != nil {
		return nil, err
	}

	byDay := make(map[model.Day][]model.Attendance, 7)
	for _, r := range records {
		byDay[r.Day] = append(byDay[r.Day], r)
	}
	days := make([]Day, 0, 7)
	for _, day := range model.Days {
		days = append(days, build(day, members, byDay[day]))
	}
	return days, nil
}

func build(day model.Day, members []model.GroupMember, records []model.Attendance) Day {
	status := make(map[string]model.AttendanceStatus, len(records))
	for _, r := range records {
		status[r.UserID] = r.Status
	}

	d := Day{Day: day, Entries: make([]Entry, 0, len(members))}
	for _, m := range members {
		st, ok := status[m.UserID]
		if !ok {
			st = model.Unknown
		}
		d.Entries = append(d.Entries, Entry{UserID: m.UserID, DisplayName: m.DisplayName, Status: st})
		switch st {
		case model.Attending:
			d.Attending++
		case model.NotAttending:
			d.NotAttending++
		default:
			d.Unknown++
		}
	}
	return d
}
