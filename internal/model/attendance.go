package model

import "time"

type AttendanceStatus string

const (
	Attending    AttendanceStatus = "attending"
	NotAttending AttendanceStatus = "not_attending"
	Unknown      AttendanceStatus = "unknown"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case Attending, NotAttending, Unknown:
		return true
	}
	return false
}

type Attendance struct {
	GroupID   int64            `json:"groupId"`
	UserID    string           `json:"userId"`
	Day       Day              `json:"dayOfWeek"`
	WeekStart string           `json:"weekStartDate"`
	Status    AttendanceStatus `json:"status"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
