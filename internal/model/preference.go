package model

import "time"

// Preference keys
const (
	PrefTourCompleted = "tour_completed"
	PrefConfettiShown = "confetti_shown"
	PrefLocale        = "locale"
)

type Preference struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
