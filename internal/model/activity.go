package model

import "time"

// Activity action constants
const (
	ActionDishAdded   = "dish_added"
	ActionDishRemoved = "dish_removed"
	ActionPlanSaved   = "plan_saved"
	ActionPlanCleared = "plan_cleared"
)

type Activity struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"groupId"`
	UserID    string    `json:"userId"`
	Action    string    `json:"action"`
	Day       Day       `json:"dayOfWeek,omitempty"`
	WeekStart string    `json:"weekStartDate"`
	DishName  string    `json:"dishName,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
