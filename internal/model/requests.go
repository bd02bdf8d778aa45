package model

import "strings"

type DishRequest struct {
	Name        string      `json:"name" validate:"required,min=1,max=100"`
	Tags        []string    `json:"tags" validate:"max=30,dive,required,max=50"`
	CookingTime CookingTime `json:"cookingTime" validate:"required,oneof=quick medium long"`
	Difficulty  Difficulty  `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Cuisine     string      `json:"cuisine" validate:"max=50"`
	Category    string      `json:"category" validate:"max=50"`
}

// Dish converts the request, trimming whitespace from the name and tags.
func (r DishRequest) Dish() Dish {
	tags := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return Dish{
		Name:        strings.TrimSpace(r.Name),
		Tags:        tags,
		CookingTime: r.CookingTime,
		Difficulty:  r.Difficulty,
		Cuisine:     strings.TrimSpace(r.Cuisine),
		Category:    strings.TrimSpace(r.Category),
	}
}

type AssignRequest struct {
	DishID     string `json:"dishId" validate:"required_without=DishName"`
	DishName   string `json:"dishName" validate:"required_without=DishID"`
	IsLeftover bool   `json:"isLeftover"`
	LeftoverOf string `json:"leftoverOf" validate:"max=100"`
}

type NoteRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

type SwapRequest struct {
	From Day `json:"from" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	To   Day `json:"to" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
}

type AttendanceRequest struct {
	Day       Day              `json:"dayOfWeek" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	WeekStart string           `json:"weekStartDate" validate:"required,datetime=2006-01-02"`
	Status    AttendanceStatus `json:"status" validate:"required,oneof=attending not_attending unknown"`
}

type CreateGroupRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=50"`
}

type RenameGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type MemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

type JoinGroupRequest struct {
	Code        string `json:"code" validate:"required"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=50"`
}

type PreferenceRequest struct {
	Key   string `json:"key" validate:"required,oneof=tour_completed confetti_shown locale"`
	Value string `json:"value" validate:"max=64"`
}

type GenerateWeekRequest struct {
	Notes          string      `json:"notes" validate:"max=500"`
	MaxCookingTime CookingTime `json:"maxCookingTime" validate:"omitempty,oneof=quick medium long"`
	Cuisines       []string    `json:"cuisines" validate:"max=10,dive,max=50"`
}

type RecipeRequest struct {
	Prompt string `json:"prompt" validate:"required,min=3,max=1000"`
}
