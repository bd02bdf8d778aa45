package model

import "time"

type CookingTime string

const (
	CookingQuick  CookingTime = "quick"
	CookingMedium CookingTime = "medium"
	CookingLong   CookingTime = "long"
)

func (c CookingTime) Valid() bool {
	switch c {
	case CookingQuick, CookingMedium, CookingLong:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Dish is either a built-in catalog entry (OwnerID empty) or a user-submitted
// dish owned by exactly one account.
type Dish struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Tags        []string    `json:"tags"`
	CookingTime CookingTime `json:"cookingTime"`
	Difficulty  Difficulty  `json:"difficulty"`
	Cuisine     string      `json:"cuisine"`
	Category    string      `json:"category"`
	OwnerID     string      `json:"ownerId,omitempty"`
	ImageURL    string      `json:"imageUrl,omitempty"`
}

// IsCustom reports whether the dish was submitted by a user.
func (d Dish) IsCustom() bool {
	return d.OwnerID != ""
}

// UserDish is the persisted form of a user-submitted dish.
type UserDish struct {
	Dish
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
