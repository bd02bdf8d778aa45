package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dukerupert/mealweek/internal/model"

	"github.com/google/uuid"
)

type DishStore struct {
	db *sql.DB
}

func NewDishStore(db *sql.DB) *DishStore {
	return &DishStore{db: db}
}

func scanUserDish(scanner interface{ Scan(...any) error }) (*model.UserDish, error) {
	var d model.UserDish
	var tags string
	err := scanner.Scan(
		&d.ID, &d.OwnerID, &d.Name, &tags, &d.CookingTime, &d.Difficulty,
		&d.Cuisine, &d.Category, &d.ImageURL, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return &d, nil
}

const userDishCols = `id, owner_id, name, tags, cooking_time, difficulty, cuisine, category, image_url, created_at, updated_at`

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

// Create stores a new dish owned by ownerID. The dish ID is generated.
func (s *DishStore) Create(ownerID string, d model.Dish) (*model.UserDish, error) {
	tags, err := encodeTags(d.Tags)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO user_dishes (id, owner_id, name, tags, cooking_time, difficulty, cuisine, category, image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, d.Name, tags, d.CookingTime, d.Difficulty, d.Cuisine, d.Category, d.ImageURL,
	)
	if err != nil {
		return nil, fmt.Errorf("insert dish: %w", err)
	}
	return s.GetByID(id)
}

func (s *DishStore) GetByID(id string) (*model.UserDish, error) {
	row := s.db.QueryRow(`SELECT `+userDishCols+` FROM user_dishes WHERE id = ?`, id)
	d, err := scanUserDish(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get dish: %w", err)
	}
	return d, nil
}

// ListByOwners returns the dishes of every listed owner ordered by name.
func (s *DishStore) ListByOwners(ownerIDs ...string) ([]model.UserDish, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ownerIDs)), ",")
	args := make([]any, len(ownerIDs))
	for i, id := range ownerIDs {
		args[i] = id
	}

	rows, err := s.db.Query(
		`SELECT `+userDishCols+` FROM user_dishes WHERE owner_id IN (`+placeholders+`) ORDER BY name COLLATE NOCASE ASC, id ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list dishes: %w", err)
	}
	defer rows.Close()

	var dishes []model.UserDish
	for rows.Next() {
		d, err := scanUserDish(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dish: %w", err)
		}
		dishes = append(dishes, *d)
	}
	return dishes, rows.Err()
}

// Update replaces the editable fields. The image URL is left alone.
func (s *DishStore) Update(id string, d model.Dish) (*model.UserDish, error) {
	tags, err := encodeTags(d.Tags)
	if err != nil {
		return nil, err
	}
	_, err = s.db.Exec(
		`UPDATE user_dishes SET name = ?, tags = ?, cooking_time = ?, difficulty = ?, cuisine = ?, category = ? WHERE id = ?`,
		d.Name, tags, d.CookingTime, d.Difficulty, d.Cuisine, d.Category, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update dish: %w", err)
	}
	return s.GetByID(id)
}

func (s *DishStore) SetImageURL(id, url string) (*model.UserDish, error) {
	_, err := s.db.Exec(`UPDATE user_dishes SET image_url = ? WHERE id = ?`, url, id)
	if err != nil {
		return nil, fmt.Errorf("set dish image: %w", err)
	}
	return s.GetByID(id)
}

func (s *DishStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM user_dishes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dish: %w", err)
	}
	return nil
}
