// Package week holds the in-memory seven-day meal plan.
package week

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/mealweek/internal/model"
)

var (
	ErrEmptyDay   = errors.New("day has no dish")
	ErrInvalidDay = errors.New("invalid day")
)

// DuplicateWarning is informational; the assignment it accompanies has
// already been applied.
type DuplicateWarning struct {
	DishName string      `json:"dishName"`
	Days     []model.Day `json:"days"`
}

// Plan always holds exactly the seven canonical days. A zero Plan is an empty
// week. Plan is not safe for concurrent use.
type Plan struct {
	cells [7]model.MealCell
}

func New() *Plan {
	return &Plan{}
}

// FromCells builds a plan from a day-keyed map. Missing days are empty and
// cells without a dish are normalized to empty.
func FromCells(cells map[model.Day]model.MealCell) (*Plan, error) {
	p := New()
	for day, c := range cells {
		i := day.Index()
		if i < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDay, day)
		}
		p.cells[i] = normalize(c)
	}
	return p, nil
}

func normalize(c model.MealCell) model.MealCell {
	if c.Dish == nil {
		return model.MealCell{}
	}
	d := cloneDish(*c.Dish)
	c.Dish = &d
	if !c.IsLeftover {
		c.LeftoverOf = ""
	}
	c.Notes = normalizeNote(c.Notes)
	return c
}

func cloneDish(d model.Dish) model.Dish {
	if d.Tags != nil {
		d.Tags = append([]string(nil), d.Tags...)
	}
	return d
}

func normalizeNote(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func index(day model.Day) (int, error) {
	i := day.Index()
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	return i, nil
}

// Cell returns a copy of the day's cell. Unknown days read as empty.
func (p *Plan) Cell(day model.Day) model.MealCell {
	i := day.Index()
	if i < 0 {
		return model.MealCell{}
	}
	return normalize(p.cells[i])
}

// Cells returns all seven days.
func (p *Plan) Cells() map[model.Day]model.MealCell {
	out := make(map[model.Day]model.MealCell, 7)
	for i, day := range model.Days {
		out[day] = normalize(p.cells[i])
	}
	return out
}

func (p *Plan) HasDish(day model.Day) bool {
	i := day.Index()
	return i >= 0 && p.cells[i].Dish != nil
}

// IsEmpty reports whether no day holds a dish.
func (p *Plan) IsEmpty() bool {
	for _, c := range p.cells {
		if c.Dish != nil {
			return false
		}
	}
	return true
}

// Assign sets the dish for day. An existing note on the day is kept. When a
// fresh (non-leftover) dish is already planned on another day as a fresh
// dish, a warning naming those days is returned alongside the assignment.
// Leftover assignments skip the scan and never warn, and leftover cells on
// other days never count as duplicates.
func (p *Plan) Assign(day model.Day, dish model.Dish, isLeftover bool, leftoverOf string) (*DuplicateWarning, error) {
	i, err := index(day)
	if err != nil {
		return nil, err
	}

	var warning *DuplicateWarning
	if !isLeftover {
		for j, c := range p.cells {
			if j == i || c.Dish == nil || c.IsLeftover || c.Dish.Name != dish.Name {
				continue
			}
			if warning == nil {
				warning = &DuplicateWarning{DishName: dish.Name}
			}
			warning.Days = append(warning.Days, model.Days[j])
		}
	}

	cell := model.MealCell{IsLeftover: isLeftover, Notes: p.cells[i].Notes}
	d := cloneDish(dish)
	cell.Dish = &d
	if isLeftover {
		cell.LeftoverOf = leftoverOf
		if cell.LeftoverOf == "" {
			cell.LeftoverOf = dish.Name
		}
	}
	p.cells[i] = cell
	return warning, nil
}

// Remove empties the day and returns the dish that was there, if any.
func (p *Plan) Remove(day model.Day) (*model.Dish, error) {
	i, err := index(day)
	if err != nil {
		return nil, err
	}
	prev := p.cells[i].Dish
	p.cells[i] = model.MealCell{}
	return prev, nil
}

// SetNote replaces the day's note. Whitespace-only text clears it.
func (p *Plan) SetNote(day model.Day, text string) error {
	i, err := index(day)
	if err != nil {
		return err
	}
	if p.cells[i].Dish == nil {
		return fmt.Errorf("set note on %s: %w", day, ErrEmptyDay)
	}
	p.cells[i].Notes = normalizeNote(text)
	return nil
}

// Swap exchanges the full contents of two days.
func (p *Plan) Swap(a, b model.Day) error {
	i, err := index(a)
	if err != nil {
		return err
	}
	j, err := index(b)
	if err != nil {
		return err
	}
	p.cells[i], p.cells[j] = p.cells[j], p.cells[i]
	return nil
}

func (p *Plan) Clear() {
	p.cells = [7]model.MealCell{}
}

// Replace overwrites every day with other's contents.
func (p *Plan) Replace(other *Plan) {
	for i := range p.cells {
		p.cells[i] = normalize(other.cells[i])
	}
}

func (p *Plan) Clone() *Plan {
	c := New()
	c.Replace(p)
	return c
}
