// Package codec converts a weekly plan to and from its portable JSON
// document and renders a printable HTML page.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/week"
)

// Version is the only document version this package reads and writes.
const Version = 1

var (
	ErrMalformed          = errors.New("malformed meal plan document")
	ErrUnsupportedVersion = errors.New("unsupported meal plan document version")
	ErrEmptyImport        = errors.New("meal plan document has no dishes")
)

// Cell is the exported form of one day. It carries only the four portable
// fields; availability markers are not exported.
type Cell struct {
	Dish       *model.Dish `json:"dish"`
	IsLeftover bool        `json:"isLeftover"`
	LeftoverOf string      `json:"leftoverOf,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

// Meals marshals in canonical day order.
type Meals map[model.Day]Cell

func (m Meals) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range model.Days {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(string(day))
		buf.Write(key)
		buf.WriteByte(':')
		cell, err := json.Marshal(m[day])
		if err != nil {
			return nil, err
		}
		buf.Write(cell)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Document struct {
	Version       int       `json:"version"`
	ExportedAt    time.Time `json:"exportedAt"`
	WeekStartDate string    `json:"weekStartDate"`
	GroupID       *string   `json:"groupId"`
	Meals         Meals     `json:"meals"`
}

// NewDocument captures plan as an export document.
func NewDocument(scope model.WeekScope, plan *week.Plan, now time.Time) Document {
	doc := Document{
		Version:       Version,
		ExportedAt:    now.UTC(),
		WeekStartDate: scope.WeekStartDate(),
		Meals:         make(Meals, 7),
	}
	if scope.IsGroup() {
		id := strconv.FormatInt(scope.GroupID, 10)
		doc.GroupID = &id
	}
	for day, c := range plan.Cells() {
		doc.Meals[day] = Cell{
			Dish:       c.Dish,
			IsLeftover: c.IsLeftover,
			LeftoverOf: c.LeftoverOf,
			Notes:      c.Notes,
		}
	}
	return doc
}

func ExportJSON(scope model.WeekScope, plan *week.Plan, now time.Time) ([]byte, error) {
	b, err := json.MarshalIndent(NewDocument(scope, plan, now), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return b, nil
}

// Import is a decoded document. WeekStartDate and GroupID are informational;
// the caller decides which week the plan is applied to.
type Import struct {
	WeekStartDate string
	GroupID       string
	Plan          *week.Plan
}

type rawDocument struct {
	Version       *int            `json:"version"`
	WeekStartDate string          `json:"weekStartDate"`
	GroupID       json.RawMessage `json:"groupId"`
	Meals         json.RawMessage `json:"meals"`
}

// ImportJSON decodes a document. It either returns a complete plan or an
// error; it never returns a partial result.
func ImportJSON(data []byte) (*Import, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Version != nil && *raw.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *raw.Version)
	}
	if len(raw.Meals) == 0 || string(raw.Meals) == "null" {
		return nil, fmt.Errorf("%w: missing meals", ErrMalformed)
	}

	var meals map[string]json.RawMessage
	if err := json.Unmarshal(raw.Meals, &meals); err != nil {
		return nil, fmt.Errorf("%w: meals must be an object", ErrMalformed)
	}

	cells := make(map[model.Day]model.MealCell, 7)
	hasDish := false
	for _, day := range model.Days {
		msg, ok := meals[string(day)]
		if !ok || string(msg) == "null" {
			continue
		}
		var c Cell
		if err := json.Unmarshal(msg, &c); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, day, err)
		}
		if c.Dish == nil {
			continue
		}
		if c.Dish.Name == "" {
			return nil, fmt.Errorf("%w: %s: dish has no name", ErrMalformed, day)
		}
		hasDish = true
		cells[day] = model.MealCell{
			Dish:       c.Dish,
			IsLeftover: c.IsLeftover,
			LeftoverOf: c.LeftoverOf,
			Notes:      c.Notes,
		}
	}
	if !hasDish {
		return nil, ErrEmptyImport
	}

	plan, err := week.FromCells(cells)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	imp := &Import{WeekStartDate: raw.WeekStartDate, Plan: plan}
	if len(raw.GroupID) > 0 && string(raw.GroupID) != "null" {
		var s string
		if err := json.Unmarshal(raw.GroupID, &s); err == nil {
			imp.GroupID = s
		} else {
			var n json.Number
			if err := json.Unmarshal(raw.GroupID, &n); err == nil {
				imp.GroupID = n.String()
			}
		}
	}
	return imp, nil
}
