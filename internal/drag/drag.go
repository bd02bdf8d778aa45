// Package drag implements swapping two days of a plan by pointer drag or by
// keyboard. It changes only the in-memory board; nothing is persisted.
package drag

import (
	"math"

	"github.com/dukerupert/mealweek/internal/model"
)

// DefaultMinDistance is how far the pointer must travel, in pixels, before a
// press turns into a drag.
const DefaultMinDistance = 8.0

// Board is the plan being rearranged.
type Board interface {
	HasDish(day model.Day) bool
	Swap(a, b model.Day) error
}

type Point struct {
	X, Y float64
}

type State int

const (
	Idle State = iota
	Pressed
	Dragging
	Picked
)

func (s State) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Dragging:
		return "dragging"
	case Picked:
		return "picked"
	}
	return "idle"
}

// Controller tracks one drag at a time. It is not safe for concurrent use.
type Controller struct {
	board       Board
	MinDistance float64

	state  State
	source model.Day
	origin Point
	focus  model.Day
}

func NewController(board Board) *Controller {
	return &Controller{
		board:       board,
		MinDistance: DefaultMinDistance,
		focus:       model.Monday,
	}
}

func (c *Controller) State() State {
	return c.state
}

// Source returns the day being dragged, or "" when idle.
func (c *Controller) Source() model.Day {
	if c.state == Idle {
		return ""
	}
	return c.source
}

// Focus returns the day the keyboard cursor is on.
func (c *Controller) Focus() model.Day {
	return c.focus
}

func (c *Controller) reset() {
	c.state = Idle
	c.source = ""
	c.origin = Point{}
}

// PointerDown arms a drag on day. Empty days cannot be dragged.
func (c *Controller) PointerDown(day model.Day, at Point) bool {
	if c.state != Idle || !day.Valid() || !c.board.HasDish(day) {
		return false
	}
	c.state = Pressed
	c.source = day
	c.origin = at
	return true
}

// PointerMove reports whether the drag is active after the move.
func (c *Controller) PointerMove(at Point) bool {
	switch c.state {
	case Pressed:
		if math.Hypot(at.X-c.origin.X, at.Y-c.origin.Y) >= c.MinDistance {
			c.state = Dragging
		}
	case Dragging:
	default:
		return false
	}
	return c.state == Dragging
}

// PointerUp ends the drag. over is the day under the pointer, or nil when
// released outside every day. A press that never moved far enough is a tap
// and swaps nothing.
func (c *Controller) PointerUp(over *model.Day) (bool, error) {
	if c.state != Pressed && c.state != Dragging {
		return false, nil
	}
	active := c.state == Dragging
	source := c.source
	c.reset()

	if !active || over == nil {
		return false, nil
	}
	return c.swap(source, *over)
}

func (c *Controller) swap(from, to model.Day) (bool, error) {
	if from == to || !to.Valid() {
		return false, nil
	}
	if err := c.board.Swap(from, to); err != nil {
		return false, err
	}
	return true, nil
}

// Pick starts a keyboard move from day.
func (c *Controller) Pick(day model.Day) bool {
	if c.state != Idle || !day.Valid() || !c.board.HasDish(day) {
		return false
	}
	c.state = Picked
	c.source = day
	c.focus = day
	return true
}

// SetFocus moves the keyboard cursor without wrapping arithmetic.
func (c *Controller) SetFocus(day model.Day) {
	if day.Valid() {
		c.focus = day
	}
}

// MoveFocus shifts the cursor by delta days, wrapping around the week.
func (c *Controller) MoveFocus(delta int) model.Day {
	i := c.focus.Index()
	if i < 0 {
		i = 0
	}
	n := len(model.Days)
	c.focus = model.Days[((i+delta)%n+n)%n]
	return c.focus
}

// Drop swaps the picked day with the focused one.
func (c *Controller) Drop() (bool, error) {
	if c.state != Picked {
		return false, nil
	}
	source := c.source
	c.reset()
	return c.swap(source, c.focus)
}

// Cancel abandons any drag in progress.
func (c *Controller) Cancel() {
	c.reset()
}

// DropOn runs a complete keyboard move from one day to another.
func (c *Controller) DropOn(from, to model.Day) (bool, error) {
	if !c.Pick(from) {
		return false, nil
	}
	c.SetFocus(to)
	return c.Drop()
}
