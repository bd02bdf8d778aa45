package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dukerupert/mealweek/internal/catalog"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/store"
	"github.com/dukerupert/mealweek/internal/week"
)

// View is a read-only copy of a workspace.
type View struct {
	WeekStartDate string                       `json:"weekStartDate"`
	GroupID       *int64                       `json:"groupId"`
	Meals         map[model.Day]model.MealCell `json:"meals"`
	Dirty         []model.Day                  `json:"dirty"`
	Revisions     map[model.Day]int64          `json:"revisions"`
}

// Workspace is one viewer's editable copy of a scoped week. The mutex guards
// local state only and is never held across store calls.
type Workspace struct {
	svc    *Service
	userID string
	scope  model.WeekScope

	mu      sync.Mutex
	plan    *week.Plan
	union   *catalog.Union
	revs    map[model.Day]int64
	edits   map[model.Day]uint64
	dirty   map[model.Day]bool
	loadSeq uint64
}

func newWorkspace(svc *Service, userID string, scope model.WeekScope) *Workspace {
	return &Workspace{
		svc:    svc,
		userID: userID,
		scope:  scope,
		plan:   week.New(),
		revs:   make(map[model.Day]int64),
		edits:  make(map[model.Day]uint64),
		dirty:  make(map[model.Day]bool),
	}
}

func (w *Workspace) Scope() model.WeekScope {
	return w.scope
}

func (w *Workspace) UserID() string {
	return w.userID
}

func (w *Workspace) viewLocked() View {
	v := View{
		WeekStartDate: w.scope.WeekStartDate(),
		GroupID:       w.scope.GroupIDPtr(),
		Meals:         w.plan.Cells(),
		Dirty:         []model.Day{},
		Revisions:     make(map[model.Day]int64, len(w.revs)),
	}
	for _, day := range model.Days {
		if w.dirty[day] {
			v.Dirty = append(v.Dirty, day)
		}
	}
	for day, rev := range w.revs {
		v.Revisions[day] = rev
	}
	return v
}

func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

// Plan returns a copy of the current week.
func (w *Workspace) Plan() *week.Plan {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.plan.Clone()
}

func (w *Workspace) markDirtyLocked(days ...model.Day) {
	for _, d := range days {
		w.dirty[d] = true
		w.edits[d]++
	}
}

// resolveRows projects stored rows onto a fresh plan. Rows whose dish no
// longer resolves fall back to their snapshot and are flagged unavailable.
func (w *Workspace) resolveRows(rows []model.MealPlanRow, union *catalog.Union) (*week.Plan, map[model.Day]int64) {
	cells := make(map[model.Day]model.MealCell, 7)
	revs := make(map[model.Day]int64, len(rows))
	for _, r := range rows {
		if !r.Day.Valid() {
			continue
		}
		revs[r.Day] = r.Revision

		cell := model.MealCell{IsLeftover: r.IsLeftover, LeftoverOf: r.LeftoverOf, Notes: r.Notes}
		if d, ok := union.Resolve(r.UserDishID, r.DishName); ok {
			cell.Dish = d
		} else if r.DishSnapshot != nil {
			snap := *r.DishSnapshot
			cell.Dish = &snap
			cell.Unavailable = true
		} else {
			w.svc.logger.Debug("dropping unresolvable meal",
				"scope", w.scope.Topic(), "day", r.Day, "dish", r.DishName)
			continue
		}
		cells[r.Day] = cell
	}
	plan, _ := week.FromCells(cells)
	return plan, revs
}

// Load replaces the workspace with the stored week, discarding unsaved
// edits. If another Load starts before this one finishes, this one returns
// ErrSuperseded and leaves state to the newer load.
func (w *Workspace) Load(ctx context.Context) (View, error) {
	w.mu.Lock()
	w.loadSeq++
	token := w.loadSeq
	w.mu.Unlock()

	union, err := w.svc.Union(w.userID, w.scope)
	if err != nil {
		return View{}, fmt.Errorf("load plan: %w", err)
	}
	rows, err := w.svc.plans.ListWeek(ctx, w.scope)
	if err != nil {
		return View{}, fmt.Errorf("load plan: %w", err)
	}
	plan, revs := w.resolveRows(rows, union)

	w.mu.Lock()
	defer w.mu.Unlock()
	if token != w.loadSeq {
		return View{}, ErrSuperseded
	}
	w.plan = plan
	w.union = union
	w.revs = revs
	w.dirty = make(map[model.Day]bool)
	return w.viewLocked(), nil
}

// LookupDish finds a dish by id, then by name. The dish union is refreshed
// once on a miss so dishes created after the last load are found.
func (w *Workspace) LookupDish(dishID, name string) (*model.Dish, error) {
	w.mu.Lock()
	union := w.union
	w.mu.Unlock()

	if union != nil {
		if d, ok := union.Resolve(dishID, name); ok {
			return d, nil
		}
	}

	fresh, err := w.svc.Union(w.userID, w.scope)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.union = fresh
	w.mu.Unlock()

	if d, ok := fresh.Resolve(dishID, name); ok {
		return d, nil
	}
	return nil, ErrUnknownDish
}

// Dishes returns the dish union the workspace resolves against.
func (w *Workspace) Dishes() []model.Dish {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.union == nil {
		return nil
	}
	return w.union.All()
}

func (w *Workspace) Assign(day model.Day, dish model.Dish, isLeftover bool, leftoverOf string) (*week.DuplicateWarning, error) {
	w.mu.Lock()
	warning, err := w.plan.Assign(day, dish, isLeftover, leftoverOf)
	if err == nil {
		w.markDirtyLocked(day)
	}
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	w.svc.logActivity(w.scope, w.userID, model.ActionDishAdded, day, dish.Name)
	return warning, nil
}

func (w *Workspace) Remove(day model.Day) (*model.Dish, error) {
	w.mu.Lock()
	prev, err := w.plan.Remove(day)
	if err == nil {
		w.markDirtyLocked(day)
	}
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if prev != nil {
		w.svc.logActivity(w.scope, w.userID, model.ActionDishRemoved, day, prev.Name)
	}
	return prev, nil
}

func (w *Workspace) SetNote(day model.Day, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.plan.SetNote(day, text); err != nil {
		return err
	}
	w.markDirtyLocked(day)
	return nil
}

func (w *Workspace) HasDish(day model.Day) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.plan.HasDish(day)
}

func (w *Workspace) Swap(a, b model.Day) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.plan.Swap(a, b); err != nil {
		return err
	}
	if a != b {
		w.markDirtyLocked(a, b)
	}
	return nil
}

// ReplacePlan overwrites every day locally, as an import does. Nothing is
// saved.
func (w *Workspace) ReplacePlan(p *week.Plan) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.plan.Replace(p)
	w.markDirtyLocked(model.Days[:]...)
}

func (w *Workspace) rowFor(cell model.MealCell) *model.MealPlanRow {
	if cell.Dish == nil {
		return nil
	}
	snap := *cell.Dish
	row := &model.MealPlanRow{
		DishName:     cell.Dish.Name,
		DishSnapshot: &snap,
		IsLeftover:   cell.IsLeftover,
		LeftoverOf:   cell.LeftoverOf,
		Notes:        cell.Notes,
		AddedBy:      w.userID,
	}
	if cell.Dish.IsCustom() && cell.Dish.OwnerID == w.userID {
		row.UserDishID = cell.Dish.ID
	}
	return row
}

// Save writes the days changed since the last load or save and reports
// whether anything was written. Days that were changed remotely in the
// meantime fail the whole save with ErrConflict and nothing is written.
func (w *Workspace) Save(ctx context.Context) (View, bool, error) {
	w.mu.Lock()
	var writes []store.CellWrite
	edits := make(map[model.Day]uint64)
	for _, day := range model.Days {
		if !w.dirty[day] {
			continue
		}
		writes = append(writes, store.CellWrite{
			Day:              day,
			Row:              w.rowFor(w.plan.Cell(day)),
			ExpectedRevision: w.revs[day],
		})
		edits[day] = w.edits[day]
	}
	w.mu.Unlock()

	if len(writes) == 0 {
		return w.View(), false, nil
	}

	version, err := w.svc.plans.ApplyCells(ctx, w.scope, w.userID, writes)
	if errors.Is(err, store.ErrRevisionConflict) {
		return View{}, false, fmt.Errorf("save plan: %w: %w", ErrConflict, err)
	}
	if err != nil {
		return View{}, false, fmt.Errorf("save plan: %w", err)
	}

	w.mu.Lock()
	for _, wr := range writes {
		if wr.Row == nil {
			delete(w.revs, wr.Day)
		} else {
			w.revs[wr.Day] = version
		}
		if w.edits[wr.Day] == edits[wr.Day] {
			delete(w.dirty, wr.Day)
		}
	}
	v := w.viewLocked()
	w.mu.Unlock()

	w.svc.logActivity(w.scope, w.userID, model.ActionPlanSaved, "", "")
	return v, true, nil
}

// Clear empties the week locally and in the store.
func (w *Workspace) Clear(ctx context.Context) (View, error) {
	if _, err := w.svc.plans.DeleteWeek(ctx, w.scope, w.userID); err != nil {
		return View{}, fmt.Errorf("clear plan: %w", err)
	}

	w.mu.Lock()
	w.plan.Clear()
	w.revs = make(map[model.Day]int64)
	w.dirty = make(map[model.Day]bool)
	for _, day := range model.Days {
		w.edits[day]++
	}
	v := w.viewLocked()
	w.mu.Unlock()

	w.svc.logActivity(w.scope, w.userID, model.ActionPlanCleared, "", "")
	return v, nil
}

// RepeatPreviousWeek copies last week's stored plan over this one without
// saving. If last week is empty the workspace is unchanged.
func (w *Workspace) RepeatPreviousWeek(ctx context.Context) (View, error) {
	prev := w.scope.Previous()
	rows, err := w.svc.plans.ListWeek(ctx, prev)
	if err != nil {
		return View{}, fmt.Errorf("load previous week: %w", err)
	}
	if len(rows) == 0 {
		return View{}, ErrNoPreviousWeek
	}

	union, err := w.svc.Union(w.userID, w.scope)
	if err != nil {
		return View{}, fmt.Errorf("load previous week: %w", err)
	}
	plan, _ := w.resolveRows(rows, union)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.union = union
	w.plan.Replace(plan)
	w.markDirtyLocked(model.Days[:]...)
	return w.viewLocked(), nil
}
