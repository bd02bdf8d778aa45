// Package tui is a terminal week view over the mealweek API. Days can be
// rearranged from the keyboard: space picks a dish up, the arrows move it and
// enter drops it on the focused day.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dukerupert/mealweek/internal/client"
	"github.com/dukerupert/mealweek/internal/drag"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/websocket"
)

// API is the subset of the HTTP client the view uses.
type API interface {
	GetPlan(ctx context.Context, s client.Scope) (*client.Plan, error)
	Reload(ctx context.Context, s client.Scope) (*client.Plan, error)
	Assign(ctx context.Context, s client.Scope, day model.Day, req model.AssignRequest) (*client.Plan, error)
	Remove(ctx context.Context, s client.Scope, day model.Day) (*client.Plan, error)
	SetNote(ctx context.Context, s client.Scope, day model.Day, notes string) (*client.Plan, error)
	Swap(ctx context.Context, s client.Scope, from, to model.Day) (*client.Plan, bool, error)
	Save(ctx context.Context, s client.Scope) (*client.Plan, error)
	Clear(ctx context.Context, s client.Scope) (*client.Plan, error)
	RepeatPreviousWeek(ctx context.Context, s client.Scope) (*client.Plan, error)
}

// Feed is implemented by APIs that push change notifications. Without it the
// view only changes on its own requests.
type Feed interface {
	Subscribe(ctx context.Context, s client.Scope) (<-chan websocket.Message, error)
}

type subscribedMsg struct {
	week   string
	events <-chan websocket.Message
	cancel context.CancelFunc
}

type remoteMsg struct {
	week   string
	msg    websocket.Message
	events <-chan websocket.Message
}

type feedClosedMsg struct {
	week string
}

type planMsg struct {
	seq  int
	plan *client.Plan
	info string
}

type errMsg struct {
	seq int
	err error
}

type inputMode int

const (
	inputNone inputMode = iota
	inputAssign
	inputNote
)

// board mirrors the server plan so a drop shows immediately. The server
// response replaces it.
type board struct {
	meals map[model.Day]model.MealCell
}

func (b *board) HasDish(day model.Day) bool {
	return b.meals[day].Dish != nil
}

func (b *board) Swap(a, c model.Day) error {
	b.meals[a], b.meals[c] = b.meals[c], b.meals[a]
	return nil
}

type Model struct {
	api   API
	scope client.Scope

	plan  *client.Plan
	board *board
	drag  *drag.Controller

	// seq numbers requests; only the newest response is applied.
	seq int

	stopFeed context.CancelFunc

	input     textinput.Model
	inputMode inputMode

	keys     KeyMap
	showHelp bool
	loading  bool
	info     string
	err      string
	width    int
}

// New builds the view for scope. An empty week means the current one.
func New(api API, scope client.Scope) Model {
	if scope.Week == "" {
		scope.Week = model.FormatDate(model.MondayOf(time.Now()))
	} else if start, err := model.ParseWeek(scope.Week); err == nil {
		scope.Week = model.FormatDate(start)
	}
	b := &board{meals: make(map[model.Day]model.MealCell)}

	input := textinput.New()
	input.CharLimit = 500
	input.Width = 40

	return Model{
		api:   api,
		scope: scope,
		board: b,
		drag:  drag.NewController(b),
		input: input,
		keys:  DefaultKeyMap(),
	}
}

// Init loads the week. It runs under request number zero, so any key that
// starts a newer request supersedes it.
func (m Model) Init() tea.Cmd {
	load := m.call(m.seq, func(ctx context.Context) (*client.Plan, string, error) {
		p, err := m.api.GetPlan(ctx, m.scope)
		return p, "", err
	})
	return m.withFeed(load)
}

// withFeed adds a feed subscription for the current week to cmd.
func (m Model) withFeed(cmd tea.Cmd) tea.Cmd {
	if sub := m.subscribe(); sub != nil {
		return tea.Batch(cmd, sub)
	}
	return cmd
}

// subscribe opens the change feed for the current week. Failing to subscribe
// is not an error; the view just stops updating on its own.
func (m Model) subscribe() tea.Cmd {
	feed, ok := m.api.(Feed)
	if !ok {
		return nil
	}
	scope := m.scope
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		events, err := feed.Subscribe(ctx, scope)
		if err != nil {
			cancel()
			return nil
		}
		return subscribedMsg{week: scope.Week, events: events, cancel: cancel}
	}
}

func listen(week string, events <-chan websocket.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return feedClosedMsg{week: week}
		}
		return remoteMsg{week: week, msg: msg, events: events}
	}
}

// send numbers a new call. Responses to older requests are dropped when
// they arrive.
func (m Model) send(fn func(ctx context.Context) (*client.Plan, string, error)) (tea.Model, tea.Cmd) {
	m.seq++
	m.loading = true
	return m, m.call(m.seq, fn)
}

func (m Model) call(seq int, fn func(ctx context.Context) (*client.Plan, string, error)) tea.Cmd {
	return func() tea.Msg {
		p, info, err := fn(context.Background())
		if err != nil {
			return errMsg{seq: seq, err: err}
		}
		return planMsg{seq: seq, plan: p, info: info}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case planMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		m.err = ""
		m.setPlan(msg.plan)
		m.info = msg.info
		if msg.plan.Warning != nil {
			m.info = duplicateInfo(msg.plan.Warning.DishName, msg.plan.Warning.Days)
		}
		return m, nil

	case errMsg:
		if msg.seq == m.seq {
			m.loading = false
			// Undo an optimistic swap.
			if m.plan != nil {
				m.setPlan(m.plan)
			}
		}
		m.info = ""
		m.err = describeError(msg.err)
		return m, nil

	case subscribedMsg:
		if msg.week != m.scope.Week {
			msg.cancel()
			return m, nil
		}
		if m.stopFeed != nil {
			m.stopFeed()
		}
		m.stopFeed = msg.cancel
		return m, listen(msg.week, msg.events)

	case remoteMsg:
		if msg.week != m.scope.Week {
			return m, nil
		}
		return m.remoteChange(msg)

	case feedClosedMsg:
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.inputMode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateNav(msg)
	}

	if m.inputMode != inputNone {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setPlan(p *client.Plan) {
	m.plan = p
	meals := make(map[model.Day]model.MealCell, len(p.Meals))
	for day, cell := range p.Meals {
		meals[day] = cell
	}
	m.board.meals = meals
	if m.drag.State() != drag.Idle && !m.board.HasDish(m.drag.Source()) {
		m.drag.Cancel()
	}
}

func (m Model) updateNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.info = ""
	focus := m.drag.Focus()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.drag.MoveFocus(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.drag.MoveFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.drag.Cancel()
		m.err = ""
		return m, nil

	case key.Matches(msg, m.keys.Pick):
		if m.drag.State() == drag.Picked {
			m.drag.Cancel()
			return m, nil
		}
		if !m.drag.Pick(focus) {
			m.info = fmt.Sprintf("Nothing planned on %s", focus)
		}
		return m, nil

	case key.Matches(msg, m.keys.Drop):
		if m.drag.State() != drag.Picked {
			return m, nil
		}
		from := m.drag.Source()
		swapped, err := m.drag.Drop()
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		if !swapped {
			return m, nil
		}
		return m.send(func(ctx context.Context) (*client.Plan, string, error) {
			p, _, err := m.api.Swap(ctx, m.scope, from, focus)
			return p, fmt.Sprintf("Moved %s to %s", from, focus), err
		})

	case key.Matches(msg, m.keys.Assign):
		return m.openInput(inputAssign, "Dish name", "")

	case key.Matches(msg, m.keys.Note):
		if !m.board.HasDish(focus) {
			m.info = fmt.Sprintf("Nothing planned on %s", focus)
			return m, nil
		}
		return m.openInput(inputNote, "Note", m.board.meals[focus].Notes)

	case key.Matches(msg, m.keys.Remove):
		return m.send(func(ctx context.Context) (*client.Plan, string, error) {
			p, err := m.api.Remove(ctx, m.scope, focus)
			return p, "", err
		})

	case key.Matches(msg, m.keys.Save):
		return m.send(func(ctx context.Context) (*client.Plan, string, error) {
			p, err := m.api.Save(ctx, m.scope)
			return p, "Saved", err
		})

	case key.Matches(msg, m.keys.Reload):
		m.drag.Cancel()
		return m.send(func(ctx context.Context) (*client.Plan, string, error) {
			p, err := m.api.Reload(ctx, m.scope)
			return p, "Reloaded", err
		})

	case key.Matches(msg, m.keys.Repeat):
		return m.send(func(ctx context.Context) (*client.Plan, string, error) {
			p, err := m.api.RepeatPreviousWeek(ctx, m.scope)
			return p, "Copied last week (not saved)", err
		})

	case key.Matches(msg, m.keys.Clear):
		return m.send(func(ctx context.Context) (*client.Plan, string, error) {
			p, err := m.api.Clear(ctx, m.scope)
			return p, "Week cleared", err
		})

	case key.Matches(msg, m.keys.PrevWeek), key.Matches(msg, m.keys.NextWeek):
		delta := 7
		if key.Matches(msg, m.keys.PrevWeek) {
			delta = -7
		}
		start, err := model.ParseWeek(m.scope.Week)
		if err != nil {
			m.err = err.Error()
			return m, nil
		}
		m.scope.Week = model.FormatDate(start.AddDate(0, 0, delta))
		m.drag.Cancel()
		if m.stopFeed != nil {
			m.stopFeed()
			m.stopFeed = nil
		}
		next, load := m.send(func(ctx context.Context) (*client.Plan, string, error) {
			p, err := m.api.GetPlan(ctx, m.scope)
			return p, "", err
		})
		return next, m.withFeed(load)
	}
	return m, nil
}

// remoteChange reloads a clean, idle view when someone else saved the week.
// Local edits are never thrown away; the user is told to reload instead.
// While a request is in flight the notice is most likely our own save.
func (m Model) remoteChange(msg remoteMsg) (tea.Model, tea.Cmd) {
	next := listen(msg.week, msg.events)
	if msg.msg.Entity != "plan" || m.loading {
		return m, next
	}
	if m.plan == nil || len(m.plan.Dirty) > 0 || m.drag.State() != drag.Idle || m.inputMode != inputNone {
		m.info = "Plan changed elsewhere, press r to reload"
		return m, next
	}
	info := m.info
	updated, reload := m.send(func(ctx context.Context) (*client.Plan, string, error) {
		p, err := m.api.Reload(ctx, m.scope)
		return p, info, err
	})
	return updated, tea.Batch(next, reload)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.stopFeed != nil {
		m.stopFeed()
	}
	return m, tea.Quit
}

func (m Model) openInput(mode inputMode, prompt, value string) (tea.Model, tea.Cmd) {
	m.inputMode = mode
	m.input.Prompt = prompt + ": "
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputMode = inputNone
		m.input.Blur()
		return m, nil

	case "enter":
		mode := m.inputMode
		value := strings.TrimSpace(m.input.Value())
		day := m.drag.Focus()
		m.inputMode = inputNone
		m.input.Blur()

		if mode == inputAssign {
			if value == "" {
				return m, nil
			}
			return m.send(func(ctx context.Context) (*client.Plan, string, error) {
				p, err := m.api.Assign(ctx, m.scope, day, model.AssignRequest{DishName: value})
				return p, "", err
			})
		}
		return m.send(func(ctx context.Context) (*client.Plan, string, error) {
			p, err := m.api.SetNote(ctx, m.scope, day, value)
			return p, "", err
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func duplicateInfo(name string, days []model.Day) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = string(d)
	}
	return fmt.Sprintf("%s is also planned on %s", name, strings.Join(names, ", "))
}

func describeError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && errors.Is(err, client.ErrConflict) {
		return apiErr.Error() + ", press r to reload"
	}
	return err.Error()
}
