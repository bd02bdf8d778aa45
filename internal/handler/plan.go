package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/mealweek/internal/aiplan"
	"github.com/dukerupert/mealweek/internal/auth"
	"github.com/dukerupert/mealweek/internal/codec"
	"github.com/dukerupert/mealweek/internal/drag"
	"github.com/dukerupert/mealweek/internal/grocery"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/planner"
	"github.com/dukerupert/mealweek/internal/websocket"
	"github.com/dukerupert/mealweek/internal/week"
)

// PlanHandler exposes the caller's workspace for one scoped week.
type PlanHandler struct {
	planner   *planner.Service
	ai        *aiplan.Service
	hub       *websocket.Hub
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewPlanHandler builds the plan API. ai may be nil, which disables
// generation.
func NewPlanHandler(ps *planner.Service, ai *aiplan.Service, hub *websocket.Hub, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		planner:   ps,
		ai:        ai,
		hub:       hub,
		validator: newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

type planResponse struct {
	planner.View
	Warning *week.DuplicateWarning `json:"warning,omitempty"`
}

func (h *PlanHandler) workspace(w http.ResponseWriter, r *http.Request) (*planner.Workspace, bool) {
	scope, err := scopeFromRequest(r, h.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	ws, err := h.planner.Workspace(r.Context(), auth.UserID(r.Context()), scope)
	if err != nil {
		writeError(w, h.logger, err, "failed to load plan")
		return nil, false
	}
	return ws, true
}

func parseDayParam(w http.ResponseWriter, r *http.Request) (model.Day, bool) {
	day, err := model.ParseDay(r.PathValue("day"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid day"})
		return "", false
	}
	return day, true
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

func (h *PlanHandler) Reload(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	view, err := ws.Load(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to reload plan")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *PlanHandler) Assign(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDayParam(w, r)
	if !ok {
		return
	}
	var req model.AssignRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	dish, err := ws.LookupDish(req.DishID, req.DishName)
	if err != nil {
		writeError(w, h.logger, err, "failed to look up dish")
		return
	}
	warning, err := ws.Assign(day, *dish, req.IsLeftover, req.LeftoverOf)
	if err != nil {
		writeError(w, h.logger, err, "failed to assign dish")
		return
	}
	writeJSON(w, http.StatusOK, planResponse{View: ws.View(), Warning: warning})
}

func (h *PlanHandler) Remove(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDayParam(w, r)
	if !ok {
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if _, err := ws.Remove(day); err != nil {
		writeError(w, h.logger, err, "failed to remove dish")
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

func (h *PlanHandler) SetNote(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDayParam(w, r)
	if !ok {
		return
	}
	var req model.NoteRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.SetNote(day, req.Notes); err != nil {
		writeError(w, h.logger, err, "failed to set note")
		return
	}
	writeJSON(w, http.StatusOK, ws.View())
}

// Swap moves a dish onto another day through the keyboard drag path. Moving
// from an empty day or onto the same day changes nothing.
func (h *PlanHandler) Swap(w http.ResponseWriter, r *http.Request) {
	var req model.SwapRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	swapped, err := drag.NewController(ws).DropOn(req.From, req.To)
	if err != nil {
		writeError(w, h.logger, err, "failed to swap days")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"swapped": swapped, "plan": ws.View()})
}

func (h *PlanHandler) Save(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	view, wrote, err := ws.Save(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to save plan")
		return
	}
	if wrote {
		h.notify(ws, "saved")
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *PlanHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	view, err := ws.Clear(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to clear plan")
		return
	}
	h.notify(ws, "cleared")
	writeJSON(w, http.StatusOK, view)
}

func (h *PlanHandler) RepeatPreviousWeek(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	view, err := ws.RepeatPreviousWeek(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "failed to copy previous week")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *PlanHandler) Export(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	data, err := codec.ExportJSON(ws.Scope(), ws.Plan(), h.now())
	if err != nil {
		writeError(w, h.logger, err, "failed to export plan")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="meal-plan-%s.json"`, ws.Scope().WeekStartDate()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import replaces the workspace with an uploaded document. Nothing is saved;
// a rejected document leaves the workspace untouched.
func (h *PlanHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}
	if len(data) > maxBodySize {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "document too large"})
		return
	}

	imp, err := codec.ImportJSON(data)
	if err != nil {
		writeError(w, h.logger, err, "failed to import plan")
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.ReplacePlan(imp.Plan)
	writeJSON(w, http.StatusOK, ws.View())
}

func (h *PlanHandler) Print(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := codec.ExportPrintable(w, ws.Scope(), ws.Plan(), h.now()); err != nil {
		h.logger.Error("failed to render printable plan", "error", err)
	}
}

// ShoppingList groups the ingredients of the week's dishes by aisle,
// including unsaved edits.
func (h *PlanHandler) ShoppingList(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, grocery.List(ws.Plan().Cells()))
}

// Generate asks the model for a week and applies it like an import. Names the
// model invents are skipped.
func (h *PlanHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.ai == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI helpers are not configured"})
		return
	}
	var req model.GenerateWeekRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	names, err := h.ai.GenerateWeek(r.Context(), req, ws.Dishes())
	if err != nil {
		writeError(w, h.logger, err, "failed to generate plan")
		return
	}

	plan := week.New()
	for _, day := range model.Days {
		name, ok := names[day]
		if !ok {
			continue
		}
		dish, err := ws.LookupDish("", name)
		if errors.Is(err, planner.ErrUnknownDish) {
			h.logger.Debug("skipping unknown generated dish", "day", day, "dish", name)
			continue
		}
		if err != nil {
			writeError(w, h.logger, err, "failed to generate plan")
			return
		}
		if _, err := plan.Assign(day, *dish, false, ""); err != nil {
			writeError(w, h.logger, err, "failed to generate plan")
			return
		}
	}
	if plan.IsEmpty() {
		writeError(w, h.logger, aiplan.ErrNoDishes, "failed to generate plan")
		return
	}

	ws.ReplacePlan(plan)
	writeJSON(w, http.StatusOK, ws.View())
}

func (h *PlanHandler) notify(ws *planner.Workspace, action string) {
	scope := ws.Scope()
	publish(h.hub, scope.Topic(), websocket.NewMessage("plan", action, scope.WeekStartDate(), map[string]any{
		"by": ws.UserID(),
	}))
}

// Topic resolves websocket subscriptions to the plan topic of the requested
// scope after checking access.
func (h *PlanHandler) Topic(r *http.Request) (string, int, error) {
	scope, err := scopeFromRequest(r, h.now())
	if err != nil {
		return "", http.StatusBadRequest, err
	}
	if err := h.planner.CheckAccess(auth.UserID(r.Context()), scope); err != nil {
		return "", statusFor(err), err
	}
	return scope.Topic(), 0, nil
}
