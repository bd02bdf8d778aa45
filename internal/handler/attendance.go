package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/mealweek/internal/attendance"
	"github.com/dukerupert/mealweek/internal/auth"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/store"
	"github.com/dukerupert/mealweek/internal/websocket"
)

type AttendanceHandler struct {
	service    *attendance.Service
	groupStore *store.GroupStore
	hub        *websocket.Hub
	validator  *validator.Validate
	logger     *slog.Logger
	now        func() time.Time
}

func NewAttendanceHandler(svc *attendance.Service, gs *store.GroupStore, hub *websocket.Hub, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service:    svc,
		groupStore: gs,
		hub:        hub,
		validator:  newValidator(),
		logger:     logger,
		now:        time.Now,
	}
}

// List returns one day when ?day= is given, otherwise the whole week.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, ok := requireMember(w, r, h.groupStore, h.logger)
	if !ok {
		return
	}

	q := r.URL.Query()
	weekStart := model.MondayOf(h.now())
	if s := q.Get("week"); s != "" {
		t, err := model.ParseWeek(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week"})
			return
		}
		weekStart = t
	}

	if s := q.Get("day"); s != "" {
		day, err := model.ParseDay(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid day"})
			return
		}
		d, err := h.service.List(groupID, day, weekStart)
		if err != nil {
			writeError(w, h.logger, err, "failed to list attendance")
			return
		}
		writeJSON(w, http.StatusOK, d)
		return
	}

	days, err := h.service.Week(groupID, weekStart)
	if err != nil {
		writeError(w, h.logger, err, "failed to list attendance")
		return
	}
	writeJSON(w, http.StatusOK, days)
}

// Set records the caller's own status.
func (h *AttendanceHandler) Set(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return
	}
	var req model.AttendanceRequest
	if !bind(w, r, h.validator, &req) {
		return
	}
	weekStart, err := model.ParseWeek(req.WeekStart)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid week"})
		return
	}

	rec, err := h.service.SetStatus(groupID, auth.UserID(r.Context()), req.Day, weekStart, req.Status)
	if err != nil {
		writeError(w, h.logger, err, "failed to set attendance")
		return
	}

	scope := model.GroupScope(weekStart, groupID)
	publish(h.hub, scope.Topic(), websocket.NewMessage("attendance", "updated", string(rec.Day), map[string]any{
		"userId": rec.UserID,
		"status": rec.Status,
	}))
	writeJSON(w, http.StatusOK, rec)
}
