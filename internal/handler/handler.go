package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/mealweek/internal/aiplan"
	"github.com/dukerupert/mealweek/internal/attendance"
	"github.com/dukerupert/mealweek/internal/auth"
	"github.com/dukerupert/mealweek/internal/codec"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/photo"
	"github.com/dukerupert/mealweek/internal/planner"
	"github.com/dukerupert/mealweek/internal/store"
	"github.com/dukerupert/mealweek/internal/websocket"
	"github.com/dukerupert/mealweek/internal/week"
)

const maxBodySize = 1 << 20

var errInvalidJSON = errors.New("invalid JSON")

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the JSON body into req and validates it. On failure it writes
// a 400 response and returns false.
func bind(w http.ResponseWriter, r *http.Request, v *validator.Validate, req any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errInvalidJSON.Error()})
		return false
	}
	if err := v.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, week.ErrInvalidDay),
		errors.Is(err, codec.ErrMalformed),
		errors.Is(err, attendance.ErrInvalidStatus),
		errors.Is(err, store.ErrInvalidJoinCode):
		return http.StatusBadRequest
	case errors.Is(err, planner.ErrNotMember),
		errors.Is(err, attendance.ErrNotMember),
		errors.Is(err, ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, planner.ErrNoPreviousWeek):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrConflict),
		errors.Is(err, planner.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, photo.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, photo.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, week.ErrEmptyDay),
		errors.Is(err, planner.ErrUnknownDish),
		errors.Is(err, codec.ErrEmptyImport),
		errors.Is(err, codec.ErrUnsupportedVersion),
		errors.Is(err, aiplan.ErrNoDishes),
		errors.Is(err, aiplan.ErrNotRecognized):
		return http.StatusUnprocessableEntity
	case errors.Is(err, aiplan.ErrNoJSON):
		return http.StatusBadGateway
	case errors.Is(err, photo.ErrDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError responds with the status err maps to. Server errors are logged
// and their detail hidden behind msg.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error, msg string) {
	status := statusFor(err)
	if status >= 500 {
		logger.Error(msg, "error", err)
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}

	body := map[string]any{"error": err.Error()}
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		body["days"] = conflict.Days
	}
	writeJSON(w, status, body)
}

// scopeFromRequest builds the week scope from the week and group_id query
// parameters. A missing week means the current one.
func scopeFromRequest(r *http.Request, now time.Time) (model.WeekScope, error) {
	q := r.URL.Query()
	weekStart := model.MondayOf(now)
	if s := q.Get("week"); s != "" {
		t, err := model.ParseWeek(s)
		if err != nil {
			return model.WeekScope{}, fmt.Errorf("invalid week: %w", err)
		}
		weekStart = t
	}

	if s := q.Get("group_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			return model.WeekScope{}, errors.New("invalid group_id")
		}
		return model.GroupScope(weekStart, id), nil
	}
	return model.PersonalScope(weekStart, auth.UserID(r.Context())), nil
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// publish is a nil-safe Hub.Publish.
func publish(hub *websocket.Hub, topic string, msg websocket.Message) {
	if hub != nil {
		hub.Publish(topic, msg)
	}
}
