package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/mealweek/internal/auth"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/store"
)

// PreferenceHandler serves per-user UI flags such as tour completion.
type PreferenceHandler struct {
	prefStore *store.PreferenceStore
	validator *validator.Validate
	logger    *slog.Logger
}

func NewPreferenceHandler(ps *store.PreferenceStore, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{prefStore: ps, validator: newValidator(), logger: logger}
}

func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.prefStore.GetAll(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to get preferences")
		return
	}
	out := make(map[string]string, len(prefs))
	for _, p := range prefs {
		out[p.Key] = p.Value
	}
	writeJSON(w, http.StatusOK, out)
}

// Set stores one key. An empty value deletes it.
func (h *PreferenceHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req model.PreferenceRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	userID := auth.UserID(r.Context())
	var err error
	if req.Value == "" {
		err = h.prefStore.Delete(userID, req.Key)
	} else {
		err = h.prefStore.Set(userID, req.Key, req.Value)
	}
	if err != nil {
		writeError(w, h.logger, err, "failed to save preference")
		return
	}
	h.Get(w, r)
}
