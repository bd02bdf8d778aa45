package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/mealweek/internal/aiplan"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/photo"
)

// AIHandler proxies single-shot model requests. A nil service answers 503.
type AIHandler struct {
	service   *aiplan.Service
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAIHandler(svc *aiplan.Service, logger *slog.Logger) *AIHandler {
	return &AIHandler{service: svc, validator: newValidator(), logger: logger}
}

func (h *AIHandler) available(w http.ResponseWriter) bool {
	if h.service == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AI helpers are not configured"})
		return false
	}
	return true
}

// Recipe drafts a dish from a free-text prompt. The draft is not saved.
func (h *AIHandler) Recipe(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	var req model.RecipeRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	draft, err := h.service.GenerateRecipe(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err, "failed to generate recipe")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// Recognize names the dish in an uploaded "image" file.
func (h *AIHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, photo.MaxSize+maxBodySize)
	file, _, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, photo.MaxSize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read image"})
		return
	}
	if len(data) > photo.MaxSize {
		writeError(w, h.logger, photo.ErrTooLarge, "")
		return
	}
	mime := mimetype.Detect(data).String()
	if !strings.HasPrefix(mime, "image/") {
		writeError(w, h.logger, photo.ErrUnsupportedType, "")
		return
	}

	rec, err := h.service.RecognizeDish(r.Context(), aiplan.Image{Data: data, MIMEType: mime})
	if err != nil {
		writeError(w, h.logger, err, "failed to recognize dish")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
