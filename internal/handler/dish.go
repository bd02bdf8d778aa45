package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/mealweek/internal/auth"
	"github.com/dukerupert/mealweek/internal/catalog"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/photo"
	"github.com/dukerupert/mealweek/internal/planner"
	"github.com/dukerupert/mealweek/internal/store"
)

type DishHandler struct {
	dishStore *store.DishStore
	catalog   *catalog.Catalog
	planner   *planner.Service
	photos    *photo.Store
	validator *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

func NewDishHandler(ds *store.DishStore, cat *catalog.Catalog, ps *planner.Service, photos *photo.Store, logger *slog.Logger) *DishHandler {
	return &DishHandler{
		dishStore: ds,
		catalog:   cat,
		planner:   ps,
		photos:    photos,
		validator: newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

// union returns the dishes visible in the requested scope: the catalog plus
// the caller's dishes, or every member's dishes with group_id.
func (h *DishHandler) union(w http.ResponseWriter, r *http.Request) ([]model.Dish, bool) {
	scope, err := scopeFromRequest(r, h.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return nil, false
	}
	userID := auth.UserID(r.Context())
	if err := h.planner.CheckAccess(userID, scope); err != nil {
		writeError(w, h.logger, err, "failed to check access")
		return nil, false
	}
	u, err := h.planner.Union(userID, scope)
	if err != nil {
		writeError(w, h.logger, err, "failed to list dishes")
		return nil, false
	}
	return u.All(), true
}

func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	dishes, ok := h.union(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := catalog.Filter{
		Search:      q.Get("q"),
		Ingredients: q["ingredient"],
		CookingTime: model.CookingTime(q.Get("cooking_time")),
		Cuisine:     q.Get("cuisine"),
	}
	writeJSON(w, http.StatusOK, f.Apply(dishes))
}

func (h *DishHandler) Ingredients(w http.ResponseWriter, r *http.Request) {
	dishes, ok := h.union(w, r)
	if !ok {
		return
	}
	ingredients := catalog.Ingredients(dishes)
	if ingredients == nil {
		ingredients = []string{}
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func (h *DishHandler) DishOfTheDay(w http.ResponseWriter, r *http.Request) {
	dish, ok := catalog.DishOfTheDay(h.catalog.All(), h.now())
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no dishes"})
		return
	}
	writeJSON(w, http.StatusOK, dish)
}

func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.DishRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	dish, err := h.dishStore.Create(auth.UserID(r.Context()), req.Dish())
	if err != nil {
		writeError(w, h.logger, err, "failed to create dish")
		return
	}
	writeJSON(w, http.StatusCreated, dish)
}

// owned loads the path dish and checks the caller owns it. Other users'
// dishes are reported as missing.
func (h *DishHandler) owned(w http.ResponseWriter, r *http.Request) (*model.UserDish, bool) {
	dish, err := h.dishStore.GetByID(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err, "failed to get dish")
		return nil, false
	}
	if dish == nil || dish.OwnerID != auth.UserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "dish not found"})
		return nil, false
	}
	return dish, true
}

func (h *DishHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.owned(w, r)
	if !ok {
		return
	}
	var req model.DishRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	dish, err := h.dishStore.Update(existing.ID, req.Dish())
	if err != nil {
		writeError(w, h.logger, err, "failed to update dish")
		return
	}
	writeJSON(w, http.StatusOK, dish)
}

// Delete removes the dish. Plans that reference it keep their snapshot and
// show it as unavailable on the next load.
func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.dishStore.Delete(existing.ID); err != nil {
		writeError(w, h.logger, err, "failed to delete dish")
		return
	}
	if err := h.photos.Delete(r.Context(), existing.ImageURL); err != nil {
		h.logger.Warn("failed to delete dish photo", "dish_id", existing.ID, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto accepts a multipart form with a "photo" file and replaces the
// dish image.
func (h *DishHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if !h.photos.Enabled() {
		writeError(w, h.logger, photo.ErrDisabled, "photo storage is not configured")
		return
	}
	existing, ok := h.owned(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, photo.MaxSize+maxBodySize)
	file, _, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "photo file is required"})
		return
	}
	defer file.Close()

	url, err := h.photos.Upload(r.Context(), existing.ID, file)
	if err != nil {
		writeError(w, h.logger, err, "failed to upload photo")
		return
	}
	dish, err := h.dishStore.SetImageURL(existing.ID, url)
	if err != nil {
		writeError(w, h.logger, err, "failed to update dish")
		return
	}
	if err := h.photos.Delete(r.Context(), existing.ImageURL); err != nil {
		h.logger.Warn("failed to delete old dish photo", "dish_id", existing.ID, "error", err)
	}
	writeJSON(w, http.StatusOK, dish)
}
