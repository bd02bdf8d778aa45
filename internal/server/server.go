package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/mealweek/internal/aiplan"
	"github.com/dukerupert/mealweek/internal/attendance"
	"github.com/dukerupert/mealweek/internal/auth"
	"github.com/dukerupert/mealweek/internal/catalog"
	"github.com/dukerupert/mealweek/internal/database"
	"github.com/dukerupert/mealweek/internal/handler"
	"github.com/dukerupert/mealweek/internal/middleware"
	"github.com/dukerupert/mealweek/internal/photo"
	"github.com/dukerupert/mealweek/internal/planner"
	"github.com/dukerupert/mealweek/internal/store"
	ws "github.com/dukerupert/mealweek/internal/websocket"
)

// Per-user budget for the model-backed routes.
const (
	aiRateLimit  = 10
	aiRateWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	verifier    *auth.Verifier
	dishH       *handler.DishHandler
	planH       *handler.PlanHandler
	groupH      *handler.GroupHandler
	attendanceH *handler.AttendanceHandler
	preferenceH *handler.PreferenceHandler
	aiH         *handler.AIHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// Options carries the optional collaborators. A nil AI service disables the
// AI routes; a disabled photo store rejects uploads.
type Options struct {
	Catalog  *catalog.Catalog
	Verifier *auth.Verifier
	Photos   *photo.Store
	AI       *aiplan.Service
	Planner  planner.Config
}

func New(db *sql.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	groupStore := store.NewGroupStore(db)
	dishStore := store.NewDishStore(db)
	mealPlanStore := store.NewMealPlanStore(db)
	activityStore := store.NewActivityStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	preferenceStore := store.NewPreferenceStore(db)

	plannerSvc := planner.NewService(opts.Catalog, mealPlanStore, dishStore, groupStore, activityStore, opts.Planner, logger)
	attendanceSvc := attendance.NewService(attendanceStore, groupStore)

	photos := opts.Photos
	if photos == nil {
		photos = photo.New(photo.Config{})
	}

	return &Server{
		db:          db,
		hub:         hub,
		verifier:    opts.Verifier,
		dishH:       handler.NewDishHandler(dishStore, opts.Catalog, plannerSvc, photos, logger.With("component", "dish")),
		planH:       handler.NewPlanHandler(plannerSvc, opts.AI, hub, logger.With("component", "plan")),
		groupH:      handler.NewGroupHandler(groupStore, activityStore, logger.With("component", "group")),
		attendanceH: handler.NewAttendanceHandler(attendanceSvc, groupStore, hub, logger.With("component", "attendance")),
		preferenceH: handler.NewPreferenceHandler(preferenceStore, logger.With("component", "preference")),
		aiH:         handler.NewAIHandler(opts.AI, logger.With("component", "ai")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.verifier)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	version, err := database.SchemaVersion(r.Context(), s.db)
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status":          "ok",
		"schemaVersion":   version,
		"realtimeClients": s.hub.ClientCount(""),
	})
}

func (s *Server) aiLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, "ai", middleware.UserKey, aiRateLimit, aiRateWindow)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Dishes
	mux.HandleFunc("GET /api/dishes", s.dishH.List)
	mux.HandleFunc("POST /api/dishes", s.dishH.Create)
	mux.HandleFunc("PUT /api/dishes/{id}", s.dishH.Update)
	mux.HandleFunc("DELETE /api/dishes/{id}", s.dishH.Delete)
	mux.HandleFunc("POST /api/dishes/{id}/photo", s.dishH.UploadPhoto)
	mux.HandleFunc("GET /api/ingredients", s.dishH.Ingredients)
	mux.HandleFunc("GET /api/dish-of-the-day", s.dishH.DishOfTheDay)

	// Weekly plan
	mux.HandleFunc("GET /api/plan", s.planH.Get)
	mux.HandleFunc("POST /api/plan/reload", s.planH.Reload)
	mux.HandleFunc("PUT /api/plan/days/{day}", s.planH.Assign)
	mux.HandleFunc("DELETE /api/plan/days/{day}", s.planH.Remove)
	mux.HandleFunc("PUT /api/plan/days/{day}/note", s.planH.SetNote)
	mux.HandleFunc("POST /api/plan/swap", s.planH.Swap)
	mux.HandleFunc("POST /api/plan/save", s.planH.Save)
	mux.HandleFunc("DELETE /api/plan", s.planH.Clear)
	mux.HandleFunc("POST /api/plan/repeat-previous", s.planH.RepeatPreviousWeek)
	mux.HandleFunc("GET /api/plan/export", s.planH.Export)
	mux.HandleFunc("POST /api/plan/import", s.planH.Import)
	mux.HandleFunc("GET /api/plan/print", s.planH.Print)
	mux.HandleFunc("GET /api/plan/shopping-list", s.planH.ShoppingList)
	mux.Handle("POST /api/plan/generate", s.aiLimited(s.planH.Generate))

	// AI helpers
	mux.Handle("POST /api/ai/recipe", s.aiLimited(s.aiH.Recipe))
	mux.Handle("POST /api/ai/recognize", s.aiLimited(s.aiH.Recognize))

	// Groups
	mux.HandleFunc("GET /api/groups", s.groupH.List)
	mux.HandleFunc("POST /api/groups", s.groupH.Create)
	mux.HandleFunc("POST /api/groups/join", s.groupH.Join)
	mux.HandleFunc("PATCH /api/groups/{id}", s.groupH.Rename)
	mux.HandleFunc("DELETE /api/groups/{id}", s.groupH.Delete)
	mux.HandleFunc("GET /api/groups/{id}/members", s.groupH.Members)
	mux.HandleFunc("PUT /api/groups/{id}/members/{userId}/role", s.groupH.SetRole)
	mux.HandleFunc("DELETE /api/groups/{id}/members/me", s.groupH.Leave)
	mux.HandleFunc("GET /api/groups/{id}/activity", s.groupH.Activity)
	mux.HandleFunc("GET /api/groups/{id}/attendance", s.attendanceH.List)
	mux.HandleFunc("PUT /api/groups/{id}/attendance", s.attendanceH.Set)

	// Preferences
	mux.HandleFunc("GET /api/preferences", s.preferenceH.Get)
	mux.HandleFunc("PUT /api/preferences", s.preferenceH.Set)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.planH.Topic, s.logger))
}
