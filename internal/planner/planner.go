// Package planner keeps one editable week per viewer and scope and
// reconciles it with the meal plan store.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dukerupert/mealweek/internal/catalog"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/store"
)

var (
	ErrConflict       = errors.New("plan was changed by someone else")
	ErrNoPreviousWeek = errors.New("previous week has no meals")
	ErrSuperseded     = errors.New("load superseded by a newer load")
	ErrNotMember      = errors.New("not a member of this group")
	ErrUnknownDish    = errors.New("unknown dish")
)

// PlanStore persists scoped weeks.
type PlanStore interface {
	ListWeek(ctx context.Context, scope model.WeekScope) ([]model.MealPlanRow, error)
	ApplyCells(ctx context.Context, scope model.WeekScope, actor string, writes []store.CellWrite) (int64, error)
	DeleteWeek(ctx context.Context, scope model.WeekScope, actor string) (int64, error)
}

type DishSource interface {
	ListByOwners(ownerIDs ...string) ([]model.UserDish, error)
}

type MemberSource interface {
	GetMember(groupID int64, userID string) (*model.GroupMember, error)
	ListMembers(groupID int64) ([]model.GroupMember, error)
}

type ActivityLog interface {
	Append(a model.Activity) (*model.Activity, error)
}

type Config struct {
	CacheSize int
	CacheTTL  time.Duration
}

// Service hands out workspaces. Each (user, scope) pair gets its own
// workspace so unsaved edits are never shared between viewers.
type Service struct {
	catalog  *catalog.Catalog
	plans    PlanStore
	dishes   DishSource
	members  MemberSource
	activity ActivityLog
	logger   *slog.Logger

	cache *expirable.LRU[string, *Workspace]
}

func NewService(cat *catalog.Catalog, plans PlanStore, dishes DishSource, members MemberSource, activity ActivityLog, cfg Config, logger *slog.Logger) *Service {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Hour
	}
	return &Service{
		catalog:  cat,
		plans:    plans,
		dishes:   dishes,
		members:  members,
		activity: activity,
		logger:   logger.With("component", "planner"),
		cache:    expirable.NewLRU[string, *Workspace](cfg.CacheSize, nil, cfg.CacheTTL),
	}
}

func cacheKey(userID string, scope model.WeekScope) string {
	return userID + "|" + scope.Topic()
}

// CheckAccess fails with ErrNotMember when a group scope is opened by a
// non-member. Personal scopes are only ever built from the caller's own id.
func (s *Service) CheckAccess(userID string, scope model.WeekScope) error {
	if !scope.IsGroup() {
		if scope.OwnerID != userID {
			return ErrNotMember
		}
		return nil
	}
	m, err := s.members.GetMember(scope.GroupID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if m == nil {
		return ErrNotMember
	}
	return nil
}

// Workspace returns the caller's workspace for scope, loading it on first use.
func (s *Service) Workspace(ctx context.Context, userID string, scope model.WeekScope) (*Workspace, error) {
	if err := s.CheckAccess(userID, scope); err != nil {
		return nil, err
	}

	key := cacheKey(userID, scope)
	if ws, ok := s.cache.Get(key); ok {
		return ws, nil
	}

	ws := newWorkspace(s, userID, scope)
	if _, err := ws.Load(ctx); err != nil {
		return nil, err
	}
	s.cache.Add(key, ws)
	return ws, nil
}

// Forget drops a cached workspace, discarding unsaved edits.
func (s *Service) Forget(userID string, scope model.WeekScope) {
	s.cache.Remove(cacheKey(userID, scope))
}

// Union returns the dishes a scope resolves against: the catalog plus the
// user's own dishes, or every member's dishes in a group.
func (s *Service) Union(userID string, scope model.WeekScope) (*catalog.Union, error) {
	owners := []string{userID}
	if scope.IsGroup() {
		members, err := s.members.ListMembers(scope.GroupID)
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		owners = owners[:0]
		for _, m := range members {
			owners = append(owners, m.UserID)
		}
	}

	userDishes, err := s.dishes.ListByOwners(owners...)
	if err != nil {
		return nil, fmt.Errorf("list user dishes: %w", err)
	}
	dishes := make([]model.Dish, len(userDishes))
	for i, d := range userDishes {
		dishes[i] = d.Dish
	}
	return s.catalog.Union(dishes), nil
}

func (s *Service) logActivity(scope model.WeekScope, userID, action string, day model.Day, dishName string) {
	if !scope.IsGroup() || s.activity == nil {
		return
	}
	_, err := s.activity.Append(model.Activity{
		GroupID:   scope.GroupID,
		UserID:    userID,
		Action:    action,
		Day:       day,
		WeekStart: scope.WeekStartDate(),
		DishName:  dishName,
	})
	if err != nil {
		s.logger.Warn("failed to record activity", "action", action, "group_id", scope.GroupID, "error", err)
	}
}
