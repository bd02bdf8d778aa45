package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/mealweek/internal/auth"
	"github.com/dukerupert/mealweek/internal/model"
	"github.com/dukerupert/mealweek/internal/planner"
	"github.com/dukerupert/mealweek/internal/store"
)

var ErrNotAdmin = errors.New("only group admins can do that")

type GroupHandler struct {
	groupStore    *store.GroupStore
	activityStore *store.ActivityStore
	validator     *validator.Validate
	logger        *slog.Logger
}

func NewGroupHandler(gs *store.GroupStore, as *store.ActivityStore, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{
		groupStore:    gs,
		activityStore: as,
		validator:     newValidator(),
		logger:        logger,
	}
}

// requireMember parses the path group id and checks the caller belongs to it.
func requireMember(w http.ResponseWriter, r *http.Request, gs *store.GroupStore, logger *slog.Logger) (int64, bool) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid group id"})
		return 0, false
	}
	m, err := gs.GetMember(groupID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, logger, err, "failed to check membership")
		return 0, false
	}
	if m == nil {
		writeError(w, logger, planner.ErrNotMember, "")
		return 0, false
	}
	return groupID, true
}

func (h *GroupHandler) requireAdmin(w http.ResponseWriter, r *http.Request) (int64, bool) {
	groupID, ok := requireMember(w, r, h.groupStore, h.logger)
	if !ok {
		return 0, false
	}
	m, err := h.groupStore.GetMember(groupID, auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to check membership")
		return 0, false
	}
	if m == nil || m.Role != model.RoleAdmin {
		writeError(w, h.logger, ErrNotAdmin, "")
		return 0, false
	}
	return groupID, true
}

func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groupStore.ListGroupsForUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err, "failed to list groups")
		return
	}
	if groups == nil {
		groups = []model.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// Create returns the join code in plaintext. It is not retrievable later.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateGroupRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	group, code, err := h.groupStore.Create(req.Name, auth.UserID(r.Context()), req.DisplayName)
	if err != nil {
		writeError(w, h.logger, err, "failed to create group")
		return
	}
	h.logger.Info("group created", "group_id", group.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"group": group, "joinCode": code})
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req model.JoinGroupRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	member, err := h.groupStore.Join(req.Code, auth.UserID(r.Context()), req.DisplayName)
	if err != nil {
		writeError(w, h.logger, err, "failed to join group")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	groupID, ok := requireMember(w, r, h.groupStore, h.logger)
	if !ok {
		return
	}
	userID := auth.UserID(r.Context())

	members, err := h.groupStore.ListMembers(groupID)
	if err != nil {
		writeError(w, h.logger, err, "failed to leave group")
		return
	}
	if lastAdmin(members, userID) && len(members) > 1 {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "the last admin cannot leave, promote another member first"})
		return
	}

	if err := h.groupStore.RemoveMember(groupID, userID); err != nil {
		writeError(w, h.logger, err, "failed to leave group")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lastAdmin reports whether userID is the group's only admin.
func lastAdmin(members []model.GroupMember, userID string) bool {
	isAdmin, admins := false, 0
	for _, m := range members {
		if m.Role != model.RoleAdmin {
			continue
		}
		admins++
		if m.UserID == userID {
			isAdmin = true
		}
	}
	return isAdmin && admins == 1
}

func (h *GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	groupID, ok := requireMember(w, r, h.groupStore, h.logger)
	if !ok {
		return
	}
	members, err := h.groupStore.ListMembers(groupID)
	if err != nil {
		writeError(w, h.logger, err, "failed to list members")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// Activity lists the group's most recent plan changes. limit defaults to 50.
func (h *GroupHandler) Activity(w http.ResponseWriter, r *http.Request) {
	groupID, ok := requireMember(w, r, h.groupStore, h.logger)
	if !ok {
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 200"})
			return
		}
		limit = n
	}

	items, err := h.activityStore.ListRecent(groupID, limit)
	if err != nil {
		writeError(w, h.logger, err, "failed to list activity")
		return
	}
	if items == nil {
		items = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *GroupHandler) Rename(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	var req model.RenameGroupRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	group, err := h.groupStore.Update(groupID, req.Name)
	if err != nil {
		writeError(w, h.logger, err, "failed to rename group")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// Delete removes the group along with its plans, attendance and activity.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	if err := h.groupStore.Delete(groupID); err != nil {
		writeError(w, h.logger, err, "failed to delete group")
		return
	}
	h.logger.Info("group deleted", "group_id", groupID)
	w.WriteHeader(http.StatusNoContent)
}

// SetRole changes a member's role. An admin cannot demote themselves, so a
// group always keeps at least one admin.
func (h *GroupHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	groupID, ok := h.requireAdmin(w, r)
	if !ok {
		return
	}
	var req model.MemberRoleRequest
	if !bind(w, r, h.validator, &req) {
		return
	}

	userID := r.PathValue("userId")
	if userID == auth.UserID(r.Context()) && req.Role != model.RoleAdmin {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "cannot demote yourself"})
		return
	}
	m, err := h.groupStore.UpdateMemberRole(groupID, userID, req.Role)
	if err != nil {
		writeError(w, h.logger, err, "failed to update role")
		return
	}
	if m == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "member not found"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}
