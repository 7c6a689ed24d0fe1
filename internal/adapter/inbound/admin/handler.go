package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/novix-hq/channelgate/internal/domain/rbac"
	"github.com/novix-hq/channelgate/internal/port/outbound"
)

// Handler serves the admin read API. Every endpoint resolves the caller's
// role from its API key, then gates the operation through the permission
// table.
type Handler struct {
	keys   []APIKey
	store  outbound.MessageStore
	logger *slog.Logger
}

// NewHandler creates the admin API handler.
func NewHandler(keys []APIKey, store outbound.MessageStore, logger *slog.Logger) *Handler {
	return &Handler{keys: keys, store: store, logger: logger}
}

// Handler returns an http.Handler with all admin routes mounted under
// /admin/api/.
func (h *Handler) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/api/conversations", h.listConversations)
	mux.HandleFunc("GET /admin/api/conversations/{id}/messages", h.listMessages)
	mux.HandleFunc("GET /admin/api/permissions", h.listPermissions)
	return h.authMiddleware(mux)
}

// require gates one request on the permission table. It writes the 403
// response itself and reports whether the caller may proceed.
func (h *Handler) require(w http.ResponseWriter, r *http.Request, action rbac.Action) bool {
	role, ok := RoleFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "missing role")
		return false
	}
	if err := rbac.Require(role, action); err != nil {
		var denied *rbac.PermissionDenied
		if errors.As(err, &denied) {
			h.logger.Warn("admin request denied",
				"role", denied.Role.String(), "action", denied.Action.String())
		}
		h.respondError(w, http.StatusForbidden, err.Error())
		return false
	}
	return true
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, rbac.ActionConversationsRead) {
		return
	}

	limit := queryLimit(r, 50)
	convs, err := h.store.ListConversations(r.Context(), limit)
	if err != nil {
		h.logger.Error("list conversations failed", "error", err)
		h.respondError(w, http.StatusInternalServerError, "storage error")
		return
	}

	type conversationView struct {
		ID            string `json:"id"`
		Channel       string `json:"channel"`
		ContactName   string `json:"contactName"`
		ContactKey    string `json:"contactKey"`
		LastMessageAt string `json:"lastMessageAt"`
	}
	views := make([]conversationView, 0, len(convs))
	for _, c := range convs {
		views = append(views, conversationView{
			ID:            c.ID,
			Channel:       c.Channel.String(),
			ContactName:   c.ContactName,
			ContactKey:    c.ContactKey,
			LastMessageAt: c.LastMessageAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"conversations": views})
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, rbac.ActionConversationsRead) {
		return
	}

	conversationID := r.PathValue("id")
	limit := queryLimit(r, 100)
	msgs, err := h.store.ListMessages(r.Context(), conversationID, limit)
	if err != nil {
		h.logger.Error("list messages failed", "conversation_id", conversationID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "storage error")
		return
	}

	type messageView struct {
		ID          string `json:"id"`
		ExternalID  string `json:"externalId"`
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
		MediaURL    string `json:"mediaUrl,omitempty"`
		ReceivedAt  string `json:"receivedAt"`
	}
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, messageView{
			ID:          m.ID,
			ExternalID:  m.ExternalID,
			ContentType: m.ContentType.String(),
			Content:     m.Content,
			MediaURL:    m.MediaURL,
			ReceivedAt:  m.ReceivedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"messages": views})
}

// listPermissions returns the caller's own allow-set, for UI feature gating.
func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	if !h.require(w, r, rbac.ActionUsersRead) {
		return
	}

	role, _ := RoleFromContext(r.Context())
	set := rbac.Permissions(role)
	actions := make([]string, 0, len(set))
	for a := range set {
		actions = append(actions, a.String())
	}
	sort.Strings(actions)

	h.respondJSON(w, http.StatusOK, map[string]any{
		"role":        role.String(),
		"permissions": actions,
	})
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}
