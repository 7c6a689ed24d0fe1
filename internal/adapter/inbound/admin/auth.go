// Package admin provides the role-gated read API for shop operators and the
// Novix platform layer: conversation and message listings plus permission
// introspection.
package admin

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/novix-hq/channelgate/internal/ctxkey"
	"github.com/novix-hq/channelgate/internal/domain/rbac"
)

// APIKey is one configured admin credential: a hashed key bound to a role.
// Hash formats: "sha256:<hex>" or an argon2id PHC string ("$argon2id$...").
type APIKey struct {
	Name string
	Hash string
	Role rbac.Role
}

// roleKey is the context key for the authenticated caller's role.
var roleKey = ctxkey.RoleKey{}

// RoleFromContext returns the authenticated role, if any.
func RoleFromContext(ctx context.Context) (rbac.Role, bool) {
	role, ok := ctx.Value(roleKey).(rbac.Role)
	return role, ok
}

// authMiddleware resolves the caller's role from the presented API key.
// Keys arrive as "Authorization: Bearer <key>" or in X-Admin-Key. A missing
// or unknown key is 401; authorization per endpoint happens later against
// the permission table.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := bearerToken(r)
		if key == "" {
			key = r.Header.Get("X-Admin-Key")
		}
		if key == "" {
			h.respondError(w, http.StatusUnauthorized, "missing API key")
			return
		}

		role, ok := h.resolveRole(key)
		if !ok {
			h.respondError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		ctx := context.WithValue(r.Context(), roleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// resolveRole matches the presented key against every configured hash.
// All keys are checked so timing does not reveal which name matched.
func (h *Handler) resolveRole(key string) (rbac.Role, bool) {
	var (
		matched rbac.Role
		found   bool
	)
	for _, k := range h.keys {
		if verifyKey(key, k.Hash) && !found {
			matched = k.Role
			found = true
		}
	}
	return matched, found
}

// verifyKey checks one presented key against one stored hash.
func verifyKey(key, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "sha256:"):
		sum := sha256.Sum256([]byte(key))
		stored := strings.TrimPrefix(hash, "sha256:")
		return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(stored)) == 1
	case strings.HasPrefix(hash, "$argon2id$"):
		match, err := argon2id.ComparePasswordAndHash(key, hash)
		return err == nil && match
	default:
		return false
	}
}
