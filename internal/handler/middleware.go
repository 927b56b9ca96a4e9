package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/snake-arena/internal/domain"
)

type contextKey struct{ name string }

var userContextKey = &contextKey{"user"}

// UserFromContext returns the authenticated user set by RequireUser.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// RequireUser resolves the Authorization bearer token to a user and
// stores it on the request context. Missing, malformed or
// unresolvable tokens end the request with 401.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			h.writeDomainError(w, domain.ErrUnauthorized)
			return
		}

		user, err := h.auth.UserFromToken(r.Context(), token)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
