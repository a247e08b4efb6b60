package auth

import (
	"context"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/backend-starter/api/internal/utils"
)

type ctxKey string

const ctxUserID ctxKey = "userID"

// ContextWithUserID stores the authenticated user id on the context.
func ContextWithUserID(ctx context.Context, id uint) context.Context {
	return context.WithValue(ctx, ctxUserID, id)
}

// UserIDFromContext returns the authenticated user id stored by
// Middleware.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(ctxUserID).(uint)
	return id, ok
}

// Middleware verifies the bearer token and resolves its subject to a
// live account before the wrapped handler runs. Every failure, from a
// missing header to a deleted user, gets the same 401 response.
func Middleware(db *gorm.DB, tokens *TokenService, users IdentityStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				unauthorized(w)
				return
			}
			userID, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				unauthorized(w)
				return
			}
			identity, err := users.FindByID(db, userID)
			if err != nil || identity == nil || !identity.Active {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), identity.ID)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	utils.WriteError(w, http.StatusUnauthorized, "Could not validate credentials", "auth_error")
}
