package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// ActiveBrandSource reports the signed-in user's active brand id.
// *brand.Manager satisfies this interface.
type ActiveBrandSource interface {
	ActiveBrand(userID uuid.UUID) (string, bool)
}

// RequireActiveBrand injects the user's active brand id into the request
// context. Requests from users without a resolved active brand are rejected;
// brand-scoped endpoints have nothing to operate on.
func RequireActiveBrand(src ActiveBrandSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFromContext(r.Context())
			if !ok || userID == uuid.Nil {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing user context"}`, http.StatusUnauthorized)
				return
			}

			brandID, ok := src.ActiveBrand(userID)
			if !ok {
				http.Error(w, `{"title":"Conflict","status":409,"detail":"no active brand"}`, http.StatusConflict)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyBrandID, brandID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
