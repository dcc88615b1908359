package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/doorlist/doorlist/internal/response"
	"github.com/doorlist/doorlist/pkg/auth"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// RequireJWT rejects requests without a valid Bearer token signed with
// the given secret and stores the parsed claims on the request context.
func RequireJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "invalid authorization header")
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")
			claims, err := auth.Parse(raw, secret)
			if err != nil {
				response.Unauthorized(w, "invalid authorization token")
				return
			}
			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	v := r.Context().Value(CtxClaims)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}

// UserID returns the authenticated user's ID, or uuid.Nil when the
// request carries no valid claims.
func UserID(r *http.Request) uuid.UUID {
	claims := Claims(r)
	if claims == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(claims.Sub)
	if err != nil {
		return uuid.Nil
	}
	return id
}
