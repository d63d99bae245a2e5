package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/storefront-api/internal/auth"
	"github.com/hongminglow/storefront-api/internal/guard"
)

// TokenVerifier validates a bearer token. *auth.TokenManager satisfies it.
type TokenVerifier interface {
	Parse(raw string) (*auth.Claims, error)
}

// Authenticate verifies an "Authorization: Bearer" token and stores the
// principal in the request context. A missing, malformed or unverifiable
// header leaves the request anonymous: public routes still serve it and
// guard.Authenticated rejects it on protected ones.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Parse(token)
			if err != nil {
				slog.DebugContext(r.Context(), "bearer token rejected",
					slog.String("request_id", RequestIDFrom(r.Context())),
					slog.Any("error", err),
				)
				next.ServeHTTP(w, r)
				return
			}

			if f := fieldsFrom(r.Context()); f != nil {
				f.userID = claims.UserID
			}
			ctx := guard.WithPrincipal(r.Context(), guard.Principal{UserID: claims.UserID, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
