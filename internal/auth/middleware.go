package auth

import (
	"context"
	"net/http"
	"strings"
)

// TokenValidator resolves a raw bearer token to a user ID.
type TokenValidator interface {
	Validate(token string) (string, error)
}

type contextKey string

// UserIDKey is the context key for the authenticated user ID.
const UserIDKey = contextKey("userID")

// ExtractBearer returns the token from an "Authorization: Bearer <token>" header value.
func ExtractBearer(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserIDFromContext returns the user ID stored by JWTMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// JWTMiddleware protects routes with bearer tokens. A request without a usable
// Authorization header is rejected before the validator is consulted. When
// allowQuery is set, a "token" query parameter is accepted as well, for
// browser websocket clients that cannot set headers.
func JWTMiddleware(validator TokenValidator, allowQuery bool, onReject func(w http.ResponseWriter, status int, msg string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := ExtractBearer(r.Header.Get("Authorization"))
			if !ok && allowQuery {
				tokenStr = r.URL.Query().Get("token")
				ok = tokenStr != ""
			}
			if !ok {
				onReject(w, http.StatusUnauthorized, "missing auth token")
				return
			}

			userID, err := validator.Validate(tokenStr)
			if err != nil {
				onReject(w, http.StatusUnauthorized, "invalid auth token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
