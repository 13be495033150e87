package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	app_errors "askflow/backend/internal/errors"
)

type contextKey string

const userIDKey contextKey = "user_id"

// DefaultUserID identifies every request when authentication is disabled and
// no X-User-ID header is sent.
const DefaultUserID = "default-user"

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, or DefaultUserID.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return DefaultUserID
}

// AuthMiddleware resolves the caller's identity. With a secret, requests must
// carry an HS256 token (Authorization header, or access_token query parameter
// for WebSocket clients) whose subject is the user id. Without a secret the
// X-User-ID header is trusted, which is only meant for local development.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(key) == 0 {
				userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
				if userID == "" {
					userID = DefaultUserID
				}
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}

			userID, err := verifyToken(key, bearerToken(r))
			if err != nil {
				respondWithError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}

func verifyToken(key []byte, token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing bearer token", app_errors.ErrUnauthenticated)
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", app_errors.ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: invalid token", app_errors.ErrUnauthenticated)
	}
	return claims.Subject, nil
}
