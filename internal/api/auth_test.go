package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askflow/backend/internal/api"
)

func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(api.UserIDFromContext(r.Context())))
	})
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "test-secret"
	future := time.Now().Add(time.Hour)

	t.Run("Success - Development mode uses the header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User-ID", "bob")
		rr := httptest.NewRecorder()
		api.AuthMiddleware("")(whoAmI()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "bob", rr.Body.String())
	})

	t.Run("Success - Development mode default user", func(t *testing.T) {
		rr := httptest.NewRecorder()
		api.AuthMiddleware("")(whoAmI()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, api.DefaultUserID, rr.Body.String())
	})

	t.Run("Success - Bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "alice", future))
		req.Header.Set("X-User-ID", "mallory")
		rr := httptest.NewRecorder()
		api.AuthMiddleware(secret)(whoAmI()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "alice", rr.Body.String())
	})

	t.Run("Success - Query parameter token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?access_token="+signToken(t, secret, "alice", future), nil)
		rr := httptest.NewRecorder()
		api.AuthMiddleware(secret)(whoAmI()).ServeHTTP(rr, req)

		assert.Equal(t, "alice", rr.Body.String())
	})

	t.Run("Failure - Missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		api.AuthMiddleware(secret)(whoAmI()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Failure - Wrong secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other", "alice", future))
		rr := httptest.NewRecorder()
		api.AuthMiddleware(secret)(whoAmI()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Failure - Expired token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "alice", time.Now().Add(-time.Minute)))
		rr := httptest.NewRecorder()
		api.AuthMiddleware(secret)(whoAmI()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Failure - Token without subject", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "", future))
		rr := httptest.NewRecorder()
		api.AuthMiddleware(secret)(whoAmI()).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
