package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func identityEcho(t *testing.T) (http.Handler, *Claims) {
	var seen Claims
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.UserID, _ = UserIDFromContext(r.Context())
		seen.Email = EmailFromContext(r.Context())
		seen.Role = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return Auth(testSecret)(h), &seen
}

func TestAuthInjectsIdentity(t *testing.T) {
	handler, seen := identityEcho(t)

	token := signToken(t, &Claims{
		UserID: "abc123",
		Email:  "alice@example.com",
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/api/my-books", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc123", seen.UserID)
	assert.Equal(t, "alice@example.com", seen.Email)
	assert.Equal(t, "admin", seen.Role)
}

func TestAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	handler, _ := identityEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsUnknownRole(t *testing.T) {
	handler, _ := identityEcho(t)

	for _, role := range []string{"superuser", ""} {
		token := signToken(t, &Claims{
			UserID: "abc123",
			Email:  "alice@example.com",
			Role:   role,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}, testSecret)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestAuthRejectsWrongSecretAndExpiredToken(t *testing.T) {
	handler, _ := identityEcho(t)

	bad := signToken(t, &Claims{UserID: "x"}, "other-secret")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+bad)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired := signToken(t, &Claims{
		UserID: "x",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSecret)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
