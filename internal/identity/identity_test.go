package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factgate/internal/platform/middleware"
)

const signingKey = "test-key"

func signToken(t *testing.T, key, subject, role string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  exp.Unix(),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func resolveThroughMiddleware(t *testing.T, authorization string) Identity {
	t.Helper()
	var got Identity
	handler := middleware.ClientMetadata(Middleware(signingKey)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:4242"
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestMiddlewareResolvesSignedToken(t *testing.T) {
	token := signToken(t, signingKey, "user-42", "reviewer", time.Now().Add(time.Hour))
	id := resolveThroughMiddleware(t, "Bearer "+token)

	assert.False(t, id.Anonymous)
	assert.Equal(t, "user-42", id.Subject)
	assert.Equal(t, RoleReviewer, id.Role)
	assert.Equal(t, "user-42", id.Key())
}

func TestMiddlewareDegradesToIPIdentity(t *testing.T) {
	cases := map[string]string{
		"no header":          "",
		"not a bearer token": "Basic dXNlcjpwYXNz",
		"garbage token":      "Bearer not.a.jwt",
		"wrong key":          "Bearer " + signToken(t, "other-key", "user-42", "reviewer", time.Now().Add(time.Hour)),
		"expired token":      "Bearer " + signToken(t, signingKey, "user-42", "reviewer", time.Now().Add(-time.Hour)),
	}
	for name, auth := range cases {
		t.Run(name, func(t *testing.T) {
			id := resolveThroughMiddleware(t, auth)
			assert.True(t, id.Anonymous)
			assert.Equal(t, "203.0.113.7", id.Subject)
			assert.Equal(t, RoleSubmitter, id.Role)
		})
	}
}

func TestMiddlewareNormalizesUnknownRole(t *testing.T) {
	token := signToken(t, signingKey, "user-42", "superuser", time.Now().Add(time.Hour))
	id := resolveThroughMiddleware(t, "Bearer "+token)

	assert.False(t, id.Anonymous)
	assert.Equal(t, RoleSubmitter, id.Role)
}
