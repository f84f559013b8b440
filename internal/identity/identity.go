// Package identity resolves the caller identity supplied by the external
// identity gate. Tokens are issued and session-managed elsewhere; this package
// only parses the signed claims and degrades to network-address identity when
// no valid token is present.
package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"factgate/internal/platform/middleware"
)

// Role is the caller role asserted by the identity gate.
type Role string

const (
	RoleSubmitter Role = "submitter"
	RoleReviewer  Role = "reviewer"
	RoleAdmin     Role = "admin"
)

// Identity is the per-request caller identity.
type Identity struct {
	// Subject is the user id, or the client IP for anonymous callers.
	Subject   string
	Role      Role
	Anonymous bool
}

// Key returns the rate-limit/cache keying identity. Anonymous callers are
// keyed by network address.
func (i Identity) Key() string {
	return i.Subject
}

type contextKeyIdentity struct{}

// FromContext retrieves the caller identity; the zero value means the
// middleware did not run.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKeyIdentity{}).(Identity); ok {
		return id
	}
	return Identity{}
}

// WithIdentity injects an identity into a context. Useful for service tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, id)
}

// tokenClaims is the claim shape the identity gate signs.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Middleware resolves the caller identity from the Authorization header,
// falling back to an anonymous IP-keyed identity.
func Middleware(signingKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := resolve(r, signingKey)
			if id.Anonymous {
				id.Subject = middleware.GetClientIP(ctx)
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
		})
	}
}

func resolve(r *http.Request, signingKey string) Identity {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return Identity{Anonymous: true, Role: RoleSubmitter}
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	var claims tokenClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(signingKey), nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return Identity{Anonymous: true, Role: RoleSubmitter}
	}

	role := Role(claims.Role)
	switch role {
	case RoleSubmitter, RoleReviewer, RoleAdmin:
	default:
		role = RoleSubmitter
	}
	return Identity{Subject: claims.Subject, Role: role}
}
