package middleware

import (
	"context"
	"net/http"
	"strings"

	"sharebnb/internal/common"
	"sharebnb/internal/common/security"
	"sharebnb/internal/domain/model"
	"sharebnb/internal/domain/repository"
)

type contextKey string

const identityCtxKey contextKey = "identity"

// Authenticator resolves the Authorization header of each request into an
// authenticated Identity, or into anonymous. It never fails a request on its
// own: route groups decide via RequireAuth / AdminOnly whether anonymous
// access is acceptable.
type Authenticator struct {
	codec    *security.TokenCodec
	userRepo repository.UserRepository
}

func NewAuthenticator(codec *security.TokenCodec, userRepo repository.UserRepository) *Authenticator {
	return &Authenticator{codec: codec, userRepo: userRepo}
}

// Authenticate resolves a raw Authorization header value to an Identity, or
// nil for anonymous. Every failure path — wrong header shape, malformed or
// tampered or expired token, unknown username — collapses to anonymous;
// callers cannot tell which aspect was wrong.
func (a *Authenticator) Authenticate(ctx context.Context, headerValue string) *model.Identity {
	parts := strings.Fields(headerValue)
	if len(parts) != 2 {
		return nil
	}

	claims, err := a.codec.Decode(parts[1])
	if err != nil {
		return nil
	}

	user, err := a.userRepo.FindByUsername(ctx, claims.Username)
	if err != nil {
		return nil
	}

	identity := user.Identity()
	return &identity
}

// WithIdentity stores the resolved Identity (if any) in the request context
// and always passes the request on. Install once at the router root.
func (a *Authenticator) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity := a.Authenticate(r.Context(), r.Header.Get("Authorization")); identity != nil {
			ctx := context.WithValue(r.Context(), identityCtxKey, *identity)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetIdentityFromContext(r.Context()); !ok {
			common.RespondWithError(w, http.StatusUnauthorized, "Authorization required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly rejects non-admin requests with 403. Expects RequireAuth upstream.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := GetIdentityFromContext(r.Context())
		if !ok || !identity.IsAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetIdentityFromContext returns the authenticated identity, if any.
func GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey).(model.Identity)
	return identity, ok
}
