package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	authcore "github.com/cferrel/authcore"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity injected by a guard, if the
// request passed one.
func IdentityFromContext(ctx context.Context) (*authcore.Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(*authcore.Identity)
	return id, ok
}

// Guard wraps a handler with bearer-token authorization. With no roles
// given, any authenticated identity passes; otherwise the identity's role
// must be in the allow-list.
func Guard(engine *authcore.Engine, roles ...authcore.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				reject(w)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w)
				return
			}

			identity, err := engine.Authorize(r.Context(), token, roles...)
			if err != nil {
				if errors.Is(err, authcore.ErrStoreUnavailable) || errors.Is(err, authcore.ErrCacheUnavailable) {
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				reject(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a handler behind a single role.
func RequireRole(engine *authcore.Engine, role authcore.Role) func(http.Handler) http.Handler {
	return Guard(engine, role)
}

// reject answers every auth failure identically. The engine's precise error
// stays in logs and audit; the wire sees one opaque 401.
func reject(w http.ResponseWriter) {
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
