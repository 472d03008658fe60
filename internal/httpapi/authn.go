package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"dmphub.org/internal/auth"
	"dmphub.org/internal/authz"
	"dmphub.org/internal/token"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/token",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		client, err := a.auth.AuthenticateToken(r.Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrExpiredToken):
				// Distinct message so callers know to re-authenticate rather
				// than retry with the same token.
				writeError(w, r, http.StatusUnauthorized, "token expired, please re-authenticate")
			case errors.Is(err, token.ErrMalformedToken):
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		ctx := auth.ContextWithClient(r.Context(), client)
		ctx = auth.ContextWithToken(ctx, raw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// actorFromContext maps the authenticated client to an authorization actor.
func actorFromContext(r *http.Request) *authz.Actor {
	client, ok := auth.ClientFromContext(r.Context())
	if !ok {
		return nil
	}
	return &authz.Actor{Kind: authz.KindAPIClient, ID: client.ID}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	raw := strings.TrimSpace(header[len(bearer):])
	if raw == "" {
		return "", errors.New("missing bearer token")
	}
	return raw, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
