package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kshaab/Coursework-5/internal/ctxkeys"
	"github.com/kshaab/Coursework-5/internal/model"
)

// TokenAuthenticator resolves a bearer access token to its user.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

// RequireAuth rejects requests without a valid bearer access token and adds
// the authenticated user to the context otherwise.
func RequireAuth(auth TokenAuthenticator) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				writeJSONError(w, http.StatusUnauthorized, "authentication credentials were not provided")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				slog.Debug("bearer token rejected", "error", err, "path", r.URL.Path)
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				writeJSONError(w, http.StatusUnauthorized, "given token not valid for any token type")
				return
			}

			// Security: Remove password hash from context
			user.PasswordHash = ""

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
