package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"teamhub.app/internal/audit"
	"teamhub.app/internal/auth"
	"teamhub.app/internal/authz"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth turns the bearer token into the request's subject.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := a.tokens.ParseAndValidate(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := auth.ContextWithSubject(r.Context(), claims.Subject)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

// require authorizes the caller for action and writes the failure response
// itself. It returns false when the handler must stop.
func (a *API) require(w http.ResponseWriter, r *http.Request, action string, required authz.KindSet, scope authz.Scope) bool {
	subject, _ := auth.SubjectFromContext(r.Context())
	d, err := a.resolver.Require(r.Context(), subject, required, scope)
	if err == nil {
		return true
	}
	if errors.Is(err, authz.ErrAuthorizationDenied) {
		_ = audit.LogDenied(r.Context(), action, d, scope)
	}
	handleError(w, r, err)
	return false
}

func subjectOf(r *http.Request) string {
	subject, _ := auth.SubjectFromContext(r.Context())
	return subject
}
