package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"teamhub.app/internal/audit"
	"teamhub.app/internal/authz"
	"teamhub.app/internal/obs"
	"teamhub.app/internal/secrets"
	"teamhub.app/internal/tenancy"
)

const (
	msgForbidden        = "insufficient permissions"
	msgCredentialFailed = "credential operation failed"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	body := map[string]any{"error": msg}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		body["request_id"] = rid
	}
	writeJSON(w, code, body)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("request body too large")
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// handleError maps domain errors to responses. Unexpected errors are logged
// and reported without detail.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authz.ErrAuthorizationDenied):
		writeError(w, r, http.StatusForbidden, msgForbidden)
	case errors.Is(err, authz.ErrStoreUnavailable):
		obs.Error("authorization unavailable", err, map[string]any{"request_id": audit.RequestIDFromContext(r.Context())})
		writeError(w, r, http.StatusServiceUnavailable, "authorization temporarily unavailable")
	case errors.Is(err, authz.ErrInvalidAssignment), errors.Is(err, authz.ErrUnknownRole), errors.Is(err, tenancy.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, authz.ErrNotFound), errors.Is(err, tenancy.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, authz.ErrConflict), errors.Is(err, tenancy.ErrConflict):
		writeError(w, r, http.StatusConflict, "resource already exists")
	default:
		obs.Error("request failed", err, map[string]any{"request_id": audit.RequestIDFromContext(r.Context())})
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// handleCredentialError never reveals which credential step failed.
func handleCredentialError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, secrets.ErrInvalidInput) || errors.Is(err, secrets.ErrUnknownCredential) {
		code = http.StatusBadRequest
	}
	if errors.Is(err, tenancy.ErrNotFound) {
		code = http.StatusNotFound
	}
	if code == http.StatusInternalServerError {
		obs.Error("credential operation failed", err, map[string]any{"request_id": audit.RequestIDFromContext(r.Context())})
	}
	writeError(w, r, code, msgCredentialFailed)
}
