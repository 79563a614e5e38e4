// Package audit writes security-relevant events (grants, revocations,
// credential changes, denials) to the JSON log stream.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"teamhub.app/internal/auth"
	"teamhub.app/internal/authz"
	"teamhub.app/internal/obs"
)

type requestIDKey struct{}

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request id attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with request and subject context.
// Never pass credential plaintext or ciphertext in fields.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"type":  "audit",
		"event": event,
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		entry["request_id"] = rid
	}
	if subject, ok := auth.SubjectFromContext(ctx); ok {
		entry["subject_id"] = subject
	}
	copyFields := make(map[string]any, len(fields))
	for k, v := range fields {
		copyFields[k] = v
	}
	entry["fields"] = copyFields

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}

// LogDenied records a refused authorization together with the scope that was asked for.
func LogDenied(ctx context.Context, action string, d authz.Decision, scope authz.Scope) error {
	return LogEvent(ctx, "authz.denied", map[string]any{
		"action":          action,
		"reason":          d.Reason,
		"organization_id": scope.OrganizationID,
		"team_id":         scope.TeamID,
	})
}
