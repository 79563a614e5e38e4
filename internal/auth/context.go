package auth

import (
	"context"
	"strings"
)

type subjectContextKey struct{}
type tokenContextKey struct{}

// ContextWithSubject stores the authenticated subject id in the context.
func ContextWithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, strings.TrimSpace(subjectID))
}

// SubjectFromContext extracts the authenticated subject id.
func SubjectFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(subjectContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ContextWithToken stores the raw bearer token inside the context.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenContextKey{}, token)
}

func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(tokenContextKey{}).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
