package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AssignmentLoader is the resolver's only read dependency on persistence.
type AssignmentLoader interface {
	// LoadActiveAssignments returns the subject's active assignments. An unknown
	// subject yields an empty slice (or ErrNotFound, treated the same).
	LoadActiveAssignments(ctx context.Context, subjectID string) ([]Assignment, error)
}

// TeamDirectory resolves the organization owning a team.
type TeamDirectory interface {
	// TeamOrganization returns ErrNotFound for unknown teams.
	TeamOrganization(ctx context.Context, teamID string) (string, error)
}

// Resolver decides whether a subject may act on a scope.
type Resolver struct {
	assignments AssignmentLoader
	teams       TeamDirectory
	timeout     time.Duration
	observe     func(Decision)
}

// ResolverOption configures Resolver behavior.
type ResolverOption func(*Resolver)

// WithTeamDirectory enables org-scoped assignments to satisfy team-scoped checks
// when the team belongs to the assignment's organization.
func WithTeamDirectory(dir TeamDirectory) ResolverOption {
	return func(r *Resolver) { r.teams = dir }
}

// WithTimeout bounds every Authorize call. Zero keeps only the caller's deadline.
func WithTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithObserver registers a callback invoked with every decision.
func WithObserver(fn func(Decision)) ResolverOption {
	return func(r *Resolver) { r.observe = fn }
}

// NewResolver constructs a Resolver over the given assignment source.
func NewResolver(loader AssignmentLoader, opts ...ResolverOption) (*Resolver, error) {
	if loader == nil {
		return nil, errors.New("authz: assignment loader is required")
	}
	r := &Resolver{assignments: loader}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Authorize permits if any active assignment of subjectID is platform-wide, or
// has a kind in required and matches scope. Failures to load data deny and
// return an error wrapping ErrStoreUnavailable; a plain denial is not an error.
func (r *Resolver) Authorize(ctx context.Context, subjectID string, required KindSet, scope Scope) (Decision, error) {
	d, err := r.decide(ctx, subjectID, required, scope)
	if r.observe != nil {
		r.observe(d)
	}
	return d, err
}

// Require is Authorize that reports a denial as ErrAuthorizationDenied.
func (r *Resolver) Require(ctx context.Context, subjectID string, required KindSet, scope Scope) (Decision, error) {
	d, err := r.Authorize(ctx, subjectID, required, scope)
	if err != nil {
		return d, err
	}
	if !d.Permitted {
		return d, fmt.Errorf("%w: %s", ErrAuthorizationDenied, d.Reason)
	}
	return d, nil
}

func (r *Resolver) decide(ctx context.Context, subjectID string, required KindSet, scope Scope) (Decision, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Decision{Reason: ReasonNoAssignments}, nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	loaded, err := r.assignments.LoadActiveAssignments(ctx, subjectID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return unavailable(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return unavailable(ctx, err)
	}

	candidates := make([]Assignment, 0, len(loaded))
	for _, a := range loaded {
		if !a.Active || a.Validate() != nil {
			continue
		}
		if a.Kind.PlatformWide() {
			return permit(a, ReasonPlatformWide), nil
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return Decision{Reason: ReasonNoAssignments}, nil
	}

	m := scopeMatcher{ctx: ctx, scope: scope, teams: r.teams}
	reason := ReasonNoMatchingRole
	for _, a := range candidates {
		if !required.Has(a.Kind) {
			continue
		}
		ok, err := m.matches(a)
		if err != nil {
			return unavailable(ctx, err)
		}
		if ok {
			return permit(a, ReasonRoleMatched), nil
		}
		reason = ReasonScopeMismatch
	}
	return Decision{Reason: reason}, nil
}

// scopeMatcher resolves the requested team's owner at most once per decision.
type scopeMatcher struct {
	ctx   context.Context
	scope Scope
	teams TeamDirectory

	ownerLoaded bool
	owner       string
}

func (m *scopeMatcher) matches(a Assignment) (bool, error) {
	if m.scope.OrganizationID != "" && a.OrganizationID != m.scope.OrganizationID {
		return false, nil
	}
	if m.scope.TeamID == "" {
		return true, nil
	}
	if a.TeamID != "" {
		return a.TeamID == m.scope.TeamID, nil
	}
	// Org-scoped assignment against a team-scoped request: compare with the team's owner.
	if a.OrganizationID == "" || m.teams == nil {
		return false, nil
	}
	owner, err := m.teamOwner()
	if err != nil {
		return false, err
	}
	return owner != "" && owner == a.OrganizationID, nil
}

func (m *scopeMatcher) teamOwner() (string, error) {
	if m.ownerLoaded {
		return m.owner, nil
	}
	owner, err := m.teams.TeamOrganization(m.ctx, m.scope.TeamID)
	switch {
	case errors.Is(err, ErrNotFound):
		owner = ""
	case err != nil:
		return "", err
	}
	m.owner, m.ownerLoaded = owner, true
	return owner, nil
}

func permit(a Assignment, reason string) Decision {
	matched := a
	return Decision{Permitted: true, Matched: &matched, Reason: reason}
}

func unavailable(ctx context.Context, err error) (Decision, error) {
	reason := ReasonStoreUnavailable
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		reason = ReasonTimeout
	}
	return Decision{Reason: reason}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
