package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamhub.app/internal/ids"
)

// AssignmentStore persists role assignments.
type AssignmentStore interface {
	AssignmentLoader
	TeamDirectory

	CreateAssignment(ctx context.Context, a Assignment) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
	SetAssignmentActive(ctx context.Context, id string, active bool) (Assignment, error)
	// ListAssignments includes inactive assignments.
	ListAssignments(ctx context.Context, subjectID string) ([]Assignment, error)
}

// Grants creates, toggles and revokes assignments.
type Grants struct {
	store AssignmentStore
	now   func() time.Time
}

func NewGrants(store AssignmentStore) (*Grants, error) {
	if store == nil {
		return nil, errors.New("authz: assignment store is required")
	}
	return &Grants{store: store, now: time.Now}, nil
}

// Prepare normalizes the scope of a the way Grant stores it: platform-wide
// kinds carry no scope, org_admin carries no team, and any assignment naming a
// team takes its organization from the team's owner. Callers authorize the
// prepared assignment, not the raw request.
func (g *Grants) Prepare(ctx context.Context, a Assignment) (Assignment, error) {
	a.SubjectID = strings.TrimSpace(a.SubjectID)
	a.OrganizationID = strings.TrimSpace(a.OrganizationID)
	a.TeamID = strings.TrimSpace(a.TeamID)

	switch {
	case a.Kind.PlatformWide():
		a.OrganizationID, a.TeamID = "", ""
	case a.Kind == KindOrgAdmin:
		a.TeamID = ""
	case a.TeamID != "":
		owner, err := g.store.TeamOrganization(ctx, a.TeamID)
		if err != nil {
			return Assignment{}, err
		}
		if a.OrganizationID != "" && a.OrganizationID != owner {
			return Assignment{}, fmt.Errorf("%w: team %s does not belong to organization %s", ErrInvalidAssignment, a.TeamID, a.OrganizationID)
		}
		a.OrganizationID = owner
	}
	if err := a.Validate(); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// Grant prepares a and stores it as a new active assignment.
func (g *Grants) Grant(ctx context.Context, a Assignment) (Assignment, error) {
	a, err := g.Prepare(ctx, a)
	if err != nil {
		return Assignment{}, err
	}
	a.ID = ids.New()
	a.Active = true
	a.CreatedAt = g.now().UTC()
	if err := g.store.CreateAssignment(ctx, a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (g *Grants) Get(ctx context.Context, id string) (Assignment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Assignment{}, fmt.Errorf("%w: assignment id is required", ErrInvalidAssignment)
	}
	return g.store.GetAssignment(ctx, id)
}

// Revoke deletes the assignment.
func (g *Grants) Revoke(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: assignment id is required", ErrInvalidAssignment)
	}
	return g.store.DeleteAssignment(ctx, id)
}

// SetActive toggles the only mutable attribute of an assignment.
func (g *Grants) SetActive(ctx context.Context, id string, active bool) (Assignment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Assignment{}, fmt.Errorf("%w: assignment id is required", ErrInvalidAssignment)
	}
	return g.store.SetAssignmentActive(ctx, id, active)
}

func (g *Grants) List(ctx context.Context, subjectID string) ([]Assignment, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject_id is required", ErrInvalidAssignment)
	}
	return g.store.ListAssignments(ctx, subjectID)
}
