// Package tenancy manages organizations (tenants) and their teams.
package tenancy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamhub.app/internal/authz"
	"teamhub.app/internal/ids"
)

var (
	ErrInvalidInput = errors.New("tenancy: invalid input")
	ErrNotFound     = errors.New("tenancy: not found")
	ErrConflict     = errors.New("tenancy: conflict")
)

// Organization is a tenant. Credentials belong to organizations.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Team belongs to exactly one organization.
type Team struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists organizations and teams.
type Store interface {
	CreateOrganization(ctx context.Context, org Organization) error
	GetOrganization(ctx context.Context, id string) (Organization, error)
	CreateTeam(ctx context.Context, team Team) error
	DeleteTeam(ctx context.Context, id string) error
	GetTeam(ctx context.Context, id string) (Team, error)
	ListTeams(ctx context.Context, organizationID string) ([]Team, error)
}

// Service validates input before delegating to the store.
type Service struct {
	store  Store
	grants *authz.Grants
	now    func() time.Time
}

func NewService(store Store, grants *authz.Grants) (*Service, error) {
	if store == nil {
		return nil, errors.New("tenancy store is required")
	}
	if grants == nil {
		return nil, errors.New("grants service is required")
	}
	return &Service{store: store, grants: grants, now: time.Now}, nil
}

func (s *Service) CreateOrganization(ctx context.Context, name string) (Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, fmt.Errorf("%w: organization name is required", ErrInvalidInput)
	}
	org := Organization{ID: ids.New(), Name: name, CreatedAt: s.now().UTC()}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return Organization{}, err
	}
	return org, nil
}

func (s *Service) GetOrganization(ctx context.Context, id string) (Organization, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Organization{}, fmt.Errorf("%w: organization_id is required", ErrInvalidInput)
	}
	return s.store.GetOrganization(ctx, id)
}

// CreateTeam creates a team and grants its creator team_admin on it. The team
// is removed again when the grant fails.
func (s *Service) CreateTeam(ctx context.Context, creatorID, organizationID, name string) (Team, authz.Assignment, error) {
	creatorID = strings.TrimSpace(creatorID)
	organizationID = strings.TrimSpace(organizationID)
	name = strings.TrimSpace(name)
	if creatorID == "" {
		return Team{}, authz.Assignment{}, fmt.Errorf("%w: creator is required", ErrInvalidInput)
	}
	if organizationID == "" {
		return Team{}, authz.Assignment{}, fmt.Errorf("%w: organization_id is required", ErrInvalidInput)
	}
	if name == "" {
		return Team{}, authz.Assignment{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	if _, err := s.store.GetOrganization(ctx, organizationID); err != nil {
		return Team{}, authz.Assignment{}, err
	}

	team := Team{ID: ids.New(), OrganizationID: organizationID, Name: name, CreatedAt: s.now().UTC()}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return Team{}, authz.Assignment{}, err
	}
	grant, err := s.grants.Grant(ctx, authz.Assignment{
		SubjectID:      creatorID,
		Kind:           authz.KindTeamAdmin,
		OrganizationID: organizationID,
		TeamID:         team.ID,
	})
	if err != nil {
		// Never leave a team without its team_admin.
		if derr := s.store.DeleteTeam(ctx, team.ID); derr != nil {
			return Team{}, authz.Assignment{}, errors.Join(fmt.Errorf("grant team_admin to creator: %w", err), fmt.Errorf("roll back team: %w", derr))
		}
		return Team{}, authz.Assignment{}, fmt.Errorf("grant team_admin to creator: %w", err)
	}
	return team, grant, nil
}

func (s *Service) ListTeams(ctx context.Context, organizationID string) ([]Team, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, fmt.Errorf("%w: organization_id is required", ErrInvalidInput)
	}
	return s.store.ListTeams(ctx, organizationID)
}
