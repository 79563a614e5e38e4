// Package memory is an in-process store used when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"teamhub.app/internal/authz"
	"teamhub.app/internal/secrets"
	"teamhub.app/internal/tenancy"
)

var (
	_ authz.AssignmentStore   = (*Store)(nil)
	_ tenancy.Store           = (*Store)(nil)
	_ secrets.CredentialStore = (*Store)(nil)
)

type Store struct {
	mu          sync.RWMutex
	assignments map[string]authz.Assignment
	orgs        map[string]tenancy.Organization
	teams       map[string]tenancy.Team
	credentials map[string]map[string]string
}

func New() *Store {
	return &Store{
		assignments: make(map[string]authz.Assignment),
		orgs:        make(map[string]tenancy.Organization),
		teams:       make(map[string]tenancy.Team),
		credentials: make(map[string]map[string]string),
	}
}

func (s *Store) LoadActiveAssignments(_ context.Context, subjectID string) ([]authz.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []authz.Assignment
	for _, a := range s.assignments {
		if a.SubjectID == subjectID && a.Active {
			out = append(out, a)
		}
	}
	sortAssignments(out)
	return out, nil
}

func (s *Store) ListAssignments(_ context.Context, subjectID string) ([]authz.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []authz.Assignment
	for _, a := range s.assignments {
		if a.SubjectID == subjectID {
			out = append(out, a)
		}
	}
	sortAssignments(out)
	return out, nil
}

func (s *Store) TeamOrganization(_ context.Context, teamID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[teamID]
	if !ok {
		return "", authz.ErrNotFound
	}
	return team.OrganizationID, nil
}

func (s *Store) CreateAssignment(_ context.Context, a authz.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Same references the role_assignments foreign keys enforce.
	if a.OrganizationID != "" {
		if _, ok := s.orgs[a.OrganizationID]; !ok {
			return authz.ErrNotFound
		}
	}
	if a.TeamID != "" {
		if _, ok := s.teams[a.TeamID]; !ok {
			return authz.ErrNotFound
		}
	}
	for _, existing := range s.assignments {
		if existing.SubjectID == a.SubjectID && existing.Kind == a.Kind &&
			existing.OrganizationID == a.OrganizationID && existing.TeamID == a.TeamID {
			return authz.ErrConflict
		}
	}
	s.assignments[a.ID] = a
	return nil
}

func (s *Store) GetAssignment(_ context.Context, id string) (authz.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[id]
	if !ok {
		return authz.Assignment{}, authz.ErrNotFound
	}
	return a, nil
}

func (s *Store) DeleteAssignment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[id]; !ok {
		return authz.ErrNotFound
	}
	delete(s.assignments, id)
	return nil
}

func (s *Store) SetAssignmentActive(_ context.Context, id string, active bool) (authz.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return authz.Assignment{}, authz.ErrNotFound
	}
	a.Active = active
	s.assignments[id] = a
	return a, nil
}

func (s *Store) CreateOrganization(_ context.Context, org tenancy.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[org.ID]; ok {
		return tenancy.ErrConflict
	}
	s.orgs[org.ID] = org
	return nil
}

func (s *Store) GetOrganization(_ context.Context, id string) (tenancy.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[id]
	if !ok {
		return tenancy.Organization{}, tenancy.ErrNotFound
	}
	return org, nil
}

func (s *Store) CreateTeam(_ context.Context, team tenancy.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[team.OrganizationID]; !ok {
		return tenancy.ErrNotFound
	}
	if _, ok := s.teams[team.ID]; ok {
		return tenancy.ErrConflict
	}
	s.teams[team.ID] = team
	return nil
}

// DeleteTeam removes the team and the assignments scoped to it.
func (s *Store) DeleteTeam(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[id]; !ok {
		return tenancy.ErrNotFound
	}
	delete(s.teams, id)
	for aid, a := range s.assignments {
		if a.TeamID == id {
			delete(s.assignments, aid)
		}
	}
	return nil
}

func (s *Store) GetTeam(_ context.Context, id string) (tenancy.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[id]
	if !ok {
		return tenancy.Team{}, tenancy.ErrNotFound
	}
	return team, nil
}

func (s *Store) ListTeams(_ context.Context, organizationID string) ([]tenancy.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []tenancy.Team
	for _, t := range s.teams {
		if t.OrganizationID == organizationID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ReadEncryptedField(_ context.Context, tenantID, field string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.credentials[tenantID][field]
	return v, ok, nil
}

func (s *Store) WriteEncryptedField(_ context.Context, tenantID, field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credentials[tenantID] == nil {
		s.credentials[tenantID] = make(map[string]string)
	}
	s.credentials[tenantID][field] = value
	return nil
}

func (s *Store) ClearEncryptedField(_ context.Context, tenantID, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credentials[tenantID], field)
	return nil
}

func (s *Store) ListEncryptedFields(_ context.Context, tenantID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.credentials[tenantID]))
	for k, v := range s.credentials[tenantID] {
		out[k] = v
	}
	return out, nil
}

func sortAssignments(list []authz.Assignment) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}
