package tenancy_test

import (
	"context"
	"errors"
	"testing"

	"teamhub.app/internal/authz"
	"teamhub.app/internal/store/memory"
	"teamhub.app/internal/tenancy"
)

func newService(t *testing.T) (*tenancy.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	grants, err := authz.NewGrants(store)
	if err != nil {
		t.Fatalf("NewGrants: %v", err)
	}
	svc, err := tenancy.NewService(store, grants)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func TestCreateTeamGrantsCreatorTeamAdmin(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	org, err := svc.CreateOrganization(ctx, "  Riverside Wrestling  ")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if org.Name != "Riverside Wrestling" {
		t.Fatalf("expected trimmed name, got %q", org.Name)
	}

	team, grant, err := svc.CreateTeam(ctx, "coach-1", org.ID, "Varsity")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if grant.Kind != authz.KindTeamAdmin || grant.TeamID != team.ID || grant.OrganizationID != org.ID {
		t.Fatalf("unexpected grant: %+v", grant)
	}

	resolver, err := authz.NewResolver(store, authz.WithTeamDirectory(store))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	d, err := resolver.Authorize(ctx, "coach-1", authz.Kinds(authz.KindTeamAdmin), authz.Scope{TeamID: team.ID})
	if err != nil || !d.Permitted {
		t.Fatalf("expected creator to administer the team, got %+v, %v", d, err)
	}
	d, err = resolver.Authorize(ctx, "coach-1", authz.Kinds(authz.KindOrgAdmin), authz.Scope{OrganizationID: org.ID})
	if err != nil || d.Permitted {
		t.Fatalf("team creator must not become org_admin, got %+v, %v", d, err)
	}

	teams, err := svc.ListTeams(ctx, org.ID)
	if err != nil || len(teams) != 1 || teams[0].ID != team.ID {
		t.Fatalf("ListTeams: %+v, %v", teams, err)
	}
}

func TestCreateTeamValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	if _, err := svc.CreateOrganization(ctx, " "); !errors.Is(err, tenancy.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, _, err := svc.CreateTeam(ctx, "coach", "org-missing", "Varsity"); !errors.Is(err, tenancy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := svc.CreateTeam(ctx, "", "org", "Varsity"); !errors.Is(err, tenancy.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing creator, got %v", err)
	}
	if _, _, err := svc.CreateTeam(ctx, "coach", "org", ""); !errors.Is(err, tenancy.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing name, got %v", err)
	}
}

type failingGrantStore struct {
	*memory.Store
}

func (failingGrantStore) CreateAssignment(context.Context, authz.Assignment) error {
	return errors.New("insert failed")
}

func TestCreateTeamRollsBackWhenGrantFails(t *testing.T) {
	ctx := context.Background()
	store := failingGrantStore{Store: memory.New()}
	grants, err := authz.NewGrants(store)
	if err != nil {
		t.Fatalf("NewGrants: %v", err)
	}
	svc, err := tenancy.NewService(store, grants)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	org, err := svc.CreateOrganization(ctx, "Riverside")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	team, _, err := svc.CreateTeam(ctx, "coach", org.ID, "Varsity")
	if err == nil {
		t.Fatalf("expected grant failure")
	}
	if team.ID != "" {
		t.Fatalf("expected zero team on failure, got %+v", team)
	}
	teams, err := svc.ListTeams(ctx, org.ID)
	if err != nil {
		t.Fatalf("ListTeams: %v", err)
	}
	if len(teams) != 0 {
		t.Fatalf("expected team rolled back, got %+v", teams)
	}
}
