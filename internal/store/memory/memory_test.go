package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"teamhub.app/internal/authz"
	"teamhub.app/internal/tenancy"
)

func TestAssignmentsFilterInactive(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.CreateOrganization(ctx, tenancy.Organization{ID: "o", Name: "Org"})
	for _, a := range []authz.Assignment{
		{ID: "a1", SubjectID: "u", Kind: authz.KindUser, Active: true},
		{ID: "a2", SubjectID: "u", Kind: authz.KindOrgAdmin, OrganizationID: "o", Active: false},
		{ID: "a3", SubjectID: "v", Kind: authz.KindUser, Active: true},
	} {
		if err := s.CreateAssignment(ctx, a); err != nil {
			t.Fatalf("CreateAssignment: %v", err)
		}
	}

	active, _ := s.LoadActiveAssignments(ctx, "u")
	if len(active) != 1 || active[0].ID != "a1" {
		t.Fatalf("unexpected active assignments: %+v", active)
	}
	all, _ := s.ListAssignments(ctx, "u")
	if len(all) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(all))
	}
	if none, _ := s.LoadActiveAssignments(ctx, "ghost"); len(none) != 0 {
		t.Fatalf("expected no assignments for unknown subject")
	}
}

func TestTeamOrganization(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateTeam(ctx, tenancy.Team{ID: "t", OrganizationID: "missing"}); !errors.Is(err, tenancy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for orphan team, got %v", err)
	}
	_ = s.CreateOrganization(ctx, tenancy.Organization{ID: "o", Name: "Org"})
	if err := s.CreateTeam(ctx, tenancy.Team{ID: "t", OrganizationID: "o", Name: "T"}); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if org, err := s.TeamOrganization(ctx, "t"); err != nil || org != "o" {
		t.Fatalf("TeamOrganization: %q %v", org, err)
	}
	if _, err := s.TeamOrganization(ctx, "nope"); !errors.Is(err, authz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEncryptedFieldsAreCopied(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.WriteEncryptedField(ctx, "o", "openai_api_key_encrypted", "aa:bb")

	fields, _ := s.ListEncryptedFields(ctx, "o")
	fields["openai_api_key_encrypted"] = "mutated"

	v, ok, _ := s.ReadEncryptedField(ctx, "o", "openai_api_key_encrypted")
	if !ok || v != "aa:bb" {
		t.Fatalf("store state leaked through ListEncryptedFields: %q", v)
	}
	_ = s.ClearEncryptedField(ctx, "o", "openai_api_key_encrypted")
	if _, ok, _ := s.ReadEncryptedField(ctx, "o", "openai_api_key_encrypted"); ok {
		t.Fatalf("expected cleared field")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WriteEncryptedField(ctx, "o", "ghl_api_key_encrypted", "v")
			_, _, _ = s.ReadEncryptedField(ctx, "o", "ghl_api_key_encrypted")
			_, _ = s.LoadActiveAssignments(ctx, "u")
		}()
	}
	wg.Wait()
}

func TestCreateAssignmentRequiresScopeToExist(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.CreateAssignment(ctx, authz.Assignment{ID: "a1", SubjectID: "u", Kind: authz.KindOrgAdmin, OrganizationID: "ghost", Active: true}); !errors.Is(err, authz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown organization, got %v", err)
	}
	_ = s.CreateOrganization(ctx, tenancy.Organization{ID: "o", Name: "Org"})
	if err := s.CreateAssignment(ctx, authz.Assignment{ID: "a2", SubjectID: "u", Kind: authz.KindTeamAdmin, OrganizationID: "o", TeamID: "ghost", Active: true}); !errors.Is(err, authz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown team, got %v", err)
	}
	if err := s.CreateAssignment(ctx, authz.Assignment{ID: "a3", SubjectID: "u", Kind: authz.KindOrgAdmin, OrganizationID: "o", Active: true}); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}
}

func TestDeleteTeamDropsScopedAssignments(t *testing.T) {
	s := New()
	ctx := context.Background()
	_ = s.CreateOrganization(ctx, tenancy.Organization{ID: "o", Name: "Org"})
	_ = s.CreateTeam(ctx, tenancy.Team{ID: "t", OrganizationID: "o", Name: "T"})
	_ = s.CreateAssignment(ctx, authz.Assignment{ID: "a1", SubjectID: "u", Kind: authz.KindTeamAdmin, OrganizationID: "o", TeamID: "t", Active: true})

	if err := s.DeleteTeam(ctx, "t"); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	if _, err := s.GetAssignment(ctx, "a1"); !errors.Is(err, authz.ErrNotFound) {
		t.Fatalf("expected team assignment removed, got %v", err)
	}
	if err := s.DeleteTeam(ctx, "t"); !errors.Is(err, tenancy.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
