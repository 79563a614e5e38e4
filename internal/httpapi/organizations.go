package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamhub.app/internal/audit"
	"teamhub.app/internal/authz"
	"teamhub.app/internal/tenancy"
)

type nameRequest struct {
	Name string `json:"name"`
}

// Any role inside the organization may read it.
var orgMembers = authz.Kinds(authz.KindUser, authz.KindTeamAdmin, authz.KindOrgAdmin)

func (a *API) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	if !a.require(w, r, "organizations.create", authz.Kinds(), authz.Scope{}) {
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	org, err := a.tenancy.CreateOrganization(r.Context(), req.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "organization.created", map[string]any{"organization_id": org.ID})
	w.Header().Set("Location", fmt.Sprintf("/v1/organizations/%s", org.ID))
	writeJSON(w, http.StatusCreated, org)
}

func (a *API) handleGetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if !a.require(w, r, "organizations.read", orgMembers, authz.Scope{OrganizationID: orgID}) {
		return
	}
	org, err := a.tenancy.GetOrganization(r.Context(), orgID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (a *API) handleListTeams(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if !a.require(w, r, "teams.list", orgMembers, authz.Scope{OrganizationID: orgID}) {
		return
	}
	teams, err := a.tenancy.ListTeams(r.Context(), orgID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if teams == nil {
		teams = []tenancy.Team{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"organization_id": orgID, "teams": teams})
}

func (a *API) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if !a.require(w, r, "teams.create", authz.Kinds(authz.KindOrgAdmin), authz.Scope{OrganizationID: orgID}) {
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	team, grant, err := a.tenancy.CreateTeam(r.Context(), subjectOf(r), orgID, req.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "team.created", map[string]any{
		"organization_id": orgID,
		"team_id":         team.ID,
		"assignment_id":   grant.ID,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/organizations/%s/teams/%s", orgID, team.ID))
	writeJSON(w, http.StatusCreated, map[string]any{"team": team, "assignment": grant})
}
