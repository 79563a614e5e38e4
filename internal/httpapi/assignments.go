package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"teamhub.app/internal/audit"
	"teamhub.app/internal/authz"
)

type grantRequest struct {
	SubjectID      string `json:"subject_id"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
	TeamID         string `json:"team_id"`
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

type authorizeRequest struct {
	Roles          []string `json:"roles"`
	OrganizationID string   `json:"organization_id"`
	TeamID         string   `json:"team_id"`
}

// managers returns who may grant or revoke a, and where.
func managers(a authz.Assignment) (authz.KindSet, authz.Scope) {
	switch {
	case a.Kind.PlatformWide():
		return authz.Kinds(), authz.Scope{}
	case a.TeamID != "":
		// team_admin may manage grants on its own team; org_admin via the team's owner.
		return authz.Kinds(authz.KindOrgAdmin, authz.KindTeamAdmin), authz.Scope{OrganizationID: a.OrganizationID, TeamID: a.TeamID}
	case a.OrganizationID != "":
		return authz.Kinds(authz.KindOrgAdmin), authz.Scope{OrganizationID: a.OrganizationID}
	default:
		return authz.Kinds(), authz.Scope{}
	}
}

func (a *API) handleMyAssignments(w http.ResponseWriter, r *http.Request) {
	subject := subjectOf(r)
	list, err := a.grants.List(r.Context(), subject)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if list == nil {
		list = []authz.Assignment{}
	}
	resp := map[string]any{
		"subject_id":  subject,
		"assignments": list,
	}
	if top := authz.Highest(list); top != "" {
		resp["highest_role"] = top
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAuthorize explains what the resolver decides for the caller.
func (a *API) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	required := authz.Kinds()
	for _, raw := range req.Roles {
		k, err := authz.ParseKind(raw)
		if err != nil {
			handleError(w, r, err)
			return
		}
		required[k] = struct{}{}
	}
	scope := authz.Scope{
		OrganizationID: strings.TrimSpace(req.OrganizationID),
		TeamID:         strings.TrimSpace(req.TeamID),
	}
	d, err := a.resolver.Authorize(r.Context(), subjectOf(r), required, scope)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := authz.ParseKind(req.Role)
	if err != nil {
		handleError(w, r, err)
		return
	}
	// Authorize the assignment as it will be stored, not as it was posted.
	candidate, err := a.grants.Prepare(r.Context(), authz.Assignment{
		SubjectID:      req.SubjectID,
		Kind:           kind,
		OrganizationID: req.OrganizationID,
		TeamID:         req.TeamID,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	required, scope := managers(candidate)
	if !a.require(w, r, "assignments.grant", required, scope) {
		return
	}
	granted, err := a.grants.Grant(r.Context(), candidate)
	if err != nil {
		handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "assignment.granted", map[string]any{
		"assignment_id":   granted.ID,
		"grantee":         granted.SubjectID,
		"role":            granted.Kind,
		"organization_id": granted.OrganizationID,
		"team_id":         granted.TeamID,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/assignments/%s", granted.ID))
	writeJSON(w, http.StatusCreated, granted)
}

// loadManaged fetches an assignment and checks the caller may manage it.
func (a *API) loadManaged(w http.ResponseWriter, r *http.Request, action string) (authz.Assignment, bool) {
	existing, err := a.grants.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return authz.Assignment{}, false
	}
	required, scope := managers(existing)
	if !a.require(w, r, action, required, scope) {
		return authz.Assignment{}, false
	}
	return existing, true
}

func (a *API) handleRevoke(w http.ResponseWriter, r *http.Request) {
	existing, ok := a.loadManaged(w, r, "assignments.revoke")
	if !ok {
		return
	}
	if err := a.grants.Revoke(r.Context(), existing.ID); err != nil {
		handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "assignment.revoked", map[string]any{
		"assignment_id": existing.ID,
		"grantee":       existing.SubjectID,
		"role":          existing.Kind,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Active == nil {
		writeError(w, r, http.StatusBadRequest, "active is required")
		return
	}
	existing, ok := a.loadManaged(w, r, "assignments.update")
	if !ok {
		return
	}
	updated, err := a.grants.SetActive(r.Context(), existing.ID, *req.Active)
	if err != nil {
		handleError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "assignment.updated", map[string]any{
		"assignment_id": updated.ID,
		"active":        updated.Active,
	})
	writeJSON(w, http.StatusOK, updated)
}
