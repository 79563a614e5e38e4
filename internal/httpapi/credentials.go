package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamhub.app/internal/audit"
	"teamhub.app/internal/authz"
	"teamhub.app/internal/secrets"
)

type putCredentialRequest struct {
	Value string `json:"value"`
}

var credentialAdmins = authz.Kinds(authz.KindOrgAdmin)

// handleListCredentials reports which credentials are configured. Values are
// never returned over HTTP.
func (a *API) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if !a.require(w, r, "credentials.list", credentialAdmins, authz.Scope{OrganizationID: orgID}) {
		return
	}
	status, err := a.vault.Configured(r.Context(), orgID)
	if err != nil {
		handleCredentialError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"organization_id": orgID, "credentials": status})
}

func (a *API) handlePutCredential(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if !a.require(w, r, "credentials.put", credentialAdmins, authz.Scope{OrganizationID: orgID}) {
		return
	}
	name, err := secrets.ParseCredentialName(chi.URLParam(r, "name"))
	if err != nil {
		handleCredentialError(w, r, err)
		return
	}
	var req putCredentialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.vault.PutCredential(r.Context(), orgID, name, req.Value); err != nil {
		handleCredentialError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "credential.stored", map[string]any{
		"organization_id": orgID,
		"credential":      name,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if !a.require(w, r, "credentials.delete", credentialAdmins, authz.Scope{OrganizationID: orgID}) {
		return
	}
	name, err := secrets.ParseCredentialName(chi.URLParam(r, "name"))
	if err != nil {
		handleCredentialError(w, r, err)
		return
	}
	if err := a.vault.DeleteCredential(r.Context(), orgID, name); err != nil {
		handleCredentialError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "credential.cleared", map[string]any{
		"organization_id": orgID,
		"credential":      name,
	})
	w.WriteHeader(http.StatusNoContent)
}
