package authz

import (
	"fmt"
	"strings"
	"time"
)

// Assignment grants a role kind to a subject, optionally scoped to an organization or team.
type Assignment struct {
	ID             string    `json:"id"`
	SubjectID      string    `json:"subject_id"`
	Kind           Kind      `json:"role"`
	OrganizationID string    `json:"organization_id,omitempty"`
	TeamID         string    `json:"team_id,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate checks the scope requirements of the assignment's kind.
func (a Assignment) Validate() error {
	if strings.TrimSpace(a.SubjectID) == "" {
		return fmt.Errorf("%w: subject_id is required", ErrInvalidAssignment)
	}
	if !a.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRole, a.Kind)
	}
	switch a.Kind {
	case KindOrgAdmin:
		if a.OrganizationID == "" {
			return fmt.Errorf("%w: org_admin requires organization_id", ErrInvalidAssignment)
		}
	case KindTeamAdmin:
		if a.TeamID == "" {
			return fmt.Errorf("%w: team_admin requires team_id", ErrInvalidAssignment)
		}
	}
	return nil
}

// Scope is the organization and/or team an action targets. Empty fields are unrestricted.
type Scope struct {
	OrganizationID string `json:"organization_id,omitempty"`
	TeamID         string `json:"team_id,omitempty"`
}

// Reason codes carried by a Decision.
const (
	ReasonPlatformWide     = "platform_wide"
	ReasonRoleMatched      = "role_matched"
	ReasonNoAssignments    = "no_assignments"
	ReasonNoMatchingRole   = "no_matching_role"
	ReasonScopeMismatch    = "scope_mismatch"
	ReasonStoreUnavailable = "store_unavailable"
	ReasonTimeout          = "timeout"
)

// Decision is the outcome of one Authorize call. It is never persisted.
type Decision struct {
	Permitted bool        `json:"permitted"`
	Matched   *Assignment `json:"matched_assignment,omitempty"`
	Reason    string      `json:"reason"`
}
