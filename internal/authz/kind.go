package authz

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is a role kind. The set is closed.
type Kind string

const (
	KindUser          Kind = "user"
	KindTeamAdmin     Kind = "team_admin"
	KindOrgAdmin      Kind = "org_admin"
	KindPlatformAdmin Kind = "platform_admin"
	KindSuperAdmin    Kind = "super_admin"
)

var kindLevels = map[Kind]int{
	KindUser:          1,
	KindTeamAdmin:     2,
	KindOrgAdmin:      3,
	KindPlatformAdmin: 4,
	KindSuperAdmin:    5,
}

// ParseKind converts a stored or submitted role name to a Kind.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.TrimSpace(strings.ToLower(raw)))
	if _, ok := kindLevels[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindLevels[k]
	return ok
}

// PlatformWide reports whether k applies to every organization and team.
func (k Kind) PlatformWide() bool {
	return k == KindPlatformAdmin || k == KindSuperAdmin
}

// Level is the position of k in the role ordering (0 for unknown kinds).
// Authorize never compares levels: a higher kind does not satisfy a check
// for a lower one.
func (k Kind) Level() int {
	return kindLevels[k]
}

func (k Kind) String() string { return string(k) }

// KindSet is the set of kinds acceptable for an action.
type KindSet map[Kind]struct{}

// Kinds builds a KindSet.
func Kinds(kinds ...Kind) KindSet {
	set := make(KindSet, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	_, ok := s[k]
	return ok
}

// Sorted returns the kinds ordered by level, for logs and responses.
func (s KindSet) Sorted() []Kind {
	out := make([]Kind, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level() < out[j].Level() })
	return out
}

// Highest returns the kind with the greatest level among assignments, or "" if none.
func Highest(assignments []Assignment) Kind {
	var best Kind
	for _, a := range assignments {
		if a.Active && a.Kind.Level() > best.Level() {
			best = a.Kind
		}
	}
	return best
}
