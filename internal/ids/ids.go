package ids

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// New returns a lexicographically sortable identifier for assignments, teams and organizations.
func New() string {
	return strings.ToLower(ulid.Make().String())
}

// Valid reports whether id was produced by New (case-insensitive).
func Valid(id string) bool {
	_, err := ulid.ParseStrict(strings.ToUpper(id))
	return err == nil
}
