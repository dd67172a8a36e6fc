package delegated

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold normalizes a value for case-insensitive identity comparison.
// Every write and lookup path must fold through this function so the
// stored lower_* columns stay comparable.
func Fold(in string) string {
	return cases.Fold().String(strings.TrimSpace(in))
}

// Identity is the deduplication key for a user across both applications.
type Identity struct {
	LowerUsername string
	LowerEmail    string
}

// NewIdentity folds a display username/email pair into its identity key.
func NewIdentity(username, email string) Identity {
	return Identity{
		LowerUsername: Fold(username),
		LowerEmail:    Fold(email),
	}
}
