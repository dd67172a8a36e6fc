package delegated

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFold(t *testing.T) {
	require.Equal(t, "alice", Fold("  Alice "))
	require.Equal(t, Fold("Straße"), Fold("STRASSE"), "case folding, not ASCII lowercasing")
	require.Equal(t, "", Fold("   "))
}

func TestNewIdentity(t *testing.T) {
	a := NewIdentity("Alice", "Alice@Example.COM")
	b := NewIdentity("ALICE ", " alice@example.com")
	require.Equal(t, a, b)
	require.Equal(t, "alice", a.LowerUsername)
	require.Equal(t, "alice@example.com", a.LowerEmail)

	// Same username with different mailboxes stays distinct.
	c := NewIdentity("alice", "alice@other.com")
	require.NotEqual(t, a, c)

	// No email at all is its own identity.
	d := NewIdentity("alice", "")
	require.NotEqual(t, a, d)
	require.Equal(t, d, NewIdentity("Alice", "  "))
}

func TestParseApp(t *testing.T) {
	for in, want := range map[string]App{
		"jira":         AppJira,
		"JIRA":         AppJira,
		" Confluence ": AppConfluence,
	} {
		got, err := ParseApp(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}

	_, err := ParseApp("bitbucket")
	require.ErrorContains(t, err, "bitbucket")
}

func TestParseSourceType(t *testing.T) {
	got, err := ParseSourceType("USER_OWNER")
	require.NoError(t, err)
	require.Equal(t, SourceUserOwner, got)

	got, err = ParseSourceType("GROUP_OWNER")
	require.NoError(t, err)
	require.Equal(t, SourceGroupOwner, got)

	// The export format is fixed uppercase; anything else is malformed.
	_, err = ParseSourceType("user_owner")
	require.Error(t, err)
	_, err = ParseSourceType("")
	require.Error(t, err)
}
