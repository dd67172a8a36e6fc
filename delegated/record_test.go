package delegated

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordValidate(t *testing.T) {
	base := Record{
		Username:   "alice",
		Email:      "alice@example.com",
		GroupName:  "admins",
		SourceType: "USER_OWNER",
	}
	require.NoError(t, base.Validate(AppJira))

	// The app column is optional, but when present it must match the export.
	tagged := base
	tagged.App = "JIRA"
	require.NoError(t, tagged.Validate(AppJira))
	require.Error(t, tagged.Validate(AppConfluence))

	bad := base
	bad.App = "bamboo"
	require.Error(t, bad.Validate(AppJira))

	bad = base
	bad.GroupName = ""
	require.ErrorContains(t, bad.Validate(AppJira), "group name")

	bad = base
	bad.Username = ""
	require.ErrorContains(t, bad.Validate(AppJira), "username")

	bad = base
	bad.SourceType = "INHERITED"
	require.Error(t, bad.Validate(AppJira))

	// Email and via group are optional.
	sparse := Record{Username: "bob", GroupName: "ops", SourceType: "GROUP_OWNER", ViaGroupName: "leads"}
	require.NoError(t, sparse.Validate(AppJira))
}
