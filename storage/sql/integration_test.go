package sql

import (
	"path/filepath"
	"testing"

	"github.com/kennkash/delegated-groups/delegated"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "delgroups_it.db")
	p := &Provider{SqlLite: true, PrimaryDSN: dbPath}
	if err := p.Initialize(); err != nil {
		t.Fatalf("init provider: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestInitializeIdempotent(t *testing.T) {
	p := newTestProvider(t)
	// Second run must find every migration already applied.
	if err := p.Initialize(); err != nil {
		t.Fatalf("re-initialize: %v", err)
	}
}

func TestFromJson(t *testing.T) {
	p, err := FromJson([]byte(`{"primaryDsn":"file.db","sqlLite":true}`))
	if err != nil {
		t.Fatalf("FromJson: %v", err)
	}
	if !p.SqlLite || p.PrimaryDSN != "file.db" {
		t.Fatalf("unexpected provider config: %+v", p)
	}
}

func TestResolveUserCaseInsensitiveIdentity(t *testing.T) {
	p := newTestProvider(t)

	id1, created, err := p.ResolveUser("Alice", "Alice@X.com")
	if err != nil || !created {
		t.Fatalf("first resolve: id=%d created=%v err=%v", id1, created, err)
	}
	id2, created, err := p.ResolveUser("ALICE", "alice@x.com")
	if err != nil || created {
		t.Fatalf("second resolve: created=%v err=%v", created, err)
	}
	if id1 != id2 {
		t.Fatalf("expected same user row, got %d and %d", id1, id2)
	}

	// Display casing stays first-seen.
	u, err := p.GetUser("alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.Username != "Alice" || u.Email != "Alice@X.com" {
		t.Fatalf("display form changed: %+v", u)
	}
}

func TestResolveUserCompositeKey(t *testing.T) {
	p := newTestProvider(t)

	id1, _, err := p.ResolveUser("sam", "sam@x.com")
	if err != nil {
		t.Fatalf("resolve sam: %v", err)
	}
	// Same username with a different email is a distinct identity.
	id2, created, err := p.ResolveUser("sam", "sam@y.com")
	if err != nil || !created {
		t.Fatalf("resolve sam@y: created=%v err=%v", created, err)
	}
	if id1 == id2 {
		t.Fatalf("expected distinct user rows for distinct identities")
	}
	// No-email users dedupe too.
	id3, _, err := p.ResolveUser("ghost", "")
	if err != nil {
		t.Fatalf("resolve ghost: %v", err)
	}
	id4, created, err := p.ResolveUser("Ghost", "")
	if err != nil || created || id3 != id4 {
		t.Fatalf("no-email identity not deduplicated: %d/%d created=%v err=%v", id3, id4, created, err)
	}
}

func TestResolveGroupCrossAppIsolation(t *testing.T) {
	p := newTestProvider(t)

	jiraID, created, err := p.ResolveGroup(delegated.AppJira, "admins", "")
	if err != nil || !created {
		t.Fatalf("jira admins: created=%v err=%v", created, err)
	}
	confID, created, err := p.ResolveGroup(delegated.AppConfluence, "admins", "")
	if err != nil || !created {
		t.Fatalf("confluence admins: created=%v err=%v", created, err)
	}
	if jiraID == confID {
		t.Fatalf("groups with the same name must be distinct per application")
	}

	again, created, err := p.ResolveGroup(delegated.AppJira, "ADMINS", "")
	if err != nil || created || again != jiraID {
		t.Fatalf("case-insensitive group resolve broken: id=%d created=%v err=%v", again, created, err)
	}
}

func TestInsertOwnerDedupAndDistinction(t *testing.T) {
	p := newTestProvider(t)

	groupID, _, _ := p.ResolveGroup(delegated.AppJira, "platform", "")
	userID, _, _ := p.ResolveUser("carol", "carol@x.com")

	created, err := p.InsertOwner(groupID, userID, delegated.SourceUserOwner, "")
	if err != nil || !created {
		t.Fatalf("first edge: created=%v err=%v", created, err)
	}
	created, err = p.InsertOwner(groupID, userID, delegated.SourceUserOwner, "")
	if err != nil || created {
		t.Fatalf("duplicate edge must be skipped: created=%v err=%v", created, err)
	}

	// A direct edge and inherited edges via different groups all coexist.
	if created, err = p.InsertOwner(groupID, userID, delegated.SourceGroupOwner, "leads"); err != nil || !created {
		t.Fatalf("inherited edge via leads: created=%v err=%v", created, err)
	}
	if created, err = p.InsertOwner(groupID, userID, delegated.SourceGroupOwner, "oncall"); err != nil || !created {
		t.Fatalf("inherited edge via oncall: created=%v err=%v", created, err)
	}

	owners, err := p.OwnersOfGroup("jira", "platform")
	if err != nil || len(owners) != 3 {
		t.Fatalf("expected 3 edges, got %d err=%v", len(owners), err)
	}
}

func TestDeleteGroupCascades(t *testing.T) {
	p := newTestProvider(t)

	groupID, _, _ := p.ResolveGroup(delegated.AppJira, "doomed", "")
	userID, _, _ := p.ResolveUser("dan", "dan@x.com")
	if _, err := p.InsertOwner(groupID, userID, delegated.SourceUserOwner, ""); err != nil {
		t.Fatalf("insert edge: %v", err)
	}

	if err := p.DeleteGroup(delegated.AppJira, "Doomed"); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	owners, err := p.OwnersOfGroup("jira", "doomed")
	if err != nil {
		t.Fatalf("OwnersOfGroup after delete: %v", err)
	}
	if len(owners) != 0 {
		t.Fatalf("cascade failed, %d edges remain", len(owners))
	}

	counts, err := p.Counts()
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.Owners != 0 || counts.Groups != 0 || counts.Users != 1 {
		t.Fatalf("unexpected counts after cascade: %+v", counts)
	}

	if err := p.DeleteGroup(delegated.AppJira, "doomed"); err != delegated.ErrNoResultFound {
		t.Fatalf("expected ErrNoResultFound, got %v", err)
	}
}

func TestAllOwnersOrdering(t *testing.T) {
	p := newTestProvider(t)

	for _, fixture := range []struct {
		app   delegated.App
		group string
	}{
		{delegated.AppJira, "zeta"},
		{delegated.AppJira, "alpha"},
		{delegated.AppConfluence, "beta"},
	} {
		groupID, _, _ := p.ResolveGroup(fixture.app, fixture.group, "")
		userID, _, _ := p.ResolveUser("erin", "erin@x.com")
		if _, err := p.InsertOwner(groupID, userID, delegated.SourceUserOwner, ""); err != nil {
			t.Fatalf("insert %s/%s: %v", fixture.app, fixture.group, err)
		}
	}

	rows, err := p.AllOwners()
	if err != nil {
		t.Fatalf("AllOwners: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	want := []struct {
		app   delegated.App
		group string
	}{
		{delegated.AppConfluence, "beta"},
		{delegated.AppJira, "alpha"},
		{delegated.AppJira, "zeta"},
	}
	for i, w := range want {
		if rows[i].App != w.app || rows[i].GroupName != w.group {
			t.Fatalf("row %d: got %s/%s want %s/%s", i, rows[i].App, rows[i].GroupName, w.app, w.group)
		}
	}
}

func TestGroupsForUserCaseInsensitive(t *testing.T) {
	p := newTestProvider(t)

	groupID, _, _ := p.ResolveGroup(delegated.AppJira, "tools", "")
	userID, _, _ := p.ResolveUser("Bob", "bob@x.com")
	if _, err := p.InsertOwner(groupID, userID, delegated.SourceUserOwner, ""); err != nil {
		t.Fatalf("insert edge: %v", err)
	}

	lower, err := p.GroupsForUser("bob")
	if err != nil {
		t.Fatalf("GroupsForUser(bob): %v", err)
	}
	upper, err := p.GroupsForUser("BOB")
	if err != nil {
		t.Fatalf("GroupsForUser(BOB): %v", err)
	}
	if len(lower) != 1 || len(upper) != 1 || lower[0] != upper[0] {
		t.Fatalf("case-folded lookups differ: %v vs %v", lower, upper)
	}
}

func TestQueriesWithNoMatch(t *testing.T) {
	p := newTestProvider(t)

	owners, err := p.OwnersOfGroup("jira", "nonexistent")
	if err != nil || len(owners) != 0 {
		t.Fatalf("missing group: rows=%d err=%v", len(owners), err)
	}
	owners, err = p.OwnersOfGroup("bitbucket", "whatever")
	if err != nil || len(owners) != 0 {
		t.Fatalf("unknown app: rows=%d err=%v", len(owners), err)
	}
	groups, err := p.GroupsForUser("nobody")
	if err != nil || len(groups) != 0 {
		t.Fatalf("missing user: rows=%d err=%v", len(groups), err)
	}
	if _, err := p.GetUser("nobody"); err != delegated.ErrNoResultFound {
		t.Fatalf("GetUser missing: %v", err)
	}
}

func TestEndToEndOwnersOfGroup(t *testing.T) {
	p := newTestProvider(t)

	if err := p.AddUserOwner(delegated.AppJira, "admins", "alice", "alice@x.com"); err != nil {
		t.Fatalf("AddUserOwner: %v", err)
	}
	if err := p.AddGroupOwner(delegated.AppJira, "admins", "leads", "bob", "bob@x.com"); err != nil {
		t.Fatalf("AddGroupOwner: %v", err)
	}
	if err := p.RefreshView(); err != nil {
		t.Fatalf("RefreshView: %v", err)
	}

	owners, err := p.OwnersOfGroup("jira", "admins")
	if err != nil {
		t.Fatalf("OwnersOfGroup: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("expected 2 owners, got %d", len(owners))
	}
	// GROUP_OWNER sorts before USER_OWNER on source type.
	if owners[0].Username != "bob" || owners[0].SourceType != delegated.SourceGroupOwner || owners[0].ViaGroupName != "leads" {
		t.Fatalf("unexpected first owner: %+v", owners[0])
	}
	if owners[1].Username != "alice" || owners[1].SourceType != delegated.SourceUserOwner || owners[1].ViaGroupName != "" {
		t.Fatalf("unexpected second owner: %+v", owners[1])
	}
	if owners[1].CreatedAt.IsZero() {
		t.Fatalf("created_at not populated")
	}

	groups, err := p.GroupsForUser("alice")
	if err != nil || len(groups) != 1 {
		t.Fatalf("GroupsForUser(alice): rows=%d err=%v", len(groups), err)
	}
	if groups[0].App != delegated.AppJira || groups[0].GroupName != "admins" {
		t.Fatalf("unexpected group row: %+v", groups[0])
	}
}

func TestRemoveOwners(t *testing.T) {
	p := newTestProvider(t)

	if err := p.AddUserOwner(delegated.AppConfluence, "wiki-admins", "frank", "frank@x.com"); err != nil {
		t.Fatalf("AddUserOwner: %v", err)
	}
	if err := p.AddGroupOwner(delegated.AppConfluence, "wiki-admins", "SiteOps", "gail", "gail@x.com"); err != nil {
		t.Fatalf("AddGroupOwner: %v", err)
	}
	if err := p.AddGroupOwner(delegated.AppConfluence, "wiki-admins", "", "gail", "gail@x.com"); err == nil {
		t.Fatalf("AddGroupOwner without via group must fail")
	}

	if err := p.RemoveUserOwner(delegated.AppConfluence, "WIKI-ADMINS", "FRANK"); err != nil {
		t.Fatalf("RemoveUserOwner: %v", err)
	}
	if err := p.RemoveGroupOwner(delegated.AppConfluence, "wiki-admins", "SiteOps"); err != nil {
		t.Fatalf("RemoveGroupOwner: %v", err)
	}

	owners, err := p.OwnersOfGroup("confluence", "wiki-admins")
	if err != nil || len(owners) != 0 {
		t.Fatalf("expected no owners left: rows=%d err=%v", len(owners), err)
	}
}

func TestSearchGroupsPrefix(t *testing.T) {
	p := newTestProvider(t)

	for _, name := range []string{"Dev_Tools", "DevXTools", "devops", "ops"} {
		if _, _, err := p.ResolveGroup(delegated.AppJira, name, ""); err != nil {
			t.Fatalf("resolve %s: %v", name, err)
		}
	}

	groups, err := p.SearchGroups(delegated.AppJira, "dev")
	if err != nil {
		t.Fatalf("SearchGroups: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("expected 3 matches for dev, got %d", len(groups))
	}

	// The underscore is literal, not a wildcard.
	groups, err = p.SearchGroups(delegated.AppJira, "dev_")
	if err != nil {
		t.Fatalf("SearchGroups dev_: %v", err)
	}
	if len(groups) != 1 || groups[0].GroupName != "Dev_Tools" {
		t.Fatalf("expected only Dev_Tools, got %+v", groups)
	}

	groups, err = p.SearchGroups(delegated.AppConfluence, "dev")
	if err != nil || len(groups) != 0 {
		t.Fatalf("prefix search must not cross applications: %d err=%v", len(groups), err)
	}
}
