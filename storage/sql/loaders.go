package sql

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"golang.org/x/sync/errgroup"

	"github.com/kennkash/delegated-groups/delegated"
)

const mySQLDuplicateEntry = 1062

func (p *Provider) isDuplicateConflict(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mySQLDuplicateEntry {
		return true
	}
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}
	return false
}

func (p *Provider) ResolveUser(username, email string) (int64, bool, error) {
	identity := delegated.NewIdentity(username, email)

	id, err := p.lookupUser(identity)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, delegated.ErrNoResultFound) {
		return 0, false, err
	}

	res, err := p.primaryConnection.Exec(
		"INSERT INTO dg_user (username, email, lower_username, lower_email) VALUES (?, ?, ?, ?)",
		username, email, identity.LowerUsername, identity.LowerEmail)
	if p.isDuplicateConflict(err) {
		// Lost the insert race to a concurrent importer; the row exists now.
		id, err = p.lookupUser(identity)
		return id, false, err
	}
	if err != nil {
		return 0, false, err
	}
	id, err = res.LastInsertId()
	return id, true, err
}

func (p *Provider) lookupUser(identity delegated.Identity) (int64, error) {
	q := p.primaryConnection.QueryRow(
		"SELECT id FROM dg_user WHERE lower_username = ? AND lower_email = ?",
		identity.LowerUsername, identity.LowerEmail)
	var id int64
	err := q.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, delegated.ErrNoResultFound
	}
	return id, err
}

func (p *Provider) ResolveGroup(app delegated.App, groupName, delegationID string) (int64, bool, error) {
	lowerGroupName := delegated.Fold(groupName)

	id, err := p.lookupGroup(app, lowerGroupName)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, delegated.ErrNoResultFound) {
		return 0, false, err
	}

	res, err := p.primaryConnection.Exec(
		"INSERT INTO dg_managed_group (app, group_name, lower_group_name, delegation_id) VALUES (?, ?, ?, ?)",
		app, groupName, lowerGroupName, delegationID)
	if p.isDuplicateConflict(err) {
		id, err = p.lookupGroup(app, lowerGroupName)
		return id, false, err
	}
	if err != nil {
		return 0, false, err
	}
	id, err = res.LastInsertId()
	return id, true, err
}

func (p *Provider) lookupGroup(app delegated.App, lowerGroupName string) (int64, error) {
	q := p.primaryConnection.QueryRow(
		"SELECT id FROM dg_managed_group WHERE app = ? AND lower_group_name = ?",
		app, lowerGroupName)
	var id int64
	err := q.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, delegated.ErrNoResultFound
	}
	return id, err
}

func (p *Provider) InsertOwner(groupID, userID int64, source delegated.SourceType, viaGroup string) (bool, error) {
	_, err := p.primaryConnection.Exec(
		"INSERT INTO dg_group_owner (managed_group_id, user_id, source_type, via_group_name) VALUES (?, ?, ?, ?)",
		groupID, userID, source, viaGroup)
	if p.isDuplicateConflict(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) AddUserOwner(app delegated.App, groupName, username, email string) error {
	groupID, _, err := p.ResolveGroup(app, groupName, "")
	if err != nil {
		return err
	}
	userID, _, err := p.ResolveUser(username, email)
	if err != nil {
		return err
	}
	_, err = p.InsertOwner(groupID, userID, delegated.SourceUserOwner, "")
	return err
}

func (p *Provider) AddGroupOwner(app delegated.App, groupName, viaGroup, username, email string) error {
	if viaGroup == "" {
		return errors.New("via group name required")
	}
	groupID, _, err := p.ResolveGroup(app, groupName, "")
	if err != nil {
		return err
	}
	userID, _, err := p.ResolveUser(username, email)
	if err != nil {
		return err
	}
	_, err = p.InsertOwner(groupID, userID, delegated.SourceGroupOwner, viaGroup)
	return err
}

func (p *Provider) RemoveUserOwner(app delegated.App, groupName, username string) error {
	_, err := p.primaryConnection.Exec(
		"DELETE FROM dg_group_owner WHERE source_type = ? AND via_group_name = ''"+
			" AND managed_group_id IN (SELECT id FROM dg_managed_group WHERE app = ? AND lower_group_name = ?)"+
			" AND user_id IN (SELECT id FROM dg_user WHERE lower_username = ?)",
		delegated.SourceUserOwner, app, delegated.Fold(groupName), delegated.Fold(username))
	return err
}

// RemoveGroupOwner drops every edge a managed group inherited through
// viaGroup, regardless of which users currently carry it.
func (p *Provider) RemoveGroupOwner(app delegated.App, groupName, viaGroup string) error {
	_, err := p.primaryConnection.Exec(
		"DELETE FROM dg_group_owner WHERE source_type = ? AND via_group_name = ?"+
			" AND managed_group_id IN (SELECT id FROM dg_managed_group WHERE app = ? AND lower_group_name = ?)",
		delegated.SourceGroupOwner, viaGroup, app, delegated.Fold(groupName))
	return err
}

func (p *Provider) DeleteGroup(app delegated.App, groupName string) error {
	res, err := p.primaryConnection.Exec(
		"DELETE FROM dg_managed_group WHERE app = ? AND lower_group_name = ?",
		app, delegated.Fold(groupName))
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return delegated.ErrNoResultFound
	}
	return nil
}

func (p *Provider) GetUser(username string) (*delegated.User, error) {
	q := p.primaryConnection.QueryRow(
		"SELECT id, username, email, lower_username, lower_email FROM dg_user WHERE lower_username = ?",
		delegated.Fold(username))
	located := delegated.User{}
	err := q.Scan(&located.ID, &located.Username, &located.Email, &located.LowerUsername, &located.LowerEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, delegated.ErrNoResultFound
	}
	if err != nil {
		return nil, err
	}
	return &located, nil
}

func (p *Provider) SearchGroups(app delegated.App, prefix string) ([]delegated.ManagedGroup, error) {
	pattern := escapeLike(delegated.Fold(prefix)) + "%"
	rows, err := p.primaryConnection.Query(
		"SELECT id, app, group_name, lower_group_name, delegation_id FROM dg_managed_group"+
			" WHERE app = ? AND lower_group_name LIKE ? ESCAPE '!' ORDER BY lower_group_name",
		app, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []delegated.ManagedGroup
	for rows.Next() {
		g := delegated.ManagedGroup{}
		if scanErr := rows.Scan(&g.ID, &g.App, &g.GroupName, &g.LowerGroupName, &g.DelegationID); scanErr != nil {
			return nil, scanErr
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func escapeLike(in string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(in)
}

// AllOwners reads the derived view rather than the base tables, so its
// result is by construction what the view exposes.
func (p *Provider) AllOwners() ([]delegated.OwnerRow, error) {
	rows, err := p.primaryConnection.Query(
		"SELECT app, delegated_group, owner_username, owner_email, owner_type, via_group_name, owner_created_at" +
			" FROM vw_delegated_group_owners" +
			" ORDER BY app, delegated_group_lower, LOWER(owner_username)")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOwnerRows(rows)
}

func (p *Provider) GroupsForUser(username string) ([]delegated.UserGroupRow, error) {
	rows, err := p.primaryConnection.Query(
		"SELECT mg.app, mg.group_name, o.source_type, o.via_group_name"+
			" FROM dg_group_owner AS o"+
			" JOIN dg_managed_group AS mg ON mg.id = o.managed_group_id"+
			" JOIN dg_user AS u ON u.id = o.user_id"+
			" WHERE u.lower_username = ?"+
			" ORDER BY mg.app, mg.lower_group_name",
		delegated.Fold(username))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []delegated.UserGroupRow
	for rows.Next() {
		row := delegated.UserGroupRow{}
		if scanErr := rows.Scan(&row.App, &row.GroupName, &row.SourceType, &row.ViaGroupName); scanErr != nil {
			return nil, scanErr
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// OwnersOfGroup matches app and group name case-insensitively; an unknown
// application tag simply matches nothing. Direct edges (empty via group)
// order before inherited ones.
func (p *Provider) OwnersOfGroup(app, groupName string) ([]delegated.OwnerRow, error) {
	rows, err := p.primaryConnection.Query(
		"SELECT mg.app, mg.group_name, u.username, u.email, o.source_type, o.via_group_name, o.created_at"+
			" FROM dg_group_owner AS o"+
			" JOIN dg_managed_group AS mg ON mg.id = o.managed_group_id"+
			" JOIN dg_user AS u ON u.id = o.user_id"+
			" WHERE mg.app = ? AND mg.lower_group_name = ?"+
			" ORDER BY o.source_type, o.via_group_name, u.lower_username",
		delegated.Fold(app), delegated.Fold(groupName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOwnerRows(rows)
}

func scanOwnerRows(rows *sql.Rows) ([]delegated.OwnerRow, error) {
	var result []delegated.OwnerRow
	for rows.Next() {
		row := delegated.OwnerRow{}
		email := sql.NullString{}
		createdAt := sql.NullString{}
		if scanErr := rows.Scan(&row.App, &row.GroupName, &row.Username, &email, &row.SourceType, &row.ViaGroupName, &createdAt); scanErr != nil {
			return nil, scanErr
		}
		row.Email = email.String
		if createdAt.Valid && createdAt.String != "" {
			row.CreatedAt = timeFromString(createdAt.String)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// RefreshView drops and recreates vw_delegated_group_owners. A live view
// always reflects the base tables; recreating it covers definition changes
// between imports.
func (p *Provider) RefreshView() error {
	if p.SqlLite {
		if _, err := p.primaryConnection.Exec("DROP VIEW IF EXISTS vw_delegated_group_owners;"); err != nil {
			return err
		}
		_, err := p.primaryConnection.Exec("CREATE VIEW vw_delegated_group_owners AS " + viewSelect + ";")
		return err
	}
	_, err := p.primaryConnection.Exec("CREATE OR REPLACE VIEW vw_delegated_group_owners AS " + viewSelect + ";")
	return err
}

func (p *Provider) Counts() (delegated.StoreCounts, error) {
	counts := delegated.StoreCounts{}
	count := func(table string, into *int64) func() error {
		return func() error {
			return p.primaryConnection.QueryRow("SELECT COUNT(*) FROM " + table).Scan(into)
		}
	}

	g := errgroup.Group{}
	g.Go(count("dg_user", &counts.Users))
	g.Go(count("dg_managed_group", &counts.Groups))
	g.Go(count("dg_group_owner", &counts.Owners))
	return counts, g.Wait()
}
