package postgres

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"

	"github.com/kennkash/delegated-groups/delegated"
)

const pgUniqueViolation = "23505"

func isDuplicateConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
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

	var newID int64
	err = p.primaryConnection.QueryRow(
		"INSERT INTO dg_user (username, email, lower_username, lower_email) VALUES ($1, $2, $3, $4) RETURNING id",
		username, email, identity.LowerUsername, identity.LowerEmail).Scan(&newID)
	if isDuplicateConflict(err) {
		id, err = p.lookupUser(identity)
		return id, false, err
	}
	if err != nil {
		return 0, false, err
	}
	return newID, true, nil
}

func (p *Provider) lookupUser(identity delegated.Identity) (int64, error) {
	var id int64
	err := p.primaryConnection.QueryRow(
		"SELECT id FROM dg_user WHERE lower_username = $1 AND lower_email = $2",
		identity.LowerUsername, identity.LowerEmail).Scan(&id)
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

	var newID int64
	err = p.primaryConnection.QueryRow(
		"INSERT INTO dg_managed_group (app, group_name, lower_group_name, delegation_id) VALUES ($1, $2, $3, $4) RETURNING id",
		app, groupName, lowerGroupName, delegationID).Scan(&newID)
	if isDuplicateConflict(err) {
		id, err = p.lookupGroup(app, lowerGroupName)
		return id, false, err
	}
	if err != nil {
		return 0, false, err
	}
	return newID, true, nil
}

func (p *Provider) lookupGroup(app delegated.App, lowerGroupName string) (int64, error) {
	var id int64
	err := p.primaryConnection.QueryRow(
		"SELECT id FROM dg_managed_group WHERE app = $1 AND lower_group_name = $2",
		app, lowerGroupName).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, delegated.ErrNoResultFound
	}
	return id, err
}

func (p *Provider) InsertOwner(groupID, userID int64, source delegated.SourceType, viaGroup string) (bool, error) {
	_, err := p.primaryConnection.Exec(
		"INSERT INTO dg_group_owner (managed_group_id, user_id, source_type, via_group_name) VALUES ($1, $2, $3, $4)",
		groupID, userID, source, viaGroup)
	if isDuplicateConflict(err) {
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
		"DELETE FROM dg_group_owner WHERE source_type = $1 AND via_group_name = ''"+
			" AND managed_group_id IN (SELECT id FROM dg_managed_group WHERE app = $2 AND lower_group_name = $3)"+
			" AND user_id IN (SELECT id FROM dg_user WHERE lower_username = $4)",
		delegated.SourceUserOwner, app, delegated.Fold(groupName), delegated.Fold(username))
	return err
}

func (p *Provider) RemoveGroupOwner(app delegated.App, groupName, viaGroup string) error {
	_, err := p.primaryConnection.Exec(
		"DELETE FROM dg_group_owner WHERE source_type = $1 AND via_group_name = $2"+
			" AND managed_group_id IN (SELECT id FROM dg_managed_group WHERE app = $3 AND lower_group_name = $4)",
		delegated.SourceGroupOwner, viaGroup, app, delegated.Fold(groupName))
	return err
}

func (p *Provider) DeleteGroup(app delegated.App, groupName string) error {
	res, err := p.primaryConnection.Exec(
		"DELETE FROM dg_managed_group WHERE app = $1 AND lower_group_name = $2",
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
	located := delegated.User{}
	err := p.primaryConnection.QueryRow(
		"SELECT id, username, email, lower_username, lower_email FROM dg_user WHERE lower_username = $1",
		delegated.Fold(username)).
		Scan(&located.ID, &located.Username, &located.Email, &located.LowerUsername, &located.LowerEmail)
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
			" WHERE app = $1 AND lower_group_name LIKE $2 ESCAPE '!' ORDER BY lower_group_name",
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
	out := ""
	for _, r := range in {
		switch r {
		case '!', '%', '_':
			out += "!"
		}
		out += string(r)
	}
	return out
}

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
			" WHERE u.lower_username = $1"+
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

func (p *Provider) OwnersOfGroup(app, groupName string) ([]delegated.OwnerRow, error) {
	rows, err := p.primaryConnection.Query(
		"SELECT mg.app, mg.group_name, u.username, u.email, o.source_type, o.via_group_name, o.created_at"+
			" FROM dg_group_owner AS o"+
			" JOIN dg_managed_group AS mg ON mg.id = o.managed_group_id"+
			" JOIN dg_user AS u ON u.id = o.user_id"+
			" WHERE mg.app = $1 AND mg.lower_group_name = $2"+
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
		if scanErr := rows.Scan(&row.App, &row.GroupName, &row.Username, &row.Email, &row.SourceType, &row.ViaGroupName, &row.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (p *Provider) RefreshView() error {
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
