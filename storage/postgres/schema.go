package postgres

import (
	"crypto/sha1"
	"fmt"
)

type migration struct {
	key   string
	query string
}

func migQuery(query string) migration {
	return migration{
		key:   fmt.Sprintf("%x", sha1.Sum([]byte(query)))[0:8],
		query: query,
	}
}

const viewSelect = "SELECT " +
	"mg.app AS app, " +
	"mg.group_name AS delegated_group, " +
	"mg.lower_group_name AS delegated_group_lower, " +
	"u.username AS owner_username, " +
	"u.email AS owner_email, " +
	"o.source_type AS owner_type, " +
	"o.via_group_name AS via_group_name, " +
	"o.created_at AS owner_created_at " +
	"FROM dg_group_owner AS o " +
	"JOIN dg_managed_group AS mg ON mg.id = o.managed_group_id " +
	"JOIN dg_user AS u ON u.id = o.user_id"

func migrations() []migration {
	var queries []migration

	queries = append(queries, migQuery("CREATE TABLE dg_user ("+
		"id             bigserial PRIMARY KEY,"+
		"username       text NOT NULL,"+
		"email          text NOT NULL DEFAULT '',"+
		"lower_username text NOT NULL,"+
		"lower_email    text NOT NULL DEFAULT ''"+
		");"))
	queries = append(queries, migQuery(`CREATE UNIQUE INDEX uq_user_identity ON dg_user (lower_username, lower_email);`))

	queries = append(queries, migQuery("CREATE TABLE dg_managed_group ("+
		"id               bigserial PRIMARY KEY,"+
		"app              text NOT NULL,"+
		"group_name       text NOT NULL,"+
		"lower_group_name text NOT NULL,"+
		"delegation_id    text NOT NULL DEFAULT ''"+
		");"))
	queries = append(queries, migQuery(`CREATE UNIQUE INDEX uq_app_group ON dg_managed_group (app, lower_group_name);`))

	queries = append(queries, migQuery("CREATE TABLE dg_group_owner ("+
		"id               bigserial PRIMARY KEY,"+
		"managed_group_id bigint NOT NULL REFERENCES dg_managed_group (id) ON DELETE CASCADE,"+
		"user_id          bigint NOT NULL REFERENCES dg_user (id) ON DELETE CASCADE,"+
		"source_type      text NOT NULL,"+
		"via_group_name   text NOT NULL DEFAULT '',"+
		"created_at       timestamptz NOT NULL DEFAULT now()"+
		");"))
	queries = append(queries, migQuery(`CREATE UNIQUE INDEX uq_owner_row ON dg_group_owner (managed_group_id, user_id, source_type, via_group_name);`))
	queries = append(queries, migQuery(`CREATE INDEX owner_group_index ON dg_group_owner (managed_group_id);`))
	queries = append(queries, migQuery(`CREATE INDEX owner_user_index ON dg_group_owner (user_id);`))

	queries = append(queries, migQuery("CREATE OR REPLACE VIEW vw_delegated_group_owners AS "+viewSelect+";"))

	return queries
}
