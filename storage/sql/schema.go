package sql

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

// viewSelect is the body of vw_delegated_group_owners, shared by the
// migration that first creates the view and RefreshView.
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

// migrations returns the schema in apply order. The lower_email and
// via_group_name columns are NOT NULL with '' meaning absent: unique
// indexes treat NULLs as distinct, which would let duplicate no-email
// identities and duplicate direct edges through.
func migrations(sqlite bool) []migration {
	if sqlite {
		return sqliteMigrations()
	}
	return mysqlMigrations()
}

func sqliteMigrations() []migration {
	var queries []migration

	// Users
	queries = append(queries, migQuery("create table dg_user ("+
		"id             integer primary key autoincrement,"+
		"username       text             not null,"+
		"email          text  default '' not null,"+
		"lower_username text             not null,"+
		"lower_email    text  default '' not null"+
		");"))
	queries = append(queries, migQuery(`create unique index uq_user_identity on dg_user(lower_username, lower_email);`))

	// Managed groups
	queries = append(queries, migQuery("create table dg_managed_group ("+
		"id               integer primary key autoincrement,"+
		"app              text             not null,"+
		"group_name       text             not null,"+
		"lower_group_name text             not null,"+
		"delegation_id    text  default '' not null"+
		");"))
	queries = append(queries, migQuery(`create unique index uq_app_group on dg_managed_group(app, lower_group_name);`))

	// Ownership edges
	queries = append(queries, migQuery("create table dg_group_owner ("+
		"id               integer primary key autoincrement,"+
		"managed_group_id integer not null references dg_managed_group(id) on delete cascade,"+
		"user_id          integer not null references dg_user(id) on delete cascade,"+
		"source_type      text                                  not null,"+
		"via_group_name   text     default ''                   not null,"+
		"created_at       datetime default CURRENT_TIMESTAMP    not null"+
		");"))
	queries = append(queries, migQuery(`create unique index uq_owner_row on dg_group_owner(managed_group_id, user_id, source_type, via_group_name);`))
	queries = append(queries, migQuery(`create index owner_group_index on dg_group_owner(managed_group_id);`))
	queries = append(queries, migQuery(`create index owner_user_index on dg_group_owner(user_id);`))

	// Effective owners view
	queries = append(queries, migQuery("CREATE VIEW vw_delegated_group_owners AS "+viewSelect+";"))

	return queries
}

func mysqlMigrations() []migration {
	var queries []migration

	queries = append(queries, migQuery("CREATE TABLE `dg_user` ("+
		"`id`             bigint       NOT NULL AUTO_INCREMENT,"+
		"`username`       varchar(255) NOT NULL,"+
		"`email`          varchar(255) NOT NULL DEFAULT '',"+
		"`lower_username` varchar(255) NOT NULL,"+
		"`lower_email`    varchar(255) NOT NULL DEFAULT '',"+
		"PRIMARY KEY (`id`),"+
		"UNIQUE KEY `uq_user_identity` (`lower_username`, `lower_email`)"+
		");"))

	queries = append(queries, migQuery("CREATE TABLE `dg_managed_group` ("+
		"`id`               bigint       NOT NULL AUTO_INCREMENT,"+
		"`app`              varchar(20)  NOT NULL,"+
		"`group_name`       varchar(255) NOT NULL,"+
		"`lower_group_name` varchar(255) NOT NULL,"+
		"`delegation_id`    varchar(255) NOT NULL DEFAULT '',"+
		"PRIMARY KEY (`id`),"+
		"UNIQUE KEY `uq_app_group` (`app`, `lower_group_name`)"+
		");"))

	queries = append(queries, migQuery("CREATE TABLE `dg_group_owner` ("+
		"`id`               bigint       NOT NULL AUTO_INCREMENT,"+
		"`managed_group_id` bigint       NOT NULL,"+
		"`user_id`          bigint       NOT NULL,"+
		"`source_type`      varchar(20)  NOT NULL,"+
		"`via_group_name`   varchar(255) NOT NULL DEFAULT '',"+
		"`created_at`       datetime     NOT NULL DEFAULT CURRENT_TIMESTAMP,"+
		"PRIMARY KEY (`id`),"+
		"UNIQUE KEY `uq_owner_row` (`managed_group_id`, `user_id`, `source_type`, `via_group_name`),"+
		"KEY `owner_group_index` (`managed_group_id`),"+
		"KEY `owner_user_index` (`user_id`),"+
		"CONSTRAINT `fk_owner_group` FOREIGN KEY (`managed_group_id`) REFERENCES `dg_managed_group` (`id`) ON DELETE CASCADE,"+
		"CONSTRAINT `fk_owner_user` FOREIGN KEY (`user_id`) REFERENCES `dg_user` (`id`) ON DELETE CASCADE"+
		");"))

	queries = append(queries, migQuery("CREATE OR REPLACE VIEW vw_delegated_group_owners AS "+viewSelect+";"))

	return queries
}
