package sql

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

const ProviderKey = "sql"

type Provider struct {
	PrimaryDSN string `json:"primaryDsn"` // user:password@tcp(hostname:port), or a file path for sqlite
	Database   string `json:"database"`
	SqlLite    bool   `json:"sqlLite"`

	primaryConnection *sql.DB
}

func (p *Provider) Close() error {
	var errs []error
	if p.primaryConnection != nil {
		errs = append(errs, p.primaryConnection.Close())
	}
	return errors.Join(errs...)
}

func (p *Provider) Connect() error {
	if p.primaryConnection == nil {
		var err error
		if p.SqlLite {
			p.primaryConnection, err = sql.Open("sqlite", p.PrimaryDSN)
			if err != nil {
				return fmt.Errorf("failed to open db %s", err)
			}
			// A single connection keeps the foreign_keys pragma in force
			// and serializes writers from the parallel importer.
			p.primaryConnection.SetMaxOpenConns(1)
			if _, err = p.primaryConnection.Exec("PRAGMA foreign_keys = ON;"); err != nil {
				return err
			}
		} else {
			p.primaryConnection, err = sql.Open("mysql", p.PrimaryDSN+"/"+p.Database)
			if err != nil {
				return err
			}
		}
	}

	// Ping the database to ensure a successful connection
	return p.primaryConnection.Ping()
}

// Initialize connects and applies any pending migrations. A migration that
// has already run is skipped via the dg_migrations ledger, so repeated
// initialization is a no-op.
func (p *Provider) Initialize() error {
	if err := p.Connect(); err != nil {
		return err
	}

	_, err := p.primaryConnection.Exec(
		"CREATE TABLE IF NOT EXISTS dg_migrations (migration varchar(255) not null primary key, applied int not null)")
	if err != nil {
		return err
	}

	processed := make(map[string]bool)
	rows, err := p.primaryConnection.Query("SELECT migration, applied FROM dg_migrations;")
	if err != nil {
		return err
	}
	for rows.Next() {
		var migKey string
		var applied int
		if scanErr := rows.Scan(&migKey, &applied); scanErr != nil {
			rows.Close()
			return scanErr
		}
		processed[migKey] = applied == 1
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	for _, query := range migrations(p.SqlLite) {
		if !processed[query.key] {
			if _, migErr := p.primaryConnection.Exec(query.query); migErr != nil {
				return fmt.Errorf("migration %s: %w", query.key, migErr)
			}
			if _, migErr := p.primaryConnection.Exec("INSERT INTO dg_migrations (migration, applied) VALUES (?, 1);", query.key); migErr != nil {
				return migErr
			}
		}
	}

	return nil
}

func FromJson(data []byte) (*Provider, error) {
	p := &Provider{}
	if err := json.Unmarshal(data, &p); err == nil {
		return p, nil
	} else {
		return nil, err
	}
}
