package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kennkash/delegated-groups/credentials"
	"github.com/kennkash/delegated-groups/storage"
	"github.com/kennkash/delegated-groups/storage/postgres"
	sqlstore "github.com/kennkash/delegated-groups/storage/sql"
)

// Config represents ~/.delgroups/config.yaml.
type Config struct {
	CurrentProfile string             `yaml:"current-profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile is one named storage target plus its CSV source paths.
type Profile struct {
	Provider string `yaml:"provider,omitempty"` // sql (default) or postgres
	User     string `yaml:"user,omitempty"`
	Host     string `yaml:"host,omitempty"` // hostname:port
	Database string `yaml:"database,omitempty"`
	SQLite   bool   `yaml:"sqlite,omitempty"`
	Path     string `yaml:"path,omitempty"` // sqlite database file

	PasswordEnv  string `yaml:"password-env,omitempty"`
	PasswordFile string `yaml:"password-file,omitempty"`

	JiraCSV       string `yaml:"jira-csv,omitempty"`
	ConfluenceCSV string `yaml:"confluence-csv,omitempty"`
}

// ActiveProfile returns the profile to use based on the override or
// current-profile.
func (c *Config) ActiveProfile(override string) Profile {
	name := c.CurrentProfile
	if override != "" {
		name = override
	}
	if p, ok := c.Profiles[name]; ok {
		return p
	}
	return Profile{}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".delgroups", "config.yaml")
}

// LoadConfig reads the YAML config file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return &cfg, nil
}

func (p Profile) passwordSource() credentials.Source {
	switch {
	case p.PasswordEnv != "":
		return credentials.Env(p.PasswordEnv)
	case p.PasswordFile != "":
		return credentials.File(p.PasswordFile)
	}
	return credentials.Static("")
}

// openProvider builds the storage provider for a profile. Credential
// failure is fatal here, before any row processing begins.
func openProvider(p Profile) (storage.Provider, error) {
	password, err := p.passwordSource().Password()
	if err != nil {
		return nil, withCode(exitCredentials, fmt.Errorf("retrieve storage password: %w", err))
	}

	switch p.Provider {
	case "", sqlstore.ProviderKey:
		prov := &sqlstore.Provider{}
		if p.SQLite {
			prov.SqlLite = true
			prov.PrimaryDSN = p.Path
		} else {
			prov.PrimaryDSN = p.User + ":" + password + "@tcp(" + p.Host + ")"
			prov.Database = p.Database
		}
		return prov, nil
	case postgres.ProviderKey:
		return &postgres.Provider{
			DSN: fmt.Sprintf("postgres://%s:%s@%s/%s", p.User, password, p.Host, p.Database),
		}, nil
	}
	return nil, withCode(exitUsage, fmt.Errorf("unknown storage provider %q", p.Provider))
}
