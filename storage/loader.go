package storage

import (
	"encoding/json"
	"errors"

	"github.com/kennkash/delegated-groups/storage/postgres"
	"github.com/kennkash/delegated-groups/storage/sql"
)

// Load builds a Provider from a JSON envelope of the form
// {"Provider": "...", "Configuration": {...}}.
func Load(jsonBytes []byte) (Provider, error) {

	loader := struct {
		Provider      string
		Configuration *json.RawMessage
	}{}

	err := json.Unmarshal(jsonBytes, &loader)
	if err != nil {
		return nil, err
	}

	switch loader.Provider {
	case sql.ProviderKey:
		return sql.FromJson(*loader.Configuration)
	case postgres.ProviderKey:
		return postgres.FromJson(*loader.Configuration)
	}

	return nil, errors.New("unable to load storage provider '" + loader.Provider + "'")
}
