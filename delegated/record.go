package delegated

import (
	"errors"
	"fmt"
)

// Record is one raw ownership row as exported by the upstream process,
// before normalization. All fields keep their original casing.
type Record struct {
	App          string
	Username     string
	Email        string
	GroupName    string
	SourceType   string
	ViaGroupName string
	DelegationID string
}

// Validate reports why a record cannot be imported for the given
// application. Invalid records are skipped by the importer, not fatal.
func (r Record) Validate(app App) error {
	if r.GroupName == "" {
		return errors.New("missing group name")
	}
	if r.Username == "" {
		return errors.New("missing owner username")
	}
	if _, err := ParseSourceType(r.SourceType); err != nil {
		return err
	}
	if r.App != "" {
		rowApp, err := ParseApp(r.App)
		if err != nil {
			return err
		}
		if rowApp != app {
			return fmt.Errorf("row tagged %q in a %s export", rowApp, app)
		}
	}
	return nil
}
