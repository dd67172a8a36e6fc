// Package importer loads per-application ownership exports into storage,
// deduplicating users, groups and edges so a re-run never creates
// duplicate rows.
package importer

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kennkash/delegated-groups/delegated"
	"github.com/kennkash/delegated-groups/storage"
)

type Importer struct {
	Store storage.Provider
	Log   *logrus.Logger
}

func New(store storage.Provider, log *logrus.Logger) *Importer {
	if log == nil {
		log = logrus.New()
	}
	return &Importer{Store: store, Log: log}
}

// Run imports every source, one goroutine per application, then refreshes
// the derived view. A storage failure in either application fails the run;
// no partial counts are reported.
func (imp *Importer) Run(sources []Source) (delegated.ImportSummary, error) {
	summaries := make([]delegated.AppSummary, len(sources))

	g := errgroup.Group{}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			records, err := readRecords(src.Path)
			if err != nil {
				return fmt.Errorf("%s: %w", src.App, err)
			}
			summary, err := imp.ImportRecords(src.App, records)
			if err != nil {
				return fmt.Errorf("%s: %w", src.App, err)
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return delegated.ImportSummary{}, err
	}

	if err := imp.Store.RefreshView(); err != nil {
		return delegated.ImportSummary{}, fmt.Errorf("refresh owners view: %w", err)
	}
	return delegated.ImportSummary{Apps: summaries}, nil
}

// ImportRecords normalizes and stores one application's rows. Users and
// groups are deduplicated first-seen by folded key so the first casing in
// the export wins as display form; edges are deduplicated both within the
// run and against rows from prior runs.
func (imp *Importer) ImportRecords(app delegated.App, records []delegated.Record) (delegated.AppSummary, error) {
	summary := delegated.AppSummary{App: app, RowsRead: len(records)}

	var valid []delegated.Record
	var userOrder []delegated.Identity
	userDisplay := map[delegated.Identity]delegated.Record{}
	var groupOrder []string
	groupDisplay := map[string]delegated.Record{}

	for i, rec := range records {
		if err := rec.Validate(app); err != nil {
			summary.RowsSkipped++
			imp.Log.WithFields(logrus.Fields{"app": app, "row": i + 1}).
				Warnf("skipping malformed row: %v", err)
			continue
		}
		valid = append(valid, rec)

		identity := delegated.NewIdentity(rec.Username, rec.Email)
		if _, ok := userDisplay[identity]; !ok {
			userDisplay[identity] = rec
			userOrder = append(userOrder, identity)
		}
		groupKey := delegated.Fold(rec.GroupName)
		if _, ok := groupDisplay[groupKey]; !ok {
			groupDisplay[groupKey] = rec
			groupOrder = append(groupOrder, groupKey)
		}
	}

	userIDs := make(map[delegated.Identity]int64, len(userOrder))
	for _, identity := range userOrder {
		rec := userDisplay[identity]
		id, created, err := imp.Store.ResolveUser(rec.Username, rec.Email)
		if err != nil {
			return summary, fmt.Errorf("resolve user %q: %w", rec.Username, err)
		}
		if created {
			summary.UsersCreated++
		}
		userIDs[identity] = id
	}

	groupIDs := make(map[string]int64, len(groupOrder))
	for _, groupKey := range groupOrder {
		rec := groupDisplay[groupKey]
		id, created, err := imp.Store.ResolveGroup(app, rec.GroupName, rec.DelegationID)
		if err != nil {
			return summary, fmt.Errorf("resolve group %q: %w", rec.GroupName, err)
		}
		if created {
			summary.GroupsCreated++
		}
		groupIDs[groupKey] = id
	}

	type edgeKey struct {
		groupID int64
		userID  int64
		source  delegated.SourceType
		via     string
	}
	seen := make(map[edgeKey]bool, len(valid))
	for _, rec := range valid {
		source, _ := delegated.ParseSourceType(rec.SourceType)
		key := edgeKey{
			groupID: groupIDs[delegated.Fold(rec.GroupName)],
			userID:  userIDs[delegated.NewIdentity(rec.Username, rec.Email)],
			source:  source,
			via:     rec.ViaGroupName,
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		created, err := imp.Store.InsertOwner(key.groupID, key.userID, key.source, key.via)
		if err != nil {
			return summary, fmt.Errorf("insert owner of %q: %w", rec.GroupName, err)
		}
		if created {
			summary.OwnersCreated++
		}
	}

	imp.Log.WithField("app", app).Info(summary.String())
	return summary, nil
}
