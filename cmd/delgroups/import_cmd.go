package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kennkash/delegated-groups/delegated"
	"github.com/kennkash/delegated-groups/importer"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	var jiraCSV, confluenceCSV string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import delegated group ownership CSV exports",
		Long: `Reads the per-application ownership exports, normalizes users and
groups case-insensitively, and loads them into storage. Safe to re-run:
rows that already exist are skipped, not duplicated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := opts.activeProfile()
			if err != nil {
				return err
			}
			if jiraCSV == "" {
				jiraCSV = profile.JiraCSV
			}
			if confluenceCSV == "" {
				confluenceCSV = profile.ConfluenceCSV
			}

			var sources []importer.Source
			if jiraCSV != "" {
				sources = append(sources, importer.Source{App: delegated.AppJira, Path: jiraCSV})
			}
			if confluenceCSV != "" {
				sources = append(sources, importer.Source{App: delegated.AppConfluence, Path: confluenceCSV})
			}
			if len(sources) == 0 {
				return withCode(exitUsage, errors.New("no CSV sources given via flags or config"))
			}

			store, err := openProvider(profile)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Initialize(); err != nil {
				return withCode(exitDB, err)
			}

			summary, err := importer.New(store, opts.logger()).Run(sources)
			if err != nil {
				return withCode(exitDBWrite, err)
			}

			if opts.output == "json" {
				return writeJSON(summary)
			}
			rows := make([][]string, 0, len(summary.Apps))
			for _, s := range summary.Apps {
				rows = append(rows, []string{
					string(s.App),
					itoa(s.RowsRead), itoa(s.RowsSkipped),
					itoa(s.UsersCreated), itoa(s.GroupsCreated), itoa(s.OwnersCreated),
				})
			}
			return writeTable(
				[]string{"app", "rows", "skipped", "new users", "new groups", "new owners"},
				rows)
		},
	}

	cmd.Flags().StringVar(&jiraCSV, "jira-csv", "", "Jira ownership export (overrides config)")
	cmd.Flags().StringVar(&confluenceCSV, "confluence-csv", "", "Confluence ownership export (overrides config)")
	return cmd
}
