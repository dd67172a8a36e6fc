package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kennkash/delegated-groups/delegated"
	"github.com/kennkash/delegated-groups/storage"
)

// withStore opens the configured provider, ensures the schema exists and
// hands the provider to fn. Schema creation is idempotent, so running a
// query against a fresh database yields empty results, not errors.
func withStore(opts *rootOptions, fn func(storage.Provider) error) error {
	profile, err := opts.activeProfile()
	if err != nil {
		return err
	}
	store, err := openProvider(profile)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Initialize(); err != nil {
		return withCode(exitDB, err)
	}
	return fn(store)
}

func ownerTable(rows []delegated.OwnerRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			string(r.App), r.GroupName, r.Username, orDash(r.Email),
			string(r.SourceType), orDash(r.ViaGroupName), formatTime(r.CreatedAt),
		})
	}
	return out
}

func newOwnersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "List every delegated group owner across both applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(opts, func(store storage.Provider) error {
				rows, err := store.AllOwners()
				if err != nil {
					return withCode(exitDB, err)
				}
				if opts.output == "json" {
					return writeJSON(rows)
				}
				if len(rows) == 0 {
					fmt.Println("no results")
					return nil
				}
				return writeTable(
					[]string{"app", "group", "owner", "email", "type", "via group", "since"},
					ownerTable(rows))
			})
		},
	}
}

func newGroupsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "groups <username>",
		Short: "List the delegated groups a user owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(store storage.Provider) error {
				rows, err := store.GroupsForUser(args[0])
				if err != nil {
					return withCode(exitDB, err)
				}
				if opts.output == "json" {
					return writeJSON(rows)
				}
				if len(rows) == 0 {
					fmt.Println("no results")
					return nil
				}
				out := make([][]string, 0, len(rows))
				for _, r := range rows {
					out = append(out, []string{
						string(r.App), r.GroupName, string(r.SourceType), orDash(r.ViaGroupName),
					})
				}
				return writeTable([]string{"app", "group", "type", "via group"}, out)
			})
		},
	}
}

func newGroupOwnersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "group-owners <app> <group>",
		Short: "List the owners of one delegated group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(store storage.Provider) error {
				rows, err := store.OwnersOfGroup(args[0], args[1])
				if err != nil {
					return withCode(exitDB, err)
				}
				if opts.output == "json" {
					return writeJSON(rows)
				}
				if len(rows) == 0 {
					fmt.Println("no results")
					return nil
				}
				return writeTable(
					[]string{"app", "group", "owner", "email", "type", "via group", "since"},
					ownerTable(rows))
			})
		},
	}
}
