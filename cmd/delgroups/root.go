package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	profile    string
	output     string
	verbose    bool
}

func (o *rootOptions) activeProfile() (Profile, error) {
	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return Profile{}, withCode(exitUsage, err)
	}
	return cfg.ActiveProfile(o.profile), nil
}

func (o *rootOptions) logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if o.verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "delgroups",
		Short:         "Delegated group ownership import and lookup tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default "+defaultConfigPath()+")")
	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "", "Config profile override")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format: table or json")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newOwnersCmd(opts))
	cmd.AddCommand(newGroupsCmd(opts))
	cmd.AddCommand(newGroupOwnersCmd(opts))
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}
