package main

import (
	"github.com/spf13/cobra"

	"github.com/basel-ax/promptpix/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|version]",
	Short:     "Apply, roll back or inspect the database schema",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		command := "up"
		if len(args) == 1 {
			command = args[0]
		}
		return db.Migrate(log, cfg.GetMigrateURL(), command)
	},
}
