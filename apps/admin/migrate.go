package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	dig_container "github.com/trezcool/academia/apps/api/di/dig"
)

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command on the database (up, up-by-one, up-to, down, down-to, redo, reset, status, version)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cli.conf.Database.Engine != dig_container.EnginePostgres {
				return errors.Errorf("migrations only apply to the %s engine, not %q", dig_container.EnginePostgres, cli.conf.Database.Engine)
			}
			db, err := openDBFunc(cli.conf)
			if err != nil {
				return err
			}
			defer db.Close()
			return runMigrationsFunc(db, args[0], args[1:]...)
		},
	}
}
