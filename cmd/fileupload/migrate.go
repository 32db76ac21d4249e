package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/william251082/fileupload/app"
	"github.com/william251082/fileupload/bootstrap"
	"github.com/william251082/fileupload/database"
	"github.com/william251082/fileupload/database/schema"
)

type migrationStep func(out io.Writer, db *database.DB, cfg database.Config) error

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		migrateCmd(flags, "up", "Apply every pending migration", func(out io.Writer, db *database.DB, cfg database.Config) error {
			return schema.Up(db, cfg)
		}),
		migrateCmd(flags, "down", "Roll the schema back completely", func(out io.Writer, db *database.DB, cfg database.Config) error {
			return schema.Down(db, cfg)
		}),
		migrateCmd(flags, "version", "Print the applied schema version", func(out io.Writer, db *database.DB, cfg database.Config) error {
			v, dirty, err := schema.Version(db, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "version=%d dirty=%t\n", v, dirty)
			return nil
		}),
	)
	return cmd
}

func migrateCmd(flags *globalFlags, use, short string, step migrationStep) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			return runMigration(cmd.Context(), cfg, cmd.OutOrStdout(), step)
		},
	}
}

// runMigration starts only the database and runs step against it.
func runMigration(ctx context.Context, cfg *app.Config, out io.Writer, step migrationStep) error {
	a, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryOutput(io.Discard))
	if err != nil {
		return err
	}
	dbCfg := a.Cfg.Database
	dbCfg.AutoMigrate = false
	db := database.NewComponent(dbCfg, a.Logger)
	if err := a.RegisterComponent(db); err != nil {
		return err
	}
	return a.RunTask(ctx, func(context.Context) error {
		return step(out, db.DB(), dbCfg)
	})
}
