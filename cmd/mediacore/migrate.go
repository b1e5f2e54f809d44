package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bjrfx/mediacore/internal/store/pg"
	migrations "github.com/bjrfx/mediacore/migrations/postgres"
)

func newMigrateCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migraciones del schema Postgres",
	}

	open := func(cmd *cobra.Command) (*pg.Store, error) {
		cfg, err := g.load()
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Driver != "postgres" {
			return nil, fmt.Errorf("migrate requires storage.driver=postgres (got %q)", cfg.Storage.Driver)
		}
		return pg.New(cmd.Context(), pg.Config{
			DSN:          cfg.Storage.DSN,
			MaxConns:     2,
			MinConns:     1,
			QueryTimeout: cfg.Storage.QueryTimeout,
		})
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Aplica las migraciones pendientes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.MigrateUp(cmd.Context(), migrations.FS)
			if err != nil {
				return err
			}
			g.print(map[string]int{"applied": n}, func() { fmt.Printf("applied %d migration(s)\n", n) })
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down [steps]",
		Short: "Revierte las últimas migraciones (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) == 1 {
				arg = args[0]
			}
			steps, err := pg.ParseSteps(arg)
			if err != nil {
				return err
			}
			st, err := open(cmd)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.MigrateDown(cmd.Context(), migrations.FS, steps)
			if err != nil {
				return err
			}
			g.print(map[string]int{"reverted": n}, func() { fmt.Printf("reverted %d migration(s)\n", n) })
			return nil
		},
	}

	cmd.AddCommand(up, down)
	return cmd
}
