package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"creditgate/internal/platform/config"
	"creditgate/internal/platform/database"
	"creditgate/migrations"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the audit schema",
	}
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply the embedded audit schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dsn == "" {
				return errors.New("--database-url or DATABASE_URL is required")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			pool, err := database.Open(ctx, config.DatabaseConfig{
				URL:             dsn,
				MaxOpenConns:    1,
				MaxIdleConns:    1,
				ConnMaxLifetime: time.Minute,
				ConnectAttempts: 3,
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrations.Up(ctx, pool.DB())
			if err != nil {
				return err
			}

			if root.json {
				return writeJSON(cmd.OutOrStdout(), map[string][]string{"applied": applied})
			}
			for _, f := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", f)
			}
			return nil
		},
	}
	up.Flags().StringVar(&dsn, "database-url", envOr("DATABASE_URL", ""), "postgres connection string")
	cmd.AddCommand(up)
	return cmd
}
