package cli

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Report on registered users",
	}

	usersCmd.AddCommand(&cobra.Command{
		Use:   "report",
		Short: "Print the number of users per role (PostgreSQL only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("users report requires the postgres driver, got %q", cfg.Database.Driver)
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
			if err != nil {
				return fmt.Errorf("unable to connect to database: %w", err)
			}
			defer pool.Close()

			rows, err := pool.Query(ctx, "SELECT role, count(*) FROM users GROUP BY role ORDER BY role")
			if err != nil {
				return fmt.Errorf("failed to query users: %w", err)
			}
			defer rows.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Users by role:")
			for rows.Next() {
				var (
					role  string
					count int64
				)
				if err := rows.Scan(&role, &count); err != nil {
					return fmt.Errorf("failed to scan row: %w", err)
				}
				fmt.Fprintf(out, "- %s: %d\n", role, count)
			}
			return rows.Err()
		},
	})
	return usersCmd
}
