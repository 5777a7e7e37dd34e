package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the service configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration, then print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "configuration OK")
			fmt.Fprintf(out, "  listen:        %s (%s)\n", cfg.Server.Address(), cfg.Server.Environment)
			fmt.Fprintf(out, "  database:      %s\n", cfg.Database.Driver)
			fmt.Fprintf(out, "  redis:         %s\n", cfg.Redis.Addr)
			fmt.Fprintf(out, "  token ttl:     %s\n", cfg.JWT.Expiration)
			fmt.Fprintf(out, "  ledger check:  %t\n", cfg.Security.LedgerCheck)
			fmt.Fprintf(out, "  default role:  %s\n", cfg.Security.DefaultRole)
			return nil
		},
	})
	return configCmd
}
