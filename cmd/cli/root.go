package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/authsvc/internal/config"
	"github.com/turtacn/authsvc/pkg/logger"
)

// newRootCmd builds the authsvc-admin command tree.
// newRootCmd 构建 authsvc-admin 命令树。
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "authsvc-admin",
		Short: "Administrative CLI for the authentication service.",
		Long: `authsvc-admin performs operator tasks against the authentication service's
stores: generating signing secrets, checking configuration, decoding tokens,
inspecting and revoking ledger entries, reading the audit trail and
reporting on users.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "path to config.yaml (default: /etc/authsvc/ or ./)")

	root.AddCommand(
		newKeyCmd(),
		newConfigCmd(),
		newTokenCmd(),
		newLedgerCmd(),
		newUsersCmd(),
		newAuditCmd(),
	)
	return root
}

// Execute is the main entry point for the CLI application.
// It parses the command-line arguments and runs the selected command,
// exiting with status 1 on failure.
// Execute 是 CLI 应用程序的主入口点，失败时以状态码 1 退出。
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config, or the default locations.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	log := logger.NewNoopLogger()
	if path != "" {
		cfg, _, err := config.LoadConfigFile(path, log)
		return cfg, err
	}
	cfg, _, err := config.LoadConfig(log)
	return cfg, err
}
