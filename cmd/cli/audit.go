package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/authsvc/internal/infrastructure/audit"
	"github.com/turtacn/authsvc/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/authsvc/pkg/logger"
)

func newAuditCmd() *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the authentication audit trail (database sink)",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent audit events for an email",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			db, err := postgres.NewDBConnection(ctx, &cfg.Database, logger.NewNoopLogger())
			if err != nil {
				return err
			}
			defer db.Close()

			events, err := audit.NewGormAuditService(db.DB()).ListBySubject(ctx, subject, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tEVENT\tSUCCESS\tREASON\tSIGNATURE")
			for _, e := range events {
				sig := "unsigned"
				if e.Signature != "" {
					sig = "invalid"
					if cfg.Audit.HMACSecret != "" && audit.VerifyAuditEvent(e, cfg.Audit.HMACSecret) {
						sig = "valid"
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
					e.Timestamp.UTC().Format(time.RFC3339), e.EventType, e.Success, e.Reason, sig)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().String("subject", "", "email the events are about")
	listCmd.Flags().Int("limit", 20, "maximum number of events")
	_ = listCmd.MarkFlagRequired("subject")

	auditCmd.AddCommand(listCmd)
	return auditCmd
}
