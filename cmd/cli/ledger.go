package cli

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"github.com/turtacn/authsvc/internal/config"
	"github.com/turtacn/authsvc/internal/domain/service"
	"github.com/turtacn/authsvc/internal/infrastructure/consumers"
	"github.com/turtacn/authsvc/internal/infrastructure/persistence/redis"
	"github.com/turtacn/authsvc/pkg/logger"
)

func newLedgerCmd() *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and revoke token ledger entries",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the live (not revoked, not expired) entries of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			return withLedger(cmd, func(ctx context.Context, ledger *service.RevocationLedger) error {
				entries, err := ledger.FindValidForUser(ctx, userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%d live entries for user %s\n", len(entries), userID)
				for _, e := range entries {
					fmt.Fprintf(out, "- %s  token=%s\n", e.ID, logger.SanitizeValue("token", e.Token))
				}
				return nil
			})
		},
	}
	listCmd.Flags().String("user", "", "user id")
	_ = listCmd.MarkFlagRequired("user")

	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Mark every live entry of a user revoked and expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			if broadcast, _ := cmd.Flags().GetBool("broadcast"); broadcast {
				reason, _ := cmd.Flags().GetString("reason")
				return broadcastRevocation(cmd, consumers.RevocationRequest{UserID: userID, Reason: reason})
			}
			return withLedger(cmd, func(ctx context.Context, ledger *service.RevocationLedger) error {
				n, err := ledger.RevokeAllForUser(ctx, userID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %d entries for user %s\n", n, userID)
				return nil
			})
		},
	}
	revokeCmd.Flags().String("user", "", "user id")
	revokeCmd.Flags().Bool("broadcast", false, "publish the request to the revocation topic instead of writing Redis directly")
	revokeCmd.Flags().String("reason", "", "reason recorded with a broadcast request")
	_ = revokeCmd.MarkFlagRequired("user")

	ledgerCmd.AddCommand(listCmd, revokeCmd)
	return ledgerCmd
}

// withLedger connects to Redis from the loaded configuration and runs fn against the ledger.
func withLedger(cmd *cobra.Command, fn func(ctx context.Context, ledger *service.RevocationLedger) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return runLedger(cmd.Context(), cfg, fn)
}

func runLedger(ctx context.Context, cfg *config.Config, fn func(ctx context.Context, ledger *service.RevocationLedger) error) error {
	log := logger.NewNoopLogger()
	conn := redis.NewConnection(&cfg.Redis, log)
	if err := conn.Connect(ctx); err != nil {
		return err
	}
	defer conn.Close()

	repo := redis.NewLedgerRepository(conn.GetClient(), cfg.JWT.LedgerRetention, log)
	return fn(ctx, service.NewRevocationLedger(repo, log))
}

// broadcastRevocation publishes req so that every running instance applies it.
func broadcastRevocation(cmd *cobra.Command, req consumers.RevocationRequest) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(cfg.Revocation.Brokers) == 0 {
		return fmt.Errorf("revocation.brokers is not configured")
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Revocation.Brokers...),
		Topic:    cfg.Revocation.Topic,
		Balancer: &kafka.Hash{},
	}
	defer w.Close()

	if err := consumers.PublishRevocation(cmd.Context(), w, req); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "published revocation request for user %s to %s\n", req.UserID, cfg.Revocation.Topic)
	return nil
}
