package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/authsvc/internal/infrastructure/crypto"
	"github.com/turtacn/authsvc/pkg/errors"
	"github.com/turtacn/authsvc/pkg/logger"
)

type decodedToken struct {
	Subject   string                 `json:"sub"`
	IssuedAt  time.Time              `json:"iat"`
	ExpiresAt time.Time              `json:"exp"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Work with session tokens",
	}

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "decode <token>",
		Short: "Verify a token with the configured secret and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			keys, err := crypto.NewSigningKeyProvider(cfg.JWT.SecretKey)
			if err != nil {
				return err
			}

			claims, err := crypto.NewJWTCodec(keys, logger.NewNoopLogger()).Decode(cmd.Context(), args[0])
			if err != nil {
				if decErr, ok := errors.AsDecodeError(err); ok {
					return fmt.Errorf("token rejected (%s): %w", decErr.Kind, err)
				}
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(decodedToken{
				Subject:   claims.Subject,
				IssuedAt:  claims.IssuedAt.UTC(),
				ExpiresAt: claims.ExpiresAt.UTC(),
				Extra:     claims.Extra,
			})
		},
	})
	return tokenCmd
}
