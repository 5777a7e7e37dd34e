package cli

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/authsvc/pkg/constants"
)

func newKeyCmd() *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the token signing secret",
	}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Print a random base64 secret suitable for jwt.secret_key",
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetInt("bytes")
			if size < constants.MinSecretKeyBytes {
				return fmt.Errorf("--bytes must be at least %d", constants.MinSecretKeyBytes)
			}
			buf := make([]byte, size)
			if _, err := rand.Read(buf); err != nil {
				return fmt.Errorf("failed to read random bytes: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(buf))
			return nil
		},
	}
	generateCmd.Flags().Int("bytes", constants.MinSecretKeyBytes, "secret length in bytes before encoding")

	keyCmd.AddCommand(generateCmd)
	return keyCmd
}
