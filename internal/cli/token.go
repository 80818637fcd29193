package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mini-quiz/internal/config"
)

// NewTokenCmd groups maintenance of the stored OpenTDB session token.
func NewTokenCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the OpenTDB session token",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the stored token so the next quiz requests a fresh one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenReset(cmd.Context(), *configPath, cmd.OutOrStdout())
		},
	})
	return cmd
}

func runTokenReset(ctx context.Context, configPath string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.Trivia.UseToken {
		fmt.Fprintln(out, "session tokens are disabled (trivia.use_token)")
		return nil
	}

	client, cleanup := newTriviaClient(cfg)
	defer cleanup()

	if err := client.ResetToken(ctx); err != nil {
		return fmt.Errorf("reset token: %w", err)
	}
	fmt.Fprintln(out, "session token cleared")
	return nil
}
