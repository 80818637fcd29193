package cli

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mini-quiz/internal/app"
	"mini-quiz/internal/config"
	"mini-quiz/internal/infra/memory"
	"mini-quiz/internal/infra/opentdb"
	redistoken "mini-quiz/internal/infra/redis"
	"mini-quiz/internal/logger"
	"mini-quiz/internal/transport/terminal"
)

// NewPlayCmd builds the CLI subcommand that runs an interactive quiz.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runPlay(ctx context.Context, configPath string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	client, cleanup := newTriviaClient(cfg)
	defer cleanup()

	session := app.NewSession(client,
		app.WithLogger(log),
		app.WithDelays(
			config.TTLDuration(cfg.Quiz.CorrectDelay, app.DefaultCorrectDelay),
			config.TTLDuration(cfg.Quiz.WrongDelay, app.DefaultWrongDelay),
		),
	)
	defer session.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("session ready", zap.String("trivia_url", cfg.Trivia.BaseURL), zap.Bool("token", cfg.Trivia.UseToken))
	return terminal.NewDriver(session, in, out, log).Run(ctx)
}

func newTriviaClient(cfg config.Config) (*opentdb.Client, func()) {
	params := opentdb.Params{
		Amount:     cfg.Trivia.Amount,
		Category:   cfg.Trivia.Category,
		Difficulty: cfg.Trivia.Difficulty,
		Type:       cfg.Trivia.Type,
	}
	opts := []opentdb.ClientOption{
		opentdb.WithHTTPClient(&http.Client{Timeout: config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second)}),
	}

	cleanup := func() {}
	if cfg.Trivia.UseToken {
		store, closeStore := newTokenStore(cfg)
		opts = append(opts, opentdb.WithTokenStore(store))
		cleanup = closeStore
	}
	return opentdb.NewClient(cfg.Trivia.BaseURL, params, opts...), cleanup
}

// newTokenStore prefers Redis when configured so the token outlives the process.
func newTokenStore(cfg config.Config) (opentdb.TokenStore, func()) {
	ttl := config.TTLDuration(cfg.Redis.TTL, 6*time.Hour)
	if cfg.Redis.Addr == "" {
		return memory.NewTokenStore(ttl), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return redistoken.NewTokenStore(client, ttl), func() { _ = client.Close() }
}
