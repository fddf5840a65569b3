// Command olier serves the Olier chat in a browser (olier serve) or a
// terminal (olier chat).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/petasbytes/olier/internal/config"
	"github.com/petasbytes/olier/internal/logging"
	"github.com/petasbytes/olier/internal/provider"
	"github.com/petasbytes/olier/internal/runner"
	"github.com/petasbytes/olier/internal/session"
	"github.com/petasbytes/olier/internal/telemetry"
	"github.com/petasbytes/olier/internal/windowing"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "olier",
		Short:        "Chat with Olier through an OpenAI-compatible completion endpoint",
		SilenceUsage: true,
	}
	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default ./olier.yaml if present)")
	pf.String("provider", provider.KindOpenAI, "completion endpoint kind: openai or anthropic")
	pf.String("base-url", provider.DefaultOpenAIBaseURL, "completion endpoint base URL")
	pf.Int("window", windowing.DefaultWindow, "non-system turns kept in the history")
	pf.Duration("stream-timeout", 0, "abort a reply after this long (0 disables)")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-format", "text", "text or json")
	pf.Bool("telemetry", false, "append events to <telemetry.dir>/events.jsonl")

	root.AddCommand(newServeCmd(), newChatCmd())
	return root
}

// app holds what both commands share.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  *session.Store
	runner *runner.Runner
}

func newApp(flags *pflag.FlagSet) (*app, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path, flags)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}
	telemetry.Configure(telemetry.Config{Enabled: cfg.Telemetry.Enabled, Dir: cfg.Telemetry.Dir})

	p, err := provider.New(cfg.Provider.Client())
	if err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}
	r := runner.New(p, log)
	r.Params = cfg.Chat.Params()
	r.Timeout = cfg.Chat.StreamTimeout

	log.Debug().Str("provider", cfg.Provider.Kind).Str("base_url", cfg.Provider.BaseURL).
		Int("window", cfg.Chat.Window).Msg("configured")
	return &app{
		cfg:    cfg,
		log:    log,
		store:  session.NewStore(cfg.Chat.SystemPrompt, cfg.Chat.Window),
		runner: r,
	}, nil
}
