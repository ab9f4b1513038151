package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.aimuz.me/hober/config"
	"go.aimuz.me/hober/internal/app"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hober",
		Short:         "Speak and translate selected text",
		Version:       fmt.Sprintf("%s (%s, %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default is the user config dir)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(serverCmds()...)
	root.AddCommand(bridgeCmds()...)
	root.AddCommand(configCmd())
	return root
}

// env is what every command gets after start-up.
type env struct {
	cfg *config.Config
	log *slog.Logger
}

// run adapts a command body to cobra: it sets up logging, loads config and
// replaces the command context with one canceled on SIGINT or SIGTERM.
func run(fn func(cmd *cobra.Command, e env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(log)

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		log.Debug("run", "command", cmd.CommandPath(), "version", version, "commit", commit)
		return fn(cmd, env{cfg: cfg, log: log}, args)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// ─────────────────────────────────────────────────────────────────────────────
// Processes
// ─────────────────────────────────────────────────────────────────────────────

func serverCmds() []*cobra.Command {
	return []*cobra.Command{
		{
			Use:   "backend",
			Short: "Run the HTTP backend (speech, translation, accounts)",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
				be, err := app.NewBackend(e.cfg, e.log)
				if err != nil {
					return err
				}
				defer be.Close()
				return be.Run(cmd.Context())
			}),
		},
		{
			Use:   "background",
			Short: "Run the background daemon that serves the local socket",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
				bg, err := app.NewBackground(e.cfg, e.log)
				if err != nil {
					return err
				}
				defer bg.Close()
				return bg.Run(cmd.Context())
			}),
		},
		{
			Use:   "serve",
			Short: "Run the backend and the background daemon in one process",
			Args:  cobra.NoArgs,
			RunE: run(func(cmd *cobra.Command, e env, _ []string) error {
				return app.Serve(cmd.Context(), e.cfg, e.log)
			}),
		},
	}
}
