package cli

import (
	"io"
	"log/slog"
	"os"

	corecfg "github.com/aevon-lab/telemetry-ingest/internal/core/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the telemetry service CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Device telemetry ingestion service",
		Long: `Accepts device telemetry events over HTTP, stores each (device_id, ts) pair once,
hands accepted events to the downstream queue and serves descending range queries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "",
		"path to YAML configuration file (defaults and TELEMETRY_* env vars apply without one)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// loadConfig loads configuration and installs the default logger it describes.
func loadConfig(opts *RootOptions, logOut io.Writer) (*corecfg.Config, error) {
	cfg, err := corecfg.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(cfg.Log, logOut))
	return cfg, nil
}

func newLogger(cfg corecfg.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
