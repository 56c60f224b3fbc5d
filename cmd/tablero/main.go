// Command tablero serves the project board API in front of Airtable.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cfgpkg "github.com/adamwoolhether/tablero/internal/config"
)

// build is set with -ldflags "-X main.build=...".
var build = "develop"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tablero",
		Short: "Project board backend for Airtable",
		Long: "Tablero serves the project and task board API. Every call to Airtable " +
			"goes through one rate-limited queue so the base stays under its request limit.",
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)

	rootCmd.AddCommand(newServeCmd(), &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), build)
		},
	})

	return rootCmd
}

func newServeCmd() *cobra.Command {
	cfg := cfgpkg.Default()
	cfgpkg.FromEnv(&cfg)

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the HTTP server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serve(ctx, cfg, log); err != nil {
				log.Error("server stopped", "error", err)
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}

	// Flags start from the environment, so an explicit flag wins over both.
	f := serveCmd.Flags()
	f.StringVar(&cfg.HTTP.Addr, "addr", cfg.HTTP.Addr, "listen address")
	f.StringSliceVar(&cfg.HTTP.AllowedOrigins, "allowed-origin", cfg.HTTP.AllowedOrigins, "extra trusted CORS/CSRF origin, may repeat; * wildcards allowed")
	f.StringVar(&cfg.Airtable.BaseID, "base", cfg.Airtable.BaseID, "Airtable base ID")
	f.StringVar(&cfg.Airtable.BaseURL, "airtable-url", cfg.Airtable.BaseURL, "Airtable API root")
	f.DurationVar(&cfg.Throttle.MinDelay, "min-delay", cfg.Throttle.MinDelay, "minimum spacing between Airtable calls")
	f.IntVar(&cfg.Throttle.Capacity, "queue-capacity", cfg.Throttle.Capacity, "maximum queued Airtable calls, 0 for unbounded")
	f.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug|info|warn|error")
	f.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "text|json")
	f.StringVar(&cfg.Telemetry.Endpoint, "otlp-endpoint", cfg.Telemetry.Endpoint, "OTLP/HTTP trace collector, empty to disable")

	return serveCmd
}

func newLogger(w io.Writer, c cfgpkg.Log) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch c.Format {
	case "json":
		h = slog.NewJSONHandler(w, opts)
	case "text", "":
		h = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("log format %q: use text or json", c.Format)
	}

	return slog.New(h).With("service", "tablero"), nil
}
