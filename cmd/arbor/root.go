package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// app carries what every command shares once flags and environment are
// resolved.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "arbor",
		Short: "Arbor is the logic core of a branching-narrative editor",
		Long: `Arbor validates, lays out and plays branching stories written in YAML:
scenes linked by choices, typed variables, gated choices and scene actions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.dumpMetrics(cmd.ErrOrStderr())
		},
	}

	// Persistent flags (available to all commands); they override ARBOR_* variables.
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json)")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for persisted projects")
	rootCmd.PersistentFlags().Bool("metrics", false, "Print Prometheus metrics to stderr on exit")

	rootCmd.AddCommand(
		newValidateCmd(a),
		newLayoutCmd(a),
		newGraphCmd(a),
		newPlayCmd(a),
		newExportCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute builds the command tree and runs it.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
	}
	if flags.Changed("log-format") {
		format, _ := flags.GetString("log-format")
		if cfg.LogFormat, err = logging.ParseFormat(format); err != nil {
			return fmt.Errorf("invalid --log-format: %w", err)
		}
	}
	if flags.Changed("redis") {
		cfg.RedisAddr, _ = flags.GetString("redis")
	}
	if flags.Changed("metrics") {
		cfg.MetricsEnabled, _ = flags.GetBool("metrics")
	}

	a.cfg = cfg
	a.logger = logging.NewWith(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	if cfg.MetricsEnabled {
		a.registry = prometheus.NewRegistry()
		if a.metrics, err = observability.NewMetrics(a.registry); err != nil {
			return err
		}
	}
	return nil
}

// hooks combines logging with metrics when enabled.
func (a *app) hooks() domain.Hooks {
	hooks := observability.LoggingHooks(a.logger)
	if a.metrics != nil {
		hooks = observability.Combine(hooks, a.metrics.Hooks())
	}
	return hooks
}

// options configures a Project from the environment.
func (a *app) options(extra ...arbor.Option) []arbor.Option {
	opts := []arbor.Option{
		arbor.WithLogger(a.logger),
		arbor.WithHooks(a.hooks()),
		arbor.WithHistoryLimit(a.cfg.HistoryLimit),
	}
	if a.cfg.LayoutSeed != nil {
		opts = append(opts, arbor.WithLayoutSeed(*a.cfg.LayoutSeed))
	}
	return append(opts, extra...)
}

// open loads a story file into a Project.
func (a *app) open(path string, extra ...arbor.Option) (*arbor.Project, error) {
	return arbor.Open(path, a.options(extra...)...)
}

func (a *app) dumpMetrics(w io.Writer) {
	if a.registry == nil {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.logger.Error("gather metrics", "err", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			a.logger.Error("write metrics", "err", err)
			return
		}
	}
}
