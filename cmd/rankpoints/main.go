// Command rankpoints scores tournament fixtures offline: it values events,
// awards points, applies decay and runs rating periods.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/common/expfmt"
	"github.com/urfave/cli/v2"

	service "github.com/okian/rankpoints/internal/app"
	"github.com/okian/rankpoints/internal/config"
	"github.com/okian/rankpoints/pkg/logger"
	"github.com/okian/rankpoints/pkg/metrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, os.Stderr).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "rankpoints:", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "rankpoints",
		Usage:     "tournament ranking points calculator",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML configuration file",
				EnvVars: []string{"RANKPOINTS_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log_level (debug, info, warn, error)",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "print collected metrics in Prometheus text format after the run",
			},
		},
		Before: setup,
		After:  dumpMetrics,
		Commands: []*cli.Command{
			valueCommand(),
			awardCommand(),
			decayCommand(),
			rateCommand(),
		},
	}
}

// setup initializes logging and configuration for every command.
func setup(c *cli.Context) error {
	if err := logger.Init(logger.WithWriter(c.App.ErrWriter)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}

	if path := c.String("config"); path != "" {
		if err := os.Setenv("RANKPOINTS_CONFIG", path); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(c.Context)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if l := c.String("log-level"); l != "" {
		level = l
	}
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(c.Context, "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	c.App.Metadata = map[string]any{metaConfig: cfg, metaRunID: uuid.NewString()}
	return nil
}

func dumpMetrics(c *cli.Context) error {
	if !c.Bool("metrics") {
		return nil
	}
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(c.App.Writer, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

const (
	metaConfig = "config"
	metaRunID  = "run_id"
)

// newEngine builds an engine from the loaded configuration.
func newEngine(c *cli.Context) (*service.Engine, *config.Config, error) {
	cfg, _ := c.App.Metadata[metaConfig].(*config.Config)
	if cfg == nil {
		cfg = config.New()
	}
	runID, _ := c.App.Metadata[metaRunID].(string)

	log := logger.Get().Named("cli")
	log.Info(c.Context, "run started", logger.String("run_id", runID), logger.String("command", c.Command.Name))

	engine, err := service.New(
		service.WithConfig(cfg),
		service.WithLogger(logger.Get()),
		service.WithWorkerCount(cfg.WorkerCount),
	)
	if err != nil {
		return nil, nil, err
	}
	return engine, cfg, nil
}
