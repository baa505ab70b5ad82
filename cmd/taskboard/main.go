package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/cascade"
	"github.com/taskboard-dev/taskboard/internal/config"
	"github.com/taskboard-dev/taskboard/internal/graph"
	"github.com/taskboard-dev/taskboard/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Exit codes of the taskboard binary.
const (
	ExitSuccess          = 0
	ExitError            = 1
	ExitNotFound         = 2
	ExitPermissionDenied = 3
)

var configPath string

func main() {
	root := newRootCommand()

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Multi-tenant project and task tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a yaml config file")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newDeleteCommand(),
		newTokenCommand(),
		newUserCommand(),
	)

	return root
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, cascade.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, cascade.ErrPermissionDenied):
		return ExitPermissionDenied
	default:
		return ExitError
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg.Level = lvl

	return cfg.Build()
}

// bootstrap loads the configuration, installs the global logger and opens
// the store. Callers own the returned cleanup.
func bootstrap() (config.Config, *gorm.DB, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return cfg, nil, nil, err
	}
	restore := zap.ReplaceGlobals(logger)

	conn, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		restore()
		return cfg, nil, nil, err
	}

	cleanup := func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = logger.Sync()
		restore()
	}

	return cfg, conn, cleanup, nil
}

func newEngine(conn *gorm.DB, cfg config.Config, reg prometheus.Registerer, opts ...cascade.Option) (*cascade.Engine, *metrics.Metrics) {
	m := metrics.New(reg)

	opts = append([]cascade.Option{
		cascade.WithTimeout(cfg.DeleteTimeout),
		cascade.WithMetrics(m),
	}, opts...)

	return cascade.NewEngine(conn, graph.Default(), opts...), m
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conn, cleanup, err := bootstrap()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := db.Migrate(conn); err != nil {
				return err
			}

			zap.L().Info("migration complete")
			return nil
		},
	}
}
