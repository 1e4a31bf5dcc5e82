// Package cmd implements the mcint command line tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mc-integrator/logger"
)

// Version information (populated at build time)
var (
	version   = "dev"
	gitCommit = "unknown"
)

type globalFlags struct {
	logLevel  string
	logFormat string
	logOutput string
}

// NewRootCommand builds the mcint command tree.
func NewRootCommand() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "mcint",
		Short:         "Monte Carlo integration over rectangular regions",
		Version:       fmt.Sprintf("%s (%s)", version, gitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "", "log format: console or json (overrides config)")
	root.PersistentFlags().StringVar(&g.logOutput, "log-output", "", "log output: stderr, stdout or a file path (overrides config)")

	root.AddCommand(newEstimateCommand(g))
	root.AddCommand(newConvergeCommand(g))
	return root
}

// Execute runs the root command with os.Args. An interrupt cancels the
// running estimation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

func (g *globalFlags) newLogger(base *logger.Config) (*zap.Logger, func(), error) {
	cfg := logger.DefaultConfig()
	if base != nil {
		cfg = base
	}
	if g.logLevel != "" {
		cfg.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Format = g.logFormat
	}
	if g.logOutput != "" {
		cfg.Output = g.logOutput
	}
	return logger.New(cfg)
}

// saveJSON writes v as indented JSON, creating parent directories.
func saveJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
