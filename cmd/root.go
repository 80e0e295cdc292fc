// Package cmd wires the command-line surface: solve, compare, benchmark and
// analyze. Commands load the shared configuration, let explicit flags
// override it and hand the heavy lifting to the core packages.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pdtsp/config"
	corelogger "github.com/kilianp07/pdtsp/core/logger"
	"github.com/kilianp07/pdtsp/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "pdtsp",
	Short:         "Pickup-and-Delivery TSP solver",
	Long:          "Heuristic and metaheuristic solver for the single-vehicle Pickup-and-Delivery TSP with load-dependent cost models.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); defaults apply when omitted")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configured file or falls back to defaults when no
// --config was given.
func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the component logger from the logging section.
func newLogger(cfg *config.Config, component string) corelogger.Logger {
	return logger.NewWith(component, cfg.Logging.Dev, cfg.Logging.Level)
}

// signalContext returns a context canceled on SIGINT or SIGTERM, so a long
// sweep can be stopped and still report what it finished.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
