// cmd/stradmind/main.go
//
// Entry point for the stradmind binary.
//
//	stradmind serve         run the HTTP ritual service
//	stradmind pulse         watch a running service from the terminal
//	stradmind journal       print the tail of the transition journal
//	stradmind init-config   write a default config file
//	stradmind version       print the service version

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kingrea/strad-mind/internal/config"
	"github.com/kingrea/strad-mind/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cli holds state shared by the subcommands of one invocation.
type cli struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *logging.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "stradmind",
		Short:         "Strad Mind - Frame, Friction, Flow, Fact",
		Long:          "stradmind hosts the Frame -> Friction -> Flow -> Fact ritual as a small JSON service.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.Log.Level = c.logLevel
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.cfg = cfg
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Close()
			}
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "stradmind.yaml", "path to the YAML config file (missing file means defaults)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	root.AddCommand(
		c.serveCmd(),
		c.pulseCmd(),
		c.journalCmd(),
		c.initConfigCmd(),
		c.versionCmd(),
	)
	return root
}
