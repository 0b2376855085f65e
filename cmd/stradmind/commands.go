package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/strad-mind/internal/client"
	"github.com/kingrea/strad-mind/internal/config"
	"github.com/kingrea/strad-mind/internal/journal"
	"github.com/kingrea/strad-mind/internal/ritual"
	"github.com/kingrea/strad-mind/internal/server"
	"github.com/kingrea/strad-mind/internal/tui"
)

const shutdownGrace = 5 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ritual HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("host") {
				c.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				c.cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", config.DefaultHost, "interface to bind")
	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "TCP port to bind (0 picks a free port)")
	return cmd
}

// serve runs the service until ctx is cancelled.
func (c *cli) serve(ctx context.Context) error {
	jr, err := c.openJournal()
	if err != nil {
		return err
	}
	machine := ritual.New(ritual.WithObserver(c.observer(jr)))
	srv, err := server.New(server.SettingsFromConfig(c.cfg), machine, server.WithLogger(c.logger.Named("http")))
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}
	if jr != nil {
		jr.Info("service started url=%s version=%s", srv.BaseURL(), config.AppVersion)
	}
	<-ctx.Done()
	c.logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutdown: %w", err)
		}
		if jr != nil {
			jr.Warn("shutdown deadline exceeded after %s", shutdownGrace)
		}
		return nil
	}
	if jr != nil {
		jr.Info("service stopped")
	}
	return nil
}

// openJournal returns the configured journal, or nil when none is set.
func (c *cli) openJournal() (*journal.Journal, error) {
	path := strings.TrimSpace(c.cfg.Journal.Path)
	if path == "" {
		return nil, nil
	}
	jr, err := journal.New(path)
	if err != nil {
		return nil, err
	}
	c.logger.Printf("journal: %s", jr.Path())
	return jr, nil
}

// observer logs every transition at debug level and appends it to jr when
// one is configured.
func (c *cli) observer(jr *journal.Journal) ritual.Observer {
	log := c.logger.Named("ritual").Zap()
	return ritual.ObserverFunc(func(tr ritual.Transition) {
		log.Debug("transition",
			zap.String("op", tr.Op),
			zap.String("from", string(tr.From)),
			zap.String("to", string(tr.To)),
			zap.String("frame_id", tr.FrameID),
			zap.String("detail", tr.Detail),
		)
		if jr != nil {
			jr.Observe(tr)
		}
	})
}

func (c *cli) pulseCmd() *cobra.Command {
	var (
		url      string
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "pulse",
		Short: "Watch a running service's frame status",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := url
			if target == "" {
				target = server.SettingsFromConfig(c.cfg).URL()
				target = strings.Replace(target, "://0.0.0.0:", "://127.0.0.1:", 1)
			}
			p := tea.NewProgram(
				tui.NewDashboard(client.New(target), target, interval),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running dashboard: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "service base URL (defaults to the configured host and port)")
	cmd.Flags().DurationVar(&interval, "interval", tui.DefaultRefreshInterval, "refresh interval")
	return cmd
}

func (c *cli) journalCmd() *cobra.Command {
	var (
		path  string
		lines int
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Print the most recent journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = c.cfg.Journal.Path
			}
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("no journal configured: pass --path or set journal.path")
			}
			jr, err := journal.New(path)
			if err != nil {
				return err
			}
			entries, total := jr.Tail(lines)
			out := cmd.OutOrStdout()
			if total == 0 {
				fmt.Fprintf(out, "%s is empty\n", jr.Path())
				return nil
			}
			for _, line := range entries {
				fmt.Fprintln(out, line)
			}
			if total > len(entries) {
				fmt.Fprintf(out, "(%d of %d entries)\n", len(entries), total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "journal file (defaults to journal.path)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 20, "number of entries to show")
	return cmd
}

func (c *cli) initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a default config file unless one exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(c.configPath); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", c.configPath)
			return nil
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the service version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.AppVersion)
		},
	}
}
