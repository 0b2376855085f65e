package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/kingrea/strad-mind/internal/config"
	"github.com/kingrea/strad-mind/internal/journal"
	"github.com/kingrea/strad-mind/internal/logging"
	"github.com/kingrea/strad-mind/internal/ritual"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, config.AppVersion)
}

func TestInitConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stradmind.yaml")
	out, err := run(t, "init-config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
}

func TestInvalidLogLevelFails(t *testing.T) {
	_, err := run(t, "version", "--config", filepath.Join(t.TempDir(), "x.yaml"), "--log-level", "loud")
	require.Error(t, err)
}

func TestJournalCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.log")
	cfgPath := filepath.Join(dir, "missing.yaml")

	_, err := run(t, "journal", "--config", cfgPath)
	require.Error(t, err, "journal needs a path")

	out, err := run(t, "journal", "--config", cfgPath, "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is empty")

	jr, err := journal.New(path)
	require.NoError(t, err)
	m := ritual.New(ritual.WithObserver(jr))
	for _, theme := range []string{"entry 0", "entry 1", "entry 2"} {
		m.OpenFrame(ritual.OpenRequest{Theme: theme})
	}
	out, err = run(t, "journal", "--config", cfgPath, "--path", path, "-n", "2")
	require.NoError(t, err)
	assert.NotContains(t, out, "entry 0")
	assert.Contains(t, out, "entry 2")
	assert.Contains(t, out, "(2 of 5 entries)", "two auto closes are journaled too")
}

func TestObserverJournalsTransitions(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.log")
	c := &cli{cfg: cfg, logger: logging.Nop()}

	jr, err := c.openJournal()
	require.NoError(t, err)
	require.NotNil(t, jr)
	machine := ritual.New(ritual.WithObserver(c.observer(jr)))
	machine.OpenFrame(ritual.OpenRequest{Theme: "X"})
	machine.ValidateFact("metric>0")

	data, err := os.ReadFile(cfg.Journal.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "frame_open")
	assert.Contains(t, string(data), "fact_validate")
}

func TestServeWritesLifecycleEntries(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.log")
	c := &cli{cfg: cfg, logger: logging.Nop()}

	ctx, cancel := context.WithCancel(context.Background())
	var g errgroup.Group
	g.Go(func() error { return c.serve(ctx) })
	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, g.Wait())

	jr, err := journal.New(cfg.Journal.Path)
	require.NoError(t, err)
	lines, total := jr.Tail(10)
	require.Equal(t, 2, total, lines)
	assert.Contains(t, lines[0], "INFO  service started url=http://127.0.0.1:")
	assert.Contains(t, lines[1], "INFO  service stopped")
}

func TestServeWithoutJournal(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	c := &cli{cfg: cfg, logger: logging.Nop()}

	jr, err := c.openJournal()
	require.NoError(t, err)
	assert.Nil(t, jr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, c.serve(ctx))
}
