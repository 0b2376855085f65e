package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kingrea/strad-mind/internal/config"
	"github.com/kingrea/strad-mind/internal/logging"
	"github.com/kingrea/strad-mind/internal/ritual"
)

func TestSettingsFromConfig(t *testing.T) {
	eco := false
	cfg := config.Default()
	cfg.Eco = &eco
	cfg.Server.Port = 9001
	cfg.Server.Host = " 127.0.0.1 "
	settings := SettingsFromConfig(cfg)
	if settings.Port != 9001 {
		t.Fatalf("expected port 9001, got %d", settings.Port)
	}
	if settings.Host != "127.0.0.1" {
		t.Fatalf("expected trimmed host, got %q", settings.Host)
	}
	if settings.Eco {
		t.Fatalf("expected eco disabled")
	}
	if settings.URL() != "http://127.0.0.1:9001" {
		t.Fatalf("unexpected url %s", settings.URL())
	}
}

func TestSettingsFromNilConfigUsesDefaults(t *testing.T) {
	settings := SettingsFromConfig(nil)
	if settings.Port != config.DefaultPort || !settings.Eco {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
	if settings.MaxBodyBytes != config.DefaultMaxBodyBytes {
		t.Fatalf("max body = %d", settings.MaxBodyBytes)
	}
}

func TestNewRequiresMachine(t *testing.T) {
	if _, err := New(Settings{}, nil); err == nil {
		t.Fatalf("expected error without machine")
	}
}

func TestServerStartServesAndShutsDown(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	settings := Settings{Host: "127.0.0.1", Port: 0, Eco: true, MaxBodyBytes: 1024, ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second}
	srv, err := New(settings, ritual.New(), WithLogger(logging.Wrap(zap.New(core))))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
	})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start server: %v", err)
	}
	if err := srv.Start(context.Background()); err == nil {
		t.Fatalf("expected error on second start")
	}
	if srv.Status() != StatusReady {
		t.Fatalf("status = %s, want ready", srv.Status())
	}
	base := srv.BaseURL()
	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", resp.StatusCode)
	}

	buf, err := json.Marshal(map[string]any{"theme": "X"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err = http.Post(base+"/v1/frame/open", "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if out["stage"] != "open" {
		t.Fatalf("unexpected open response: %v", out)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.Status() != StatusDraining {
		t.Fatalf("status = %s, want draining", srv.Status())
	}
	if srv.Addr() != "" {
		t.Fatalf("addr should be empty after shutdown")
	}
	if logs.FilterMessage("request").Len() < 2 {
		t.Fatalf("expected access log entries, got %d", logs.FilterMessage("request").Len())
	}
}
