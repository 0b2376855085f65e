// internal/config/config.go
//
// This package loads the service configuration. Settings come from an
// optional YAML file and are then overridden by environment variables, so a
// bare `stradmind serve` with only PORT/ECO set behaves like the hosted
// deployment.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is reported by /health.
	AppName = "Strad Mind — Core"
	// AppVersion is reported by /health and /v1/state.
	AppVersion = "1.0.7"

	// DefaultHost binds every interface, matching the hosted deployment.
	DefaultHost = "0.0.0.0"
	// DefaultPort is used when neither the file nor PORT set one.
	DefaultPort = 8000
	// DefaultMaxBodyBytes limits request payloads to 1 MB.
	DefaultMaxBodyBytes int64 = 1 << 20
	// DefaultReadTimeout guards hung clients.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds handler writes.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
	// DefaultLogLevel is the zap level name used when unset.
	DefaultLogLevel = "info"
)

// Environment variables read by ApplyEnv.
const (
	EnvEco      = "ECO"
	EnvPort     = "PORT"
	EnvHost     = "HOST"
	EnvLogLevel = "STRADMIND_LOG_LEVEL"
	EnvJournal  = "STRADMIND_JOURNAL"
)

const defaultConfigYAML = `# stradmind configuration
version: 1

server:
  host: 0.0.0.0
  port: 8000
  max_body_bytes: 1048576
  read_timeout: 15s
  write_timeout: 15s
  idle_timeout: 60s

# Eco mode trims responses to ok/stage/semaphore/time/frame_id/hint.
eco: true

log:
  level: info
  # Extra sink next to stderr. Leave empty to log to stderr only.
  file: ""

# Append-only audit of ritual transitions. Leave empty to disable.
journal:
  path: ""
`

// ServerConfig captures HTTP listener settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// LogConfig selects the logger level and optional file sink.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// JournalConfig points at the transition journal file.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// Config holds the runtime configuration.
type Config struct {
	Version int           `yaml:"version"`
	Server  ServerConfig  `yaml:"server"`
	Eco     *bool         `yaml:"eco"`
	Log     LogConfig     `yaml:"log"`
	Journal JournalConfig `yaml:"journal"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path (if non-empty and present), applies defaults, environment
// overrides and validation.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.applyDefaults()
	cfg.ApplyEnv()
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes a commented default file to path unless one exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0644)
}

// EcoEnabled reports whether eco mode is on. Unset means on.
func (c *Config) EcoEnabled() bool {
	if c == nil || c.Eco == nil {
		return true
	}
	return *c.Eco
}

// ParseEco interprets an ECO value the way the hosted service does:
// 1, true and yes (any case) enable eco mode, anything else disables it.
func ParseEco(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// ApplyEnv overlays environment variables on top of the loaded values.
func (c *Config) ApplyEnv() {
	if c == nil {
		return
	}
	if value, ok := os.LookupEnv(EnvEco); ok {
		eco := ParseEco(value)
		c.Eco = &eco
	}
	if port := strings.TrimSpace(os.Getenv(EnvPort)); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil && isValidPort(parsed) {
			c.Server.Port = parsed
		}
	}
	if host := strings.TrimSpace(os.Getenv(EnvHost)); host != "" {
		c.Server.Host = host
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		c.Log.Level = level
	}
	if journal := strings.TrimSpace(os.Getenv(EnvJournal)); journal != "" {
		c.Journal.Path = journal
	}
}

func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = DefaultIdleTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func (c *Config) normalize() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.File = strings.TrimSpace(c.Log.File)
	c.Journal.Path = strings.TrimSpace(c.Journal.Path)
}

func (c *Config) validate() error {
	if c.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !isValidPort(c.Server.Port) {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
