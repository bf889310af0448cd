// Package config loads world-server configuration from YAML, following a
// defaults-then-overlay pattern: start from DefaultWorld and overlay
// whatever the file specifies.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// World holds all configuration for the world server process.
type World struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Content
	CatalogDir string `yaml:"catalog_dir"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error (default: info)

	// Tick loop
	TickRateHz       int `yaml:"tick_rate_hz"`
	BroadcastEveryMs int `yaml:"broadcast_every_ms"`
	SaveEveryMs      int `yaml:"save_every_ms"`

	// Combat logging retention
	CombatLogRetentionDays int `yaml:"combat_log_retention_days"`

	// Session
	OutboundQueueSize int `yaml:"outbound_queue_size"`
}

// TickPeriod returns the configured tick period as a time.Duration.
func (w World) TickPeriod() time.Duration {
	return time.Second / time.Duration(w.TickRateHz)
}

// BroadcastPeriod returns the configured broadcast period as a
// time.Duration.
func (w World) BroadcastPeriod() time.Duration {
	return time.Duration(w.BroadcastEveryMs) * time.Millisecond
}

// SavePeriod returns the configured async-save period as a time.Duration.
func (w World) SavePeriod() time.Duration {
	return time.Duration(w.SaveEveryMs) * time.Millisecond
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	MaxConns int32 `yaml:"max_conns"`
	MinConns int32 `yaml:"min_conns"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	base := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)

	var params []string
	if d.MaxConns > 0 {
		params = append(params, fmt.Sprintf("pool_max_conns=%d", d.MaxConns))
	}
	if d.MinConns > 0 {
		params = append(params, fmt.Sprintf("pool_min_conns=%d", d.MinConns))
	}

	if len(params) > 0 {
		return base + "&" + strings.Join(params, "&")
	}
	return base
}

// DefaultWorld returns World config with sensible defaults for the
// fixed-rate tick loop (20 Hz, 200 ms broadcast, 5 s save).
func DefaultWorld() World {
	return World{
		BindAddress:            "0.0.0.0",
		Port:                   7777,
		LogLevel:               "info",
		CatalogDir:             "./data/catalog",
		TickRateHz:             20,
		BroadcastEveryMs:       200,
		SaveEveryMs:            5000,
		CombatLogRetentionDays: 30,
		OutboundQueueSize:      64,
		Database: DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			User:    "world",
			Password: "world",
			DBName:  "world",
			SSLMode: "disable",
		},
	}
}

// LoadWorld loads world server config from a YAML file. If the file doesn't
// exist, returns defaults.
func LoadWorld(path string) (World, error) {
	cfg := DefaultWorld()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
