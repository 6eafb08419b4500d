package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/yaml.v3"

	"github.com/nickyhof/DocDB/ps"
)

// Config is the optional YAML configuration file. Flags override it.
type Config struct {
	// Path of the backing document file. Empty means in-memory.
	Path string `yaml:"path"`

	// History enables the embedded revision repository.
	History bool `yaml:"history"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// Aliases maps legacy table names to their canonical name.
	Aliases map[string]string `yaml:"aliases"`

	// MonotonicIDs switches inserts to legacy max(id)+1 ids.
	MonotonicIDs bool `yaml:"monotonic_ids"`

	Backup BackupSection `yaml:"backup"`
}

type BackupSection struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func (cfg Config) backupConfig() *ps.BackupConfig {
	return &ps.BackupConfig{
		Region:    cfg.Backup.Region,
		AccessKey: cfg.Backup.AccessKey,
		SecretKey: cfg.Backup.SecretKey,
		Endpoint:  cfg.Backup.Endpoint,
	}
}

func setupLogger(level string) *slog.Logger {
	parsed := slog.LevelInfo
	switch level {
	case "debug":
		parsed = slog.LevelDebug
	case "warn":
		parsed = slog.LevelWarn
	case "error":
		parsed = slog.LevelError
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parsed,
		TimeFormat: time.Kitchen,
	}))
}
