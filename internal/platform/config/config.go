// Package config builds server configuration from an optional YAML file with
// environment variables layered on top, so main stays lean.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures everything the form service needs at startup.
type Config struct {
	Addr          string
	DatabasePath  string
	LogLevel      string
	UploadBaseURL string
	UploadTimeout time.Duration
}

// fileConfig is the YAML shape; durations arrive as strings ("2m") because
// yaml.v3 has no native time.Duration decoding.
type fileConfig struct {
	Addr          string `yaml:"addr"`
	DatabasePath  string `yaml:"database_path"`
	LogLevel      string `yaml:"log_level"`
	UploadBaseURL string `yaml:"upload_base_url"`
	UploadTimeout string `yaml:"upload_timeout"`
}

func defaults() Config {
	return Config{
		Addr:          ":8080",
		DatabasePath:  "iskolar-forms.db",
		LogLevel:      "info",
		UploadTimeout: 2 * time.Minute,
	}
}

// Load reads the YAML file at path when it exists, then applies environment
// overrides. An empty path skips the file stage.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else {
			var file fileConfig
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
			if err := applyFile(&cfg, file); err != nil {
				return Config{}, fmt.Errorf("config: %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyFile(cfg *Config, file fileConfig) error {
	if file.Addr != "" {
		cfg.Addr = file.Addr
	}
	if file.DatabasePath != "" {
		cfg.DatabasePath = file.DatabasePath
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.UploadBaseURL != "" {
		cfg.UploadBaseURL = file.UploadBaseURL
	}
	if file.UploadTimeout != "" {
		duration, err := time.ParseDuration(file.UploadTimeout)
		if err != nil {
			return fmt.Errorf("upload_timeout: %w", err)
		}
		cfg.UploadTimeout = duration
	}
	return nil
}

// FromEnv builds a Config from environment variables only.
func FromEnv() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if addr := os.Getenv("ISKOLAR_FORMS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if dbPath := os.Getenv("ISKOLAR_FORMS_DB"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if level := os.Getenv("ISKOLAR_FORMS_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if base := os.Getenv("ISKOLAR_FORMS_UPLOAD_BASE_URL"); base != "" {
		cfg.UploadBaseURL = base
	}
	if timeout := os.Getenv("ISKOLAR_FORMS_UPLOAD_TIMEOUT"); timeout != "" {
		if duration, err := time.ParseDuration(timeout); err == nil {
			cfg.UploadTimeout = duration
		}
	}
}
