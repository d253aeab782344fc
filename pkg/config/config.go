// Package config loads cardscan settings from .env, an optional YAML file and
// the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultOutput is the report file name written into the scanned directory.
const DefaultOutput = "extracted_contacts.txt"

// Config holds every tunable of the CLI and the API server.
type Config struct {
	Dir             string `yaml:"dir"`
	Output          string `yaml:"output"`
	Workers         int    `yaml:"workers"`
	Language        string `yaml:"language"`
	Preprocess      string `yaml:"preprocess"`
	IncludeFailures bool   `yaml:"include_failures"`
	// ImageTimeout bounds a single image, e.g. "30s". Zero means no limit.
	ImageTimeout time.Duration `yaml:"image_timeout"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	DatabaseDSN    string `yaml:"db_dsn"`
	DBAutoMigrate  bool   `yaml:"db_auto_migrate"`
	JWTSecret      string `yaml:"jwt_secret"`
	UploadBase     string `yaml:"upload_base"`
	ListenAddr     string `yaml:"listen_addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Output:         DefaultOutput,
		Workers:        1,
		Language:       "eng",
		Preprocess:     "gray",
		LogLevel:       "info",
		LogFormat:      "console",
		DBAutoMigrate:  true,
		UploadBase:     "uploads",
		ListenAddr:     ":8081",
		MaxUploadBytes: 5 << 20,
	}
}

// Load builds the configuration. path may be empty; CARDSCAN_CONFIG is used then.
// A .env file in the working directory is loaded first without overriding
// variables that are already set.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CARDSCAN_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("CARDSCAN_DIR", &cfg.Dir)
	str("CARDSCAN_OUTPUT", &cfg.Output)
	str("CARDSCAN_LANG", &cfg.Language)
	str("CARDSCAN_PREPROCESS", &cfg.Preprocess)
	str("CARDSCAN_LOG_LEVEL", &cfg.LogLevel)
	str("CARDSCAN_LOG_FORMAT", &cfg.LogFormat)
	str("DB_DSN", &cfg.DatabaseDSN)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("UPLOAD_BASE", &cfg.UploadBase)
	str("LISTEN_ADDR", &cfg.ListenAddr)

	if v := os.Getenv("CARDSCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CARDSCAN_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v := os.Getenv("CARDSCAN_IMAGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CARDSCAN_IMAGE_TIMEOUT: %w", err)
		}
		cfg.ImageTimeout = d
	}
	if v := os.Getenv("CARDSCAN_INCLUDE_FAILURES"); v != "" {
		cfg.IncludeFailures = truthy(v)
	}
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		cfg.DBAutoMigrate = truthy(v)
	}
	return nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0", "no", "off":
		return false
	}
	return true
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.ImageTimeout < 0 {
		return fmt.Errorf("image timeout must not be negative")
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("output must not be empty")
	}
	return nil
}

// Languages splits Language ("eng+ind" or "eng,ind") into tesseract codes.
func (c Config) Languages() []string {
	f := func(r rune) bool { return r == '+' || r == ',' || r == ' ' }
	langs := strings.FieldsFunc(c.Language, f)
	if len(langs) == 0 {
		return []string{"eng"}
	}
	return langs
}
