package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the resolved client configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Session SessionConfig `toml:"session"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// APIConfig locates the LMS server.
type APIConfig struct {
	BaseURL   string        `toml:"base_url" validate:"required"`
	LoginPath string        `toml:"login_path" validate:"required,startswith=/"`
	Timeout   time.Duration `toml:"-"`
}

// StorageConfig selects where the token and preferences persist. An empty
// Path means the backend's default.
type StorageConfig struct {
	Backend string `toml:"backend" validate:"oneof=file sqlite"`
	Path    string `toml:"path"`
}

// SessionConfig controls session restore.
type SessionConfig struct {
	Resume bool `toml:"resume"`
}

// UIConfig tunes the TUI. A zero RefreshInterval disables background refresh.
type UIConfig struct {
	RefreshInterval time.Duration `toml:"-"`
}

// LogConfig controls the client log.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=trace debug info warn error disabled"`
	File  string `toml:"file" validate:"required"`
}

// Environment overrides, applied after the file.
const (
	EnvAPIURL   = "AULA_API_URL"
	EnvStorage  = "AULA_STORAGE"
	EnvLogLevel = "AULA_LOG_LEVEL"
)

const (
	defaultConfigPath      = "~/.config/aula/config.toml"
	defaultBaseURL         = "http://127.0.0.1:3001"
	defaultLoginPath       = "/api/login"
	defaultTimeout         = 10 * time.Second
	defaultBackend         = "file"
	defaultRefreshInterval = 30 * time.Second
	defaultLogLevel        = "info"
	defaultLogFile         = "~/.local/share/aula/aula.log"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:   defaultBaseURL,
			LoginPath: defaultLoginPath,
			Timeout:   defaultTimeout,
		},
		Storage: StorageConfig{Backend: defaultBackend},
		UI:      UIConfig{RefreshInterval: defaultRefreshInterval},
		Log: LogConfig{
			Level: defaultLogLevel,
			File:  mustExpand(defaultLogFile),
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads the config at path (or the default location), falling back to
// defaults when the file is missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := apply(&cfg, data); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rawConfig struct {
	API struct {
		BaseURL   string `toml:"base_url"`
		LoginPath string `toml:"login_path"`
		Timeout   string `toml:"timeout"`
	} `toml:"api"`
	Storage struct {
		Backend string `toml:"backend"`
		Path    string `toml:"path"`
	} `toml:"storage"`
	Session struct {
		Resume bool `toml:"resume"`
	} `toml:"session"`
	UI struct {
		RefreshInterval string `toml:"refresh_interval"`
	} `toml:"ui"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
}

func apply(cfg *Config, data []byte) error {
	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.API.BaseURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(raw.API.LoginPath); v != "" {
		cfg.API.LoginPath = v
	}
	if v := strings.TrimSpace(raw.API.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: api.timeout: %w", err)
		}
		cfg.API.Timeout = d
	}

	if v := strings.TrimSpace(raw.Storage.Backend); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Storage.Path); v != "" {
		cfg.Storage.Path = mustExpand(v)
	}

	cfg.Session.Resume = raw.Session.Resume

	if v := strings.TrimSpace(raw.UI.RefreshInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config: ui.refresh_interval: %w", err)
		}
		cfg.UI.RefreshInterval = d
	}

	if v := strings.TrimSpace(raw.Log.Level); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Log.File); v != "" {
		cfg.Log.File = mustExpand(v)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorage)); v != "" {
		cfg.Storage.Backend = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
}

// Validate checks field values and returns every problem found.
func (c Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("toml")
		if name == "-" {
			return ""
		}
		return name
	})

	var msg []string
	if err := validate.Struct(c); err != nil {
		var fields validator.ValidationErrors
		if !errors.As(err, &fields) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, field := range fields {
			namespace := field.Namespace()
			name := namespace[strings.IndexByte(namespace, '.')+1:]
			switch field.Tag() {
			case "required":
				msg = append(msg, fmt.Sprintf("%s is required", name))
			case "oneof":
				msg = append(msg, fmt.Sprintf("%s must be one of (%s)", name, field.Param()))
			default:
				msg = append(msg, fmt.Sprintf("%s failed %s", name, field.Tag()))
			}
		}
	}
	if c.API.Timeout <= 0 {
		msg = append(msg, "api.timeout must be positive")
	}
	if c.UI.RefreshInterval < 0 {
		msg = append(msg, "ui.refresh_interval must not be negative")
	}
	if len(msg) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(msg, "; "))
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
