// Package config handles DeskAI configuration loading and management.
//
// Values are layered: built-in defaults, then the TOML file, then
// DESKAI_* environment variables (optionally seeded from a .env file).
// Paths are resolved once here and handed to components explicitly.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	apperrors "github.com/deskai/deskai/internal/errors"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "deskai"

// AppDirName is the application folder under the platform config dir.
const AppDirName = "DeskAI"

// Default returns the default configuration.
func Default() *Config {
	dataDir := defaultDataDir()

	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8765,
			MaxConnections: 64,
			RequestTimeout: Duration{5 * time.Minute},
		},
		Router: RouterConfig{
			DefaultModel:    "llama3",
			Classify:        false,
			Offline:         false,
			OfflineFallback: false,
		},
		Inference: InferenceConfig{
			BaseURL:        "http://localhost:11434",
			Timeout:        Duration{120 * time.Second},
			StatusTimeout:  Duration{3 * time.Second},
			StrictResponse: false,
		},
		Tools: ToolsConfig{
			Calculator:       string(CalculatorEval),
			SearchMaxDepth:   5,
			SearchMaxResults: 100,
			FollowSymlinks:   false,
			MaxReadBytes:     10 << 20,
		},
		OCR: OCRConfig{
			Command:    "tesseract",
			BundledDir: filepath.Join(dataDir, "bin"),
			Timeout:    Duration{60 * time.Second},
		},
		Paths: PathsConfig{
			DataDir:   dataDir,
			OutputDir: filepath.Join(dataDir, "out"),
			HistoryDB: filepath.Join(dataDir, "history.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, defaults are used. Environment overrides
// are applied in both cases.
func Load(configPath string) (*Config, error) {
	cfg := Default()
	baseDir := cfg.Paths.DataDir

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", configPath, err)
			}
			rebaseDataDir(cfg, baseDir)
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	cfg = expandPaths(cfg)
	return cfg, nil
}

// LoadDotEnv seeds the process environment from .env files. Missing
// files are ignored; variables already set are not overwritten.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// Save saves the configuration to the given path.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(c)
}

// DefaultConfigPath returns the config file location inside the data dir.
func DefaultConfigPath() string {
	return filepath.Join(defaultDataDir(), "config.toml")
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Inference.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("inference.base_url must be an http(s) URL, got %q", c.Inference.BaseURL)
	}
	if c.Inference.Timeout.Duration <= 0 {
		return invalid("inference.timeout must be positive")
	}
	if c.Inference.StatusTimeout.Duration <= 0 {
		return invalid("inference.status_timeout must be positive")
	}
	if c.OCR.Timeout.Duration <= 0 {
		return invalid("ocr.timeout must be positive")
	}
	if strings.TrimSpace(c.Router.DefaultModel) == "" {
		return invalid("router.default_model is required")
	}
	switch CalculatorMode(c.Tools.Calculator) {
	case CalculatorEval, CalculatorPlaceholder:
	default:
		return invalid("tools.calculator must be %q or %q", CalculatorEval, CalculatorPlaceholder)
	}
	if c.Tools.SearchMaxDepth < 0 || c.Tools.SearchMaxResults < 0 {
		return invalid("search limits must not be negative")
	}
	if c.Paths.OutputDir == "" {
		return invalid("paths.output_dir is required")
	}
	for _, m := range c.Models.Catalog {
		if strings.TrimSpace(m.ID) == "" {
			return invalid("models.catalog entries need an id")
		}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func invalid(format string, args ...any) error {
	return apperrors.New(apperrors.CodeConfigInvalid, fmt.Sprintf(format, args...), apperrors.CategoryUser)
}

// envOverrides lists the DESKAI_* variables. Unset variables leave the
// file/default value alone.
type envOverrides struct {
	InferenceURL     string         `envconfig:"INFERENCE_URL"`
	InferenceTimeout *time.Duration `envconfig:"INFERENCE_TIMEOUT"`
	DefaultModel     string         `envconfig:"DEFAULT_MODEL"`
	Offline          *bool          `envconfig:"OFFLINE"`
	OfflineFallback  *bool          `envconfig:"OFFLINE_FALLBACK"`
	Classify         *bool          `envconfig:"CLASSIFY"`
	LogLevel         string         `envconfig:"LOG_LEVEL"`
	Host             string         `envconfig:"HOST"`
	Port             int            `envconfig:"PORT"`
	DataDir          string         `envconfig:"DATA_DIR"`
	OutputDir        string         `envconfig:"OUTPUT_DIR"`
	OCRCommand       string         `envconfig:"OCR_COMMAND"`
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if env.InferenceURL != "" {
		cfg.Inference.BaseURL = env.InferenceURL
	}
	if env.InferenceTimeout != nil {
		cfg.Inference.Timeout = Duration{*env.InferenceTimeout}
	}
	if env.DefaultModel != "" {
		cfg.Router.DefaultModel = env.DefaultModel
	}
	if env.Offline != nil {
		cfg.Router.Offline = *env.Offline
	}
	if env.OfflineFallback != nil {
		cfg.Router.OfflineFallback = *env.OfflineFallback
	}
	if env.Classify != nil {
		cfg.Router.Classify = *env.Classify
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.Host != "" {
		cfg.Server.Host = env.Host
	}
	if env.Port != 0 {
		cfg.Server.Port = env.Port
	}
	if env.DataDir != "" {
		old := cfg.Paths.DataDir
		cfg.Paths.DataDir = env.DataDir
		rebaseDataDir(cfg, old)
	}
	if env.OutputDir != "" {
		cfg.Paths.OutputDir = env.OutputDir
	}
	if env.OCRCommand != "" {
		cfg.OCR.Command = env.OCRCommand
	}
	return nil
}

// rebaseDataDir moves the paths derived from oldDir under the current
// data dir. Paths set explicitly are left alone.
func rebaseDataDir(cfg *Config, oldDir string) {
	newDir := cfg.Paths.DataDir
	if newDir == oldDir {
		return
	}
	if cfg.Paths.OutputDir == filepath.Join(oldDir, "out") {
		cfg.Paths.OutputDir = filepath.Join(newDir, "out")
	}
	if cfg.Paths.HistoryDB == filepath.Join(oldDir, "history.db") {
		cfg.Paths.HistoryDB = filepath.Join(newDir, "history.db")
	}
	if cfg.OCR.BundledDir == filepath.Join(oldDir, "bin") {
		cfg.OCR.BundledDir = filepath.Join(newDir, "bin")
	}
}

// defaultDataDir is the platform app-data location, e.g.
// %AppData%\DeskAI on Windows or ~/.config/DeskAI on Linux.
func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppDirName)
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, "."+strings.ToLower(AppDirName))
}

// expandPaths expands ~ in paths and makes them absolute.
func expandPaths(cfg *Config) *Config {
	cfg.Paths.DataDir = expand(cfg.Paths.DataDir)
	cfg.Paths.OutputDir = expand(cfg.Paths.OutputDir)
	cfg.Paths.HistoryDB = expand(cfg.Paths.HistoryDB)
	cfg.OCR.BundledDir = expand(cfg.OCR.BundledDir)
	return cfg
}

func expand(p string) string {
	if p == "" {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		homeDir, _ := os.UserHomeDir()
		p = filepath.Join(homeDir, p[1:])
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
