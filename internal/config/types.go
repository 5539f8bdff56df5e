// Package config provides configuration types for DeskAI.
package config

import "time"

// Config represents the main DeskAI configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Router    RouterConfig    `toml:"router"`
	Inference InferenceConfig `toml:"inference"`
	Models    ModelsConfig    `toml:"models"`
	Tools     ToolsConfig     `toml:"tools"`
	OCR       OCRConfig       `toml:"ocr"`
	Paths     PathsConfig     `toml:"paths"`
	Log       LogConfig       `toml:"log"`
}

// ServerConfig configures the HTTP API used by the front-end.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	MaxConnections int      `toml:"max_connections"`
	RequestTimeout Duration `toml:"request_timeout"`
}

// RouterConfig configures routing decisions.
type RouterConfig struct {
	DefaultModel string `toml:"default_model"`

	// Classify picks a catalog model by intent when no hint is given.
	Classify bool `toml:"classify"`

	// Offline answers model routes with a canned echo and never calls
	// the inference service.
	Offline bool `toml:"offline"`

	// OfflineFallback answers with the canned echo when the inference
	// service is unreachable.
	OfflineFallback bool `toml:"offline_fallback"`
}

// InferenceConfig configures the local inference service client.
type InferenceConfig struct {
	BaseURL        string   `toml:"base_url"`
	Timeout        Duration `toml:"timeout"`
	StatusTimeout  Duration `toml:"status_timeout"`
	StrictResponse bool     `toml:"strict_response"`
}

// ModelsConfig extends the built-in model catalog.
type ModelsConfig struct {
	Catalog []ModelEntry `toml:"catalog"`
}

// ModelEntry is one extra catalog entry.
type ModelEntry struct {
	ID           string   `toml:"id"`
	Name         string   `toml:"name"`
	Description  string   `toml:"description"`
	Capabilities []string `toml:"capabilities"`
}

// ToolsConfig configures local tools.
type ToolsConfig struct {
	Calculator       string `toml:"calculator"` // eval, placeholder
	SearchMaxDepth   int    `toml:"search_max_depth"`
	SearchMaxResults int    `toml:"search_max_results"`
	FollowSymlinks   bool   `toml:"follow_symlinks"`
	MaxReadBytes     int64  `toml:"max_read_bytes"`
}

// OCRConfig configures the OCR bridge.
type OCRConfig struct {
	Command    string   `toml:"command"`
	BundledDir string   `toml:"bundled_dir"`
	Timeout    Duration `toml:"timeout"`
}

// PathsConfig contains file path settings.
type PathsConfig struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	HistoryDB string `toml:"history_db"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// CalculatorMode selects the calculator implementation.
type CalculatorMode string

const (
	CalculatorEval        CalculatorMode = "eval"
	CalculatorPlaceholder CalculatorMode = "placeholder"
)

// Duration is a time.Duration that reads and writes as a TOML string
// such as "2m" or "3s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
