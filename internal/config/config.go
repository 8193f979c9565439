// Package config holds runtime configuration for pipeline stages: defaults,
// optional YAML stage files, environment overrides, and validation. A Config
// value is constructed once per stage invocation and passed down explicitly;
// there is no process-wide configuration state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// --- Enum types for validated string fields ---

// Method selects the waveform-processing backend for a stage.
type Method string

const (
	MethodPrimary Method = "primary" // In-process waveform backend (default).
	MethodSAC     Method = "sac"     // External SAC command-line tool.
)

// ColorMode controls ANSI color in console logs.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Settings are process-level knobs read from the environment
// (SEISBATCH_BIN_DIR etc.), kept apart from per-stage Config.
type Settings struct {
	BinDir string `envconfig:"BIN_DIR" default:"bin"`
}

// LoadSettings reads Settings from SEISBATCH_* environment variables.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process("seisbatch", &s); err != nil {
		return Settings{}, fmt.Errorf("environment: %w", err)
	}
	return s, nil
}

// Config holds all per-stage settings. Populated by [Default], optionally
// overlaid from a YAML stage file, then mutated by CLI flags before being
// validated. Stages read only the fields that concern them.
type Config struct {
	// Paths.
	SourceDir string `yaml:"source_dir"`
	DestDir   string `yaml:"dest_dir"`

	// Discovery and dispatch.
	Pattern   string `yaml:"glob_pattern"` // Default: "*.sac".
	BatchSize int    `yaml:"batch_size"`   // Default: 2000. Only batch-dispatch stages use it.
	Workers   int    `yaml:"max_workers"`  // Default: 5.

	// Behavior.
	RemoveSource bool    `yaml:"remove_source"` // Delete sources only after a successful write.
	Method       Method  `yaml:"method"`        // Default: "primary".
	ResampleRate float64 `yaml:"resample_rate"` // Hz; 0 means no resampling.

	// Stage inputs.
	ResponseDir string `yaml:"response_dir"` // SACPZ files, one per station (deconv).
	EventsFile  string `yaml:"events_file"`  // Event catalog CSV (cut, format).
	StationFile string `yaml:"station_file"` // Station metadata CSV (format).
	DriftFile   string `yaml:"drift_file"`   // Clock-drift table CSV (drift).
	TimeWindow  int    `yaml:"time_window"`  // Event window length in seconds (cut). Default: 10800.

	// External tools.
	BinDir string `yaml:"bin_dir"` // Resource directory for sac/mseed2sac.

	// Download (FDSN dataselect).
	BaseURL         string        `yaml:"base_url"`
	Network         string        `yaml:"network"`
	Station         string        `yaml:"station"`          // Comma-separated station codes.
	Location        string        `yaml:"location"`         // Default: "*".
	Channel         string        `yaml:"channel"`          // Default: "*".
	StartDate       string        `yaml:"start_date"`       // YYYY-MM-DD.
	EndDate         string        `yaml:"end_date"`         // YYYY-MM-DD or "now".
	RequestInterval time.Duration `yaml:"request_interval"` // Minimum delay between requests. Default: 200ms.

	// Display and logging.
	Verbose   bool      `yaml:"verbose"`
	LogFile   string    `yaml:"log_file"`
	ColorMode ColorMode `yaml:"color"`
}

// Default returns a Config with the stock defaults every stage starts from.
func Default() Config {
	return Config{
		Pattern:         "*.sac",
		BatchSize:       2000,
		Workers:         5,
		Method:          MethodPrimary,
		TimeWindow:      10800,
		Location:        "*",
		Channel:         "*",
		RequestInterval: 200 * time.Millisecond,
		ColorMode:       ColorAuto,
	}
}

// LoadFile overlays a YAML stage file onto c. Unknown keys are rejected so
// a typo in a stage file surfaces as a configuration error, not a silently
// ignored option.
func LoadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory path. The
// filesystem root "/" is returned unchanged.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks the fields shared by all stages. Stage commands perform
// their own checks for stage-specific inputs (response dir, catalog files)
// on top of this.
func (c *Config) Validate() error {
	switch c.Method {
	case MethodPrimary, MethodSAC:
		// valid
	default:
		return fmt.Errorf("unknown method %q (use 'primary' or 'sac')", c.Method)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("unknown color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("max workers must be positive, got %d", c.Workers)
	}
	if c.ResampleRate < 0 {
		return fmt.Errorf("resample rate must not be negative, got %g", c.ResampleRate)
	}
	if c.Pattern == "" {
		return errors.New("glob pattern must not be empty")
	}
	return nil
}

// ValidatePaths ensures the resolved destination directory is not inside
// (or equal to) the resolved source directory, which would make the
// pipeline rediscover its own output. Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(sourceAbs, destAbs string) error {
	sep := string(filepath.Separator)
	if destAbs == sourceAbs || strings.HasPrefix(destAbs+sep, sourceAbs+sep) {
		return errors.New("destination directory must not be inside source directory")
	}
	return nil
}
