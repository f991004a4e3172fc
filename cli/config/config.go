package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/justapithecus/monochrome/capture"
	"github.com/justapithecus/monochrome/launcher"
)

// Config represents a monochrome.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Viewer    ViewerConfig    `yaml:"viewer"`
	Transport TransportConfig `yaml:"transport"`
	Capture   CaptureConfig   `yaml:"capture"`
	Adapter   AdapterConfig   `yaml:"adapter"`
}

// ViewerConfig locates the viewer and sets its launch options.
type ViewerConfig struct {
	Binary     string  `yaml:"binary"`
	DataDir    string  `yaml:"data_dir"`
	Speed      float64 `yaml:"speed"`
	DisplayFPS int     `yaml:"display_fps"`
	Scale      float64 `yaml:"scale"`
	FlipH      bool    `yaml:"fliph"`
	FlipV      bool    `yaml:"flipv"`
	// Args are extra --key value flags passed on every launch.
	Args map[string]string `yaml:"args,omitempty"`
}

// TransportConfig holds connection defaults.
type TransportConfig struct {
	// Address overrides the platform default ("unix:/path", "tcp:host:port").
	Address        string   `yaml:"address"`
	Autostart      *bool    `yaml:"autostart,omitempty"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
	WriteTimeout   Duration `yaml:"write_timeout"`
}

// CaptureConfig enables recording of sent frames.
type CaptureConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dataset     string `yaml:"dataset"`
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// AdapterConfig holds notification adapter defaults.
type AdapterConfig struct {
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Mode    string            `yaml:"mode,omitempty"`
	Secret  string            `yaml:"secret,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// LauncherConfig returns the binary location settings.
func (v ViewerConfig) LauncherConfig() launcher.Config {
	return launcher.Config{BinaryPath: v.Binary, DataDir: v.DataDir}
}

// Options converts the viewer section into launch options. Extra args are
// sorted by key. "true" and "false" become bare flags.
func (v ViewerConfig) Options() launcher.Options {
	opts := launcher.Options{
		Speed:      v.Speed,
		DisplayFPS: v.DisplayFPS,
		Scale:      v.Scale,
		FlipH:      v.FlipH,
		FlipV:      v.FlipV,
	}
	keys := make([]string, 0, len(v.Args))
	for k := range v.Args {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		switch val := v.Args[k]; val {
		case "true", "false":
			opts.Extra = append(opts.Extra, launcher.BoolFlag(k, val == "true"))
		default:
			opts.Extra = append(opts.Extra, launcher.StringFlag(k, val))
		}
	}
	return opts
}

// BackendConfig converts the capture section for capture.Factory.
func (c CaptureConfig) BackendConfig() capture.BackendConfig {
	return capture.BackendConfig{
		Backend: c.Backend,
		Path:    c.Path,
		S3: capture.S3Config{
			Region:       c.Region,
			Endpoint:     c.Endpoint,
			UsePathStyle: c.S3PathStyle,
		},
	}
}
