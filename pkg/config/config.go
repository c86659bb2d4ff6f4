// Package config loads nv settings from .nv/config.yaml and NV_* environment
// variables, and discovers navigation tables on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// StateDir is the per-project directory holding config and logs.
const StateDir = ".nv"

// EnvPrefix is stripped from environment overrides. Nested keys use a double
// underscore: NV_SERVE__PORT sets serve.port.
const EnvPrefix = "NV_"

// GlyphStyle selects the connector character set in the terminal.
type GlyphStyle string

const (
	GlyphsUnicode GlyphStyle = "unicode"
	GlyphsASCII   GlyphStyle = "ascii"
)

// Config is the top-level nv configuration, corresponding to .nv/config.yaml.
type Config struct {
	Table               string          `yaml:"table" koanf:"table"`
	DocsDir             string          `yaml:"docs_dir" koanf:"docs_dir"`
	Page                string          `yaml:"page" koanf:"page"`
	FallbackPage        string          `yaml:"fallback_page" koanf:"fallback_page"`
	RelPath             string          `yaml:"rel_path" koanf:"rel_path"`
	Glyphs              GlyphStyle      `yaml:"glyphs" koanf:"glyphs"`
	AnimationMS         int             `yaml:"animation_ms" koanf:"animation_ms"`
	RecenterAfterExpand bool            `yaml:"recenter_after_expand" koanf:"recenter_after_expand"`
	Serve               ServeConfig     `yaml:"serve" koanf:"serve"`
	LogLevel            string          `yaml:"log_level" koanf:"log_level"`
	LogDir              string          `yaml:"log_dir" koanf:"log_dir"`
	Discovery           DiscoveryConfig `yaml:"discovery" koanf:"discovery"`
}

// ServeConfig holds settings for nv serve.
type ServeConfig struct {
	Port int  `yaml:"port" koanf:"port"`
	Open bool `yaml:"open" koanf:"open"`
}

// DiscoveryConfig controls where tables are looked for.
type DiscoveryConfig struct {
	ScanPaths []string `yaml:"scan_paths" koanf:"scan_paths"`
	MaxDepth  int      `yaml:"max_depth" koanf:"max_depth"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		FallbackPage: "index.html",
		Glyphs:       GlyphsUnicode,
		AnimationMS:  200,
		Serve:        ServeConfig{Port: 8080},
		LogLevel:     "info",
		LogDir:       filepath.Join(StateDir, "logs"),
		Discovery: DiscoveryConfig{
			ScanPaths: []string{"."},
			MaxDepth:  4,
		},
	}
}

// DefaultPath returns the config file location inside dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, StateDir, "config.yaml")
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (NV_*). A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}

// envKey maps NV_SERVE__PORT to serve.port.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path, creating the
// parent directory.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validGlyphs = map[GlyphStyle]bool{
	GlyphsUnicode: true,
	GlyphsASCII:   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validGlyphs[c.Glyphs] {
		return fmt.Errorf("invalid glyphs %q: must be unicode or ascii", c.Glyphs)
	}
	if c.AnimationMS < 0 {
		return fmt.Errorf("animation_ms must be non-negative")
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("invalid serve.port %d", c.Serve.Port)
	}
	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.Discovery.MaxDepth < 0 {
		return fmt.Errorf("discovery.max_depth must be non-negative")
	}
	return nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
