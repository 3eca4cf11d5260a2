// Package config loads host settings and produces the validated limits the
// sandbox consumes.
//
// The file format (YAML, toolsandbox.yaml) and environment overrides
// (TOOLSANDBOX_*) are this package's concern only; the core packages see
// nothing but the resulting Settings value.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jonwraymond/toolsandbox/sandbox"
)

// Defaults for unset settings.
const (
	DefaultSkillsDir = "skills"
	DefaultMemoryMiB = sandbox.DefaultMemoryMiB
)

// Settings is the validated configuration surface consumed by the core.
type Settings struct {
	// Enabled gates all tool invocations.
	Enabled bool `mapstructure:"enabled"`

	// SkillsDir is the discovery root.
	SkillsDir string `mapstructure:"skills_dir"`

	// MemoryMiB is the guest memory ceiling in MiB. Out-of-range values
	// are clamped, not rejected.
	MemoryMiB int `mapstructure:"memory_limit_mb"`

	// Fuel is the per-invocation instruction budget. Zero selects the
	// documented default.
	Fuel uint64 `mapstructure:"fuel_limit"`
}

// Default returns the settings used when no configuration is present.
func Default() Settings {
	return Settings{
		Enabled:   true,
		SkillsDir: DefaultSkillsDir,
		MemoryMiB: DefaultMemoryMiB,
		Fuel:      sandbox.DefaultFuel,
	}
}

// Load reads settings from the given file, or from toolsandbox.yaml in the
// working directory when path is empty. A missing default file yields
// Default(); a missing explicit file is an error.
func Load(path string) (Settings, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("enabled", def.Enabled)
	v.SetDefault("skills_dir", def.SkillsDir)
	v.SetDefault("memory_limit_mb", def.MemoryMiB)
	v.SetDefault("fuel_limit", def.Fuel)

	v.SetEnvPrefix("TOOLSANDBOX")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("toolsandbox")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode: %w", err)
	}
	return s, nil
}

// Limits converts settings into the normalized sandbox envelope. The
// wall-clock deadline and output cap are fixed ceilings and not settable
// here.
func (s Settings) Limits() sandbox.Limits {
	return sandbox.Limits{
		MemoryMiB: s.MemoryMiB,
		Fuel:      s.Fuel,
	}.Clamped()
}
