// Package cli implements the toolsandbox command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolsandbox/config"
	"github.com/jonwraymond/toolsandbox/sandbox/wasmtime"
	"github.com/jonwraymond/toolsandbox/skills"
)

// Exit codes.
const (
	exitSuccess    = 0
	exitValidation = 1
	exitRuntime    = 2
	exitNotFound   = 3
)

// ExitError carries an exit code alongside the message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) error {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// loadSettings reads configuration honoring the persistent --config and
// --skills-dir flags.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	path, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(path)
	if err != nil {
		return settings, exitError(exitValidation, "loading config: %v", err)
	}
	if dir, _ := cmd.Flags().GetString("skills-dir"); dir != "" {
		settings.SkillsDir = dir
	}
	return settings, nil
}

// newLogger builds the process logger. Log output goes to stderr so stdout
// stays clean for command output and the MCP session.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		level = zerolog.ErrorLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}

// newHost assembles a Host backed by the wasmtime runner from the loaded
// settings.
func newHost(cmd *cobra.Command, settings config.Settings, logger zerolog.Logger) (*skills.Host, error) {
	host, err := skills.New(skills.Config{
		SkillsDir: settings.SkillsDir,
		Runner:    wasmtime.NewRunner(),
		Enabled:   settings.Enabled,
		Limits:    settings.Limits(),
		Logger:    logger,
	})
	if err != nil {
		return nil, exitError(exitValidation, "%v", err)
	}
	return host, nil
}
