package skills

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolsandbox/protocol"
	"github.com/jonwraymond/toolsandbox/registry"
	"github.com/jonwraymond/toolsandbox/sandbox"
)

// Errors returned by Host construction.
var (
	// ErrRunnerRequired is returned by New when no Runner is configured.
	ErrRunnerRequired = errors.New("skills: Runner is required")

	// ErrSkillsDirRequired is returned by New when no skills root is set.
	ErrSkillsDirRequired = errors.New("skills: SkillsDir is required")
)

// Config configures a Host.
type Config struct {
	// SkillsDir is the discovery root.
	// Required.
	SkillsDir string

	// Runner launches isolated execution contexts.
	// Required.
	Runner sandbox.Runner

	// Enabled gates invocations. Discovery and listing work either way so
	// operators can inspect installed tools while execution is off.
	Enabled bool

	// Limits is the per-invocation resource envelope. A zero value
	// selects all defaults.
	Limits sandbox.Limits

	// Logger is an optional logger for discovery and invocation events.
	Logger zerolog.Logger
}

// Host combines discovery, the registry, and the sandboxed engine into the
// single surface the calling agent uses.
type Host struct {
	registry *registry.Registry
	engine   *sandbox.Engine
	root     string
	logger   zerolog.Logger
}

// New creates a Host and runs the initial discovery pass.
func New(cfg Config) (*Host, error) {
	if cfg.Runner == nil {
		return nil, ErrRunnerRequired
	}
	if cfg.SkillsDir == "" {
		return nil, ErrSkillsDirRequired
	}

	engine, err := sandbox.New(sandbox.Config{
		Runner:  cfg.Runner,
		Enabled: cfg.Enabled,
		Limits:  cfg.Limits,
		Logger:  cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	h := &Host{
		registry: registry.New(),
		engine:   engine,
		root:     cfg.SkillsDir,
		logger:   cfg.Logger,
	}
	h.Rescan()
	return h, nil
}

// Rescan runs a full discovery pass and atomically publishes the new
// generation. In-flight calls keep the generation they resolved against.
func (h *Host) Rescan() registry.Report {
	snap, report := registry.Rebuild(h.root, h.logger)
	h.registry.Publish(snap)
	h.logger.Info().
		Int("tools", report.Registered).
		Int("invalid", len(report.Invalid)).
		Int("duplicates", len(report.Duplicates)).
		Msg("tool registry published")
	return report
}

// List returns the registered tools in discovery order.
func (h *Host) List() []registry.Entry {
	return h.registry.List()
}

// Lookup resolves a tool name to its bundle.
func (h *Host) Lookup(name string) (registry.Bundle, error) {
	return h.registry.Lookup(name)
}

// RunTool resolves a tool by name and invokes it once with the given
// argument object. Errors are the union of registry.ErrNotFound and the
// sandbox/protocol taxonomy; every invocation is a single attempt.
func (h *Host) RunTool(ctx context.Context, name string, args map[string]any) (protocol.ToolResult, error) {
	bundle, err := h.registry.Lookup(name)
	if err != nil {
		return protocol.ToolResult{}, err
	}
	return h.engine.Invoke(ctx, bundle.ModulePath, args)
}

// Watch keeps the registry in sync with the skills directory until ctx is
// canceled.
func (h *Host) Watch(ctx context.Context) error {
	return registry.Watch(ctx, h.registry, h.root, h.logger)
}

// Enabled reports whether invocations are accepted.
func (h *Host) Enabled() bool {
	return h.engine.Enabled()
}
