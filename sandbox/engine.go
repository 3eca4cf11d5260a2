package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolsandbox/protocol"
)

// Config configures an Engine.
type Config struct {
	// Runner launches isolated execution contexts.
	// Required.
	Runner Runner

	// Enabled gates all invocations. When false, Invoke refuses before
	// any execution context is created.
	Enabled bool

	// Limits is the resource envelope applied to every invocation.
	// Normalized through Clamped; a zero value selects all defaults.
	Limits Limits

	// Logger is an optional logger for invocation events.
	Logger zerolog.Logger
}

// Engine is the sandboxed invocation engine. It runs one module per call
// under the configured resource envelope and collapses every termination
// cause into a typed failure or a decoded ToolResult.
//
// Every invocation is a single attempt; retry policy belongs to callers.
type Engine struct {
	runner  Runner
	enabled bool
	limits  Limits
	logger  zerolog.Logger
}

// New creates an Engine from the given configuration.
func New(cfg Config) (*Engine, error) {
	if cfg.Runner == nil {
		return nil, ErrRunnerRequired
	}
	return &Engine{
		runner:  cfg.Runner,
		enabled: cfg.Enabled,
		limits:  cfg.Limits.Clamped(),
		logger:  cfg.Logger,
	}, nil
}

// Enabled reports whether the engine accepts invocations.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// Limits returns the normalized resource envelope.
func (e *Engine) Limits() Limits {
	return e.limits
}

// Invoke executes the module at modulePath with the given argument object
// and returns its decoded result.
//
// Failure classification:
//   - engine disabled: ErrDisabled, no context created
//   - fuel / deadline / output cap / trap: the matching sentinel
//   - module exited and stdout decodes as a ToolResult: that result, even
//     on a non-zero exit (a tool may report semantic failure in-protocol)
//   - zero exit, undecodable stdout: protocol.ErrViolation
//   - non-zero exit, undecodable stdout: ErrExecutionFailed
//
// A hostile or buggy module always degrades to one of these; Invoke never
// panics and never blocks past the deadline.
func (e *Engine) Invoke(ctx context.Context, modulePath string, args map[string]any) (protocol.ToolResult, error) {
	if !e.enabled {
		return protocol.ToolResult{}, ErrDisabled
	}

	input, err := protocol.EncodeArgs(args)
	if err != nil {
		return protocol.ToolResult{}, err
	}

	id := uuid.NewString()
	e.logger.Debug().
		Str("invocation", id).
		Str("module", modulePath).
		Int("memory_mib", e.limits.MemoryMiB).
		Uint64("fuel", e.limits.Fuel).
		Msg("invoking tool module")

	res, err := e.runner.Run(ctx, Spec{
		ModulePath: modulePath,
		Input:      input,
		Limits:     e.limits,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return protocol.ToolResult{}, err
		}
		e.logger.Warn().Str("invocation", id).Err(err).Msg("sandbox launch failed")
		return protocol.ToolResult{}, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}

	e.logger.Debug().
		Str("invocation", id).
		Stringer("cause", res.Cause).
		Int("exit_code", res.ExitCode).
		Uint64("fuel_used", res.FuelUsed).
		Dur("duration", res.Duration).
		Msg("execution context terminated")

	if cerr := res.Cause.Err(); cerr != nil {
		if res.Detail != "" {
			return protocol.ToolResult{}, fmt.Errorf("%w: %s", cerr, res.Detail)
		}
		return protocol.ToolResult{}, cerr
	}

	// The module exited on its own. Always attempt a decode: exit status
	// alone never implies protocol-valid output, and a decodable result
	// wins regardless of status.
	result, derr := protocol.DecodeResult(res.Stdout)
	if derr == nil {
		return result, nil
	}
	if res.ExitCode == 0 {
		return protocol.ToolResult{}, derr
	}
	return protocol.ToolResult{}, fmt.Errorf("%w: exit status %d: %s",
		ErrExecutionFailed, res.ExitCode, firstLine(res.Stderr))
}

// firstLine returns the first non-empty line of captured stderr for error
// messages, or a placeholder when there is none.
func firstLine(stderr []byte) string {
	start := 0
	for i, b := range stderr {
		if b == '\n' {
			if i > start {
				return string(stderr[start:i])
			}
			start = i + 1
		}
	}
	if start < len(stderr) {
		return string(stderr[start:])
	}
	return "no stderr"
}
