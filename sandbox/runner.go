package sandbox

import (
	"context"
	"errors"
	"time"
)

// Spec describes one isolated execution of a module.
type Spec struct {
	// ModulePath is the compiled module on disk. Required.
	ModulePath string

	// Input is written as the module's entire stdin stream.
	Input []byte

	// Limits is the resource envelope. Normalized via Clamped by the
	// engine before the spec reaches a Runner.
	Limits Limits
}

// Validate checks Spec for errors before execution.
func (s Spec) Validate() error {
	if s.ModulePath == "" {
		return errors.New("module path is required")
	}
	if s.Limits.Fuel == 0 || s.Limits.Timeout <= 0 || s.Limits.OutputBytes <= 0 {
		return errors.New("limits not normalized; call Limits.Clamped first")
	}
	return nil
}

// Result reports how an execution context terminated.
type Result struct {
	// Cause is the termination cause.
	Cause Cause

	// ExitCode is the module's exit status. Meaningful only when Cause is
	// CauseCompleted.
	ExitCode int

	// Stdout is the captured output stream, truncated at the output cap.
	Stdout []byte

	// Stderr is the captured error stream, truncated at the output cap.
	Stderr []byte

	// Detail carries the trap message for CauseTrapped, empty otherwise.
	Detail string

	// FuelUsed is the consumed instruction budget, if the runtime reports it.
	FuelUsed uint64

	// Duration is the wall-clock time the context ran.
	Duration time.Duration
}

// Runner launches one fresh, isolated execution context per call.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use; two
//     in-flight runs never share mutable sandbox state.
//   - Isolation: the context gets no filesystem, no network, and no ambient
//     environment; stdin/stdout are the only channels.
//   - Limits: the envelope in Spec.Limits must be installed before any
//     module code runs. The wall-clock deadline is the authoritative
//     backstop regardless of fuel-check granularity.
//   - Context: cancellation tears the execution context down; Run must
//     return promptly after cancellation.
//   - Errors: host-side failures (unreadable module, runtime setup) return
//     an error. Guest-caused terminations are reported via Result.Cause,
//     never as an error.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}
