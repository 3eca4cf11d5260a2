package sandbox

import "errors"

// Sentinel errors for the distinct invocation failure kinds. Callers
// classify with errors.Is; the kinds are never collapsed into one generic
// failure.
var (
	// ErrDisabled is returned when invocation is attempted while tool
	// execution is disabled. No execution context is created.
	ErrDisabled = errors.New("sandbox: tool execution disabled")

	// ErrFuelExhausted is returned when the module burned through its
	// instruction budget.
	ErrFuelExhausted = errors.New("sandbox: fuel exhausted")

	// ErrTimeout is returned when the module did not terminate before the
	// wall-clock deadline.
	ErrTimeout = errors.New("sandbox: execution timed out")

	// ErrOutputTooLarge is returned when the module's stdout exceeded the
	// output cap and the context was terminated early.
	ErrOutputTooLarge = errors.New("sandbox: output exceeds size limit")

	// ErrTrapped is returned when the module hit an illegal operation
	// (out-of-bounds access, unreachable, missing _start export).
	ErrTrapped = errors.New("sandbox: module trapped")

	// ErrExecutionFailed is returned for an abnormal non-zero exit with no
	// decodable protocol output, and for host-side launch failures.
	ErrExecutionFailed = errors.New("sandbox: execution failed")

	// ErrRunnerRequired is returned by New when no Runner is configured.
	ErrRunnerRequired = errors.New("sandbox: Runner is required")
)

// Cause identifies why an execution context terminated.
type Cause int

const (
	// CauseCompleted means the module exited on its own; ExitCode carries
	// the status. Exit alone says nothing about protocol validity.
	CauseCompleted Cause = iota

	// CauseFuelExhausted means the fuel budget ran out mid-execution.
	CauseFuelExhausted

	// CauseTimeout means the wall-clock deadline preempted the module.
	CauseTimeout

	// CauseOutputTooLarge means the module was terminated for exceeding
	// the output cap.
	CauseOutputTooLarge

	// CauseTrapped means the module hit an illegal operation or lacks the
	// required entry point.
	CauseTrapped
)

// String returns the cause name for logs.
func (c Cause) String() string {
	switch c {
	case CauseCompleted:
		return "completed"
	case CauseFuelExhausted:
		return "fuel_exhausted"
	case CauseTimeout:
		return "timeout"
	case CauseOutputTooLarge:
		return "output_too_large"
	case CauseTrapped:
		return "trapped"
	default:
		return "unknown"
	}
}

// Err returns the sentinel error for a non-completed cause, or nil for
// CauseCompleted.
func (c Cause) Err() error {
	switch c {
	case CauseFuelExhausted:
		return ErrFuelExhausted
	case CauseTimeout:
		return ErrTimeout
	case CauseOutputTooLarge:
		return ErrOutputTooLarge
	case CauseTrapped:
		return ErrTrapped
	default:
		return nil
	}
}
