package sandbox

import "time"

// Resource envelope bounds. Memory is clamped into its range rather than
// rejected; the wall-clock deadline and output cap are fixed ceilings.
const (
	// MinMemoryMiB and MaxMemoryMiB bound the guest memory ceiling.
	MinMemoryMiB = 1
	MaxMemoryMiB = 256

	// DefaultMemoryMiB is the guest memory ceiling when unconfigured.
	DefaultMemoryMiB = 64

	// DefaultFuel is the instruction budget when unconfigured. Fuel is an
	// abstract unit roughly proportional to executed instructions.
	DefaultFuel uint64 = 10_000_000

	// MaxTimeout is the wall-clock deadline for one invocation. Not
	// caller-configurable beyond the default.
	MaxTimeout = 30 * time.Second

	// MaxOutputBytes caps a module's accumulated stdout. Exceeding it
	// terminates the module instead of buffering unbounded data.
	MaxOutputBytes int64 = 1 << 20
)

// Limits is the per-invocation resource envelope. Values are normalized
// through Clamped before use; a zero Limits clamps to all defaults.
type Limits struct {
	// MemoryMiB is the guest memory ceiling in MiB, clamped to
	// [MinMemoryMiB, MaxMemoryMiB].
	MemoryMiB int

	// Fuel is the instruction budget. Zero selects DefaultFuel.
	Fuel uint64

	// Timeout is the wall-clock deadline. Zero selects MaxTimeout; larger
	// values clamp down to MaxTimeout.
	Timeout time.Duration

	// OutputBytes caps accumulated stdout. Zero selects MaxOutputBytes;
	// larger values clamp down to MaxOutputBytes.
	OutputBytes int64
}

// DefaultLimits returns the documented default envelope.
func DefaultLimits() Limits {
	return Limits{
		MemoryMiB:   DefaultMemoryMiB,
		Fuel:        DefaultFuel,
		Timeout:     MaxTimeout,
		OutputBytes: MaxOutputBytes,
	}
}

// Clamped returns a copy with every field forced into its valid range.
// Out-of-range values are clamped, never rejected, so a misconfigured host
// still runs with a safe envelope.
func (l Limits) Clamped() Limits {
	out := l
	if out.MemoryMiB == 0 {
		out.MemoryMiB = DefaultMemoryMiB
	}
	if out.MemoryMiB < MinMemoryMiB {
		out.MemoryMiB = MinMemoryMiB
	}
	if out.MemoryMiB > MaxMemoryMiB {
		out.MemoryMiB = MaxMemoryMiB
	}
	if out.Fuel == 0 {
		out.Fuel = DefaultFuel
	}
	if out.Timeout <= 0 || out.Timeout > MaxTimeout {
		out.Timeout = MaxTimeout
	}
	if out.OutputBytes <= 0 || out.OutputBytes > MaxOutputBytes {
		out.OutputBytes = MaxOutputBytes
	}
	return out
}

// MemoryBytes returns the clamped memory ceiling in bytes.
func (l Limits) MemoryBytes() int64 {
	return int64(l.Clamped().MemoryMiB) << 20
}
