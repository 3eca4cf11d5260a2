// Package wasmtime implements sandbox.Runner on the Wasmtime runtime.
//
// Every call compiles the module into a fresh engine and store, so two
// in-flight runs share no mutable runtime state. The resource envelope maps
// directly onto Wasmtime primitives:
//
//   - memory ceiling: store resource limiter
//   - fuel budget: fuel metering (SetConsumeFuel + SetFuel)
//   - wall-clock deadline: epoch interruption driven by a watchdog goroutine
//
// The module sees only WASI stdio. No directories are preopened, no
// environment is inherited, and WASI has no socket surface here, so the
// guest has no filesystem or network access.
package wasmtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	wt "github.com/bytecodealliance/wasmtime-go/v25"

	"github.com/jonwraymond/toolsandbox/sandbox"
)

// pollInterval is how often the watchdog checks the deadline and the
// accumulated output size.
const pollInterval = 25 * time.Millisecond

// Runner runs WebAssembly modules under the sandbox resource envelope.
// The zero value is not usable; call NewRunner.
type Runner struct{}

// NewRunner creates a Wasmtime-backed Runner.
func NewRunner() *Runner {
	return &Runner{}
}

var _ sandbox.Runner = (*Runner)(nil)

// Run executes one module in a fresh isolated store.
func (r *Runner) Run(ctx context.Context, spec sandbox.Spec) (sandbox.Result, error) {
	if err := spec.Validate(); err != nil {
		return sandbox.Result{}, fmt.Errorf("wasmtime: invalid spec: %w", err)
	}

	moduleBytes, err := os.ReadFile(spec.ModulePath)
	if err != nil {
		return sandbox.Result{}, fmt.Errorf("wasmtime: read module: %w", err)
	}

	cfg := wt.NewConfig()
	cfg.SetConsumeFuel(true)
	cfg.SetEpochInterruption(true)
	engine := wt.NewEngineWithConfig(cfg)

	module, err := wt.NewModule(engine, moduleBytes)
	if err != nil {
		return sandbox.Result{}, fmt.Errorf("wasmtime: compile module: %w", err)
	}

	store := wt.NewStore(engine)
	store.Limiter(spec.Limits.MemoryBytes(), -1, -1, -1, -1)
	if err := store.SetFuel(spec.Limits.Fuel); err != nil {
		return sandbox.Result{}, fmt.Errorf("wasmtime: set fuel: %w", err)
	}
	// The watchdog increments the epoch exactly once, to kill; a deadline
	// of one tick preempts the guest at its next epoch check.
	store.SetEpochDeadline(1)

	stdio, err := newStdioFiles(spec.Input)
	if err != nil {
		return sandbox.Result{}, err
	}
	defer stdio.cleanup()

	wasi := wt.NewWasiConfig()
	if err := wasi.SetStdinFile(stdio.stdin); err != nil {
		return sandbox.Result{}, fmt.Errorf("wasmtime: wire stdin: %w", err)
	}
	if err := wasi.SetStdoutFile(stdio.stdout); err != nil {
		return sandbox.Result{}, fmt.Errorf("wasmtime: wire stdout: %w", err)
	}
	if err := wasi.SetStderrFile(stdio.stderr); err != nil {
		return sandbox.Result{}, fmt.Errorf("wasmtime: wire stderr: %w", err)
	}
	store.SetWasi(wasi)

	linker := wt.NewLinker(engine)
	if err := linker.DefineWasi(); err != nil {
		return sandbox.Result{}, fmt.Errorf("wasmtime: define wasi: %w", err)
	}

	instance, err := linker.Instantiate(store, module)
	if err != nil {
		return sandbox.Result{}, fmt.Errorf("wasmtime: instantiate: %w", err)
	}

	start := instance.GetFunc(store, "_start")
	if start == nil {
		return sandbox.Result{
			Cause:  sandbox.CauseTrapped,
			Detail: "module does not export _start (compile as a WASI command)",
		}, nil
	}

	var overflowHit, canceled atomic.Bool
	stop := make(chan struct{})
	watchdogDone := make(chan struct{})
	go func() {
		defer close(watchdogDone)
		r.watchdog(ctx, engine, stdio.stdout, spec.Limits, stop, &overflowHit, &canceled)
	}()

	began := time.Now()
	_, callErr := start.Call(store)
	elapsed := time.Since(began)

	close(stop)
	<-watchdogDone

	stdout, stderr, readErr := stdio.collect(spec.Limits.OutputBytes)
	if readErr != nil {
		return sandbox.Result{}, readErr
	}

	var fuelUsed uint64
	if remaining, err := store.GetFuel(); err == nil && remaining <= spec.Limits.Fuel {
		fuelUsed = spec.Limits.Fuel - remaining
	}

	result := sandbox.Result{
		Stdout:   stdout,
		Stderr:   stderr,
		FuelUsed: fuelUsed,
		Duration: elapsed,
	}

	cause, exitCode, detail, err := classify(ctx, callErr, &overflowHit, &canceled)
	if err != nil {
		return sandbox.Result{}, err
	}
	result.Cause = cause
	result.ExitCode = exitCode
	result.Detail = detail

	// The watchdog polls; a module can exit between ticks with oversized
	// output already on disk. Enforce the cap regardless.
	if result.Cause == sandbox.CauseCompleted && stdio.stdoutSize() > spec.Limits.OutputBytes {
		result.Cause = sandbox.CauseOutputTooLarge
		result.Detail = ""
	}

	return result, nil
}

// watchdog enforces the wall-clock deadline and the output cap from outside
// the guest. Killing is a single epoch increment: the store's deadline is
// one tick, so the guest traps with an Interrupt at its next epoch check.
func (r *Runner) watchdog(ctx context.Context, engine *wt.Engine, stdoutPath string,
	limits sandbox.Limits, stop <-chan struct{}, overflowHit, canceled *atomic.Bool) {

	deadline := time.Now().Add(limits.Timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			canceled.Store(true)
			engine.IncrementEpoch()
			return
		case <-ticker.C:
			if info, err := os.Stat(stdoutPath); err == nil && info.Size() > limits.OutputBytes {
				overflowHit.Store(true)
				engine.IncrementEpoch()
				return
			}
			if time.Now().After(deadline) {
				engine.IncrementEpoch()
				return
			}
		}
	}
}

// classify maps a _start call error onto a termination cause. A nil error
// and a WASI proc_exit both count as completion; fuel and interrupt traps
// map to their causes; any other trap is CauseTrapped. An interrupt forced
// by caller cancellation is a host-side error, not a guest outcome.
func classify(ctx context.Context, callErr error, overflowHit, canceled *atomic.Bool) (sandbox.Cause, int, string, error) {
	if callErr == nil {
		return sandbox.CauseCompleted, 0, "", nil
	}

	var exitErr *wt.Error
	if errors.As(callErr, &exitErr) {
		if code, ok := exitErr.ExitStatus(); ok {
			return sandbox.CauseCompleted, int(code), "", nil
		}
	}

	var trap *wt.Trap
	if errors.As(callErr, &trap) {
		if code := trap.Code(); code != nil {
			switch *code {
			case wt.OutOfFuel:
				return sandbox.CauseFuelExhausted, 0, "", nil
			case wt.Interrupt:
				if overflowHit.Load() {
					return sandbox.CauseOutputTooLarge, 0, "", nil
				}
				if canceled.Load() {
					return 0, 0, "", ctx.Err()
				}
				return sandbox.CauseTimeout, 0, "", nil
			}
		}
		return sandbox.CauseTrapped, 0, trap.Message(), nil
	}

	return 0, 0, "", fmt.Errorf("wasmtime: execution: %w", callErr)
}

// stdioFiles backs the guest's WASI stdio with files in a private temp
// directory, removed when the invocation ends.
type stdioFiles struct {
	dir    string
	stdin  string
	stdout string
	stderr string
}

func newStdioFiles(input []byte) (*stdioFiles, error) {
	dir, err := os.MkdirTemp("", "toolsandbox-*")
	if err != nil {
		return nil, fmt.Errorf("wasmtime: stdio workspace: %w", err)
	}
	s := &stdioFiles{
		dir:    dir,
		stdin:  filepath.Join(dir, "stdin"),
		stdout: filepath.Join(dir, "stdout"),
		stderr: filepath.Join(dir, "stderr"),
	}
	if err := os.WriteFile(s.stdin, input, 0o600); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("wasmtime: write stdin: %w", err)
	}
	for _, path := range []string{s.stdout, s.stderr} {
		if err := os.WriteFile(path, nil, 0o600); err != nil {
			s.cleanup()
			return nil, fmt.Errorf("wasmtime: create stdio file: %w", err)
		}
	}
	return s, nil
}

// collect reads captured stdout/stderr, truncated at the output cap.
func (s *stdioFiles) collect(limit int64) ([]byte, []byte, error) {
	stdout, err := readCapped(s.stdout, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("wasmtime: read stdout: %w", err)
	}
	stderr, err := readCapped(s.stderr, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("wasmtime: read stderr: %w", err)
	}
	return stdout, stderr, nil
}

func (s *stdioFiles) stdoutSize() int64 {
	info, err := os.Stat(s.stdout)
	if err != nil {
		return 0
	}
	return info.Size()
}

func (s *stdioFiles) cleanup() {
	_ = os.RemoveAll(s.dir)
}

func readCapped(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, limit))
}
