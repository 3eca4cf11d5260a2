package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/toolsandbox/protocol"
)

// fakeRunner records calls and returns a canned result.
type fakeRunner struct {
	calls  int
	spec   Spec
	result Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, spec Spec) (Result, error) {
	f.calls++
	f.spec = spec
	return f.result, f.err
}

func newEngine(t *testing.T, runner Runner, enabled bool) *Engine {
	t.Helper()
	e, err := New(Config{Runner: runner, Enabled: enabled})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestNew_RequiresRunner(t *testing.T) {
	_, err := New(Config{Enabled: true})
	if !errors.Is(err, ErrRunnerRequired) {
		t.Errorf("New() error = %v, want ErrRunnerRequired", err)
	}
}

func TestNew_NormalizesLimits(t *testing.T) {
	e := func() *Engine {
		e, err := New(Config{Runner: &fakeRunner{}, Limits: Limits{MemoryMiB: 9999}})
		if err != nil {
			t.Fatal(err)
		}
		return e
	}()
	if e.Limits().MemoryMiB != MaxMemoryMiB {
		t.Errorf("Limits().MemoryMiB = %d, want %d", e.Limits().MemoryMiB, MaxMemoryMiB)
	}
}

func TestInvoke_Disabled(t *testing.T) {
	runner := &fakeRunner{}
	e := newEngine(t, runner, false)

	_, err := e.Invoke(context.Background(), "/skills/x/tool.wasm", nil)
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Invoke() error = %v, want ErrDisabled", err)
	}
	if runner.calls != 0 {
		t.Errorf("runner.calls = %d, want 0 (no sandbox may be created while disabled)", runner.calls)
	}
}

func TestInvoke_PassesEncodedInputAndLimits(t *testing.T) {
	runner := &fakeRunner{result: Result{
		Cause:  CauseCompleted,
		Stdout: []byte(`{"success":true,"output":"ok","error":null}`),
	}}
	e := newEngine(t, runner, true)

	result, err := e.Invoke(context.Background(), "/skills/x/tool.wasm", map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !result.Success || result.Output != "ok" {
		t.Errorf("result = %+v", result)
	}
	if got := string(runner.spec.Input); got != `{"text":"hi"}` {
		t.Errorf("spec.Input = %s", got)
	}
	if runner.spec.ModulePath != "/skills/x/tool.wasm" {
		t.Errorf("spec.ModulePath = %q", runner.spec.ModulePath)
	}
	if runner.spec.Limits != DefaultLimits() {
		t.Errorf("spec.Limits = %+v, want defaults", runner.spec.Limits)
	}
}

func TestInvoke_TerminationCauses(t *testing.T) {
	tests := []struct {
		name    string
		result  Result
		wantErr error
	}{
		{
			name:    "fuel exhausted",
			result:  Result{Cause: CauseFuelExhausted, FuelUsed: DefaultFuel},
			wantErr: ErrFuelExhausted,
		},
		{
			name:    "timeout",
			result:  Result{Cause: CauseTimeout, Duration: MaxTimeout},
			wantErr: ErrTimeout,
		},
		{
			name:    "output too large",
			result:  Result{Cause: CauseOutputTooLarge},
			wantErr: ErrOutputTooLarge,
		},
		{
			name:    "trapped",
			result:  Result{Cause: CauseTrapped, Detail: "out of bounds memory access"},
			wantErr: ErrTrapped,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, &fakeRunner{result: tt.result}, true)
			_, err := e.Invoke(context.Background(), "/skills/x/tool.wasm", nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Invoke() error = %v, want %v", err, tt.wantErr)
			}
			// No termination cause may surface as another kind.
			for _, other := range []error{ErrFuelExhausted, ErrTimeout, ErrOutputTooLarge, ErrTrapped} {
				if other != tt.wantErr && errors.Is(err, other) {
					t.Errorf("error %v also matches %v", err, other)
				}
			}
		})
	}
}

func TestInvoke_DecodePolicy(t *testing.T) {
	tests := []struct {
		name     string
		result   Result
		wantErr  error
		wantOK   bool
		wantText string
	}{
		{
			name: "zero exit with valid protocol output",
			result: Result{Cause: CauseCompleted, ExitCode: 0,
				Stdout: []byte(`{"success":true,"output":"x","error":null}`)},
			wantOK:   true,
			wantText: "x",
		},
		{
			name: "zero exit with semantic failure",
			result: Result{Cause: CauseCompleted, ExitCode: 0,
				Stdout: []byte(`{"success":false,"output":"","error":"boom"}`)},
			wantOK: true,
		},
		{
			name: "non-zero exit with decodable output still decodes",
			result: Result{Cause: CauseCompleted, ExitCode: 3,
				Stdout: []byte(`{"success":false,"output":"","error":"semantic"}`)},
			wantOK: true,
		},
		{
			name: "zero exit with garbage output",
			result: Result{Cause: CauseCompleted, ExitCode: 0,
				Stdout: []byte(`garbage`)},
			wantErr: protocol.ErrViolation,
		},
		{
			name: "zero exit with empty output",
			result: Result{Cause: CauseCompleted, ExitCode: 0,
				Stdout: nil},
			wantErr: protocol.ErrViolation,
		},
		{
			name: "non-zero exit with garbage output",
			result: Result{Cause: CauseCompleted, ExitCode: 1,
				Stdout: []byte(`panic`), Stderr: []byte("fatal: oops\n")},
			wantErr: ErrExecutionFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, &fakeRunner{result: tt.result}, true)
			result, err := e.Invoke(context.Background(), "/skills/x/tool.wasm", nil)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("Invoke() error = %v, want nil", err)
				}
				if tt.wantText != "" && result.Output != tt.wantText {
					t.Errorf("Output = %q, want %q", result.Output, tt.wantText)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Invoke() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestInvoke_RunnerError(t *testing.T) {
	e := newEngine(t, &fakeRunner{err: errors.New("cannot read module")}, true)
	_, err := e.Invoke(context.Background(), "/skills/x/tool.wasm", nil)
	if !errors.Is(err, ErrExecutionFailed) {
		t.Errorf("Invoke() error = %v, want ErrExecutionFailed", err)
	}
}

func TestInvoke_CancellationPassesThrough(t *testing.T) {
	e := newEngine(t, &fakeRunner{err: context.Canceled}, true)
	_, err := e.Invoke(context.Background(), "/skills/x/tool.wasm", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Invoke() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrExecutionFailed) {
		t.Error("cancellation must not classify as ErrExecutionFailed")
	}
}

func TestCause_Err(t *testing.T) {
	if CauseCompleted.Err() != nil {
		t.Error("CauseCompleted.Err() should be nil")
	}
	if !errors.Is(CauseTimeout.Err(), ErrTimeout) {
		t.Error("CauseTimeout.Err() should be ErrTimeout")
	}
}

func TestCause_String(t *testing.T) {
	tests := []struct {
		cause Cause
		want  string
	}{
		{CauseCompleted, "completed"},
		{CauseFuelExhausted, "fuel_exhausted"},
		{CauseTimeout, "timeout"},
		{CauseOutputTooLarge, "output_too_large"},
		{CauseTrapped, "trapped"},
		{Cause(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.cause.String(); got != tt.want {
			t.Errorf("Cause(%d).String() = %q, want %q", int(tt.cause), got, tt.want)
		}
	}
}

func TestSpec_Validate(t *testing.T) {
	valid := Spec{ModulePath: "/x/tool.wasm", Limits: DefaultLimits()}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	if err := (Spec{Limits: DefaultLimits()}).Validate(); err == nil {
		t.Error("Validate() should reject empty module path")
	}
	if err := (Spec{ModulePath: "/x/tool.wasm"}).Validate(); err == nil {
		t.Error("Validate() should reject non-normalized limits")
	}
	if err := (Spec{ModulePath: "/x", Limits: Limits{Fuel: 1, Timeout: time.Second}}).Validate(); err == nil {
		t.Error("Validate() should reject zero output cap")
	}
}
