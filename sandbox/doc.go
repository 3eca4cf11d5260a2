// Package sandbox is the sandboxed invocation engine for untrusted tool
// modules.
//
// Each invocation gets a fresh, isolated execution context with
// capabilities explicitly denied: no filesystem, no network, no ambient
// environment. Three independent ceilings are installed before any module
// code runs:
//
//   - a hard memory limit
//   - an instruction (fuel) budget that halts the module when exhausted
//   - a wall-clock deadline enforced independently of fuel
//
// Output is capped as it accumulates; exceeding the cap terminates the
// context instead of buffering unbounded data.
//
// # Architecture
//
// The engine is runtime-agnostic. The concrete WebAssembly runtime sits
// behind the [Runner] interface; [github.com/jonwraymond/toolsandbox/sandbox/wasmtime]
// provides the production implementation, and tests inject fakes.
//
//	runner := wasmtime.NewRunner()
//	engine, err := sandbox.New(sandbox.Config{
//	    Runner:  runner,
//	    Enabled: true,
//	    Limits:  sandbox.DefaultLimits(),
//	})
//	result, err := engine.Invoke(ctx, "/skills/echo/tool.wasm", map[string]any{"text": "hi"})
//
// # Failure taxonomy
//
// Every way a module can misbehave maps to a distinct sentinel:
// [ErrDisabled], [ErrFuelExhausted], [ErrTimeout], [ErrOutputTooLarge],
// [ErrTrapped], [ErrExecutionFailed], plus protocol.ErrViolation for
// malformed results. None of them may propagate as a fault that terminates
// the host process.
package sandbox
