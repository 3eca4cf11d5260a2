// Package protocol implements the stdin/stdout wire contract between the
// host and a tool module.
//
// The host writes a single JSON object (the call arguments) to the module's
// stdin and reads a single JSON object from its stdout:
//
//	{"success": true, "output": "...", "error": null}
//
// Exactly one of output/error carries the operative payload. The decoder
// enforces that invariant rather than trusting the module.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrViolation is the sentinel for module output that does not satisfy the
// result contract. It is never returned for transport- or sandbox-level
// failures, only for malformed or contradictory result payloads.
var ErrViolation = errors.New("protocol: violation")

// ViolationError describes how a module's output broke the result contract.
type ViolationError struct {
	// Reason describes the violation.
	Reason string
}

func (e *ViolationError) Error() string {
	return "protocol: violation: " + e.Reason
}

// Is reports whether this error matches ErrViolation.
func (e *ViolationError) Is(target error) bool {
	return target == ErrViolation
}

// ToolResult is the decoded outcome a module reports over stdout.
type ToolResult struct {
	// Success reports whether the tool call succeeded in the tool's own
	// semantics.
	Success bool `json:"success"`

	// Output is the tool's result text. Meaningful only when Success is
	// true; empty otherwise.
	Output string `json:"output"`

	// Error is the tool's failure text. Meaningful only when Success is
	// false; empty otherwise.
	Error string `json:"error,omitempty"`
}

// EncodeArgs serializes the caller's argument object into the module's
// input bytes. No validation against the manifest schema happens here: the
// caller shapes arguments, and modules are expected to parse defensively.
func EncodeArgs(args map[string]any) ([]byte, error) {
	if args == nil {
		args = map[string]any{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode args: %w", err)
	}
	return data, nil
}

// DecodeResult parses a module's captured stdout as a ToolResult.
//
// The success and output keys are required; the error key may be absent or
// null. A success=true result with a populated error, or a success=false
// result with a populated output, violates payload exclusivity and is
// rejected. Every failure classifies as ErrViolation.
func DecodeResult(data []byte) (ToolResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ToolResult{}, &ViolationError{Reason: "module wrote nothing to stdout"}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return ToolResult{}, &ViolationError{Reason: "stdout is not a JSON object"}
	}

	successRaw, ok := raw["success"]
	if !ok {
		return ToolResult{}, &ViolationError{Reason: `missing required key "success"`}
	}
	var success bool
	if err := json.Unmarshal(successRaw, &success); err != nil {
		return ToolResult{}, &ViolationError{Reason: `"success" is not a boolean`}
	}

	outputRaw, ok := raw["output"]
	if !ok {
		return ToolResult{}, &ViolationError{Reason: `missing required key "output"`}
	}
	var output string
	if err := json.Unmarshal(outputRaw, &output); err != nil {
		return ToolResult{}, &ViolationError{Reason: `"output" is not a string`}
	}

	var errText *string
	if errRaw, ok := raw["error"]; ok {
		if err := json.Unmarshal(errRaw, &errText); err != nil {
			return ToolResult{}, &ViolationError{Reason: `"error" is not a string or null`}
		}
	}

	if success && errText != nil && *errText != "" {
		return ToolResult{}, &ViolationError{Reason: "success=true with populated error field"}
	}
	if !success && output != "" {
		return ToolResult{}, &ViolationError{Reason: "success=false with populated output field"}
	}

	result := ToolResult{Success: success, Output: output}
	if errText != nil {
		result.Error = *errText
	}
	return result, nil
}
