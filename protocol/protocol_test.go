package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeArgs(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "simple object",
			args: map[string]any{"text": "hello"},
			want: `{"text":"hello"}`,
		},
		{
			name: "nil args become empty object",
			args: nil,
			want: `{}`,
		},
		{
			name: "empty args",
			args: map[string]any{},
			want: `{}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeArgs(tt.args)
			if err != nil {
				t.Fatalf("EncodeArgs() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EncodeArgs() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEncodeArgs_Unserializable(t *testing.T) {
	_, err := EncodeArgs(map[string]any{"ch": make(chan int)})
	if err == nil {
		t.Fatal("EncodeArgs() expected error for unserializable value")
	}
}

func TestDecodeResult_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ToolResult
	}{
		{
			name:  "success with output and null error",
			input: `{"success":true,"output":"x","error":null}`,
			want:  ToolResult{Success: true, Output: "x"},
		},
		{
			name:  "failure with error",
			input: `{"success":false,"output":"","error":"boom"}`,
			want:  ToolResult{Success: false, Error: "boom"},
		},
		{
			name:  "success without error key",
			input: `{"success":true,"output":"done"}`,
			want:  ToolResult{Success: true, Output: "done"},
		},
		{
			name:  "success with empty error string",
			input: `{"success":true,"output":"ok","error":""}`,
			want:  ToolResult{Success: true, Output: "ok"},
		},
		{
			name:  "surrounding whitespace",
			input: "\n  {\"success\":true,\"output\":\"x\",\"error\":null}\n",
			want:  ToolResult{Success: true, Output: "x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeResult([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeResult() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeResult() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeResult_Violations(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty stream", ""},
		{"whitespace only", "  \n "},
		{"not json", "hello world"},
		{"json array", `[1,2,3]`},
		{"missing success", `{"output":"x","error":null}`},
		{"missing output", `{"success":true}`},
		{"success not bool", `{"success":"yes","output":"x"}`},
		{"output not string", `{"success":true,"output":42}`},
		{"error not string", `{"success":false,"output":"","error":42}`},
		{"success with populated error", `{"success":true,"output":"x","error":"boom"}`},
		{"failure with populated output", `{"success":false,"output":"x","error":"boom"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeResult([]byte(tt.input))
			if err == nil {
				t.Fatal("DecodeResult() expected error, got nil")
			}
			if !errors.Is(err, ErrViolation) {
				t.Errorf("errors.Is(err, ErrViolation) = false for %v", err)
			}
		})
	}
}

func TestDecodeResult_NeverFabricatesSuccess(t *testing.T) {
	// A decode failure must never surface as a successful ToolResult.
	result, err := DecodeResult([]byte(`{"success":true}`))
	if err == nil {
		t.Fatal("expected violation")
	}
	if result.Success {
		t.Error("violation returned a success result")
	}
}

func TestToolResult_JSONShape(t *testing.T) {
	data, err := json.Marshal(ToolResult{Success: true, Output: "x"})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m["success"] != true || m["output"] != "x" {
		t.Errorf("unexpected shape: %s", data)
	}
}
