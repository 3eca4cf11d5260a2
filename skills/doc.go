// Package skills is the facade over tool discovery, the registry, and the
// sandboxed invocation engine.
//
// A Host owns one skills directory. At construction it scans the directory
// for tool bundles (a compiled tool.wasm plus a manifest.json, in either
// the dev or the installed layout), validates manifests, and publishes the
// registry. Callers then resolve and invoke tools by name:
//
//	host, err := skills.New(skills.Config{
//	    SkillsDir: "skills",
//	    Runner:    wasmtime.NewRunner(),
//	    Enabled:   true,
//	})
//	if err != nil {
//	    return err
//	}
//	result, err := host.RunTool(ctx, "word_count", map[string]any{"text": "one two"})
//
// The Host exposes no user-facing command surface; the calling agent owns
// presentation and any retry policy. One invocation is always one attempt.
package skills
