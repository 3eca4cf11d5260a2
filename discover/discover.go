// Package discover resolves on-disk skill directories into candidate tool
// bundles.
//
// Two layouts are supported, both rooted at a skill directory inside the
// skills root:
//
//	Installed layout:  <root>/<skill>/tools/<tool>/{tool.wasm, manifest.json}
//	Dev layout:        <root>/<skill>/{tool.wasm, manifest.json}
//
// A scan is a one-shot pass: re-running it fully re-derives the candidate
// set. Incomplete candidates are reported as warnings and never abort the
// remaining scan.
package discover

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonwraymond/toolsandbox/manifest"
)

// ModuleFilename is the compiled module expected in every tool bundle.
const ModuleFilename = "tool.wasm"

// Candidate is one discovered module + manifest pair, not yet validated.
type Candidate struct {
	// Skill is the name of the skill directory the candidate came from.
	Skill string

	// Dir is the directory holding the module and manifest files.
	Dir string

	// ModulePath is the absolute path to the compiled module.
	ModulePath string

	// ManifestPath is the absolute path to the manifest file.
	ManifestPath string
}

// Warning reports a skipped candidate without aborting the scan.
type Warning struct {
	// Path is the directory the warning refers to.
	Path string

	// Reason describes why the candidate was skipped.
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// Scan walks the skills root and returns all candidate bundles in
// deterministic (lexicographic) order, plus warnings for directories that
// look like tool bundles but are incomplete.
//
// A missing or unreadable root yields no candidates and no error: an empty
// skills directory is a normal state.
func Scan(root string) ([]Candidate, []Warning) {
	var candidates []Candidate
	var warnings []Warning

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillDir := filepath.Join(root, entry.Name())
		candidates, warnings = scanSkillDir(entry.Name(), skillDir, candidates, warnings)
	}

	return candidates, warnings
}

// scanSkillDir resolves a single skill directory. Both layouts are checked:
// a dev pair at the skill root and installed pairs under tools/. A skill
// directory carrying both shapes yields multiple candidates; name collisions
// are the registry's concern, not the resolver's.
func scanSkillDir(skill, dir string, candidates []Candidate, warnings []Warning) ([]Candidate, []Warning) {
	devModule := filepath.Join(dir, ModuleFilename)
	devManifest := filepath.Join(dir, manifest.Filename)
	devHasModule := fileExists(devModule)
	devHasManifest := fileExists(devManifest)

	switch {
	case devHasModule && devHasManifest:
		candidates = append(candidates, Candidate{
			Skill:        skill,
			Dir:          dir,
			ModulePath:   devModule,
			ManifestPath: devManifest,
		})
	case devHasModule:
		warnings = append(warnings, Warning{Path: dir, Reason: "missing " + manifest.Filename})
	case devHasManifest:
		warnings = append(warnings, Warning{Path: dir, Reason: "missing " + ModuleFilename})
	}

	toolsDir := filepath.Join(dir, "tools")
	toolEntries, err := os.ReadDir(toolsDir)
	if err != nil {
		return candidates, warnings
	}

	for _, entry := range toolEntries {
		if !entry.IsDir() {
			continue
		}
		toolDir := filepath.Join(toolsDir, entry.Name())
		modulePath := filepath.Join(toolDir, ModuleFilename)
		manifestPath := filepath.Join(toolDir, manifest.Filename)

		hasModule := fileExists(modulePath)
		hasManifest := fileExists(manifestPath)
		switch {
		case hasModule && hasManifest:
			candidates = append(candidates, Candidate{
				Skill:        skill,
				Dir:          toolDir,
				ModulePath:   modulePath,
				ManifestPath: manifestPath,
			})
		case hasModule:
			warnings = append(warnings, Warning{Path: toolDir, Reason: "missing " + manifest.Filename})
		case hasManifest:
			warnings = append(warnings, Warning{Path: toolDir, Reason: "missing " + ModuleFilename})
		default:
			warnings = append(warnings, Warning{Path: toolDir, Reason: "empty tool directory"})
		}
	}

	return candidates, warnings
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
