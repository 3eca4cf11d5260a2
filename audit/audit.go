// Package audit statically inspects a skill directory before it is trusted.
//
// The audit never executes anything: it walks the directory, flags symlinks,
// script files, native executables, oversized text files, and high-risk
// command patterns inside readable text. Findings are advisory; the caller
// decides whether a non-clean skill may still be installed.
package audit

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxTextFileBytes caps how large a text file may be before it is flagged
// instead of scanned.
const MaxTextFileBytes = 512 * 1024

// Report is the outcome of one audit pass.
type Report struct {
	// FilesScanned is the number of filesystem entries visited.
	FilesScanned int

	// Findings are human-readable problems, empty for a clean skill.
	Findings []string
}

// IsClean reports whether the audit found nothing.
func (r *Report) IsClean() bool {
	return len(r.Findings) == 0
}

// Summary joins all findings into one line.
func (r *Report) Summary() string {
	return strings.Join(r.Findings, "; ")
}

// highRiskPatterns flag command snippets that have no business inside a
// sandboxed skill package.
var highRiskPatterns = []struct {
	re    *regexp.Regexp
	label string
}{
	{regexp.MustCompile(`(?im)\bcurl\b[^\n|]{0,200}\|\s*(?:sh|bash|zsh)\b`), "curl-pipe-shell"},
	{regexp.MustCompile(`(?im)\bwget\b[^\n|]{0,200}\|\s*(?:sh|bash|zsh)\b`), "wget-pipe-shell"},
	{regexp.MustCompile(`(?im)\b(?:invoke-expression|iex)\b`), "powershell-iex"},
	{regexp.MustCompile(`(?im)\brm\s+-rf\s+/`), "destructive-rm-rf-root"},
	{regexp.MustCompile(`(?im)\bnc(?:at)?\b[^\n]{0,120}\s-e\b`), "netcat-remote-exec"},
	{regexp.MustCompile(`(?im)\bdd\s+if=`), "disk-overwrite-dd"},
	{regexp.MustCompile(`(?im)\bmkfs(?:\.[a-z0-9]+)?\b`), "filesystem-format"},
}

// scriptExtensions are blocked: a WASM skill has no reason to ship host
// scripts.
var scriptExtensions = map[string]bool{
	".sh": true, ".bash": true, ".zsh": true, ".ps1": true,
	".bat": true, ".cmd": true, ".py": true, ".rb": true, ".pl": true,
}

// nativeBinaryExtensions are blocked; .wasm is the only executable format
// a skill may carry.
var nativeBinaryExtensions = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
}

// textExtensions are scanned for high-risk patterns.
var textExtensions = map[string]bool{
	".md": true, ".txt": true, ".json": true, ".toml": true,
	".yml": true, ".yaml": true, ".js": true, ".ts": true,
}

// Directory audits one skill directory.
func Directory(skillDir string) (*Report, error) {
	info, err := os.Stat(skillDir)
	if err != nil {
		return nil, fmt.Errorf("audit: skill source does not exist: %s", skillDir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("audit: skill source must be a directory: %s", skillDir)
	}

	report := &Report{}
	err = filepath.WalkDir(skillDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == skillDir {
			return nil
		}
		report.FilesScanned++
		rel, relErr := filepath.Rel(skillDir, path)
		if relErr != nil {
			rel = path
		}
		return auditEntry(rel, path, d, report)
	})
	if err != nil {
		return nil, fmt.Errorf("audit: walk %s: %w", skillDir, err)
	}
	return report, nil
}

func auditEntry(rel, path string, d fs.DirEntry, report *Report) error {
	if d.Type()&fs.ModeSymlink != 0 {
		report.Findings = append(report.Findings,
			fmt.Sprintf("%s: symlinks are not allowed in installed skills", rel))
		return nil
	}
	if d.IsDir() {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	if scriptExtensions[ext] {
		report.Findings = append(report.Findings,
			fmt.Sprintf("%s: script files are blocked by skill security policy", rel))
		return nil
	}
	if nativeBinaryExtensions[ext] {
		report.Findings = append(report.Findings,
			fmt.Sprintf("%s: native binaries are not allowed; only .wasm modules run", rel))
		return nil
	}
	if !textExtensions[ext] {
		return nil
	}

	info, err := d.Info()
	if err != nil {
		return err
	}
	if info.Size() > MaxTextFileBytes {
		report.Findings = append(report.Findings,
			fmt.Sprintf("%s: file is too large for static audit (>%d bytes)", rel, MaxTextFileBytes))
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if label, found := detectHighRisk(string(content)); found {
		report.Findings = append(report.Findings,
			fmt.Sprintf("%s: detected high-risk command pattern (%s)", rel, label))
	}
	return nil
}

// detectHighRisk returns the label of the first matching pattern.
func detectHighRisk(content string) (string, bool) {
	for _, p := range highRiskPatterns {
		if p.re.MatchString(content) {
			return p.label, true
		}
	}
	return "", false
}
