package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolsandbox/audit"
)

// NewAuditCmd creates the "audit" subcommand.
func NewAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit <skill-dir>",
		Short: "Scan a skill directory for high-risk content",
		Long: "Statically inspects a skill directory before installation: flags " +
			"scripts, native binaries, symlinks, and shell patterns commonly seen " +
			"in malicious payloads. WASM modules are expected and not flagged.",
		Args: cobra.ExactArgs(1),
		RunE: runAudit,
	}
}

func runAudit(cmd *cobra.Command, args []string) error {
	report, err := audit.Directory(args[0])
	if err != nil {
		return exitError(exitNotFound, "%v", err)
	}

	if report.IsClean() {
		fmt.Fprintf(cmd.OutOrStdout(), "Clean: %d file(s) scanned.\n", report.FilesScanned)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d finding(s) in %d file(s):\n", len(report.Findings), report.FilesScanned)
	for _, finding := range report.Findings {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", finding)
	}
	return exitError(exitValidation, "audit failed: %d finding(s)", len(report.Findings))
}
