package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NewListCmd creates the "list" subcommand.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered tools",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	cmd.Flags().Bool("json", false, "Emit the tool list as JSON")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	host, err := newHost(cmd, settings, logger)
	if err != nil {
		return err
	}

	entries := host.List()

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tools found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTITLE\tDESCRIPTION")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Name, displayTitle(entry.Name), entry.Description)
	}
	return w.Flush()
}

// displayTitle renders a snake_case tool name as a human heading.
func displayTitle(name string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(name, "_", " "))
}
