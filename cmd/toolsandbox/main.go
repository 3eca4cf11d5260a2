// Command toolsandbox discovers sandboxed WASM tools in a skills directory
// and invokes them locally or serves them to MCP clients.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolsandbox/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "toolsandbox",
	Short:        "Sandboxed WASM tool host",
	Long:         "toolsandbox discovers WASM tool skills, validates their manifests, and runs them under strict resource limits.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("skills-dir", "", "Override the skills directory")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress all output except errors")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("toolsandbox version %s\n", version))

	rootCmd.AddCommand(cli.NewListCmd())
	rootCmd.AddCommand(cli.NewRunCmd())
	rootCmd.AddCommand(cli.NewAuditCmd())
	rootCmd.AddCommand(cli.NewServeCmd(version))
}
