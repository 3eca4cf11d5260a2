package cli

import (
	"github.com/spf13/cobra"

	"github.com/jonwraymond/toolsandbox/gateway"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve discovered tools to MCP clients over stdio",
		Long: "Starts a Model Context Protocol session on stdin/stdout exposing " +
			"every registered tool. The skills directory is watched for changes; " +
			"new tools become visible on the next session.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, version)
		},
	}
	cmd.Flags().Bool("watch", true, "Rescan the skills directory on filesystem changes")
	return cmd
}

func runServe(cmd *cobra.Command, version string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd)

	host, err := newHost(cmd, settings, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		go func() {
			if err := host.Watch(ctx); err != nil {
				logger.Warn().Err(err).Msg("skills watcher stopped")
			}
		}()
	}

	server, err := gateway.New(gateway.Config{
		Host:    host,
		Version: version,
		Logger:  logger,
	})
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}

	if err := server.ServeStdio(ctx); err != nil {
		return exitError(exitRuntime, "mcp session: %v", err)
	}
	return nil
}
