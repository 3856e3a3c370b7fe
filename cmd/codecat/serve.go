package main

import (
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/taigrr/codecat/internal/snapshot"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve [project-dir]",
		Short: "Serve project snapshots over MCP on stdio",
		Long: `serve starts a Model Context Protocol (MCP) server on stdin/stdout
so an MCP-compatible AI harness can list, search, and export the
project's files with the same rules the command line uses. Requests may pass
their own rules; paths are always confined to the project directory.`,
		Example: `codecat serve ~/src/myproject`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, flags, projectDir(args))
		},
	}
}

func runServer(cmd *cobra.Command, flags *rootFlags, dir string) error {
	cfg, err := loadRules(flags.configPath, dir)
	if err != nil {
		return err
	}

	// Initialize services
	serverRules = cfg
	snapshotService = snapshot.New(dir, snapshot.Options{
		Sort:           flags.sort,
		FollowSymlinks: flags.followSymlinks,
		MaxFileSize:    flags.maxFileSize,
	})

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "codecat",
		Version: version,
	}, nil)

	registerTools(server)

	log.Info().Str("root", dir).Msg("Serving MCP on stdio")
	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}

	return nil
}

func absRoot() (string, error) {
	return filepath.Abs(snapshotService.Root())
}
