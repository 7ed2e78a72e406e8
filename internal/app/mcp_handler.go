package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/emmett/affect/internal/affect"
	"github.com/emmett/affect/internal/server/mcp"
)

// MCPHandler handles MCP server operations
type MCPHandler struct {
	analysis     affect.Config
	child        affect.ChildState
	bufferFrames int
	version      string
	gitCommit    string
	log          logrus.FieldLogger
	status       io.Writer
}

// NewMCPHandler creates a new MCP handler
func NewMCPHandler(analysis affect.Config, child affect.ChildState, bufferFrames int, version, gitCommit string, log logrus.FieldLogger) *MCPHandler {
	return &MCPHandler{
		analysis:     analysis,
		child:        child,
		bufferFrames: bufferFrames,
		version:      version,
		gitCommit:    gitCommit,
		log:          log,
		status:       os.Stderr,
	}
}

// Run serves MCP over stdio until ctx is done or the client disconnects
func (h *MCPHandler) Run(ctx context.Context) error {
	fmt.Fprintf(h.status, "Starting MCP server...\n")
	fmt.Fprintf(h.status, "Protocol: Model Context Protocol (stdio transport)\n")
	fmt.Fprintf(h.status, "Version: %s (commit: %s)\n\n", h.version, h.gitCommit)

	server, err := mcp.NewServer(mcp.Config{
		ServerName:    "affect-mcp",
		ServerVersion: h.version,
		Analysis:      h.analysis,
		Child:         h.child,
		BufferFrames:  h.bufferFrames,
		Logger:        h.log,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	h.printClientConfig()

	fmt.Fprintf(h.status, "MCP server ready. Listening on stdin/stdout...\n")
	fmt.Fprintf(h.status, "Press Ctrl+C to stop.\n\n")

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	fmt.Fprintf(h.status, "\nMCP server stopped\n")
	return nil
}

func (h *MCPHandler) printClientConfig() {
	execPath, err := os.Executable()
	if err != nil {
		execPath = "./build/affect-mcp"
	}

	type MCPServerConfig struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
	}
	type MCPClientConfig struct {
		MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	}

	clientConfig := MCPClientConfig{
		MCPServers: map[string]MCPServerConfig{
			"affect": {
				Command: execPath,
				Args: []string{
					"--rigidity", fmt.Sprintf("%g", h.child.EmotionalRigidity),
					"--distraction", fmt.Sprintf("%d", h.child.Distraction),
				},
			},
		},
	}

	configJSON, err := json.MarshalIndent(clientConfig, "", "  ")
	if err == nil {
		fmt.Fprintf(h.status, "MCP Client Configuration:\n%s\n\n", string(configJSON))
	}
}
