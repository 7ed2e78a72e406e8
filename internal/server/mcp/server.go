package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/emmett/affect/internal/affect"
	"github.com/emmett/affect/internal/logging"
)

type Config struct {
	ServerName    string
	ServerVersion string

	// Analysis and Child are used when a tool call leaves them unset
	Analysis     affect.Config
	Child        affect.ChildState
	BufferFrames int

	Logger logrus.FieldLogger
}

type Server struct {
	config    Config
	log       logrus.FieldLogger
	mcpServer *sdk.Server
}

func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}
	if err := cfg.Child.Validate(); err != nil {
		return nil, fmt.Errorf("invalid child state: %w", err)
	}
	if cfg.BufferFrames <= 0 {
		return nil, fmt.Errorf("invalid buffer frames: %d", cfg.BufferFrames)
	}

	s := &Server{
		config: cfg,
		log:    cfg.Logger,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	s.registerTools()

	return s, nil
}

// Start serves over stdin/stdout until ctx is done or the client disconnects.
func (s *Server) Start(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &sdk.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t sdk.Transport) (*sdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name: "analyze_audio",
		Description: "Estimate affect from a mono 16-bit little-endian PCM recording. " +
			"One estimate is returned per window once three windows have been heard.",
		InputSchema: map[string]interface{}{
			"type":     "object",
			"required": []string{"audio"},
			"properties": map[string]interface{}{
				"audio":              map[string]string{"type": "string"},
				"emotional_rigidity": map[string]interface{}{"type": []string{"number", "null"}},
				"distraction":        map[string]interface{}{"type": []string{"integer", "null"}},
				"buffer_frames":      map[string]string{"type": "integer"},
			},
		},
	}, s.handleAnalyzeAudio)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "describe_thresholds",
		Description: "Show the window timing and classifier thresholds used for analysis",
	}, s.handleDescribeThresholds)
}
