package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/emmett/affect/internal/affect"
	"github.com/emmett/affect/internal/dsp"
)

type AnalyzeArgs struct {
	Audio             string   `json:"audio" jsonschema:"Base64-encoded mono 16-bit little-endian PCM at the configured sample rate"`
	EmotionalRigidity *float64 `json:"emotional_rigidity,omitempty" jsonschema:"Dampening toward uniform, 0 to 1"`
	Distraction       *int     `json:"distraction,omitempty" jsonschema:"Distraction level, 0 to 4"`
	BufferFrames      int      `json:"buffer_frames,omitempty" jsonschema:"Samples per simulated capture buffer"`
}

type DescribeThresholdsArgs struct{}

// AnalyzeReport is the JSON payload returned by analyze_audio
type AnalyzeReport struct {
	DurationSeconds float64           `json:"duration_seconds"`
	Samples         int               `json:"samples"`
	Child           affect.ChildState `json:"child"`
	Results         []affect.Result   `json:"results"`
}

// ThresholdReport is the JSON payload returned by describe_thresholds
type ThresholdReport struct {
	SampleRate     uint32            `json:"sample_rate"`
	WindowDuration string            `json:"window_duration"`
	FFTInterval    string            `json:"fft_interval"`
	FFTSize        int               `json:"fft_size"`
	HistorySize    int               `json:"history_size"`
	MinAudio       string            `json:"min_audio"`
	Thresholds     affect.Thresholds `json:"thresholds"`
}

func (s *Server) handleAnalyzeAudio(ctx context.Context, req *sdk.CallToolRequest, args AnalyzeArgs) (*sdk.CallToolResult, any, error) {
	data, err := base64.StdEncoding.DecodeString(args.Audio)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid base64 audio: %w", err)
	}

	child := s.config.Child
	if args.EmotionalRigidity != nil {
		child.EmotionalRigidity = *args.EmotionalRigidity
	}
	if args.Distraction != nil {
		child.Distraction = *args.Distraction
	}

	frames := s.config.BufferFrames
	if args.BufferFrames > 0 {
		frames = args.BufferFrames
	}

	samples := dsp.DecodePCM16(data)
	results, err := affect.Analyze(samples, s.config.Analysis, child, frames, affect.WithLogger(s.log))
	if err != nil {
		return nil, nil, fmt.Errorf("analysis failed: %w", err)
	}

	report := AnalyzeReport{
		DurationSeconds: float64(len(samples)) / float64(s.config.Analysis.SampleRate),
		Samples:         len(samples),
		Child:           child,
		Results:         results,
	}
	if report.Results == nil {
		report.Results = []affect.Result{}
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode report: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"samples": len(samples),
		"results": len(results),
	}).Info("analyzed audio")

	return &sdk.CallToolResult{
		Content: []sdk.Content{
			&sdk.TextContent{Text: summarize(report)},
			&sdk.TextContent{Text: string(payload)},
		},
	}, nil, nil
}

func summarize(r AnalyzeReport) string {
	if len(r.Results) == 0 {
		return fmt.Sprintf("Analyzed %.1fs of audio: no estimate (need %d full windows)", r.DurationSeconds, affect.HistorySize)
	}
	last := r.Results[len(r.Results)-1]
	return fmt.Sprintf("Analyzed %.1fs of audio, estimates: %d, latest: %s (noise=%s, context=%s)",
		r.DurationSeconds, len(r.Results), last.Emotion.Dominant(), last.Noise, last.Context)
}

func (s *Server) handleDescribeThresholds(ctx context.Context, req *sdk.CallToolRequest, args DescribeThresholdsArgs) (*sdk.CallToolResult, any, error) {
	cfg := s.config.Analysis
	report := ThresholdReport{
		SampleRate:     cfg.SampleRate,
		WindowDuration: cfg.WindowDuration.String(),
		FFTInterval:    cfg.FFTInterval.String(),
		FFTSize:        cfg.FFTSize,
		HistorySize:    affect.HistorySize,
		MinAudio:       (time.Duration(affect.HistorySize) * cfg.WindowDuration).String(),
		Thresholds:     cfg.Thresholds,
	}

	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode thresholds: %w", err)
	}

	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(payload)}},
	}, nil, nil
}
