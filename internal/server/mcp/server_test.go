package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/affect/internal/affect"
	"github.com/emmett/affect/internal/dsp"
)

func testConfig() Config {
	return Config{
		ServerName:    "affect-test",
		ServerVersion: "test",
		Analysis:      affect.DefaultConfig(),
		Child:         affect.ChildState{EmotionalRigidity: 0.3, Distraction: 1},
		BufferFrames:  1024,
	}
}

func connect(t *testing.T, s *Server) *sdk.ClientSession {
	t.Helper()

	ctx := context.Background()
	clientTransport, serverTransport := sdk.NewInMemoryTransports()

	ss, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func tonePCM(n int, rms float64, bin int) []int {
	data := make([]int, n)
	for i := range data {
		data[i] = int(math.Round(32767 * rms * math.Sqrt2 * math.Sin(2*math.Pi*float64(bin)*float64(i)/1024)))
	}
	return data
}

func textContent(t *testing.T, res *sdk.CallToolResult, i int) string {
	t.Helper()

	require.Greater(t, len(res.Content), i)
	text, ok := res.Content[i].(*sdk.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewServer_Validates(t *testing.T) {
	cfg := testConfig()
	cfg.Analysis.WindowDuration = 0
	_, err := NewServer(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Child.Distraction = 9
	_, err = NewServer(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.BufferFrames = 0
	_, err = NewServer(cfg)
	assert.Error(t, err)
}

func TestServer_ListTools(t *testing.T) {
	s, err := NewServer(testConfig())
	require.NoError(t, err)
	cs := connect(t, s)

	res, err := cs.ListTools(context.Background(), &sdk.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"analyze_audio", "describe_thresholds"}, names)
}

func TestServer_AnalyzeAudio(t *testing.T) {
	s, err := NewServer(testConfig())
	require.NoError(t, err)
	cs := connect(t, s)

	window := 8 * 44100
	var pcm []int
	pcm = append(pcm, tonePCM(window+1024, 0.01, 50)...)
	pcm = append(pcm, tonePCM(window, 0.01, 50)...)
	pcm = append(pcm, tonePCM(window+8192, 0.013, 52)...)

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
		Name: "analyze_audio",
		Arguments: map[string]any{
			"audio":       base64.StdEncoding.EncodeToString(dsp.EncodePCM16(pcm)),
			"distraction": 0,
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Contains(t, textContent(t, res, 0), "estimates: 1")

	var report struct {
		Samples int `json:"samples"`
		Child   struct {
			Distraction int `json:"distraction"`
		} `json:"child"`
		Results []struct {
			Noise   string             `json:"noise_level"`
			Context string             `json:"audio_context"`
			Emotion map[string]float64 `json:"emotion"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res, 1)), &report))

	assert.Equal(t, len(pcm), report.Samples)
	assert.Zero(t, report.Child.Distraction)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "moderate", report.Results[0].Noise)
	assert.Equal(t, "speech_or_normal", report.Results[0].Context)

	var sum float64
	for _, p := range report.Results[0].Emotion {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestServer_AnalyzeAudioTooShort(t *testing.T) {
	s, err := NewServer(testConfig())
	require.NoError(t, err)
	cs := connect(t, s)

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{
		Name:      "analyze_audio",
		Arguments: map[string]any{"audio": base64.StdEncoding.EncodeToString(dsp.EncodePCM16(tonePCM(44100, 0.1, 40)))},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, textContent(t, res, 0), "no estimate")
}

func TestServer_AnalyzeAudioRejectsBadInput(t *testing.T) {
	s, err := NewServer(testConfig())
	require.NoError(t, err)
	cs := connect(t, s)

	for name, args := range map[string]map[string]any{
		"bad base64":      {"audio": "not base64!"},
		"bad rigidity":    {"audio": "", "emotional_rigidity": 1.5},
		"bad distraction": {"audio": "", "distraction": 7},
	} {
		t.Run(name, func(t *testing.T) {
			res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{Name: "analyze_audio", Arguments: args})
			if err == nil {
				assert.True(t, res.IsError)
			}
		})
	}
}

func TestServer_DescribeThresholds(t *testing.T) {
	s, err := NewServer(testConfig())
	require.NoError(t, err)
	cs := connect(t, s)

	res, err := cs.CallTool(context.Background(), &sdk.CallToolParams{Name: "describe_thresholds", Arguments: map[string]any{}})
	require.NoError(t, err)

	var report ThresholdReport
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res, 0)), &report))
	assert.Equal(t, uint32(44100), report.SampleRate)
	assert.Equal(t, "8s", report.WindowDuration)
	assert.Equal(t, "24s", report.MinAudio)
	assert.Equal(t, 3, report.HistorySize)
	assert.Equal(t, affect.DefaultThresholds(), report.Thresholds)

	var raw struct {
		Thresholds map[string]float64 `json:"thresholds"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res, 0)), &raw))
	assert.Equal(t, map[string]float64{
		"stable_pct":              10,
		"moderate_pct":            30,
		"agitation_var_amplitude": 0.002,
		"agitation_var_frequency": 150,
		"agitation_zcr":           0.15,
		"speech_zcr":              0.12,
		"speech_var_amplitude":    0.002,
	}, raw.Thresholds)
}
