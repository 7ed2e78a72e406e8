package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/emmett/affect/internal/affect"
)

// Config represents the application configuration
type Config struct {
	// Audio settings
	Audio struct {
		Device       string `yaml:"device"`
		SampleRate   uint32 `yaml:"sample_rate"`
		BufferFrames uint32 `yaml:"buffer_frames"`
	} `yaml:"audio"`

	// Analysis settings
	Analysis struct {
		WindowDuration time.Duration `yaml:"window_duration"`
		FFTInterval    time.Duration `yaml:"fft_interval"`
		FFTSize        int           `yaml:"fft_size"`
	} `yaml:"analysis"`

	// Classifier thresholds
	Thresholds struct {
		StablePct             float64 `yaml:"stable_pct"`
		ModeratePct           float64 `yaml:"moderate_pct"`
		AgitationVarAmplitude float64 `yaml:"agitation_var_amplitude"`
		AgitationVarFrequency float64 `yaml:"agitation_var_frequency"`
		AgitationZCR          float64 `yaml:"agitation_zcr"`
		SpeechZCR             float64 `yaml:"speech_zcr"`
		SpeechVarAmplitude    float64 `yaml:"speech_var_amplitude"`
	} `yaml:"thresholds"`

	// Child parameters known to the estimator
	Child struct {
		EmotionalRigidity float64 `yaml:"emotional_rigidity"`
		Distraction       int     `yaml:"distraction"`
	} `yaml:"child"`

	// Output settings
	Output struct {
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"output"`

	// Log settings
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// Server settings
	Server struct {
		Port   int    `yaml:"port"`
		Host   string `yaml:"host"`
		Hotkey string `yaml:"hotkey"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	analysis := affect.DefaultConfig()

	// Audio defaults
	cfg.Audio.Device = ""
	cfg.Audio.SampleRate = analysis.SampleRate
	cfg.Audio.BufferFrames = 1024

	// Analysis defaults
	cfg.Analysis.WindowDuration = analysis.WindowDuration
	cfg.Analysis.FFTInterval = analysis.FFTInterval
	cfg.Analysis.FFTSize = analysis.FFTSize

	// Threshold defaults
	t := analysis.Thresholds
	cfg.Thresholds.StablePct = t.StablePct
	cfg.Thresholds.ModeratePct = t.ModeratePct
	cfg.Thresholds.AgitationVarAmplitude = t.AgitationVarAmplitude
	cfg.Thresholds.AgitationVarFrequency = t.AgitationVarFrequency
	cfg.Thresholds.AgitationZCR = t.AgitationZCR
	cfg.Thresholds.SpeechZCR = t.SpeechZCR
	cfg.Thresholds.SpeechVarAmplitude = t.SpeechVarAmplitude

	// Child defaults
	cfg.Child.EmotionalRigidity = 0.3
	cfg.Child.Distraction = 1

	// Output defaults
	cfg.Output.Format = "console"
	cfg.Output.File = ""

	// Log defaults
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	// Server defaults
	cfg.Server.Port = 50051
	cfg.Server.Host = "localhost"
	cfg.Server.Hotkey = ""

	return cfg
}

// PipelineConfig returns the analysis parameters as a pipeline configuration
func (c *Config) PipelineConfig() affect.Config {
	return affect.Config{
		SampleRate:     c.Audio.SampleRate,
		WindowDuration: c.Analysis.WindowDuration,
		FFTInterval:    c.Analysis.FFTInterval,
		FFTSize:        c.Analysis.FFTSize,
		Thresholds: affect.Thresholds{
			StablePct:             c.Thresholds.StablePct,
			ModeratePct:           c.Thresholds.ModeratePct,
			AgitationVarAmplitude: c.Thresholds.AgitationVarAmplitude,
			AgitationVarFrequency: c.Thresholds.AgitationVarFrequency,
			AgitationZCR:          c.Thresholds.AgitationZCR,
			SpeechZCR:             c.Thresholds.SpeechZCR,
			SpeechVarAmplitude:    c.Thresholds.SpeechVarAmplitude,
		},
	}
}

// ChildState returns the configured child parameters
func (c *Config) ChildState() affect.ChildState {
	return affect.ChildState{
		EmotionalRigidity: c.Child.EmotionalRigidity,
		Distraction:       c.Child.Distraction,
	}
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if err := c.PipelineConfig().Validate(); err != nil {
		return errors.Wrap(err, "analysis")
	}
	if err := c.ChildState().Validate(); err != nil {
		return errors.Wrap(err, "child")
	}
	if c.Audio.BufferFrames == 0 {
		return errors.New("audio: buffer_frames must be positive")
	}
	return nil
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.affectrc > /etc/affect/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, ".affectrc")
		if _, err := os.Stat(userConfigPath); err == nil {
			cfg, err := Load(userConfigPath)
			if err == nil {
				return cfg, nil
			}
		}
	}

	systemConfigPath := "/etc/affect/config.yaml"
	if _, err := os.Stat(systemConfigPath); err == nil {
		cfg, err := Load(systemConfigPath)
		if err == nil {
			return cfg, nil
		}
	}

	// No config file found, return defaults
	return DefaultConfig(), nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
