// Package config handles reading and writing the heartcheck config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/koscakluka/ema-heartcheck/core/audio"
	"github.com/koscakluka/ema-heartcheck/core/session"
	"github.com/koscakluka/ema-heartcheck/core/transport/deepgram"
	"github.com/koscakluka/ema-heartcheck/core/transport/realtime"
	"gopkg.in/yaml.v3"
)

const (
	TransportRealtime = "realtime"
	TransportDeepgram = "deepgram"

	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"
)

// Config is the top-level structure of config.yaml. API keys are never
// stored here, they come from the environment.
type Config struct {
	Version     int               `yaml:"version"`
	Transport   string            `yaml:"transport"` // "realtime" | "deepgram"
	Script      string            `yaml:"script,omitempty"`
	Realtime    RealtimeConfig    `yaml:"realtime"`
	Deepgram    DeepgramConfig    `yaml:"deepgram"`
	Session     SessionConfig     `yaml:"session"`
	Audio       AudioConfig       `yaml:"audio"`
	Interpreter InterpreterConfig `yaml:"interpreter"`
}

type RealtimeConfig struct {
	URL                string                 `yaml:"url"`
	Model              string                 `yaml:"model"`
	Voice              string                 `yaml:"voice"`
	Instructions       string                 `yaml:"instructions,omitempty"`
	TranscriptionModel string                 `yaml:"transcription_model"`
	TurnDetection      realtime.TurnDetection `yaml:"turn_detection"`
}

type DeepgramConfig struct {
	Model          string `yaml:"model"`
	Language       string `yaml:"language"`
	Voice          string `yaml:"voice"`
	UtteranceEndMs int    `yaml:"utterance_end_ms"`
	EndpointingMs  int    `yaml:"endpointing_ms"`
}

type SessionConfig struct {
	MaxAttempts int    `yaml:"max_attempts"` // 0 retries forever
	BargeIn     string `yaml:"barge_in"`     // "defer" | "reject"
}

type AudioConfig struct {
	Backend    string `yaml:"backend"` // "miniaudio" | "portaudio"
	SampleRate int    `yaml:"sample_rate"`
	BufferSize int    `yaml:"buffer_size"` // frames, portaudio only
}

type InterpreterConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model,omitempty"`
}

// DefaultPath is config.yaml in the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "heartcheck", "config.yaml"), nil
}

// ReadConfig reads the config at path. Keys missing from the file keep
// their default values.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// WriteConfig writes cfg to path, creating parent directories as needed.
func WriteConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func DefaultConfig() *Config {
	rt := realtime.DefaultConfig()
	dg := deepgram.DefaultConfig()
	return &Config{
		Version:   1,
		Transport: TransportRealtime,
		Realtime: RealtimeConfig{
			URL:                rt.URL,
			Model:              rt.Model,
			Voice:              rt.Voice,
			TranscriptionModel: rt.TranscriptionModel,
			TurnDetection:      rt.TurnDetection,
		},
		Deepgram: DeepgramConfig{
			Model:          dg.Model,
			Language:       dg.Language,
			Voice:          dg.Voice,
			UtteranceEndMs: dg.UtteranceEndMs,
			EndpointingMs:  dg.EndpointingMs,
		},
		Session: SessionConfig{
			MaxAttempts: session.DefaultMaxAttempts,
			BargeIn:     string(session.BargeInDefer),
		},
		Audio: AudioConfig{
			Backend:    BackendMiniaudio,
			SampleRate: audio.DefaultSampleRate,
			BufferSize: 1024,
		},
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Transport != TransportRealtime && c.Transport != TransportDeepgram {
		errs = append(errs, fmt.Errorf("unknown transport %q", c.Transport))
	}
	if c.Audio.Backend != BackendMiniaudio && c.Audio.Backend != BackendPortaudio {
		errs = append(errs, fmt.Errorf("unknown audio backend %q", c.Audio.Backend))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Session.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("max attempts cannot be negative, got %d", c.Session.MaxAttempts))
	}
	if !session.BargeInPolicy(c.Session.BargeIn).IsValid() {
		errs = append(errs, fmt.Errorf("unknown barge-in policy %q", c.Session.BargeIn))
	}
	if c.Transport == TransportDeepgram && !slices.Contains(deepgram.AvailableVoices(), c.Deepgram.Voice) {
		errs = append(errs, fmt.Errorf("unknown deepgram voice %q", c.Deepgram.Voice))
	}
	return errors.Join(errs...)
}

func (c *Config) Encoding() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: c.Audio.SampleRate, Format: audio.EncodingLinear16}
}

// RealtimeClientConfig builds the realtime transport config. The API key is
// read by the client from OPENAI_API_KEY.
func (c *Config) RealtimeClientConfig() realtime.Config {
	return realtime.Config{
		URL:                c.Realtime.URL,
		Model:              c.Realtime.Model,
		Voice:              c.Realtime.Voice,
		Instructions:       c.Realtime.Instructions,
		TranscriptionModel: c.Realtime.TranscriptionModel,
		Encoding:           c.Encoding(),
		TurnDetection:      c.Realtime.TurnDetection,
	}
}

// DeepgramTransportConfig builds the deepgram transport config. The API key
// is read by the transport from DEEPGRAM_API_KEY.
func (c *Config) DeepgramTransportConfig() deepgram.Config {
	return deepgram.Config{
		Model:          c.Deepgram.Model,
		Language:       c.Deepgram.Language,
		Voice:          c.Deepgram.Voice,
		Encoding:       c.Encoding(),
		UtteranceEndMs: c.Deepgram.UtteranceEndMs,
		EndpointingMs:  c.Deepgram.EndpointingMs,
	}
}

// SessionOptions maps the session section to controller options.
func (c *Config) SessionOptions() []session.ControllerOption {
	return []session.ControllerOption{
		session.WithMaxAttempts(c.Session.MaxAttempts),
		session.WithBargeInPolicy(session.BargeInPolicy(c.Session.BargeIn)),
	}
}
