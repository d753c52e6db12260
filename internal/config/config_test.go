package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/koscakluka/ema-heartcheck/core/transport/realtime"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got %v", err)
	}
}

func TestWriteThenReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Transport = TransportDeepgram
	cfg.Session.MaxAttempts = 5
	cfg.Interpreter.Enabled = true

	if err := WriteConfig(path, cfg); err != nil {
		t.Fatalf("expected config to be written, got %v", err)
	}
	got, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("expected config to be read, got %v", err)
	}

	if got.Transport != TransportDeepgram || got.Session.MaxAttempts != 5 || !got.Interpreter.Enabled {
		t.Fatalf("expected written values back, got %+v", got)
	}
	if got.Realtime.TurnDetection.SilenceDurationMs != cfg.Realtime.TurnDetection.SilenceDurationMs {
		t.Fatalf("expected turn detection to survive, got %+v", got.Realtime.TurnDetection)
	}
}

func TestReadConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "transport: realtime\nsession:\n  barge_in: reject\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("expected partial config to be read, got %v", err)
	}
	if cfg.Session.BargeIn != "reject" {
		t.Fatalf("expected barge-in from file, got %q", cfg.Session.BargeIn)
	}
	if cfg.Session.MaxAttempts != 3 || cfg.Realtime.Model != realtime.DefaultModel || cfg.Audio.Backend != BackendMiniaudio {
		t.Fatalf("expected defaults for missing keys, got %+v", cfg)
	}
}

func TestReadConfigRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		data string
		want string
	}{
		{name: "transport", data: "transport: carrier-pigeon\n", want: "unknown transport"},
		{name: "backend", data: "audio:\n  backend: alsa\n", want: "unknown audio backend"},
		{name: "attempts", data: "session:\n  max_attempts: -1\n", want: "max attempts"},
		{name: "barge in", data: "session:\n  barge_in: shout\n", want: "barge-in"},
		{name: "voice", data: "transport: deepgram\ndeepgram:\n  voice: robot\n", want: "deepgram voice"},
		{name: "yaml", data: "transport: [\n", want: "parsing config"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.data), 0644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}

			_, err := ReadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	if _, err := ReadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTransportConfigsCarrySettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.SampleRate = 16000
	cfg.Realtime.Voice = "verse"
	cfg.Deepgram.Voice = "aura-2-apollo-en"

	rt := cfg.RealtimeClientConfig()
	if rt.Voice != "verse" || rt.Encoding.SampleRate != 16000 || rt.APIKey != "" {
		t.Fatalf("unexpected realtime config %+v", rt)
	}
	dg := cfg.DeepgramTransportConfig()
	if dg.Voice != "aura-2-apollo-en" || dg.Encoding.SampleRate != 16000 {
		t.Fatalf("unexpected deepgram config %+v", dg)
	}
	if got := len(cfg.SessionOptions()); got != 2 {
		t.Fatalf("expected two session options, got %d", got)
	}
}
