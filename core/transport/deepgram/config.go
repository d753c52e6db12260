package deepgram

import (
	"fmt"
	"slices"

	"github.com/koscakluka/ema-heartcheck/core/audio"
)

const (
	DefaultListenURL = "wss://api.deepgram.com/v1/listen"
	DefaultSpeakURL  = "wss://api.deepgram.com/v1/speak"
	DefaultModel     = "nova-3"
	DefaultLanguage  = "en-US"
	DefaultVoice     = "aura-2-thalia-en"
)

var availableVoices = []string{
	"aura-2-thalia-en", "aura-2-andromeda-en", "aura-2-helena-en", "aura-2-apollo-en",
	"aura-2-arcas-en", "aura-2-aries-en", "aura-asteria-en", "aura-luna-en",
	"aura-stella-en", "aura-orion-en", "aura-arcas-en", "aura-perseus-en",
}

func AvailableVoices() []string { return slices.Clone(availableVoices) }

type Config struct {
	APIKey    string
	ListenURL string
	SpeakURL  string
	Model     string
	Language  string
	Voice     string
	Encoding  audio.EncodingInfo

	UtteranceEndMs int
	EndpointingMs  int
}

func DefaultConfig() Config {
	return Config{
		ListenURL:      DefaultListenURL,
		SpeakURL:       DefaultSpeakURL,
		Model:          DefaultModel,
		Language:       DefaultLanguage,
		Voice:          DefaultVoice,
		Encoding:       audio.GetDefaultEncodingInfo(),
		UtteranceEndMs: 1000,
		EndpointingMs:  300,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.ListenURL == "" {
		c.ListenURL = defaults.ListenURL
	}
	if c.SpeakURL == "" {
		c.SpeakURL = defaults.SpeakURL
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Language == "" {
		c.Language = defaults.Language
	}
	if c.Voice == "" {
		c.Voice = defaults.Voice
	}
	if c.Encoding.IsZero() {
		c.Encoding = defaults.Encoding
	}
	if c.UtteranceEndMs <= 0 {
		c.UtteranceEndMs = defaults.UtteranceEndMs
	}
	if c.EndpointingMs <= 0 {
		c.EndpointingMs = defaults.EndpointingMs
	}
	return c
}

func (c Config) validate() error {
	if !slices.Contains(availableVoices, c.Voice) {
		return fmt.Errorf("invalid voice %q", c.Voice)
	}
	if _, err := convertEncoding(c.Encoding); err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}
	return nil
}
