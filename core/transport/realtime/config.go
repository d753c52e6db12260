package realtime

import (
	"github.com/koscakluka/ema-heartcheck/core/audio"
	"github.com/koscakluka/ema-heartcheck/internal/utils"
)

const (
	DefaultURL                = "wss://api.openai.com/v1/realtime"
	DefaultModel              = "gpt-4o-realtime-preview"
	DefaultVoice              = "alloy"
	DefaultTranscriptionModel = "whisper-1"
	DefaultInstructions       = "You are a calm, friendly health assistant running a short spoken heart-health " +
		"questionnaire. Only say the text you are asked to say, word for word. Do not add advice, " +
		"do not answer for the user and do not ask anything on your own."
)

// TurnDetection configures server-side voice activity detection.
type TurnDetection struct {
	Type              string  `json:"type" yaml:"type"`
	Threshold         float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty" yaml:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty" yaml:"silence_duration_ms,omitempty"`
	CreateResponse    *bool   `json:"create_response,omitempty" yaml:"-"`
	InterruptResponse *bool   `json:"interrupt_response,omitempty" yaml:"-"`
}

type Config struct {
	URL                string
	APIKey             string
	Model              string
	Voice              string
	Instructions       string
	TranscriptionModel string
	Encoding           audio.EncodingInfo
	TurnDetection      TurnDetection
}

// DefaultConfig leaves response creation to the client so the agent only
// speaks when prompted.
func DefaultConfig() Config {
	return Config{
		URL:                DefaultURL,
		Model:              DefaultModel,
		Voice:              DefaultVoice,
		Instructions:       DefaultInstructions,
		TranscriptionModel: DefaultTranscriptionModel,
		Encoding:           audio.GetDefaultEncodingInfo(),
		TurnDetection: TurnDetection{
			Type:              "server_vad",
			Threshold:         0.5,
			PrefixPaddingMs:   300,
			SilenceDurationMs: 700,
			CreateResponse:    utils.Ptr(false),
			InterruptResponse: utils.Ptr(false),
		},
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.URL == "" {
		c.URL = defaults.URL
	}
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.Voice == "" {
		c.Voice = defaults.Voice
	}
	if c.Instructions == "" {
		c.Instructions = defaults.Instructions
	}
	if c.TranscriptionModel == "" {
		c.TranscriptionModel = defaults.TranscriptionModel
	}
	if c.Encoding.IsZero() {
		c.Encoding = defaults.Encoding
	}
	if c.TurnDetection.Type == "" {
		c.TurnDetection = defaults.TurnDetection
	}
	if c.TurnDetection.CreateResponse == nil {
		c.TurnDetection.CreateResponse = utils.Ptr(false)
	}
	if c.TurnDetection.InterruptResponse == nil {
		c.TurnDetection.InterruptResponse = utils.Ptr(false)
	}
	return c
}
