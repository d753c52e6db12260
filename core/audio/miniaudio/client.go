// Package miniaudio provides microphone capture and speaker playback through
// miniaudio.
package miniaudio

import (
	"context"
	"fmt"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-heartcheck/core/audio"
)

type ClientOption func(*ClientOptions)

type ClientOptions struct {
	SampleRate int
	Playback   bool
}

func WithSampleRate(sampleRate int) ClientOption {
	return func(o *ClientOptions) {
		if sampleRate > 0 {
			o.SampleRate = sampleRate
		}
	}
}

// WithoutPlayback skips opening an output device, e.g. when agent audio is
// played elsewhere.
func WithoutPlayback() ClientOption {
	return func(o *ClientOptions) { o.Playback = false }
}

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	options      ClientOptions
	playbackClient
	captureClient
}

func NewClient(opts ...ClientOption) (*Client, error) {
	options := ClientOptions{SampleRate: audio.DefaultSampleRate, Playback: true}
	for _, opt := range opts {
		opt(&options)
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := &Client{audioContext: audioCtx, options: options}

	if options.Playback {
		if err := client.playbackClient.Init(audioCtx, options.SampleRate); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to initialize playback client: %w", err)
		}
		if err := client.playbackClient.Start(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start playback device: %w", err)
		}
	}

	return client, nil
}

// RequestMicrophonePermission opens the capture device. On platforms that
// gate microphone access this is what triggers the permission prompt, so a
// failure is reported as a denial.
func (c *Client) RequestMicrophonePermission(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := c.captureClient.Init(c.audioContext, c.options.SampleRate); err != nil {
		logger.Warn("microphone unavailable", "error", err)
		return false
	}
	return true
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	if err := c.captureClient.Init(c.audioContext, c.options.SampleRate); err != nil {
		return err
	}
	return c.captureClient.Start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.Stop()
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playbackClient.SendAudio(audio)
}

func (c *Client) ClearBuffer() {
	c.playbackClient.ClearBuffer()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{SampleRate: c.options.SampleRate, Format: audio.EncodingLinear16}
}

func (c *Client) Close() error {
	c.captureClient.Uninit()
	c.playbackClient.Uninit()
	if c.audioContext == nil {
		return nil
	}
	err := c.audioContext.Uninit()
	c.audioContext.Free()
	c.audioContext = nil
	if err != nil {
		return fmt.Errorf("failed to release audio context: %w", err)
	}
	return nil
}
