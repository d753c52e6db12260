// Package realtime implements the speech transport over an
// OpenAI-Realtime-compatible websocket endpoint.
package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const closeWriteTimeout = time.Second

type ClientOption func(*ClientOptions)

type ClientOptions struct {
	Dialer *websocket.Dialer
}

// WithDialer replaces websocket.DefaultDialer, e.g. to set a proxy or TLS
// configuration.
func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(o *ClientOptions) {
		if dialer != nil {
			o.Dialer = dialer
		}
	}
}

type Client struct {
	config Config
	dialer *websocket.Dialer
	bus    *events.Bus

	mu   sync.Mutex
	conn *websocket.Conn

	writeMu   sync.Mutex
	connected atomic.Bool
	closing   atomic.Bool

	// agentSpeaking is only touched by the reader goroutine.
	agentSpeaking bool
}

// NewClient creates a client; nothing is dialed until Connect. An empty
// APIKey is read from OPENAI_API_KEY.
func NewClient(config Config, opts ...ClientOption) *Client {
	options := ClientOptions{Dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&options)
	}

	config = config.withDefaults()
	if config.APIKey == "" {
		if apiKey, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			config.APIKey = apiKey
		}
	}

	return &Client{config: config, dialer: options.Dialer, bus: events.NewBus()}
}

func (c *Client) Subscribe(buffer int) (<-chan events.Event, func()) {
	return c.bus.Subscribe(buffer)
}

func (c *Client) Connected() bool { return c.connected.Load() }

// Connect dials the endpoint and sends the session configuration. Failures
// are returned as *transport.ConnectionError.
func (c *Client) Connect(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "connect realtime transport")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if c.closing.Load() {
		return &transport.ConnectionError{Op: "connect", Err: errors.New("client already disconnected")}
	}
	if c.config.APIKey == "" {
		return &transport.ConnectionError{Op: "authenticate", Err: transport.ErrMissingAPIKey}
	}

	endpoint, err := url.Parse(c.config.URL)
	if err != nil {
		return &transport.ConnectionError{Op: "parse url", Err: err}
	}
	query := endpoint.Query()
	query.Set("model", c.config.Model)
	endpoint.RawQuery = query.Encode()
	span.SetAttributes(attribute.String("realtime.model", c.config.Model))

	conn, resp, err := c.dialer.DialContext(ctx, endpoint.String(), http.Header{
		"Authorization": {"Bearer " + c.config.APIKey},
		"OpenAI-Beta":   {"realtime=v1"},
	})
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return &transport.ConnectionError{Op: "dial", Err: err}
	}

	c.mu.Lock()
	if c.closing.Load() {
		c.mu.Unlock()
		conn.Close()
		return &transport.ConnectionError{Op: "connect", Err: errors.New("client disconnected while dialing")}
	}
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)

	if err := c.write(newSessionUpdate(c.config)); err != nil {
		c.connected.Store(false)
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
		return &transport.ConnectionError{Op: "configure session", Err: err}
	}

	c.bus.Publish(events.NewConnectivityChanged(true))
	go c.readMessages(conn)
	return nil
}

// SendAudioChunk appends audio to the remote input buffer. It never returns
// an error; failures and calls while disconnected are only logged.
func (c *Client) SendAudioChunk(chunk []byte) {
	if !c.connected.Load() {
		logger.Debug("dropping audio chunk, transport not connected", "bytes", len(chunk))
		return
	}
	if err := c.write(newAudioAppend(chunk)); err != nil {
		logger.Warn("failed to send audio chunk", "error", err)
	}
}

// SendPrompt asks the agent to say text and requests a response turn.
func (c *Client) SendPrompt(text string) error {
	if !c.connected.Load() {
		return transport.ErrNotConnected
	}
	if err := c.write(newPromptItem(text)); err != nil {
		return fmt.Errorf("failed to send prompt: %w", err)
	}
	if err := c.write(bareEvent{Type: clientEventResponseCreate}); err != nil {
		return fmt.Errorf("failed to request response: %w", err)
	}
	return nil
}

func (c *Client) InterruptCurrentResponse() error {
	if !c.connected.Load() {
		return transport.ErrNotConnected
	}
	if err := c.write(bareEvent{Type: clientEventResponseCancel}); err != nil {
		return fmt.Errorf("failed to cancel response: %w", err)
	}
	return nil
}

// Disconnect closes the connection. Calling it more than once, or before
// Connect, is a no-op.
func (c *Client) Disconnect() error {
	c.closing.Store(true)

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		c.bus.Close()
		return nil
	}

	wasConnected := c.connected.Swap(false)

	c.writeMu.Lock()
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeWriteTimeout))
	err := conn.Close()
	c.writeMu.Unlock()

	if wasConnected {
		c.bus.Publish(events.NewConnectivityChanged(false))
	}
	c.bus.Close()

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close realtime connection: %w", err)
	}
	return nil
}

func (c *Client) write(message any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return transport.ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(message)
}

func (c *Client) readMessages(conn *websocket.Conn) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if c.closing.Load() {
				return
			}
			c.connected.Store(false)
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()

			logger.Warn("realtime connection dropped", "error", err)
			c.bus.Publish(events.NewConnectivityChanged(false))
			c.bus.Publish(events.NewTransportFailed(&transport.ConnectionError{Op: "read", Err: err}))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		for _, event := range c.processMessage(msg) {
			if c.closing.Load() {
				return
			}
			c.bus.Publish(event)
		}
	}
}

// processMessage maps one server event to transport events.
func (c *Client) processMessage(msg []byte) []events.Event {
	var header serverEvent
	if err := json.Unmarshal(msg, &header); err != nil || header.Type == "" {
		if err == nil {
			err = errors.New("missing event type")
		}
		return []events.Event{events.NewTransportFailed(&transport.ProtocolError{Message: "undecodable server event", Err: err})}
	}

	malformed := func(err error) []events.Event {
		return []events.Event{events.NewTransportFailed(&transport.ProtocolError{EventType: string(header.Type), Message: "malformed payload", Err: err})}
	}

	switch header.Type {
	case serverEventError:
		var payload errorEvent
		if err := json.Unmarshal(msg, &payload); err != nil {
			return malformed(err)
		}
		if payload.Error.Code == errorCodeCancelNotActive {
			logger.Debug("ignoring cancel for finished response")
			return nil
		}
		return []events.Event{events.NewTransportFailed(&transport.ProtocolError{
			EventType: string(header.Type),
			Code:      firstNonEmpty(payload.Error.Code, payload.Error.Type),
			Message:   payload.Error.Message,
		})}

	case serverEventSpeechStarted:
		return []events.Event{events.NewUserSpeechStarted()}

	case serverEventSpeechStopped:
		return []events.Event{events.NewUserSpeechEnded()}

	case serverEventInputTranscriptionCompleted:
		var payload transcriptEvent
		if err := json.Unmarshal(msg, &payload); err != nil {
			return malformed(err)
		}
		return []events.Event{events.NewUserTranscriptFinal(strings.TrimSpace(payload.Transcript))}

	case serverEventInputTranscriptionFailed:
		logger.Warn("user transcription failed", "event_id", header.EventID)
		return []events.Event{events.NewUserTranscriptFinal("")}

	case serverEventResponseCreated:
		return c.agentStartedSpeaking()

	case serverEventResponseAudioDelta:
		var payload audioDeltaEvent
		if err := json.Unmarshal(msg, &payload); err != nil {
			return malformed(err)
		}
		audio, err := base64.StdEncoding.DecodeString(payload.Delta)
		if err != nil {
			return malformed(err)
		}
		return append(c.agentStartedSpeaking(), events.NewAgentAudioFrame(audio))

	case serverEventResponseAudioTranscriptDone:
		var payload transcriptEvent
		if err := json.Unmarshal(msg, &payload); err != nil {
			return malformed(err)
		}
		return []events.Event{events.NewAgentTranscriptFinal(payload.Transcript)}

	case serverEventResponseDone:
		var payload responseDoneEvent
		if err := json.Unmarshal(msg, &payload); err != nil {
			return malformed(err)
		}
		var out []events.Event
		if c.agentSpeaking {
			c.agentSpeaking = false
			out = append(out, events.NewAgentSpeakingChanged(false))
		}
		if payload.Response.Status == "cancelled" {
			return append(out, events.NewTurnCancelled())
		}
		return append(out, events.NewTurnCompleted())

	case serverEventSessionCreated, serverEventSessionUpdated:
		logger.Debug("realtime session event", "type", header.Type)
	}
	return nil
}

func (c *Client) agentStartedSpeaking() []events.Event {
	if c.agentSpeaking {
		return nil
	}
	c.agentSpeaking = true
	return []events.Event{events.NewAgentSpeakingChanged(true)}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
