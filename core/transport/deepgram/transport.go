// Package deepgram implements the speech transport as a cascade of Deepgram
// streaming recognition (/v1/listen) and streaming synthesis (/v1/speak).
package deepgram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/transport"
	"go.opentelemetry.io/otel/codes"
)

type TransportOption func(*TransportOptions)

type TransportOptions struct {
	Dialer *websocket.Dialer
}

func WithDialer(dialer *websocket.Dialer) TransportOption {
	return func(o *TransportOptions) {
		if dialer != nil {
			o.Dialer = dialer
		}
	}
}

type Transport struct {
	config Config
	dialer *websocket.Dialer
	bus    *events.Bus

	mu            sync.Mutex
	listenConn    *websocket.Conn
	speech        *speechRequest
	stopSilence   context.CancelFunc
	lifetime      context.Context

	writeMu   sync.Mutex
	lastAudio atomic.Int64
	connected atomic.Bool
	closing   atomic.Bool

	// Listen reader state.
	accumulatedTranscript string
	unendedSegment        bool
}

// NewTransport creates a transport; nothing is dialed until Connect. An
// empty APIKey is read from DEEPGRAM_API_KEY.
func NewTransport(config Config, opts ...TransportOption) *Transport {
	options := TransportOptions{Dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&options)
	}

	config = config.withDefaults()
	if config.APIKey == "" {
		if apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY"); ok {
			config.APIKey = apiKey
		}
	}

	return &Transport{config: config, dialer: options.Dialer, bus: events.NewBus()}
}

func (t *Transport) Subscribe(buffer int) (<-chan events.Event, func()) {
	return t.bus.Subscribe(buffer)
}

func (t *Transport) Connected() bool { return t.connected.Load() }

func (t *Transport) Connect(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "connect deepgram transport")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if t.closing.Load() {
		return &transport.ConnectionError{Op: "connect", Err: errors.New("transport already disconnected")}
	}
	if t.config.APIKey == "" {
		return &transport.ConnectionError{Op: "authenticate", Err: transport.ErrMissingAPIKey}
	}
	if err := t.config.validate(); err != nil {
		return &transport.ConnectionError{Op: "configure session", Err: err}
	}

	conn, err := dialListen(ctx, t.dialer, t.config)
	if err != nil {
		return &transport.ConnectionError{Op: "dial", Err: err}
	}

	silenceCtx, stopSilence := context.WithCancel(context.Background())
	t.mu.Lock()
	if t.closing.Load() {
		t.mu.Unlock()
		stopSilence()
		conn.Close()
		return &transport.ConnectionError{Op: "connect", Err: errors.New("transport disconnected while dialing")}
	}
	t.listenConn = conn
	t.stopSilence = stopSilence
	t.lifetime = silenceCtx
	t.mu.Unlock()
	t.lastAudio.Store(time.Now().UnixNano())
	t.connected.Store(true)

	t.bus.Publish(events.NewConnectivityChanged(true))
	go t.readListenMessages(conn)
	go t.generateSilence(silenceCtx, t.config.Encoding)
	return nil
}

// SendAudioChunk streams audio to recognition. It never returns an error;
// failures and calls while disconnected are only logged.
func (t *Transport) SendAudioChunk(chunk []byte) {
	if !t.connected.Load() {
		logger.Debug("dropping audio chunk, transport not connected", "bytes", len(chunk))
		return
	}

	t.lastAudio.Store(time.Now().UnixNano())
	if err := t.writeListen(func(conn *websocket.Conn) error {
		return conn.WriteMessage(websocket.BinaryMessage, chunk)
	}); err != nil {
		logger.Warn("failed to send audio chunk", "error", err)
	}
}

// SendPrompt starts synthesizing text in the background. A prompt still
// being spoken is cancelled first.
func (t *Transport) SendPrompt(text string) error {
	if !t.connected.Load() {
		return transport.ErrNotConnected
	}

	request := newSpeechRequest(text, func(event events.Event) {
		if !t.closing.Load() {
			t.bus.Publish(event)
		}
	})

	t.mu.Lock()
	previous := t.speech
	t.speech = request
	ctx := t.lifetime
	t.mu.Unlock()

	if previous != nil {
		previous.cancel(false)
	}
	go request.start(ctx, t.dialer, t.config)
	return nil
}

func (t *Transport) InterruptCurrentResponse() error {
	if !t.connected.Load() {
		return transport.ErrNotConnected
	}

	t.mu.Lock()
	request := t.speech
	t.speech = nil
	t.mu.Unlock()

	if request != nil {
		request.cancel(false)
	}
	return nil
}

// Disconnect closes both sockets. Calling it more than once, or before
// Connect, is a no-op.
func (t *Transport) Disconnect() error {
	t.closing.Store(true)

	t.mu.Lock()
	conn, request, stopSilence := t.listenConn, t.speech, t.stopSilence
	t.listenConn, t.speech, t.stopSilence = nil, nil, nil
	t.mu.Unlock()

	if stopSilence != nil {
		stopSilence()
	}
	if request != nil {
		request.cancel(true)
	}
	if conn == nil {
		t.bus.Close()
		return nil
	}

	wasConnected := t.connected.Swap(false)

	t.writeMu.Lock()
	closeErr := conn.WriteJSON(websocketMessage{Type: string(api.TypeCloseStreamResponse)})
	err := conn.Close()
	t.writeMu.Unlock()
	if closeErr != nil {
		logger.Debug("failed to send close stream", "error", closeErr)
	}

	if wasConnected {
		t.bus.Publish(events.NewConnectivityChanged(false))
	}
	t.bus.Close()

	if err != nil {
		return fmt.Errorf("failed to close deepgram connection: %w", err)
	}
	return nil
}

func (t *Transport) writeListen(write func(conn *websocket.Conn) error) error {
	t.mu.Lock()
	conn := t.listenConn
	t.mu.Unlock()
	if conn == nil {
		return transport.ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := write(conn); err != nil {
		return fmt.Errorf("failed to write to deepgram client: %w", err)
	}
	return nil
}
