package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/transport"
)

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)

// speechRequest is one prompt spoken through the /v1/speak socket. It ends
// exactly once, either on the Flushed reply or through cancel.
type speechRequest struct {
	text    string
	publish func(events.Event)

	conn *websocket.Conn
	mu   sync.Mutex

	finishOnce sync.Once
	finished   atomic.Bool
	speaking   atomic.Bool
}

func newSpeechRequest(text string, publish func(events.Event)) *speechRequest {
	return &speechRequest{text: text, publish: publish}
}

func (r *speechRequest) start(ctx context.Context, dialer *websocket.Dialer, config Config) {
	ctx, span := tracer.Start(ctx, "speak prompt")
	defer span.End()

	conn, err := dialSpeak(ctx, dialer, config)
	if err != nil {
		span.RecordError(err)
		r.fail(&transport.ConnectionError{Op: "speak", Err: err})
		return
	}

	r.mu.Lock()
	if r.finished.Load() {
		r.mu.Unlock()
		conn.Close()
		return
	}
	r.conn = conn
	r.mu.Unlock()

	if err := r.send(speakMessage{Type: "Speak", Text: r.text}); err != nil {
		r.fail(&transport.ConnectionError{Op: "speak", Err: err})
		return
	}
	if err := r.send(flushMsg); err != nil {
		r.fail(&transport.ConnectionError{Op: "speak", Err: err})
		return
	}

	r.readMessages(conn)
}

func dialSpeak(ctx context.Context, dialer *websocket.Dialer, config Config) (*websocket.Conn, error) {
	encoding, err := convertEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}

	speakURL, err := url.Parse(config.SpeakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}
	query := speakURL.Query()
	query.Set("encoding", encoding.Format)
	query.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	query.Set("model", config.Voice)
	query.Set("container", "none")
	speakURL.RawQuery = query.Encode()

	conn, _, err := dialer.DialContext(ctx, speakURL.String(), http.Header{"Authorization": {"Token " + config.APIKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func (r *speechRequest) readMessages(conn *websocket.Conn) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !r.finished.Load() {
				r.fail(&transport.ConnectionError{Op: "speak", Err: err})
			}
			conn.Close()
			return
		}
		if r.finished.Load() {
			continue
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) == 0 {
				continue
			}
			if !r.speaking.Swap(true) {
				r.publish(events.NewAgentSpeakingChanged(true))
			}
			r.publish(events.NewAgentAudioFrame(msg))
		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				r.fail(&transport.ProtocolError{Message: "undecodable speak event", Err: err})
				continue
			}
			switch parsedMsg.Type {
			case "Flushed":
				r.complete()
			case "Warning":
				logger.Warn("deepgram speak warning", "message", string(msg))
			}
		}
	}
}

// complete ends the request after all audio for the prompt has arrived.
func (r *speechRequest) complete() {
	r.finishOnce.Do(func() {
		r.finished.Store(true)
		r.publish(events.NewAgentTranscriptFinal(r.text))
		if r.speaking.Swap(false) {
			r.publish(events.NewAgentSpeakingChanged(false))
		}
		r.publish(events.NewTurnCompleted())
		r.close()
	})
}

// cancel stops speech in flight. With quiet set no events are published.
func (r *speechRequest) cancel(quiet bool) {
	r.finishOnce.Do(func() {
		r.finished.Store(true)
		_ = r.send(clearMsg)
		r.close()
		if quiet {
			return
		}
		if r.speaking.Swap(false) {
			r.publish(events.NewAgentSpeakingChanged(false))
		}
		r.publish(events.NewTurnCancelled())
	})
}

func (r *speechRequest) fail(err error) {
	r.finishOnce.Do(func() {
		r.finished.Store(true)
		r.close()
		if r.speaking.Swap(false) {
			r.publish(events.NewAgentSpeakingChanged(false))
		}
		r.publish(events.NewTransportFailed(err))
	})
}

func (r *speechRequest) close() {
	if err := r.send(closeMsg); err != nil {
		r.mu.Lock()
		if r.conn != nil {
			r.conn.Close()
		}
		r.mu.Unlock()
	}
}

func (r *speechRequest) send(msg any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return fmt.Errorf("websocket connection closed")
	}
	if err := r.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write to websocket: %w", err)
	}
	return nil
}
