package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-heartcheck/core/audio"
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/transport"
	"github.com/koscakluka/ema-heartcheck/internal/utils"
)

func dialListen(ctx context.Context, dialer *websocket.Dialer, config Config) (*websocket.Conn, error) {
	encoding, err := convertEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}

	listenURL, err := url.Parse(config.ListenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	queryParams.Set("encoding", encoding.Format)
	queryParams.Set("sample_rate", strconv.Itoa(encoding.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", config.Model)
	queryParams.Set("language", config.Language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", strconv.Itoa(config.UtteranceEndMs))
	queryParams.Set("endpointing", strconv.Itoa(config.EndpointingMs))
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + config.APIKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

func (t *Transport) readListenMessages(conn *websocket.Conn) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if t.closing.Load() {
				return
			}
			t.connected.Store(false)
			conn.Close()

			logger.Warn("deepgram listen connection dropped", "error", err)
			t.bus.Publish(events.NewConnectivityChanged(false))
			t.bus.Publish(events.NewTransportFailed(&transport.ConnectionError{Op: "read", Err: err}))
			return
		}
		if msgType == websocket.BinaryMessage {
			continue
		}

		for _, event := range t.processListenMessage(msg) {
			if t.closing.Load() {
				return
			}
			t.bus.Publish(event)
		}
	}
}

// processListenMessage turns one listen response into transport events.
// Final segments accumulate until speech is final or the utterance ends.
func (t *Transport) processListenMessage(msg []byte) []events.Event {
	var parsedMsg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		return []events.Event{events.NewTransportFailed(&transport.ProtocolError{Message: "undecodable listen event", Err: err})}
	}

	malformed := func(err error) []events.Event {
		return []events.Event{events.NewTransportFailed(&transport.ProtocolError{EventType: parsedMsg.Type, Message: "malformed payload", Err: err})}
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			return malformed(err)
		}
		if !msgResp.IsFinal {
			return nil
		}
		if len(msgResp.Channel.Alternatives) > 0 {
			if transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript); transcript != "" {
				t.accumulatedTranscript += " " + transcript
				t.unendedSegment = true
			}
		}
		if msgResp.SpeechFinal {
			return t.onSpeechEnded()
		}

	case api.TypeUtteranceEndResponse:
		var msgResp api.UtteranceEndResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			return malformed(err)
		}
		if t.unendedSegment {
			return t.onSpeechEnded()
		}

	case api.TypeSpeechStartedResponse:
		var msgResp api.SpeechStartedResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			return malformed(err)
		}
		t.unendedSegment = true
		return []events.Event{events.NewUserSpeechStarted()}
	}
	return nil
}

func (t *Transport) onSpeechEnded() []events.Event {
	t.unendedSegment = false
	fullTranscript := strings.TrimSpace(t.accumulatedTranscript)
	t.accumulatedTranscript = ""

	out := []events.Event{events.NewUserSpeechEnded()}
	if fullTranscript != "" {
		out = append(out, events.NewUserTranscriptFinal(fullTranscript))
	}
	return out
}

func (t *Transport) sendKeepAlive() {
	if err := t.writeListen(func(conn *websocket.Conn) error {
		return conn.WriteJSON(websocketMessage{Type: "KeepAlive"})
	}); err != nil {
		logger.Debug("failed to send keep alive", "error", err)
	}
}

func (t *Transport) sendSilence(chunk []byte) error {
	return t.writeListen(func(conn *websocket.Conn) error {
		return conn.WriteMessage(websocket.BinaryMessage, chunk)
	})
}

// generateSilence keeps the listen socket from timing out while the
// microphone is not streaming: short gaps are filled with silence, longer
// ones fall back to KeepAlive messages.
func (t *Transport) generateSilence(ctx context.Context, encoding audio.EncodingInfo) {
	type silenceGeneratorState string
	const (
		silenceGeneratorStateWaiting   silenceGeneratorState = "waiting"
		silenceGeneratorStateSilence   silenceGeneratorState = "silence"
		silenceGeneratorStateKeepAlive silenceGeneratorState = "keepAlive"
	)

	const tick = 50 * time.Millisecond
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	chunk := encoding.Silence(tick)
	sinceAudio := func() time.Duration { return time.Since(time.Unix(0, t.lastAudio.Load())) }

	var state = silenceGeneratorStateWaiting
	var firstSilenceTime *time.Time
	var lastKeepAliveTime *time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			switch state {
			case silenceGeneratorStateWaiting:
				if sinceAudio() > tick {
					state = silenceGeneratorStateSilence
					firstSilenceTime = utils.Ptr(time.Now())
				}

			case silenceGeneratorStateSilence:
				if sinceAudio() < tick {
					state = silenceGeneratorStateWaiting
					firstSilenceTime = nil
					continue
				}
				if time.Since(*firstSilenceTime) >= time.Second {
					state = silenceGeneratorStateKeepAlive
					lastKeepAliveTime = utils.Ptr(time.Now())
					firstSilenceTime = nil
					continue
				}
				if err := t.sendSilence(chunk); err != nil {
					logger.Debug("failed to send silence", "error", err)
				}

			case silenceGeneratorStateKeepAlive:
				if sinceAudio() < tick {
					state = silenceGeneratorStateWaiting
					continue
				}
				if time.Since(*lastKeepAliveTime) >= 5*time.Second {
					lastKeepAliveTime = utils.Ptr(time.Now())
					t.sendKeepAlive()
				}
			}
		}
	}
}
