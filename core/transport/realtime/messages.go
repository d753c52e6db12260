package realtime

import (
	"encoding/base64"
	"fmt"
)

type clientEventType string

const (
	clientEventSessionUpdate          clientEventType = "session.update"
	clientEventInputAudioBufferAppend clientEventType = "input_audio_buffer.append"
	clientEventConversationItemCreate clientEventType = "conversation.item.create"
	clientEventResponseCreate         clientEventType = "response.create"
	clientEventResponseCancel         clientEventType = "response.cancel"
)

type serverEventType string

const (
	serverEventError                       serverEventType = "error"
	serverEventSessionCreated              serverEventType = "session.created"
	serverEventSessionUpdated              serverEventType = "session.updated"
	serverEventSpeechStarted               serverEventType = "input_audio_buffer.speech_started"
	serverEventSpeechStopped               serverEventType = "input_audio_buffer.speech_stopped"
	serverEventInputTranscriptionCompleted serverEventType = "conversation.item.input_audio_transcription.completed"
	serverEventInputTranscriptionFailed    serverEventType = "conversation.item.input_audio_transcription.failed"
	serverEventResponseCreated             serverEventType = "response.created"
	serverEventResponseAudioDelta          serverEventType = "response.audio.delta"
	serverEventResponseAudioTranscriptDone serverEventType = "response.audio_transcript.done"
	serverEventResponseDone                serverEventType = "response.done"
)

// errorCodeCancelNotActive is returned for a response.cancel that arrives
// after the response already finished.
const errorCodeCancelNotActive = "response_cancel_not_active"

type sessionUpdateEvent struct {
	Type    clientEventType `json:"type"`
	Session sessionConfig   `json:"session"`
}

type sessionConfig struct {
	Modalities              []string            `json:"modalities"`
	Instructions            string              `json:"instructions"`
	Voice                   string              `json:"voice"`
	InputAudioFormat        string              `json:"input_audio_format"`
	OutputAudioFormat       string              `json:"output_audio_format"`
	InputAudioTranscription transcriptionConfig `json:"input_audio_transcription"`
	TurnDetection           TurnDetection       `json:"turn_detection"`
}

type transcriptionConfig struct {
	Model string `json:"model"`
}

func newSessionUpdate(config Config) sessionUpdateEvent {
	return sessionUpdateEvent{
		Type: clientEventSessionUpdate,
		Session: sessionConfig{
			Modalities:              []string{"audio", "text"},
			Instructions:            config.Instructions,
			Voice:                   config.Voice,
			InputAudioFormat:        config.Encoding.Format.WireName(),
			OutputAudioFormat:       config.Encoding.Format.WireName(),
			InputAudioTranscription: transcriptionConfig{Model: config.TranscriptionModel},
			TurnDetection:           config.TurnDetection,
		},
	}
}

type audioAppendEvent struct {
	Type  clientEventType `json:"type"`
	Audio string          `json:"audio"`
}

func newAudioAppend(chunk []byte) audioAppendEvent {
	return audioAppendEvent{Type: clientEventInputAudioBufferAppend, Audio: base64.StdEncoding.EncodeToString(chunk)}
}

type conversationItemCreateEvent struct {
	Type clientEventType  `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []itemContent `json:"content"`
}

type itemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// newPromptItem asks the agent to say text verbatim on its next response.
func newPromptItem(text string) conversationItemCreateEvent {
	return conversationItemCreateEvent{
		Type: clientEventConversationItemCreate,
		Item: conversationItem{
			Type: "message",
			Role: "system",
			Content: []itemContent{{
				Type: "input_text",
				Text: fmt.Sprintf("Say the following to the user, exactly as written: %q", text),
			}},
		},
	}
}

type bareEvent struct {
	Type clientEventType `json:"type"`
}

type serverEvent struct {
	Type    serverEventType `json:"type"`
	EventID string          `json:"event_id"`
}

type errorEvent struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
		EventID string `json:"event_id"`
	} `json:"error"`
}

type transcriptEvent struct {
	Transcript string `json:"transcript"`
}

type audioDeltaEvent struct {
	Delta string `json:"delta"`
}

type responseDoneEvent struct {
	Response struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"response"`
}
