package session

import (
	"context"

	"github.com/koscakluka/ema-heartcheck/core/answers"
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/questions"
)

const (
	DefaultMaxAttempts = 3
	defaultEventBuffer = 64
)

// Transport is the realtime speech connection a session talks through.
type Transport interface {
	Connect(ctx context.Context) error
	SendAudioChunk(chunk []byte)
	SendPrompt(text string) error
	InterruptCurrentResponse() error
	Disconnect() error
	Subscribe(buffer int) (<-chan events.Event, func())
}

type AudioInput interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

type AudioOutput interface {
	SendAudio(audio []byte) error
	ClearBuffer()
}

type Permission interface {
	RequestMicrophonePermission(ctx context.Context) bool
}

// PermissionFunc adapts a function to Permission.
type PermissionFunc func(ctx context.Context) bool

func (f PermissionFunc) RequestMicrophonePermission(ctx context.Context) bool { return f(ctx) }

// Interpreter maps a transcript the parsers could not read to an answer
// value. A nil value means the answer was not understood.
type Interpreter interface {
	Interpret(ctx context.Context, q questions.Question, transcript string) (*float64, error)
}

type ControllerOptions struct {
	Script      *questions.Script
	MaxAttempts int
	BargeIn     BargeInPolicy

	AudioInput  AudioInput
	AudioOutput AudioOutput
	Permission  Permission
	Interpreter Interpreter

	onStateChanged func(from, to Phase)
	onQuestion     func(index int, prompt string)
	onCompleted    func(result answers.Answers)
	onError        func(err error)
}

type ControllerOption func(*ControllerOptions)

// WithScript replaces the built-in heart assessment script.
func WithScript(script *questions.Script) ControllerOption {
	return func(o *ControllerOptions) {
		o.Script = script
	}
}

// WithMaxAttempts sets how many unrecognized answers a question gets before
// it is skipped and flagged. Zero never gives up.
func WithMaxAttempts(attempts int) ControllerOption {
	return func(o *ControllerOptions) {
		if attempts >= 0 {
			o.MaxAttempts = attempts
		}
	}
}

func WithBargeInPolicy(policy BargeInPolicy) ControllerOption {
	return func(o *ControllerOptions) {
		if policy.IsValid() {
			o.BargeIn = policy
		}
	}
}

// WithAudioInput streams captured microphone audio to the transport. If the
// input also implements Permission it is asked for microphone access unless
// WithPermission is given.
func WithAudioInput(input AudioInput) ControllerOption {
	return func(o *ControllerOptions) {
		o.AudioInput = input
	}
}

// WithAudioOutput plays agent audio received from the transport.
func WithAudioOutput(output AudioOutput) ControllerOption {
	return func(o *ControllerOptions) {
		o.AudioOutput = output
	}
}

func WithPermission(permission Permission) ControllerOption {
	return func(o *ControllerOptions) {
		o.Permission = permission
	}
}

// WithInterpreter enables a fallback for transcripts the parsers do not
// understand. The interpreted value is still validated.
func WithInterpreter(interpreter Interpreter) ControllerOption {
	return func(o *ControllerOptions) {
		o.Interpreter = interpreter
	}
}

func WithStateChangedCallback(callback func(from, to Phase)) ControllerOption {
	return func(o *ControllerOptions) {
		o.onStateChanged = callback
	}
}

func WithQuestionCallback(callback func(index int, prompt string)) ControllerOption {
	return func(o *ControllerOptions) {
		o.onQuestion = callback
	}
}

func WithCompletedCallback(callback func(result answers.Answers)) ControllerOption {
	return func(o *ControllerOptions) {
		o.onCompleted = callback
	}
}

func WithErrorCallback(callback func(err error)) ControllerOption {
	return func(o *ControllerOptions) {
		o.onError = callback
	}
}

func (o ControllerOptions) hasCallbacks() bool {
	return o.onStateChanged != nil || o.onQuestion != nil || o.onCompleted != nil || o.onError != nil
}
