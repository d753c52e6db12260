// Package session runs a spoken questionnaire over a realtime speech
// transport and collects the answers into a record.
//
// Every input, whether a user action, a transport event or the result of
// an interpretation, is fed through Reduce on a single goroutine. The
// Controller only performs the effects Reduce asks for.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-heartcheck/core/answers"
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/questions"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Controller struct {
	id        string
	transport Transport
	options   ControllerOptions
	rules     Rules
	metrics   metrics

	mu          sync.RWMutex
	state       State
	unsubscribe func()

	processMu sync.Mutex

	bus      *events.Bus
	lifetime context.Context
	cancel   context.CancelFunc

	queue     chan queueItem
	closeCh   chan struct{}
	done      chan struct{}
	startOnce sync.Once
	endOnce   sync.Once
	started   atomic.Bool

	sendMu      sync.RWMutex
	released    atomic.Bool
	releaseOnce sync.Once
}

// New creates a session controller. Without WithScript it runs the heart
// assessment script.
func New(transport Transport, opts ...ControllerOption) (*Controller, error) {
	if transport == nil {
		return nil, errors.New("session requires a transport")
	}

	options := ControllerOptions{
		MaxAttempts: DefaultMaxAttempts,
		BargeIn:     BargeInDefer,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Script == nil {
		options.Script = questions.HeartAssessment()
	}
	if options.Permission == nil {
		if permission, ok := options.AudioInput.(Permission); ok {
			options.Permission = permission
		}
	}

	lifetime, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:        uuid.NewString(),
		transport: transport,
		options:   options,
		rules: Rules{
			Script:      options.Script,
			MaxAttempts: options.MaxAttempts,
			BargeIn:     options.BargeIn,
			Interpret:   options.Interpreter != nil,
			Now:         time.Now,
		},
		metrics:  newMetrics(),
		state:    NewState(options.Script),
		bus:      events.NewBus(),
		lifetime: lifetime,
		cancel:   cancel,
		queue:    make(chan queueItem, sessionQueueCapacity),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}

	if options.hasCallbacks() {
		stream, _ := c.bus.Subscribe(defaultEventBuffer)
		go runCallbacks(stream, newCallbackEventEmitter(options))
	}

	return c, nil
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) Script() *questions.Script { return c.rules.Script }

// State returns a snapshot of the session.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Phase() Phase { return c.State().Phase }

// Answers returns the finalized record once the session has completed.
func (c *Controller) Answers() (answers.Answers, bool) {
	state := c.State()
	if state.Result == nil {
		return answers.Answers{}, false
	}
	return *state.Result, true
}

// Subscribe streams session and transport events. The channel is closed when
// the session ends. Subscribers must keep reading or unsubscribe.
func (c *Controller) Subscribe(buffer int) (<-chan events.Event, func()) {
	return c.bus.Subscribe(buffer)
}

// Done is closed once the session has completed, failed or been stopped.
func (c *Controller) Done() <-chan struct{} { return c.closeCh }

// Start asks for microphone permission, connects the transport and begins
// the questionnaire. It returns once the first prompt has been sent or the
// session has failed.
func (c *Controller) Start(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "start session", trace.WithAttributes(attribute.String("session.id", c.id)))
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "session failed to start")
		}
	}()

	c.startLoop()
	if err := c.dispatch(StartRequested{}); err != nil {
		return err
	}

	stream, unsubscribe := c.transport.Subscribe(defaultEventBuffer)
	c.mu.Lock()
	if c.released.Load() {
		c.mu.Unlock()
		unsubscribe()
		return ErrStopped
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
	go c.forward(stream)

	granted := true
	if c.options.Permission != nil {
		granted = c.options.Permission.RequestMicrophonePermission(ctx)
	}
	if err := c.dispatch(PermissionResolved{Granted: granted}); err != nil {
		return err
	}
	if err := c.startErr(); err != nil {
		return err
	}

	connectCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stopAfter := context.AfterFunc(c.lifetime, cancel)
	defer stopAfter()

	if connectErr := c.transport.Connect(connectCtx); connectErr != nil {
		if err := c.dispatch(ConnectFailed{Err: connectErr}); err != nil {
			return err
		}
		if err := c.startErr(); err != nil {
			return err
		}
		return asConnectionError("connect", connectErr)
	}

	if err := c.dispatch(Connected{}); err != nil {
		return err
	}
	return c.startErr()
}

func (c *Controller) startErr() error {
	state := c.State()
	switch {
	case state.Phase == PhaseError:
		return state.Err
	case state.Stopped || c.isReleased():
		return ErrStopped
	}
	return nil
}

// Skip asks to skip the current question. The skip only happens after
// ConfirmSkip.
func (c *Controller) Skip() error { return c.dispatch(SkipRequested{}) }

func (c *Controller) ConfirmSkip() error { return c.dispatch(SkipConfirmed{}) }

func (c *Controller) CancelSkip() error { return c.dispatch(SkipCancelled{}) }

// Stop abandons the session. Audio capture and the transport are released
// before Stop returns and the partial record is discarded. Stopping a
// finished session does nothing.
func (c *Controller) Stop() {
	if c.finished() {
		return
	}

	c.release()
	if err := c.dispatch(StopRequested{}); err != nil {
		logger.Debug("stop after session end", "session_id", c.id, "error", err)
	}
	c.end()
}

func (c *Controller) isReleased() bool { return c.released.Load() }

// release stops capture and disconnects the transport exactly once. Audio
// chunks in flight finish before the transport is disconnected and no chunk
// is sent afterwards.
func (c *Controller) release() {
	c.releaseOnce.Do(func() {
		c.mu.Lock()
		c.released.Store(true)
		unsubscribe := c.unsubscribe
		c.unsubscribe = nil
		c.mu.Unlock()

		// Waits for chunks already being sent.
		c.sendMu.Lock()
		c.sendMu.Unlock() //nolint:staticcheck

		c.cancel()
		if unsubscribe != nil {
			unsubscribe()
		}
		if c.options.AudioInput != nil {
			if err := c.options.AudioInput.StopCapture(); err != nil {
				logger.Warn("failed to stop audio capture", "session_id", c.id, "error", err)
			}
		}
		if c.options.AudioOutput != nil {
			c.options.AudioOutput.ClearBuffer()
		}
		if err := c.transport.Disconnect(); err != nil {
			logger.Warn("failed to disconnect transport", "session_id", c.id, "error", err)
		}
	})
}

func (c *Controller) sendAudio(chunk []byte) {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.released.Load() {
		return
	}
	c.transport.SendAudioChunk(chunk)
}

func (c *Controller) perform(effect Effect) (Input, error) {
	switch effect := effect.(type) {
	case Refused:
		return nil, effect.Err

	case Emit:
		c.observe(effect.Event)
		c.bus.Publish(effect.Event)

	case Release:
		c.release()

	case StartCapture:
		if c.isReleased() {
			return nil, nil
		}
		if c.options.AudioInput == nil {
			return CaptureStarted{}, nil
		}
		if err := c.options.AudioInput.StartCapture(c.lifetime, c.sendAudio); err != nil {
			return CaptureFailed{Err: fmt.Errorf("failed to start audio capture: %w", err)}, nil
		}
		return CaptureStarted{}, nil

	case SendPrompt:
		if c.isReleased() {
			return nil, nil
		}
		if err := c.transport.SendPrompt(effect.Text); err != nil {
			return TransportLost{Err: asConnectionError("send prompt", err)}, nil
		}

	case Interrupt:
		if c.isReleased() {
			return nil, nil
		}
		if err := c.transport.InterruptCurrentResponse(); err != nil {
			logger.Warn("failed to interrupt response", "session_id", c.id, "error", err)
		}
		if c.options.AudioOutput != nil {
			c.options.AudioOutput.ClearBuffer()
		}

	case Interpret:
		if c.isReleased() || c.options.Interpreter == nil {
			return nil, nil
		}
		go c.interpret(effect)
	}
	return nil, nil
}

func (c *Controller) interpret(request Interpret) {
	ctx, span := tracer.Start(c.lifetime, "interpret answer", trace.WithAttributes(
		attribute.String("session.id", c.id),
		attribute.Int("question.index", request.Index),
	))
	defer span.End()

	value, err := c.options.Interpreter.Interpret(ctx, request.Question, request.Transcript)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "interpretation failed")
		logger.Warn("failed to interpret answer", "session_id", c.id, "index", request.Index, "error", err)
		value = nil
	}
	c.enqueue(Interpreted{Index: request.Index, Transcript: request.Transcript, Value: value})
}

// forward turns transport events into state machine inputs and republishes
// them to session subscribers. Agent audio goes straight to the output.
func (c *Controller) forward(stream <-chan events.Event) {
	for event := range stream {
		switch event := event.(type) {
		case events.AgentAudioFrame:
			if c.options.AudioOutput != nil && !c.isReleased() {
				if err := c.options.AudioOutput.SendAudio(event.Audio); err != nil {
					logger.Debug("failed to play agent audio", "session_id", c.id, "error", err)
				}
			}
			continue
		case events.UserTranscriptFinal:
			c.enqueue(TranscriptReceived{Text: event.Transcript})
		case events.TurnCompleted:
			c.enqueue(TurnEnded{Cancelled: event.Cancelled})
		case events.ConnectivityChanged:
			if event.Connected {
				c.enqueue(Connected{})
			} else {
				c.enqueue(Disconnected{})
			}
		case events.TransportFailed:
			c.enqueue(TransportLost{Err: event.Err})
		}
		c.bus.Publish(event)
	}
}
