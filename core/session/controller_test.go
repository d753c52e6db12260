package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/koscakluka/ema-heartcheck/core/answers"
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/questions"
	"github.com/koscakluka/ema-heartcheck/internal/utils"
)

type testTransport struct {
	bus        *events.Bus
	connectErr error

	connectCalls          atomic.Int32
	disconnectCalls       atomic.Int32
	interruptCalls        atomic.Int32
	audioChunks           atomic.Int32
	chunksAfterDisconnect atomic.Int32
	disconnected          atomic.Bool

	mu      sync.Mutex
	prompts []string
}

func newTestTransport() *testTransport {
	return &testTransport{bus: events.NewBus()}
}

func (tr *testTransport) Connect(context.Context) error {
	tr.connectCalls.Add(1)
	if tr.connectErr != nil {
		return tr.connectErr
	}
	tr.bus.Publish(events.NewConnectivityChanged(true))
	return nil
}

func (tr *testTransport) SendAudioChunk([]byte) {
	if tr.disconnected.Load() {
		tr.chunksAfterDisconnect.Add(1)
	}
	tr.audioChunks.Add(1)
}

func (tr *testTransport) SendPrompt(text string) error {
	if tr.disconnected.Load() {
		return errors.New("not connected")
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.prompts = append(tr.prompts, text)
	return nil
}

func (tr *testTransport) InterruptCurrentResponse() error {
	tr.interruptCalls.Add(1)
	return nil
}

func (tr *testTransport) Disconnect() error {
	tr.disconnectCalls.Add(1)
	tr.disconnected.Store(true)
	tr.bus.Close()
	return nil
}

func (tr *testTransport) Subscribe(buffer int) (<-chan events.Event, func()) {
	return tr.bus.Subscribe(buffer)
}

func (tr *testTransport) emit(event events.Event) {
	tr.bus.Publish(event)
}

func (tr *testTransport) sentPrompts() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.prompts...)
}

// reply ends the agent's turn and sends the user's answer.
func (tr *testTransport) reply(text string) {
	tr.emit(events.NewTurnCompleted())
	tr.emit(events.NewUserTranscriptFinal(text))
}

type testAudioInput struct {
	startCalls atomic.Int32
	stopCalls  atomic.Int32

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (in *testAudioInput) StartCapture(ctx context.Context, onAudio func([]byte)) error {
	in.startCalls.Add(1)
	in.mu.Lock()
	defer in.mu.Unlock()

	in.stop = make(chan struct{})
	in.done = make(chan struct{})
	go func(stop, done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				onAudio([]byte{0, 1, 2, 3})
			}
		}
	}(in.stop, in.done)
	return nil
}

func (in *testAudioInput) StopCapture() error {
	in.stopCalls.Add(1)
	in.mu.Lock()
	stop, done := in.stop, in.done
	in.stop = nil
	in.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

type testAudioOutput struct {
	frames atomic.Int32
	clears atomic.Int32
}

func (out *testAudioOutput) SendAudio([]byte) error {
	out.frames.Add(1)
	return nil
}

func (out *testAudioOutput) ClearBuffer() { out.clears.Add(1) }

type testInterpreter struct {
	value *float64
	block bool
	calls atomic.Int32
}

func (in *testInterpreter) Interpret(ctx context.Context, _ questions.Question, _ string) (*float64, error) {
	in.calls.Add(1)
	if in.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return in.value, nil
}

func waitFor(t *testing.T, description string, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", description)
}

func waitForPrompts(t *testing.T, tr *testTransport, count int) {
	t.Helper()
	waitFor(t, "prompt to be sent", func() bool { return len(tr.sentPrompts()) >= count })
}

func startController(t *testing.T, tr *testTransport, opts ...ControllerOption) *Controller {
	t.Helper()

	opts = append([]ControllerOption{WithScript(testScript(t))}, opts...)
	controller, err := New(tr, opts...)
	if err != nil {
		t.Fatalf("expected controller, got %v", err)
	}
	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("expected session to start, got %v", err)
	}
	t.Cleanup(controller.Stop)
	waitForPrompts(t, tr, 1)
	return controller
}

func TestNewRequiresTransport(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error without transport")
	}
}

func TestNewDefaultsToHeartAssessment(t *testing.T) {
	controller, err := New(newTestTransport())
	if err != nil {
		t.Fatalf("expected controller, got %v", err)
	}
	if got, want := controller.Script().Len(), questions.HeartAssessment().Len(); got != want {
		t.Fatalf("expected %d questions, got %d", want, got)
	}
	if controller.Phase() != PhaseIdle || controller.ID() == "" {
		t.Fatalf("expected idle controller with an id")
	}
}

func TestControllerCompletesSession(t *testing.T) {
	tr := newTestTransport()
	completed := make(chan answers.Answers, 1)
	var phases []Phase
	var phasesMu sync.Mutex

	controller := startController(t, tr,
		WithCompletedCallback(func(result answers.Answers) { completed <- result }),
		WithStateChangedCallback(func(_, to Phase) {
			phasesMu.Lock()
			defer phasesMu.Unlock()
			phases = append(phases, to)
		}),
	)

	for i, reply := range []string{"ready", "yes", "45", "male"} {
		tr.reply(reply)
		waitForPrompts(t, tr, i+2)
	}
	tr.emit(events.NewTurnCompleted())

	select {
	case result := <-completed:
		if result.Value("chestPain") != 1 || result.Value("age") != 45 || result.Value("sex") != 1 {
			t.Fatalf("expected {chestPain:1 age:45 sex:1}, got %v", result.Values)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for completion")
	}

	<-controller.Done()
	if controller.Phase() != PhaseCompleted {
		t.Fatalf("expected completed phase, got %s", controller.Phase())
	}
	if _, ok := controller.Answers(); !ok {
		t.Fatalf("expected answers after completion")
	}
	if got := tr.disconnectCalls.Load(); got != 1 {
		t.Fatalf("expected one disconnect, got %d", got)
	}

	want := []string{"Are you ready?", "Do you have chest pain?", "How old are you?", "Male or female?", "Thank you, we are done."}
	if got := tr.sentPrompts(); len(got) != len(want) {
		t.Fatalf("expected prompts %v, got %v", want, got)
	}

	waitFor(t, "completed callback state", func() bool {
		phasesMu.Lock()
		defer phasesMu.Unlock()
		return len(phases) > 0 && phases[len(phases)-1] == PhaseCompleted
	})
}

func TestControllerIgnoresEventsAfterCompletion(t *testing.T) {
	tr := newTestTransport()
	controller := startController(t, tr)

	for i, reply := range []string{"ready", "no", "30", "female"} {
		tr.reply(reply)
		waitForPrompts(t, tr, i+2)
	}
	tr.emit(events.NewTurnCompleted())
	<-controller.Done()

	result, _ := controller.Answers()
	tr.reply("yes")
	if err := controller.Skip(); !errors.Is(err, ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}
	controller.Stop()

	if got := len(tr.sentPrompts()); got != 5 {
		t.Fatalf("expected no prompts after completion, got %d", got)
	}
	if after, _ := controller.Answers(); after.Value("age") != result.Value("age") || controller.Phase() != PhaseCompleted {
		t.Fatalf("expected completed answers to stay unchanged")
	}
	if got := tr.disconnectCalls.Load(); got != 1 {
		t.Fatalf("expected one disconnect, got %d", got)
	}
}

func TestControllerStopReleasesResources(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(t *testing.T, tr *testTransport, controller *Controller)
		phase Phase
	}{
		{
			name:  "speaking",
			setup: func(t *testing.T, tr *testTransport, controller *Controller) {},
			phase: PhaseSpeaking,
		},
		{
			name: "listening",
			setup: func(t *testing.T, tr *testTransport, controller *Controller) {
				tr.emit(events.NewTurnCompleted())
			},
			phase: PhaseListening,
		},
		{
			name: "processing",
			setup: func(t *testing.T, tr *testTransport, controller *Controller) {
				tr.reply("ready")
				waitForPrompts(t, tr, 2)
				tr.reply("asdf")
			},
			phase: PhaseProcessing,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTestTransport()
			input := &testAudioInput{}
			interpreter := &testInterpreter{block: true}
			controller := startController(t, tr, WithAudioInput(input), WithInterpreter(interpreter))

			waitFor(t, "audio to stream", func() bool { return tr.audioChunks.Load() > 0 })
			tc.setup(t, tr, controller)
			waitFor(t, string(tc.phase)+" phase", func() bool { return controller.Phase() == tc.phase })

			controller.Stop()

			if got := tr.disconnectCalls.Load(); got != 1 {
				t.Fatalf("expected one disconnect, got %d", got)
			}
			if controller.Phase() != PhaseIdle {
				t.Fatalf("expected idle after stop, got %s", controller.Phase())
			}
			if input.stopCalls.Load() != 1 {
				t.Fatalf("expected capture to be stopped once, got %d", input.stopCalls.Load())
			}

			time.Sleep(20 * time.Millisecond)
			controller.Stop()
			if got := tr.chunksAfterDisconnect.Load(); got != 0 {
				t.Fatalf("expected no audio after disconnect, got %d chunks", got)
			}
			if got := tr.disconnectCalls.Load(); got != 1 {
				t.Fatalf("expected disconnect to stay at one, got %d", got)
			}
			if err := controller.Start(context.Background()); !errors.Is(err, ErrStopped) {
				t.Fatalf("expected ErrStopped on restart, got %v", err)
			}
			select {
			case <-controller.Done():
			default:
				t.Fatalf("expected stopped session to be done")
			}
		})
	}
}

func TestControllerStopBeforeStart(t *testing.T) {
	tr := newTestTransport()
	controller, err := New(tr, WithScript(testScript(t)))
	if err != nil {
		t.Fatalf("expected controller, got %v", err)
	}

	controller.Stop()
	if err := controller.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if tr.connectCalls.Load() != 0 {
		t.Fatalf("expected no connect after stop")
	}
}

func TestControllerStartTwice(t *testing.T) {
	tr := newTestTransport()
	controller := startController(t, tr)

	if err := controller.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Fatalf("expected ErrNotIdle, got %v", err)
	}
	if tr.connectCalls.Load() != 1 {
		t.Fatalf("expected a single connect, got %d", tr.connectCalls.Load())
	}
}

func TestControllerPermissionDenied(t *testing.T) {
	tr := newTestTransport()
	failures := make(chan error, 1)
	controller, err := New(tr,
		WithScript(testScript(t)),
		WithPermission(PermissionFunc(func(context.Context) bool { return false })),
		WithErrorCallback(func(err error) { failures <- err }),
	)
	if err != nil {
		t.Fatalf("expected controller, got %v", err)
	}

	err = controller.Start(context.Background())
	var permissionErr *PermissionError
	if !errors.As(err, &permissionErr) {
		t.Fatalf("expected permission error, got %v", err)
	}
	if controller.Phase() != PhaseError {
		t.Fatalf("expected error phase, got %s", controller.Phase())
	}
	if tr.connectCalls.Load() != 0 {
		t.Fatalf("expected no connect without permission")
	}

	select {
	case got := <-failures:
		if !errors.As(got, &permissionErr) {
			t.Fatalf("expected permission error in callback, got %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for error callback")
	}
}

func TestControllerConnectFailure(t *testing.T) {
	tr := newTestTransport()
	tr.connectErr = &ConnectionError{Op: "dial", Err: errors.New("connection refused")}
	controller, err := New(tr, WithScript(testScript(t)))
	if err != nil {
		t.Fatalf("expected controller, got %v", err)
	}

	err = controller.Start(context.Background())
	var connErr *ConnectionError
	if !errors.As(err, &connErr) || connErr.Op != "dial" {
		t.Fatalf("expected dial connection error, got %v", err)
	}
	if controller.Phase() != PhaseError {
		t.Fatalf("expected error phase, got %s", controller.Phase())
	}
	if got := tr.disconnectCalls.Load(); got != 1 {
		t.Fatalf("expected resources released once, got %d", got)
	}
}

func TestControllerTransportFailureEndsSession(t *testing.T) {
	tr := newTestTransport()
	controller := startController(t, tr)
	stream, unsubscribe := controller.Subscribe(16)
	defer unsubscribe()

	protocolErr := &ProtocolError{EventType: "error", Code: "server_error", Message: "internal"}
	tr.emit(events.NewTransportFailed(protocolErr))

	for event := range stream {
		if failed, ok := event.(events.SessionFailed); ok {
			if !errors.Is(failed.Err, protocolErr) {
				t.Fatalf("expected protocol error, got %v", failed.Err)
			}
			break
		}
	}

	<-controller.Done()
	if controller.Phase() != PhaseError {
		t.Fatalf("expected error phase, got %s", controller.Phase())
	}
	if got := tr.disconnectCalls.Load(); got != 1 {
		t.Fatalf("expected one disconnect, got %d", got)
	}
}

func TestControllerSkipWithConfirmation(t *testing.T) {
	tr := newTestTransport()
	controller := startController(t, tr)

	tr.reply("ready")
	waitForPrompts(t, tr, 2)

	if err := controller.CancelSkip(); !errors.Is(err, ErrNoPendingSkip) {
		t.Fatalf("expected ErrNoPendingSkip, got %v", err)
	}
	if err := controller.Skip(); err != nil {
		t.Fatalf("expected skip request to be accepted, got %v", err)
	}
	if state := controller.State(); !state.PendingSkip || state.Index != chestPainIndex {
		t.Fatalf("expected pending skip on chest pain, got %+v", state)
	}
	if err := controller.ConfirmSkip(); err != nil {
		t.Fatalf("expected skip to be confirmed, got %v", err)
	}

	if state := controller.State(); state.Index != ageIndex {
		t.Fatalf("expected to move to age, got %d", state.Index)
	}
	if got := tr.interruptCalls.Load(); got != 1 {
		t.Fatalf("expected the chest pain prompt to be interrupted, got %d", got)
	}
	if prompts := tr.sentPrompts(); prompts[len(prompts)-1] != "How old are you?" {
		t.Fatalf("expected age prompt, got %v", prompts)
	}
}

func TestControllerInterpreterFallback(t *testing.T) {
	tr := newTestTransport()
	interpreter := &testInterpreter{value: utils.Ptr(52.0)}
	controller := startController(t, tr, WithInterpreter(interpreter))

	for i, reply := range []string{"ready", "no"} {
		tr.reply(reply)
		waitForPrompts(t, tr, i+2)
	}
	tr.reply("old enough to know better")
	waitForPrompts(t, tr, 4)

	state := controller.State()
	if v, _ := state.Record.Value("age"); state.Index != sexIndex || v != 52 {
		t.Fatalf("expected interpreted age 52, got %v at %d", v, state.Index)
	}
	if interpreter.calls.Load() != 1 {
		t.Fatalf("expected one interpretation, got %d", interpreter.calls.Load())
	}
}

func TestControllerPlaysAgentAudio(t *testing.T) {
	tr := newTestTransport()
	output := &testAudioOutput{}
	startController(t, tr, WithAudioOutput(output))

	tr.emit(events.NewAgentAudioFrame([]byte{1, 2}))
	tr.emit(events.NewAgentAudioFrame([]byte{3, 4}))

	waitFor(t, "agent audio", func() bool { return output.frames.Load() == 2 })
}

func TestControllerQuestionCallback(t *testing.T) {
	tr := newTestTransport()
	asked := make(chan int, 8)
	startController(t, tr, WithQuestionCallback(func(index int, _ string) { asked <- index }))

	tr.reply("ready")
	for _, want := range []int{0, 1} {
		select {
		case got := <-asked:
			if got != want {
				t.Fatalf("expected question %d, got %d", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for question %d", want)
		}
	}
}
