package session

import (
	"strings"
	"time"

	"github.com/koscakluka/ema-heartcheck/core/answers"
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/parse"
	"github.com/koscakluka/ema-heartcheck/core/questions"
)

// Rules are the fixed parameters of a session's state machine.
type Rules struct {
	Script *questions.Script
	// MaxAttempts is the number of rejected answers after which a question
	// is skipped and flagged. Zero retries forever.
	MaxAttempts int
	BargeIn     BargeInPolicy
	// Interpret asks for a fallback interpretation when the deterministic
	// parsers do not recognise a transcript.
	Interpret bool
	// Now stamps the finalized answers. Without it they carry the zero time.
	Now func() time.Time
}

func (r Rules) now() time.Time {
	if r.Now == nil {
		return time.Time{}
	}
	return r.Now()
}

// State is a snapshot of a session. Values are never shared between
// snapshots so older ones stay valid after further transitions.
type State struct {
	Phase       Phase
	Index       int
	Attempts    int
	Transcript  string
	PendingSkip bool
	Record      answers.Record
	// Deferred holds a transcript that arrived while the agent was speaking.
	Deferred *string
	Stopped  bool
	Err      error
	Result   *answers.Answers
}

func NewState(script *questions.Script) State {
	return State{Phase: PhaseIdle, Record: answers.New(script.Fields())}
}

// Question returns the question the session is currently on.
func (s State) Question(script *questions.Script) (questions.Question, bool) {
	return script.QuestionAt(s.Index)
}

// Reduce computes the state following input together with the effects
// required to get there. It performs no I/O.
func Reduce(rules Rules, state State, input Input) (State, []Effect) {
	r := &reduction{rules: rules, state: state}

	if state.Phase.Terminal() {
		switch input.(type) {
		case StartRequested, SkipRequested, SkipConfirmed, SkipCancelled:
			r.refuse(ErrTerminal)
		}
		return r.state, r.effects
	}

	switch input := input.(type) {
	case StartRequested:
		r.start()
	case PermissionResolved:
		if r.state.Phase == PhaseConnecting && !input.Granted {
			r.fail(&PermissionError{})
		}
	case ConnectFailed:
		if r.state.Phase == PhaseConnecting {
			r.fail(asConnectionError("connect", input.Err))
		}
	case Connected:
		if r.state.Phase == PhaseConnecting {
			r.transition(PhaseReady)
			r.effects = append(r.effects, StartCapture{})
		}
	case CaptureStarted:
		if r.state.Phase == PhaseReady {
			r.transition(PhaseListening)
			r.ask()
		}
	case CaptureFailed:
		if r.state.Phase == PhaseReady {
			r.fail(input.Err)
		}
	case Disconnected:
		if r.state.Phase != PhaseIdle {
			r.fail(&ConnectionError{Op: "receive", Err: errConnectionLost})
		}
	case TransportLost:
		if r.state.Phase != PhaseIdle {
			err := input.Err
			if err == nil {
				err = &ConnectionError{Op: "receive", Err: errConnectionLost}
			}
			r.fail(err)
		}
	case TranscriptReceived:
		r.transcript(input.Text)
	case Interpreted:
		if r.state.Phase == PhaseProcessing && r.state.Index == input.Index && r.state.Transcript == input.Transcript {
			r.evaluate(r.current(), input.Value)
		}
	case TurnEnded:
		r.turnEnded(input.Cancelled)
	case SkipRequested:
		r.requestSkip()
	case SkipConfirmed:
		r.confirmSkip()
	case SkipCancelled:
		if !r.state.PendingSkip {
			r.refuse(ErrNoPendingSkip)
			break
		}
		r.state.PendingSkip = false
	case StopRequested:
		r.stop()
	}

	return r.state, r.effects
}

type reduction struct {
	rules   Rules
	state   State
	effects []Effect
}

func (r *reduction) emit(event events.Event) {
	r.effects = append(r.effects, Emit{Event: event})
}

func (r *reduction) refuse(err error) {
	r.effects = append(r.effects, Refused{Err: err})
}

func (r *reduction) transition(to Phase) {
	from := r.state.Phase
	if from == to {
		return
	}
	r.state.Phase = to
	r.emit(events.NewSessionStateChanged(string(from), string(to)))
}

func (r *reduction) current() questions.Question {
	q, _ := r.rules.Script.QuestionAt(r.state.Index)
	return q
}

func (r *reduction) start() {
	switch {
	case r.state.Stopped:
		r.refuse(ErrStopped)
	case r.state.Phase != PhaseIdle:
		r.refuse(ErrNotIdle)
	default:
		r.transition(PhaseConnecting)
	}
}

func (r *reduction) fail(err error) {
	r.state.Err = err
	r.state.Deferred = nil
	r.state.PendingSkip = false
	r.transition(PhaseError)
	r.effects = append(r.effects, Release{})
	r.emit(events.NewSessionFailed(err))
}

func (r *reduction) stop() {
	if r.state.Stopped {
		return
	}
	r.transition(PhaseIdle)
	r.state = State{
		Phase:  PhaseIdle,
		Record: answers.New(r.rules.Script.Fields()),
		// Index and attempts are kept for inspection only.
		Index:    r.state.Index,
		Attempts: r.state.Attempts,
		Stopped:  true,
	}
	r.effects = append(r.effects, Release{})
}

func (r *reduction) ask() {
	q := r.current()
	r.effects = append(r.effects, SendPrompt{Text: q.Prompt})
	r.emit(events.NewQuestionAsked(r.state.Index, q.Prompt, false))
	r.transition(PhaseSpeaking)
}

func (r *reduction) transcript(text string) {
	switch r.state.Phase {
	case PhaseListening:
		r.process(text)
	case PhaseSpeaking:
		if r.rules.BargeIn == BargeInDefer {
			r.state.Deferred = &text
		}
	}
}

func (r *reduction) process(text string) {
	r.state.Transcript = text
	r.transition(PhaseProcessing)

	q := r.current()
	if q.IsConversational() {
		if strings.TrimSpace(text) == "" {
			r.reject(q, parse.Verdict{Reason: parse.ReasonUnrecognized})
			return
		}
		r.advance()
		return
	}

	value := parse.Answer(q, text)
	if value == nil && r.rules.Interpret {
		r.effects = append(r.effects, Interpret{Index: r.state.Index, Question: q, Transcript: text})
		return
	}
	r.evaluate(q, value)
}

func (r *reduction) evaluate(q questions.Question, value *float64) {
	verdict := parse.Validate(q, value)
	if !verdict.Valid {
		r.reject(q, verdict)
		return
	}

	record, err := r.state.Record.With(q.TargetField, *value)
	if err != nil {
		r.fail(err)
		return
	}
	r.state.Record = record
	r.emit(events.NewAnswerRecorded(r.state.Index, q.TargetField, *value, r.state.Transcript))
	r.advance()
}

func (r *reduction) reject(q questions.Question, verdict parse.Verdict) {
	r.state.Attempts++
	r.emit(events.NewAnswerRejected(r.state.Index, r.state.Transcript, string(verdict.Reason), r.state.Attempts))

	if r.rules.MaxAttempts > 0 && r.state.Attempts >= r.rules.MaxAttempts {
		if !q.IsConversational() {
			record, err := r.state.Record.Flag(q.TargetField)
			if err != nil {
				r.fail(err)
				return
			}
			r.state.Record = record
		}
		r.emit(events.NewAnswerSkipped(r.state.Index, q.TargetField, true))
		r.advance()
		return
	}

	correction := parse.Correction(q, verdict)
	r.effects = append(r.effects, SendPrompt{Text: correction})
	r.emit(events.NewQuestionAsked(r.state.Index, correction, true))
	r.transition(PhaseSpeaking)
}

func (r *reduction) advance() {
	r.state.Index++
	r.state.Attempts = 0
	r.state.PendingSkip = false
	r.state.Deferred = nil

	if r.state.Index >= r.rules.Script.Len() {
		r.complete()
		return
	}
	r.ask()
}

func (r *reduction) complete() {
	result := r.state.Record.Finalize(r.rules.now())
	r.state.Result = &result
	r.state.Deferred = nil
	r.transition(PhaseCompleted)
	r.effects = append(r.effects, Release{})
	r.emit(events.NewSessionCompleted(result))
}

func (r *reduction) turnEnded(cancelled bool) {
	// A cancelled turn is always followed by the prompt that replaced it.
	if r.state.Phase != PhaseSpeaking || cancelled {
		return
	}

	if r.current().Category == questions.CategoryCompletion {
		r.complete()
		return
	}

	r.transition(PhaseListening)
	if deferred := r.state.Deferred; deferred != nil {
		r.state.Deferred = nil
		r.process(*deferred)
	}
}

func (r *reduction) requestSkip() {
	if r.state.Phase != PhaseListening && r.state.Phase != PhaseSpeaking {
		r.refuse(ErrSkipUnavailable)
		return
	}
	if r.current().Category == questions.CategoryCompletion {
		r.refuse(ErrSkipUnavailable)
		return
	}
	r.state.PendingSkip = true
	r.emit(events.NewSkipConfirmationRequested(r.state.Index))
}

func (r *reduction) confirmSkip() {
	if !r.state.PendingSkip {
		r.refuse(ErrNoPendingSkip)
		return
	}
	if r.state.Phase != PhaseListening && r.state.Phase != PhaseSpeaking {
		r.refuse(ErrSkipUnavailable)
		return
	}

	if r.state.Phase == PhaseSpeaking {
		r.effects = append(r.effects, Interrupt{})
	}
	q := r.current()
	if !q.IsConversational() {
		record, err := r.state.Record.Skip(q.TargetField)
		if err != nil {
			r.fail(err)
			return
		}
		r.state.Record = record
	}
	r.emit(events.NewAnswerSkipped(r.state.Index, q.TargetField, false))
	r.advance()
}
