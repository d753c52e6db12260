package events

import "github.com/koscakluka/ema-heartcheck/core/answers"

const (
	KindSessionStateChanged       Kind = "session.state_changed"
	KindQuestionAsked             Kind = "session.question_asked"
	KindAnswerRecorded            Kind = "session.answer_recorded"
	KindAnswerRejected            Kind = "session.answer_rejected"
	KindAnswerSkipped             Kind = "session.answer_skipped"
	KindSkipConfirmationRequested Kind = "session.skip_confirmation_requested"
	KindSessionCompleted          Kind = "session.completed"
	KindSessionFailed             Kind = "session.failed"
)

type SessionStateChanged struct {
	Base
	From string
	To   string
}

func NewSessionStateChanged(from, to string) SessionStateChanged {
	return SessionStateChanged{Base: NewBase(KindSessionStateChanged), From: from, To: to}
}

// QuestionAsked is published every time a prompt is sent. Retry is set when
// the prompt is a correction for the same question.
type QuestionAsked struct {
	Base
	Index  int
	Prompt string
	Retry  bool
}

func NewQuestionAsked(index int, prompt string, retry bool) QuestionAsked {
	return QuestionAsked{Base: NewBase(KindQuestionAsked), Index: index, Prompt: prompt, Retry: retry}
}

type AnswerRecorded struct {
	Base
	Index      int
	Field      string
	Value      float64
	Transcript string
}

func NewAnswerRecorded(index int, field string, value float64, transcript string) AnswerRecorded {
	return AnswerRecorded{Base: NewBase(KindAnswerRecorded), Index: index, Field: field, Value: value, Transcript: transcript}
}

type AnswerRejected struct {
	Base
	Index      int
	Transcript string
	Reason     string
	Attempt    int
}

func NewAnswerRejected(index int, transcript, reason string, attempt int) AnswerRejected {
	return AnswerRejected{Base: NewBase(KindAnswerRejected), Index: index, Transcript: transcript, Reason: reason, Attempt: attempt}
}

// AnswerSkipped marks a field left at its default. Flagged is set when the
// skip happened because the attempt limit was reached.
type AnswerSkipped struct {
	Base
	Index   int
	Field   string
	Flagged bool
}

func NewAnswerSkipped(index int, field string, flagged bool) AnswerSkipped {
	return AnswerSkipped{Base: NewBase(KindAnswerSkipped), Index: index, Field: field, Flagged: flagged}
}

type SkipConfirmationRequested struct {
	Base
	Index int
}

func NewSkipConfirmationRequested(index int) SkipConfirmationRequested {
	return SkipConfirmationRequested{Base: NewBase(KindSkipConfirmationRequested), Index: index}
}

type SessionCompleted struct {
	Base
	Answers answers.Answers
}

func NewSessionCompleted(result answers.Answers) SessionCompleted {
	return SessionCompleted{Base: NewBase(KindSessionCompleted), Answers: result}
}

type SessionFailed struct {
	Base
	Err error
}

func NewSessionFailed(err error) SessionFailed {
	return SessionFailed{Base: NewBase(KindSessionFailed), Err: err}
}
