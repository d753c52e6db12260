package session

import (
	"github.com/koscakluka/ema-heartcheck/core/events"
	"github.com/koscakluka/ema-heartcheck/core/questions"
)

// Effect is I/O the controller performs on behalf of the state machine.
type Effect interface{ effect() }

type (
	StartCapture struct{}
	SendPrompt   struct{ Text string }
	Interrupt    struct{}
	Interpret    struct {
		Index      int
		Question   questions.Question
		Transcript string
	}
	// Release stops audio capture and disconnects the transport.
	Release struct{}
	Emit    struct{ Event events.Event }
	// Refused reports a user action that is not allowed in the current
	// state. The state is left unchanged.
	Refused struct{ Err error }
)

func (StartCapture) effect() {}
func (SendPrompt) effect()   {}
func (Interrupt) effect()    {}
func (Interpret) effect()    {}
func (Release) effect()      {}
func (Emit) effect()         {}
func (Refused) effect()      {}
