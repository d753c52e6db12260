package events

// KindTurnCompleted identifies the end of an agent turn.
const KindTurnCompleted Kind = "turn_state.completed"

// TurnCompleted marks the end of the agent's utterance. Cancelled is true when
// the utterance was interrupted before it finished.
type TurnCompleted struct {
	Base
	Cancelled bool
}

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted() TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted)}
}

// NewTurnCancelled creates a turn completed event for an interrupted
// utterance.
func NewTurnCancelled() TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted), Cancelled: true}
}
