package session

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseConnecting Phase = "connecting"
	PhaseReady      Phase = "ready"
	PhaseListening  Phase = "listening"
	PhaseProcessing Phase = "processing"
	PhaseSpeaking   Phase = "speaking"
	PhaseCompleted  Phase = "completed"
	PhaseError      Phase = "error"
)

// Terminal reports whether the phase ends the session for good.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// BargeInPolicy decides what happens to a user transcript that arrives while
// the agent is still speaking.
type BargeInPolicy string

const (
	// BargeInDefer keeps the latest such transcript and handles it once the
	// agent's turn completes.
	BargeInDefer BargeInPolicy = "defer"
	// BargeInReject drops it.
	BargeInReject BargeInPolicy = "reject"
)

func (p BargeInPolicy) IsValid() bool {
	return p == BargeInDefer || p == BargeInReject
}
