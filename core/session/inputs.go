package session

// Input is anything the state machine reacts to: user actions, transport
// events and results of effects.
type Input interface{ input() }

type (
	StartRequested     struct{}
	PermissionResolved struct{ Granted bool }
	ConnectFailed      struct{ Err error }
	Connected          struct{}
	Disconnected       struct{}
	TransportLost      struct{ Err error }
	CaptureStarted     struct{}
	CaptureFailed      struct{ Err error }
	TranscriptReceived struct{ Text string }
	// Interpreted carries the fallback interpreter's answer for the
	// transcript that was being processed at Index.
	Interpreted struct {
		Index      int
		Transcript string
		Value      *float64
	}
	TurnEnded     struct{ Cancelled bool }
	SkipRequested struct{}
	SkipConfirmed struct{}
	SkipCancelled struct{}
	StopRequested struct{}
)

func (StartRequested) input()     {}
func (PermissionResolved) input() {}
func (ConnectFailed) input()      {}
func (Connected) input()          {}
func (Disconnected) input()       {}
func (TransportLost) input()      {}
func (CaptureStarted) input()     {}
func (CaptureFailed) input()      {}
func (TranscriptReceived) input() {}
func (Interpreted) input()        {}
func (TurnEnded) input()          {}
func (SkipRequested) input()      {}
func (SkipConfirmed) input()      {}
func (SkipCancelled) input()      {}
func (StopRequested) input()      {}
