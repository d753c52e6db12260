package session

import (
	"errors"

	"github.com/koscakluka/ema-heartcheck/core/transport"
)

var (
	ErrNotIdle         = errors.New("session already started")
	ErrStopped         = errors.New("session stopped")
	ErrTerminal        = errors.New("session already finished")
	ErrSkipUnavailable = errors.New("skip not available now")
	ErrNoPendingSkip   = errors.New("no skip waiting for confirmation")

	errConnectionLost = errors.New("connection lost")
)

type (
	// ConnectionError is a transport that failed to connect or dropped.
	ConnectionError = transport.ConnectionError
	// ProtocolError is a malformed or unexpected event from the speech
	// service.
	ProtocolError = transport.ProtocolError
)

// PermissionError reports that microphone access was denied.
type PermissionError struct{}

func (*PermissionError) Error() string { return "permission denied" }

func asConnectionError(op string, err error) error {
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return err
	}
	return &ConnectionError{Op: op, Err: err}
}
