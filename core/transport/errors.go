// Package transport holds the error types shared by the speech transports.
package transport

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected  = errors.New("transport not connected")
	ErrMissingAPIKey = errors.New("api key not found")
)

// ConnectionError reports a connection that could not be established or
// dropped mid-session.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return "connection error: " + e.Op
	}
	return fmt.Sprintf("connection error: %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or unexpected event from the speech
// service, including error payloads sent by the service itself.
type ProtocolError struct {
	EventType string
	Code      string
	Message   string
	Err       error
}

func (e *ProtocolError) Error() string {
	msg := "protocol error"
	if e.EventType != "" {
		msg += " (" + e.EventType + ")"
	}
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }
