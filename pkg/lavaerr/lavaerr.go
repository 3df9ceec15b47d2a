// Package lavaerr defines the error taxonomy shared across the audio
// pipeline, voice transport, and REST/WS layers. Each kind maps to a
// Severity used when a failure must be surfaced to a client as a
// structured LoadError or TrackException event.
package lavaerr

import (
	"errors"
	"fmt"

	"github.com/aurelink/aurelink/pkg/track"
)

// Kind classifies the subsystem an error originated from.
type Kind string

const (
	KindLoad      Kind = "load"
	KindDecode    Kind = "decode"
	KindTransport Kind = "transport"
	KindGateway   Kind = "gateway"
	KindAuth      Kind = "auth"
	KindSession   Kind = "session"
)

// Error is the common wrapper every subsystem returns for user-facing
// failures. It carries enough structure to build a LoadError or
// TrackException payload without the caller re-deriving severity.
type Error struct {
	Kind     Kind
	Severity track.Severity
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// LoadError converts the Error into the wire LoadError shape used by
// /v4/loadtracks responses.
func (e *Error) LoadError() track.LoadError {
	cause := ""
	if e.Cause != nil {
		cause = e.Cause.Error()
	}
	return track.LoadError{
		Message:  e.Message,
		Severity: e.Severity,
		Cause:    cause,
	}
}

func newErr(kind Kind, severity track.Severity, message string, cause error) *Error {
	return &Error{Kind: kind, Severity: severity, Message: message, Cause: cause}
}

// Load wraps a track-resolution failure. Use SeverityCommon for "not
// found"-style results and SeverityFault for unexpected plugin/IO errors.
func Load(severity track.Severity, message string, cause error) *Error {
	return newErr(KindLoad, severity, message, cause)
}

// Decode wraps a demux/codec/resample failure encountered mid-playback.
func Decode(message string, cause error) *Error {
	return newErr(KindDecode, track.SeverityFault, message, cause)
}

// Transport wraps an RTP/UDP send or receive failure.
func Transport(message string, cause error) *Error {
	return newErr(KindTransport, track.SeverityFault, message, cause)
}

// Gateway wraps a Discord voice-gateway WS failure (handshake, heartbeat,
// unexpected close code).
func Gateway(message string, cause error) *Error {
	return newErr(KindGateway, track.SeverityFault, message, cause)
}

// Auth wraps a REST/WS authentication failure (missing or wrong password).
func Auth(message string) *Error {
	return newErr(KindAuth, track.SeverityCommon, message, nil)
}

// Session wraps a session lifecycle failure (unknown session id, resume
// window expired).
func Session(message string, cause error) *Error {
	return newErr(KindSession, track.SeverityCommon, message, cause)
}

// As is a thin re-export of errors.As for callers that only import this
// package, avoiding an extra stdlib import at call sites that just want to
// type-assert to *Error.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}
