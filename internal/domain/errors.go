package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindEmptyInput     ErrorKind = "empty_input"
	KindRemoteFailure  ErrorKind = "remote_failure"
	KindMessageTooLong ErrorKind = "message_too_long"
	KindUnknownFailure ErrorKind = "unknown_failure"
)

var (
	ErrEmptyInput     = errors.New("no audio received")
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", MaxMessageLength)
)

// SpeechError keeps the failure kind of a speak or listen call so it can be
// logged and counted even when the caller only sees a collapsed result.
type SpeechError struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *SpeechError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%s, status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *SpeechError) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err, or KindUnknownFailure when err carries none.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *SpeechError
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, ErrMessageTooLong):
		return KindMessageTooLong
	}
	return KindUnknownFailure
}
