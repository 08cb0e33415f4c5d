// Package errors carries typed errors shared by the relay packages.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies where an error originated.
type Kind string

const (
	KindConfig    Kind = "config"
	KindCapture   Kind = "capture"
	KindLink      Kind = "link"
	KindProtocol  Kind = "protocol"
	KindCodec     Kind = "codec"
	KindStorage   Kind = "storage"
	KindTelemetry Kind = "telemetry"
	KindTransport Kind = "transport"
	KindUnknown   Kind = "unknown"
)

// Error is a classified error with the operation that produced it.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap classifies err. A nil err yields nil; an already classified error is
// returned unchanged so the innermost kind wins.
func Wrap(kind Kind, op, message string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// IsKind reports whether the first classified error in the chain has kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindUnknown
}
