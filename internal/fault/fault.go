// Copyright (c) CurioSwitch (choko@curioswitch.org)
// SPDX-License-Identifier: BUSL-1.1

package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a normalized collaborator failure.
type Kind string

const (
	// KindConfiguration means a missing or invalid credential. Generation
	// calls cannot succeed until it is resolved.
	KindConfiguration Kind = "configuration"
	// KindValidation means a precondition was not met, such as a missing
	// required attachment. Never retried.
	KindValidation Kind = "validation"
	// KindUpstream means a backend call failed.
	KindUpstream Kind = "upstream"
	// KindFetch means retrieving a generated artifact failed.
	KindFetch Kind = "fetch"
	// KindPermission means the persistence store denied access.
	KindPermission Kind = "permission"
	// KindGeneration means the backend responded but returned no usable
	// payload.
	KindGeneration Kind = "generation"
)

// Error is a collaborator failure normalized to a kind and message. Gateway
// and store code always returns an Error rather than letting a raw transport
// error escape.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// New returns an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap normalizes err into an Error of the given kind, preserving its
// message. An err that is already an Error is returned unchanged.
func Wrap(kind Kind, err error) *Error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	return &Error{Kind: kind, Message: err.Error()}
}

// KindOf returns the kind of err, or the empty string if err is not an
// Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Message returns the normalized message of err, falling back to err.Error().
func Message(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	return err.Error()
}
