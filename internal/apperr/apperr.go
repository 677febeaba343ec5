// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apperr defines the business error taxonomy shared by the placement
// engine, the editorial workflow and the image pipeline. Each kind maps to a
// distinct HTTP status at the API boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidState      Kind = "invalid_state"
	KindLockConflict      Kind = "lock_conflict"
	KindProcessingFailure Kind = "processing_failure"
	KindInternal          Kind = "internal"
)

// Error is an application error carrying a kind and a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap wraps err with a kind and message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound reports a missing content item, category, block or position.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

// InvalidState reports an action that is not permitted in the current state.
func InvalidState(format string, args ...any) *Error {
	return New(KindInvalidState, fmt.Sprintf(format, args...))
}

// LockConflict reports an item locked by another editor.
func LockConflict(format string, args ...any) *Error {
	return New(KindLockConflict, fmt.Sprintf(format, args...))
}

// ProcessingFailure reports an image pipeline failure or timeout.
func ProcessingFailure(message string, err error) *Error {
	return Wrap(KindProcessingFailure, message, err)
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message of err. Foreign errors get a
// generic message so that query details never leak.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal Server Error"
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	case KindLockConflict:
		return http.StatusLocked
	case KindProcessingFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
