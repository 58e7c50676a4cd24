// Copyright (c) 2024 ContentJoy
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package drive

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a remote failure so callers can branch on retry
// semantics instead of parsing message strings.
type ErrorKind string

const (
	// KindTransient marks 5xx/429/network failures worth retrying
	KindTransient ErrorKind = "transient"
	// KindPermanent marks 4xx failures that must not be retried
	KindPermanent ErrorKind = "permanent"
	// KindInit marks a failed resumable session initiation
	KindInit ErrorKind = "init"
	// KindAuth marks credential-resolution exhaustion
	KindAuth ErrorKind = "auth"
)

// ProtocolError carries the remote status and body for diagnostics.
type ProtocolError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("cold storage %s failure: status %d: %s", e.Kind, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		return fmt.Sprintf("cold storage %s failure: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("cold storage %s failure", e.Kind)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable remote failure
func IsTransient(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Kind == KindTransient
}

// IsPermanent reports whether err is a non-retryable remote failure
func IsPermanent(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Kind == KindPermanent
}

// ErrAuthFailure is returned when every credential strategy comes up empty.
var ErrAuthFailure = errors.New("authentication failed: no credential strategy produced a token")
