package imap

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when an operation runs before Connect.
var ErrNotConnected = errors.New("imap: not connected")

// AuthError marks rejected credentials. Not retryable: retrying wastes
// cycles and risks an account lockout.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("imap: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ConnectivityError marks a transient network, DNS, or timeout failure.
// Retryable with backoff.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("imap: connection failed: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// NotFoundError marks a UID that no longer exists, usually because
// another client deleted or moved the message between search and fetch.
type NotFoundError struct {
	UID uint32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("imap: message UID %d not found", e.UID)
}

// StateError marks a mailbox mutation that failed because the message
// vanished underneath us. Benign: log and continue.
type StateError struct {
	UID uint32
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("imap: state change for UID %d failed: %v", e.UID, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }
