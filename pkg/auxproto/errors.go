// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 gleba

package auxproto

import (
	"errors"
	"fmt"
)

// Errors raised while framing, parsing and sequencing. All of them are
// recoverable at the point they occur; they exist so callers can log
// and tests can assert, not to abort anything.
var (
	ErrNoStartMarker      = errors.New("auxproto: no start marker")
	ErrStrayBytes         = errors.New("auxproto: stray bytes before start marker")
	ErrFrameOverflow      = errors.New("auxproto: declared frame exceeds buffer")
	ErrFrameTimeout       = errors.New("auxproto: frame reception deadline expired")
	ErrTruncatedFrame     = errors.New("auxproto: truncated frame")
	ErrChecksumMismatch   = errors.New("auxproto: checksum mismatch")
	ErrUnexpectedType     = errors.New("auxproto: unexpected packet type")
	ErrUnknownStatusCode  = errors.New("auxproto: unknown status code")
	ErrBodySizeMismatch   = errors.New("auxproto: body size does not match packet shape")
	ErrSequenceTimeout    = errors.New("auxproto: sequence step deadline expired")
	ErrSequenceRejected   = errors.New("auxproto: packet rejected by sequence step")
	ErrSequenceCapacity   = errors.New("auxproto: sequence table full")
	ErrSequenceConflict   = errors.New("auxproto: sequence already active")
)

// FrameError describes a framing failure together with the bytes that
// were thrown away recovering from it.
type FrameError struct {
	Err       error
	Discarded []byte
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%v (%d bytes discarded)", e.Err, len(e.Discarded))
}

func (e *FrameError) Unwrap() error { return e.Err }
