package comm

import "errors"

// ErrOpenFailure wraps a failed open attempt or an unsupported baud rate.
// Constructors retry on a 1s cadence rather than surface this to the
// caller; it's exported so tests and diagnostics can recognise the
// underlying cause via errors.Is/errors.As on the wrapped error.
var ErrOpenFailure = errors.New("comm: open failure")

// ErrNoCandidates is returned by AutoConnect when ScanCandidates finds no
// devices to try.
var ErrNoCandidates = errors.New("comm: no candidate devices found")

// ErrNotConnected is returned by Publish when the handle has never been
// successfully connected to a device (no port to send on).
var ErrNotConnected = errors.New("comm: not connected")
