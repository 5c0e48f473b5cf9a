package comm

import "sync/atomic"

// Metrics holds atomic counters for one Handle's traffic, in the shape
// of arloliu-go-secs/secs1's ConnectionMetrics: plain atomic fields a
// caller can read directly or wire into a prometheus CounterFunc,
// rather than a snapshot method that must be kept in sync by hand.
type Metrics struct {
	FramesSent        atomic.Uint64
	FramesRecv        atomic.Uint64
	FramesDropped     atomic.Uint64 // CRC-8 or CRC-16 mismatch
	UnknownCmd        atomic.Uint64 // valid frame, no subscriber
	ReconnectAttempts atomic.Uint64
}
