// Package comm ties the frame codec, the receiver state machine, and a
// port.Port together into a publish/subscribe handle: one owned serial
// port, a send lock, a background receive loop, a subscriber registry,
// and a reconnection controller that re-opens the device on
// port.ErrDeviceClosed.
//
// Grounded on original_source/include/serial/CommHandle.hpp's CommHandle
// class and original_source/src/SerialCommHandle.cpp's constructors and
// receivingDaemon wiring, translated from inheritance-based type erasure
// (SubscriberBase) to the receiver package's untyped Registry and from
// std::thread/std::mutex to goroutines, context.Context, and sync.Mutex.
package comm
