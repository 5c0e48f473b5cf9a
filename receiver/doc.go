// Package receiver implements the resynchronising byte-stream parser
// that turns an arbitrary, possibly lossy, stream of bytes from a serial
// device into validated (command-id, payload) dispatches.
//
// Receiver.Feed is called once per received byte; it drives a small
// state machine (SOF -> DLEN -> SEQ -> CRC8 -> CMD -> DATA -> CRC16 ->
// SOF) that discards anything that doesn't look like a frame and
// resynchronises on the next SOF byte, without ever blocking or
// buffering more than one in-flight frame.
//
// Grounded on the receivingDaemon() state machine in
// original_source/src/SerialCommHandle.cpp.
package receiver
