package receiver

import (
	"github.com/relaylink/commlink/crc"
	"github.com/relaylink/commlink/logger"
)

// Subscriber pairs the payload length a command expects with the
// callback that receives validated payload bytes. PayloadLen is checked
// against the frame's DLEN before Handle is invoked; a mismatch is
// treated the same as an unknown command.
type Subscriber struct {
	PayloadLen int
	Handle     func(payload []byte)
}

// Registry resolves a command id to its Subscriber. comm.Handle's
// subscriber map implements this; tests can supply a trivial map-backed
// implementation.
type Registry interface {
	Lookup(cmd uint16) (Subscriber, bool)
}

type state int

const (
	stateSOF state = iota
	stateDLEN
	stateSEQ
	stateCRC8
	stateCMD
	stateDATA
	stateCRC16
)

// Option configures a Receiver at construction time.
type Option func(*Receiver)

// WithDuplicateSuppression enables the optional policy of abandoning a
// frame whose SEQ byte equals the previous frame's SEQ byte. Off by
// default.
func WithDuplicateSuppression(on bool) Option {
	return func(r *Receiver) { r.suppressDup = on }
}

// WithLogger routes warning-level logging (unknown-command drops) to l.
// Defaults to logger.Nop().
func WithLogger(l logger.Logger) Option {
	return func(r *Receiver) { r.log = l }
}

// WithOnFramingError registers a callback invoked every time the state
// machine discards a candidate frame for a CRC-8 or CRC-16 mismatch.
// Bytes skipped while hunting for SOF are not reported. Intended for
// diagnostics counters.
func WithOnFramingError(f func()) Option {
	return func(r *Receiver) { r.onFramingError = f }
}

// WithOnDispatch registers a callback invoked after a valid frame is
// handed to its subscriber.
func WithOnDispatch(f func(cmd uint16)) Option {
	return func(r *Receiver) { r.onDispatch = f }
}

// WithOnUnknownCommand registers a callback invoked when a valid frame's
// command id has no registered subscriber.
func WithOnUnknownCommand(f func(cmd uint16)) Option {
	return func(r *Receiver) { r.onUnknownCommand = f }
}

// Receiver is a resynchronising byte-stream parser: Feed is called once
// per byte read from a serial device, and drives the frame state machine
// through SOF -> DLEN -> SEQ -> CRC8 -> CMD -> DATA -> CRC16 -> SOF.
//
// A Receiver is not safe for concurrent use; callers feed it from a
// single reader goroutine, the same contract the original's
// receivingDaemon() loop had as the sole reader of the serial port.
type Receiver struct {
	sof      byte
	registry Registry

	suppressDup bool
	log         logger.Logger

	onFramingError   func()
	onDispatch       func(cmd uint16)
	onUnknownCommand func(cmd uint16)

	st state

	crc8  *crc.Iterator
	crc16 *crc.Iterator

	dataLength   uint16
	lenOffset    int
	sequence     byte
	prevSequence byte
	haveSequence bool
	abandon      bool

	command   uint16
	cmdOffset int

	data       []byte
	dataOffset int

	crc16Value  uint16
	crc16Offset int
}

// New returns a Receiver that resynchronises on sof and dispatches
// validated frames through registry.
func New(sof byte, registry Registry, opts ...Option) *Receiver {
	r := &Receiver{
		sof:      sof,
		registry: registry,
		log:      logger.Nop(),
		st:       stateSOF,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// toSOF returns the state machine to SOF. CRC accumulators are re-seeded
// lazily when the next SOF byte arrives, not here.
func (r *Receiver) toSOF() {
	r.st = stateSOF
}

// Feed advances the state machine by one byte. It never blocks and never
// returns an error: malformed input resynchronises silently, exactly as
// specified for the streaming parser.
func (r *Receiver) Feed(b byte) {
	switch r.st {
	case stateSOF:
		if b != r.sof {
			return
		}
		r.lenOffset = 0
		r.dataLength = 0
		r.cmdOffset = 0
		r.command = 0
		r.dataOffset = 0
		r.crc16Offset = 0
		r.crc16Value = 0
		r.abandon = false
		r.crc8 = crc.NewIterator(crc.CRC8Params)
		r.crc16 = crc.NewIterator(crc.CRC16Params)
		r.st = stateDLEN

	case stateDLEN:
		if r.lenOffset == 0 {
			r.dataLength = uint16(b)
		} else {
			r.dataLength |= uint16(b) << 8
		}
		r.lenOffset++
		if r.lenOffset == 2 {
			r.data = make([]byte, 0, r.dataLength)
			r.st = stateSEQ
		}

	case stateSEQ:
		r.sequence = b
		if r.suppressDup && r.haveSequence && r.sequence == r.prevSequence {
			r.abandon = true
		} else {
			r.prevSequence = r.sequence
			r.haveSequence = true
		}
		r.st = stateCRC8

	case stateCRC8:
		if r.crc8.Value() != uint64(b) {
			r.framingError()
			return
		}
		r.st = stateCMD

	case stateCMD:
		if r.cmdOffset == 0 {
			r.command = uint16(b)
		} else {
			r.command |= uint16(b) << 8
		}
		r.cmdOffset++
		if r.cmdOffset == 2 {
			if r.dataLength == 0 {
				// Empty payload: DATA is skipped entirely, so this byte
				// would otherwise never reach the CRC-16 accumulator
				// under the global feeding rule below (it only fires
				// when the post-transition state isn't CRC16). Feed it
				// explicitly, matching the explicit feed DATA does for
				// its own last byte.
				r.crc16.Feed(b)
				r.st = stateCRC16
				return
			}
			r.st = stateDATA
		}

	case stateDATA:
		r.data = append(r.data, b)
		r.dataOffset++
		if uint16(r.dataOffset) == r.dataLength {
			r.crc16.Feed(b)
			r.st = stateCRC16
			return
		}

	case stateCRC16:
		if r.crc16Offset == 0 {
			r.crc16Value = uint16(b)
		} else {
			r.crc16Value |= uint16(b) << 8
		}
		r.crc16Offset++
		if r.crc16Offset == 2 {
			r.dispatchOrDrop()
			r.toSOF()
			return
		}
	}

	// Global CRC feeding rule: every byte consumed while the
	// post-transition state is neither SOF nor CRC16 is fed to both
	// accumulators. This also feeds the CRC8 field byte itself into the
	// CRC-16 accumulator (it stays in CRC8's accumulator too, but that
	// value was already consumed above and is never read again before
	// the next SOF) — required so the receiver's incremental CRC-16
	// covers the same byte range frame.Build's one-shot CRC-16 does.
	if r.st != stateSOF && r.st != stateCRC16 {
		r.crc8.Feed(b)
		r.crc16.Feed(b)
	}
}

func (r *Receiver) framingError() {
	if r.onFramingError != nil {
		r.onFramingError()
	}
	r.toSOF()
}

func (r *Receiver) dispatchOrDrop() {
	if r.abandon {
		return
	}
	if uint16(r.crc16.Value()) != r.crc16Value {
		if r.onFramingError != nil {
			r.onFramingError()
		}
		return
	}

	sub, ok := r.registry.Lookup(r.command)
	if !ok || sub.PayloadLen != len(r.data) {
		r.log.Warn("receiver: dropping frame for unregistered command",
			"command", r.command, "len", len(r.data))
		if r.onUnknownCommand != nil {
			r.onUnknownCommand(r.command)
		}
		return
	}

	sub.Handle(r.data)
	if r.onDispatch != nil {
		r.onDispatch(r.command)
	}
}
