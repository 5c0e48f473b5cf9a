package comm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/relaylink/commlink/frame"
	"github.com/relaylink/commlink/port"
	"github.com/relaylink/commlink/receiver"
)

// Handle owns one serial port, a send lock, a receive lock, the
// subscriber registry, and the flags governing the background receive
// loop and auto-reconnect. Grounded on
// original_source/include/serial/CommHandle.hpp's CommHandle class.
//
// A Handle's publishers and the handle itself are safe for concurrent
// use; Subscribe should only be called before StartReceiving*, per
// spec.md §5 (the receive loop does not take a registry lock on the hot
// path — registry itself does, but only as a defensive extra).
type Handle struct {
	sof byte
	cfg config

	sendMu sync.Mutex
	recvMu sync.Mutex
	port   port.Port

	path string
	baud int

	registry *registry
	rcv      *receiver.Receiver
	seq      *frame.SequenceCounter

	receiving     atomic.Bool
	autoReconnect atomic.Bool

	Metrics Metrics
}

func newHandle(sof byte, opts []Option) *Handle {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	h := &Handle{
		sof:      sof,
		cfg:      cfg,
		registry: newRegistry(),
		seq:      &frame.SequenceCounter{},
	}
	h.rcv = receiver.New(sof, h.registry, cfg.receiverOptions(&h.Metrics)...)
	return h
}

// NewFromPort adopts an already-constructed Port, taking no ownership of
// opening it. Mirrors CommHandle(const SerialControl&, byte_t).
func NewFromPort(p port.Port, sof byte, opts ...Option) *Handle {
	h := newHandle(sof, opts)
	h.port = p
	return h
}

// Open opens path at baud, retrying every cfg.reconnectInterval (default
// 1s) with a warning log line until it succeeds. Mirrors
// CommHandle(const String&, int, byte_t)'s retry-until-open constructor.
func Open(path string, baud int, sof byte, opts ...Option) *Handle {
	h := newHandle(sof, opts)
	for {
		p := port.NewSimple()
		if err := p.Open(path, baud, port.DefaultAttrs()); err != nil {
			h.cfg.log.Warn("comm: cannot open serial port, retrying", "path", path, "err", err)
			time.Sleep(h.cfg.reconnectInterval)
			continue
		}
		h.port = p
		h.path = path
		h.baud = baud
		return h
	}
}

// OpenAny scans /dev for candidate devices and opens the first that
// succeeds, retrying the whole scan every cfg.reconnectInterval until
// one opens. Mirrors CommHandle(int, byte_t).
func OpenAny(baud int, sof byte, opts ...Option) *Handle {
	h := newHandle(sof, opts)
	for {
		candidates, err := port.ScanCandidates("/dev")
		if err == nil {
			for _, path := range candidates {
				p := port.NewSimple()
				if err := p.Open(path, baud, port.DefaultAttrs()); err == nil {
					h.port = p
					h.path = path
					h.baud = baud
					return h
				}
			}
		}
		h.cfg.log.Warn("comm: no serial device found, retrying", "baud", baud)
		time.Sleep(h.cfg.reconnectInterval)
	}
}

// Connect closes any currently-open port and opens path at baud,
// remembering path for future reconnection attempts.
func (h *Handle) Connect(path string, baud int) error {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	h.recvMu.Lock()
	defer h.recvMu.Unlock()
	return h.connectLocked(path, baud)
}

func (h *Handle) connectLocked(path string, baud int) error {
	if h.port != nil {
		_ = h.port.Close()
	}
	p := port.NewSimple()
	if err := p.Open(path, baud, port.DefaultAttrs()); err != nil {
		return fmt.Errorf("%w: %v", ErrOpenFailure, err)
	}
	h.port = p
	h.path = path
	h.baud = baud
	return nil
}

// AutoConnect rescans /dev for candidate devices and opens the first
// that succeeds, forgetting any previously-remembered path in favour of
// whichever candidate opened.
func (h *Handle) AutoConnect(baud int) error {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	h.recvMu.Lock()
	defer h.recvMu.Unlock()
	return h.autoConnectLocked(baud)
}

func (h *Handle) autoConnectLocked(baud int) error {
	candidates, err := port.ScanCandidates("/dev")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOpenFailure, err)
	}
	if len(candidates) == 0 {
		return ErrNoCandidates
	}
	for _, path := range candidates {
		if err := h.connectLocked(path, baud); err == nil {
			return nil
		}
	}
	return ErrOpenFailure
}

// Advertise returns a Publisher bound to cmd and handle-bound payload
// type T. Mirrors CommHandle::advertise<Cmd, CmdData>().
func Advertise[T any](h *Handle, cmd uint16) *Publisher[T] {
	return &Publisher[T]{h: h, cmd: cmd}
}

// Subscribe registers or replaces the callback invoked for cmd. T's wire
// size is computed once via frame.Size and enforced against each
// incoming frame's DLEN; a mismatch is treated as an unregistered
// command. Mirrors CommHandle::subscribe<Cmd, CmdData>().
func Subscribe[T any](h *Handle, cmd uint16, cb func(T)) error {
	n, err := frame.Size[T]()
	if err != nil {
		return err
	}
	h.registry.set(cmd, receiver.Subscriber{
		PayloadLen: n,
		Handle: func(payload []byte) {
			v, err := frame.DecodePayload[T](payload)
			if err != nil {
				h.cfg.log.Error("comm: failed to decode payload", "cmd", cmd, "err", err)
				return
			}
			cb(v)
		},
	})
	return nil
}

// StartReceiving runs the receive loop on the calling goroutine until
// StopReceiving is called or ctx is cancelled. It blocks, matching the
// reference implementation's join() immediately after starting the
// thread (spec.md §9's Open Question resolution).
func (h *Handle) StartReceiving(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	h.receiving.Store(true)
	h.receiveLoop(ctx)
	return nil
}

// StartReceivingAsync detaches the receive loop onto its own goroutine
// and returns immediately.
func (h *Handle) StartReceivingAsync(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	h.receiving.Store(true)
	go h.receiveLoop(ctx)
}

// StopReceiving clears the receiving flag; the loop observes it between
// reads and exits, discarding any partial in-flight frame.
func (h *Handle) StopReceiving() {
	h.receiving.Store(false)
}

// IsReceiving reports whether the receiving flag is set: StartReceiving*
// sets it and StopReceiving clears it. A loop that exits because its ctx
// was cancelled leaves the flag set.
func (h *Handle) IsReceiving() bool {
	return h.receiving.Load()
}

// SetAutoReconnect enables or disables automatic reconnection on
// port.ErrDeviceClosed during send or receive.
func (h *Handle) SetAutoReconnect(on bool) {
	h.autoReconnect.Store(on)
}

func (h *Handle) receiveLoop(ctx context.Context) {
	// A fresh Receiver on exit drops any partially parsed frame, so the
	// next receive session starts by hunting for SOF.
	defer func() {
		h.rcv = receiver.New(h.sof, h.registry, h.cfg.receiverOptions(&h.Metrics)...)
	}()

	buf := make([]byte, receiveBufSize)
	for h.receiving.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		h.recvMu.Lock()
		p := h.port
		var n int
		var err error
		if p != nil {
			n, err = p.Receive(buf)
		} else {
			err = port.ErrDeviceClosed
		}
		h.recvMu.Unlock()

		if err != nil {
			h.cfg.log.Warn("comm: receive error", "err", err)
			if h.autoReconnect.Load() && errors.Is(err, port.ErrDeviceClosed) {
				h.reconnect()
			}
			continue
		}

		for i := 0; i < n; i++ {
			h.rcv.Feed(buf[i])
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
}
