package comm

import (
	"errors"

	"github.com/relaylink/commlink/frame"
	"github.com/relaylink/commlink/port"
)

// Publisher builds and transmits frames for one command id and payload
// type. Construct with comm.Advertise, not this struct directly — Go
// has no generic methods, so the handle-bound constructor is a
// package-level function rather than *Handle.Advertise[T]() (see
// DESIGN.md). Publisher holds a non-owning back-reference to its
// Handle, mirroring CommHandle::Publisher<Cmd, CmdData>'s raw
// SerialControl*/Mutex* pair.
type Publisher[T any] struct {
	h   *Handle
	cmd uint16
}

// Publish builds a frame from payload, sends it under the handle's send
// lock, and reports whether the full frame was written. On
// port.ErrDeviceClosed, and if the handle's auto-reconnect is enabled,
// it invokes the reconnection controller and returns (false, nil);
// otherwise the closed-device error is returned to the caller.
func (p *Publisher[T]) Publish(payload T) (bool, error) {
	data, err := frame.EncodePayload(payload)
	if err != nil {
		return false, err
	}
	frameBytes := frame.Build(p.cmd, data, p.h.sof, p.h.seq)

	p.h.sendMu.Lock()
	conn := p.h.port
	var n int
	if conn == nil {
		err = ErrNotConnected
	} else {
		n, err = conn.Send(frameBytes)
	}
	p.h.sendMu.Unlock()

	if err != nil {
		if errors.Is(err, port.ErrDeviceClosed) && p.h.autoReconnect.Load() {
			p.h.reconnect()
			return false, nil
		}
		return false, err
	}

	p.h.Metrics.FramesSent.Add(1)
	return n == len(frameBytes), nil
}
