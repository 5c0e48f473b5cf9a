package comm

import "time"

// reconnect is the reconnection controller (spec.md §4.6). It takes both
// the send and receive locks before touching the port, so any publisher
// blocked acquiring sendMu and the receive loop blocked acquiring recvMu
// wait out the whole retry loop — matching "during reconnection,
// publishers block on the send lock; the receive thread is expected to
// be blocked on the receive lock by the same operation" without either
// caller needing to hold its own lock across the call.
//
// Grounded on the retry-until-open constructor loop in
// original_source/src/SerialCommHandle.cpp, generalised into a
// re-entrant method invoked both at construction and on detected
// closure.
func (h *Handle) reconnect() {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	h.recvMu.Lock()
	defer h.recvMu.Unlock()

	if h.port != nil && h.port.IsOpen() {
		// Another caller already reconnected while we were waiting for
		// the locks.
		return
	}

	h.Metrics.ReconnectAttempts.Add(1)
	for {
		var err error
		if h.path != "" {
			err = h.connectLocked(h.path, h.baud)
		} else {
			err = h.autoConnectLocked(h.baud)
		}
		if err == nil {
			return
		}
		h.cfg.log.Warn("comm: reconnect attempt failed, retrying", "err", err)
		time.Sleep(h.cfg.reconnectInterval)
	}
}
