package comm

import (
	"time"

	"github.com/relaylink/commlink/logger"
	"github.com/relaylink/commlink/receiver"
)

// reconnectInterval is the retry cadence for both open-constructors and
// the reconnection controller — spec.md §4.6 and §6 both specify 1s.
const reconnectInterval = time.Second

// receiveBufSize is the read chunk size for the background receive loop,
// matching the 1024-byte stack buffer in
// original_source/src/SerialCommHandle.cpp's receivingDaemon.
const receiveBufSize = 1024

type config struct {
	log               logger.Logger
	duplicateSupp     bool
	reconnectInterval time.Duration
	onUnknownCmd      func(cmd uint16)
}

func defaultConfig() config {
	return config{
		log:               logger.Default(),
		reconnectInterval: reconnectInterval,
	}
}

// Option configures a Handle at construction time.
type Option func(*config)

// WithLogger routes the handle's retry/warning/reconnect logging through
// l instead of the default stderr text logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithDuplicateSuppression enables the receiver's optional
// sequence-repeat suppression policy (off by default).
func WithDuplicateSuppression(on bool) Option {
	return func(c *config) { c.duplicateSupp = on }
}

// WithReconnectInterval overrides the 1s retry cadence used by the
// blocking constructors and the reconnection controller.
func WithReconnectInterval(d time.Duration) Option {
	return func(c *config) { c.reconnectInterval = d }
}

// receiverOptions translates the handle-level config into the subset of
// receiver.Option the Handle wires in when it builds its Receiver.
func (c config) receiverOptions(m *Metrics) []receiver.Option {
	return []receiver.Option{
		receiver.WithDuplicateSuppression(c.duplicateSupp),
		receiver.WithLogger(c.log),
		receiver.WithOnDispatch(func(uint16) { m.FramesRecv.Add(1) }),
		receiver.WithOnFramingError(func() { m.FramesDropped.Add(1) }),
		receiver.WithOnUnknownCommand(func(cmd uint16) {
			m.UnknownCmd.Add(1)
			if c.onUnknownCmd != nil {
				c.onUnknownCmd(cmd)
			}
		}),
	}
}
