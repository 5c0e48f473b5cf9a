package port

import (
	"errors"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// ErrAttrNotSupported is returned by Simple's AddFlag/RemoveFlag: the
// tarm/serial library this adapter wraps has no termios-bitmask API, so
// these calls have nothing to do. Use TTY if you need raw c_flag/i_flag/
// o_flag/l_flag control.
var ErrAttrNotSupported = errors.New("port: attribute flags not supported by this adapter")

// pollInterval is the ReadTimeout given to the underlying tarm/serial
// port so Receive behaves as a non-blocking poll rather than a call that
// can block indefinitely — the same role pollTimeout plays in
// arloliu-go-secs/secs1's protocol loop.
const pollInterval = 50 * time.Millisecond

// Simple is a Port backed by github.com/tarm/serial, the exact library
// and configuration shape the teacher repo's send/receive programs use
// (serial.Config{Name, Baud, ReadTimeout, Parity}, serial.OpenPort).
//
// It accepts only the subset of Attrs that tarm/serial's Config can
// express: CFlag's parity and stop-bit bits. IFlag/OFlag/LFlag are
// ignored. Use TTY for full termios control.
type Simple struct {
	mu   sync.Mutex
	port *serial.Port
	cfg  serial.Config
}

// NewSimple returns an unopened Simple adapter.
func NewSimple() *Simple {
	return &Simple{}
}

func (s *Simple) Open(path string, baud int, attrs Attrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port != nil {
		return nil
	}

	if !ValidateBaud(baud) {
		return ErrUnsupportedBaud
	}

	cfg := serial.Config{
		Name:        path,
		Baud:        baud,
		ReadTimeout: pollInterval,
		Parity:      parityFromCflag(attrs.CFlag),
		StopBits:    stopBitsFromCflag(attrs.CFlag),
	}

	p, err := serial.OpenPort(&cfg)
	if err != nil {
		return err
	}

	s.port = p
	s.cfg = cfg
	return nil
}

func parityFromCflag(cflag uint32) serial.Parity {
	const (
		parenb = 0x100
		parodd = 0x200
	)
	switch {
	case cflag&parenb == 0:
		return serial.ParityNone
	case cflag&parodd != 0:
		return serial.ParityOdd
	default:
		return serial.ParityEven
	}
}

func stopBitsFromCflag(cflag uint32) serial.StopBits {
	const cstopb = 0x40
	if cflag&cstopb != 0 {
		return serial.Stop2
	}
	return serial.Stop1
}

func (s *Simple) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil
}

func (s *Simple) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

func (s *Simple) Send(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return 0, ErrDeviceClosed
	}
	n, err := s.port.Write(data)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Simple) Receive(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		return 0, ErrDeviceClosed
	}
	n, err := s.port.Read(buf)
	if err != nil {
		// tarm/serial surfaces a read timeout as an io error on some
		// platforms and as (0, nil) on others; treat both as "no data
		// yet" rather than a hard failure.
		if n == 0 {
			return 0, nil
		}
		return n, err
	}
	return n, nil
}

func (s *Simple) SetBaud(baud int) error {
	s.mu.Lock()
	path := s.cfg.Name
	attrs := Attrs{}
	s.mu.Unlock()

	if path == "" {
		return ErrDeviceClosed
	}
	if err := s.Close(); err != nil {
		return err
	}
	return s.Open(path, baud, attrs)
}

func (s *Simple) AddFlag(uint32) error    { return ErrAttrNotSupported }
func (s *Simple) RemoveFlag(uint32) error { return ErrAttrNotSupported }

var _ Port = (*Simple)(nil)
