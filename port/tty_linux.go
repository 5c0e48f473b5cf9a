//go:build linux

package port

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// baudToUnix maps the accepted numeric baud rates (spec.md §6) onto the
// platform's Bnnn termios speed constants, the same table as
// original_source/src/SerialControl.cpp's _baud() switch. Values already
// equal to one of unix.B* (e.g. a caller passing the flag directly) are
// accepted unchanged by normalizeBaud.
var baudToUnix = map[int]uint32{
	0: unix.B0, 50: unix.B50, 75: unix.B75, 110: unix.B110,
	134: unix.B134, 150: unix.B150, 200: unix.B200, 300: unix.B300,
	600: unix.B600, 1200: unix.B1200, 1800: unix.B1800, 2400: unix.B2400,
	4800: unix.B4800, 9600: unix.B9600, 19200: unix.B19200,
	38400: unix.B38400, 57600: unix.B57600, 115200: unix.B115200,
	230400: unix.B230400, 460800: unix.B460800, 500000: unix.B500000,
	576000: unix.B576000, 921600: unix.B921600, 1000000: unix.B1000000,
	1152000: unix.B1152000, 1500000: unix.B1500000, 2000000: unix.B2000000,
	2500000: unix.B2500000, 3000000: unix.B3000000, 3500000: unix.B3500000,
	4000000: unix.B4000000,
}

func normalizeBaud(baud int) (uint32, bool) {
	if b, ok := baudToUnix[baud]; ok {
		return b, true
	}
	// Already a platform flag in the recognised range — passed through
	// unchanged, per spec.md §6.
	for _, b := range baudToUnix {
		if uint32(baud) == b {
			return uint32(baud), true
		}
	}
	return 0, false
}

// TTY is a Port implementation for Linux: a raw POSIX serial device
// opened and configured directly against termios (comm's constructors
// and Connect open port.Simple, not TTY), grounded on
// original_source/src/SerialControl.cpp's openPort/setBaudRate/addFlag/
// removeFlag. Used because tarm/serial's Config type has no way to
// express the four raw c_flag/i_flag/o_flag/l_flag bitmasks Attrs
// carries.
type TTY struct {
	mu   sync.Mutex
	fd   int
	open bool
}

// NewTTY returns an unopened TTY adapter.
func NewTTY() *TTY {
	return &TTY{fd: -1}
}

func (t *TTY) Open(path string, baud int, attrs Attrs) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.open {
		return nil
	}

	speed, ok := normalizeBaud(baud)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnsupportedBaud, baud)
	}

	// O_NOCTTY: don't become the controlling terminal. O_NONBLOCK at
	// open time, reset to blocking below via fcntl, matching
	// SerialControl.cpp's openPort.
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("port: open %s: %w", path, err)
	}

	termios := &unix.Termios{
		Cflag: attrs.CFlag,
		Iflag: attrs.IFlag,
		Oflag: attrs.OFlag,
		Lflag: attrs.LFlag,
	}
	termios.Cc[unix.VTIME] = 0
	termios.Cc[unix.VMIN] = 1

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("port: set termios: %w", err)
	}

	if err := setSpeedLocked(fd, speed); err != nil {
		_ = unix.Close(fd)
		return err
	}

	// Reset to blocking mode now that the port is configured, matching
	// fcntl(fd, F_SETFL, 0) in the reference implementation.
	if err := unix.SetNonblock(fd, false); err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("port: clear O_NONBLOCK: %w", err)
	}

	t.fd = fd
	t.open = true
	return nil
}

func setSpeedLocked(fd int, speed uint32) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("port: get termios: %w", err)
	}
	termios.Ispeed = speed
	termios.Ospeed = speed
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("port: set baud: %w", err)
	}
	return nil
}

func (t *TTY) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

func (t *TTY) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return nil
	}
	err := unix.Close(t.fd)
	t.open = false
	t.fd = -1
	return err
}

func (t *TTY) Send(data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return 0, ErrDeviceClosed
	}
	n, err := unix.Write(t.fd, data)
	if err != nil {
		return 0, fmt.Errorf("port: write: %w", err)
	}
	return n, nil
}

func (t *TTY) Receive(buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return 0, ErrDeviceClosed
	}
	n, err := unix.Read(t.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return 0, fmt.Errorf("port: read: %w", err)
	}
	return n, nil
}

func (t *TTY) SetBaud(baud int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return ErrDeviceClosed
	}
	speed, ok := normalizeBaud(baud)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnsupportedBaud, baud)
	}
	return setSpeedLocked(t.fd, speed)
}

func (t *TTY) AddFlag(flag uint32) error {
	return t.mutateCflag(func(c uint32) uint32 { return c | flag })
}

func (t *TTY) RemoveFlag(flag uint32) error {
	return t.mutateCflag(func(c uint32) uint32 { return c &^ flag })
}

func (t *TTY) mutateCflag(f func(uint32) uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.open {
		return ErrDeviceClosed
	}

	termios, err := unix.IoctlGetTermios(t.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("port: get termios: %w", err)
	}
	termios.Cflag = f(termios.Cflag)
	if err := unix.IoctlSetTermios(t.fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("port: set termios: %w", err)
	}
	return nil
}

var _ Port = (*TTY)(nil)
