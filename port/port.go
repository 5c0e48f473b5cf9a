// Package port defines the serial-device capability commlink's comm and
// receiver packages consume, and provides concrete adapters over it.
//
// The interface is deliberately thin: open/close/read/write byte
// buffers, report "closed". Everything else — baud-rate normalisation,
// termios attribute bits, device discovery — is a concern of the
// concrete implementation, not of callers that only hold a Port.
package port

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
)

// ErrDeviceClosed is returned by Send/Receive when the underlying device
// handle is not open. Per spec.md §9's Open Question, the closed case —
// not the open case — is the error condition: Send fails when the port
// is NOT open, which is the opposite of what the reference
// implementation's (apparently inverted) `if (isOpen()) throw` reads as.
var ErrDeviceClosed = errors.New("port: device closed")

// ErrUnsupportedBaud is returned by Open when the requested baud rate has
// no entry in the recognised table (spec.md §6).
var ErrUnsupportedBaud = errors.New("port: unsupported baud rate")

// Attrs bundles the four POSIX terminal mode-bitmask fields Open accepts.
// Semantics are defined by the host OS's termios(3) subsystem; commlink
// only threads these values through, it does not interpret them.
type Attrs struct {
	CFlag uint32
	IFlag uint32
	OFlag uint32
	LFlag uint32
}

// Linux termios c_cflag bits needed for the default attribute bundle.
// Defined here (rather than imported from golang.org/x/sys/unix) so this
// file stays build-tag free; the TTY adapter uses the real unix.* values
// when it talks to the kernel.
const (
	cs8    = 0x30  // CS8: 8 data bits
	cread  = 0x80  // CREAD: enable receiver
	clocal = 0x800 // CLOCAL: ignore modem control lines
)

// DefaultAttrs mirrors original_source/src/SerialControl.cpp's openPort
// defaults: 8 data bits, local connection, receiver enabled; no special
// input/output/local processing.
func DefaultAttrs() Attrs {
	return Attrs{CFlag: cs8 | cread | clocal}
}

// Port is the capability commlink depends on for talking to a serial
// device. Implementations: TTY (raw termios, Linux), Simple (backed by
// tarm/serial), Fake (in-memory, for tests).
type Port interface {
	// Open opens the device at path with the given baud rate and
	// attribute bundle. It is idempotent: calling Open while already
	// open on the same path is a no-op success.
	Open(path string, baud int, attrs Attrs) error
	IsOpen() bool
	Close() error

	// Send writes data to the device. It returns the number of bytes
	// written, or (0, ErrDeviceClosed) if the device is not open.
	Send(data []byte) (int, error)

	// Receive performs one read into buf. (0, nil) means no data is
	// currently available — callers should retry. Simple returns after
	// its poll timeout and Fake returns at once; TTY's descriptor is in
	// blocking mode with VMIN=1, so its Receive waits for at least one
	// byte.
	Receive(buf []byte) (int, error)

	SetBaud(baud int) error
	AddFlag(flag uint32) error
	RemoveFlag(flag uint32) error
}

// baudTable enumerates the accepted numeric baud values (spec.md §6).
// Platform flags already within the recognised range are passed through
// unchanged by normalizeBaud; everything else must appear here.
var baudTable = map[int]bool{
	0: true, 50: true, 75: true, 110: true, 134: true, 150: true,
	200: true, 300: true, 600: true, 1200: true, 1800: true, 2400: true,
	4800: true, 9600: true, 19200: true, 38400: true, 57600: true,
	115200: true, 230400: true, 460800: true, 500000: true, 576000: true,
	921600: true, 1000000: true, 1152000: true, 1500000: true,
	2000000: true, 2500000: true, 3000000: true, 3500000: true,
	4000000: true,
}

// ValidateBaud reports whether baud is one of the accepted numeric
// values in spec.md §6's table. Platform flag constants (unix.B*) are
// not accepted here; only TTY's normalizeBaud passes those through.
func ValidateBaud(baud int) bool {
	return baudTable[baud]
}

// candidateNamePattern matches tty(USB|ACM)[0-9]+, the device naming
// scheme spec.md §6 scans for.
var candidateNamePattern = regexp.MustCompile(`^tty(USB|ACM)[0-9]+$`)

// ScanCandidates returns the regular files under devDir whose names
// match tty(USB|ACM)[0-9]+, in lexicographic order.
func ScanCandidates(devDir string) ([]string, error) {
	entries, err := os.ReadDir(devDir)
	if err != nil {
		return nil, err
	}

	var candidates []string
	for _, e := range entries {
		if e.IsDir() || !candidateNamePattern.MatchString(e.Name()) {
			continue
		}
		candidates = append(candidates, filepath.Join(devDir, e.Name()))
	}

	sort.Strings(candidates)
	return candidates, nil
}
