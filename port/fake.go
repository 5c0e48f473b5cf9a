package port

import (
	"sync"
)

// Fake is an in-memory Port double for tests: bytes written with Send
// land in an inbox the test can read via Outbound, and bytes queued via
// Inject are returned by Receive. It lets comm and receiver tests drive
// exact byte sequences without a real device, the same role an in-memory
// net.Conn pipe plays in arloliu-go-secs's conn_test.go.
type Fake struct {
	mu       sync.Mutex
	isOpen   bool
	path     string
	baud     int
	attrs    Attrs
	outbound []byte
	inbound  []byte

	// FailSend, when true, makes Send behave as if the device were
	// closed, without actually closing it — used to test reconnection
	// without losing the queued Inject data.
	FailSend bool
}

// NewFake returns a Fake that is already open, so tests that don't care
// about the Open lifecycle can use it immediately.
func NewFake() *Fake {
	return &Fake{isOpen: true}
}

func (f *Fake) Open(path string, baud int, attrs Attrs) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isOpen = true
	f.path = path
	f.baud = baud
	f.attrs = attrs
	return nil
}

func (f *Fake) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isOpen
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isOpen = false
	return nil
}

func (f *Fake) Send(data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isOpen || f.FailSend {
		return 0, ErrDeviceClosed
	}
	f.outbound = append(f.outbound, data...)
	return len(data), nil
}

func (f *Fake) Receive(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.isOpen {
		return 0, ErrDeviceClosed
	}
	if len(f.inbound) == 0 {
		return 0, nil
	}
	n := copy(buf, f.inbound)
	f.inbound = f.inbound[n:]
	return n, nil
}

func (f *Fake) SetBaud(baud int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.isOpen {
		return ErrDeviceClosed
	}
	f.baud = baud
	return nil
}

func (f *Fake) AddFlag(flag uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.isOpen {
		return ErrDeviceClosed
	}
	f.attrs.CFlag |= flag
	return nil
}

func (f *Fake) RemoveFlag(flag uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.isOpen {
		return ErrDeviceClosed
	}
	f.attrs.CFlag &^= flag
	return nil
}

// Inject appends bytes that will be returned by subsequent Receive calls.
func (f *Fake) Inject(data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbound = append(f.inbound, data...)
}

// Outbound returns (and clears) everything written via Send so far.
func (f *Fake) Outbound() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.outbound
	f.outbound = nil
	return out
}

// Path and Baud expose what the most recent Open call was given, for
// tests that assert on reconnection targets.
func (f *Fake) Path() string { f.mu.Lock(); defer f.mu.Unlock(); return f.path }
func (f *Fake) Baud() int    { f.mu.Lock(); defer f.mu.Unlock(); return f.baud }

var _ Port = (*Fake)(nil)
