package frame

import (
	"sync"

	"tinygo.org/x/drivers"
)

var _ drivers.SPI = (*Loopback)(nil)

// Loopback is an SPI port with MOSI wired to MISO: every byte sent is the
// byte received.
type Loopback struct {
	mu       sync.Mutex
	Settings Settings
	sent     []byte
}

// NewLoopback returns a PortFactory that opens a fresh Loopback per call and
// reports each one through opened, which may be nil.
func NewLoopback(opened func(*Loopback)) PortFactory {
	return func(s Settings) (drivers.SPI, error) {
		l := &Loopback{Settings: s}
		if opened != nil {
			opened(l)
		}
		return l, nil
	}
}

// Tx echoes w into r. A nil w sends zeros; a nil r discards.
func (l *Loopback) Tx(w, r []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := max(len(w), len(r))
	for i := 0; i < n; i++ {
		var b byte
		if i < len(w) {
			b = w[i]
		}
		l.sent = append(l.sent, b)
		if i < len(r) {
			r[i] = b
		}
	}
	return nil
}

// Transfer echoes a single byte
func (l *Loopback) Transfer(b byte) (byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, b)
	return b, nil
}

// Sent returns every byte shifted out so far
func (l *Loopback) Sent() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]byte(nil), l.sent...)
}
