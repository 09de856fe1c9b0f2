// services/power/platform/serial.go
package platform

import "tinygo.org/x/drivers"

const consoleBaud = 115200

// serialPort is the byte-level UART the debug console runs on.
type serialPort interface {
	Configure(baud uint32) error
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// serialTransport adapts a serialPort to drivers.UART. Open reconfigures
// the UART, which also restores its pin mux after a deep low-power mode;
// Close hands the pins to release so they stop driving the line.
type serialTransport struct {
	s       serialPort
	release func()
}

var _ drivers.UART = (*serialTransport)(nil)

func (t *serialTransport) Open() (drivers.UART, error) {
	if err := t.s.Configure(consoleBaud); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *serialTransport) Close() error {
	if t.release != nil {
		t.release()
	}
	return nil
}

func (t *serialTransport) Buffered() int { return t.s.Buffered() }

func (t *serialTransport) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) && t.s.Buffered() > 0 {
		b, err := t.s.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

func (t *serialTransport) Write(p []byte) (int, error) { return t.s.Write(p) }
