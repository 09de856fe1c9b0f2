// services/power/internal/console/console.go
package console

import (
	"context"
	"sync"
	"time"

	"powerswitch-go/errcode"
	"powerswitch-go/x/fmtx"

	"tinygo.org/x/drivers"
)

// Transport brings the console UART up and down. Open runs at construction
// and on every Reinit; Close releases the pins before deep low-power modes.
type Transport interface {
	Open() (drivers.UART, error)
	Close() error
}

// readable is implemented by ports that can signal new RX data.
type readable interface {
	Readable() <-chan struct{}
}

const defaultPoll = 10 * time.Millisecond

// Console is the debug console: blocking single-byte reads and formatted
// writes. Every call on a de-initialised console fails with errcode.NotReady.
type Console struct {
	mu    sync.Mutex
	t     Transport
	port  drivers.UART
	ready bool
	inits int

	poll time.Duration
}

func New(t Transport) (*Console, error) {
	c := &Console{t: t, poll: defaultPoll}
	if err := c.Reinit(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Console) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Inits counts successful (re)initialisations.
func (c *Console) Inits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inits
}

func (c *Console) current() (drivers.UART, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil, errcode.NotReady
	}
	return c.port, nil
}

func (c *Console) Write(p []byte) (int, error) {
	port, err := c.current()
	if err != nil {
		return 0, err
	}
	return port.Write(p)
}

func (c *Console) Printf(format string, a ...any) (int, error) {
	if _, err := c.current(); err != nil {
		return 0, err
	}
	return fmtx.Fprintf(c, format, a...)
}

// ReadKey blocks until one byte arrives or ctx ends.
func (c *Console) ReadKey(ctx context.Context) (byte, error) {
	var b [1]byte
	for {
		port, err := c.current()
		if err != nil {
			return 0, err
		}
		if port.Buffered() > 0 {
			n, err := port.Read(b[:])
			if err != nil {
				return 0, err
			}
			if n == 1 {
				return b[0], nil
			}
		}

		var wake <-chan struct{}
		if r, ok := port.(readable); ok {
			wake = r.Readable()
		}
		t := time.NewTimer(c.poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		case <-wake:
		case <-t.C:
		}
		t.Stop()
	}
}

// Deinit releases the console. A second call is a no-op.
func (c *Console) Deinit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		return nil
	}
	c.ready = false
	c.port = nil
	return c.t.Close()
}

// Reinit reopens the transport. It is safe on a console that is still up.
func (c *Console) Reinit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	port, err := c.t.Open()
	if err != nil {
		c.ready = false
		return errcode.Wrap("console.init", err)
	}
	c.port = port
	c.ready = true
	c.inits++
	return nil
}
