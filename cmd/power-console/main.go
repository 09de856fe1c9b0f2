// Command power-console is a terminal for the demo running on a board. Each
// line typed is sent without its line ending, so "b<Enter>" selects Sleep;
// board output is copied to stdout. The port is reopened if it goes away,
// for example when the debug probe re-enumerates after a board reset.
//
//	go run ./cmd/power-console -port /dev/ttyACM0
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"powerswitch-go/services/power/platform"

	"go.bug.st/serial"
)

const reopenDelay = 500 * time.Millisecond

func main() {
	port := flag.String("port", "/dev/ttyACM0", "serial device")
	baud := flag.Int("baud", 115200, "baud rate")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var r relay
	keys := platform.KeyFilter(os.Stdin)
	go func() {
		if err := r.forward(keys); err != nil {
			stop()
		}
	}()

	open := func() (io.ReadWriteCloser, error) {
		return serial.Open(*port, &serial.Mode{BaudRate: *baud})
	}
	r.serve(ctx, open, os.Stdout, reopenDelay)
}

// relay connects stdin and stdout to whichever port is currently open.
type relay struct {
	mu  sync.Mutex
	cur io.Writer
}

// forward copies keys to the current port until r fails.
func (r *relay) forward(keys io.Reader) error {
	buf := make([]byte, 64)
	for {
		n, err := keys.Read(buf)
		r.mu.Lock()
		p := r.cur
		r.mu.Unlock()
		if n > 0 && p != nil {
			if _, werr := p.Write(buf[:n]); werr != nil {
				println("[console] write:", werr.Error())
			}
		}
		if err != nil {
			return err
		}
	}
}

// serve opens a port, copies it to out until it fails, and reopens it after
// delay, until ctx ends. Each port is closed exactly once.
func (r *relay) serve(ctx context.Context, open func() (io.ReadWriteCloser, error), out io.Writer, delay time.Duration) {
	for ctx.Err() == nil {
		p, err := open()
		if err != nil {
			println("[console] open:", err.Error())
			sleep(ctx, delay)
			continue
		}
		r.mu.Lock()
		r.cur = p
		r.mu.Unlock()

		// Closing the port is what unblocks the copy on shutdown.
		var once sync.Once
		closePort := func() { once.Do(func() { p.Close() }) }
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				closePort()
			case <-done:
			}
		}()
		_, err = io.Copy(out, p)
		close(done)

		r.mu.Lock()
		r.cur = nil
		r.mu.Unlock()
		closePort()
		if ctx.Err() == nil {
			println("[console] port lost, reopening:", errString(err))
			sleep(ctx, delay)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func errString(err error) string {
	if err == nil {
		return "EOF"
	}
	return err.Error()
}
