package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"powerswitch-go/errcode"

	"tinygo.org/x/drivers"
)

func TestStream_ReadWrite(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader("b"), &out)
	c, err := New(s)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ch, err := c.ReadKey(ctx)
	if err != nil || ch != 'b' {
		t.Fatalf("ReadKey = %q, %v", ch, err)
	}

	if _, err := c.Printf("Power mode: %s\r\n", "Active"); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "Power mode: Active\r\n" {
		t.Fatalf("out = %q", got)
	}
}

func TestReadKey_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c, _ := New(NewStream(pr, io.Discard))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := c.ReadKey(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadKey_WakesOnLateInput(t *testing.T) {
	pr, pw := io.Pipe()
	c, _ := New(NewStream(pr, io.Discard))
	go func() {
		time.Sleep(20 * time.Millisecond)
		pw.Write([]byte("C"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ch, err := c.ReadKey(ctx)
	if err != nil || ch != 'C' {
		t.Fatalf("ReadKey = %q, %v", ch, err)
	}
}

func TestDeinit_NotReady(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader(""), &out)
	c, _ := New(s)

	if err := c.Deinit(); err != nil {
		t.Fatal(err)
	}
	if c.Ready() {
		t.Fatal("still ready after Deinit")
	}
	if _, err := c.Printf("x"); !errors.Is(err, errcode.NotReady) {
		t.Fatalf("Printf err = %v", err)
	}
	if _, err := c.ReadKey(context.Background()); !errors.Is(err, errcode.NotReady) {
		t.Fatalf("ReadKey err = %v", err)
	}
	// Second Deinit does not close the transport again.
	c.Deinit()
	if _, closes := s.Counts(); closes != 1 {
		t.Fatalf("closes = %d", closes)
	}
	if out.Len() != 0 {
		t.Fatalf("wrote while down: %q", out.String())
	}
}

func TestDeinitReinit_RoundTrip(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(strings.NewReader("d"), &out)
	c, _ := New(s)

	c.Deinit()
	if err := c.Reinit(); err != nil {
		t.Fatal(err)
	}
	if !c.Ready() || c.Inits() != 2 {
		t.Fatalf("ready=%v inits=%d", c.Ready(), c.Inits())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if ch, err := c.ReadKey(ctx); err != nil || ch != 'd' {
		t.Fatalf("ReadKey = %q, %v", ch, err)
	}
	if _, err := c.Printf("ok"); err != nil || out.String() != "ok" {
		t.Fatalf("Printf: %v, out=%q", err, out.String())
	}
}

type failTransport struct{}

func (failTransport) Open() (drivers.UART, error) { return nil, errcode.Busy }
func (failTransport) Close() error                { return nil }

func TestNew_OpenFailure(t *testing.T) {
	_, err := New(failTransport{})
	if !errors.Is(err, errcode.Busy) {
		t.Fatalf("err = %v", err)
	}
}
