package console

import (
	"io"
	"sync"

	"powerswitch-go/x/shmring"

	"tinygo.org/x/drivers"
)

var _ drivers.UART = (*Stream)(nil)

// Stream is a host Transport over a reader/writer pair (stdin/stdout in the
// demo). A pump goroutine moves input into an RX ring, as a UART interrupt
// would.
type Stream struct {
	r  io.Reader
	w  io.Writer
	rx *shmring.Ring

	once   sync.Once
	mu     sync.Mutex
	open   bool
	opens  int
	closes int
}

func NewStream(r io.Reader, w io.Writer) *Stream {
	return &Stream{r: r, w: w, rx: shmring.New(256)}
}

func (s *Stream) Open() (drivers.UART, error) {
	s.once.Do(func() { go s.pump() })
	s.mu.Lock()
	s.open = true
	s.opens++
	s.mu.Unlock()
	return s, nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	s.open = false
	s.closes++
	s.mu.Unlock()
	return nil
}

// Counts reports Open and Close calls.
func (s *Stream) Counts() (opens, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens, s.closes
}

func (s *Stream) pump() {
	var buf [64]byte
	for {
		n, err := s.r.Read(buf[:])
		p := buf[:n]
		for len(p) > 0 {
			w := s.rx.TryWriteFrom(p)
			p = p[w:]
			if len(p) > 0 {
				<-s.rx.Writable()
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Stream) Read(p []byte) (int, error) { return s.rx.TryReadInto(p), nil }
func (s *Stream) Buffered() int              { return s.rx.Available() }
func (s *Stream) Readable() <-chan struct{}  { return s.rx.Readable() }

func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	open := s.open
	s.mu.Unlock()
	if !open {
		// TX pins are released; output is lost as on hardware.
		return len(p), nil
	}
	return s.w.Write(p)
}
