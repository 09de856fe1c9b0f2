package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ticks is the number of whole cycles of a hz clock in d, at least 1.
func Ticks(hz uint32, d time.Duration) uint32 {
	n := uint64(hz) * uint64(d) / uint64(time.Second)
	if n == 0 {
		return 1
	}
	return uint32(n)
}
