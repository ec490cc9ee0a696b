package hosts

import (
	"time"
)

// ClockHost exposes wall and monotonic time in milliseconds.
type ClockHost struct {
	now       func() time.Time
	startTime time.Time
}

func NewClockHost() *ClockHost {
	return &ClockHost{
		now:       time.Now,
		startTime: time.Now(),
	}
}

func (h *ClockHost) Namespace() string {
	return "clock"
}

// Now returns Unix time in milliseconds, like Date.now().
func (h *ClockHost) Now() int64 {
	return h.now().UnixMilli()
}

// Iso returns the current time in RFC 3339 format with nanoseconds.
func (h *ClockHost) Iso() string {
	return h.now().UTC().Format(time.RFC3339Nano)
}

// Monotonic returns milliseconds elapsed since the host was created.
func (h *ClockHost) Monotonic() float64 {
	return float64(time.Since(h.startTime).Nanoseconds()) / float64(time.Millisecond)
}
