package replica

import "time"

// WallClock supplies the wall-clock millisecond timestamps stamped onto
// local operations. Timestamps drive last-write-wins resolution, so tests
// inject scripted clocks to make outcomes reproducible.
type WallClock interface {
	NowMillis() int64
}

// SystemClock reads the real system time.
type SystemClock struct{}

// NowMillis returns the current Unix time in milliseconds.
func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}
