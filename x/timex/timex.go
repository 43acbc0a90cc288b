package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// ResetTimer stops t, drains a pending fire, and re-arms it for d.
func ResetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		DrainTimer(t)
	}
	t.Reset(d)
}

// DrainTimer discards a pending fire without blocking.
func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}

// Backoff doubles d, capping the result at max.
func Backoff(d, max time.Duration) time.Duration {
	if d <= 0 {
		return time.Microsecond
	}
	if d >= max/2 {
		return max
	}
	return d * 2
}
