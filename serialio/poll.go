// Package serialio turns the non-blocking serial primitives into
// context-bounded blocking calls and runs background frame readers.
package serialio

import (
	"context"
	"time"

	"geckohal/errcode"
	"geckohal/x/timex"
)

// ByteReader, ByteWriter and Flusher are the non-blocking primitives of a
// serial port. They return errcode.WouldBlock when the hardware is not
// ready.
type ByteReader interface {
	ReadByte() (byte, error)
}

type ByteWriter interface {
	WriteByte(b byte) error
}

type Flusher interface {
	Flush() error
}

// Port is a complete non-blocking serial port, such as *leuart.Serial.
type Port interface {
	ByteReader
	ByteWriter
	Flusher
}

// Poll interval bounds. Waiting starts at MinPoll and doubles up to MaxPoll.
const (
	MinPoll = 50 * time.Microsecond
	MaxPoll = 5 * time.Millisecond
)

type poller struct {
	delay time.Duration
	timer *time.Timer
}

// wait sleeps for the next backoff step or until ctx is done.
func (p *poller) wait(ctx context.Context) error {
	p.delay = timex.Backoff(p.delay, MaxPoll)
	if p.delay < MinPoll {
		p.delay = MinPoll
	}
	if p.timer == nil {
		p.timer = time.NewTimer(p.delay)
	} else {
		timex.ResetTimer(p.timer, p.delay)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.timer.C:
		return nil
	}
}

func (p *poller) stop() {
	if p.timer != nil {
		p.timer.Stop()
	}
}

// retry calls fn until it returns something other than WouldBlock or ctx
// is done.
func retry(ctx context.Context, fn func() error) error {
	var p poller
	defer p.stop()
	for {
		err := fn()
		if !errcode.Transient(err) {
			return err
		}
		if err := p.wait(ctx); err != nil {
			return err
		}
	}
}

// ReadByte waits for one frame. Data-integrity errors are returned as the
// port reports them, with the flagged byte.
func ReadByte(ctx context.Context, r ByteReader) (byte, error) {
	var b byte
	err := retry(ctx, func() error {
		var err error
		b, err = r.ReadByte()
		return err
	})
	return b, err
}

// WriteByte waits for room in the transmit buffer and queues b.
func WriteByte(ctx context.Context, w ByteWriter, b byte) error {
	return retry(ctx, func() error { return w.WriteByte(b) })
}

// Flush waits until transmission is complete.
func Flush(ctx context.Context, f Flusher) error {
	return retry(ctx, f.Flush)
}

// Write queues every byte of p, returning the number queued.
func Write(ctx context.Context, w ByteWriter, p []byte) (int, error) {
	for i, b := range p {
		if err := WriteByte(ctx, w, b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}
