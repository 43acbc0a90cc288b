package serialio

import (
	"context"
	"time"

	"geckohal/errcode"
	"geckohal/x/mathx"
	"geckohal/x/timex"
)

// Event is one received chunk or line, or a data-integrity error.
type Event struct {
	Port string
	Data []byte
	Err  error // errcode.Overrun, errcode.Parity or errcode.Framing
	TS   time.Time
}

type ReaderCfg struct {
	Name      string
	Port      ByteReader
	Mode      string        // "bytes" | "lines"
	MaxFrame  int           // clamp 16..256
	IdleFlush time.Duration // clamp 0..2s (lines mode)
}

type Worker struct {
	outQ chan Event
}

func NewWorker(outBuf int) *Worker {
	if outBuf <= 0 {
		outBuf = 64
	}
	return &Worker{outQ: make(chan Event, outBuf)}
}

func (w *Worker) Events() <-chan Event { return w.outQ }

func (w *Worker) emit(ev Event) {
	select {
	case w.outQ <- ev:
	default:
		// drop if consumer is slow
	}
}

// Register starts a polling reader goroutine for a port. Returns cancel.
// Overrun, parity and framing errors are reported and reading continues;
// any other port error is reported once and ends the reader.
func (w *Worker) Register(ctx context.Context, cfg ReaderCfg) (func(), error) {
	if cfg.Port == nil {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "serialio.register", Msg: "nil port"}
	}
	if cfg.Mode != "bytes" && cfg.Mode != "lines" {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "serialio.register", Msg: "mode must be bytes or lines"}
	}
	max := mathx.Clamp(cfg.MaxFrame, 16, 256)
	idle := mathx.Clamp(cfg.IdleFlush, 0, 2*time.Second)
	cctx, cancel := context.WithCancel(ctx)

	go w.run(cctx, cfg, max, idle)
	return cancel, nil
}

func (w *Worker) run(ctx context.Context, cfg ReaderCfg, max int, idle time.Duration) {
	lines := cfg.Mode == "lines"
	frame := make([]byte, 0, max)
	var lastRx time.Time

	flush := func(now time.Time) {
		if len(frame) == 0 {
			return
		}
		w.emit(Event{Port: cfg.Name, Data: append([]byte(nil), frame...), TS: now})
		frame = frame[:0]
	}

	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	delay := time.Duration(0)

	for {
		got := false
		for n := 0; n < max; n++ {
			if ctx.Err() != nil {
				return
			}
			b, err := cfg.Port.ReadByte()
			if errcode.Transient(err) {
				break
			}
			got = true
			now := time.Now()
			if err != nil {
				flush(now)
				ev := Event{Port: cfg.Name, Err: err, TS: now}
				switch errcode.Of(err) {
				case errcode.Parity, errcode.Framing:
					ev.Data = []byte{b}
				case errcode.Overrun:
				default:
					// the port is unusable; report once and stop
					w.emit(ev)
					return
				}
				w.emit(ev)
				continue
			}
			if lines {
				switch b {
				case '\n':
					flush(now)
					continue
				case '\r':
					continue
				}
			}
			frame = append(frame, b)
			if len(frame) == max {
				flush(now)
			}
		}

		now := time.Now()
		if got {
			lastRx = now
			delay = 0
			if !lines {
				flush(now)
			}
		}
		if lines && idle > 0 && len(frame) > 0 && now.Sub(lastRx) >= idle {
			flush(now)
		}

		delay = mathx.Max(timex.Backoff(delay, MaxPoll), MinPoll)
		timex.ResetTimer(timer, delay)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}
