//go:build !efr32

// Command geckoctl is a host console for bringing up LEUART and SPI
// drivers against a serial adapter.
package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"time"

	"geckohal/boards"
	"geckohal/emlib"
	"geckohal/emlib/hostlib"
	"geckohal/periph"
	"geckohal/x/fmtx"
)

func main() {
	dev := flag.String("leuart0", "", "serial device backing LEUART0 (e.g. /dev/ttyUSB0)")
	script := flag.String("script", "", "read commands from file instead of stdin")
	board := flag.String("board", "", "board plan used by 'spi open <id>' (brd4100a, brd4160a)")
	ref := flag.Uint("refclk", hostlib.DefaultRefFreq, "LEUART reference clock in Hz")
	timeout := flag.Duration("timeout", 2*time.Second, "per-command serial timeout")
	flag.Parse()

	ports := map[emlib.Addr]string{}
	if *dev != "" {
		ports[emlib.LEUART0Base] = *dev
	}
	lib := hostlib.New(ports, hostlib.WithRefFreq(uint32(*ref)))
	emlib.SetDefault(lib)
	if l, ok := lib.LEUART.(*hostlib.LEUART); ok {
		defer l.Close()
	}

	b := boards.Selected
	if *board != "" {
		var ok bool
		if b, ok = boards.ByName(*board); !ok {
			fmtx.Fprintf(os.Stderr, "unknown board %q\n", *board)
			os.Exit(2)
		}
	}

	in := io.Reader(os.Stdin)
	interactive := *script == ""
	if !interactive {
		f, err := os.Open(*script)
		if err != nil {
			fmtx.Fprintf(os.Stderr, "open script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	c := newConsole(periph.Take, b, os.Stdout, *timeout)
	if err := repl(context.Background(), c, in, interactive); err != nil {
		fmtx.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// repl executes lines until EOF or quit. In script mode the first failing
// command aborts the run.
func repl(ctx context.Context, c *console, in io.Reader, interactive bool) error {
	sc := bufio.NewScanner(in)
	for {
		if interactive {
			fmtx.Fprint(c.out, "> ")
		}
		if !sc.Scan() {
			return sc.Err()
		}
		quit, err := c.run(ctx, sc.Text())
		if err != nil {
			if !interactive {
				return err
			}
			fmtx.Fprintf(c.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}
