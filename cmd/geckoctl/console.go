//go:build !efr32

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"geckohal/boards"
	"geckohal/errcode"
	"geckohal/leuart"
	"geckohal/periph"
	"geckohal/serialio"
	"geckohal/usart"
	"geckohal/x/fmtx"

	"github.com/google/shlex"
)

const helpText = `commands:
  take
  serial open <baud> [rx|tx|rxtx|disabled] [none|even|odd] [1|2]
  serial write <text>
  serial read [n]
  serial flush
  spi open <usart0|usart1> [bitrate [mode 0-3] [msb|lsb] [tx rx clk cs]]
  spi xfer <usart0|usart1> <hex>
  spi write <usart0|usart1> <hex>
  status
  help
  quit
`

var errUsage = errors.New("usage")

type console struct {
	take    func() (*periph.Peripherals, error)
	board   boards.Board
	out     io.Writer
	timeout time.Duration

	p      *periph.Peripherals
	serial *leuart.Serial
	spis   map[string]*usart.SPI
}

func newConsole(take func() (*periph.Peripherals, error), board boards.Board, out io.Writer, timeout time.Duration) *console {
	return &console{take: take, board: board, out: out, timeout: timeout, spis: map[string]*usart.SPI{}}
}

// run tokenises and executes one line. It reports true on quit.
func (c *console) run(ctx context.Context, line string) (bool, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return false, err
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return false, nil
	}
	switch args[0] {
	case "quit", "exit":
		return true, nil
	case "help":
		_, err = fmtx.Fprint(c.out, helpText)
	case "take":
		err = c.doTake()
	case "status":
		c.status()
	case "serial":
		err = c.doSerial(ctx, args[1:])
	case "spi":
		err = c.doSPI(args[1:])
	default:
		err = errUsage
	}
	return false, err
}

func (c *console) doTake() error {
	if c.p != nil {
		return nil
	}
	p, err := c.take()
	if err != nil {
		return err
	}
	c.p = p
	fmtx.Fprintf(c.out, "claimed LEUART0@0x%X USART0@0x%X USART1@0x%X\n",
		uint32(p.LEUART0.Base()), uint32(p.USART0.Base()), uint32(p.USART1.Base()))
	return nil
}

func (c *console) peripherals() (*periph.Peripherals, error) {
	if c.p == nil {
		if err := c.doTake(); err != nil {
			return nil, err
		}
	}
	return c.p, nil
}

func (c *console) status() {
	fmtx.Fprintf(c.out, "board=%s claimed=%t\n", orNone(c.board.Name), c.p != nil)
	if s := c.serial; s != nil {
		cfg := s.Config()
		fmtx.Fprintf(c.out, "leuart0 baud=%d actual=%d mode=%s parity=%s stop=%s\n",
			cfg.BaudRate, s.BaudRate(), cfg.Mode.String(), cfg.Parity.String(), cfg.StopBits.String())
	}
	for id, s := range c.spis {
		cfg := s.Config()
		fmtx.Fprintf(c.out, "%s bitrate=%d actual=%d\n", id, cfg.BitRate, s.BitRate())
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// ---------- serial ----------

func (c *console) doSerial(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if args[0] == "open" {
		return c.serialOpen(args[1:])
	}
	s := c.serial
	if s == nil {
		return errcode.Wrap(errcode.NotReady, "serial", errors.New("port not open"))
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch args[0] {
	case "write":
		msg := []byte(strings.Join(args[1:], " "))
		if _, err := serialio.Write(ctx, s, msg); err != nil {
			return err
		}
		return serialio.Flush(ctx, s)
	case "flush":
		return serialio.Flush(ctx, s)
	case "read":
		n := 1
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v <= 0 {
				return errUsage
			}
			n = v
		}
		return c.serialRead(ctx, s, n)
	}
	return errUsage
}

func (c *console) serialOpen(args []string) error {
	if c.serial != nil {
		return errcode.Wrap(errcode.HandleInUse, "serial.open", nil)
	}
	if len(args) == 0 {
		return errUsage
	}
	baud, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return errUsage
	}
	mode, parity, stop := leuart.TransmitAndReceive, leuart.NoParity, leuart.OneStopBit
	if len(args) > 1 {
		if mode, err = parseMode(args[1]); err != nil {
			return err
		}
	}
	if len(args) > 2 {
		if parity, err = parseParity(args[2]); err != nil {
			return err
		}
	}
	if len(args) > 3 {
		if stop, err = parseStop(args[3]); err != nil {
			return err
		}
	}
	p, err := c.peripherals()
	if err != nil {
		return err
	}
	s, err := leuart.New(p.LEUART0, uint32(baud), mode, parity, stop)
	if err != nil {
		return err
	}
	c.serial = s
	fmtx.Fprintf(c.out, "leuart0 open at %d baud (actual %d)\n", uint32(baud), s.BaudRate())
	return nil
}

func (c *console) serialRead(ctx context.Context, s *leuart.Serial, n int) error {
	buf := make([]byte, 0, n)
	var rerr error
	for len(buf) < n {
		b, err := serialio.ReadByte(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			rerr = err
			if err == errcode.Parity || err == errcode.Framing {
				buf = append(buf, b)
			}
			break
		}
		buf = append(buf, b)
	}
	fmtx.Fprintf(c.out, "rx %d: %s %q\n", len(buf), hex.EncodeToString(buf), string(buf))
	return rerr
}

func parseMode(s string) (leuart.Mode, error) {
	for _, m := range []leuart.Mode{leuart.Disabled, leuart.ReceiveOnly, leuart.TransmitOnly, leuart.TransmitAndReceive} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, errUsage
}

func parseParity(s string) (leuart.Parity, error) {
	for _, p := range []leuart.Parity{leuart.NoParity, leuart.EvenParity, leuart.OddParity} {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, errUsage
}

func parseStop(s string) (leuart.StopBits, error) {
	for _, b := range []leuart.StopBits{leuart.OneStopBit, leuart.TwoStopBits} {
		if b.String() == s {
			return b, nil
		}
	}
	return 0, errUsage
}

// ---------- spi ----------

func (c *console) doSPI(args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	verb, id := args[0], args[1]
	if verb == "open" {
		return c.spiOpen(id, args[2:])
	}
	s, ok := c.spis[id]
	if !ok {
		return errcode.Wrap(errcode.NotReady, "spi", errors.New(id+" not open"))
	}
	if len(args) < 3 {
		return errUsage
	}
	data, err := hex.DecodeString(strings.Join(args[2:], ""))
	if err != nil {
		return err
	}
	switch verb {
	case "xfer":
		rx, err := s.Transfer(data)
		if err != nil {
			return err
		}
		fmtx.Fprintf(c.out, "%s rx: %s\n", id, hex.EncodeToString(rx))
		return nil
	case "write":
		return s.Write(data)
	}
	return errUsage
}

func (c *console) spiOpen(id string, args []string) error {
	if _, ok := c.spis[id]; ok {
		return errcode.Wrap(errcode.HandleInUse, "spi.open", nil)
	}
	p, err := c.peripherals()
	if err != nil {
		return err
	}
	var s *usart.SPI
	if len(args) == 0 {
		s, err = c.board.Plan.OpenSPI(p, id)
	} else {
		s, err = openSPIArgs(p, id, args)
	}
	if err != nil {
		return err
	}
	c.spis[id] = s
	fmtx.Fprintf(c.out, "%s open at %d bit/s\n", id, s.BitRate())
	return nil
}

func openSPIArgs(p *periph.Peripherals, id string, args []string) (*usart.SPI, error) {
	port := boards.USART(p, id)
	if port == nil {
		return nil, errUsage
	}
	rate, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return nil, errUsage
	}
	mode, order := usart.Mode0, usart.MSBFirst
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		m, ok := usart.ModeNumber(n)
		if err != nil || !ok {
			return nil, errUsage
		}
		mode = m
	}
	if len(args) > 2 {
		switch args[2] {
		case "msb":
		case "lsb":
			order = usart.LSBFirst
		default:
			return nil, errUsage
		}
	}
	var pins usart.Pins
	if len(args) > 3 {
		if len(args) != 7 {
			return nil, errUsage
		}
		var loc [4]usart.Location
		for i, a := range args[3:7] {
			v, err := strconv.ParseUint(a, 10, 8)
			if err != nil {
				return nil, errUsage
			}
			loc[i] = usart.Location(v)
		}
		pins = usart.Pins{TX: loc[0], RX: loc[1], CLK: loc[2], CS: loc[3]}
	}
	return usart.NewSPI(port, pins, uint32(rate), mode, order)
}
