package usart

import (
	"time"

	"geckohal/errcode"

	"golang.org/x/exp/io/spi"
	"golang.org/x/exp/io/spi/driver"
	"tinygo.org/x/drivers"
)

// Bus exposes the session as a tinygo drivers.SPI so device drivers can
// run on it.
func (s *SPI) Bus() drivers.SPI { return bus{s} }

type bus struct{ s *SPI }

// Tx writes w and reads into r. Unequal lengths are allowed: missing
// output is padded with the dummy value and extra input is discarded.
func (b bus) Tx(w, r []byte) error { return b.s.tx(w, r) }

func (b bus) Transfer(w byte) (byte, error) {
	var one = [1]byte{w}
	if _, err := b.s.Transfer(one[:]); err != nil {
		return 0, err
	}
	return one[0], nil
}

func (s *SPI) tx(w, r []byte) error {
	if len(r) == 0 {
		return s.Write(w)
	}
	n := max(len(w), len(r))
	if cap(s.scratch) < n {
		s.scratch = make([]byte, n)
	}
	buf := s.scratch[:n]
	copy(buf, w)
	clear(buf[len(w):])
	if _, err := s.Transfer(buf); err != nil {
		return err
	}
	copy(r, buf)
	return nil
}

// Open implements driver.Opener, so the session can be driven through
// golang.org/x/exp/io/spi. Closing the connection closes the session.
func (s *SPI) Open() (driver.Conn, error) {
	if s.closed {
		return nil, errcode.Wrap(errcode.Closed, "usart.open", nil)
	}
	return &conn{s: s}, nil
}

var _ driver.Opener = (*SPI)(nil)

type conn struct{ s *SPI }

func (c *conn) Configure(k, v int) error {
	const op = "usart.configure"
	s := c.s
	switch k {
	case driver.Mode:
		m, ok := ModeNumber(v)
		if !ok {
			return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "mode must be 0-3"}
		}
		if m == s.cfg.Mode {
			return nil
		}
		return s.reconfigure(m, s.cfg.Order)
	case driver.Bits:
		if v != frameLength {
			return &errcode.E{C: errcode.Unsupported, Op: op, Msg: "only 8-bit frames"}
		}
		return nil
	case driver.MaxSpeed:
		if v <= 0 {
			return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "speed must be positive"}
		}
		return s.SetBitRate(uint32(v))
	case driver.Order:
		o := MSBFirst
		if spi.Order(v) != spi.MSBFirst {
			o = LSBFirst
		}
		if o == s.cfg.Order {
			return nil
		}
		return s.reconfigure(s.cfg.Mode, o)
	case driver.Delay:
		if v < 0 {
			return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "negative delay"}
		}
		s.delay = time.Duration(v) * time.Microsecond
		return nil
	case driver.CSChange:
		if v != 0 {
			return &errcode.E{C: errcode.Unsupported, Op: op, Msg: "chip select is driven by hardware"}
		}
		return nil
	}
	return &errcode.E{C: errcode.Unsupported, Op: op, Msg: "unknown key"}
}

func (c *conn) Tx(w, r []byte) error {
	if w != nil && r != nil && len(w) != len(r) {
		return &errcode.E{C: errcode.InvalidConfig, Op: "usart.tx", Msg: "w and r lengths differ"}
	}
	if err := c.s.tx(w, r); err != nil {
		return err
	}
	if c.s.delay > 0 {
		time.Sleep(c.s.delay)
	}
	return nil
}

func (c *conn) Close() error { return c.s.Close() }
