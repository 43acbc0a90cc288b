// Package usart drives a USART as a blocking SPI master through the vendor
// SPIDRV layer.
package usart

import (
	"math"
	"time"

	"geckohal/emlib"
	"geckohal/errcode"
	"geckohal/periph"
)

// Location selects one of the 32 route locations of a USART signal.
type Location uint8

// MaxLocation is the highest route location on series-1 parts.
const MaxLocation Location = 31

// Pins holds the route location of each SPI signal.
type Pins struct {
	TX  Location // MOSI
	RX  Location // MISO
	CLK Location
	CS  Location
}

func (p Pins) valid() bool {
	return p.TX <= MaxLocation && p.RX <= MaxLocation && p.CLK <= MaxLocation && p.CS <= MaxLocation
}

// Polarity is the idle level of the clock line.
type Polarity uint8

const (
	IdleLow Polarity = iota
	IdleHigh
)

// Phase selects the clock edge data is captured on.
type Phase uint8

const (
	CaptureOnFirstTransition Phase = iota
	CaptureOnSecondTransition
)

// Mode is the SPI clock mode as a (polarity, phase) pair.
//
//	Mode0: idle low,  capture on first (rising) edge
//	Mode1: idle low,  capture on second (falling) edge
//	Mode2: idle high, capture on first (falling) edge
//	Mode3: idle high, capture on second (rising) edge
type Mode struct {
	Polarity Polarity
	Phase    Phase
}

var (
	Mode0 = Mode{IdleLow, CaptureOnFirstTransition}
	Mode1 = Mode{IdleLow, CaptureOnSecondTransition}
	Mode2 = Mode{IdleHigh, CaptureOnFirstTransition}
	Mode3 = Mode{IdleHigh, CaptureOnSecondTransition}
)

// ModeNumber returns the mode for a conventional 0-3 mode number.
func ModeNumber(n int) (Mode, bool) {
	switch n {
	case 0:
		return Mode0, true
	case 1:
		return Mode1, true
	case 2:
		return Mode2, true
	case 3:
		return Mode3, true
	}
	return Mode{}, false
}

func (m Mode) clockMode() (emlib.SPIDRVClockMode, bool) {
	switch m {
	case Mode0:
		return emlib.SPIDRVClockMode0, true
	case Mode1:
		return emlib.SPIDRVClockMode1, true
	case Mode2:
		return emlib.SPIDRVClockMode2, true
	case Mode3:
		return emlib.SPIDRVClockMode3, true
	}
	return 0, false
}

// BitOrder selects which bit is shifted first.
type BitOrder uint8

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

func (o BitOrder) vendor() (emlib.SPIDRVBitOrder, bool) {
	switch o {
	case MSBFirst:
		return emlib.SPIDRVBitOrderMsbFirst, true
	case LSBFirst:
		return emlib.SPIDRVBitOrderLsbFirst, true
	}
	return 0, false
}

// Config is the construction configuration of an SPI session.
type Config struct {
	Pins    Pins
	BitRate uint32
	Mode    Mode
	Order   BitOrder
}

// Fixed session parameters.
const (
	frameLength  = 8
	dummyTxValue = 0
)

// SPI is a USART running as an SPI master. Transfers block until the
// vendor layer returns. Not safe for concurrent use.
type SPI struct {
	port   *periph.USART
	lib    emlib.SPIDRVLib
	handle *emlib.SPIDRVHandle
	init   emlib.SPIDRVInit
	cfg    Config

	closed  bool
	delay   time.Duration
	scratch []byte
}

// NewSPI binds port and starts an SPI master session on it. On any
// failure the port is left unbound.
func NewSPI(port *periph.USART, pins Pins, bitRate uint32, mode Mode, order BitOrder) (*SPI, error) {
	const op = "usart.new"
	if port == nil || port.Lib() == nil {
		return nil, errcode.Wrap(errcode.InvalidHandle, op, nil)
	}
	if !pins.valid() {
		return nil, &errcode.E{C: errcode.InvalidPin, Op: op, Msg: "route location above 31"}
	}
	init, err := buildInit(port.Base(), pins, bitRate, mode, order)
	if err != nil {
		return nil, err
	}

	release, err := port.Bind()
	if err != nil {
		return nil, errcode.Wrap(errcode.Of(err), op, nil)
	}
	s := &SPI{
		port:   port,
		lib:    port.Lib(),
		handle: new(emlib.SPIDRVHandle),
		init:   init,
		cfg:    Config{Pins: pins, BitRate: bitRate, Mode: mode, Order: order},
	}
	if code := s.lib.Init(s.handle, &s.init); code != emlib.ECodeOK {
		release()
		return nil, &errcode.E{C: errcode.Unknown, Op: "usart.init", Err: code}
	}
	return s, nil
}

func buildInit(base emlib.Addr, pins Pins, bitRate uint32, mode Mode, order BitOrder) (emlib.SPIDRVInit, error) {
	const op = "usart.new"
	if bitRate == 0 {
		return emlib.SPIDRVInit{}, &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "bit rate is zero"}
	}
	cm, ok := mode.clockMode()
	if !ok {
		return emlib.SPIDRVInit{}, &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "unknown clock mode"}
	}
	bo, ok := order.vendor()
	if !ok {
		return emlib.SPIDRVInit{}, &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "unknown bit order"}
	}
	return emlib.SPIDRVInit{
		Port:            base,
		PortLocationTx:  uint8(pins.TX),
		PortLocationRx:  uint8(pins.RX),
		PortLocationClk: uint8(pins.CLK),
		PortLocationCs:  uint8(pins.CS),
		BitRate:         bitRate,
		FrameLength:     frameLength,
		DummyTxValue:    dummyTxValue,
		Type:            emlib.SPIDRVMaster,
		BitOrder:        bo,
		ClockMode:       cm,
		CsControl:       emlib.SPIDRVCsControlAuto,
		SlaveStartMode:  emlib.SPIDRVSlaveStartImmediate,
	}, nil
}

func (s *SPI) check(op string, n int) error {
	if s.closed {
		return errcode.Wrap(errcode.Closed, op, nil)
	}
	if int64(n) > math.MaxInt32 {
		return &errcode.E{C: errcode.TransferTooBig, Op: op, Msg: "length exceeds int32"}
	}
	return nil
}

// Transfer shifts buf out and replaces it in place with the bytes shifted
// in, returning buf. An empty buf is a no-op.
func (s *SPI) Transfer(buf []byte) ([]byte, error) {
	const op = "usart.transfer"
	if err := s.check(op, len(buf)); err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return buf, nil
	}
	if code := s.lib.MTransferB(s.handle, buf, buf, int32(len(buf))); code != emlib.ECodeOK {
		return nil, &errcode.E{C: errcode.Unknown, Op: op, Err: code}
	}
	return buf, nil
}

// Write shifts buf out and discards whatever is received.
func (s *SPI) Write(buf []byte) error {
	const op = "usart.write"
	if err := s.check(op, len(buf)); err != nil {
		return err
	}
	if len(buf) == 0 {
		return nil
	}
	if code := s.lib.MTransmitB(s.handle, buf, int32(len(buf))); code != emlib.ECodeOK {
		return &errcode.E{C: errcode.Unknown, Op: op, Err: code}
	}
	return nil
}

// SetBitRate changes the clock rate of the running session.
func (s *SPI) SetBitRate(bitRate uint32) error {
	const op = "usart.set_bit_rate"
	if s.closed {
		return errcode.Wrap(errcode.Closed, op, nil)
	}
	if bitRate == 0 {
		return &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "bit rate is zero"}
	}
	if code := s.lib.SetBitrate(s.handle, bitRate); code != emlib.ECodeOK {
		return &errcode.E{C: errcode.Unknown, Op: op, Err: code}
	}
	s.init.BitRate = bitRate
	s.cfg.BitRate = bitRate
	return nil
}

// reconfigure restarts the session with a new clock mode or bit order.
// If the new session cannot start, the previous one is restored; if that
// fails too the driver is closed.
func (s *SPI) reconfigure(mode Mode, order BitOrder) error {
	const op = "usart.reconfigure"
	if s.closed {
		return errcode.Wrap(errcode.Closed, op, nil)
	}
	next, err := buildInit(s.init.Port, s.cfg.Pins, s.cfg.BitRate, mode, order)
	if err != nil {
		return err
	}
	if code := s.lib.DeInit(s.handle); code != emlib.ECodeOK {
		return &errcode.E{C: errcode.Unknown, Op: op, Err: code}
	}
	prev := s.init
	s.init = next
	code := s.lib.Init(s.handle, &s.init)
	if code == emlib.ECodeOK {
		s.cfg.Mode, s.cfg.Order = mode, order
		return nil
	}
	s.init = prev
	if s.lib.Init(s.handle, &s.init) != emlib.ECodeOK {
		s.closed = true
		return &errcode.E{C: errcode.Unknown, Op: op, Msg: "session lost", Err: code}
	}
	return &errcode.E{C: errcode.Unknown, Op: op, Err: code}
}

// Close ends the session. The USART stays bound to this driver; later
// calls fail with errcode.Closed.
func (s *SPI) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if code := s.lib.DeInit(s.handle); code != emlib.ECodeOK {
		return &errcode.E{C: errcode.Unknown, Op: "usart.close", Err: code}
	}
	return nil
}

// Config returns the current session configuration.
func (s *SPI) Config() Config { return s.cfg }

// BitRate is the clock rate the hardware produces, as reported by the
// vendor layer.
func (s *SPI) BitRate() uint32 { return s.handle.BitRate }

// Base reports the register block address.
func (s *SPI) Base() emlib.Addr { return s.init.Port }
