// Package leuart drives the low-energy UART as a non-blocking serial port.
//
// ReadByte, WriteByte and Flush never wait on hardware; a not-ready
// peripheral is reported as errcode.WouldBlock and the caller chooses how
// to retry (see package serialio). Read/Write/Buffered adapt the port to
// tinygo's drivers.UART.
package leuart

import (
	"runtime"

	"geckohal/emlib"
	"geckohal/errcode"
	"geckohal/periph"
	"geckohal/x/mathx"

	"tinygo.org/x/drivers"
)

// Mode selects which directions are enabled.
type Mode uint8

const (
	Disabled Mode = iota
	ReceiveOnly
	TransmitOnly
	TransmitAndReceive
)

func (m Mode) String() string {
	switch m {
	case Disabled:
		return "disabled"
	case ReceiveOnly:
		return "rx"
	case TransmitOnly:
		return "tx"
	case TransmitAndReceive:
		return "rxtx"
	}
	return "invalid"
}

func (m Mode) enable() (emlib.LEUARTEnable, bool) {
	switch m {
	case Disabled:
		return emlib.LEUARTDisable, true
	case ReceiveOnly:
		return emlib.LEUARTEnableRx, true
	case TransmitOnly:
		return emlib.LEUARTEnableTx, true
	case TransmitAndReceive:
		return emlib.LEUARTEnableRxTx, true
	}
	return 0, false
}

// Parity selects the parity bit.
type Parity uint8

const (
	NoParity Parity = iota
	EvenParity
	OddParity
)

func (p Parity) String() string {
	switch p {
	case NoParity:
		return "none"
	case EvenParity:
		return "even"
	case OddParity:
		return "odd"
	}
	return "invalid"
}

func (p Parity) vendor() (emlib.LEUARTParity, bool) {
	switch p {
	case NoParity:
		return emlib.LEUARTNoParity, true
	case EvenParity:
		return emlib.LEUARTEvenParity, true
	case OddParity:
		return emlib.LEUARTOddParity, true
	}
	return 0, false
}

// StopBits selects one or two stop bits.
type StopBits uint8

const (
	OneStopBit StopBits = iota
	TwoStopBits
)

func (s StopBits) String() string {
	switch s {
	case OneStopBit:
		return "1"
	case TwoStopBits:
		return "2"
	}
	return "invalid"
}

func (s StopBits) vendor() (emlib.LEUARTStopbits, bool) {
	switch s {
	case OneStopBit:
		return emlib.LEUARTStopbits1, true
	case TwoStopBits:
		return emlib.LEUARTStopbits2, true
	}
	return 0, false
}

// Config is the construction configuration of a Serial.
type Config struct {
	BaudRate uint32
	Mode     Mode
	Parity   Parity
	StopBits StopBits
}

// maxBaudErrorPct is the largest accepted deviation between the requested
// and the achievable rate.
const maxBaudErrorPct = 2

// Serial is a LEUART bound to its register block. Not safe for concurrent
// use; give each port a single owner.
type Serial struct {
	port *periph.LEUART
	lib  emlib.LEUARTLib
	base emlib.Addr
	cfg  Config
}

var _ drivers.UART = (*Serial)(nil)

// New validates the configuration, binds port and programs the peripheral
// for 8 data bits at baudRate. A rejected configuration leaves port
// unbound.
func New(port *periph.LEUART, baudRate uint32, mode Mode, parity Parity, stopBits StopBits) (*Serial, error) {
	const op = "leuart.new"
	if port == nil || port.Lib() == nil {
		return nil, errcode.Wrap(errcode.InvalidHandle, op, nil)
	}
	enable, ok1 := mode.enable()
	par, ok2 := parity.vendor()
	stop, ok3 := stopBits.vendor()
	if !ok1 || !ok2 || !ok3 {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "unknown mode, parity or stop bits"}
	}

	lib, base := port.Lib(), port.Base()
	if msg := checkBaud(lib.ClockFreq(base), baudRate); msg != "" {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: msg}
	}

	if _, err := port.Bind(); err != nil {
		return nil, errcode.Wrap(errcode.Of(err), op, nil)
	}
	lib.Init(base, &emlib.LEUARTInit{
		Enable:   enable,
		RefFreq:  0,
		Baudrate: baudRate,
		Databits: emlib.LEUARTDatabits8,
		Parity:   par,
		Stopbits: stop,
	})
	return &Serial{
		port: port,
		lib:  lib,
		base: base,
		cfg:  Config{BaudRate: baudRate, Mode: mode, Parity: parity, StopBits: stopBits},
	}, nil
}

// checkBaud returns a reason when baud cannot be produced from ref within
// maxBaudErrorPct.
func checkBaud(ref, baud uint32) string {
	switch {
	case baud == 0:
		return "baud rate is zero"
	case ref == 0:
		return "reference clock is off"
	case baud > ref:
		return "baud rate above reference clock"
	}
	actual := emlib.LEUARTBaudrateCalc(ref, emlib.LEUARTClkDiv(ref, baud))
	if uint64(mathx.AbsDiff(actual, baud))*100 > uint64(baud)*maxBaudErrorPct {
		return "baud rate not achievable from reference clock"
	}
	return ""
}

// ReadByte returns one received frame without waiting.
//
// A latched receive overrun is reported first, as errcode.Overrun, and
// cleared. With nothing received it returns errcode.WouldBlock and
// consumes nothing. A frame with a parity or framing error is consumed and
// returned together with errcode.Parity or errcode.Framing.
func (s *Serial) ReadByte() (byte, error) {
	if s.lib.IntGet(s.base)&emlib.LEUARTIfRXOF != 0 {
		s.lib.IntClear(s.base, emlib.LEUARTIfRXOF)
		return 0, errcode.Overrun
	}
	if s.lib.Status(s.base)&emlib.LEUARTStatusRXDATAV == 0 {
		return 0, errcode.WouldBlock
	}
	v := s.lib.RxExt(s.base)
	b := byte(v)
	switch {
	case v&emlib.LEUARTRxDataXPERR != 0:
		return b, errcode.Parity
	case v&emlib.LEUARTRxDataXFERR != 0:
		return b, errcode.Framing
	}
	return b, nil
}

// WriteByte queues b for transmission if the transmit buffer has room,
// otherwise it returns errcode.WouldBlock without writing.
func (s *Serial) WriteByte(b byte) error {
	if s.lib.Status(s.base)&emlib.LEUARTStatusTXBL == 0 {
		return errcode.WouldBlock
	}
	s.lib.Tx(s.base, b)
	return nil
}

// Flush reports whether every queued frame has left the shift register.
func (s *Serial) Flush() error {
	if s.lib.Status(s.base)&emlib.LEUARTStatusTXC == 0 {
		return errcode.WouldBlock
	}
	return nil
}

// Read copies immediately available frames into p. It never waits; with
// nothing pending it returns 0, nil. A data-integrity error stops the read
// and is returned with the count so far, including a flagged frame.
func (s *Serial) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, err := s.ReadByte()
		switch err {
		case nil:
			p[n] = b
			n++
			continue
		case errcode.WouldBlock:
			return n, nil
		case errcode.Parity, errcode.Framing:
			p[n] = b
			n++
		}
		return n, err
	}
	return n, nil
}

// Write sends all of p, yielding to other goroutines while the transmit
// buffer is full.
func (s *Serial) Write(p []byte) (int, error) {
	for i, b := range p {
		for {
			err := s.WriteByte(b)
			if err == nil {
				break
			}
			if err != errcode.WouldBlock {
				return i, err
			}
			runtime.Gosched()
		}
	}
	return len(p), nil
}

// Buffered reports 1 while a received frame is waiting. The LEUART has a
// single-frame receive buffer.
func (s *Serial) Buffered() int {
	if s.lib.Status(s.base)&emlib.LEUARTStatusRXDATAV != 0 {
		return 1
	}
	return 0
}

// BaudRate is the rate actually programmed into the peripheral.
func (s *Serial) BaudRate() uint32 { return s.lib.BaudrateGet(s.base) }

// Config returns the construction configuration.
func (s *Serial) Config() Config { return s.cfg }

// Base reports the register block address.
func (s *Serial) Base() emlib.Addr { return s.base }
