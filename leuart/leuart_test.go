package leuart

import (
	"errors"
	"testing"

	"geckohal/emlib"
	"geckohal/emlib/emlibtest"
	"geckohal/errcode"
	"geckohal/periph"
)

func newPort(t *testing.T) (*periph.LEUART, *emlibtest.FakeLEUART) {
	t.Helper()
	lib, fl, _ := emlibtest.New()
	var c periph.Claim
	p, err := c.Take(lib)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	return p.LEUART0, fl
}

func newSerial(t *testing.T) (*Serial, *emlibtest.FakeLEUART) {
	t.Helper()
	port, fl := newPort(t)
	s, err := New(port, 9600, TransmitAndReceive, NoParity, OneStopBit)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, fl
}

func TestNewProgramsInitOnce(t *testing.T) {
	modes := map[Mode]emlib.LEUARTEnable{
		Disabled:           emlib.LEUARTDisable,
		ReceiveOnly:        emlib.LEUARTEnableRx,
		TransmitOnly:       emlib.LEUARTEnableTx,
		TransmitAndReceive: emlib.LEUARTEnableRxTx,
	}
	parities := map[Parity]emlib.LEUARTParity{
		NoParity:   emlib.LEUARTNoParity,
		EvenParity: emlib.LEUARTEvenParity,
		OddParity:  emlib.LEUARTOddParity,
	}
	stops := map[StopBits]emlib.LEUARTStopbits{
		OneStopBit:  emlib.LEUARTStopbits1,
		TwoStopBits: emlib.LEUARTStopbits2,
	}
	for m, wantEn := range modes {
		for p, wantPar := range parities {
			for sb, wantStop := range stops {
				port, fl := newPort(t)
				s, err := New(port, 4800, m, p, sb)
				if err != nil {
					t.Fatalf("New(%v,%v,%v): %v", m, p, sb, err)
				}
				inits := fl.Port(emlib.LEUART0Base).Inits
				if len(inits) != 1 {
					t.Fatalf("Init called %d times", len(inits))
				}
				want := emlib.LEUARTInit{
					Enable:   wantEn,
					RefFreq:  0,
					Baudrate: 4800,
					Databits: emlib.LEUARTDatabits8,
					Parity:   wantPar,
					Stopbits: wantStop,
				}
				if inits[0] != want {
					t.Fatalf("Init record %+v want %+v", inits[0], want)
				}
				if got := s.Config(); got != (Config{4800, m, p, sb}) {
					t.Fatalf("Config %+v", got)
				}
			}
		}
	}
}

func TestNewRejectsBadConfigAndLeavesPortUnbound(t *testing.T) {
	port, fl := newPort(t)
	cases := []struct {
		name string
		baud uint32
		mode Mode
		par  Parity
		stop StopBits
	}{
		{"zero baud", 0, TransmitAndReceive, NoParity, OneStopBit},
		{"above reference", 115200, TransmitAndReceive, NoParity, OneStopBit},
		{"off by more than 2%", 30000, TransmitAndReceive, NoParity, OneStopBit},
		{"bad mode", 9600, Mode(9), NoParity, OneStopBit},
		{"bad parity", 9600, TransmitAndReceive, Parity(7), OneStopBit},
		{"bad stop bits", 9600, TransmitAndReceive, NoParity, StopBits(3)},
	}
	for _, c := range cases {
		s, err := New(port, c.baud, c.mode, c.par, c.stop)
		if s != nil || errcode.Of(err) != errcode.InvalidConfig {
			t.Fatalf("%s: got %v, %v", c.name, s, err)
		}
	}
	if n := len(fl.Port(emlib.LEUART0Base).Inits); n != 0 {
		t.Fatalf("rejected configs reached Init %d times", n)
	}
	if _, err := New(port, 9600, TransmitAndReceive, NoParity, OneStopBit); err != nil {
		t.Fatalf("port not reusable after rejection: %v", err)
	}
}

func TestSecondDriverOnSamePortFails(t *testing.T) {
	port, _ := newPort(t)
	if _, err := New(port, 9600, TransmitOnly, NoParity, OneStopBit); err != nil {
		t.Fatal(err)
	}
	_, err := New(port, 9600, TransmitOnly, NoParity, OneStopBit)
	if !errors.Is(err, errcode.HandleInUse) {
		t.Fatalf("want HandleInUse, got %v", err)
	}
	if _, err := port.Bind(); err != errcode.HandleInUse {
		t.Fatalf("live driver's handle re-bound: %v", err)
	}
}

func TestHighFrequencyClockCarries115200(t *testing.T) {
	port, fl := newPort(t)
	fl.Freq = 9_500_000 // HFCLKLE from the 19 MHz reset HFRCO

	s, err := New(port, 115200, TransmitAndReceive, NoParity, OneStopBit)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := s.BaudRate(); got < 112896 || got > 117504 {
		t.Fatalf("programmed rate %d outside 2%%", got)
	}
	fl.PushRx(emlib.LEUART0Base, 0x41)
	if b, err := s.ReadByte(); err != nil || b != 0x41 {
		t.Fatalf("got %#x, %v", b, err)
	}
}

func TestReadByte(t *testing.T) {
	s, fl := newSerial(t)
	base := emlib.LEUART0Base

	if _, err := s.ReadByte(); err != errcode.WouldBlock {
		t.Fatalf("empty: want WouldBlock, got %v", err)
	}
	if fl.Port(base).RxCalls != 0 {
		t.Fatal("empty read consumed a frame")
	}

	fl.PushRx(base, 0x41)
	if b, err := s.ReadByte(); err != nil || b != 0x41 {
		t.Fatalf("got %#x, %v", b, err)
	}
	if _, err := s.ReadByte(); err != errcode.WouldBlock {
		t.Fatalf("drained: want WouldBlock, got %v", err)
	}

	fl.PushRx(base, 0x42|emlib.LEUARTRxDataXPERR, 0x43|emlib.LEUARTRxDataXFERR)
	if b, err := s.ReadByte(); err != errcode.Parity || b != 0x42 {
		t.Fatalf("parity: got %#x, %v", b, err)
	}
	if b, err := s.ReadByte(); err != errcode.Framing || b != 0x43 {
		t.Fatalf("framing: got %#x, %v", b, err)
	}
}

func TestReadByteReportsOverrunBeforeData(t *testing.T) {
	s, fl := newSerial(t)
	base := emlib.LEUART0Base

	fl.PushRx(base, 'z')
	fl.RaiseIF(base, emlib.LEUARTIfRXOF)
	if _, err := s.ReadByte(); err != errcode.Overrun {
		t.Fatalf("want Overrun, got %v", err)
	}
	p := fl.Port(base)
	if p.Cleared&emlib.LEUARTIfRXOF == 0 || p.IF&emlib.LEUARTIfRXOF != 0 {
		t.Fatal("overrun flag not cleared")
	}
	if p.RxCalls != 0 {
		t.Fatal("overrun report consumed a frame")
	}
	if b, err := s.ReadByte(); err != nil || b != 'z' {
		t.Fatalf("after overrun: %q, %v", b, err)
	}
}

func TestWriteByte(t *testing.T) {
	s, fl := newSerial(t)
	base := emlib.LEUART0Base

	fl.SetStatus(base, 0)
	if err := s.WriteByte('a'); err != errcode.WouldBlock {
		t.Fatalf("full: want WouldBlock, got %v", err)
	}
	if fl.Port(base).TxCalls != 0 {
		t.Fatal("Tx called while buffer full")
	}

	fl.SetStatus(base, emlib.LEUARTStatusTXBL)
	if err := s.WriteByte('a'); err != nil {
		t.Fatal(err)
	}
	if p := fl.Port(base); p.TxCalls != 1 || string(p.TX) != "a" {
		t.Fatalf("TxCalls=%d TX=%q", p.TxCalls, p.TX)
	}
}

func TestFlush(t *testing.T) {
	s, fl := newSerial(t)
	base := emlib.LEUART0Base

	fl.SetStatus(base, emlib.LEUARTStatusTXBL)
	if err := s.Flush(); err != errcode.WouldBlock {
		t.Fatalf("in progress: want WouldBlock, got %v", err)
	}
	fl.SetStatus(base, emlib.LEUARTStatusTXBL|emlib.LEUARTStatusTXC)
	if err := s.Flush(); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestUARTAdapter(t *testing.T) {
	s, fl := newSerial(t)
	base := emlib.LEUART0Base

	if s.Buffered() != 0 {
		t.Fatal("Buffered on empty port")
	}
	fl.PushRx(base, 'h', 'i')
	if s.Buffered() != 1 {
		t.Fatal("Buffered should report a waiting frame")
	}
	buf := make([]byte, 8)
	n, err := s.Read(buf)
	if err != nil || string(buf[:n]) != "hi" {
		t.Fatalf("Read: %q, %v", buf[:n], err)
	}
	if n, err := s.Read(buf); n != 0 || err != nil {
		t.Fatalf("Read on empty: %d, %v", n, err)
	}

	fl.PushRx(base, 'x', 'y'|emlib.LEUARTRxDataXFERR, 'z')
	n, err = s.Read(buf)
	if err != errcode.Framing || string(buf[:n]) != "xy" {
		t.Fatalf("Read with framing error: %q, %v", buf[:n], err)
	}

	fl.SetStatus(base, emlib.LEUARTStatusTXBL)
	if n, err := s.Write([]byte("ok")); n != 2 || err != nil {
		t.Fatalf("Write: %d, %v", n, err)
	}
	if got := string(fl.Sent(base)); got != "ok" {
		t.Fatalf("sent %q", got)
	}
}

func TestBaudRateReportsProgrammedRate(t *testing.T) {
	s, _ := newSerial(t)
	if got := s.BaudRate(); got != 9619 {
		t.Fatalf("BaudRate=%d want 9619", got)
	}
	if s.Base() != emlib.LEUART0Base {
		t.Fatalf("Base=%#x", s.Base())
	}
}

func TestEnumStrings(t *testing.T) {
	if TransmitAndReceive.String() != "rxtx" || OddParity.String() != "odd" || TwoStopBits.String() != "2" {
		t.Fatal("enum strings changed")
	}
	if Mode(9).String() != "invalid" {
		t.Fatal("unknown mode string")
	}
}
