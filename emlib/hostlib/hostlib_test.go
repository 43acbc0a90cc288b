package hostlib

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"geckohal/emlib"

	"github.com/tarm/serial"
)

// pipeOpener hands the driver one end of an in-memory pipe and records the
// requested device configuration.
type pipeOpener struct {
	peer net.Conn
	cfg  *serial.Config
	err  error
}

func (o *pipeOpener) open(c *serial.Config) (io.ReadWriteCloser, error) {
	o.cfg = c
	if o.err != nil {
		return nil, o.err
	}
	local, peer := net.Pipe()
	o.peer = peer
	return local, nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInitOpensDeviceWithFraming(t *testing.T) {
	o := &pipeOpener{}
	h := NewLEUART(map[emlib.Addr]string{emlib.LEUART0Base: "/dev/ttyUSB0"}, WithOpener(o.open))
	defer h.Close()

	h.Init(emlib.LEUART0Base, &emlib.LEUARTInit{
		Enable:   emlib.LEUARTEnableRxTx,
		Baudrate: 9600,
		Parity:   emlib.LEUARTOddParity,
		Stopbits: emlib.LEUARTStopbits2,
	})
	if o.cfg == nil {
		t.Fatal("device not opened")
	}
	c := o.cfg
	if c.Name != "/dev/ttyUSB0" || c.Baud != 9600 || c.Size != 8 || c.Parity != serial.ParityOdd || c.StopBits != serial.Stop2 {
		t.Fatalf("config %+v", *c)
	}
	if got := h.BaudrateGet(emlib.LEUART0Base); got != 9619 {
		t.Fatalf("BaudrateGet=%d", got)
	}
}

func TestRoundTrip(t *testing.T) {
	o := &pipeOpener{}
	h := NewLEUART(map[emlib.Addr]string{emlib.LEUART0Base: "loop"}, WithOpener(o.open))
	defer h.Close()
	base := emlib.LEUART0Base

	h.Init(base, &emlib.LEUARTInit{Enable: emlib.LEUARTEnableRxTx, Baudrate: 9600})

	st := h.Status(base)
	if st&emlib.LEUARTStatusTXBL == 0 || st&emlib.LEUARTStatusTXC == 0 || st&emlib.LEUARTStatusRXDATAV != 0 {
		t.Fatalf("idle status %#x", st)
	}

	go func() { _, _ = o.peer.Write([]byte("hi")) }()
	waitFor(t, "rx data", func() bool { return h.Status(base)&emlib.LEUARTStatusRXDATAV != 0 })
	var got []byte
	waitFor(t, "two bytes", func() bool {
		for h.Status(base)&emlib.LEUARTStatusRXDATAV != 0 {
			got = append(got, byte(h.RxExt(base)))
		}
		return len(got) == 2
	})
	if string(got) != "hi" {
		t.Fatalf("received %q", got)
	}

	h.Tx(base, 'o')
	h.Tx(base, 'k')
	buf := make([]byte, 2)
	_ = o.peer.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := io.ReadFull(o.peer, buf); err != nil || string(buf) != "ok" {
		t.Fatalf("peer read %q, %v", buf, err)
	}
	waitFor(t, "tx complete", func() bool { return h.Status(base)&emlib.LEUARTStatusTXC != 0 })
}

func TestRxOverflowLatchesOverrun(t *testing.T) {
	o := &pipeOpener{}
	h := NewLEUART(map[emlib.Addr]string{emlib.LEUART0Base: "loop"}, WithOpener(o.open))
	defer h.Close()
	base := emlib.LEUART0Base
	h.Init(base, &emlib.LEUARTInit{Enable: emlib.LEUARTEnableRx, Baudrate: 9600})

	go func() { _, _ = o.peer.Write(make([]byte, ringSize+10)) }()
	waitFor(t, "overrun", func() bool { return h.IntGet(base)&emlib.LEUARTIfRXOF != 0 })
	h.IntClear(base, emlib.LEUARTIfRXOF)
	if h.IntGet(base)&emlib.LEUARTIfRXOF != 0 {
		t.Fatal("IntClear did not clear RXOF")
	}
}

func TestOpenFailureLeavesPortSilent(t *testing.T) {
	o := &pipeOpener{err: errors.New("no such device")}
	h := NewLEUART(map[emlib.Addr]string{emlib.LEUART0Base: "/dev/missing"}, WithOpener(o.open))
	base := emlib.LEUART0Base
	h.Init(base, &emlib.LEUARTInit{Enable: emlib.LEUARTEnableRxTx, Baudrate: 9600})
	if st := h.Status(base); st != 0 {
		t.Fatalf("status %#x on unopened port", st)
	}
	h.Tx(base, 'x')
	if h.IntGet(base)&emlib.LEUARTIfTXOF == 0 {
		t.Fatal("write to unopened port should flag TXOF")
	}
}

func TestDisabledModeDoesNotOpen(t *testing.T) {
	o := &pipeOpener{}
	h := NewLEUART(map[emlib.Addr]string{emlib.LEUART0Base: "loop"}, WithOpener(o.open))
	h.Init(emlib.LEUART0Base, &emlib.LEUARTInit{Enable: emlib.LEUARTDisable, Baudrate: 9600})
	if o.cfg != nil {
		t.Fatal("disabled port opened a device")
	}
}

func TestLoopback(t *testing.T) {
	var l Loopback
	h := new(emlib.SPIDRVHandle)
	init := &emlib.SPIDRVInit{Port: emlib.USART0Base, BitRate: 1000, FrameLength: 8}
	if ec := l.Init(h, init); ec != emlib.ECodeOK {
		t.Fatalf("Init: %v", ec)
	}
	if ec := l.Init(h, init); ec != emlib.SPIDRVBusy {
		t.Fatalf("second Init: %v", ec)
	}
	tx := []byte{1, 2, 3}
	rx := make([]byte, 3)
	if ec := l.MTransferB(h, tx, rx, 3); ec != emlib.ECodeOK || string(rx) != string(tx) {
		t.Fatalf("transfer %v rx=%x", ec, rx)
	}
	if ec := l.MTransferB(h, tx, rx, 4); ec != emlib.SPIDRVParamError {
		t.Fatalf("count past buffer: %v", ec)
	}
	if ec := l.MTransmitB(h, tx, -1); ec != emlib.SPIDRVParamError {
		t.Fatalf("negative count: %v", ec)
	}
	if ec := l.SetBitrate(h, 2000); ec != emlib.ECodeOK || h.BitRate != 2000 {
		t.Fatalf("SetBitrate: %v", ec)
	}
	if ec := l.DeInit(h); ec != emlib.ECodeOK || h.Initialized {
		t.Fatalf("DeInit: %v", ec)
	}
	if ec := l.MTransmitB(h, tx, 1); ec != emlib.SPIDRVIllegalHandle {
		t.Fatalf("after DeInit: %v", ec)
	}
}
