// Package hostlib backs the vendor library interfaces on a development
// host: each LEUART base address maps to a real serial device opened with
// tarm/serial, and SPIDRV is an in-memory loopback.
package hostlib

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"geckohal/emlib"
	"geckohal/x/conv"
	"geckohal/x/ring"

	"github.com/tarm/serial"
)

// Opener opens a serial device. The default is serial.OpenPort.
type Opener func(c *serial.Config) (io.ReadWriteCloser, error)

func openPort(c *serial.Config) (io.ReadWriteCloser, error) { return serial.OpenPort(c) }

// DefaultRefFreq matches the LFRCO the target clocks its LEUART from.
const DefaultRefFreq = 32768

const (
	ringSize    = 256
	readTimeout = 50 * time.Millisecond
)

type Option func(*LEUART)

// WithOpener replaces the serial device opener, for tests.
func WithOpener(o Opener) Option { return func(h *LEUART) { h.open = o } }

// WithRefFreq sets the reference clock reported to drivers.
func WithRefFreq(hz uint32) Option { return func(h *LEUART) { h.ref = hz } }

// New returns a library whose LEUART instances talk to the devices named
// in ports.
func New(ports map[emlib.Addr]string, opts ...Option) emlib.Library {
	return emlib.Library{LEUART: NewLEUART(ports, opts...), SPIDRV: &Loopback{}}
}

// LEUART implements emlib.LEUARTLib over host serial devices.
type LEUART struct {
	open  Opener
	ref   uint32
	names map[emlib.Addr]string

	mu    sync.Mutex
	ports map[emlib.Addr]*hostPort
}

func NewLEUART(ports map[emlib.Addr]string, opts ...Option) *LEUART {
	h := &LEUART{
		open:  openPort,
		ref:   DefaultRefFreq,
		names: map[emlib.Addr]string{},
		ports: map[emlib.Addr]*hostPort{},
	}
	for a, n := range ports {
		h.names[a] = n
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

type hostPort struct {
	rw     io.ReadWriteCloser
	rx, tx *ring.Ring
	done   chan struct{}
	wg     sync.WaitGroup

	clkdiv  uint32
	enable  emlib.LEUARTEnable
	flags   atomic.Uint32 // latched IF bits
	writing atomic.Bool
}

func (h *LEUART) port(base emlib.Addr) *hostPort {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.ports[base]
	if !ok {
		p = &hostPort{rx: ring.New(ringSize), tx: ring.New(ringSize)}
		h.ports[base] = p
	}
	return p
}

// Init closes any open device for base and, unless the port is disabled,
// opens the mapped device with the requested framing. Failures leave the
// port closed: nothing is received and writes never find room.
func (h *LEUART) Init(base emlib.Addr, init *emlib.LEUARTInit) {
	p := h.port(base)
	p.close()

	ref := init.RefFreq
	if ref == 0 {
		ref = h.ref
	}
	p.clkdiv = emlib.LEUARTClkDiv(ref, init.Baudrate)
	p.enable = init.Enable
	p.rx, p.tx = ring.New(ringSize), ring.New(ringSize)
	p.flags.Store(0)
	if init.Enable == emlib.LEUARTDisable {
		return
	}

	name, ok := h.names[base]
	if !ok {
		println("[hostlib] no device mapped for LEUART", addrString(base))
		return
	}
	cfg := &serial.Config{
		Name:        name,
		Baud:        int(init.Baudrate),
		ReadTimeout: readTimeout,
		Size:        8,
		Parity:      parity(init.Parity),
		StopBits:    stopBits(init.Stopbits),
	}
	rw, err := h.open(cfg)
	if err != nil {
		println("[hostlib] open", name, "failed:", err.Error())
		return
	}
	p.start(rw)
}

func parity(p emlib.LEUARTParity) serial.Parity {
	switch p {
	case emlib.LEUARTEvenParity:
		return serial.ParityEven
	case emlib.LEUARTOddParity:
		return serial.ParityOdd
	}
	return serial.ParityNone
}

func stopBits(s emlib.LEUARTStopbits) serial.StopBits {
	if s == emlib.LEUARTStopbits2 {
		return serial.Stop2
	}
	return serial.Stop1
}

func addrString(a emlib.Addr) string {
	var buf [8]byte
	return "0x" + string(conv.U32Hex(buf[:], uint32(a)))
}

func (p *hostPort) start(rw io.ReadWriteCloser) {
	p.rw = rw
	p.done = make(chan struct{})
	p.wg.Add(2)
	go p.reader()
	go p.writer()
}

func (p *hostPort) close() {
	if p.rw == nil {
		return
	}
	close(p.done)
	_ = p.rw.Close()
	p.wg.Wait()
	p.rw = nil
}

func (p *hostPort) closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *hostPort) reader() {
	defer p.wg.Done()
	var buf [64]byte
	for !p.closed() {
		n, err := p.rw.Read(buf[:])
		if n > 0 && p.enable&emlib.LEUARTEnableRx != 0 {
			if p.rx.WriteFrom(buf[:n]) < n {
				p.flags.Or(emlib.LEUARTIfRXOF)
			}
		}
		// A read timeout surfaces as io.EOF on posix ports.
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrDeadlineExceeded) {
			if !p.closed() {
				println("[hostlib] read failed:", err.Error())
			}
			return
		}
	}
}

func (p *hostPort) writer() {
	defer p.wg.Done()
	var buf [64]byte
	for {
		select {
		case <-p.done:
			return
		case <-p.tx.Readable():
		}
		for {
			p.writing.Store(true)
			n := p.tx.ReadInto(buf[:])
			if n == 0 {
				p.writing.Store(false)
				break
			}
			if _, err := p.rw.Write(buf[:n]); err != nil {
				p.writing.Store(false)
				if !p.closed() {
					println("[hostlib] write failed:", err.Error())
				}
				return
			}
		}
	}
}

func (h *LEUART) ClockFreq(emlib.Addr) uint32 { return h.ref }

func (h *LEUART) BaudrateGet(base emlib.Addr) uint32 {
	return emlib.LEUARTBaudrateCalc(h.ref, h.port(base).clkdiv)
}

func (h *LEUART) Status(base emlib.Addr) uint32 {
	p := h.port(base)
	if p.rw == nil {
		return 0
	}
	var s uint32
	if p.enable&emlib.LEUARTEnableTx != 0 {
		s |= emlib.LEUARTStatusTXENS
		if p.tx.Space() > 0 {
			s |= emlib.LEUARTStatusTXBL
		}
		if p.tx.Available() == 0 && !p.writing.Load() {
			s |= emlib.LEUARTStatusTXC | emlib.LEUARTStatusTXIDLE
		}
	}
	if p.rx.Available() > 0 {
		s |= emlib.LEUARTStatusRXDATAV
	}
	return s
}

func (h *LEUART) IntGet(base emlib.Addr) uint32 { return h.port(base).flags.Load() }

func (h *LEUART) IntClear(base emlib.Addr, flags uint32) { h.port(base).flags.And(^flags) }

func (h *LEUART) Rx(base emlib.Addr) byte { return byte(h.RxExt(base)) }

func (h *LEUART) RxExt(base emlib.Addr) uint16 {
	p := h.port(base)
	b, ok := p.rx.ReadByte()
	if !ok {
		p.flags.Or(emlib.LEUARTIfRXUF)
	}
	return uint16(b)
}

func (h *LEUART) Tx(base emlib.Addr, b byte) {
	p := h.port(base)
	if p.rw == nil || !p.tx.WriteByte(b) {
		p.flags.Or(emlib.LEUARTIfTXOF)
	}
}

// Close stops every open port.
func (h *LEUART) Close() {
	h.mu.Lock()
	ports := make([]*hostPort, 0, len(h.ports))
	for _, p := range h.ports {
		ports = append(ports, p)
	}
	h.mu.Unlock()
	for _, p := range ports {
		p.close()
	}
}

// Loopback implements emlib.SPIDRVLib by echoing every transmitted byte
// back to the receive buffer.
type Loopback struct{}

func (Loopback) Init(h *emlib.SPIDRVHandle, init *emlib.SPIDRVInit) emlib.Ecode {
	if ec := emlib.CheckInit(h, init); !ec.OK() {
		return ec
	}
	if h.Initialized {
		return emlib.SPIDRVBusy
	}
	h.InitData = *init
	h.BitRate = init.BitRate
	h.Initialized = true
	return emlib.ECodeOK
}

func (Loopback) DeInit(h *emlib.SPIDRVHandle) emlib.Ecode {
	if h == nil || !h.Initialized {
		return emlib.SPIDRVIllegalHandle
	}
	h.Initialized = false
	return emlib.ECodeOK
}

func (Loopback) SetBitrate(h *emlib.SPIDRVHandle, bitRate uint32) emlib.Ecode {
	if h == nil || !h.Initialized {
		return emlib.SPIDRVIllegalHandle
	}
	if bitRate == 0 {
		return emlib.SPIDRVParamError
	}
	h.InitData.BitRate = bitRate
	h.BitRate = bitRate
	return emlib.ECodeOK
}

func (Loopback) MTransferB(h *emlib.SPIDRVHandle, tx, rx []byte, count int32) emlib.Ecode {
	if ec := emlib.CheckTransfer(h, tx, rx, count); !ec.OK() {
		return ec
	}
	copy(rx[:count], tx[:count])
	return emlib.ECodeOK
}

func (Loopback) MTransmitB(h *emlib.SPIDRVHandle, tx []byte, count int32) emlib.Ecode {
	return emlib.CheckTransfer(h, tx, nil, count)
}
