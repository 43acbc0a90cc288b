// Package emlibtest provides recording fakes of the vendor library for
// host-side tests.
package emlibtest

import (
	"sync"

	"geckohal/emlib"
)

// New returns a library backed by fresh fakes.
func New() (emlib.Library, *FakeLEUART, *FakeSPIDRV) {
	l := &FakeLEUART{}
	s := &FakeSPIDRV{}
	return emlib.Library{LEUART: l, SPIDRV: s}, l, s
}

// ----------------------------- LEUART ----------------------------------------

// LEUARTPort is the fake state behind one LEUART base address.
type LEUARTPort struct {
	Inits []emlib.LEUARTInit

	// Status is returned by Status, with RXDATAV added while RX is non-empty.
	Status uint32
	// IF is returned by IntGet; IntClear clears bits here.
	IF      uint32
	Cleared uint32

	RX      []uint16 // frames returned by Rx/RxExt, in order
	TX      []byte
	TxCalls int
	RxCalls int
}

// FakeLEUART implements emlib.LEUARTLib.
type FakeLEUART struct {
	mu sync.Mutex
	// Freq is the reference clock; 32768 Hz when zero.
	Freq  uint32
	ports map[emlib.Addr]*LEUARTPort
}

// Port returns the state for base, creating it on first use.
// Callers that mutate it concurrently with the driver must hold Lock.
func (f *FakeLEUART) Port(base emlib.Addr) *LEUARTPort {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.port(base)
}

// Lock and Unlock guard direct edits of a LEUARTPort.
func (f *FakeLEUART) Lock()   { f.mu.Lock() }
func (f *FakeLEUART) Unlock() { f.mu.Unlock() }

// PushRx queues received frames; Status reports RXDATAV while any remain.
func (f *FakeLEUART) PushRx(base emlib.Addr, frames ...uint16) {
	f.mu.Lock()
	p := f.port(base)
	p.RX = append(p.RX, frames...)
	f.mu.Unlock()
}

// SetStatus replaces the STATUS bits for base.
func (f *FakeLEUART) SetStatus(base emlib.Addr, status uint32) {
	f.mu.Lock()
	f.port(base).Status = status
	f.mu.Unlock()
}

// RaiseIF sets interrupt flags for base.
func (f *FakeLEUART) RaiseIF(base emlib.Addr, flags uint32) {
	f.mu.Lock()
	f.port(base).IF |= flags
	f.mu.Unlock()
}

// Sent returns a copy of the bytes written to base.
func (f *FakeLEUART) Sent(base emlib.Addr) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.port(base).TX...)
}

func (f *FakeLEUART) port(base emlib.Addr) *LEUARTPort {
	if f.ports == nil {
		f.ports = map[emlib.Addr]*LEUARTPort{}
	}
	p, ok := f.ports[base]
	if !ok {
		p = &LEUARTPort{}
		f.ports[base] = p
	}
	return p
}

func (f *FakeLEUART) freq() uint32 {
	if f.Freq == 0 {
		return 32768
	}
	return f.Freq
}

func (f *FakeLEUART) Init(base emlib.Addr, init *emlib.LEUARTInit) {
	f.mu.Lock()
	p := f.port(base)
	p.Inits = append(p.Inits, *init)
	f.mu.Unlock()
}

func (f *FakeLEUART) ClockFreq(emlib.Addr) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.freq()
}

func (f *FakeLEUART) BaudrateGet(base emlib.Addr) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.port(base)
	if len(p.Inits) == 0 {
		return 0
	}
	ref := f.freq()
	return emlib.LEUARTBaudrateCalc(ref, emlib.LEUARTClkDiv(ref, p.Inits[len(p.Inits)-1].Baudrate))
}

func (f *FakeLEUART) Status(base emlib.Addr) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.port(base)
	s := p.Status
	if len(p.RX) > 0 {
		s |= emlib.LEUARTStatusRXDATAV
	}
	return s
}

func (f *FakeLEUART) IntGet(base emlib.Addr) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.port(base).IF
}

func (f *FakeLEUART) IntClear(base emlib.Addr, flags uint32) {
	f.mu.Lock()
	p := f.port(base)
	p.IF &^= flags
	p.Cleared |= flags
	f.mu.Unlock()
}

func (f *FakeLEUART) Rx(base emlib.Addr) byte { return byte(f.RxExt(base)) }

func (f *FakeLEUART) RxExt(base emlib.Addr) uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.port(base)
	p.RxCalls++
	if len(p.RX) == 0 {
		return 0
	}
	v := p.RX[0]
	p.RX = p.RX[1:]
	return v
}

func (f *FakeLEUART) Tx(base emlib.Addr, b byte) {
	f.mu.Lock()
	p := f.port(base)
	p.TX = append(p.TX, b)
	p.TxCalls++
	f.mu.Unlock()
}

// ----------------------------- SPIDRV ----------------------------------------

// FakeSPIDRV implements emlib.SPIDRVLib. Non-zero *Code fields are
// returned instead of performing the operation.
type FakeSPIDRV struct {
	mu sync.Mutex

	InitCode emlib.Ecode
	// InitCodes are returned by successive Init calls, one each, before
	// InitCode applies.
	InitCodes      []emlib.Ecode
	DeInitCode     emlib.Ecode
	SetBitrateCode emlib.Ecode
	TransferCode   emlib.Ecode
	TransmitCode   emlib.Ecode

	// Reply, when set, is copied into rx on each transfer. Otherwise rx
	// keeps whatever the caller put there (in-place loopback).
	Reply []byte

	Inits     []emlib.SPIDRVInit
	Handles   []*emlib.SPIDRVHandle // every handle passed to any call
	Sent      [][]byte
	Transfers int
	Transmits int
	DeInits   int
	Bitrates  []uint32
}

func (f *FakeSPIDRV) note(h *emlib.SPIDRVHandle) { f.Handles = append(f.Handles, h) }

// Calls is the number of vendor calls of any kind.
func (f *FakeSPIDRV) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Handles)
}

func (f *FakeSPIDRV) Init(h *emlib.SPIDRVHandle, init *emlib.SPIDRVInit) emlib.Ecode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note(h)
	f.Inits = append(f.Inits, *init)
	if len(f.InitCodes) > 0 {
		code := f.InitCodes[0]
		f.InitCodes = f.InitCodes[1:]
		if code != emlib.ECodeOK {
			return code
		}
	} else if f.InitCode != emlib.ECodeOK {
		return f.InitCode
	}
	if ec := emlib.CheckInit(h, init); !ec.OK() {
		return ec
	}
	h.InitData = *init
	h.BitRate = init.BitRate
	h.Initialized = true
	return emlib.ECodeOK
}

func (f *FakeSPIDRV) DeInit(h *emlib.SPIDRVHandle) emlib.Ecode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note(h)
	f.DeInits++
	if f.DeInitCode != emlib.ECodeOK {
		return f.DeInitCode
	}
	if h == nil || !h.Initialized {
		return emlib.SPIDRVIllegalHandle
	}
	h.Initialized = false
	return emlib.ECodeOK
}

func (f *FakeSPIDRV) SetBitrate(h *emlib.SPIDRVHandle, bitRate uint32) emlib.Ecode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note(h)
	f.Bitrates = append(f.Bitrates, bitRate)
	if f.SetBitrateCode != emlib.ECodeOK {
		return f.SetBitrateCode
	}
	if h == nil || !h.Initialized {
		return emlib.SPIDRVIllegalHandle
	}
	h.InitData.BitRate = bitRate
	h.BitRate = bitRate
	return emlib.ECodeOK
}

func (f *FakeSPIDRV) MTransferB(h *emlib.SPIDRVHandle, tx, rx []byte, count int32) emlib.Ecode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note(h)
	f.Transfers++
	if f.TransferCode != emlib.ECodeOK {
		return f.TransferCode
	}
	if ec := emlib.CheckTransfer(h, tx, rx, count); !ec.OK() {
		return ec
	}
	f.Sent = append(f.Sent, append([]byte(nil), tx[:count]...))
	if f.Reply != nil {
		copy(rx[:count], f.Reply)
	}
	return emlib.ECodeOK
}

func (f *FakeSPIDRV) MTransmitB(h *emlib.SPIDRVHandle, tx []byte, count int32) emlib.Ecode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.note(h)
	f.Transmits++
	if f.TransmitCode != emlib.ECodeOK {
		return f.TransmitCode
	}
	if ec := emlib.CheckTransfer(h, tx, nil, count); !ec.OK() {
		return ec
	}
	f.Sent = append(f.Sent, append([]byte(nil), tx[:count]...))
	return emlib.ECodeOK
}
