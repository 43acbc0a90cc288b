// Package periph hands out the chip's peripheral register blocks exactly
// once per process. Each handle may then be bound to at most one driver.
package periph

import (
	"sync"
	"sync/atomic"

	"geckohal/emlib"
	"geckohal/errcode"
)

// LEUART is the register block of one low-energy UART instance.
type LEUART struct {
	base  emlib.Addr
	lib   emlib.LEUARTLib
	bound atomic.Bool
}

// Base reports the register block address.
func (p *LEUART) Base() emlib.Addr { return p.base }

// Lib is the vendor library driving this block.
func (p *LEUART) Lib() emlib.LEUARTLib { return p.lib }

// Bind attaches a driver. It fails with HandleInUse if one is already
// attached and with InvalidHandle on a handle not made by Take. The
// returned release undoes the bind; a constructor calls it only when it
// fails after binding, and it has no effect after the first call.
func (p *LEUART) Bind() (release func(), err error) {
	if p == nil || p.lib == nil {
		return nil, errcode.InvalidHandle
	}
	return bind(&p.bound)
}

// USART is the register block of one USART instance.
type USART struct {
	base  emlib.Addr
	lib   emlib.SPIDRVLib
	bound atomic.Bool
}

// Base reports the register block address.
func (p *USART) Base() emlib.Addr { return p.base }

// Lib is the vendor library driving this block.
func (p *USART) Lib() emlib.SPIDRVLib { return p.lib }

// Bind attaches a driver; see (*LEUART).Bind.
func (p *USART) Bind() (release func(), err error) {
	if p == nil || p.lib == nil {
		return nil, errcode.InvalidHandle
	}
	return bind(&p.bound)
}

func bind(flag *atomic.Bool) (func(), error) {
	if !flag.CompareAndSwap(false, true) {
		return nil, errcode.HandleInUse
	}
	var once sync.Once
	return func() { once.Do(func() { flag.Store(false) }) }, nil
}

// Peripherals has one field per peripheral instance on the EFR32BG1P.
type Peripherals struct {
	LEUART0 *LEUART
	USART0  *USART
	USART1  *USART
}

const (
	unclaimed uint32 = iota
	claimed
)

// Claim is a one-shot cell guarding construction of a Peripherals bundle.
// The zero value is unclaimed.
type Claim struct {
	state atomic.Uint32
}

// Take builds the bundle on the first call and fails with AlreadyTaken on
// every later call. An invalid library fails with NotReady and leaves the
// cell unclaimed.
func (c *Claim) Take(lib emlib.Library) (*Peripherals, error) {
	if !lib.Valid() {
		return nil, &errcode.E{C: errcode.NotReady, Op: "periph.take", Msg: "no vendor library installed"}
	}
	if !c.state.CompareAndSwap(unclaimed, claimed) {
		return nil, &errcode.E{C: errcode.AlreadyTaken, Op: "periph.take", Msg: "peripherals already taken"}
	}
	return &Peripherals{
		LEUART0: &LEUART{base: emlib.LEUART0Base, lib: lib.LEUART},
		USART0:  &USART{base: emlib.USART0Base, lib: lib.SPIDRV},
		USART1:  &USART{base: emlib.USART1Base, lib: lib.SPIDRV},
	}, nil
}

// Taken reports whether the cell has been claimed.
func (c *Claim) Taken() bool { return c.state.Load() == claimed }

var process Claim

// Take claims the process-wide bundle using the installed vendor library.
func Take() (*Peripherals, error) {
	lib := emlib.Default()
	if lib == nil {
		return nil, &errcode.E{C: errcode.NotReady, Op: "periph.take", Msg: "no vendor library installed"}
	}
	return process.Take(*lib)
}
