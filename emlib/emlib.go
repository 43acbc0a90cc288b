// Package emlib is the boundary to the vendor peripheral library for the
// EFR32BG1P. Drivers talk to the chip only through the LEUARTLib and
// SPIDRVLib interfaces declared here; the register-level implementation is
// compiled in on efr32 builds, hosts install emlib/hostlib or a test fake.
package emlib

import "geckohal/x/conv"

// Addr is the base address of a peripheral register block.
type Addr uintptr

// Register block base addresses (EFR32BG1P reference manual, memory map).
const (
	USART0Base  Addr = 0x4001_0000
	USART1Base  Addr = 0x4001_0400
	LEUART0Base Addr = 0x4004_A000
)

// Ecode is a vendor status code. Zero is success.
type Ecode uint32

const (
	ECodeOK Ecode = 0

	ecodeSPIDRVBase Ecode = 0x0000_2000
)

// SPIDRV status codes.
const (
	SPIDRVIllegalHandle = ecodeSPIDRVBase | 1
	SPIDRVParamError    = ecodeSPIDRVBase | 2
	SPIDRVBusy          = ecodeSPIDRVBase | 3
	SPIDRVTimeout       = ecodeSPIDRVBase | 4
	SPIDRVIdle          = ecodeSPIDRVBase | 5
	SPIDRVAborted       = ecodeSPIDRVBase | 6
	SPIDRVModeError     = ecodeSPIDRVBase | 7
	SPIDRVDMAAlloc      = ecodeSPIDRVBase | 8
)

var ecodeNames = map[Ecode]string{
	ECodeOK:             "ok",
	SPIDRVIllegalHandle: "illegal handle",
	SPIDRVParamError:    "param error",
	SPIDRVBusy:          "busy",
	SPIDRVTimeout:       "timeout",
	SPIDRVIdle:          "idle",
	SPIDRVAborted:       "aborted",
	SPIDRVModeError:     "mode error",
	SPIDRVDMAAlloc:      "dma alloc",
}

// Error renders "ecode 0x2003 (busy)"; unnamed codes omit the suffix.
func (e Ecode) Error() string {
	var buf [8]byte
	s := "ecode 0x" + string(conv.Hex(buf[:], uint64(e), false))
	if n, ok := ecodeNames[e]; ok {
		s += " (" + n + ")"
	}
	return s
}

// OK reports whether e is ECodeOK.
func (e Ecode) OK() bool { return e == ECodeOK }

// Library bundles the vendor entry points the drivers need.
type Library struct {
	LEUART LEUARTLib
	SPIDRV SPIDRVLib
}

// Valid reports whether both halves are present.
func (l Library) Valid() bool { return l.LEUART != nil && l.SPIDRV != nil }

var defaultLib *Library

// SetDefault installs the library used by periph.Take. The efr32 build
// installs the native implementation from init; hosts call this before
// claiming peripherals.
func SetDefault(l Library) {
	defaultLib = &l
}

// Default returns the installed library, or nil if none.
func Default() *Library { return defaultLib }
