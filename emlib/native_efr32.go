//go:build efr32

package emlib

import (
	"runtime/volatile"
	"unsafe"
)

// Register-level implementation for EFR32BG1P (series 1). Only the
// features the drivers use are programmed: LEUART in 8/9-bit async mode on
// route location 0 (TX PA0, RX PA1) and USART in synchronous master mode.
// The HF clock is the HFRCO at its 19 MHz reset band.

type leuartRegs struct {
	CTRL       volatile.Register32 // 0x000
	CMD        volatile.Register32 // 0x004
	STATUS     volatile.Register32 // 0x008
	CLKDIV     volatile.Register32 // 0x00C
	STARTFRAME volatile.Register32 // 0x010
	SIGFRAME   volatile.Register32 // 0x014
	RXDATAX    volatile.Register32 // 0x018
	RXDATA     volatile.Register32 // 0x01C
	RXDATAXP   volatile.Register32 // 0x020
	TXDATAX    volatile.Register32 // 0x024
	TXDATA     volatile.Register32 // 0x028
	IF         volatile.Register32 // 0x02C
	IFS        volatile.Register32 // 0x030
	IFC        volatile.Register32 // 0x034
	IEN        volatile.Register32 // 0x038
	PULSECTRL  volatile.Register32 // 0x03C
	FREEZE     volatile.Register32 // 0x040
	SYNCBUSY   volatile.Register32 // 0x044
	reserved0  [3]uint32
	ROUTEPEN   volatile.Register32 // 0x054
	ROUTELOC0  volatile.Register32 // 0x058
}

type usartRegs struct {
	CTRL       volatile.Register32 // 0x000
	FRAME      volatile.Register32 // 0x004
	TRIGCTRL   volatile.Register32 // 0x008
	CMD        volatile.Register32 // 0x00C
	STATUS     volatile.Register32 // 0x010
	CLKDIV     volatile.Register32 // 0x014
	RXDATAX    volatile.Register32 // 0x018
	RXDATA     volatile.Register32 // 0x01C
	RXDOUBLEX  volatile.Register32 // 0x020
	RXDOUBLE   volatile.Register32 // 0x024
	RXDATAXP   volatile.Register32 // 0x028
	RXDOUBLEXP volatile.Register32 // 0x02C
	TXDATAX    volatile.Register32 // 0x030
	TXDATA     volatile.Register32 // 0x034
	TXDOUBLEX  volatile.Register32 // 0x038
	TXDOUBLE   volatile.Register32 // 0x03C
	IF         volatile.Register32 // 0x040
	IFS        volatile.Register32 // 0x044
	IFC        volatile.Register32 // 0x048
	IEN        volatile.Register32 // 0x04C
	IRCTRL     volatile.Register32 // 0x050
	reserved0  uint32
	INPUT      volatile.Register32 // 0x058
	I2SCTRL    volatile.Register32 // 0x05C
	TIMING     volatile.Register32 // 0x060
	CTRLX      volatile.Register32 // 0x064
	TIMECMP0   volatile.Register32 // 0x068
	TIMECMP1   volatile.Register32 // 0x06C
	TIMECMP2   volatile.Register32 // 0x070
	ROUTEPEN   volatile.Register32 // 0x074
	ROUTELOC0  volatile.Register32 // 0x078
}

// LEUART CMD bits
const (
	leuartCmdRXEN    = 1 << 0
	leuartCmdRXDIS   = 1 << 1
	leuartCmdTXEN    = 1 << 2
	leuartCmdTXDIS   = 1 << 3
	leuartCmdCLEARTX = 1 << 6
	leuartCmdCLEARRX = 1 << 7

	leuartCtrlMask   = 0x1E // DATABITS|PARITY|STOPBITS
	leuartSyncCLKDIV = 1 << 1
	leuartSyncCMD    = 1 << 2
	leuartSyncCTRL   = 1 << 0

	leuartRoutePenRX = 1 << 0
	leuartRoutePenTX = 1 << 1
)

// USART bits used in synchronous master mode
const (
	usartCtrlSYNC   = 1 << 0
	usartCtrlCLKPOL = 1 << 8
	usartCtrlCLKPHA = 1 << 9
	usartCtrlMSBF   = 1 << 10
	usartCtrlAUTOCS = 1 << 16

	usartCmdRXEN      = 1 << 0
	usartCmdRXDIS     = 1 << 1
	usartCmdTXEN      = 1 << 2
	usartCmdTXDIS     = 1 << 3
	usartCmdMASTEREN  = 1 << 4
	usartCmdMASTERDIS = 1 << 5
	usartCmdCLEARTX   = 1 << 10
	usartCmdCLEARRX   = 1 << 11

	usartStatusTXC     = 1 << 5
	usartStatusTXBL    = 1 << 6
	usartStatusRXDATAV = 1 << 7

	usartRoutePenRX  = 1 << 0
	usartRoutePenTX  = 1 << 1
	usartRoutePenCS  = 1 << 2
	usartRoutePenCLK = 1 << 3
)

// CMU offsets and bits (series 1)
const (
	cmuBase        = 0x400E_4000
	cmuOSCENCMD    = 0x060
	cmuLFBCLKSEL   = 0x084
	cmuSTATUS      = 0x090
	cmuHFBUSCLKEN0 = 0x0B0
	cmuHFPERCLKEN0 = 0x0C0
	cmuLFBCLKEN0   = 0x0E8

	cmuOscLFRCOEN     = 1 << 6
	cmuStatusLFRCORDY = 1 << 7
	cmuBusLE          = 1 << 1
	cmuBusGPIO        = 1 << 2
	cmuLFBLEUART0     = 1 << 0
	cmuPerUSART0      = 1 << 2
	cmuPerUSART1      = 1 << 3
	hfperFreqAtReset  = 19_000_000
	hfclkleFreq       = hfperFreqAtReset / 2
	ulfrcoFreq        = 1000
)

// LFBCLKSEL values
const (
	lfbSelDisabled = 0
	lfbSelLFRCO    = 1
	lfbSelLFXO     = 2
	lfbSelHFCLKLE  = 3
	lfbSelULFRCO   = 4
)

// GPIO port registers (series 1)
const (
	gpioBase       = 0x4000_A000
	gpioPortStride = 0x30
	gpioMODEL      = 0x04
	gpioMODEH      = 0x08
	gpioDOUT       = 0x0C

	gpioModeDisabled  = 0
	gpioModeInput     = 1
	gpioModeInputPull = 2
	gpioModePushPull  = 4
)

func cmu(off uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(cmuBase) + off))
}

func gpio(port uint8, off uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(uintptr(gpioBase) + uintptr(port)*gpioPortStride + off))
}

// pinMode sets the mode and output latch of the pin sig uses at loc.
func pinMode(sig Signal, loc uint8, mode uint32, high bool) {
	pin, ok := RoutePin(sig, loc)
	if !ok {
		return
	}
	cmu(cmuHFBUSCLKEN0).SetBits(cmuBusGPIO)
	if high {
		gpio(pin.Port, gpioDOUT).SetBits(1 << pin.Pin)
	} else {
		gpio(pin.Port, gpioDOUT).ClearBits(1 << pin.Pin)
	}
	reg := gpio(pin.Port, gpioMODEL)
	if pin.Pin >= 8 {
		reg = gpio(pin.Port, gpioMODEH)
	}
	reg.ReplaceBits(mode, 0xF, (pin.Pin%8)*4)
}

// SelectLEUARTClock clocks the LEUARTs from HFCLKLE when baud cannot be
// produced from the LFRCO, and from the LFRCO otherwise. Call it before
// constructing a LEUART driver; ClockFreq reports the selection.
func SelectLEUARTClock(baud uint32) {
	if LEUARTNeedsHighFreqClock(baud) {
		cmu(cmuLFBCLKSEL).Set(lfbSelHFCLKLE)
		return
	}
	enableLFRCO()
}

func enableLFRCO() {
	cmu(cmuOSCENCMD).Set(cmuOscLFRCOEN)
	for !cmu(cmuSTATUS).HasBits(cmuStatusLFRCORDY) {
	}
	cmu(cmuLFBCLKSEL).Set(lfbSelLFRCO)
}

func lfbFreq() uint32 {
	switch cmu(cmuLFBCLKSEL).Get() {
	case lfbSelLFXO:
		return LEUARTLowFreqRef
	case lfbSelHFCLKLE:
		return hfclkleFreq
	case lfbSelULFRCO:
		return ulfrcoFreq
	}
	return LEUARTLowFreqRef
}

func leuartAt(base Addr) *leuartRegs { return (*leuartRegs)(unsafe.Pointer(uintptr(base))) }
func usartAt(base Addr) *usartRegs   { return (*usartRegs)(unsafe.Pointer(uintptr(base))) }

type nativeLEUART struct{}

func (nativeLEUART) Init(base Addr, init *LEUARTInit) {
	cmu(cmuHFBUSCLKEN0).SetBits(cmuBusLE)
	if cmu(cmuLFBCLKSEL).Get() == lfbSelDisabled {
		enableLFRCO()
	}
	cmu(cmuLFBCLKEN0).SetBits(cmuLFBLEUART0)

	r := leuartAt(base)
	r.CMD.Set(leuartCmdRXDIS | leuartCmdTXDIS | leuartCmdCLEARRX | leuartCmdCLEARTX)
	waitSync(r, leuartSyncCMD)

	ref := init.RefFreq
	if ref == 0 {
		ref = lfbFreq()
	}
	r.CLKDIV.Set(LEUARTClkDiv(ref, init.Baudrate))
	waitSync(r, leuartSyncCLKDIV)

	r.CTRL.ReplaceBits(uint32(init.Databits)|uint32(init.Parity)|uint32(init.Stopbits), leuartCtrlMask, 0)
	waitSync(r, leuartSyncCTRL)

	pinMode(SignalTX, 0, gpioModePushPull, true)
	pinMode(SignalRX, 0, gpioModeInputPull, true)
	r.ROUTELOC0.Set(0)
	r.ROUTEPEN.Set(leuartRoutePenRX | leuartRoutePenTX)
	r.IFC.Set(0x7FF)

	r.CMD.Set(uint32(init.Enable))
	waitSync(r, leuartSyncCMD)
}

func waitSync(r *leuartRegs, mask uint32) {
	for r.SYNCBUSY.HasBits(mask) {
	}
}

func (nativeLEUART) ClockFreq(Addr) uint32 { return lfbFreq() }

func (nativeLEUART) BaudrateGet(base Addr) uint32 {
	return LEUARTBaudrateCalc(lfbFreq(), leuartAt(base).CLKDIV.Get())
}

func (nativeLEUART) Status(base Addr) uint32          { return leuartAt(base).STATUS.Get() }
func (nativeLEUART) IntGet(base Addr) uint32          { return leuartAt(base).IF.Get() }
func (nativeLEUART) IntClear(base Addr, flags uint32) { leuartAt(base).IFC.Set(flags) }
func (nativeLEUART) Rx(base Addr) byte                { return byte(leuartAt(base).RXDATA.Get()) }
func (nativeLEUART) RxExt(base Addr) uint16           { return uint16(leuartAt(base).RXDATAX.Get()) }
func (nativeLEUART) Tx(base Addr, b byte)             { leuartAt(base).TXDATA.Set(uint32(b)) }

type nativeSPIDRV struct{}

func usartClockBit(base Addr) (uint32, bool) {
	switch base {
	case USART0Base:
		return cmuPerUSART0, true
	case USART1Base:
		return cmuPerUSART1, true
	}
	return 0, false
}

func (nativeSPIDRV) Init(h *SPIDRVHandle, init *SPIDRVInit) Ecode {
	if ec := CheckInit(h, init); !ec.OK() {
		return ec
	}
	if h.Initialized {
		return SPIDRVBusy
	}
	bit, ok := usartClockBit(init.Port)
	if !ok {
		return SPIDRVParamError
	}
	cmu(cmuHFPERCLKEN0).SetBits(bit)

	r := usartAt(init.Port)
	r.CMD.Set(usartCmdRXDIS | usartCmdTXDIS | usartCmdMASTERDIS | usartCmdCLEARRX | usartCmdCLEARTX)

	ctrl := uint32(usartCtrlSYNC)
	if init.ClockMode.Polarity() {
		ctrl |= usartCtrlCLKPOL
	}
	if init.ClockMode.Phase() {
		ctrl |= usartCtrlCLKPHA
	}
	if init.BitOrder == SPIDRVBitOrderMsbFirst {
		ctrl |= usartCtrlMSBF
	}
	if init.CsControl == SPIDRVCsControlAuto {
		ctrl |= usartCtrlAUTOCS
	}
	r.CTRL.Set(ctrl)
	r.FRAME.Set(init.FrameLength - 3) // DATABITS: 4 bits encodes as 1
	div := USARTClkDiv(hfperFreqAtReset, init.BitRate)
	r.CLKDIV.Set(div)

	pinMode(SignalTX, init.PortLocationTx, gpioModePushPull, false)
	pinMode(SignalRX, init.PortLocationRx, gpioModeInput, false)
	pinMode(SignalCLK, init.PortLocationClk, gpioModePushPull, init.ClockMode.Polarity())
	if init.CsControl == SPIDRVCsControlAuto {
		pinMode(SignalCS, init.PortLocationCs, gpioModePushPull, true)
	}
	r.ROUTELOC0.Set(uint32(init.PortLocationRx) | uint32(init.PortLocationTx)<<8 |
		uint32(init.PortLocationCs)<<16 | uint32(init.PortLocationClk)<<24)
	pen := uint32(usartRoutePenRX | usartRoutePenTX | usartRoutePenCLK)
	if init.CsControl == SPIDRVCsControlAuto {
		pen |= usartRoutePenCS
	}
	r.ROUTEPEN.Set(pen)

	r.CMD.Set(usartCmdMASTEREN | usartCmdRXEN | usartCmdTXEN)

	h.InitData = *init
	h.BitRate = USARTBitRate(hfperFreqAtReset, div)
	h.Initialized = true
	return ECodeOK
}

func (nativeSPIDRV) DeInit(h *SPIDRVHandle) Ecode {
	if h == nil || !h.Initialized {
		return SPIDRVIllegalHandle
	}
	r := usartAt(h.InitData.Port)
	r.CMD.Set(usartCmdRXDIS | usartCmdTXDIS | usartCmdMASTERDIS)
	r.ROUTEPEN.Set(0)
	in := &h.InitData
	pinMode(SignalTX, in.PortLocationTx, gpioModeDisabled, false)
	pinMode(SignalRX, in.PortLocationRx, gpioModeDisabled, false)
	pinMode(SignalCLK, in.PortLocationClk, gpioModeDisabled, false)
	if in.CsControl == SPIDRVCsControlAuto {
		pinMode(SignalCS, in.PortLocationCs, gpioModeDisabled, false)
	}
	if bit, ok := usartClockBit(h.InitData.Port); ok {
		cmu(cmuHFPERCLKEN0).ClearBits(bit)
	}
	h.Initialized = false
	return ECodeOK
}

func (nativeSPIDRV) SetBitrate(h *SPIDRVHandle, bitRate uint32) Ecode {
	if h == nil || !h.Initialized {
		return SPIDRVIllegalHandle
	}
	if bitRate == 0 {
		return SPIDRVParamError
	}
	div := USARTClkDiv(hfperFreqAtReset, bitRate)
	usartAt(h.InitData.Port).CLKDIV.Set(div)
	h.InitData.BitRate = bitRate
	h.BitRate = USARTBitRate(hfperFreqAtReset, div)
	return ECodeOK
}

func (nativeSPIDRV) MTransferB(h *SPIDRVHandle, tx, rx []byte, count int32) Ecode {
	if ec := CheckTransfer(h, tx, rx, count); !ec.OK() {
		return ec
	}
	r := usartAt(h.InitData.Port)
	for i := int32(0); i < count; i++ {
		for !r.STATUS.HasBits(usartStatusTXBL) {
		}
		r.TXDATA.Set(uint32(tx[i]))
		for !r.STATUS.HasBits(usartStatusRXDATAV) {
		}
		rx[i] = byte(r.RXDATA.Get())
	}
	return ECodeOK
}

func (nativeSPIDRV) MTransmitB(h *SPIDRVHandle, tx []byte, count int32) Ecode {
	if ec := CheckTransfer(h, tx, nil, count); !ec.OK() {
		return ec
	}
	r := usartAt(h.InitData.Port)
	for i := int32(0); i < count; i++ {
		for !r.STATUS.HasBits(usartStatusTXBL) {
		}
		r.TXDATA.Set(uint32(tx[i]))
	}
	for !r.STATUS.HasBits(usartStatusTXC) {
	}
	r.CMD.Set(usartCmdCLEARRX)
	return ECodeOK
}

func init() {
	SetDefault(Library{LEUART: nativeLEUART{}, SPIDRV: nativeSPIDRV{}})
}
