package emlib

import "geckohal/x/mathx"

// LEUARTEnable selects which directions are enabled (CMD RXEN/TXEN bits).
type LEUARTEnable uint32

const (
	LEUARTDisable    LEUARTEnable = 0
	LEUARTEnableRx   LEUARTEnable = 1 << 0
	LEUARTEnableTx   LEUARTEnable = 1 << 2
	LEUARTEnableRxTx LEUARTEnable = LEUARTEnableRx | LEUARTEnableTx
)

// LEUARTDatabits is the CTRL.DATABITS field.
type LEUARTDatabits uint32

const (
	LEUARTDatabits8 LEUARTDatabits = 0
	LEUARTDatabits9 LEUARTDatabits = 1 << 1
)

// LEUARTParity is the CTRL.PARITY field.
type LEUARTParity uint32

const (
	LEUARTNoParity   LEUARTParity = 0
	LEUARTEvenParity LEUARTParity = 2 << 2
	LEUARTOddParity  LEUARTParity = 3 << 2
)

// LEUARTStopbits is the CTRL.STOPBITS field.
type LEUARTStopbits uint32

const (
	LEUARTStopbits1 LEUARTStopbits = 0
	LEUARTStopbits2 LEUARTStopbits = 1 << 4
)

// STATUS register bits.
const (
	LEUARTStatusTXENS   uint32 = 1 << 1
	LEUARTStatusTXC     uint32 = 1 << 4
	LEUARTStatusTXBL    uint32 = 1 << 5
	LEUARTStatusRXDATAV uint32 = 1 << 6
	LEUARTStatusTXIDLE  uint32 = 1 << 8
)

// IF/IFC register bits.
const (
	LEUARTIfTXC     uint32 = 1 << 0
	LEUARTIfTXBL    uint32 = 1 << 1
	LEUARTIfRXDATAV uint32 = 1 << 2
	LEUARTIfRXOF    uint32 = 1 << 3
	LEUARTIfRXUF    uint32 = 1 << 4
	LEUARTIfTXOF    uint32 = 1 << 5
	LEUARTIfPERR    uint32 = 1 << 6
	LEUARTIfFERR    uint32 = 1 << 7
)

// RXDATAX frame bits above the 9-bit data field.
const (
	LEUARTRxDataXMask uint16 = 0x1FF
	LEUARTRxDataXPERR uint16 = 1 << 14
	LEUARTRxDataXFERR uint16 = 1 << 15
)

// LEUARTInit mirrors the vendor init record. RefFreq 0 means "use the
// currently configured reference clock".
type LEUARTInit struct {
	Enable   LEUARTEnable
	RefFreq  uint32
	Baudrate uint32
	Databits LEUARTDatabits
	Parity   LEUARTParity
	Stopbits LEUARTStopbits
}

// LEUARTLib is the LEUART half of the vendor library.
type LEUARTLib interface {
	Init(base Addr, init *LEUARTInit)
	ClockFreq(base Addr) uint32
	BaudrateGet(base Addr) uint32
	Status(base Addr) uint32
	IntGet(base Addr) uint32
	IntClear(base Addr, flags uint32)
	Rx(base Addr) byte
	RxExt(base Addr) uint16
	Tx(base Addr, b byte)
}

// CLKDIV field bounds.
const (
	LEUARTClkDivMask uint32 = 0x1FFF8
	leuartClkDivMax         = LEUARTClkDivMask
)

// LEUARTClkDiv computes the CLKDIV value the vendor Init programs for
// baud at refFreq: 256*ref/baud - 256, truncated to the field.
func LEUARTClkDiv(refFreq, baud uint32) uint32 {
	if baud == 0 {
		return leuartClkDivMax
	}
	div := (uint64(refFreq) << 8) / uint64(baud)
	if div < 256 {
		return 0
	}
	div = mathx.Min(div-256, uint64(leuartClkDivMax))
	return uint32(div) & LEUARTClkDivMask
}

// LEUARTBaudrateCalc is the rate actually produced by clkdiv at refFreq.
func LEUARTBaudrateCalc(refFreq, clkdiv uint32) uint32 {
	return uint32((uint64(refFreq) << 8) / (256 + uint64(clkdiv&LEUARTClkDivMask)))
}
