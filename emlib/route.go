package emlib

import "geckohal/x/mathx"

// GPIO ports present on the EFR32BG1P.
const (
	PortA uint8 = 0
	PortB uint8 = 1
	PortC uint8 = 2
	PortD uint8 = 3
	PortF uint8 = 5
)

// Pin is one GPIO pin.
type Pin struct {
	Port uint8
	Pin  uint8
}

// Signal is a routable peripheral signal. Each signal's location table is
// the shared pin list below rotated by the signal's offset, so location n
// of RX is the pin after location n of TX.
type Signal uint8

const (
	SignalTX Signal = iota
	SignalRX
	SignalCLK
	SignalCS
)

// Location 0 of TX onwards.
var routePins = [32]Pin{
	{PortA, 0}, {PortA, 1}, {PortA, 2}, {PortA, 3}, {PortA, 4}, {PortA, 5},
	{PortB, 11}, {PortB, 12}, {PortB, 13}, {PortB, 14}, {PortB, 15},
	{PortC, 6}, {PortC, 7}, {PortC, 8}, {PortC, 9}, {PortC, 10}, {PortC, 11},
	{PortD, 9}, {PortD, 10}, {PortD, 11}, {PortD, 12}, {PortD, 13}, {PortD, 14}, {PortD, 15},
	{PortF, 0}, {PortF, 1}, {PortF, 2}, {PortF, 3}, {PortF, 4}, {PortF, 5}, {PortF, 6}, {PortF, 7},
}

// RoutePin returns the pin sig appears on at route location loc.
func RoutePin(sig Signal, loc uint8) (Pin, bool) {
	if loc >= uint8(len(routePins)) || sig > SignalCS {
		return Pin{}, false
	}
	return routePins[(int(loc)+int(sig))%len(routePins)], true
}

// USARTClkDivMask covers the fractional synchronous divider field.
const USARTClkDivMask uint32 = 0x7FFFF8

// USARTClkDiv is the CLKDIV value giving at most bitRate from refFreq in
// synchronous mode. Rates at or above refFreq/2 give 0, the fastest clock.
func USARTClkDiv(refFreq, bitRate uint32) uint32 {
	if bitRate == 0 {
		return USARTClkDivMask
	}
	div := (uint64(refFreq) - 1) / (2 * uint64(bitRate))
	return uint32(mathx.Min(div<<8, uint64(USARTClkDivMask))) & USARTClkDivMask
}

// USARTBitRate is the synchronous clock clkdiv produces from refFreq.
func USARTBitRate(refFreq, clkdiv uint32) uint32 {
	return uint32(uint64(refFreq) * 256 / (2 * (256 + uint64(clkdiv&USARTClkDivMask))))
}

// LEUARTLowFreqRef is the LFRCO the LEUART runs from by default.
const LEUARTLowFreqRef = 32768

// LEUARTNeedsHighFreqClock reports whether baud is out of reach of the
// LFRCO within 2%, so the LEUART must be clocked from HFCLKLE.
func LEUARTNeedsHighFreqClock(baud uint32) bool {
	if baud == 0 || baud > LEUARTLowFreqRef {
		return baud != 0
	}
	actual := LEUARTBaudrateCalc(LEUARTLowFreqRef, LEUARTClkDiv(LEUARTLowFreqRef, baud))
	return uint64(mathx.AbsDiff(actual, baud))*100 > uint64(baud)*2
}
