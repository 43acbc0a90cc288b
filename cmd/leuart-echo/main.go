//go:build efr32

// Command leuart-echo is bring-up firmware: it echoes every LEUART0 frame
// back to the sender and, when the board plans an SPI bus, reads the JEDEC
// ID of the device behind it once at boot.
package main

import (
	"time"

	"geckohal/boards"
	"geckohal/emlib"
	"geckohal/errcode"
	"geckohal/periph"
	"geckohal/x/fmtx"
)

const idleSleep = time.Millisecond

func main() {
	time.Sleep(100 * time.Millisecond)
	println("boot", boards.Selected.Name)

	p, err := periph.Take()
	if err != nil {
		println("Info: take failed:", err.Error())
		return
	}
	plan := boards.Selected.Plan
	if plan.LEUART0 != nil {
		emlib.SelectLEUARTClock(plan.LEUART0.Baud)
	}

	serial, err := plan.OpenSerial(p)
	if err != nil {
		println("Info: leuart0:", err.Error())
		return
	}
	fmtx.DefaultOutput = serial

	for _, sp := range plan.SPI {
		spi, err := plan.OpenSPI(p, sp.ID)
		if err != nil {
			fmtx.Printf("%s: %v\r\n", sp.ID, err)
			continue
		}
		id := []byte{0x9F, 0, 0, 0} // JEDEC read ID
		if _, err := spi.Transfer(id); err != nil {
			fmtx.Printf("%s: %v\r\n", sp.ID, err)
			continue
		}
		fmtx.Printf("%s: jedec %x %x %x\r\n", sp.ID, id[1], id[2], id[3])
	}

	var rxErrors uint32
	for {
		b, err := serial.ReadByte()
		switch err {
		case nil:
		case errcode.WouldBlock:
			time.Sleep(idleSleep)
			continue
		default:
			rxErrors++
			fmtx.Printf("\r\n[%s, %d rx errors]\r\n", err.Error(), rxErrors)
			continue
		}
		for serial.WriteByte(b) == errcode.WouldBlock {
		}
	}
}
