package boards

import (
	"geckohal/errcode"
	"geckohal/leuart"
	"geckohal/periph"
	"geckohal/usart"
)

// OpenSerial constructs the LEUART0 driver described by the plan.
func (pl Plan) OpenSerial(p *periph.Peripherals) (*leuart.Serial, error) {
	sp := pl.LEUART0
	if sp == nil {
		return nil, &errcode.E{C: errcode.Unsupported, Op: "boards.open_serial", Msg: "board has no LEUART0 plan"}
	}
	return leuart.New(p.LEUART0, sp.Baud, sp.Mode, sp.Parity, sp.StopBits)
}

// OpenSPI constructs the SPI driver planned for the USART named id.
func (pl Plan) OpenSPI(p *periph.Peripherals, id string) (*usart.SPI, error) {
	for _, sp := range pl.SPI {
		if sp.ID != id {
			continue
		}
		port := USART(p, id)
		if port == nil {
			break
		}
		return usart.NewSPI(port, sp.Pins, sp.BitRate, sp.Mode, sp.Order)
	}
	return nil, &errcode.E{C: errcode.Unsupported, Op: "boards.open_spi", Msg: "no SPI plan for " + id}
}

// USART maps "usart0"/"usart1" to the claimed handle.
func USART(p *periph.Peripherals, id string) *periph.USART {
	switch id {
	case "usart0":
		return p.USART0
	case "usart1":
		return p.USART1
	}
	return nil
}
