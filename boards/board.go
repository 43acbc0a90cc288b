// Package boards names the supported EFR32BG1P parts and describes how
// each board wires its peripherals.
package boards

import (
	"geckohal/leuart"
	"geckohal/usart"
)

// Part is an orderable EFR32BG1P variant. All share the register map.
type Part string

const (
	EFR32BG1P232F256GJ43 Part = "EFR32BG1P232F256GJ43"
	EFR32BG1P232F256GM32 Part = "EFR32BG1P232F256GM32"
	EFR32BG1P232F256GM48 Part = "EFR32BG1P232F256GM48"
	EFR32BG1P233F256GM48 Part = "EFR32BG1P233F256GM48"
	EFR32BG1P332F256GJ43 Part = "EFR32BG1P332F256GJ43"
	EFR32BG1P332F256GM32 Part = "EFR32BG1P332F256GM32"
	EFR32BG1P332F256GM48 Part = "EFR32BG1P332F256GM48"
	EFR32BG1P333F256GM48 Part = "EFR32BG1P333F256GM48"
	EFR32BG1P333F256IM48 Part = "EFR32BG1P333F256IM48"
)

// Parts lists every supported variant.
func Parts() []Part {
	return []Part{
		EFR32BG1P232F256GJ43, EFR32BG1P232F256GM32, EFR32BG1P232F256GM48,
		EFR32BG1P233F256GM48, EFR32BG1P332F256GJ43, EFR32BG1P332F256GM32,
		EFR32BG1P332F256GM48, EFR32BG1P333F256GM48, EFR32BG1P333F256IM48,
	}
}

// Valid reports whether p is a supported variant.
func (p Part) Valid() bool {
	for _, q := range Parts() {
		if p == q {
			return true
		}
	}
	return false
}

// SerialPlan is the LEUART operating configuration chosen by a board.
type SerialPlan struct {
	Baud     uint32
	Mode     leuart.Mode
	Parity   leuart.Parity
	StopBits leuart.StopBits
}

// SPIPlan is the wiring and clocking of one USART used as SPI master.
type SPIPlan struct {
	ID      string // "usart0" | "usart1"
	Pins    usart.Pins
	BitRate uint32
	Mode    usart.Mode
	Order   usart.BitOrder
}

// Plan specifies wiring and operating parameters for a board.
type Plan struct {
	LEUART0 *SerialPlan
	SPI     []SPIPlan
}

// Board is a named part plus its plan.
type Board struct {
	Name string
	Part Part
	Plan Plan
}

// BRD4100A is the 2.4 GHz radio board for the wireless starter kit.
// USART1 reaches the on-board SPI flash on route location 11.
var BRD4100A = Board{
	Name: "brd4100a",
	Part: EFR32BG1P232F256GM48,
	Plan: Plan{
		LEUART0: &SerialPlan{Baud: 9600, Mode: leuart.TransmitAndReceive},
		SPI: []SPIPlan{{
			ID:      "usart1",
			Pins:    usart.Pins{TX: 11, RX: 11, CLK: 11, CS: 11},
			BitRate: 8_000_000,
			Mode:    usart.Mode0,
			Order:   usart.MSBFirst,
		}},
	},
}

// BRD4160A is the Thunderboard React.
var BRD4160A = Board{
	Name: "brd4160a",
	Part: EFR32BG1P232F256GM48,
	Plan: Plan{
		LEUART0: &SerialPlan{Baud: 9600, Mode: leuart.TransmitAndReceive},
		SPI: []SPIPlan{{
			ID:      "usart0",
			Pins:    usart.Pins{TX: 0, RX: 0, CLK: 0, CS: 0},
			BitRate: 1_000_000,
			Mode:    usart.Mode3,
			Order:   usart.MSBFirst,
		}},
	},
}

// ByName returns the board descriptor for name.
func ByName(name string) (Board, bool) {
	for _, b := range []Board{BRD4100A, BRD4160A} {
		if b.Name == name {
			return b, true
		}
	}
	return Board{}, false
}
