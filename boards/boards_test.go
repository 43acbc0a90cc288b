package boards

import (
	"testing"

	"geckohal/emlib"
	"geckohal/emlib/emlibtest"
	"geckohal/errcode"
	"geckohal/periph"
)

func TestPartsAreValidAndDistinct(t *testing.T) {
	seen := map[Part]bool{}
	for _, p := range Parts() {
		if !p.Valid() || seen[p] {
			t.Fatalf("part %q invalid or duplicated", p)
		}
		seen[p] = true
	}
	if len(seen) != 9 {
		t.Fatalf("parts=%d want 9", len(seen))
	}
	if Part("EFR32MG12P432F1024GL125").Valid() {
		t.Fatal("foreign part accepted")
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"brd4100a", "brd4160a"} {
		b, ok := ByName(name)
		if !ok || b.Name != name || !b.Part.Valid() {
			t.Fatalf("ByName(%q) = %+v, %v", name, b, ok)
		}
	}
	if _, ok := ByName("pico"); ok {
		t.Fatal("unknown board found")
	}
}

func TestPlanOpensDrivers(t *testing.T) {
	lib, fl, fs := emlibtest.New()
	var c periph.Claim
	p, err := c.Take(lib)
	if err != nil {
		t.Fatal(err)
	}
	pl := BRD4100A.Plan

	s, err := pl.OpenSerial(p)
	if err != nil {
		t.Fatalf("OpenSerial: %v", err)
	}
	if s.Config().BaudRate != 9600 || len(fl.Port(emlib.LEUART0Base).Inits) != 1 {
		t.Fatal("serial not programmed from plan")
	}

	spi, err := pl.OpenSPI(p, "usart1")
	if err != nil {
		t.Fatalf("OpenSPI: %v", err)
	}
	if spi.Base() != emlib.USART1Base || fs.Inits[0].PortLocationClk != 11 {
		t.Fatalf("spi from plan: base=%#x init=%+v", spi.Base(), fs.Inits[0])
	}

	if _, err := pl.OpenSPI(p, "usart0"); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("unplanned USART: %v", err)
	}
	if _, err := (Plan{}).OpenSerial(p); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("empty plan: %v", err)
	}
}
