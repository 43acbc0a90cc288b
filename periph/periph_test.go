package periph

import (
	"errors"
	"sync"
	"testing"

	"geckohal/emlib"
	"geckohal/emlib/emlibtest"
	"geckohal/errcode"
)

func TestClaimIsOneShot(t *testing.T) {
	lib, _, _ := emlibtest.New()
	var c Claim

	p, err := c.Take(lib)
	if err != nil || p == nil {
		t.Fatalf("first Take: %v", err)
	}
	if p.LEUART0.Base() != emlib.LEUART0Base || p.USART0.Base() != emlib.USART0Base || p.USART1.Base() != emlib.USART1Base {
		t.Fatalf("unexpected bases: %#x %#x %#x", p.LEUART0.Base(), p.USART0.Base(), p.USART1.Base())
	}

	for i := 0; i < 3; i++ {
		p2, err := c.Take(lib)
		if p2 != nil {
			t.Fatal("second Take returned a bundle")
		}
		if !errors.Is(err, errcode.AlreadyTaken) {
			t.Fatalf("want AlreadyTaken, got %v", err)
		}
		if got, want := err.Error(), "periph.take: already_taken: peripherals already taken"; got != want {
			t.Fatalf("Error()=%q want %q", got, want)
		}
	}
}

func TestClaimConcurrentExactlyOneWinner(t *testing.T) {
	lib, _, _ := emlibtest.New()
	var (
		c    Claim
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p, err := c.Take(lib); err == nil && p != nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("winners=%d want 1", wins)
	}
}

func TestClaimWithoutLibraryIsNotConsumed(t *testing.T) {
	var c Claim
	if _, err := c.Take(emlib.Library{}); errcode.Of(err) != errcode.NotReady {
		t.Fatalf("want NotReady, got %v", err)
	}
	if c.Taken() {
		t.Fatal("failed Take consumed the claim")
	}
	lib, _, _ := emlibtest.New()
	if _, err := c.Take(lib); err != nil {
		t.Fatalf("Take after install: %v", err)
	}
}

func TestDistinctHandlesPerInstance(t *testing.T) {
	lib, _, _ := emlibtest.New()
	var c Claim
	p, _ := c.Take(lib)
	if p.USART0 == p.USART1 {
		t.Fatal("USART0 and USART1 share a handle")
	}
	if p.LEUART0.Lib() != lib.LEUART || p.USART1.Lib() != lib.SPIDRV {
		t.Fatal("handles not wired to the given library")
	}
}

func TestBindOnce(t *testing.T) {
	lib, _, _ := emlibtest.New()
	var c Claim
	p, _ := c.Take(lib)

	release, err := p.USART0.Bind()
	if err != nil || release == nil {
		t.Fatalf("first bind: %v", err)
	}
	if _, err := p.USART0.Bind(); err != errcode.HandleInUse {
		t.Fatalf("second bind: want HandleInUse, got %v", err)
	}
	if _, err := p.USART1.Bind(); err != nil {
		t.Fatalf("other instance: %v", err)
	}
	release()
	if _, err := p.USART0.Bind(); err != nil {
		t.Fatalf("bind after release: %v", err)
	}

	if _, err := p.LEUART0.Bind(); err != nil {
		t.Fatalf("leuart bind: %v", err)
	}
	if _, err := p.LEUART0.Bind(); err != errcode.HandleInUse {
		t.Fatalf("leuart second bind: %v", err)
	}
}

func TestStaleReleaseDoesNotFreeNewOwner(t *testing.T) {
	lib, _, _ := emlibtest.New()
	var c Claim
	p, _ := c.Take(lib)

	release, err := p.LEUART0.Bind()
	if err != nil {
		t.Fatal(err)
	}
	release()
	if _, err := p.LEUART0.Bind(); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	release()
	if _, err := p.LEUART0.Bind(); err != errcode.HandleInUse {
		t.Fatalf("second release call freed the new owner: %v", err)
	}
}

func TestZeroHandlesRejected(t *testing.T) {
	var l *LEUART
	if _, err := l.Bind(); err != errcode.InvalidHandle {
		t.Fatalf("nil LEUART: %v", err)
	}
	if _, err := (&USART{}).Bind(); err != errcode.InvalidHandle {
		t.Fatalf("zero USART: %v", err)
	}
}

func TestProcessTake(t *testing.T) {
	lib, _, _ := emlibtest.New()
	emlib.SetDefault(lib)

	p, err := Take()
	if err != nil || p == nil {
		t.Fatalf("Take: %v", err)
	}
	if _, err := Take(); !errors.Is(err, errcode.AlreadyTaken) {
		t.Fatalf("second Take: %v", err)
	}
}
