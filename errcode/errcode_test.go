package errcode

import (
	"errors"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]error{
		"not_ready":        NotReady,
		"closed":           Closed,
		"already_taken":    AlreadyTaken,
		"handle_in_use":    HandleInUse,
		"invalid_handle":   InvalidHandle,
		"invalid_config":   InvalidConfig,
		"invalid_pin":      InvalidPin,
		"would_block":      WouldBlock,
		"overrun":          Overrun,
		"parity_error":     Parity,
		"framing_error":    Framing,
		"transfer_too_big": TransferTooBig,
		"unknown":          Unknown,
	}
	for want, e := range cases {
		if e == nil || e.Error() != want {
			t.Fatalf("code %q mismatch: got %#v", want, e)
		}
	}
}

type causeErr struct{}

func (causeErr) Error() string { return "cause" }

func TestEWrapsCodeAndCause(t *testing.T) {
	err := error(&E{C: Unknown, Op: "usart.transfer", Err: causeErr{}})

	if got := Of(err); got != Unknown {
		t.Fatalf("Of: got %q want %q", got, Unknown)
	}
	if !errors.Is(err, Unknown) {
		t.Fatal("errors.Is should match the wrapped code")
	}
	if errors.Is(err, Overrun) {
		t.Fatal("errors.Is matched the wrong code")
	}
	var c causeErr
	if !errors.As(err, &c) {
		t.Fatal("errors.As should reach the cause")
	}
	if got, want := err.Error(), "usart.transfer: unknown (cause)"; got != want {
		t.Fatalf("Error: got %q want %q", got, want)
	}
}

func TestOfDefaults(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to OK")
	}
	if Of(errors.New("boom")) != Error {
		t.Fatal("foreign errors should map to Error")
	}
	if !Transient(WouldBlock) || Transient(Overrun) {
		t.Fatal("Transient classification wrong")
	}
}
