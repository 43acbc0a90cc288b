package errcode

// Code is a stable error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK          Code = "ok"
	NotReady    Code = "not_ready"
	Unsupported Code = "unsupported"
	Closed      Code = "closed"

	// Ownership
	AlreadyTaken  Code = "already_taken"
	HandleInUse   Code = "handle_in_use"
	InvalidHandle Code = "invalid_handle"

	// Configuration
	InvalidConfig Code = "invalid_config"
	InvalidPin    Code = "invalid_pin"

	// Serial status
	WouldBlock Code = "would_block"
	Overrun    Code = "overrun"
	Parity     Code = "parity_error"
	Framing    Code = "framing_error"

	// SPI
	TransferTooBig Code = "transfer_too_big"
	Unknown        Code = "unknown"

	Error Code = "error" // generic fallback
)

// E wraps a Code with the failing operation and an optional cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += " (" + e.Err.Error() + ")"
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, code) match a wrapped Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap builds an *E for op.
func Wrap(c Code, op string, cause error) *E {
	return &E{C: c, Op: op, Err: cause}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// Transient reports whether err only asks the caller to poll again.
func Transient(err error) bool { return Of(err) == WouldBlock }
