//go:build efr32

package fmtx

import (
	"io"
	"unicode/utf8"

	"geckohal/x/conv"
)

// DefaultOutput is used by Print/Printf on target builds.
// Firmware points it at a serial writer during bring-up.
var DefaultOutput io.Writer = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func Sprintf(format string, a ...any) string {
	var b builder
	b.format(format, a...)
	return string(b.buf)
}

func Printf(format string, a ...any) (int, error) {
	return Fprintf(DefaultOutput, format, a...)
}

func Fprintf(w io.Writer, format string, a ...any) (int, error) {
	var b builder
	b.format(format, a...)
	return w.Write(b.buf)
}

func Errorf(format string, a ...any) error {
	return &stringError{Sprintf(format, a...)}
}

func Sprint(a ...any) string {
	var b builder
	b.list(a)
	return string(b.buf)
}

func Fprint(w io.Writer, a ...any) (int, error) {
	var b builder
	b.list(a)
	return w.Write(b.buf)
}

func Print(a ...any) (int, error) { return Fprint(DefaultOutput, a...) }

// Supports %s %q %d %x %X %v %t %% with width for %s and precision for %s.
// No float verbs and no flags.

type stringError struct{ s string }

func (e *stringError) Error() string { return e.s }

type builder struct {
	buf     []byte
	scratch [24]byte
}

func (b *builder) byte(c byte)    { b.buf = append(b.buf, c) }
func (b *builder) bytes(p []byte) { b.buf = append(b.buf, p...) }
func (b *builder) str(s string)   { b.buf = append(b.buf, s...) }

func (b *builder) list(a []any) {
	for i, v := range a {
		if i > 0 {
			b.byte(' ')
		}
		b.any(v, 'v')
	}
}

func (b *builder) any(v any, verb rune) {
	if i, ok := toI64(v); ok {
		b.bytes(conv.Itoa(b.scratch[:], i))
		return
	}
	if u, ok := toU64(v); ok {
		b.bytes(conv.Utoa(b.scratch[:], u))
		return
	}
	switch x := v.(type) {
	case string:
		if verb == 'q' {
			b.quote(x)
		} else {
			b.str(x)
		}
	case []byte:
		if verb == 'q' {
			b.quote(string(x))
		} else {
			b.bytes(x)
		}
	case bool:
		b.bool(x)
	case error:
		b.str(x.Error())
	default:
		b.str("<?>")
	}
}

func (b *builder) bool(v bool) {
	if v {
		b.str("true")
	} else {
		b.str("false")
	}
}

func (b *builder) format(format string, args ...any) {
	ai := 0
	for i := 0; i < len(format); {
		if format[i] != '%' {
			b.byte(format[i])
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			b.byte('%')
			i += 2
			continue
		}
		i++
		width, prec, hasPrec := 0, 0, false
		i = parseNum(format, i, &width)
		if i < len(format) && format[i] == '.' {
			i++
			hasPrec = true
			i = parseNum(format, i, &prec)
		}
		if i >= len(format) || ai >= len(args) {
			return
		}
		verb := rune(format[i])
		arg := args[ai]
		ai++
		i++

		switch verb {
		case 's', 'q':
			var s string
			switch v := arg.(type) {
			case string:
				s = v
			case []byte:
				s = string(v)
			case error:
				s = v.Error()
			default:
				b.any(arg, 'v')
				continue
			}
			if hasPrec && prec < len(s) {
				s = s[:prec]
			}
			for pad := width - utf8.RuneCountInString(s); pad > 0; pad-- {
				b.byte(' ')
			}
			if verb == 'q' {
				b.quote(s)
			} else {
				b.str(s)
			}
		case 'd':
			b.any(arg, 'v')
		case 'x', 'X':
			u, ok := toU64(arg)
			if !ok {
				i, _ := toI64(arg)
				u = uint64(i)
			}
			b.bytes(conv.Hex(b.scratch[:], u, verb == 'X'))
		case 't':
			v, _ := arg.(bool)
			b.bool(v)
		case 'v':
			b.any(arg, 'v')
		default:
			b.byte('%')
			b.byte(byte(verb))
		}
	}
}

func toI64(v any) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int8:
		return int64(t), true
	case int16:
		return int64(t), true
	case int32:
		return int64(t), true
	case int64:
		return t, true
	}
	return 0, false
}

func toU64(v any) (uint64, bool) {
	switch t := v.(type) {
	case uint:
		return uint64(t), true
	case uint8:
		return uint64(t), true
	case uint16:
		return uint64(t), true
	case uint32:
		return uint64(t), true
	case uint64:
		return t, true
	case uintptr:
		return uint64(t), true
	}
	return 0, false
}

func parseNum(s string, i int, out *int) int {
	n := 0
	start := i
	for i < len(s) && '0' <= s[i] && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	if i > start {
		*out = n
	}
	return i
}

func (b *builder) quote(s string) {
	b.byte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '"':
			b.byte('\\')
			b.byte(c)
		case '\n':
			b.str(`\n`)
		case '\r':
			b.str(`\r`)
		case '\t':
			b.str(`\t`)
		default:
			b.byte(c)
		}
	}
	b.byte('"')
}
