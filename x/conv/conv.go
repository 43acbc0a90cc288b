// Package conv holds allocation-free integer formatting for MCU builds.
package conv

// Itoa writes base-10 representation of n into buf and returns the used slice.
// buf should be length >= 20 for int64.
func Itoa(buf []byte, n int64) []byte {
	if n >= 0 {
		return Utoa(buf, uint64(n))
	}
	out := Utoa(buf, uint64(-n))
	i := len(buf) - len(out)
	if i == 0 {
		return out
	}
	buf[i-1] = '-'
	return buf[i-1:]
}

// Utoa writes base-10 representation of n into buf and returns the used slice.
func Utoa(buf []byte, n uint64) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	i := len(buf)
	if n == 0 {
		i--
		buf[i] = '0'
		return buf[i:]
	}
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}

const (
	lowerHex = "0123456789abcdef"
	upperHex = "0123456789ABCDEF"
)

// Hex writes n in base 16 without leading zeros.
func Hex(buf []byte, n uint64, upper bool) []byte {
	if len(buf) == 0 {
		return buf[:0]
	}
	digits := lowerHex
	if upper {
		digits = upperHex
	}
	i := len(buf)
	for {
		i--
		buf[i] = digits[n&0xF]
		n >>= 4
		if n == 0 || i == 0 {
			break
		}
	}
	return buf[i:]
}

// U32Hex writes 8-digit uppercase hex without 0x, zero-padded.
// Used for register addresses and status words.
func U32Hex(buf []byte, n uint32) []byte {
	if len(buf) < 8 {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < 8; j++ {
		i--
		buf[i] = upperHex[n&0xF]
		n >>= 4
	}
	return buf[i:]
}
