package conv

import "testing"

func TestIntegerFormatting(t *testing.T) {
	var buf [24]byte
	cases := []struct {
		got, want string
	}{
		{string(Itoa(buf[:], 0)), "0"},
		{string(Itoa(buf[:], -115200)), "-115200"},
		{string(Utoa(buf[:], 9600)), "9600"},
		{string(Hex(buf[:], 0x4004a000, false)), "4004a000"},
		{string(Hex(buf[:], 0, true)), "0"},
		{string(Hex(buf[:], 0x2003, true)), "2003"},
		{string(U32Hex(buf[:], 0x2a)), "0000002A"},
	}
	for i, c := range cases {
		if c.got != c.want {
			t.Errorf("case %d: got %q want %q", i, c.got, c.want)
		}
	}
}
