package gb

import "testing"

func TestRegistersPairs(t *testing.T) {
	var r Registers
	r.SetBC(0x1234)
	r.SetDE(0x5678)
	r.SetHL(0x9ABC)
	r.SetAF(0xFF0F) // low nibble of F must be masked to zero

	tests := []struct {
		got  interface{}
		want interface{}
	}{
		{r.BC(), uint16(0x1234)},
		{r.DE(), uint16(0x5678)},
		{r.HL(), uint16(0x9ABC)},
		{r.A, byte(0xFF)},
		{r.F, byte(0x00)},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Errorf("got %v, want %v", test.got, test.want)
		}
	}
}

func TestRegistersFlags(t *testing.T) {
	var r Registers
	r.SetFlag(FlagZ, true)
	r.SetFlag(FlagC, true)

	if !r.Flag(FlagZ) || !r.Flag(FlagC) {
		t.Fatalf("expected Z and C set, F=%#02x", r.F)
	}
	if r.Flag(FlagN) || r.Flag(FlagH) {
		t.Fatalf("expected N and H clear, F=%#02x", r.F)
	}

	r.SetFlag(FlagZ, false)
	if r.Flag(FlagZ) {
		t.Fatalf("expected Z cleared, F=%#02x", r.F)
	}
}

func TestGet8Set8(t *testing.T) {
	var r Registers
	r.Set8(regB, 0x42)
	if got := r.Get8(regB); got != 0x42 {
		t.Errorf("got %#02x, want 0x42", got)
	}
}

func TestGet8PanicsOnHLIndirect(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Get8(regHLInd) to panic")
		}
	}()
	var r Registers
	r.Get8(regHLInd)
}
