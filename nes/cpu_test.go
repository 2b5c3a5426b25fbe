package nes

import (
	"io"
	"testing"
)

func newTestCPU() *cpu {
	stubMakeFile := func(channel string) (io.WriteSeeker, error) {
		return nil, nil
	}
	return newCpu(io.Discard, newPpu(), newApu(64, 44100, stubMakeFile))
}

func TestCPU_doAdd(t *testing.T) {
	type want struct {
		carry    bool
		overflow bool
		a        byte
	}
	tests := []struct {
		name  string
		a, v  byte
		carry bool
		want  want
	}{
		// M7 N7 C6   C7 S7 V   Carry / Overflow                         Hex              Unsigned   Signed
		// 0  0  0    0  0  0   No unsigned carry or signed overflow     0x50+0x10=0x60   80+16=96   80+16=96
		{name: "no carry or overflow", a: 0x50, v: 0x10, want: want{a: 0x60, carry: false, overflow: false}},
		// 0  0  1    0  1  1   No unsigned carry but signed overflow    0x50+0x50=0xa0   80+80=160  80+80=-96
		{name: "signed overflow only", a: 0x50, v: 0x50, want: want{a: 0xA0, carry: false, overflow: true}},
		// 0  1  0    0  1  0   No unsigned carry or signed overflow     0x50+0x90=0xe0   80+144=224 80+-112=-32
		{name: "no carry or overflow 2", a: 0x50, v: 0x90, want: want{a: 0xE0, carry: false, overflow: false}},
		// 0  1  1    1  0  0   Unsigned carry, but no signed overflow   0x50+0xd0=0x120  80+208=288 80+-48=32
		{name: "unsigned carry only", a: 0x50, v: 0xD0, want: want{a: 0x20, carry: true, overflow: false}},
		// 1  0  0    0  1  0   No unsigned carry or signed overflow     0xd0+0x10=0xe0   208+16=224 -48+16=-32
		{name: "no carry or overflow 3", a: 0xD0, v: 0x10, want: want{a: 0xE0, carry: false, overflow: false}},
		// 1  0  1    1  0  0   Unsigned carry but no signed overflow    0xd0+0x50=0x120  208+80=288 -48+80=32
		{name: "unsigned carry only 2", a: 0xD0, v: 0x50, want: want{a: 0x20, carry: true, overflow: false}},
		// 1  1  0    1  0  1   Unsigned carry and signed overflow       0xd0+0x90=0x160  208+144=352 -48+-112=96
		{name: "both carry and overflow", a: 0xD0, v: 0x90, want: want{a: 0x60, carry: true, overflow: true}},
		// 1  1  1    1  1  0   Unsigned carry, but no signed overflow   0xd0+0xd0=0x1a0  208+208=416 -48+-48=-96
		{name: "unsigned carry only 3", a: 0xD0, v: 0xD0, want: want{a: 0xA0, carry: true, overflow: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCPU()
			c.a = tt.a
			if tt.carry {
				c.p |= carry
			}

			c.doAdd(tt.v)

			if c.a != tt.want.a {
				t.Errorf("doAdd(%#x): a = %#x, want %#x", tt.v, c.a, tt.want.a)
			}
			if gotCarry := c.p&carry != 0; gotCarry != tt.want.carry {
				t.Errorf("doAdd(%#x): carry = %v, want %v", tt.v, gotCarry, tt.want.carry)
			}
			if gotOverflow := c.p&overflow != 0; gotOverflow != tt.want.overflow {
				t.Errorf("doAdd(%#x): overflow = %v, want %v", tt.v, gotOverflow, tt.want.overflow)
			}
		})
	}
}

func TestCPU_sbc(t *testing.T) {
	type want struct {
		carry    bool
		overflow bool
		a        byte
	}
	tests := []struct {
		name string
		a, v byte
		want want
	}{
		// a - v, borrow-in set (carry flag starts set, meaning "no borrow").
		{name: "no borrow", a: 0x50, v: 0x10, want: want{a: 0x40, carry: true, overflow: false}},
		{name: "borrow no overflow", a: 0x50, v: 0x60, want: want{a: 0xF0, carry: false, overflow: false}},
		{name: "signed overflow", a: 0x50, v: 0xB0, want: want{a: 0xA0, carry: false, overflow: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCPU()
			c.a = tt.a
			c.p |= carry // SBC treats carry set as "no borrow in"

			c.doAdd(tt.v ^ 0xFF)

			if c.a != tt.want.a {
				t.Errorf("sbc(%#x): a = %#x, want %#x", tt.v, c.a, tt.want.a)
			}
			if gotCarry := c.p&carry != 0; gotCarry != tt.want.carry {
				t.Errorf("sbc(%#x): carry = %v, want %v", tt.v, gotCarry, tt.want.carry)
			}
			if gotOverflow := c.p&overflow != 0; gotOverflow != tt.want.overflow {
				t.Errorf("sbc(%#x): overflow = %v, want %v", tt.v, gotOverflow, tt.want.overflow)
			}
		})
	}
}

// TestCPU_doAddDecimal checks a decimal-mode ADC whose high digit carries
// out: 58 + 46 leaves A = 0x04 (the low BCD digits of 104) with carry set.
func TestCPU_doAddDecimal(t *testing.T) {
	c := newTestCPU()
	c.enableDecimal = true
	c.p |= decimal

	c.a = 0x58
	c.doAdd(0x46) // 58 + 46 = 104 in decimal

	if c.a != 0x04 {
		t.Errorf("doAdd decimal: a = %#x, want 0x04", c.a)
	}
	if c.p&carry == 0 {
		t.Error("doAdd decimal: expected carry out for a 3-digit result")
	}
}

func TestCPU_doSubDecimal(t *testing.T) {
	c := newTestCPU()
	c.enableDecimal = true
	c.p |= decimal | carry

	c.a = 0x46
	c.doSubDecimal(0x12)

	if c.a != 0x34 {
		t.Errorf("doSubDecimal: a = %#x, want 0x34", c.a)
	}
	if c.p&carry == 0 {
		t.Error("doSubDecimal: expected no-borrow carry set")
	}
}

func TestCPU_scheduleTrigger(t *testing.T) {
	c := newTestCPU()
	c.cycles = 10

	fired := false
	c.scheduleTrigger(12, func() { fired = true })

	c.clock()
	if fired {
		t.Fatal("trigger fired before its scheduled cycle")
	}
	c.clock()
	if !fired {
		t.Fatal("trigger did not fire on its scheduled cycle")
	}
}
