package nes

import (
	"io"
	"testing"
)

func newTestApu() *apu {
	stubMakeFile := func(channel string) (io.WriteSeeker, error) {
		return nil, nil
	}
	a := newApu(64, 44100, stubMakeFile)
	a.dmc.read = func(addr uint16) byte { return 0xAA }
	return a
}

// TestAPU_samplesPerFrame checks §8's "exactly 735 samples per frame"
// property: clocking the apu for one full 262-scanline NTSC cycle must
// push exactly 735 samples into the ring, regardless of channel state.
func TestAPU_samplesPerFrame(t *testing.T) {
	a := newTestApu()
	c := newTestCPU()

	// 262 scanlines * 341 dots, 3 dots per cpu cycle, rounded up so the
	// 262nd scanline boundary is actually reached (262*341 isn't a
	// multiple of 3).
	const cyclesPerFrame = 29781

	before := a.mixer.ring.count
	for i := 0; i < cyclesPerFrame; i++ {
		c.cycles++
		a.clock(c)
	}
	got := a.mixer.ring.count - before

	if got != 735 {
		t.Errorf("samples pushed over one frame = %d, want 735", got)
	}
}

func TestDMC_statusBitTracksBytesRemaining(t *testing.T) {
	d := &dmc{read: func(uint16) byte { return 0 }}

	if d.statusBit() {
		t.Fatalf("statusBit() = true before any sample is loaded, want false")
	}

	d.writePort(0x4012, 0x00) // sample address $C000
	d.writePort(0x4013, 0x00) // sample length 1
	d.writePort(0x4015, 0x10) // enable: restarts since bytesLeft == 0

	if !d.statusBit() {
		t.Fatalf("statusBit() = false after enabling with a nonzero length, want true")
	}

	d.writePort(0x4015, 0x00) // disable
	if d.statusBit() {
		t.Fatalf("statusBit() = true after disabling, want false")
	}
}

func TestDMC_irqClearedByStatusWrite(t *testing.T) {
	d := &dmc{read: func(uint16) byte { return 0 }}
	d.irqPending = true

	d.writePort(0x4015, 0x00)

	if d.irqPending {
		t.Errorf("irqPending still set after a $4015 write, want cleared")
	}
}

func TestDMC_rateIndexSelectsPeriod(t *testing.T) {
	d := &dmc{}
	d.writePort(0x4010, 0x0F) // rate index 15 -> fastest NTSC rate

	if d.freqTimer != dmcRateTable[15] {
		t.Errorf("freqTimer = %d, want %d", d.freqTimer, dmcRateTable[15])
	}
}

func TestDMC_directLoadSetsOutputImmediately(t *testing.T) {
	d := &dmc{}
	d.writePort(0x4011, 0xFF) // top bit ignored, 7-bit DAC

	if d.output != 0x7F {
		t.Errorf("output = %#x, want %#x", d.output, 0x7F)
	}
}

func TestAPU_readPort4015ReportsDmcBits(t *testing.T) {
	a := newTestApu()

	a.writePort(0x4012, 0x00)
	a.writePort(0x4013, 0x00) // sample length 1
	a.writePort(0x4015, 0x10) // enable DMC only

	if got := a.readPort(0x4015); got&0x10 == 0 {
		t.Errorf("$4015 = %#02x, want bit 4 (DMC active) set", got)
	}

	a.dmc.irqPending = true
	if got := a.readPort(0x4015); got&0x80 == 0 {
		t.Errorf("$4015 = %#02x, want bit 7 (DMC IRQ) set", got)
	}
}
