package nes

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"testing"
)

// TestConsole_nestest replays the nestest CPU conformance ROM
// instruction-by-instruction against its reference trace log. It is
// skipped when the ROM isn't checked out locally, since it isn't part of
// this repository.
func TestConsole_nestest(t *testing.T) {
	testRom, err := os.Open("../roms/cpu/nestest/nestest.nes")
	if err != nil {
		t.Skip("nestest rom not available")
	}
	defer testRom.Close()

	buf := bytes.NewBuffer(nil)
	out := io.MultiWriter(buf, io.Discard)

	console := NewConsole(44100, 0xC000, out)
	if err := console.LoadRom(testRom); err != nil {
		t.Fatalf("unable to load rom: %v", err)
	}

	log, err := os.Open("../roms/cpu/nestest/nestest.log.txt")
	if err != nil {
		t.Fatalf("unable to open log: %v", err)
	}
	defer log.Close()

	scanner := bufio.NewScanner(log)

	for scanner.Scan() {
		want := scanner.Bytes()
		want = append(want, '\n')

		console.Step()

		t1, t2 := console.Read(0x02), console.Read(0x03)
		if t1 != 0 || t2 != 0 {
			t.Fatalf("nestest flagged a failure: %02x%02x", t1, t2)
		}

		if got := buf.Bytes(); !bytes.Equal(got, want) {
			t.Fatalf("nestest: want %q, got %q", want, got)
		}

		buf.Reset()
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
}
