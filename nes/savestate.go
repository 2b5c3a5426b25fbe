package nes

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const saveStateMagic = "SRAM"

// SaveState writes a full snapshot of the running console: cpu registers,
// work RAM, cartridge SRAM, ppu register/memory state, and apu channel
// state, in that order, wrapped in the same "SRAM"+size container the §6
// spec uses for plain battery-RAM files. The wire layout is a fixed
// concatenation of fixed-size fields rather than a general-purpose
// encoding, since the save/restore contract is a byte-for-byte round trip
// (save -> restore -> save is required to be identical), which rules out
// anything that reorders map keys or otherwise isn't literally
// deterministic.
func (c *Console) SaveState(w io.Writer) error {
	if c.Empty() {
		return &EngineError{Reason: "save state requested with no cartridge loaded"}
	}

	var buf bytes.Buffer
	if err := c.writeCPUState(&buf); err != nil {
		return err
	}
	if err := c.writeBusState(&buf); err != nil {
		return err
	}
	if err := c.writePPUState(&buf); err != nil {
		return err
	}
	if err := c.writeAPUState(&buf); err != nil {
		return err
	}

	if _, err := w.Write([]byte(saveStateMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(buf.Len())); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// LoadState restores a snapshot written by SaveState. The mapper rebuilds
// its derived bank-pointer tables and the ppu recomputes nothing extra,
// since its derived fields (shift registers, palette mirrors) are plain
// functions of the fields already restored.
func (c *Console) LoadState(r io.Reader) error {
	if c.Empty() {
		return &EngineError{Reason: "load state requested with no cartridge loaded"}
	}

	magic := make([]byte, len(saveStateMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return fmt.Errorf("savestate: unable to read header: %s", err)
	}
	if string(magic) != saveStateMagic {
		return &CartridgeError{Reason: "save state has bad magic"}
	}

	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return fmt.Errorf("savestate: unable to read size: %s", err)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("savestate: unable to read body: %s", err)
	}
	buf := bytes.NewReader(body)

	if err := c.readCPUState(buf); err != nil {
		return err
	}
	if err := c.readBusState(buf); err != nil {
		return err
	}
	if err := c.readPPUState(buf); err != nil {
		return err
	}
	if err := c.readAPUState(buf); err != nil {
		return err
	}

	c.cartridge.m.restore()
	return nil
}

func (c *Console) writeCPUState(w io.Writer) error {
	fields := []interface{}{
		c.cpu.cycles, c.cpu.a, c.cpu.x, c.cpu.y, c.cpu.pc, c.cpu.s, c.cpu.p,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) readCPUState(r io.Reader) error {
	fields := []interface{}{
		&c.cpu.cycles, &c.cpu.a, &c.cpu.x, &c.cpu.y, &c.cpu.pc, &c.cpu.s, &c.cpu.p,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) writeBusState(w io.Writer) error {
	if _, err := w.Write(c.ram.data); err != nil {
		return err
	}
	if _, err := w.Write(c.cartridge.sram); err != nil {
		return err
	}
	if _, err := w.Write(c.cartridge.chr); err != nil {
		return err
	}
	return nil
}

func (c *Console) readBusState(r io.Reader) error {
	if _, err := io.ReadFull(r, c.ram.data); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, c.cartridge.sram); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, c.cartridge.chr); err != nil {
		return err
	}
	return nil
}

func (c *Console) writePPUState(w io.Writer) error {
	p := c.ppu
	fields := []interface{}{
		p.ctrl, p.mask, p.status, p.oamAddress, p.oamData,
		p.v, p.t, p.x, p.w, p.f,
		p.paletteData, p.nametable0, p.nametable1, p.nametable2, p.nametable3,
		p.dot, p.scanLine, p.frame,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) readPPUState(r io.Reader) error {
	p := c.ppu
	fields := []interface{}{
		&p.ctrl, &p.mask, &p.status, &p.oamAddress, &p.oamData,
		&p.v, &p.t, &p.x, &p.w, &p.f,
		&p.paletteData, &p.nametable0, &p.nametable1, &p.nametable2, &p.nametable3,
		&p.dot, &p.scanLine, &p.frame,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) writeAPUState(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, c.apu.snapshot())
}

func (c *Console) readAPUState(r io.Reader) error {
	var s apuSnapshot
	if err := binary.Read(r, binary.LittleEndian, &s); err != nil {
		return err
	}
	c.apu.restore(s)
	return nil
}
