package nes

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"io/ioutil"
	"os"
	"path"
	"strings"
)

const sramMagic = "SRAM"

const (
	ppuRegistersSize = 8
	ioRegistersSize  = 32
	expRomSize       = 8160
	sramSize         = 8192
	prgBankSize      = 16384
	prgRomSize       = 16384 * 2 //TODO
)

type Console struct {
	cartridge   *cartridge
	ram         *ram
	cpu         *cpu
	apu         *apu
	ppu         *ppu
	controller1 *controller
	controller2 *controller

	bus *sysBus

	openFiles []*os.File
	wavName   string
}

func NewConsole(sampleRate float32, pc uint16, debugOut io.Writer) *Console {
	console := &Console{wavName: "nes"}
	makeFile := func(channel string) (io.WriteSeeker, error) {
		dir, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(path.Base(console.wavName), path.Ext(console.wavName))
		f, err := ioutil.TempFile(dir, name+"_"+channel+"_*.wav")
		if err != nil {
			return nil, err
		}

		console.openFiles = append(console.openFiles, f)
		return f, nil
	}

	ram := newRam()
	ctrl1 := &controller{}
	ctrl2 := &controller{}

	ppu := newPpu()
	apu := newApu(4096, sampleRate, makeFile)
	cpu := newCpu(debugOut, ppu, apu)

	bus := &sysBus{
		ram:   ram,
		cpu:   cpu,
		apu:   apu,
		ppu:   ppu,
		ctrl1: ctrl1,
		ctrl2: ctrl2,
	}

	// The DMC channel fetches sample bytes via DMA over the same bus the cpu
	// uses; wiring it here (instead of threading a bus reference through
	// newApu) keeps apu's constructor independent of sysBus.
	apu.dmc.read = bus.Read

	if pc != 0 {
		cpu.setPC(pc)
	}
	cpu.cycles = 7 //TODO

	console.ram = ram
	console.cpu = cpu
	console.apu = apu
	console.ppu = ppu
	console.controller1 = ctrl1
	console.controller2 = ctrl2
	console.bus = bus

	return console
}

func (c *Console) Empty() bool {
	return c.cartridge == nil
}

func (c *Console) load(cartridge *cartridge) {
	first := c.cartridge == nil
	c.cartridge = cartridge
	c.bus.cartridge = cartridge
	c.ppu.cartridge = cartridge

	if first {
		forced := c.cpu.pc
		c.cpu.init(c.bus)
		if forced != resetAddr {
			c.cpu.setPC(forced)
		}
		return
	}

	c.Reset()
}

func (c *Console) LoadPath(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open rom: %s", err)
	}
	defer f.Close()

	cart, err := loadRom(f)
	if err != nil {
		return err
	}

	c.load(cart)
	return nil
}

func (c *Console) LoadRom(rom io.Reader) error {
	cart, err := loadRom(rom)
	if err != nil {
		return err
	}

	c.load(cart)
	return nil
}

// SetWavName sets the base filename --wav dumps use; StartRecording must
// be called after this to take effect.
func (c *Console) SetWavName(name string) {
	c.wavName = name
}

func (c *Console) StartRecording() error {
	return c.apu.mixer.startRecording()
}

func (c *Console) PauseRecording() {
	c.apu.mixer.pauseRecording()
}

func (c *Console) UnpauseRecording() {
	c.apu.mixer.unpauseRecording()
}

func (c *Console) StopRecording() error {
	return c.apu.mixer.stopRecording()
}

func (c *Console) Close() error {
	if err := c.StopRecording(); err != nil {
		return err
	}

	var err error
	for _, f := range c.openFiles {
		err = f.Close()
	}

	return err
}

// SRAMPath is the conventional sidecar filename for a loaded rom's
// battery-backed save RAM: "<rom-path>.sram".
func SRAMPath(romPath string) string {
	return romPath + ".sram"
}

// SaveSRAM writes the cartridge's battery-backed RAM to path in the "SRAM"
// container format. It's a no-op if the loaded cartridge has no battery.
func (c *Console) SaveSRAM(path string) error {
	if c.Empty() || !c.cartridge.battery {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create sram file: %s", err)
	}
	defer f.Close()

	if _, err := f.WriteString(sramMagic); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(c.cartridge.sram))); err != nil {
		return err
	}
	if _, err := f.Write(c.cartridge.sram); err != nil {
		return err
	}
	return nil
}

// LoadSRAM restores battery-backed RAM previously written by SaveSRAM. It's
// a no-op (not an error) if path doesn't exist, since most ROMs are played
// for the first time with nothing to restore.
func (c *Console) LoadSRAM(path string) error {
	if c.Empty() || !c.cartridge.battery {
		return nil
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("unable to open sram file: %s", err)
	}
	defer f.Close()

	magic := make([]byte, len(sramMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return fmt.Errorf("unable to read sram header: %s", err)
	}
	if string(magic) != sramMagic {
		return &CartridgeError{Reason: "sram file has bad magic"}
	}

	var size uint32
	if err := binary.Read(f, binary.LittleEndian, &size); err != nil {
		return fmt.Errorf("unable to read sram size: %s", err)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(f, buf); err != nil {
		return fmt.Errorf("unable to read sram contents: %s", err)
	}

	n := copy(c.cartridge.sram, buf)
	_ = n
	return nil
}

func (c *Console) Reset() {
	c.cpu.reset(c.bus)
	c.apu.reset()
}

// Step executes a single cpu instruction and returns the cycle count it
// consumed, mainly for instruction-by-instruction trace comparisons like
// nestest.
func (c *Console) Step() uint64 {
	before := c.cpu.cycles
	c.cpu.execute(c.bus)
	return c.cpu.cycles - before
}

func (c *Console) StepFrame() {
	if c.Empty() {
		return
	}

	frame := c.ppu.frame
	for frame == c.ppu.frame {
		c.cpu.execute(c.bus)
	}
}

// ForceSprite0 makes every frame report a sprite-0 hit regardless of actual
// overlap, a debug aid for games whose timing loops are otherwise hard to
// single-step through.
func (c *Console) ForceSprite0(v bool) {
	c.ppu.forceSprite0 = v
}

// EnablePaddle attaches an Arkanoid-style paddle to port 2, where it
// intercepts $4017 reads instead of the port-2 joypad.
func (c *Console) EnablePaddle() {
	c.bus.paddle = newPaddle()
}

// SetPaddlePosition updates the paddle's potentiometer reading; out-of-range
// values are clamped to [98,242] and logged under the misc zone.
func (c *Console) SetPaddlePosition(pos byte) {
	if c.bus.paddle != nil {
		c.bus.paddle.setPosition(pos)
	}
}

func (c *Console) SetPaddleFire(v bool) {
	if c.bus.paddle != nil {
		c.bus.paddle.fire = v
	}
}

func (c *Console) Press(ctrl int, button Button) {
	switch ctrl {
	case 0:
		c.controller1.press(button)
	case 1:
		c.controller2.press(button)
	}
}

func (c *Console) Release(ctrl int, button Button) {
	switch ctrl {
	case 0:
		c.controller1.release(button)
	case 1:
		c.controller2.release(button)
	}
}

func (c *Console) Buffer() *image.RGBA {
	return c.ppu.buffer
}

// ReadAudio drains up to len(out) pending samples into out, zero-filling
// the rest on underflow. It's meant to be called from the audio device's
// own callback thread; it never blocks.
func (c *Console) ReadAudio(out []float32) int {
	return c.apu.readAudio(out)
}

func (c *Console) DrawNametables(buf *image.RGBA) {
	c.ppu.drawNametables(buf)
}

func (c *Console) DrawPatternTables(buf *image.RGBA) {
	c.ppu.drawPatternTables(buf)
}

func (c *Console) Read(addr uint16) byte {
	return c.bus.read(addr)
}

func (c *Console) Write(addr uint16, v byte) {
	c.bus.write(addr, v)
}
