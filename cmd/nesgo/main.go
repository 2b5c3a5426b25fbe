package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/nesgo/nes/cmd/internal/meter"
	"github.com/nesgo/nes/internal/bcd6502"
	"github.com/nesgo/nes/nes"
)

func init() {
	runtime.LockOSThread()
}

// config mirrors the §6 CLI flag table onto a single struct, the same way
// cmd/vnes/main.go kept its parsed flags as plain locals before wiring them
// into run(), just promoted to a named type since nesgo has many more of
// them.
type config struct {
	rom string

	step bool
	dump bool

	test      bool
	testModule string

	maxInstructions int
	heartbeat       int
	maxFrames       int

	zones string

	delayMs int
	syncEvery int
	noVsync bool

	paddle       bool
	forceSprite0 bool
	noCrop       bool

	blarggMode int

	debug    bool
	noAudio  bool
	wav      bool
	forcedPC string
	fullscreen bool

	cpuprofile string
}

func parseFlags() *config {
	c := &config{}

	flag.BoolVar(&c.step, "s", false, "break on each opcode")
	flag.BoolVar(&c.step, "step", false, "break on each opcode")
	flag.BoolVar(&c.dump, "d", false, "write a disassembly trace")
	flag.BoolVar(&c.dump, "dump", false, "write a disassembly trace")
	flag.BoolVar(&c.test, "t", false, "run the 6502 conformance harness instead of a NES rom")
	flag.BoolVar(&c.test, "test", false, "run the 6502 conformance harness instead of a NES rom")
	flag.StringVar(&c.testModule, "o", "", "override the next conformance module the test harness loads")
	flag.IntVar(&c.maxInstructions, "m", 0, "maximum instructions before abort (0 = unlimited)")
	flag.IntVar(&c.heartbeat, "b", 0, "print a heartbeat every N instructions (0 = off)")
	flag.IntVar(&c.maxFrames, "f", 0, "maximum frames to execute (0 = unlimited)")
	flag.StringVar(&c.zones, "l", "", "enable logging for a comma separated zone list, or *")
	flag.IntVar(&c.delayMs, "delay", 0, "extra milliseconds of per-frame sleep")
	flag.IntVar(&c.syncEvery, "sync", 0, "force a display flush every Nth scanline (0 = once per frame)")
	flag.BoolVar(&c.noVsync, "v", false, "run flat-out, ignoring frame pacing")
	flag.BoolVar(&c.noVsync, "novsync", false, "run flat-out, ignoring frame pacing")
	flag.BoolVar(&c.paddle, "p", false, "treat mouse x as a paddle")
	flag.BoolVar(&c.paddle, "paddle", false, "treat mouse x as a paddle")
	flag.BoolVar(&c.forceSprite0, "sprite0", false, "force sprite-0 hit each frame (debug)")
	flag.BoolVar(&c.noCrop, "nocrop", false, "emit uncropped 256x240 instead of the usual NTSC-cropped frame")
	flag.IntVar(&c.blarggMode, "blargg", 0, "run blargg self-test mode 1 or 2, polling sram for status")
	flag.BoolVar(&c.debug, "debug", false, "windowed 800x600 with extra debug panels")
	flag.BoolVar(&c.noAudio, "noaudio", false, "disable audio output")
	flag.BoolVar(&c.wav, "wav", false, "record audio as 32-bit float WAV files nes_<channel>_*.wav (one per channel plus the mix) in the working directory")
	flag.StringVar(&c.forcedPC, "pc", "", "force the post-reset program counter (hex)")
	flag.BoolVar(&c.fullscreen, "fullscreen", false, "start fullscreen")
	flag.StringVar(&c.cpuprofile, "cpuprofile", "", "write a cpu profile to file")

	flag.Parse()
	c.rom = flag.Arg(0)
	return c
}

func (c *config) zoneList() []string {
	if c.zones == "" {
		return nil
	}
	return strings.Split(c.zones, ",")
}

// exitCode implements §6's contract: 0 on normal quit or blargg PASS, 1 on
// blargg FAIL or frame-budget expiry, abort (handled separately, via
// recoverEngineError) on unrecoverable engine errors.
const (
	exitOK   = 0
	exitFail = 1
	exitAbort = 2
)

func main() {
	c := parseFlags()

	if c.cpuprofile != "" {
		f, err := os.Create(c.cpuprofile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(exitAbort)
		}
		defer f.Close()
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if c.test {
		os.Exit(runConformanceHarness(c))
	}

	os.Exit(runEmulator(c))
}

// runConformanceHarness runs a conformance module through internal/bcd6502,
// which drives the NES core's own interpreter (nes.BareCPU) against a flat
// 64KB memory rather than a loaded NES cartridge, per §6's `-t`/`-o`.
func runConformanceHarness(c *config) int {
	module := c.testModule
	if module == "" {
		module = flag.Arg(0)
	}
	if module == "" {
		fmt.Fprintln(os.Stderr, "nesgo: -t requires a module path (via -o or as the positional argument)")
		return exitAbort
	}

	result, err := bcd6502.Run(module, c.maxInstructions)
	if err != nil {
		fmt.Fprintln(os.Stderr, "nesgo:", err)
		return exitAbort
	}

	fmt.Printf("bcd6502: %s after %d instructions (pc=$%04X)\n", result.Status, result.Instructions, result.PC)
	if result.Status != bcd6502.StatusPass {
		return exitFail
	}
	return exitOK
}

func runEmulator(c *config) (code int) {
	if len(c.zoneList()) > 0 {
		enableZones(c)
	}

	if c.rom == "" {
		fmt.Fprintln(os.Stderr, "nesgo: missing rom path")
		return exitAbort
	}

	defer func() {
		if r := recover(); r != nil {
			code = recoverEngineError(r)
		}
	}()

	console := nes.NewConsole(44100, parsePC(c.forcedPC), debugWriter(c))
	if err := console.LoadPath(c.rom); err != nil {
		fmt.Fprintln(os.Stderr, "nesgo:", err)
		return exitAbort
	}
	defer console.Close()

	if err := console.LoadSRAM(nes.SRAMPath(c.rom)); err != nil {
		fmt.Fprintln(os.Stderr, "nesgo:", err)
		return exitAbort
	}
	defer func() {
		if err := console.SaveSRAM(nes.SRAMPath(c.rom)); err != nil {
			fmt.Fprintln(os.Stderr, "nesgo:", err)
		}
	}()

	if c.paddle {
		console.EnablePaddle()
	}
	if c.forceSprite0 {
		console.ForceSprite0(true)
	}

	display, err := newDisplay(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, "nesgo:", err)
		return exitAbort
	}
	defer display.close()

	var audio *audioEngine
	if !c.noAudio {
		audio, err = newAudioEngine(console)
		if err != nil {
			fmt.Fprintln(os.Stderr, "nesgo:", err)
			return exitAbort
		}
		defer audio.close()
		if err := audio.play(); err != nil {
			fmt.Fprintln(os.Stderr, "nesgo:", err)
			return exitAbort
		}
	}

	if c.wav {
		console.SetWavName("nes")
		if err := console.StartRecording(); err != nil {
			fmt.Fprintln(os.Stderr, "nesgo:", err)
			return exitAbort
		}
		defer console.StopRecording()
	}

	fps := meter.New(meter.DefaultBufferLen)
	runner := &runner{cfg: c, console: console, display: display, fps: fps}
	return runner.loop()
}

func parsePC(hex string) uint16 {
	if hex == "" {
		return 0
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "0x"), 16, 16)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nesgo: invalid --pc %q, ignoring\n", hex)
		return 0
	}
	return uint16(v)
}

func debugWriter(c *config) io.Writer {
	if !c.dump {
		return nil
	}
	return os.Stdout
}

func enableZones(c *config) {
	nes.EnableLogging(c.zoneList()...)
	glog.Info("nesgo: zones enabled: ", c.zones)
}

// recoverEngineError implements §7 kind 1: it prints the EngineError to
// stderr and returns exitAbort; no cpu state is dumped. cmd/nesgo is the
// only layer allowed to recover an EngineError.
func recoverEngineError(r interface{}) int {
	if ee, ok := r.(*nes.EngineError); ok {
		fmt.Fprintln(os.Stderr, "nesgo: engine error:", ee)
		return exitAbort
	}
	panic(r)
}
