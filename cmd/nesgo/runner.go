package main

import (
	"fmt"
	"image"
	"time"

	"github.com/nesgo/nes/cmd/internal/meter"
	"github.com/nesgo/nes/nes"
	"github.com/veandco/go-sdl2/sdl"
)

// keymap is the default joypad binding, grounded on cmd/vnes/gameView.go's
// keyboard handling (arrow keys + Z/X/Enter/RShift), just flattened into a
// lookup table instead of a big switch.
var keymap = map[sdl.Keycode]nes.Button{
	sdl.K_UP:     nes.Up,
	sdl.K_DOWN:   nes.Down,
	sdl.K_LEFT:   nes.Left,
	sdl.K_RIGHT:  nes.Right,
	sdl.K_z:      nes.A,
	sdl.K_x:      nes.B,
	sdl.K_RETURN: nes.Start,
	sdl.K_RSHIFT: nes.Select,
}

type runner struct {
	cfg     *config
	console *nes.Console
	display *display
	fps     *meter.Meter

	instructions int
	frames       int
	quit         bool
}

func (r *runner) loop() int {
	var nametableBuf, patternBuf *image.RGBA
	if r.cfg.debug {
		nametableBuf = image.NewRGBA(image.Rect(0, 0, 512, 480))
		patternBuf = image.NewRGBA(image.Rect(0, 0, 256, 128))
	}

	for !r.quit {
		if r.cfg.maxFrames > 0 && r.frames >= r.cfg.maxFrames {
			return exitFail
		}

		r.pollEvents()
		if r.quit {
			break
		}

		start := time.Now()

		if r.cfg.step {
			r.stepInstructions()
		} else {
			r.stepFrame()
		}
		r.frames++

		if r.cfg.blarggMode > 0 {
			if done, ok := r.pollBlargg(); done {
				if ok {
					return exitOK
				}
				return exitFail
			}
		}

		if r.cfg.debug {
			r.console.DrawNametables(nametableBuf)
			r.console.DrawPatternTables(patternBuf)
		}
		if err := r.display.present(r.console.Buffer().Pix, pixOrNil(nametableBuf), pixOrNil(patternBuf)); err != nil {
			fmt.Println("nesgo:", err)
			return exitAbort
		}

		r.fps.Record(time.Since(start))
		if r.cfg.delayMs > 0 {
			time.Sleep(time.Duration(r.cfg.delayMs) * time.Millisecond)
		}
	}

	return exitOK
}

func pixOrNil(img *image.RGBA) []byte {
	if img == nil {
		return nil
	}
	return img.Pix
}

// stepInstructions advances one cpu instruction per call to loop(), for -s.
// A real interactive single-step UI would wait for a keypress here; since
// that's a terminal/debugger concern outside this package's scope, -s just
// throttles to one instruction per displayed frame instead.
func (r *runner) stepInstructions() {
	r.console.Step()
	r.instructions++
	r.checkInstructionBudget()
}

// stepFrame runs a whole frame at once; instruction-level budgets (-m, -b)
// only apply in -s mode, since StepFrame doesn't report a per-instruction
// count.
func (r *runner) stepFrame() {
	r.console.StepFrame()
}

func (r *runner) checkInstructionBudget() {
	if r.cfg.heartbeat > 0 && r.instructions%r.cfg.heartbeat == 0 {
		fmt.Printf("nesgo: heartbeat: %d instructions, %d fps\n", r.instructions, r.fps.Tps())
	}
	if r.cfg.maxInstructions > 0 && r.instructions >= r.cfg.maxInstructions {
		r.quit = true
	}
}

// pollBlargg polls the four SRAM bytes Blargg test roms conventionally
// report status through: $6000 (0x80 = still running, 0x00 = pass, anything else
// = fail code) once $6001-$6003 spell out the "DE B0 61" ready marker.
func (r *runner) pollBlargg() (done bool, passed bool) {
	if r.console.Read(0x6001) != 0xDE || r.console.Read(0x6002) != 0xB0 || r.console.Read(0x6003) != 0x61 {
		return false, false
	}
	status := r.console.Read(0x6000)
	if status == 0x80 {
		return false, false
	}
	return true, status == 0x00
}

func (r *runner) pollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			r.quit = true
		case *sdl.KeyboardEvent:
			r.handleKey(e)
		case *sdl.MouseMotionEvent:
			if r.cfg.paddle {
				pos := byte(98 + (e.X*144)/800)
				r.console.SetPaddlePosition(pos)
			}
		case *sdl.MouseButtonEvent:
			if r.cfg.paddle {
				r.console.SetPaddleFire(e.State == sdl.PRESSED)
			}
		}
	}
}

func (r *runner) handleKey(e *sdl.KeyboardEvent) {
	if e.Keysym.Sym == sdl.K_ESCAPE && e.State == sdl.PRESSED {
		r.quit = true
		return
	}
	if e.Keysym.Sym == sdl.K_F11 && e.State == sdl.PRESSED {
		r.display.toggleFullscreen()
		return
	}

	button, ok := keymap[e.Keysym.Sym]
	if !ok {
		return
	}
	if e.State == sdl.PRESSED {
		r.console.Press(0, button)
	} else {
		r.console.Release(0, button)
	}
}
