package main

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

// nesW/nesH are the ppu's native render size; the NTSC-cropped frame drops
// the outermost 8 pixels on every side per §6, unless --nocrop asks for the
// full 256x240.
const (
	nesW = 256
	nesH = 240
	crop = 8
)

// display owns the sdl window/renderer/texture triple, grounded on
// cmd/vnes/main.go's initSDL plus the simpler single-view path of
// cmd/vnes/gameView.go (the bespoke multi-panel widget system it used for
// nametable/pattern views is replaced here with a couple of extra plain
// textures for --debug, since nothing else in this repo needs a general
// widget toolkit).
type display struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture

	nametableTexture *sdl.Texture
	patternTexture   *sdl.Texture

	crop bool
	zoom int32
}

func newDisplay(c *config) (*display, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS | sdl.INIT_GAMECONTROLLER | sdl.INIT_JOYSTICK); err != nil {
		return nil, fmt.Errorf("newDisplay: unable to init sdl: %s", err)
	}

	w, h := int32(nesW*2), int32(nesH*2)
	if c.debug {
		w, h = 800, 600
	}

	flags := uint32(sdl.WINDOW_SHOWN)
	if c.fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	window, err := sdl.CreateWindow("nesgo", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, w, h, flags)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("newDisplay: unable to create window: %s", err)
	}

	rendererFlags := uint32(sdl.RENDERER_ACCELERATED)
	if !c.noVsync {
		rendererFlags |= sdl.RENDERER_PRESENTVSYNC
	}
	renderer, err := sdl.CreateRenderer(window, -1, rendererFlags)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("newDisplay: unable to create renderer: %s", err)
	}

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, nesW, nesH)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("newDisplay: unable to create texture: %s", err)
	}

	d := &display{
		window:   window,
		renderer: renderer,
		texture:  texture,
		crop:     !c.noCrop,
		zoom:     2,
	}

	if c.debug {
		d.nametableTexture, err = renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, 512, 480)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("newDisplay: unable to create nametable texture: %s", err)
		}
		d.patternTexture, err = renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, 256, 128)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("newDisplay: unable to create pattern texture: %s", err)
		}
	}

	return d, nil
}

func (d *display) close() {
	if d.patternTexture != nil {
		d.patternTexture.Destroy()
	}
	if d.nametableTexture != nil {
		d.nametableTexture.Destroy()
	}
	if d.texture != nil {
		d.texture.Destroy()
	}
	if d.renderer != nil {
		d.renderer.Destroy()
	}
	if d.window != nil {
		d.window.Destroy()
	}
	sdl.Quit()
}

func (d *display) toggleFullscreen() {
	flags := d.window.GetFlags()
	if flags&sdl.WINDOW_FULLSCREEN_DESKTOP != 0 {
		d.window.SetFullscreen(0)
		return
	}
	d.window.SetFullscreen(sdl.WINDOW_FULLSCREEN_DESKTOP)
}

func (d *display) present(buf []byte, nametables, patterns []byte) error {
	if err := d.texture.Update(nil, buf, nesW*4); err != nil {
		return fmt.Errorf("present: unable to update texture: %s", err)
	}

	var src *sdl.Rect
	if d.crop {
		src = &sdl.Rect{X: crop, Y: crop, W: nesW - 2*crop, H: nesH - 2*crop}
	}

	d.renderer.Clear()
	d.renderer.Copy(d.texture, src, nil)

	if d.nametableTexture != nil && nametables != nil {
		d.nametableTexture.Update(nil, nametables, 512*4)
		d.renderer.Copy(d.nametableTexture, nil, &sdl.Rect{X: nesW*2 + 10, Y: 0, W: 400, H: 375})
	}
	if d.patternTexture != nil && patterns != nil {
		d.patternTexture.Update(nil, patterns, 256*4)
		d.renderer.Copy(d.patternTexture, nil, &sdl.Rect{X: nesW*2 + 10, Y: 380, W: 256, H: 128})
	}

	d.renderer.Present()
	return nil
}
