package main

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/pixeldrift/goba/video"
)

const (
	screenWidth  = 240
	screenHeight = 160
	pixelDepth   = 4
)

// presentation owns the SDL2 window, renderer and streaming texture
// used to display frames pulled from a video.Controller. SDL calls
// must all happen on the goroutine that created the window, so every
// method here is expected to run on the process's main
// goroutine while the emulator ticks on its own.
type presentation struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	pixels   []byte
}

// newPresentation opens a window sized for screenWidth/screenHeight
// scaled by scale, and allocates the streaming texture frames are
// blitted into.
func newPresentation(title string, scale int) (*presentation, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}

	w := screenWidth * scale
	h := screenHeight * scale

	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(w), int32(h), sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, fmt.Errorf("sdl create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("sdl create renderer: %w", err)
	}
	if err := renderer.SetScale(float32(scale), float32(scale)); err != nil {
		renderer.Destroy()
		window.Destroy()
		return nil, fmt.Errorf("sdl set scale: %w", err)
	}

	texture, err := renderer.CreateTexture(uint32(sdl.PIXELFORMAT_ABGR8888),
		sdl.TEXTUREACCESS_STREAMING, screenWidth, screenHeight)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		return nil, fmt.Errorf("sdl create texture: %w", err)
	}

	return &presentation{
		window:   window,
		renderer: renderer,
		texture:  texture,
		pixels:   make([]byte, screenWidth*screenHeight*pixelDepth),
	}, nil
}

// present blits frame to the window. Called once per host vsync.
func (p *presentation) present(frame *video.Frame) error {
	for i, px := range frame {
		o := i * pixelDepth
		p.pixels[o] = px.R
		p.pixels[o+1] = px.G
		p.pixels[o+2] = px.B
		p.pixels[o+3] = 0xFF
	}

	if err := p.texture.Update(nil, p.pixels, screenWidth*pixelDepth); err != nil {
		return err
	}
	if err := p.renderer.Clear(); err != nil {
		return err
	}
	if err := p.renderer.Copy(p.texture, nil, nil); err != nil {
		return err
	}
	p.renderer.Present()
	return nil
}

// pollQuit drains the SDL event queue and reports whether a quit
// event (window close, or the platform's quit shortcut) was seen.
func pollQuit() bool {
	for {
		event := sdl.PollEvent()
		if event == nil {
			return false
		}
		if _, ok := event.(*sdl.QuitEvent); ok {
			return true
		}
	}
}

// destroy releases the window, renderer and texture.
func (p *presentation) destroy() {
	p.texture.Destroy()
	p.renderer.Destroy()
	p.window.Destroy()
	sdl.Quit()
}
