package video

import "encoding/binary"

const (
	dispcntFrameSelect = 1 << 4
	dispcntObjMapping1D = 1 << 6
	dispcntForcedBlank  = 1 << 7
	dispcntBG0Enable    = 1 << 8
	dispcntOBJEnable    = 1 << 12
)

// secondFrameOffset is the VRAM byte offset of the alternate frame
// buffer in modes 4 and 5, selected by DISPCNT's frame-select bit.
const secondFrameOffset = 0xA000

// render produces one 240x160 frame into the draw buffer and publishes
// it, per the single-shot-at-x=239,y=159 rasterizer design.
func (c *Controller) render() {
	draw := c.buffers.acquireDraw()
	dispcnt := c.status.DISPCNT()

	if dispcnt&dispcntForcedBlank != 0 {
		for i := range draw {
			draw[i] = Pixel{R: 0xFF, G: 0xFF, B: 0xFF}
		}
		c.buffers.publish()
		c.frames++
		return
	}

	switch dispcnt & 0x7 {
	case 0:
		c.renderMode0(draw, dispcnt)
	case 1, 2:
		// affine/mixed modes are not implemented; draw a flat fill so a
		// host can still tell the core is alive.
		for i := range draw {
			draw[i] = Pixel{R: 0x60, G: 0x60, B: 0x60}
		}
	case 3:
		c.renderMode3(draw)
	case 4:
		c.renderMode4(draw, dispcnt)
	case 5:
		c.renderMode5(draw, dispcnt)
	}

	if dispcnt&dispcntOBJEnable != 0 {
		c.renderSprites(draw, dispcnt)
	}

	c.buffers.publish()
	c.frames++
}

func (c *Controller) paletteColor(bgPalette bool, index uint8) Pixel {
	if index == 0 {
		return Pixel{}
	}
	base := 0
	if !bgPalette {
		base = 0x200
	}
	off := base + int(index)*2
	data := c.palette.Bytes()
	if off+2 > len(data) {
		return Pixel{}
	}
	return expand15(binary.LittleEndian.Uint16(data[off:]))
}

func (c *Controller) renderMode3(draw *Frame) {
	data := c.vram.Bytes()
	for y := 0; y < visibleHeight; y++ {
		for x := 0; x < visibleWidth; x++ {
			off := (y*visibleWidth + x) * 2
			if off+2 > len(data) {
				continue
			}
			draw[y*visibleWidth+x] = expand15(binary.LittleEndian.Uint16(data[off:]))
		}
	}
}

func (c *Controller) renderMode4(draw *Frame, dispcnt uint16) {
	base := 0
	if dispcnt&dispcntFrameSelect != 0 {
		base = secondFrameOffset
	}
	data := c.vram.Bytes()
	for y := 0; y < visibleHeight; y++ {
		for x := 0; x < visibleWidth; x++ {
			off := base + y*visibleWidth + x
			if off >= len(data) {
				continue
			}
			draw[y*visibleWidth+x] = c.paletteColor(true, data[off])
		}
	}
}

func (c *Controller) renderMode5(draw *Frame, dispcnt uint16) {
	const w, h = 160, 128
	base := 0
	if dispcnt&dispcntFrameSelect != 0 {
		base = secondFrameOffset
	}
	data := c.vram.Bytes()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := base + (y*w+x)*2
			if off+2 > len(data) {
				continue
			}
			draw[y*visibleWidth+x] = expand15(binary.LittleEndian.Uint16(data[off:]))
		}
	}
}

// renderMode0 renders up to four tiled backgrounds in fixed order
// BG3, BG2, BG1, BG0, so lower-numbered backgrounds paint over
// higher-numbered ones. The priority field of BGCNT is not consulted.
func (c *Controller) renderMode0(draw *Frame, dispcnt uint16) {
	order := []int{3, 2, 1, 0}
	for _, bg := range order {
		if dispcnt&(dispcntBG0Enable<<uint(bg)) == 0 {
			continue
		}
		c.renderBackground(draw, bg)
	}
}

func (c *Controller) renderBackground(draw *Frame, bg int) {
	cnt := c.status.BGCNT(bg)
	charBase := uint32((cnt>>2)&0x3) * 0x4000
	screenBase := uint32((cnt>>8)&0x1F) * 0x800
	colorMode256 := cnt&(1<<7) != 0

	hofs, _ := c.status.LoadHalf(0x10 + uint32(bg)*4)
	vofs, _ := c.status.LoadHalf(0x12 + uint32(bg)*4)

	data := c.vram.Bytes()

	for sy := 0; sy < visibleHeight; sy++ {
		mapY := (sy + int(vofs)) % 256
		tileY := mapY / 8
		py := mapY % 8

		for sx := 0; sx < visibleWidth; sx++ {
			mapX := (sx + int(hofs)) % 256
			tileX := mapX / 8
			px := mapX % 8

			entryOff := screenBase + uint32(tileY*32+tileX)*2
			if int(entryOff)+2 > len(data) {
				continue
			}
			entry := binary.LittleEndian.Uint16(data[entryOff:])
			tileIndex := entry & 0x3FF
			if entry&(1<<10) != 0 {
				px = 7 - px
			}
			if entry&(1<<11) != 0 {
				py = 7 - py
			}

			var color Pixel
			if colorMode256 {
				tileOff := charBase + uint32(tileIndex)*64 + uint32(py*8+px)
				if int(tileOff) >= len(data) {
					continue
				}
				idx := data[tileOff]
				if idx == 0 {
					continue
				}
				color = c.paletteColor(true, idx)
			} else {
				bank := uint8(entry >> 12 & 0xF)
				tileOff := charBase + uint32(tileIndex)*32 + uint32(py*8+px/2)
				if int(tileOff) >= len(data) {
					continue
				}
				b := data[tileOff]
				var nibble uint8
				if px%2 == 0 {
					nibble = b & 0xF
				} else {
					nibble = b >> 4
				}
				if nibble == 0 {
					continue
				}
				color = c.paletteColor(true, bank*16+nibble)
			}

			draw[sy*visibleWidth+sx] = color
		}
	}
}
