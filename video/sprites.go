package video

import "encoding/binary"

// objCharBase is the fixed VRAM offset of the object tile set; it is
// not configurable per DISPCNT/BGCNT the way background tile sets are.
const objCharBase = 0x10000

// shape,size -> (width, height) in pixels.
var objDimensions = [4][4][2]int{
	{{8, 8}, {16, 16}, {32, 32}, {64, 64}},   // square
	{{16, 8}, {32, 8}, {32, 16}, {64, 32}},   // wide
	{{8, 16}, {8, 32}, {16, 32}, {32, 64}},   // tall
	{{0, 0}, {0, 0}, {0, 0}, {0, 0}},         // reserved
}

// renderSprites composites the 128 OAM entries on top of the
// background layers, in reverse OAM order so entry 0 ends up drawn
// last (on top), matching hardware's priority-within-equal-priority
// rule. Relative priority between sprites and background layers, and
// affine (rotate/scale) objects, are not modelled.
func (c *Controller) renderSprites(draw *Frame, dispcnt uint16) {
	oam := c.oam.Bytes()
	vram := c.vram.Bytes()
	mapping1D := dispcnt&dispcntObjMapping1D != 0

	for i := 127; i >= 0; i-- {
		base := i * 8
		if base+6 > len(oam) {
			continue
		}
		attr0 := binary.LittleEndian.Uint16(oam[base:])
		attr1 := binary.LittleEndian.Uint16(oam[base+2:])
		attr2 := binary.LittleEndian.Uint16(oam[base+4:])

		rotateScale := attr0&(1<<8) != 0
		disabled := attr0&(1<<9) != 0
		if !rotateScale && disabled {
			continue
		}
		if rotateScale {
			// affine objects are unsupported; skip rather than draw
			// garbage geometry.
			continue
		}

		shape := int(attr0>>14) & 0x3
		size := int(attr1>>14) & 0x3
		dims := objDimensions[shape][size]
		width, height := dims[0], dims[1]
		if width == 0 {
			continue
		}

		y := int(attr0 & 0xFF)
		if y > 160 {
			y -= 256
		}
		x := int(attr1 & 0x1FF)
		if x > 240 {
			x -= 512
		}

		hflip := attr1&(1<<12) != 0
		vflip := attr1&(1<<13) != 0
		colorMode256 := attr0&(1<<13) != 0
		tileIndex := int(attr2 & 0x3FF)
		paletteBank := uint8(attr2>>12) & 0xF

		tilesPerRow := width / 8

		for ly := 0; ly < height; ly++ {
			sy := y + ly
			if sy < 0 || sy >= visibleHeight {
				continue
			}
			py := ly
			if vflip {
				py = height - 1 - ly
			}
			tileY := py / 8
			rowInTile := py % 8

			for lx := 0; lx < width; lx++ {
				sx := x + lx
				if sx < 0 || sx >= visibleWidth {
					continue
				}
				px := lx
				if hflip {
					px = width - 1 - lx
				}
				tileX := px / 8
				colInTile := px % 8

				var tile int
				if mapping1D {
					tile = tileIndex + tileY*tilesPerRow + tileX
				} else {
					tile = tileIndex + tileY*32 + tileX
				}
				tileOff := objCharBase + tile*32

				var idx uint8
				if colorMode256 {
					off := tileOff + rowInTile*8 + colInTile
					if off >= len(vram) {
						continue
					}
					idx = vram[off]
				} else {
					off := tileOff + rowInTile*8 + colInTile/2
					if off >= len(vram) {
						continue
					}
					b := vram[off]
					if colInTile%2 == 0 {
						idx = b & 0xF
					} else {
						idx = b >> 4
					}
					if idx != 0 {
						idx = paletteBank*16 + idx
					}
				}
				if idx == 0 {
					continue
				}
				draw[sy*visibleWidth+sx] = c.paletteColor(false, idx)
			}
		}
	}
}
