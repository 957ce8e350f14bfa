package glyph

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Font is the 5x7 table as a tinyfont font. Unlike DrawChar it only draws the
// set pixels, the background is left untouched.
var Font tinyfont.Fonter = font5x7{}

type font5x7 struct{}

func (font5x7) GetYAdvance() uint8 { return Height + 1 }

func (font5x7) GetGlyph(r rune) tinyfont.Glypher {
	return fontGlyph{r: r}
}

type fontGlyph struct {
	r rune
}

func (g fontGlyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	cols := Columns(g.r)
	for col, bits := range cols {
		for row := 0; row < Height; row++ {
			if bits&(1<<row) == 0 {
				continue
			}
			display.SetPixel(x+int16(col), y-Height+int16(row), c)
		}
	}
}

func (g fontGlyph) Info() tinyfont.GlyphInfo {
	return tinyfont.GlyphInfo{
		Rune:     g.r,
		Width:    Width,
		Height:   Height,
		XAdvance: Advance,
		XOffset:  0,
		YOffset:  -Height,
	}
}
