// Package glyph renders text with a fixed 5x7 pixel font.
//
// Glyphs are stored column wise, one byte per column with bit 0 as the top
// row, which matches the page layout of the display memory. The same table is
// available as a [tinyfont.Fonter] ([Font]) and as an x/image [font.Face]
// ([Face]) so it can be used with other renderers.
package glyph

import (
	"image/color"

	"github.com/BeatGlow/oled/draw"
	"github.com/BeatGlow/oled/pixel"
)

// Font metrics.
const (
	Width    = 5   // glyph width in pixels
	Height   = 7   // glyph height in pixels
	Spacing  = 1   // blank columns after every glyph
	Advance  = Width + Spacing
	First    = 0x20 // first character in the table (space)
	Last     = 0x7e // last character in the table (~)
	Fallback = '?'  // drawn for characters outside First-Last
)

// Columns returns the column bitmap for ch, using the fallback glyph for
// characters that are not in the table.
func Columns(ch rune) [Width]byte {
	if ch < First || ch > Last {
		ch = Fallback
	}
	return table[ch-First]
}

// Supported reports if ch has its own glyph.
func Supported(ch rune) bool {
	return ch >= First && ch <= Last
}

// DrawChar draws ch with its top left corner at (x, y) and returns the number
// of columns used.
//
// The full glyph cell is written: set bits in c, clear bits in the inverse of
// c, followed by one inverse spacing column. Nothing is drawn and 0 is returned
// if the 5x7 glyph box does not fit inside the bounds of dst.
func DrawChar(dst draw.Image, x, y int, ch rune, c color.Color) int {
	b := dst.Bounds()
	if x < b.Min.X || y < b.Min.Y || x+Width > b.Max.X || y+Height > b.Max.Y {
		return 0
	}

	var (
		fg   = pixel.ToMono(c)
		bg   = fg.Inverse()
		cols = Columns(ch)
	)
	for col, bits := range cols {
		for row := 0; row < Height; row++ {
			if bits&(1<<row) != 0 {
				dst.Set(x+col, y+row, fg)
			} else {
				dst.Set(x+col, y+row, bg)
			}
		}
	}
	for row := 0; row < Height; row++ {
		dst.Set(x+Width, y+row, bg)
	}

	return Advance
}

// DrawString draws s left to right starting at (x, y). Drawing stops before
// the first character that would not fit horizontally, text is never wrapped.
// It returns the number of columns used.
func DrawString(dst draw.Image, x, y int, s string, c color.Color) int {
	var (
		maxX  = dst.Bounds().Max.X
		total int
	)
	for _, ch := range s {
		if x+Width > maxX {
			break
		}
		w := DrawChar(dst, x, y, ch, c)
		x += w
		total += w
		if w == 0 {
			break
		}
	}
	return total
}

// StringWidth is the number of columns DrawString uses for s when nothing is
// clipped.
func StringWidth(s string) int {
	var n int
	for range s {
		n += Advance
	}
	return n
}
