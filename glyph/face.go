package glyph

import (
	"image"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

var (
	faceOnce sync.Once
	face     *basicfont.Face
)

// Face returns the 5x7 table as a fixed size font face, usable with
// font.Drawer and other x/image text renderers. The baseline is the row below
// the glyph.
func Face() *basicfont.Face {
	faceOnce.Do(func() {
		const cell = Height + 1 // ascent + descent
		mask := image.NewAlpha(image.Rect(0, 0, Width, cell*len(table)))
		for i, cols := range table {
			for col, bits := range cols {
				for row := 0; row < Height; row++ {
					if bits&(1<<row) != 0 {
						mask.Pix[mask.PixOffset(col, i*cell+row)] = 0xff
					}
				}
			}
		}
		face = &basicfont.Face{
			Advance: Advance,
			Width:   Width,
			Height:  cell,
			Ascent:  Height,
			Descent: 1,
			Mask:    mask,
			Ranges: []basicfont.Range{
				{Low: First, High: Last + 1, Offset: 0},
			},
		}
	})
	return face
}

// TrueType parses a TrueType font and returns a face of the given size in
// points at 72 DPI, so one point equals one display pixel.
func TrueType(ttf []byte, size float64) (font.Face, error) {
	f, err := truetype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}
