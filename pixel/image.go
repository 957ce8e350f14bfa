package pixel

import (
	"bytes"
	"image"
	"image/color"

	"github.com/BeatGlow/oled/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values and is a container that is used by most image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent bands.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0x00
	}
}

func makeBuffer(w, h, stride, size int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, size),
		Stride: stride,
	}
}

// Bitmap is a 1-bit per pixel monochrome image in page layout.
//
// The pixels are grouped in pages of 8 rows. Every byte holds 8 vertically
// stacked pixels of one column, the least significant bit being the top row.
// Pages are stored one after the other, so the byte for (x, y) lives at
// y/8*Stride + x. This is the memory layout SH1106 and SSD1306 type
// controllers expect on the wire.
type Bitmap struct {
	Buffer
}

// NewBitmap allocates a zeroed bitmap.
func NewBitmap(w, h int) *Bitmap {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	pages := ((h + 7) & ^7) / 8 // round up to whole pages
	return &Bitmap{
		Buffer: makeBuffer(w, h, w, pages*w),
	}
}

// Pages is the number of 8 pixel high bands.
func (p *Bitmap) Pages() int {
	if p.Stride == 0 {
		return 0
	}
	return len(p.Pix) / p.Stride
}

// Page returns the bytes of one page, nil if n is out of range.
func (p *Bitmap) Page(n int) []byte {
	if n < 0 || n >= p.Pages() {
		return nil
	}
	off := n * p.Stride
	return p.Pix[off : off+p.Stride]
}

// PixOffset returns the byte index and the bit mask of the pixel at (x, y).
func (p *Bitmap) PixOffset(x, y int) (int, byte) {
	return y/8*p.Stride + x, byte(1) << uint(y&7)
}

func (p *Bitmap) ColorModel() color.Model {
	return MonoModel
}

// Bit reports if the pixel at (x, y) is set, out of bounds pixels are never set.
func (p *Bitmap) Bit(x, y int) bool {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return false
	}
	pos, bit := p.PixOffset(x, y)
	return p.Pix[pos]&bit != 0
}

// SetBit sets or clears the pixel at (x, y). Out of bounds pixels are ignored.
func (p *Bitmap) SetBit(x, y int, on bool) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	pos, bit := p.PixOffset(x, y)
	if on {
		p.Pix[pos] |= bit
	} else {
		p.Pix[pos] &^= bit
	}
}

func (p *Bitmap) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	pos, bit := p.PixOffset(x, y)
	return Mono{
		On: p.Pix[pos]&bit != 0,
	}
}

func (p *Bitmap) Set(x, y int, c color.Color) {
	p.SetBit(x, y, monoModel(c).(Mono).On)
}

func (p *Bitmap) Fill(c color.Color) {
	var value byte
	if monoModel(c).(Mono).On {
		value = 0xff
	}
	for i := range p.Pix {
		p.Pix[i] = value
	}
}

// CopyFrom copies the pixels of src, which must have the same size.
func (p *Bitmap) CopyFrom(src *Bitmap) {
	copy(p.Pix, src.Pix)
}

// PageEqual reports if page n holds the same bytes in both bitmaps.
func (p *Bitmap) PageEqual(o *Bitmap, n int) bool {
	a, b := p.Page(n), o.Page(n)
	return a != nil && b != nil && bytes.Equal(a, b)
}

// Interface checks.
var (
	_ Image = (*Bitmap)(nil)
)
