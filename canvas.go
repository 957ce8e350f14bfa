package oled

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"github.com/BeatGlow/oled/draw"
	"github.com/BeatGlow/oled/glyph"
	"github.com/BeatGlow/oled/pixel"
	"github.com/BeatGlow/oled/wave"
)

// Canvas draws into a bitmap. Coordinates outside the bitmap are ignored.
type Canvas struct {
	buf *pixel.Bitmap
}

// NewCanvas draws into b.
func NewCanvas(b *pixel.Bitmap) *Canvas {
	return &Canvas{buf: b}
}

// Bitmap is the bitmap the canvas draws into.
func (c *Canvas) Bitmap() *pixel.Bitmap {
	return c.buf
}

func (c *Canvas) ColorModel() color.Model {
	return pixel.MonoModel
}

func (c *Canvas) Bounds() image.Rectangle {
	return c.buf.Rect
}

func (c *Canvas) At(x, y int) color.Color {
	return c.buf.At(x, y)
}

func (c *Canvas) Set(x, y int, v color.Color) {
	c.buf.Set(x, y, v)
}

// Clear turns all pixels off.
func (c *Canvas) Clear() {
	c.buf.Clear()
}

// Fill turns all pixels on.
func (c *Canvas) Fill() {
	c.buf.Fill(pixel.On)
}

func (c *Canvas) SetPixel(x, y int, on bool) {
	c.buf.SetBit(x, y, on)
}

func (c *Canvas) Pixel(x, y int) bool {
	return c.buf.Bit(x, y)
}

// DrawChar draws ch with the 5x7 font, see [glyph.DrawChar].
func (c *Canvas) DrawChar(x, y int, ch rune, v color.Color) int {
	return glyph.DrawChar(c.buf, x, y, ch, v)
}

// DrawString draws s with the 5x7 font, see [glyph.DrawString].
func (c *Canvas) DrawString(x, y int, s string, v color.Color) int {
	return glyph.DrawString(c.buf, x, y, s, v)
}

// DrawFont draws s with a tinyfont font, y is the baseline. Only the set
// pixels of the glyphs are drawn.
func (c *Canvas) DrawFont(x, y int, f tinyfont.Fonter, s string, v color.Color) {
	r, g, b, a := v.RGBA()
	tinyfont.WriteLine(fontTarget{c.buf}, f, int16(x), int16(y), s, color.RGBA{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
		A: uint8(a >> 8),
	})
}

// DrawText draws s with face, y is the baseline. It returns the advance in
// pixels.
func (c *Canvas) DrawText(x, y int, face font.Face, s string, v color.Color) int {
	d := &font.Drawer{
		Dst:  c.buf,
		Src:  image.NewUniform(v),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
	return (d.Dot.X - fixed.I(x)).Round()
}

// DrawLine draws a line between two points.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, v color.Color) {
	draw.Line(c.buf, image.Pt(x0, y0), image.Pt(x1, y1), v)
}

// DrawDottedLine draws a horizontal line of w pixels where every other dot of
// a spacing grid is set.
func (c *Canvas) DrawDottedLine(x, y, w, spacing int, v color.Color) {
	draw.DottedLine(c.buf, x, y, w, spacing, v)
}

// DrawWaveform draws one logic trace, see [wave.Draw].
func (c *Canvas) DrawWaveform(x, y, height int, s wave.Signal, view wave.View, v color.Color) {
	wave.Draw(c.buf, x, y, height, s, view, v)
}

// DrawChannels draws stacked logic traces, see [wave.DrawChannels].
func (c *Canvas) DrawChannels(channels []wave.Signal, l wave.Layout, view wave.View, v color.Color) {
	wave.DrawChannels(c.buf, channels, l, view, v)
}

// fontTarget lets tinyfont draw into a bitmap.
type fontTarget struct {
	buf *pixel.Bitmap
}

func (t fontTarget) Size() (x, y int16) {
	return int16(t.buf.Rect.Dx()), int16(t.buf.Rect.Dy())
}

func (t fontTarget) SetPixel(x, y int16, c color.RGBA) {
	t.buf.Set(int(x), int(y), c)
}

func (fontTarget) Display() error {
	return nil
}

var (
	_ draw.Image        = (*Canvas)(nil)
	_ drivers.Displayer = fontTarget{}
)
