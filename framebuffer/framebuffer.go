// Package framebuffer mirrors the panel image onto a native framebuffer.
//
// A [Mirror] maps a Linux framebuffer device (fbdev) and scales the small
// monochrome frame up with nearest neighbour sampling, so the output of a
// headless device can be watched on an attached screen. Other operating
// systems return [ErrNotSupported] from [Open].
package framebuffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Errors
var (
	ErrNotSupported = errors.New("framebuffer: not supported")
	ErrFormat       = errors.New("framebuffer: unsupported pixel format")
)

// Format is the memory layout of a pixel.
type Format int

// Supported formats, in native (little endian) byte order.
const (
	RGB565   Format = iota // 16 bit, red in the high bits
	BGR565                 // 16 bit, blue in the high bits
	XRGB8888               // 32 bit, bytes B G R X
	XBGR8888               // 32 bit, bytes R G B X
)

func (f Format) String() string {
	switch f {
	case RGB565:
		return "RGB565"
	case BGR565:
		return "BGR565"
	case XRGB8888:
		return "XRGB8888"
	case XBGR8888:
		return "XBGR8888"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// BytesPerPixel is the size of one pixel in memory.
func (f Format) BytesPerPixel() int {
	switch f {
	case RGB565, BGR565:
		return 2
	default:
		return 4
	}
}

// Surface is a block of pixel memory in one of the supported formats.
type Surface struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
	Format Format
}

// NewSurface allocates a w x h surface.
func NewSurface(w, h int, format Format) *Surface {
	stride := w * format.BytesPerPixel()
	return &Surface{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   image.Rect(0, 0, w, h),
		Format: format,
	}
}

func (s *Surface) ColorModel() color.Model {
	return color.RGBAModel
}

func (s *Surface) Bounds() image.Rectangle {
	return s.Rect
}

func (s *Surface) offset(x, y int) int {
	return (y-s.Rect.Min.Y)*s.Stride + (x-s.Rect.Min.X)*s.Format.BytesPerPixel()
}

func (s *Surface) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(s.Rect) {
		return color.RGBA{}
	}
	i := s.offset(x, y)
	switch s.Format {
	case RGB565, BGR565:
		v := binary.LittleEndian.Uint16(s.Pix[i:])
		r, g, b := uint8(v>>11)<<3, uint8(v>>5&0x3f)<<2, uint8(v)<<3
		if s.Format == BGR565 {
			r, b = b, r
		}
		return color.RGBA{R: r | r>>5, G: g | g>>6, B: b | b>>5, A: 0xff}
	case XRGB8888:
		return color.RGBA{R: s.Pix[i+2], G: s.Pix[i+1], B: s.Pix[i], A: 0xff}
	default:
		return color.RGBA{R: s.Pix[i], G: s.Pix[i+1], B: s.Pix[i+2], A: 0xff}
	}
}

func (s *Surface) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(s.Rect) {
		return
	}
	s.set(s.offset(x, y), color.RGBAModel.Convert(c).(color.RGBA))
}

func (s *Surface) set(i int, c color.RGBA) {
	switch s.Format {
	case RGB565, BGR565:
		r, b := c.R, c.B
		if s.Format == BGR565 {
			r, b = b, r
		}
		v := uint16(r>>3)<<11 | uint16(c.G>>2)<<5 | uint16(b>>3)
		binary.LittleEndian.PutUint16(s.Pix[i:], v)
	case XRGB8888:
		s.Pix[i], s.Pix[i+1], s.Pix[i+2], s.Pix[i+3] = c.B, c.G, c.R, 0xff
	default:
		s.Pix[i], s.Pix[i+1], s.Pix[i+2], s.Pix[i+3] = c.R, c.G, c.B, 0xff
	}
}

// Fill sets all pixels to c.
func (s *Surface) Fill(c color.Color) {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	for y := s.Rect.Min.Y; y < s.Rect.Max.Y; y++ {
		for x := s.Rect.Min.X; x < s.Rect.Max.X; x++ {
			s.set(s.offset(x, y), rgba)
		}
	}
}

// Blit scales src to fit the surface, centered, and returns the area drawn.
func (s *Surface) Blit(src image.Image) image.Rectangle {
	r := Fit(src.Bounds(), s.Rect)
	xdraw.NearestNeighbor.Scale(s, r, src, src.Bounds(), xdraw.Src, nil)
	return r
}

// Fit returns the largest rectangle with the aspect ratio of src centered in
// dst. Whole multiples of the source size are preferred so pixels stay
// square.
func Fit(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
		return image.Rectangle{}
	}

	var w, h int
	if scale := min(dw/sw, dh/sh); scale >= 1 {
		w, h = sw*scale, sh*scale
	} else if dw*sh <= dh*sw {
		w, h = dw, sh*dw/sw
	} else {
		w, h = sw*dh/sh, dh
	}
	origin := dst.Min.Add(image.Pt((dw-w)/2, (dh-h)/2))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w, h))}
}

// Mirror is a mapped framebuffer device.
type Mirror struct {
	*Surface
	name  string
	close func() error
}

func (m *Mirror) String() string {
	return fmt.Sprintf("framebuffer %s %dx%d %s", m.name, m.Rect.Dx(), m.Rect.Dy(), m.Format)
}

// Close unmaps the framebuffer and closes the device.
func (m *Mirror) Close() error {
	if m.close == nil {
		return nil
	}
	return m.close()
}
