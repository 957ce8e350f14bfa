package oled

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/BeatGlow/oled/glyph"
	"github.com/BeatGlow/oled/pixel"
	"github.com/BeatGlow/oled/wave"
)

func TestCanvasPixels(t *testing.T) {
	c := NewCanvas(pixel.NewBitmap(128, 64))

	t.Run("round trip", func(it *testing.T) {
		for _, p := range []image.Point{{0, 0}, {127, 0}, {0, 63}, {127, 63}, {64, 31}, {3, 9}} {
			c.SetPixel(p.X, p.Y, true)
			if !c.Pixel(p.X, p.Y) {
				it.Errorf("pixel %s: expected on", p)
			}
			c.SetPixel(p.X, p.Y, false)
			if c.Pixel(p.X, p.Y) {
				it.Errorf("pixel %s: expected off", p)
			}
		}
	})

	t.Run("out of bounds", func(it *testing.T) {
		c.Clear()
		for _, p := range []image.Point{{-1, 0}, {0, -1}, {128, 0}, {0, 64}, {1000, 1000}} {
			c.SetPixel(p.X, p.Y, true)
			if c.Pixel(p.X, p.Y) {
				it.Errorf("pixel %s: expected off", p)
			}
		}
		if !bytes.Equal(c.Bitmap().Pix, make([]byte, len(c.Bitmap().Pix))) {
			it.Error("out of bounds write changed the bitmap")
		}
	})

	t.Run("fill", func(it *testing.T) {
		c.Fill()
		for i, v := range c.Bitmap().Pix {
			if v != 0xff {
				it.Fatalf("byte %d: expected 0xff, got %#02x", i, v)
			}
		}
		c.Clear()
		for i, v := range c.Bitmap().Pix {
			if v != 0x00 {
				it.Fatalf("byte %d: expected 0x00, got %#02x", i, v)
			}
		}
	})

	t.Run("layout", func(it *testing.T) {
		c.Clear()
		c.SetPixel(5, 13, true)
		if v := c.Bitmap().Pix[1*128+5]; v != 1<<5 {
			it.Errorf("expected bit 5 of byte %d, got %#02x", 128+5, v)
		}
	})

	t.Run("color", func(it *testing.T) {
		c.Clear()
		c.Set(1, 1, color.White)
		c.Set(2, 2, color.Black)
		if c.At(1, 1) != pixel.On || c.At(2, 2) != pixel.Off {
			it.Error("unexpected colors")
		}
	})
}

func TestCanvasText(t *testing.T) {
	c := NewCanvas(pixel.NewBitmap(128, 64))

	if w := c.DrawString(0, 0, "Hi", pixel.On); w != 2*glyph.Advance {
		t.Errorf("expected width %d, got %d", 2*glyph.Advance, w)
	}
	want := pixel.NewBitmap(128, 64)
	glyph.DrawString(want, 0, 0, "Hi", pixel.On)
	if !bytes.Equal(c.Bitmap().Pix, want.Pix) {
		t.Fatal("DrawString differs from glyph.DrawString")
	}

	t.Run("font", func(it *testing.T) {
		c.Clear()
		c.DrawFont(0, glyph.Height, glyph.Font, "Hi", pixel.On)
		if !bytes.Equal(c.Bitmap().Pix, want.Pix) {
			it.Error("DrawFont differs from DrawString")
		}
	})

	t.Run("face", func(it *testing.T) {
		c.Clear()
		if w := c.DrawText(0, glyph.Height, glyph.Face(), "Hi", pixel.On); w != 2*glyph.Advance {
			it.Errorf("expected advance %d, got %d", 2*glyph.Advance, w)
		}
		if !bytes.Equal(c.Bitmap().Pix, want.Pix) {
			it.Error("DrawText differs from DrawString")
		}
	})

	t.Run("char", func(it *testing.T) {
		c.Clear()
		if w := c.DrawChar(125, 0, 'A', pixel.On); w != 0 {
			it.Errorf("expected clipped character to be skipped, got width %d", w)
		}
		if w := c.DrawChar(122, 0, 'A', pixel.On); w != glyph.Advance {
			it.Errorf("expected width %d, got %d", glyph.Advance, w)
		}
	})
}

func TestCanvasShapes(t *testing.T) {
	c := NewCanvas(pixel.NewBitmap(128, 64))

	c.DrawLine(0, 10, 127, 10, pixel.On)
	for x := 0; x < 128; x++ {
		if !c.Pixel(x, 10) {
			t.Fatalf("expected line at (%d,10)", x)
		}
	}

	c.Clear()
	c.DrawDottedLine(0, 20, 32, 4, pixel.On)
	var dots int
	for x := 0; x < 128; x++ {
		if c.Pixel(x, 20) {
			dots++
		}
	}
	if dots != 4 {
		t.Errorf("expected 4 dots, got %d", dots)
	}
}

func TestCanvasWaveform(t *testing.T) {
	var (
		c    = NewCanvas(pixel.NewBitmap(128, 64))
		want = pixel.NewBitmap(128, 64)
		s    = wave.MustParse("L20 H30 L10")
	)
	c.DrawWaveform(8, 2, 12, s, wave.DefaultView, pixel.On)
	wave.Draw(want, 8, 2, 12, s, wave.DefaultView, pixel.On)
	if !bytes.Equal(c.Bitmap().Pix, want.Pix) {
		t.Error("DrawWaveform differs from wave.Draw")
	}

	c.Clear()
	want.Clear()
	channels := []wave.Signal{s, s}
	c.DrawChannels(channels, wave.DefaultLayout, wave.DefaultView, pixel.On)
	wave.DrawChannels(want, channels, wave.DefaultLayout, wave.DefaultView, pixel.On)
	if !bytes.Equal(c.Bitmap().Pix, want.Pix) {
		t.Error("DrawChannels differs from wave.DrawChannels")
	}
}
