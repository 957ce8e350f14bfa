package wave

import (
	"image"
	"image/color"

	"github.com/BeatGlow/oled/draw"
	"github.com/BeatGlow/oled/glyph"
)

// MaxChannels is the number of channels DrawChannels renders at most.
const MaxChannels = 4

// Layout positions stacked channels.
type Layout struct {
	// Top is the y coordinate of the first channel.
	Top int

	// ChannelHeight is the vertical space of one channel.
	ChannelHeight int

	// LabelWidth is reserved on the left for the channel number.
	LabelWidth int

	// DotSpacing is the grid of the dotted baseline.
	DotSpacing int
}

// DefaultLayout fits four channels on a 64 pixel high panel.
var DefaultLayout = Layout{
	Top:           0,
	ChannelHeight: 16,
	LabelWidth:    8,
	DotSpacing:    4,
}

// Visible is the width in pixels available for traces inside bounds.
func (l Layout) Visible(bounds image.Rectangle) int {
	if w := bounds.Dx() - l.LabelWidth; w > 0 {
		return w
	}
	return 0
}

// DrawChannels renders up to MaxChannels signals stacked from l.Top, all with
// the same view. Every channel gets its number as label, a dotted baseline
// just above the low level and its trace. The trace is clipped to the area
// right of the label column. Nil or empty channels keep their label and
// baseline.
func DrawChannels(dst draw.Image, channels []Signal, l Layout, v View, c color.Color) {
	if len(channels) > MaxChannels {
		channels = channels[:MaxChannels]
	}

	var (
		b     = dst.Bounds()
		x     = b.Min.X + l.LabelWidth
		h     = l.ChannelHeight
		trace = clipped{Image: dst, rect: image.Rect(x, b.Min.Y, b.Max.X, b.Max.Y)}
	)
	for i, s := range channels {
		top := l.Top + i*h
		glyph.DrawString(dst, b.Min.X, top+4, string(rune('0'+i)), c)
		draw.DottedLine(trace, x, top+h-4, l.Visible(b), l.DotSpacing, c)
		if len(s) > 0 {
			Draw(trace, x, top+2, h-4, s, v, c)
		}
	}
}

// clipped restricts drawing to a rectangle of the underlying image.
type clipped struct {
	draw.Image
	rect image.Rectangle
}

func (c clipped) Bounds() image.Rectangle {
	return c.rect.Intersect(c.Image.Bounds())
}

func (c clipped) Set(x, y int, v color.Color) {
	if (image.Point{X: x, Y: y}).In(c.Bounds()) {
		c.Image.Set(x, y, v)
	}
}
