// Package wave renders run length encoded logic signals.
//
// A signal is a sequence of runs, each a logic level held for a number of time
// units. Rendering maps time units to pixels through a View: the zoom factor
// scales run lengths and the offset scrolls the timeline to the left.
package wave

import (
	"image/color"
	"math"

	"github.com/BeatGlow/oled/draw"
)

// Draw renders s into dst as a trace of height pixels with its top at y. The
// timeline starts at x, shifted left by the view offset. The high level is
// drawn on the top row and the low level on the bottom row, a vertical segment
// joins two runs of different level. Everything outside the bounds of dst is
// clipped. An empty signal or a non-positive zoom draws nothing.
func Draw(dst draw.Image, x, y, height int, s Signal, v View, c color.Color) {
	if len(s) == 0 || height <= 0 || !(v.Zoom > 0) {
		return
	}

	var (
		b      = dst.Bounds()
		cursor = float64(x - v.Offset)
		high   bool
		low    = y + height - 1
	)
	for i, r := range s {
		var (
			zoomed = float64(r.Len()) * v.Zoom
			cx     = int(math.Floor(cursor))
		)

		if i > 0 && r.High() != high && cx >= b.Min.X && cx < b.Max.X {
			draw.VerticalLine(dst, cx, y, height, c)
		}
		high = r.High()

		level := low
		if high {
			level = y
		}
		if level >= b.Min.Y && level < b.Max.Y {
			var (
				x0 = cx
				x1 = cx + int(zoomed)
			)
			if x0 < b.Min.X {
				x0 = b.Min.X
			}
			if x1 > b.Max.X {
				x1 = b.Max.X
			}
			draw.HorizontalLine(dst, x0, level, x1-x0, c)
		}

		if cursor += zoomed; cursor >= float64(b.Max.X) {
			break
		}
	}
}
