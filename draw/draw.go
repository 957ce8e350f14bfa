// Package draw has the shape primitives used on monochrome bitmaps. All of
// them clip to the bounds of dst.
package draw

import (
	"image"
	"image/draw"
)

// Image is an alias for [image/draw.Image].
type Image = draw.Image

// Copy replaces r in dst with src, aligning r.Min in dst with sp in src.
func Copy(dst Image, r image.Rectangle, src image.Image, sp image.Point) {
	draw.Draw(dst, r, src, sp, draw.Src)
}
