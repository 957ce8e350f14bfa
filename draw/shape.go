package draw

import (
	"image"
	"image/color"
)

// Line draws a line between two points, both inclusive.
func Line(dst Image, a, b image.Point, c color.Color) {
	var (
		dx, sx = delta(b.X - a.X)
		dy, sy = delta(b.Y - a.Y)
		e      = dx - dy
	)
	for {
		dst.Set(a.X, a.Y, c)
		if a == b {
			return
		}
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			a.X += sx
		}
		if e2 < dx {
			e += dx
			a.Y += sy
		}
	}
}

// HorizontalLine draws w pixels starting at (x,y) to the right.
func HorizontalLine(dst Image, x, y, w int, c color.Color) {
	for i := 0; i < w; i++ {
		dst.Set(x+i, y, c)
	}
}

// VerticalLine draws h pixels starting at (x,y) downwards.
func VerticalLine(dst Image, x, y, h int, c color.Color) {
	for i := 0; i < h; i++ {
		dst.Set(x, y+i, c)
	}
}

// Rectangle draws the outline of rect, Max is exclusive.
func Rectangle(dst Image, rect image.Rectangle, c color.Color) {
	if rect.Empty() {
		return
	}
	HorizontalLine(dst, rect.Min.X, rect.Min.Y, rect.Dx(), c)
	HorizontalLine(dst, rect.Min.X, rect.Max.Y-1, rect.Dx(), c)
	VerticalLine(dst, rect.Min.X, rect.Min.Y+1, rect.Dy()-2, c)
	VerticalLine(dst, rect.Max.X-1, rect.Min.Y+1, rect.Dy()-2, c)
}

// Box draws a filled rectangle.
func Box(dst Image, rect image.Rectangle, c color.Color) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		HorizontalLine(dst, rect.Min.X, y, rect.Dx(), c)
	}
}

// RoundedRectangle draws the outline of rect with rounded corners. The radius
// is limited to what fits in rect.
func RoundedRectangle(dst Image, rect image.Rectangle, radius int, c color.Color) {
	if rect.Empty() {
		return
	}
	var (
		r      = fitRadius(rect, radius)
		x0, y0 = rect.Min.X + r, rect.Min.Y + r
		x1, y1 = rect.Max.X - 1 - r, rect.Max.Y - 1 - r
	)
	HorizontalLine(dst, x0, rect.Min.Y, x1-x0+1, c)
	HorizontalLine(dst, x0, rect.Max.Y-1, x1-x0+1, c)
	VerticalLine(dst, rect.Min.X, y0, y1-y0+1, c)
	VerticalLine(dst, rect.Max.X-1, y0, y1-y0+1, c)
	arc(r, func(x, y int) {
		for _, p := range [...]image.Point{{X: x, Y: y}, {X: y, Y: x}} {
			dst.Set(x0-p.X, y0-p.Y, c)
			dst.Set(x1+p.X, y0-p.Y, c)
			dst.Set(x0-p.X, y1+p.Y, c)
			dst.Set(x1+p.X, y1+p.Y, c)
		}
	})
}

// RoundedBox draws a filled rectangle with rounded corners.
func RoundedBox(dst Image, rect image.Rectangle, radius int, c color.Color) {
	if rect.Empty() {
		return
	}
	var (
		r      = fitRadius(rect, radius)
		x0, y0 = rect.Min.X + r, rect.Min.Y + r
		x1, y1 = rect.Max.X - 1 - r, rect.Max.Y - 1 - r
		w      = x1 - x0 + 1
	)
	Box(dst, image.Rect(rect.Min.X, y0, rect.Max.X, y1+1), c)
	HorizontalLine(dst, x0, rect.Min.Y, w, c)
	HorizontalLine(dst, x0, rect.Max.Y-1, w, c)
	arc(r, func(x, y int) {
		HorizontalLine(dst, x0-x, y0-y, w+2*x, c)
		HorizontalLine(dst, x0-y, y0-x, w+2*y, c)
		HorizontalLine(dst, x0-x, y1+y, w+2*x, c)
		HorizontalLine(dst, x0-y, y1+x, w+2*y, c)
	})
}

// DottedLine draws a horizontal line of w pixels starting at (x, y) where only
// every other dot of a grid with the given spacing is set. On a monochrome
// panel this reads as a half brightness line.
func DottedLine(dst Image, x, y, w, spacing int, c color.Color) {
	if spacing <= 0 {
		return
	}
	for i := 0; i < w; i += 2 * spacing {
		dst.Set(x+i, y, c)
	}
}

// arc calls fn for the points (x, y) of one octant of a circle around the
// origin, from (1, r) until x meets y.
func arc(r int, fn func(x, y int)) {
	f, x, y := 1-r, 0, r
	for x < y {
		if f >= 0 {
			y--
			f -= 2 * y
		}
		x++
		f += 2*x + 1
		fn(x, y)
	}
}

func fitRadius(rect image.Rectangle, r int) int {
	return max(0, min(r, (rect.Dx()-1)/2, (rect.Dy()-1)/2))
}

// delta splits v in its magnitude and direction.
func delta(v int) (n, step int) {
	if v < 0 {
		return -v, -1
	}
	return v, 1
}
