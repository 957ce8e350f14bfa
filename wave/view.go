package wave

import "fmt"

// ZoomLevels are the selectable time scale factors, in ascending order.
var ZoomLevels = []float64{0.5, 1, 2, 4, 8}

// DefaultZoom is the 1:1 zoom level.
const DefaultZoom = 1.0

// View selects the part of the timeline that is rendered.
type View struct {
	// Offset is the scroll position in zoomed pixels.
	Offset int

	// Zoom multiplies every run length before rendering.
	Zoom float64
}

// DefaultView shows the start of the timeline at 1:1 scale.
var DefaultView = View{Zoom: DefaultZoom}

// Clamp limits the offset to [0, max].
func (v View) Clamp(max int) View {
	if v.Offset > max {
		v.Offset = max
	}
	if v.Offset < 0 {
		v.Offset = 0
	}
	return v
}

// ZoomIndex returns the index in ZoomLevels of the level closest to zoom.
func (v View) ZoomIndex() int {
	best := 0
	for i, z := range ZoomLevels {
		if abs(z-v.Zoom) < abs(ZoomLevels[best]-v.Zoom) {
			best = i
		}
	}
	return best
}

// StepZoom moves steps zoom levels in (positive) or out (negative), stopping
// at the first and last level.
func (v View) StepZoom(steps int) View {
	i := v.ZoomIndex() + steps
	if i < 0 {
		i = 0
	} else if i >= len(ZoomLevels) {
		i = len(ZoomLevels) - 1
	}
	v.Zoom = ZoomLevels[i]
	return v
}

func (v View) String() string {
	return fmt.Sprintf("offset=%d zoom=%.1fx", v.Offset, v.Zoom)
}

// ZoomedLen is the rendered width in pixels of total time units.
func ZoomedLen(total int, zoom float64) int {
	return int(float64(total) * zoom)
}

// MaxScroll is the largest useful scroll offset for a timeline of total time
// units shown in visible pixels.
func MaxScroll(total int, zoom float64, visible int) int {
	if n := ZoomedLen(total, zoom) - visible; n > 0 {
		return n
	}
	return 0
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
