package viewer

import "github.com/BeatGlow/oled/wave"

// demo traces, about four screens wide, each channel shifted a little.
var demo = []string{
	"L20 H30 L10 H25 L40 H15 L20 H35 L12 H50 L25 H10 L55 H20 L30 H40 L15 H25 L35",
	"L23 H15 L40 H20 L25 H50 L10 H30 L35 H12 L55 H25 L20 H40 L15 H35 L30",
	"L26 H35 L20 H10 L50 H25 L15 H55 L12 H30 L40 H20 L25 H15 L35 H40",
	"L29 H40 L25 H15 L35 H20 L50 H10 L30 H55 L12 H25 L40 H20 L15 H35",
}

// Demo returns four demonstration channels.
func Demo() []wave.Signal {
	channels := make([]wave.Signal, len(demo))
	for i, text := range demo {
		channels[i] = wave.MustParse(text)
	}
	return channels
}
