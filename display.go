// Package oled drives SH1106 monochrome OLED panels and renders text and
// logic traces on them.
//
// Drawing only changes the in-memory bitmap of a [Display]. The bitmap is sent
// to the panel by an explicit [Display.Update], so any number of draw calls can
// be batched into one transmission.
package oled

import (
	"errors"
	"os"
	"time"
)

var debug bool

func init() {
	debug = os.Getenv("OLED_DEBUG") != ""
}

// Errors
var (
	ErrNotPresent     = errors.New("oled: device not present")
	ErrNotInitialized = errors.New("oled: display not initialized")
)

// Config is the display configuration.
type Config struct {
	// Width of the display in pixels, at most 128.
	Width int

	// Height of the display in pixels, a multiple of 8 and at most 64.
	Height int

	// ColumnOffset is added to every column address, the SH1106 has 132
	// columns of RAM of which the middle 128 are visible.
	ColumnOffset int

	// DisableDelta sends every page on Update, instead of only the pages that
	// changed since the last successful Update.
	DisableDelta bool

	// PowerOnDelay is the time the panel needs after the presence probe
	// before it accepts commands.
	PowerOnDelay time.Duration
}

// DefaultConfig is a 128x64 SH1106 module.
var DefaultConfig = Config{
	Width:        128,
	Height:       64,
	ColumnOffset: 2,
	PowerOnDelay: 10 * time.Millisecond,
}

// The SH1106 drives at most 128 visible columns and 8 pages.
const (
	maxWidth  = 128
	maxHeight = 64
)

// withDefaults returns a copy of the configuration with unset or out of range
// values replaced.
func (config Config) withDefaults() Config {
	if config.Width <= 0 || config.Width > maxWidth {
		config.Width = DefaultConfig.Width
	}
	if config.Height <= 0 || config.Height > maxHeight {
		config.Height = DefaultConfig.Height
	}
	if config.ColumnOffset < 0 {
		config.ColumnOffset = 0
	}
	if config.PowerOnDelay < 0 {
		config.PowerOnDelay = 0
	}
	return config
}
