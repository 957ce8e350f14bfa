// Package viewer is a four channel logic trace viewer controlled with a rotary
// encoder.
//
// After a splash screen the traces are shown. Turning the encoder scrolls
// through time, a long press switches to zoom mode where turning changes the
// time scale and a short press returns to scrolling. The display is switched
// off when the encoder is not used for a while.
package viewer

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/jonboulle/clockwork"
	"tinygo.org/x/tinyfont"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/glyph"
	"github.com/BeatGlow/oled/input"
	"github.com/BeatGlow/oled/pixel"
	"github.com/BeatGlow/oled/wave"
)

// Display is the part of an oled.Display the viewer uses.
type Display interface {
	Render(func(*oled.Canvas))
	Update() error
	Show(bool) error
}

// Config of the viewer.
type Config struct {
	// Channels are the traces, at most wave.MaxChannels are shown.
	Channels []wave.Signal

	// Layout of the traces.
	Layout wave.Layout

	// Title is shown on the splash screen.
	Title string

	// ScrollStep is the scroll distance in pixels per encoder click.
	ScrollStep int

	// SplashTimeout ends the splash screen without a button press.
	SplashTimeout time.Duration

	// ScreenSaver switches the display off after this much idle time, 0
	// disables it.
	ScreenSaver time.Duration

	// Test shows the encoder position instead of the traces.
	Test bool

	// Clock is the time source, nil selects the real clock.
	Clock clockwork.Clock

	// Logger receives events, nil selects the standard logger.
	Logger *log.Logger
}

// DefaultInterval is the polling interval of Run.
const DefaultInterval = 10 * time.Millisecond

// DefaultConfig shows the demo channels.
var DefaultConfig = Config{
	Channels:      Demo(),
	Layout:        wave.DefaultLayout,
	Title:         "LOGIC VIEW",
	ScrollStep:    4,
	SplashTimeout: 3 * time.Second,
	ScreenSaver:   2 * time.Minute,
}

// Viewer is the state of the user interface. It is driven by calling Step at
// a steady rate, or by Run.
type Viewer struct {
	display Display
	device  input.Device
	config  Config
	clock   clockwork.Clock
	log     *log.Logger

	start        time.Time
	lastActivity time.Time
	scope        bool
	displayOn    bool
	dirty        bool

	view      wave.View
	zoomMode  bool
	total     int
	visible   int
	maxScroll int

	lastPressed  bool
	lastLong     bool
	lastPosition int
}

// New creates a viewer on an initialized display. A nil config selects
// DefaultConfig.
func New(display Display, device input.Device, config *Config) *Viewer {
	if config == nil {
		config = new(Config)
		*config = DefaultConfig
	}

	v := &Viewer{
		display: display,
		device:  device,
		config:  *config,
		clock:   config.Clock,
		log:     config.Logger,
		view:    wave.DefaultView,
	}
	if v.clock == nil {
		v.clock = clockwork.NewRealClock()
	}
	if v.log == nil {
		v.log = log.Default()
	}
	if v.config.ScrollStep <= 0 {
		v.config.ScrollStep = DefaultConfig.ScrollStep
	}
	if v.config.Layout == (wave.Layout{}) {
		v.config.Layout = wave.DefaultLayout
	}
	if len(v.config.Channels) > wave.MaxChannels {
		v.config.Channels = v.config.Channels[:wave.MaxChannels]
	}

	v.total = wave.Longest(v.config.Channels)
	v.visible = v.config.Layout.Visible(v.bounds())
	v.maxScroll = wave.MaxScroll(v.total, v.view.Zoom, v.visible)

	now := v.clock.Now()
	v.start = now
	v.lastActivity = now
	v.displayOn = true
	v.dirty = true
	return v
}

func (v *Viewer) bounds() (r image.Rectangle) {
	v.display.Render(func(c *oled.Canvas) { r = c.Bounds() })
	return
}

// View is the current scroll position and zoom level.
func (v *Viewer) View() wave.View {
	return v.view
}

// ZoomMode reports if rotation changes the zoom level.
func (v *Viewer) ZoomMode() bool {
	return v.zoomMode
}

// Scope reports if the splash screen is over.
func (v *Viewer) Scope() bool {
	return v.scope
}

// DisplayOn reports if the screen saver has not switched the display off.
func (v *Viewer) DisplayOn() bool {
	return v.displayOn
}

// MaxScroll is the largest scroll offset at the current zoom level.
func (v *Viewer) MaxScroll() int {
	return v.maxScroll
}

// Run calls Step every interval until ctx is done.
func (v *Viewer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := v.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			_ = v.Step()
		}
	}
}

// Step polls the input device once, updates the state and redraws the
// display if anything visible changed. A failed display update is logged and
// returned; the next Step tries again.
func (v *Viewer) Step() error {
	now := v.clock.Now()
	v.device.Update(now)

	if v.config.Test {
		return v.stepTest()
	}

	var (
		delta   = v.device.Delta()
		pressed = v.device.Pressed()
		long    = v.device.LongPress()
	)

	if delta != 0 || (pressed && !v.lastPressed) {
		v.lastActivity = now
		if !v.displayOn && v.scope {
			v.show(true)
		}
	}
	if v.scope && v.displayOn && v.config.ScreenSaver > 0 {
		if idle := now.Sub(v.lastActivity); idle >= v.config.ScreenSaver {
			v.log.Printf("viewer: display off after %s idle", idle)
			v.show(false)
		}
	}

	if !v.scope && (pressed || now.Sub(v.start) >= v.config.SplashTimeout) {
		v.scope = true
		v.dirty = true
		v.log.Printf("viewer: showing %d channels, length %d px, max scroll %d px",
			len(v.config.Channels), v.total, v.maxScroll)
	}

	if pressed != v.lastPressed {
		if pressed && v.zoomMode && v.scope {
			v.zoomMode = false
			v.dirty = true
			v.log.Printf("viewer: zoom mode off (zoom=%.1fx)", v.view.Zoom)
		}
		v.lastPressed = pressed
	}

	if long && !v.lastLong && v.scope && !v.zoomMode {
		v.zoomMode = true
		v.dirty = true
		v.log.Printf("viewer: zoom mode on (zoom=%.1fx)", v.view.Zoom)
	}
	v.lastLong = long

	if delta != 0 && v.scope {
		if v.zoomMode {
			v.zoom(delta)
		} else {
			v.scroll(delta)
		}
	}

	if !v.dirty || !v.displayOn {
		return nil
	}
	if v.scope {
		v.display.Render(v.drawScope)
	} else {
		v.display.Render(v.drawSplash)
	}
	return v.update()
}

func (v *Viewer) scroll(delta int) {
	view := wave.View{Offset: v.view.Offset + delta*v.config.ScrollStep, Zoom: v.view.Zoom}.Clamp(v.maxScroll)
	if view == v.view {
		return
	}
	v.view = view
	v.dirty = true
	v.log.Printf("viewer: scroll %+d to offset %d", delta, v.view.Offset)
}

func (v *Viewer) zoom(delta int) {
	step := 1
	if delta < 0 {
		step = -1
	}
	view := v.view.StepZoom(step)
	if view.Zoom == v.view.Zoom {
		return
	}
	v.maxScroll = wave.MaxScroll(v.total, view.Zoom, v.visible)
	v.view = view.Clamp(v.maxScroll)
	v.dirty = true
	v.log.Printf("viewer: zoom %.1fx, max scroll %d px", v.view.Zoom, v.maxScroll)
}

func (v *Viewer) show(on bool) {
	if err := v.display.Show(on); err != nil {
		v.log.Printf("viewer: display on=%t: %v", on, err)
		return
	}
	v.displayOn = on
	if on {
		v.dirty = true
		v.log.Print("viewer: display on")
	}
}

func (v *Viewer) update() error {
	if err := v.display.Update(); err != nil {
		v.log.Printf("viewer: update: %v", err)
		return err
	}
	v.dirty = false
	return nil
}

func (v *Viewer) drawSplash(c *oled.Canvas) {
	c.Clear()
	var (
		w = c.Bounds().Dx()
		y = c.Bounds().Dy()/2 - glyph.Height
	)
	for _, line := range []string{v.config.Title, fmt.Sprintf("%d channels", len(v.config.Channels))} {
		_, width := tinyfont.LineWidth(glyph.Font, line)
		c.DrawFont((w-int(width))/2, y+glyph.Height, glyph.Font, line, pixel.On)
		y += 2 * (glyph.Height + 1)
	}
}

func (v *Viewer) drawScope(c *oled.Canvas) {
	c.Clear()
	c.DrawChannels(v.config.Channels, v.config.Layout, v.view, pixel.On)
	c.DrawString(0, 0, v.modeLabel(), pixel.On)
}

func (v *Viewer) modeLabel() string {
	if v.zoomMode {
		return fmt.Sprintf("Z:%.1fx", v.view.Zoom)
	}
	return "NORM"
}

func (v *Viewer) stepTest() error {
	position := v.device.Position()
	if delta := v.device.Delta(); delta != 0 {
		v.log.Printf("viewer: test position %d, delta %d", position, delta)
	}
	if position != v.lastPosition {
		v.lastPosition = position
		v.dirty = true
	}
	if !v.dirty {
		return nil
	}
	v.display.Render(func(c *oled.Canvas) {
		c.Clear()
		c.DrawString(0, 0, "***TEST***", pixel.On)
		c.DrawString(0, 32, fmt.Sprintf("Position: %d", position), pixel.On)
	})
	return v.update()
}
