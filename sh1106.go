package oled

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"sync"
	"time"

	"golang.org/x/image/font"
	"periph.io/x/conn/v3/display"
	"tinygo.org/x/tinyfont"

	"github.com/BeatGlow/oled/draw"
	"github.com/BeatGlow/oled/pixel"
	"github.com/BeatGlow/oled/wave"
)

// Display is a Sino Wealth SH1106 OLED display.
//
// All methods are safe for concurrent use. Drawing methods only change the
// bitmap in memory and work before Init, the bitmap is sent to the panel by
// Update.
type Display struct {
	mu          sync.Mutex
	c           Conn
	canvas      Canvas
	prev        *pixel.Bitmap
	prevValid   bool
	pages       int
	colOffset   int
	delta       bool
	delay       time.Duration
	initialized bool
}

// New creates a display on c. Nothing is sent until Init is called. A nil
// config selects DefaultConfig, config itself is not modified.
func New(c Conn, config *Config) *Display {
	cfg := DefaultConfig
	if config != nil {
		cfg = *config
	}
	cfg = cfg.withDefaults()

	buf := pixel.NewBitmap(cfg.Width, cfg.Height)
	return &Display{
		c:         c,
		canvas:    Canvas{buf: buf},
		prev:      pixel.NewBitmap(cfg.Width, cfg.Height),
		pages:     buf.Pages(),
		colOffset: cfg.ColumnOffset,
		delta:     !cfg.DisableDelta,
		delay:     cfg.PowerOnDelay,
	}
}

func (d *Display) String() string {
	return fmt.Sprintf("SH1106 %dx%d on %s", d.canvas.buf.Rect.Dx(), d.canvas.buf.Rect.Dy(), d.c)
}

// Init probes for the panel and sends the power on sequence. If the probe
// fails, ErrNotPresent is returned and nothing is sent; Init can be retried.
// The bitmap is cleared and sent to the panel before it is switched on.
func (d *Display) Init() (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.initialized = false
	if err = d.c.Probe(); err != nil {
		return fmt.Errorf("%w: %w", ErrNotPresent, err)
	}
	if d.delay > 0 {
		time.Sleep(d.delay)
	}

	if err = d.commands(
		[]byte{setDisplayOff},
		[]byte{setDisplayAllOnResume},
		[]byte{setDisplayClockDiv, 0x50},
		[]byte{setMultiplexRatio, multiplex64},
		[]byte{setDisplayOffset, 0x00},
		[]byte{setStartLine | 0},
		[]byte{setDCDC, dcdcOn},
		[]byte{setPrecharge, 0x22},
		[]byte{setVComDeselect, 0x35},
		[]byte{setPumpVoltage | pumpVoltage8V0},
		[]byte{setContrast, 0xFF},
		[]byte{setNormalDisplay},
		[]byte{setSegmentRemap},
		[]byte{setComScanDec},
		[]byte{setComPins, 0x12},
	); err != nil {
		return fmt.Errorf("oled: init: %w", err)
	}

	d.canvas.Clear()
	d.prevValid = false
	if err = d.flush(true); err != nil {
		return fmt.Errorf("oled: init: %w", err)
	}
	if err = d.c.Command(setDisplayOn); err != nil {
		return fmt.Errorf("oled: init: %w", err)
	}

	d.initialized = true
	if debug {
		log.Printf("oled: %s initialized", d)
	}
	return nil
}

// IsInitialized reports if Init succeeded.
func (d *Display) IsInitialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

func (d *Display) commands(commands ...[]byte) (err error) {
	for _, command := range commands {
		if err = d.c.Command(command[0], command[1:]...); err != nil {
			return
		}
	}
	return
}

// Update sends the bitmap to the panel. Unless delta updates are disabled,
// only pages that changed since the last successful Update are sent.
//
// The first failing transaction aborts the update. The bitmap is not
// affected, so Update can simply be retried; the retry sends all pages.
func (d *Display) Update() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	return d.flush(!d.delta)
}

// Refresh sends all pages to the panel.
func (d *Display) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	return d.flush(true)
}

func (d *Display) flush(all bool) (err error) {
	var (
		buf  = d.canvas.buf
		sent int
	)
	all = all || !d.prevValid
	for page := 0; page < d.pages; page++ {
		if !all && buf.PageEqual(d.prev, page) {
			continue
		}
		if err = d.sendPage(page); err != nil {
			d.prevValid = false
			return fmt.Errorf("oled: page %d: %w", page, err)
		}
		sent++
	}

	d.prev.CopyFrom(buf)
	d.prevValid = true
	if debug {
		log.Printf("oled: sent %d of %d pages", sent, d.pages)
	}
	return nil
}

func (d *Display) sendPage(page int) (err error) {
	col := d.colOffset
	if err = d.c.Command(setPageAddr | byte(page&0x07)); err != nil {
		return
	}
	if err = d.c.Command(setLowColumn | byte(col&0x0f)); err != nil {
		return
	}
	if err = d.c.Command(setHighColumn | byte((col>>4)&0x0f)); err != nil {
		return
	}
	return d.c.Data(d.canvas.buf.Page(page)...)
}

// SetContrast adjusts the contrast level.
func (d *Display) SetContrast(level uint8) error {
	return d.command(setContrast, level)
}

// Invert swaps on and off pixels on the panel, the bitmap is not changed.
func (d *Display) Invert(invert bool) error {
	if invert {
		return d.command(setInvertDisplay)
	}
	return d.command(setNormalDisplay)
}

// Show toggles the display on or off. The panel keeps its contents while off.
func (d *Display) Show(show bool) error {
	if show {
		return d.command(setDisplayOn)
	}
	return d.command(setDisplayOff)
}

// Halt switches the display off.
func (d *Display) Halt() error {
	return d.Show(false)
}

func (d *Display) command(cmnd byte, args ...byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return ErrNotInitialized
	}
	return d.c.Command(cmnd, args...)
}

// Close switches the display off if it was initialized and closes the
// connection.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		if err := d.c.Command(setDisplayOff); err != nil && debug {
			log.Printf("oled: display off before close: %v", err)
		}
		d.initialized = false
	}
	return d.c.Close()
}

// Render calls fn with exclusive access to the bitmap, so a frame can be drawn
// without another goroutine updating halfway.
func (d *Display) Render(fn func(*Canvas)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.canvas)
}

// Snapshot copies the bitmap into dst, which must have the same size.
func (d *Display) Snapshot(dst *pixel.Bitmap) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dst.CopyFrom(d.canvas.buf)
}

// Clear turns all pixels off. Only the bitmap is changed.
func (d *Display) Clear() {
	d.Render(func(c *Canvas) { c.Clear() })
}

// Fill turns all pixels on. Only the bitmap is changed.
func (d *Display) Fill() {
	d.Render(func(c *Canvas) { c.Fill() })
}

// SetPixel turns the pixel at (x, y) on or off.
func (d *Display) SetPixel(x, y int, on bool) {
	d.Render(func(c *Canvas) { c.SetPixel(x, y, on) })
}

// Pixel reports if the pixel at (x, y) is on.
func (d *Display) Pixel(x, y int) (on bool) {
	d.Render(func(c *Canvas) { on = c.Pixel(x, y) })
	return
}

// DrawChar draws ch with the 5x7 font and returns the number of columns used.
func (d *Display) DrawChar(x, y int, ch rune, c color.Color) (width int) {
	d.Render(func(canvas *Canvas) { width = canvas.DrawChar(x, y, ch, c) })
	return
}

// DrawString draws s with the 5x7 font and returns the number of columns used.
func (d *Display) DrawString(x, y int, s string, c color.Color) (width int) {
	d.Render(func(canvas *Canvas) { width = canvas.DrawString(x, y, s, c) })
	return
}

// DrawFont draws s with a tinyfont font, y is the baseline.
func (d *Display) DrawFont(x, y int, f tinyfont.Fonter, s string, c color.Color) {
	d.Render(func(canvas *Canvas) { canvas.DrawFont(x, y, f, s, c) })
}

// DrawText draws s with a font face, y is the baseline.
func (d *Display) DrawText(x, y int, face font.Face, s string, c color.Color) (width int) {
	d.Render(func(canvas *Canvas) { width = canvas.DrawText(x, y, face, s, c) })
	return
}

// DrawLine draws a line between two points.
func (d *Display) DrawLine(x0, y0, x1, y1 int, c color.Color) {
	d.Render(func(canvas *Canvas) { canvas.DrawLine(x0, y0, x1, y1, c) })
}

// DrawDottedLine draws a horizontal half brightness line.
func (d *Display) DrawDottedLine(x, y, w, spacing int, c color.Color) {
	d.Render(func(canvas *Canvas) { canvas.DrawDottedLine(x, y, w, spacing, c) })
}

// DrawWaveform draws a single logic trace.
func (d *Display) DrawWaveform(x, y, height int, s wave.Signal, v wave.View, c color.Color) {
	d.Render(func(canvas *Canvas) { canvas.DrawWaveform(x, y, height, s, v, c) })
}

// DrawChannels draws up to four stacked logic traces with labels.
func (d *Display) DrawChannels(channels []wave.Signal, l wave.Layout, v wave.View, c color.Color) {
	d.Render(func(canvas *Canvas) { canvas.DrawChannels(channels, l, v, c) })
}

func (d *Display) ColorModel() color.Model {
	return pixel.MonoModel
}

func (d *Display) Bounds() image.Rectangle {
	return d.canvas.buf.Rect
}

func (d *Display) At(x, y int) (c color.Color) {
	d.Render(func(canvas *Canvas) { c = canvas.At(x, y) })
	return
}

func (d *Display) Set(x, y int, c color.Color) {
	d.Render(func(canvas *Canvas) { canvas.Set(x, y, c) })
}

// Draw composes src into the bitmap and updates the panel.
func (d *Display) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	draw.Copy(d.canvas.buf, r, src, sp)
	if !d.initialized {
		return ErrNotInitialized
	}
	return d.flush(!d.delta)
}

var (
	_ draw.Image     = (*Display)(nil)
	_ display.Drawer = (*Display)(nil)
)
