// Package input reads a rotary encoder with a push button.
//
// A [Device] is polled: Update is called at a steady rate and the accessors
// report the state as of the last Update. [Encoder] reads the encoder from GPIO
// pins, [Keys] is driven from software for simulators and tests.
package input

import "time"

// Button timing.
const (
	DebounceDelay     = 20 * time.Millisecond
	LongPressDuration = time.Second
)

// Device is a rotary encoder with a push button.
type Device interface {
	// Update samples the button and collects the rotation since the previous
	// Update.
	Update(now time.Time)

	// Delta returns the rotation in clicks since it was last called and
	// resets it. Positive is clockwise.
	Delta() int

	// Position is the accumulated rotation, reset by a long press.
	Position() int

	// Pressed reports if the button is down after debouncing.
	Pressed() bool

	// LongPress reports if the button has been held for LongPressDuration.
	// It stays set until the button is released.
	LongPress() bool
}

// Button debounces a push button and detects long presses.
type Button struct {
	reading    bool
	pressed    bool
	long       bool
	changed    time.Time
	pressStart time.Time
}

// Feed samples the raw button level, true is pressed. It returns true once
// when a long press is detected.
func (b *Button) Feed(down bool, now time.Time) (long bool) {
	if down != b.reading {
		b.changed = now
		if down {
			b.pressStart = now
		}
	}
	b.reading = down

	if now.Sub(b.changed) <= DebounceDelay {
		return false
	}
	if b.reading != b.pressed {
		b.pressed = b.reading
		b.long = false
	}
	if b.pressed && !b.long && now.Sub(b.pressStart) >= LongPressDuration {
		b.long = true
		return true
	}
	return false
}

// Pressed reports the debounced state.
func (b *Button) Pressed() bool {
	return b.pressed
}

// LongPress reports if the current press is a long press.
func (b *Button) LongPress() bool {
	return b.long
}

// counter collects rotation and button state shared by the devices.
type counter struct {
	button   Button
	pending  int
	delta    int
	position int
}

func (c *counter) update(down bool, now time.Time) {
	if c.button.Feed(down, now) {
		c.position = 0
	}
	if c.pending != 0 {
		c.position += c.pending
		c.delta += c.pending
		c.pending = 0
	}
}

func (c *counter) takeDelta() int {
	d := c.delta
	c.delta = 0
	return d
}
