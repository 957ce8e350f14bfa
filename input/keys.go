package input

import (
	"sync"
	"time"
)

// TapDuration is how long Tap holds the button, long enough to pass the
// debounce filter.
const TapDuration = 5 * DebounceDelay

// Keys is a Device driven by key presses. It goes through the same debounce
// and long press logic as an Encoder.
type Keys struct {
	mu      sync.Mutex
	count   counter
	held    bool
	press   time.Duration
	pressAt time.Time
}

// Rotate turns the encoder by n clicks, negative is counterclockwise.
func (k *Keys) Rotate(n int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.count.pending += n
}

// Tap presses and releases the button.
func (k *Keys) Tap() {
	k.Press(TapDuration)
}

// LongTap holds the button long enough for a long press and releases it.
func (k *Keys) LongTap() {
	k.Press(LongPressDuration + TapDuration)
}

// Press holds the button for d, starting at the next Update.
func (k *Keys) Press(d time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.press = d
	k.pressAt = time.Time{}
}

// Hold presses the button until Release.
func (k *Keys) Hold() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.held = true
}

// Release lets go of the button.
func (k *Keys) Release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.held = false
	k.press = 0
}

func (k *Keys) Update(now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()

	down := k.held
	if k.press > 0 {
		if k.pressAt.IsZero() {
			k.pressAt = now
		}
		if now.Sub(k.pressAt) < k.press {
			down = true
		} else {
			k.press = 0
		}
	}
	k.count.update(down, now)
}

func (k *Keys) Delta() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.count.takeDelta()
}

func (k *Keys) Position() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.count.position
}

func (k *Keys) Pressed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.count.button.Pressed()
}

func (k *Keys) LongPress() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.count.button.LongPress()
}

var _ Device = (*Keys)(nil)
