package input

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// edgeTimeout bounds the wait for an edge, so Close is noticed.
const edgeTimeout = 100 * time.Millisecond

// Encoder is a quadrature rotary encoder on two GPIO pins with a push button
// on a third. All pins are pulled up, the button connects to ground.
type Encoder struct {
	mu     sync.Mutex
	a, b   gpio.PinIn
	button gpio.PinIn
	lastA  gpio.Level
	count  counter
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewEncoder configures the pins and starts watching pin a for edges.
func NewEncoder(a, b, button gpio.PinIn) (*Encoder, error) {
	if err := a.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("input: encoder pin %s: %w", a, err)
	}
	if err := b.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("input: encoder pin %s: %w", b, err)
	}
	if err := button.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("input: button pin %s: %w", button, err)
	}

	e := &Encoder{
		a:      a,
		b:      b,
		button: button,
		lastA:  a.Read(),
		done:   make(chan struct{}),
	}
	e.wg.Add(1)
	go e.watch()
	return e, nil
}

func (e *Encoder) String() string {
	return fmt.Sprintf("encoder %s/%s button %s", e.a, e.b, e.button)
}

func (e *Encoder) watch() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		default:
		}
		if e.a.WaitForEdge(edgeTimeout) {
			e.Edge()
		}
	}
}

// Edge decodes a level change on pin a. It is called for every edge on a,
// the direction follows from the level of b.
func (e *Encoder) Edge() {
	e.mu.Lock()
	defer e.mu.Unlock()
	a := e.a.Read()
	if a == e.lastA {
		return
	}
	if e.b.Read() != a {
		e.count.pending++
	} else {
		e.count.pending--
	}
	e.lastA = a
}

func (e *Encoder) Update(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.count.update(e.button.Read() == gpio.Low, now)
}

func (e *Encoder) Delta() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count.takeDelta()
}

func (e *Encoder) Position() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count.position
}

func (e *Encoder) Pressed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count.button.Pressed()
}

func (e *Encoder) LongPress() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count.button.LongPress()
}

// Close stops watching the encoder.
func (e *Encoder) Close() error {
	select {
	case <-e.done:
	default:
		close(e.done)
	}
	e.wg.Wait()
	return nil
}

var _ Device = (*Encoder)(nil)
