// Package emulator models an SH1106 OLED controller on an I²C bus.
//
// A Panel decodes the control bytes, commands and display data the way the
// controller does and keeps the display RAM, so the result of a driver can be
// inspected without hardware.
package emulator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/BeatGlow/oled/pixel"
)

// Controller geometry.
const (
	Columns = 132 // columns of display RAM
	Pages   = 8   // pages of display RAM
	Width   = 128 // visible columns
	Height  = Pages * 8
)

// Errors
var (
	ErrNACK   = errors.New("emulator: address not acknowledged")
	ErrFailed = errors.New("emulator: injected transaction failure")
	ErrClosed = errors.New("emulator: bus closed")
)

// Control byte bits.
const (
	controlContinuation = 0x80 // one byte follows, then another control byte
	controlData         = 0x40 // bytes are display data instead of commands
)

// statusOff is set in the status byte while the display is off.
const statusOff = 0x40

// Panel is an emulated SH1106 on its own I²C bus.
type Panel struct {
	mu sync.Mutex

	// Addr is the address the controller answers to.
	Addr uint16

	// Offset is the first visible RAM column.
	Offset int

	// Absent makes every transaction fail as if nothing was connected.
	Absent bool

	// Delay is added to every transaction.
	Delay time.Duration

	ram      [Pages][Columns]byte
	page     int
	column   int
	pending  byte
	commands []byte
	tx       int
	failAt   int
	closed   bool

	on        bool
	allOn     bool
	inverted  bool
	segRemap  bool
	comRemap  bool
	contrast  byte
	startLine byte
	multiplex byte
	offset    byte
	clockDiv  byte
	precharge byte
	comPins   byte
	vcom      byte
	dcdc      byte
	pump      byte
}

// New returns a panel at the usual address 0x3c in its power on state.
func New() *Panel {
	p := &Panel{
		Addr:   0x3c,
		Offset: 2,
	}
	p.reset()
	return p
}

func (p *Panel) reset() {
	p.ram = [Pages][Columns]byte{}
	p.page, p.column, p.pending = 0, 0, 0
	p.commands = nil
	p.on, p.allOn, p.inverted = false, false, false
	p.segRemap, p.comRemap = false, false
	p.contrast = 0x80
	p.startLine = 0
	p.multiplex = 0x3f
	p.offset = 0
	p.clockDiv = 0x50
	p.precharge = 0x22
	p.comPins = 0x12
	p.vcom = 0x35
	p.dcdc = 0x8b
	p.pump = 0x02
}

// Reset returns the controller to its power on state.
func (p *Panel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

func (p *Panel) String() string {
	return fmt.Sprintf("SH1106 emulator@%#02x", p.Addr)
}

// Tx implements i2c.Bus.
func (p *Panel) Tx(addr uint16, w, r []byte) error {
	if p.Delay > 0 {
		time.Sleep(p.Delay)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.tx++
	if p.failAt > 0 && p.tx == p.failAt {
		p.failAt = 0
		return ErrFailed
	}
	if p.Absent || addr != p.Addr {
		return ErrNACK
	}

	p.decode(w)

	if len(r) > 0 {
		var status byte
		if !p.on {
			status |= statusOff
		}
		for i := range r {
			r[i] = status
		}
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (p *Panel) SetSpeed(physic.Frequency) error {
	return nil
}

// Close implements i2c.BusCloser. Further transactions fail.
func (p *Panel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// FailAfter makes the n-th transaction from now fail once, n starts at 1.
func (p *Panel) FailAfter(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n <= 0 {
		p.failAt = 0
		return
	}
	p.failAt = p.tx + n
}

// Transactions is the number of transactions seen.
func (p *Panel) Transactions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tx
}

// Commands returns all command bytes received so far, arguments included.
func (p *Panel) Commands() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.commands...)
}

// ClearCommands resets the command log.
func (p *Panel) ClearCommands() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = nil
}

func (p *Panel) decode(w []byte) {
	for len(w) > 0 {
		control := w[0]
		w = w[1:]
		if control&controlContinuation != 0 {
			if len(w) == 0 {
				return
			}
			p.handle(w[0], control&controlData != 0)
			w = w[1:]
			continue
		}
		for _, b := range w {
			p.handle(b, control&controlData != 0)
		}
		return
	}
}

func (p *Panel) handle(b byte, data bool) {
	if data {
		if p.column >= Columns {
			p.column = 0
		}
		p.ram[p.page][p.column] = b
		p.column = (p.column + 1) % Columns
		return
	}

	p.commands = append(p.commands, b)
	if p.pending != 0 {
		p.argument(p.pending, b)
		p.pending = 0
		return
	}

	switch {
	case b <= 0x0f:
		p.column = p.column&0xf0 | int(b&0x0f)
	case b <= 0x1f:
		p.column = int(b&0x0f)<<4 | p.column&0x0f
	case b >= 0x30 && b <= 0x33:
		p.pump = b & 0x03
	case b >= 0x40 && b <= 0x7f:
		p.startLine = b & 0x3f
	case b == 0xa0 || b == 0xa1:
		p.segRemap = b == 0xa1
	case b == 0xa4 || b == 0xa5:
		p.allOn = b == 0xa5
	case b == 0xa6 || b == 0xa7:
		p.inverted = b == 0xa7
	case b == 0xae || b == 0xaf:
		p.on = b == 0xaf
	case b >= 0xb0 && b <= 0xb7:
		p.page = int(b & 0x07)
	case b >= 0xc0 && b <= 0xcf:
		p.comRemap = b&0x08 != 0
	case b == 0x81, b == 0xa8, b == 0xad, b == 0xd3, b == 0xd5, b == 0xd9, b == 0xda, b == 0xdb:
		p.pending = b
	}
}

func (p *Panel) argument(cmnd, arg byte) {
	switch cmnd {
	case 0x81:
		p.contrast = arg
	case 0xa8:
		p.multiplex = arg & 0x3f
	case 0xad:
		p.dcdc = arg
	case 0xd3:
		p.offset = arg & 0x3f
	case 0xd5:
		p.clockDiv = arg
	case 0xd9:
		p.precharge = arg
	case 0xda:
		p.comPins = arg
	case 0xdb:
		p.vcom = arg
	}
}

// State is a snapshot of the controller registers.
type State struct {
	On             bool
	AllOn          bool
	Inverted       bool
	SegmentRemap   bool
	ComScanRemap   bool
	Contrast       byte
	StartLine      byte
	MultiplexRatio byte
	DisplayOffset  byte
	ClockDiv       byte
	Precharge      byte
	ComPins        byte
	VComDeselect   byte
	DCDC           byte
	PumpVoltage    byte
	Page           int
	Column         int
}

// State returns the current register values.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		On:             p.on,
		AllOn:          p.allOn,
		Inverted:       p.inverted,
		SegmentRemap:   p.segRemap,
		ComScanRemap:   p.comRemap,
		Contrast:       p.contrast,
		StartLine:      p.startLine,
		MultiplexRatio: p.multiplex,
		DisplayOffset:  p.offset,
		ClockDiv:       p.clockDiv,
		Precharge:      p.precharge,
		ComPins:        p.comPins,
		VComDeselect:   p.vcom,
		DCDC:           p.dcdc,
		PumpVoltage:    p.pump,
		Page:           p.page,
		Column:         p.column,
	}
}

// RAM returns a copy of one page of display RAM, all Columns of it.
func (p *Panel) RAM(page int) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if page < 0 || page >= Pages {
		return nil
	}
	return append([]byte(nil), p.ram[page][:]...)
}

// Image returns the visible part of the display RAM, as written by the driver.
func (p *Panel) Image() *pixel.Bitmap {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := pixel.NewBitmap(Width, Height)
	for page := 0; page < Pages; page++ {
		for x := 0; x < Width; x++ {
			if col := x + p.Offset; col < Columns {
				b.Pix[page*Width+x] = p.ram[page][col]
			}
		}
	}
	return b
}

// Frame returns what the panel shows: blank while off, lit while all pixels
// are forced on, inverted, and mirrored for every axis that is not remapped.
// A panel with segment remap and COM scan remap is upright.
func (p *Panel) Frame() *pixel.Bitmap {
	var (
		ram = p.Image()
		s   = p.State()
		b   = pixel.NewBitmap(Width, Height)
	)
	if !s.On {
		return b
	}
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			sx, sy := x, y
			if !s.SegmentRemap {
				sx = Width - 1 - x
			}
			if !s.ComScanRemap {
				sy = Height - 1 - y
			}
			on := s.AllOn || ram.Bit(sx, sy)
			b.SetBit(x, y, on != s.Inverted)
		}
	}
	return b
}

var _ i2c.BusCloser = (*Panel)(nil)
