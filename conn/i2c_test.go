package conn

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/BeatGlow/oled/emulator"
)

func TestI2CTx(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x3c, W: []byte{0x80, 0xaf}},
		{Addr: 0x3c, R: []byte{0x42}},
	}}
	c := NewI2C(bus, 0x3c)
	if n, err := c.Write([]byte{0x80, 0xaf}); err != nil || n != 2 {
		t.Fatalf("expected 2 bytes written, got %d: %v", n, err)
	}

	var p [1]byte
	if n, err := c.Read(p[:]); err != nil || n != 1 {
		t.Fatalf("expected 1 byte read, got %d: %v", n, err)
	}
	if p[0] != 0x42 {
		t.Errorf("expected 0x42, got %#02x", p[0])
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if s := c.String(); s != "I²C bus playback address 0x3c" {
		t.Errorf("unexpected description %q", s)
	}
}

func TestI2CTimeout(t *testing.T) {
	panel := emulator.New()
	panel.Delay = 100 * time.Millisecond

	t.Run("expired", func(it *testing.T) {
		c := NewI2C(panel, 0x3c)
		c.SetTimeout(5 * time.Millisecond)
		start := time.Now()
		if _, err := c.Write([]byte{0x80, 0xaf}); !errors.Is(err, ErrTimeout) {
			it.Fatalf("expected ErrTimeout, got %v", err)
		}
		if elapsed := time.Since(start); elapsed >= panel.Delay {
			it.Errorf("expected to return before the transaction finished, took %s", elapsed)
		}
	})

	t.Run("in time", func(it *testing.T) {
		c := NewI2C(panel, 0x3c)
		c.SetTimeout(time.Second)
		if _, err := c.Write([]byte{0x80, 0xaf}); err != nil {
			it.Fatal(err)
		}
	})

	t.Run("disabled", func(it *testing.T) {
		c := NewI2C(panel, 0x3c)
		c.SetTimeout(0)
		if _, err := c.Write([]byte{0x80, 0xae}); err != nil {
			it.Fatal(err)
		}
	})

	t.Run("error", func(it *testing.T) {
		c := NewI2C(panel, 0x3d)
		c.SetTimeout(time.Second)
		if _, err := c.Write([]byte{0x80, 0xaf}); !errors.Is(err, emulator.ErrNACK) {
			it.Fatalf("expected ErrNACK, got %v", err)
		}
	})
}

// heldBus keeps every transaction waiting until release is closed.
type heldBus struct {
	i2ctest.Record
	release chan struct{}
	entered atomic.Int32
}

func (b *heldBus) Tx(addr uint16, w, r []byte) error {
	b.entered.Add(1)
	<-b.release
	return b.Record.Tx(addr, w, r)
}

func TestI2CStaleTransaction(t *testing.T) {
	bus := &heldBus{release: make(chan struct{})}
	c := NewI2C(bus, 0x3c)
	c.SetTimeout(20 * time.Millisecond)

	if _, err := c.Write([]byte{0x80, 0xb5}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	t.Run("busy", func(it *testing.T) {
		if _, err := c.Write([]byte{0x40, 0xff}); !errors.Is(err, ErrTimeout) {
			it.Fatalf("expected ErrTimeout, got %v", err)
		}
		if n := bus.entered.Load(); n != 1 {
			it.Errorf("expected 1 transaction on the bus, got %d", n)
		}
	})

	t.Run("after release", func(it *testing.T) {
		close(bus.release)
		c.SetTimeout(time.Second)
		if _, err := c.Write([]byte{0x80, 0xb0}); err != nil {
			it.Fatal(err)
		}
		if l := len(bus.Ops); l != 2 {
			it.Fatalf("expected 2 transactions, got %d", l)
		}
		if op := bus.Ops[0].W; op[1] != 0xb5 {
			it.Errorf("expected the stale transaction first, got % x", op)
		}
		if op := bus.Ops[1].W; op[1] != 0xb0 {
			it.Errorf("expected the new transaction last, got % x", op)
		}
	})
}
