package oled

import (
	"bytes"
	"errors"
	"testing"

	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

func TestI2CConn(t *testing.T) {
	t.Run("single command", func(it *testing.T) {
		bus := &i2ctest.Playback{Ops: []i2ctest.IO{
			{Addr: 0x3c, W: []byte{0x80, 0xaf}},
		}}
		c := NewI2C(bus, nil)
		if err := c.Command(0xaf); err != nil {
			it.Fatal(err)
		}
		if err := c.Close(); err != nil {
			it.Fatal(err)
		}
	})

	t.Run("command with arguments", func(it *testing.T) {
		bus := &i2ctest.Playback{Ops: []i2ctest.IO{
			{Addr: 0x3c, W: []byte{0x00, 0x81, 0x7f}},
			{Addr: 0x3c, W: []byte{0x00, 0xd5, 0x50}},
		}}
		c := NewI2C(bus, nil)
		if err := c.Command(0x81, 0x7f); err != nil {
			it.Fatal(err)
		}
		if err := c.Command(0xd5, 0x50); err != nil {
			it.Fatal(err)
		}
		if err := c.Close(); err != nil {
			it.Fatal(err)
		}
	})

	t.Run("data", func(it *testing.T) {
		bus := &i2ctest.Playback{Ops: []i2ctest.IO{
			{Addr: 0x3d, W: []byte{0x40, 0x01, 0x02, 0x03}},
			{Addr: 0x3d, W: []byte{0x40, 0x04, 0x05, 0x06}},
			{Addr: 0x3d, W: []byte{0x40, 0x07}},
		}}
		config := DefaultI2CConfig
		config.Addr = 0x3d
		config.ChunkSize = 3
		c := NewI2C(bus, &config)
		if err := c.Data(1, 2, 3, 4, 5, 6, 7); err != nil {
			it.Fatal(err)
		}
		if err := c.Data(); err != nil {
			it.Fatal(err)
		}
		if err := c.Close(); err != nil {
			it.Fatal(err)
		}
	})

	t.Run("probe", func(it *testing.T) {
		bus := &i2ctest.Playback{Ops: []i2ctest.IO{
			{Addr: 0x3c, R: []byte{0x40}},
		}}
		c := NewI2C(bus, nil)
		if err := c.Probe(); err != nil {
			it.Fatal(err)
		}
		if err := c.Close(); err != nil {
			it.Fatal(err)
		}
	})

	t.Run("probe absent", func(it *testing.T) {
		bus := &i2ctest.Playback{DontPanic: true}
		if err := NewI2C(bus, nil).Probe(); err == nil {
			it.Fatal("expected probe to fail")
		}
	})

	t.Run("error", func(it *testing.T) {
		bus := &i2ctest.Playback{
			Ops:       []i2ctest.IO{{Addr: 0x3c, W: []byte{0x80, 0xae}}},
			DontPanic: true,
		}
		if err := NewI2C(bus, nil).Command(0xaf); err == nil {
			it.Fatal("expected unexpected write to fail")
		}
	})
}

func TestI2CConnReset(t *testing.T) {
	t.Run("without pin", func(it *testing.T) {
		c := NewI2C(&i2ctest.Record{}, nil)
		if err := c.Reset(gpio.Low); err != nil {
			it.Fatal(err)
		}
	})

	t.Run("with pin", func(it *testing.T) {
		var (
			pin    = &gpiotest.Pin{N: "RST", L: gpio.High}
			config = DefaultI2CConfig
		)
		config.Reset = pin
		c := NewI2C(&i2ctest.Record{}, &config)
		if err := c.Reset(gpio.Low); err != nil {
			it.Fatal(err)
		}
		if pin.Read() != gpio.Low {
			it.Error("expected reset pin to be low")
		}
	})
}

func TestI2CDefaults(t *testing.T) {
	config := &I2CConfig{Addr: 0x3c}
	NewI2C(&i2ctest.Record{}, config)
	if config.ChunkSize != DefaultI2CConfig.ChunkSize {
		t.Errorf("expected chunk size %d, got %d", DefaultI2CConfig.ChunkSize, config.ChunkSize)
	}
}

// spiPort is an spi.Port that records every transfer.
type spiPort struct {
	conntest.Record
	speed  physic.Frequency
	mode   spi.Mode
	bits   int
	closed bool
}

func (p *spiPort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.speed, p.mode, p.bits = f, mode, bits
	return p, nil
}

func (p *spiPort) LimitSpeed(physic.Frequency) error { return nil }

func (p *spiPort) TxPackets([]spi.Packet) error { return errors.New("not supported") }

func (p *spiPort) Close() error {
	p.closed = true
	return nil
}

func TestSPIConn(t *testing.T) {
	var (
		port  = new(spiPort)
		reset = &gpiotest.Pin{N: "RST"}
		dc    = &gpiotest.Pin{N: "DC"}
	)
	c, err := NewSPI(port, &SPIConfig{Reset: reset, DC: dc, ChunkSize: 3})
	if err != nil {
		t.Fatal(err)
	}
	if port.speed != DefaultSPIConfig.Speed || port.mode != spi.Mode0 || port.bits != 8 {
		t.Errorf("unexpected connection %s mode %d bits %d", port.speed, port.mode, port.bits)
	}

	if err = c.Command(0x81, 0x7f); err != nil {
		t.Fatal(err)
	}
	if dc.L != gpio.Low {
		t.Error("expected D/C low for commands")
	}
	if err = c.Data(1, 2, 3, 4, 5); err != nil {
		t.Fatal(err)
	}
	if dc.L != gpio.High {
		t.Error("expected D/C high for data")
	}

	want := []conntest.IO{
		{W: []byte{0x81, 0x7f}},
		{W: []byte{1, 2, 3}},
		{W: []byte{4, 5}},
	}
	if len(port.Ops) != len(want) {
		t.Fatalf("expected %d transfers, got %d", len(want), len(port.Ops))
	}
	for i, op := range port.Ops {
		if !bytes.Equal(op.W, want[i].W) {
			t.Errorf("transfer %d: expected %#02x, got %#02x", i, want[i].W, op.W)
		}
	}

	if err = c.Reset(gpio.Low); err != nil || reset.L != gpio.Low {
		t.Errorf("expected reset low, got %s (%v)", reset.L, err)
	}
	if err = c.Close(); err != nil || !port.closed {
		t.Errorf("expected port to be closed (%v)", err)
	}
}

func TestSPIPins(t *testing.T) {
	tests := []struct {
		Name   string
		Config SPIConfig
		Err    error
	}{
		{"no reset", SPIConfig{DC: &gpiotest.Pin{N: "DC"}}, ErrResetPin},
		{"invalid reset", SPIConfig{Reset: gpio.INVALID, DC: &gpiotest.Pin{N: "DC"}}, ErrResetPin},
		{"no dc", SPIConfig{Reset: &gpiotest.Pin{N: "RST"}}, ErrDCPin},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			config := test.Config
			if _, err := OpenSPI(&config); !errors.Is(err, test.Err) {
				it.Errorf("OpenSPI: expected %v, got %v", test.Err, err)
			}
			if _, err := NewSPI(new(spiPort), &config); !errors.Is(err, test.Err) {
				it.Errorf("NewSPI: expected %v, got %v", test.Err, err)
			}
		})
	}
}
