package oled

import (
	"errors"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/BeatGlow/oled/conn"
)

// Conn errors.
var (
	ErrResetPin = errors.New("oled: reset GPIO pin is invalid")
	ErrDCPin    = errors.New("oled: data/command (DC) GPIO pin is invalid")
)

// Conn is the connection interface for communicating with hardware.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Reset sets the reset pin to the provided level.
	Reset(gpio.Level) error

	// Probe checks if the device responds.
	Probe() error

	// Command sends a command byte with optional arguments.
	Command(byte, ...byte) error

	// Data sends data bytes.
	Data(...byte) error
}

type SPI interface {
	Conn

	// SetDataLow changes the data/command direction behaviour.
	SetDataLow(bool)
}

// I²C control bytes, sent before the payload of every transaction.
const (
	i2cCommandStream = 0x00 // all following bytes are commands
	i2cSingleCommand = 0x80 // one command byte follows
	i2cDataStream    = 0x40 // all following bytes are display data
)

// I2CConfig describes the I²C bus configuration.
type I2CConfig struct {
	// Device is the I²C device, use -1 to use the first available device.
	Device int

	// Addr is the I²C address.
	Addr uint8

	// ChunkSize is the maximum number of data bytes per transaction.
	ChunkSize int

	// Timeout limits the duration of a single transaction, 0 disables it.
	Timeout time.Duration

	// Reset pin.
	Reset gpio.PinOut
}

var DefaultI2CConfig = I2CConfig{
	Device:    -1,
	Addr:      0x3c,
	ChunkSize: 128,
	Timeout:   500 * time.Millisecond,
}

type i2cConn struct {
	*conn.I2C
	reset     gpio.PinOut
	chunkSize int
}

// OpenI2C opens the I²C bus described by config, nil selects the defaults.
func OpenI2C(config *I2CConfig) (Conn, error) {
	config = i2cDefaults(config)

	c, err := conn.OpenI2C(config.Device, config.Addr)
	if err != nil {
		return nil, err
	}

	return newI2C(c, config), nil
}

// NewI2C talks to the display on an already opened bus. Device in config is
// ignored.
func NewI2C(bus i2c.Bus, config *I2CConfig) Conn {
	config = i2cDefaults(config)
	return newI2C(conn.NewI2C(bus, config.Addr), config)
}

// i2cDefaults returns a copy of config with unset values filled in.
func i2cDefaults(config *I2CConfig) *I2CConfig {
	c := DefaultI2CConfig
	if config != nil {
		c = *config
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultI2CConfig.ChunkSize
	}
	return &c
}

func newI2C(c *conn.I2C, config *I2CConfig) *i2cConn {
	c.SetTimeout(config.Timeout)
	return &i2cConn{
		I2C:       c,
		reset:     config.Reset,
		chunkSize: config.ChunkSize,
	}
}

// Probe reads one byte from the device, which fails if nothing acknowledges
// the address.
func (c *i2cConn) Probe() error {
	var status [1]byte
	return c.I2C.Tx(nil, status[:])
}

func (c *i2cConn) Command(cmnd byte, args ...byte) (err error) {
	if len(args) == 0 {
		_, err = c.I2C.Write([]byte{i2cSingleCommand, cmnd})
		return
	}
	_, err = c.I2C.Write(append([]byte{i2cCommandStream, cmnd}, args...))
	return
}

// Data sends data in chunks of at most chunkSize bytes, each chunk in its own
// transaction with its own control byte.
func (c *i2cConn) Data(data ...byte) (err error) {
	buffer := make([]byte, 0, c.chunkSize+1)
	for len(data) > 0 {
		n := len(data)
		if n > c.chunkSize {
			n = c.chunkSize
		}
		buffer = append(append(buffer[:0], i2cDataStream), data[:n]...)
		if _, err = c.I2C.Write(buffer); err != nil {
			return
		}
		data = data[n:]
	}
	return
}

func (c *i2cConn) Reset(level gpio.Level) error {
	if c.reset == nil {
		return nil
	}
	return c.reset.Out(level)
}

// SPIConfig describes the SPI bus configuration. Reset and DC are required.
type SPIConfig struct {
	// Port is the SPI port name as known to spireg, empty selects the first.
	Port string

	// Mode is the SPI clock mode.
	Mode spi.Mode

	// Speed is the SPI clock frequency.
	Speed physic.Frequency

	// DataLow selects a low D/C line for data, the SH1106 wants it high.
	DataLow bool

	// ChunkSize is the maximum number of data bytes per transfer.
	ChunkSize int

	Reset gpio.PinOut
	DC    gpio.PinOut

	// CE is an optional chip enable pin, for panels not wired to a hardware
	// chip select.
	CE gpio.PinOut
}

// DefaultSPIConfig are the default configuration values.
var DefaultSPIConfig = SPIConfig{
	Mode:      spi.Mode0,
	Speed:     8 * physic.MegaHertz,
	ChunkSize: 4096,
}

type spiConn struct {
	port      spi.Port
	bus       spi.Conn
	reset     gpio.PinOut
	dc        gpio.PinOut
	dcLevel   gpio.Level
	dcValid   bool
	cs        gpio.PinOut
	dataLow   bool
	chunkSize int
}

// OpenSPI opens the SPI port described by config.
func OpenSPI(config *SPIConfig) (Conn, error) {
	config = spiDefaults(config)
	if err := checkSPIPins(config); err != nil {
		return nil, err
	}

	port, err := spireg.Open(config.Port)
	if err != nil {
		return nil, err
	}

	c, err := NewSPI(port, config)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return c, nil
}

// NewSPI talks to the display on an already opened port. Port in config is
// ignored. Closing the connection closes the port if it is an spi.PortCloser.
func NewSPI(port spi.Port, config *SPIConfig) (Conn, error) {
	config = spiDefaults(config)
	if err := checkSPIPins(config); err != nil {
		return nil, err
	}

	bus, err := port.Connect(config.Speed, config.Mode, 8)
	if err != nil {
		return nil, fmt.Errorf("oled: SPI connect at %s: %w", config.Speed, err)
	}

	return &spiConn{
		port:      port,
		bus:       bus,
		chunkSize: config.ChunkSize,
		dataLow:   config.DataLow,
		reset:     config.Reset,
		dc:        config.DC,
		cs:        config.CE,
	}, nil
}

// spiDefaults returns a copy of config with unset values filled in.
func spiDefaults(config *SPIConfig) *SPIConfig {
	c := DefaultSPIConfig
	if config != nil {
		c = *config
	}
	if c.Speed == 0 {
		c.Speed = DefaultSPIConfig.Speed
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultSPIConfig.ChunkSize
	}
	return &c
}

func checkSPIPins(config *SPIConfig) error {
	if config.Reset == nil || config.Reset == gpio.INVALID {
		return ErrResetPin
	}
	if config.DC == nil || config.DC == gpio.INVALID {
		return ErrDCPin
	}
	return nil
}

func (c *spiConn) String() string {
	return fmt.Sprintf("SPI port %s", c.bus)
}

func (c *spiConn) Close() error {
	if closer, ok := c.port.(spi.PortCloser); ok {
		return closer.Close()
	}
	return nil
}

func (c *spiConn) Reset(level gpio.Level) error {
	return c.reset.Out(level)
}

// Probe always succeeds, SPI displays can not be read from.
func (c *spiConn) Probe() error {
	return nil
}

func (c *spiConn) updateDC(level gpio.Level) error {
	if c.dcValid && c.dcLevel == level {
		return nil
	}
	if err := c.dc.Out(level); err != nil {
		return err
	}
	c.dcLevel, c.dcValid = level, true
	return nil
}

func (c *spiConn) updateCS(level gpio.Level) error {
	if c.cs == nil {
		return nil
	}
	return c.cs.Out(level)
}

func (c *spiConn) Command(cmnd byte, args ...byte) (err error) {
	if err = c.updateDC(gpio.Level(c.dataLow)); err != nil {
		return
	}
	if err = c.updateCS(gpio.Low); err != nil {
		return
	}
	// SH1106 command arguments are clocked in with D/C in command mode.
	if err = c.bus.Tx(append([]byte{cmnd}, args...), nil); err != nil {
		return
	}
	return c.updateCS(gpio.High)
}

func (c *spiConn) Data(data ...byte) (err error) {
	if len(data) == 0 {
		return
	}
	if err = c.updateDC(gpio.Level(!c.dataLow)); err != nil {
		return
	}
	if err = c.updateCS(gpio.Low); err != nil {
		return
	}
	if debug && len(data) > c.chunkSize {
		log.Printf("oled: write %d bytes of data in %d chunks", len(data), (len(data)+c.chunkSize-1)/c.chunkSize)
	}
	for len(data) > 0 {
		n := min(len(data), c.chunkSize)
		if err = c.bus.Tx(data[:n], nil); err != nil {
			return
		}
		data = data[n:]
	}
	return c.updateCS(gpio.High)
}

func (c *spiConn) SetDataLow(v bool) {
	c.dataLow = v
	c.dcValid = false
}

var (
	_ Conn = (*i2cConn)(nil)
	_ SPI  = (*spiConn)(nil)
)
