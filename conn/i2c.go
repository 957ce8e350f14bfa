package conn

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// ErrTimeout is returned when a bus transaction does not complete in time.
var ErrTimeout = errors.New("conn: transaction timed out")

// I2C is a device on an I²C bus.
type I2C struct {
	bus     i2c.Bus
	dev     *i2c.Dev
	timeout time.Duration

	// busy holds a token while a transaction is on the bus, including one
	// that outlived its timeout.
	busy chan struct{}
}

// OpenI2C opens the numbered I²C bus, use -1 for the first available bus.
func OpenI2C(device int, addr uint8) (*I2C, error) {
	var (
		bus i2c.BusCloser
		err error
	)
	if device < 0 {
		bus, err = i2creg.Open("")
	} else {
		bus, err = i2creg.Open(strconv.FormatInt(int64(device), 10))
	}
	if err != nil {
		return nil, err
	}

	return NewI2C(bus, addr), nil
}

// NewI2C uses an already opened bus.
func NewI2C(bus i2c.Bus, addr uint8) *I2C {
	return &I2C{
		bus:  bus,
		dev:  &i2c.Dev{Bus: bus, Addr: uint16(addr)},
		busy: make(chan struct{}, 1),
	}
}

func (c *I2C) String() string {
	return fmt.Sprintf("I²C bus %s address %#02x", c.bus, c.dev.Addr)
}

// Close closes the bus if it can be closed.
func (c *I2C) Close() error {
	if closer, ok := c.bus.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SetTimeout limits the duration of every transaction, 0 disables the limit.
func (c *I2C) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Tx does a write followed by a read in one transaction.
//
// If a timeout is set and the transaction takes longer, ErrTimeout is
// returned. The transaction itself can not be aborted, it finishes in the
// background and no other transaction starts until it has. Waiting for such
// a transaction counts against the timeout of the next one.
func (c *I2C) Tx(w, r []byte) error {
	if c.timeout <= 0 {
		c.busy <- struct{}{}
		defer func() { <-c.busy }()
		return c.dev.Tx(w, r)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case c.busy <- struct{}{}:
	case <-timer.C:
		return ErrTimeout
	}

	done := make(chan error, 1)
	go func() {
		defer func() { <-c.busy }()
		done <- c.dev.Tx(w, r)
	}()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrTimeout
	}
}

func (c *I2C) Read(p []byte) (int, error) {
	if err := c.Tx(nil, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *I2C) Write(p []byte) (int, error) {
	if err := c.Tx(p, nil); err != nil {
		return 0, err
	}
	return len(p), nil
}
