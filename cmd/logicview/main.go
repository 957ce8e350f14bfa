package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/framebuffer"
	"github.com/BeatGlow/oled/input"
	"github.com/BeatGlow/oled/pixel"
	"github.com/BeatGlow/oled/viewer"
)

func main() {
	i2cDeviceFlag := flag.Int("i2c-dev", oled.DefaultI2CConfig.Device, "I²C device number (default: use first available)")
	i2cAddrFlag := flag.Uint("i2c-addr", uint(oled.DefaultI2CConfig.Addr), "I²C device address")
	encAFlag := flag.String("enc-a", "GPIO17", "Encoder A GPIO pin")
	encBFlag := flag.String("enc-b", "GPIO27", "Encoder B GPIO pin")
	encSwFlag := flag.String("enc-sw", "GPIO22", "Encoder push button GPIO pin")
	testPinFlag := flag.String("test-pin", "", "GPIO pin that selects test mode when held low at startup")
	testFlag := flag.Bool("test", false, "Show the encoder position instead of traces")
	captureFlag := flag.String("capture", "", "Capture file with one channel per line (default: demo traces)")
	fbFlag := flag.String("fb", "", "Mirror the display on a framebuffer device, e.g. /dev/fb0")
	intervalFlag := flag.Duration("interval", viewer.DefaultInterval, "Input polling interval")
	retryFlag := flag.Duration("retry", time.Second, "Delay between attempts to find the display")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := host.Init(); err != nil {
		log.Fatalln("host init failed:", err)
	}

	config := viewer.DefaultConfig
	if *captureFlag != "" {
		f, err := os.Open(*captureFlag)
		if err != nil {
			log.Fatalln(err)
		}
		config.Channels, err = viewer.ReadCapture(f)
		_ = f.Close()
		if err != nil {
			log.Fatalln(err)
		}
	}
	config.Test = *testFlag || testPinLow(*testPinFlag)
	if config.Test {
		log.Println("test mode")
	}

	conn, err := oled.OpenI2C(&oled.I2CConfig{
		Device:  *i2cDeviceFlag,
		Addr:    uint8(*i2cAddrFlag),
		Timeout: oled.DefaultI2CConfig.Timeout,
	})
	if err != nil {
		log.Fatalln(err)
	}
	display := oled.New(conn, nil)
	defer display.Close()

	if err = initDisplay(ctx, display, *retryFlag); err != nil {
		log.Fatalln(err)
	}
	log.Println("using driver:", display)

	encoder, err := input.NewEncoder(pin(*encAFlag), pin(*encBFlag), pin(*encSwFlag))
	if err != nil {
		log.Fatalln(err)
	}
	defer encoder.Close()
	log.Println("using input:", encoder)

	var screen viewer.Display = display
	if *fbFlag != "" {
		fb, err := framebuffer.Open(*fbFlag)
		if err != nil {
			log.Fatalln(err)
		}
		defer fb.Close()
		log.Println("mirroring to", fb)
		screen = &mirrored{Display: display, fb: fb, frame: pixel.NewBitmap(display.Bounds().Dx(), display.Bounds().Dy())}
	}

	if err = viewer.New(screen, encoder, &config).Run(ctx, *intervalFlag); err != nil && !errors.Is(err, context.Canceled) {
		log.Println(err)
	}
}

// initDisplay waits for the display to show up on the bus.
func initDisplay(ctx context.Context, display *oled.Display, retry time.Duration) error {
	for {
		err := display.Init()
		if err == nil || !errors.Is(err, oled.ErrNotPresent) {
			return err
		}
		log.Printf("%v, retrying in %s", err, retry)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

func pin(name string) gpio.PinIO {
	p := gpioreg.ByName(name)
	if p == nil {
		log.Fatalln(fmt.Errorf("no GPIO pin %q", name))
	}
	return p
}

func testPinLow(name string) bool {
	if name == "" {
		return false
	}
	p := pin(name)
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		log.Fatalln(err)
	}
	return p.Read() == gpio.Low
}

// mirrored copies every frame sent to the display onto a framebuffer.
type mirrored struct {
	*oled.Display
	fb    *framebuffer.Mirror
	frame *pixel.Bitmap
}

func (m *mirrored) Update() error {
	if err := m.Display.Update(); err != nil {
		return err
	}
	m.Snapshot(m.frame)
	m.fb.Blit(m.frame)
	return nil
}

func (m *mirrored) Show(show bool) error {
	if err := m.Display.Show(show); err != nil {
		return err
	}
	if !show {
		m.frame.Clear()
		m.fb.Blit(m.frame)
	}
	return nil
}
