package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/draw"
	"github.com/BeatGlow/oled/glyph"
	"github.com/BeatGlow/oled/pixel"
	"github.com/BeatGlow/oled/wave"
)

func main() {
	widthFlag := flag.Int("width", oled.DefaultConfig.Width, "Display width")
	heightFlag := flag.Int("height", oled.DefaultConfig.Height, "Display height")
	offsetFlag := flag.Int("column-offset", oled.DefaultConfig.ColumnOffset, "First visible RAM column")
	i2cDeviceFlag := flag.Int("i2c-dev", oled.DefaultI2CConfig.Device, "I²C device number (default: use first available)")
	i2cAddrFlag := flag.Uint("i2c-addr", uint(oled.DefaultI2CConfig.Addr), "I²C device address")
	spiPortFlag := flag.String("spi-port", "", "SPI port name (default: use first available)")
	spiSpeedFlag := flag.Int64("spi-speed", int64(oled.DefaultSPIConfig.Speed/physic.Hertz), "SPI clock in Hz")
	resetPinFlag := flag.String("reset", "GPIO25", "Reset GPIO pin")
	dcPinFlag := flag.String("dc", "GPIO24", "Data/Command GPIO pin (DC)")
	cePinFlag := flag.String("ce", "GPIO8", "Chip enable GPIO pin")
	contrastFlag := flag.Uint("contrast", 0xff, "Contrast level")
	ttfFlag := flag.String("ttf", "", "TrueType font for the banner (default: Go Mono)")
	framesFlag := flag.Int("frames", 0, "Number of frames to draw (default: run until interrupted)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s <i2c|spi>\n", os.Args[0])
		os.Exit(1)
	}

	if _, err := host.Init(); err != nil {
		fatal(err)
	}

	var (
		conn oled.Conn
		err  error
	)
	switch busType := flag.Arg(0); busType {
	case "i2c":
		conn, err = oled.OpenI2C(&oled.I2CConfig{
			Device:  *i2cDeviceFlag,
			Addr:    uint8(*i2cAddrFlag),
			Timeout: oled.DefaultI2CConfig.Timeout,
			Reset:   gpioreg.ByName(*resetPinFlag),
		})
	case "spi":
		conn, err = oled.OpenSPI(&oled.SPIConfig{
			Port:  *spiPortFlag,
			Speed: physic.Frequency(*spiSpeedFlag) * physic.Hertz,
			Reset: gpioreg.ByName(*resetPinFlag),
			DC:    gpioreg.ByName(*dcPinFlag),
			CE:    gpioreg.ByName(*cePinFlag),
		})
	default:
		err = fmt.Errorf("unsupported bus type %q", busType)
	}
	if err != nil {
		fatal(err)
	}
	fmt.Printf("using connection: %s\n", conn)

	output := oled.New(conn, &oled.Config{
		Width:        *widthFlag,
		Height:       *heightFlag,
		ColumnOffset: *offsetFlag,
		PowerOnDelay: oled.DefaultConfig.PowerOnDelay,
	})
	defer output.Close()

	if err = output.Init(); err != nil {
		fatal(err)
	}
	if err = output.SetContrast(uint8(*contrastFlag)); err != nil {
		fatal(err)
	}
	fmt.Printf("using driver: %s\n", output)

	face, err := bannerFace(*ttfFlag)
	if err != nil {
		fatal(err)
	}

	var (
		r      = output.Bounds()
		trace  = wave.MustParse("L4 H4 L8 H8 L16 H16 L32 H32 L4 H4 L8 H8 L16 H16 L32 H32")
		ticker = time.NewTicker(50 * time.Millisecond)
	)
	defer ticker.Stop()

	fmt.Println("hit control-c to stop...")
	for frame := 0; *framesFlag == 0 || frame < *framesFlag; frame++ {
		output.Render(func(c *oled.Canvas) {
			c.Clear()

			// Box around the edge, diagonal pattern inside.
			draw.Rectangle(c, r, pixel.On)
			for y := 1; y < r.Max.Y-1; y++ {
				for x := 1; x < r.Max.X-1; x++ {
					c.SetPixel(x, y, (x+y+frame)%8 == 0)
				}
			}

			banner := image.Rect(4, 4, r.Max.X-4, 22)
			draw.RoundedBox(c, banner, 4, pixel.Off)
			draw.RoundedRectangle(c, banner, 4, pixel.On)
			c.DrawText(8, 18, face, "SH1106", pixel.On)

			c.DrawString(8, 26, fmt.Sprintf("frame %d", frame), pixel.On)
			c.DrawWaveform(8, 40, 12, trace, wave.View{Offset: frame % 64, Zoom: 1}, pixel.On)
		})

		if err = output.Update(); err != nil {
			fatal(err)
		}
		<-ticker.C
	}
}

func bannerFace(name string) (font.Face, error) {
	if name == "" {
		return glyph.TrueType(gomono.TTF, 14)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return glyph.TrueType(b, 14)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
