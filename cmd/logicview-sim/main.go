// Command logicview-sim runs the logic viewer against an emulated panel in a
// desktop window.
//
// The arrow keys turn the encoder, space holds the button and Z gives a long
// press. C copies the panel to the clipboard as a PNG image.
package main

import (
	"bytes"
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/emulator"
	"github.com/BeatGlow/oled/input"
	"github.com/BeatGlow/oled/pixel"
	"github.com/BeatGlow/oled/viewer"
)

// Panel colors of a white OLED.
var (
	lit  = color.RGBA{R: 0xe8, G: 0xf4, B: 0xff, A: 0xff}
	dark = color.RGBA{R: 0x08, G: 0x08, B: 0x10, A: 0xff}
)

func main() {
	scaleFlag := flag.Int("scale", 4, "Window scale")
	captureFlag := flag.String("capture", "", "Capture file with one channel per line (default: demo traces)")
	testFlag := flag.Bool("test", false, "Show the encoder position instead of traces")
	flag.Parse()

	config := viewer.DefaultConfig
	config.Test = *testFlag
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

	panel := emulator.New()
	display := oled.New(oled.NewI2C(panel, nil), nil)
	if err := display.Init(); err != nil {
		log.Fatalln(err)
	}
	log.Println("using driver:", display)

	g := &game{
		panel: panel,
		keys:  new(input.Keys),
		img:   image.NewRGBA(image.Rect(0, 0, emulator.Width, emulator.Height)),
	}
	g.viewer = viewer.New(display, g.keys, &config)

	if err := clipboard.Init(); err != nil {
		log.Println("clipboard not available:", err)
	} else {
		g.clipboardOK = true
	}

	ebiten.SetWindowTitle(config.Title)
	ebiten.SetWindowSize(emulator.Width**scaleFlag, emulator.Height**scaleFlag)
	ebiten.SetTPS(int(time.Second / viewer.DefaultInterval))
	if err := ebiten.RunGame(g); err != nil {
		log.Fatalln(err)
	}
}

type game struct {
	panel       *emulator.Panel
	keys        *input.Keys
	viewer      *viewer.Viewer
	img         *image.RGBA
	screen      *ebiten.Image
	clipboardOK bool
}

func (g *game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowRight), inpututil.IsKeyJustPressed(ebiten.KeyL):
		g.keys.Rotate(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft), inpututil.IsKeyJustPressed(ebiten.KeyH):
		g.keys.Rotate(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.keys.Hold()
	} else if inpututil.IsKeyJustReleased(ebiten.KeySpace) {
		g.keys.Release()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyZ) {
		g.keys.LongTap()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copyFrame()
	}

	// Update errors are logged by the viewer and retried on the next step.
	_ = g.viewer.Step()
	return nil
}

func (g *game) copyFrame() {
	if !g.clipboardOK {
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, g.rgba(g.panel.Frame())); err != nil {
		log.Println("encode frame:", err)
		return
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	log.Printf("copied %d byte PNG to the clipboard", buf.Len())
}

func (g *game) rgba(frame *pixel.Bitmap) *image.RGBA {
	for y := 0; y < emulator.Height; y++ {
		for x := 0; x < emulator.Width; x++ {
			c := dark
			if frame.Bit(x, y) {
				c = lit
			}
			g.img.SetRGBA(x, y, c)
		}
	}
	return g.img
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.screen == nil {
		g.screen = ebiten.NewImage(emulator.Width, emulator.Height)
	}
	g.screen.WritePixels(g.rgba(g.panel.Frame()).Pix)
	screen.DrawImage(g.screen, nil)
}

func (g *game) Layout(_, _ int) (int, int) {
	return emulator.Width, emulator.Height
}
