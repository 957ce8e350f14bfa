// Command logicview-term runs the logic viewer against an emulated panel and
// draws the panel in the terminal, two pixel rows per text line.
//
// Keys: left/right or h/l turn the encoder, space taps the button, z gives a
// long press and q quits.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/emulator"
	"github.com/BeatGlow/oled/input"
	"github.com/BeatGlow/oled/pixel"
	"github.com/BeatGlow/oled/viewer"
)

func main() {
	fpsFlag := flag.Int("fps", 20, "Terminal refresh rate")
	testFlag := flag.Bool("test", false, "Show the encoder position instead of traces")
	logFlag := flag.String("log", "", "Log file (default: discard)")
	flag.Parse()

	logger := log.New(io.Discard, "", log.LstdFlags)
	if *logFlag != "" {
		f, err := os.Create(*logFlag)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		log.Fatalln("stdin is not a terminal")
	}

	panel := emulator.New()
	display := oled.New(oled.NewI2C(panel, nil), nil)
	if err := display.Init(); err != nil {
		log.Fatalln(err)
	}

	var (
		keys   = new(input.Keys)
		config = viewer.DefaultConfig
	)
	config.Test = *testFlag
	config.Logger = logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	state, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatalln(err)
	}
	defer func() { _ = term.Restore(fd, state) }()

	go func() {
		if err := viewer.New(display, keys, &config).Run(ctx, viewer.DefaultInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Println(err)
		}
	}()
	go readKeys(os.Stdin, keys, cancel)

	out := bufio.NewWriter(os.Stdout)
	out.WriteString("\x1b[2J\x1b[?25l")
	defer func() {
		out.WriteString("\x1b[?25h\r\n")
		out.Flush()
	}()

	ticker := time.NewTicker(time.Second / time.Duration(max(*fpsFlag, 1)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out.WriteString("\x1b[H")
			out.WriteString(render(panel.Frame()))
			out.WriteString("\x1b[0m\r\n←/→ turn  space tap  z long press  q quit\r\n")
			if err := out.Flush(); err != nil {
				return
			}
		}
	}
}

// readKeys feeds terminal key presses to keys until q or the end of input.
func readKeys(r io.Reader, keys *input.Keys, quit func()) {
	defer quit()
	var (
		in  = bufio.NewReader(r)
		seq []byte
	)
	for {
		b, err := in.ReadByte()
		if err != nil {
			return
		}
		if len(seq) > 0 || b == 0x1b {
			seq = append(seq, b)
			switch string(seq) {
			case "\x1b", "\x1b[":
				continue
			case "\x1b[C":
				keys.Rotate(1)
			case "\x1b[D":
				keys.Rotate(-1)
			}
			seq = seq[:0]
			continue
		}
		switch b {
		case 'l', '+':
			keys.Rotate(1)
		case 'h', '-':
			keys.Rotate(-1)
		case ' ', '\r':
			keys.Tap()
		case 'z':
			keys.LongTap()
		case 'q', 0x03:
			return
		}
	}
}

// render draws the frame with half block characters.
func render(frame *pixel.Bitmap) string {
	var (
		s    strings.Builder
		w, h = frame.Bounds().Dx(), frame.Bounds().Dy()
	)
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			top, bottom := frame.Bit(x, y), y+1 < h && frame.Bit(x, y+1)
			switch {
			case top && bottom:
				s.WriteRune('█')
			case top:
				s.WriteRune('▀')
			case bottom:
				s.WriteRune('▄')
			default:
				s.WriteByte(' ')
			}
		}
		s.WriteString("\r\n")
	}
	return s.String()
}
