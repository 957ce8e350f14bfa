package viewer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/BeatGlow/oled/wave"
)

// ReadCapture reads one channel per line in the text form of wave.Parse.
// Blank lines and lines starting with # are skipped.
func ReadCapture(r io.Reader) ([]wave.Signal, error) {
	var (
		channels []wave.Signal
		scanner  = bufio.NewScanner(r)
		line     int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		s, err := wave.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("viewer: capture line %d: %w", line, err)
		}
		if len(channels) == wave.MaxChannels {
			return nil, fmt.Errorf("viewer: capture line %d: more than %d channels", line, wave.MaxChannels)
		}
		channels = append(channels, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return channels, nil
}
