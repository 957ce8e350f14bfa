package wave

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxRunLength is the longest run a single Run can hold.
const MaxRunLength = 0x7f

const levelBit = 0x80

// ErrSyntax is returned by Parse for malformed input.
var ErrSyntax = errors.New("wave: invalid signal syntax")

// Run is one span of constant logic level. Bit 7 holds the level, bits 0-6
// hold the length in time units.
type Run uint8

// NewRun encodes a run, length is truncated to MaxRunLength.
func NewRun(high bool, length int) Run {
	if length < 0 {
		length = 0
	} else if length > MaxRunLength {
		length = MaxRunLength
	}
	r := Run(length)
	if high {
		r |= levelBit
	}
	return r
}

// High reports if the run is at the high logic level.
func (r Run) High() bool {
	return r&levelBit != 0
}

// Len is the run length in time units.
func (r Run) Len() int {
	return int(r & MaxRunLength)
}

func (r Run) String() string {
	if r.High() {
		return "H" + strconv.Itoa(r.Len())
	}
	return "L" + strconv.Itoa(r.Len())
}

// Signal is an ordered sequence of runs for one channel.
type Signal []Run

// Decode interprets raw bytes as runs.
func Decode(b []byte) Signal {
	if len(b) == 0 {
		return nil
	}
	s := make(Signal, len(b))
	for i, v := range b {
		s[i] = Run(v)
	}
	return s
}

// Bytes returns the raw encoding of s.
func (s Signal) Bytes() []byte {
	b := make([]byte, len(s))
	for i, r := range s {
		b[i] = byte(r)
	}
	return b
}

// Len is the total length of all runs in time units.
func (s Signal) Len() int {
	var n int
	for _, r := range s {
		n += r.Len()
	}
	return n
}

func (s Signal) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ")
}

// Parse reads a signal from its text form: runs separated by white space or
// commas, each either a level letter followed by a decimal length ("L20",
// "h7") or a raw encoded byte in hex ("0x8a"). Lengths above MaxRunLength are
// split into consecutive runs of the same level.
func Parse(text string) (Signal, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	var s Signal
	for _, field := range fields {
		if strings.HasPrefix(field, "0x") || strings.HasPrefix(field, "0X") {
			v, err := strconv.ParseUint(field[2:], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrSyntax, field)
			}
			s = append(s, Run(v))
			continue
		}

		var high bool
		switch field[0] {
		case 'H', 'h':
			high = true
		case 'L', 'l':
		default:
			return nil, fmt.Errorf("%w: %q", ErrSyntax, field)
		}
		n, err := strconv.Atoi(field[1:])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrSyntax, field)
		}
		for {
			chunk := n
			if chunk > MaxRunLength {
				chunk = MaxRunLength
			}
			s = append(s, NewRun(high, chunk))
			if n -= chunk; n == 0 {
				break
			}
		}
	}
	return s, nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(text string) Signal {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// Longest returns the largest Len of all signals.
func Longest(signals []Signal) int {
	var n int
	for _, s := range signals {
		if l := s.Len(); l > n {
			n = l
		}
	}
	return n
}
