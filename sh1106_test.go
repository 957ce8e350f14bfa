package oled

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/BeatGlow/oled/conn"
	"github.com/BeatGlow/oled/emulator"
	"github.com/BeatGlow/oled/pixel"
	"github.com/BeatGlow/oled/wave"
)

// testConfig is DefaultConfig without the power on delay.
func testConfig() *Config {
	config := DefaultConfig
	config.PowerOnDelay = 0
	return &config
}

func newTestDisplay(t *testing.T, config *Config) (*Display, *emulator.Panel, *i2ctest.Record) {
	t.Helper()
	var (
		panel  = emulator.New()
		record = &i2ctest.Record{Bus: panel}
	)
	if config == nil {
		config = testConfig()
	}
	return New(NewI2C(record, nil), config), panel, record
}

func pageOps(page int, data []byte) []i2ctest.IO {
	return []i2ctest.IO{
		{Addr: 0x3c, W: []byte{0x80, 0xb0 | byte(page)}},
		{Addr: 0x3c, W: []byte{0x80, 0x02}},
		{Addr: 0x3c, W: []byte{0x80, 0x10}},
		{Addr: 0x3c, W: append([]byte{0x40}, data...)},
	}
}

func compareOps(t *testing.T, got, want []i2ctest.IO) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d transactions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Addr != want[i].Addr || !bytes.Equal(got[i].W, want[i].W) || len(got[i].R) != len(want[i].R) {
			t.Fatalf("transaction %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestInit(t *testing.T) {
	d, panel, record := newTestDisplay(t, nil)
	d.Fill()

	if err := d.Init(); err != nil {
		t.Fatal(err)
	}
	if !d.IsInitialized() {
		t.Fatal("expected display to be initialized")
	}

	want := []i2ctest.IO{
		{Addr: 0x3c, R: []byte{0x40}}, // probe
		{Addr: 0x3c, W: []byte{0x80, 0xae}},
		{Addr: 0x3c, W: []byte{0x80, 0xa4}},
		{Addr: 0x3c, W: []byte{0x00, 0xd5, 0x50}},
		{Addr: 0x3c, W: []byte{0x00, 0xa8, 0x3f}},
		{Addr: 0x3c, W: []byte{0x00, 0xd3, 0x00}},
		{Addr: 0x3c, W: []byte{0x80, 0x40}},
		{Addr: 0x3c, W: []byte{0x00, 0xad, 0x8b}},
		{Addr: 0x3c, W: []byte{0x00, 0xd9, 0x22}},
		{Addr: 0x3c, W: []byte{0x00, 0xdb, 0x35}},
		{Addr: 0x3c, W: []byte{0x80, 0x32}},
		{Addr: 0x3c, W: []byte{0x00, 0x81, 0xff}},
		{Addr: 0x3c, W: []byte{0x80, 0xa6}},
		{Addr: 0x3c, W: []byte{0x80, 0xa1}},
		{Addr: 0x3c, W: []byte{0x80, 0xc8}},
		{Addr: 0x3c, W: []byte{0x00, 0xda, 0x12}},
	}
	for page := 0; page < 8; page++ {
		want = append(want, pageOps(page, make([]byte, 128))...)
	}
	want = append(want, i2ctest.IO{Addr: 0x3c, W: []byte{0x80, 0xaf}})
	compareOps(t, record.Ops, want)

	s := panel.State()
	if !s.On || !s.SegmentRemap || !s.ComScanRemap || s.Contrast != 0xff {
		t.Errorf("unexpected panel state %+v", s)
	}
	if d.Pixel(0, 0) {
		t.Error("expected bitmap to be cleared by Init")
	}
}

func TestInitAbsent(t *testing.T) {
	d, panel, record := newTestDisplay(t, nil)
	panel.Absent = true

	err := d.Init()
	if !errors.Is(err, ErrNotPresent) {
		t.Fatalf("expected ErrNotPresent, got %v", err)
	}
	if !errors.Is(err, emulator.ErrNACK) {
		t.Errorf("expected bus error to be wrapped, got %v", err)
	}
	if d.IsInitialized() {
		t.Fatal("expected display to be uninitialized")
	}
	if err = d.Update(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if n := panel.Transactions(); n != 1 {
		t.Errorf("expected only the probe transaction, got %d", n)
	}
	if len(record.Ops) != 0 {
		t.Errorf("expected nothing sent, got %d transactions", len(record.Ops))
	}

	t.Run("retry", func(it *testing.T) {
		panel.Absent = false
		if err := d.Init(); err != nil {
			it.Fatal(err)
		}
		if !d.IsInitialized() {
			it.Error("expected display to be initialized")
		}
	})
}

func TestNotInitialized(t *testing.T) {
	d, panel, _ := newTestDisplay(t, nil)

	tests := []struct {
		Name string
		Func func() error
	}{
		{"Update", d.Update},
		{"Refresh", d.Refresh},
		{"SetContrast", func() error { return d.SetContrast(0x10) }},
		{"Invert", func() error { return d.Invert(true) }},
		{"Show", func() error { return d.Show(true) }},
		{"Halt", d.Halt},
		{"Draw", func() error { return d.Draw(d.Bounds(), image.NewUniform(pixel.On), image.Point{}) }},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			if err := test.Func(); !errors.Is(err, ErrNotInitialized) {
				it.Errorf("expected ErrNotInitialized, got %v", err)
			}
		})
	}
	if n := panel.Transactions(); n != 0 {
		t.Errorf("expected no transactions, got %d", n)
	}

	// Drawing works without a panel.
	if w := d.DrawString(0, 0, "ok", pixel.On); w != 12 {
		t.Errorf("expected width 12, got %d", w)
	}
	if !d.Pixel(0, 1) {
		t.Error("expected Draw to change the bitmap")
	}
}

func TestUpdate(t *testing.T) {
	t.Run("delta", func(it *testing.T) {
		d, panel, record := newTestDisplay(it, nil)
		if err := d.Init(); err != nil {
			it.Fatal(err)
		}

		record.Ops = nil
		if err := d.Update(); err != nil {
			it.Fatal(err)
		}
		if len(record.Ops) != 0 {
			it.Fatalf("expected no transactions for an unchanged frame, got %d", len(record.Ops))
		}

		d.SetPixel(3, 9, true)
		if err := d.Update(); err != nil {
			it.Fatal(err)
		}
		data := make([]byte, 128)
		data[3] = 0x02
		compareOps(it, record.Ops, pageOps(1, data))

		if img := panel.Image(); !img.Bit(3, 9) {
			it.Error("expected pixel (3,9) on the panel")
		}
	})

	t.Run("disabled delta", func(it *testing.T) {
		config := testConfig()
		config.DisableDelta = true
		d, _, record := newTestDisplay(it, config)
		if err := d.Init(); err != nil {
			it.Fatal(err)
		}
		record.Ops = nil
		if err := d.Update(); err != nil {
			it.Fatal(err)
		}
		if n := len(record.Ops); n != 8*4 {
			it.Errorf("expected %d transactions, got %d", 8*4, n)
		}
	})

	t.Run("refresh", func(it *testing.T) {
		d, _, record := newTestDisplay(it, nil)
		if err := d.Init(); err != nil {
			it.Fatal(err)
		}
		record.Ops = nil
		if err := d.Refresh(); err != nil {
			it.Fatal(err)
		}
		if n := len(record.Ops); n != 8*4 {
			it.Errorf("expected %d transactions, got %d", 8*4, n)
		}
	})

	t.Run("column offset", func(it *testing.T) {
		config := testConfig()
		config.ColumnOffset = 0x23
		d, _, record := newTestDisplay(it, config)
		if err := d.Init(); err != nil {
			it.Fatal(err)
		}
		var low, high int
		for _, op := range record.Ops {
			switch {
			case bytes.Equal(op.W, []byte{0x80, 0x03}):
				low++
			case bytes.Equal(op.W, []byte{0x80, 0x12}):
				high++
			}
		}
		if low != 8 || high != 8 {
			it.Errorf("expected 8 column low and high commands, got %d and %d", low, high)
		}
	})
}

func TestUpdateChunks(t *testing.T) {
	var (
		panel  = emulator.New()
		record = &i2ctest.Record{Bus: panel}
		i2c    = DefaultI2CConfig
	)
	i2c.ChunkSize = 50
	d := New(NewI2C(record, &i2c), testConfig())
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	d.Fill()
	record.Ops = nil
	if err := d.Update(); err != nil {
		t.Fatal(err)
	}
	if n := len(record.Ops); n != 8*6 {
		t.Fatalf("expected %d transactions, got %d", 8*6, n)
	}
	for page := 0; page < 8; page++ {
		ops := record.Ops[page*6+3 : page*6+6]
		for i, size := range []int{50, 50, 28} {
			if ops[i].W[0] != 0x40 || len(ops[i].W) != size+1 {
				t.Fatalf("page %d chunk %d: expected %d data bytes, got % x", page, i, size, ops[i].W[:2])
			}
		}
	}

	img := panel.Image()
	for i, v := range img.Pix {
		if v != 0xff {
			t.Fatalf("expected filled panel, byte %d is %#02x", i, v)
		}
	}
}

func TestUpdateFailure(t *testing.T) {
	d, panel, record := newTestDisplay(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	d.Fill()
	record.Ops = nil
	// Fail the column low address of page 3.
	panel.FailAfter(3*4 + 2)
	err := d.Update()
	if !errors.Is(err, emulator.ErrFailed) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "page 3") {
		t.Errorf("expected page number in %q", err)
	}
	if n := len(record.Ops); n != 3*4+1 {
		t.Errorf("expected update to stop after %d transactions, got %d", 3*4+1, n)
	}
	if !d.Pixel(0, 0) || !d.Pixel(127, 63) {
		t.Error("expected bitmap to be unaffected by the failure")
	}

	t.Run("retry sends everything", func(it *testing.T) {
		record.Ops = nil
		if err := d.Update(); err != nil {
			it.Fatal(err)
		}
		if n := len(record.Ops); n != 8*4 {
			it.Errorf("expected %d transactions, got %d", 8*4, n)
		}
		var snapshot = pixel.NewBitmap(128, 64)
		d.Snapshot(snapshot)
		if !bytes.Equal(panel.Image().Pix, snapshot.Pix) {
			it.Error("panel differs from bitmap after retry")
		}
	})
}

func TestUpdateTimeout(t *testing.T) {
	var (
		panel = emulator.New()
		i2c   = DefaultI2CConfig
	)
	i2c.Timeout = 10 * time.Millisecond
	d := New(NewI2C(panel, &i2c), testConfig())
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	panel.Delay = 200 * time.Millisecond
	d.SetPixel(0, 0, true)
	start := time.Now()
	err := d.Update()
	if !errors.Is(err, conn.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed >= panel.Delay {
		t.Errorf("expected update to give up before the bus finished, took %s", elapsed)
	}
}

// gatedBus holds one transaction until it is released.
type gatedBus struct {
	*emulator.Panel
	mu      sync.Mutex
	hold    chan struct{}
	entered int
}

// holdNext makes the next transaction wait until the returned channel is closed.
func (b *gatedBus) holdNext() chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hold = make(chan struct{})
	return b.hold
}

func (b *gatedBus) Entered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entered
}

func (b *gatedBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	hold := b.hold
	b.hold = nil
	b.entered++
	b.mu.Unlock()
	if hold != nil {
		<-hold
	}
	return b.Panel.Tx(addr, w, r)
}

func TestUpdateAfterTimeout(t *testing.T) {
	var (
		bus = &gatedBus{Panel: emulator.New()}
		i2c = DefaultI2CConfig
	)
	i2c.Timeout = 100 * time.Millisecond
	d := New(NewI2C(bus, &i2c), testConfig())
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	d.SetPixel(10, 40, true)
	release := bus.holdNext()
	if err := d.Update(); !errors.Is(err, conn.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	t.Run("bus still busy", func(it *testing.T) {
		n := bus.Entered()
		if err := d.Update(); !errors.Is(err, conn.ErrTimeout) {
			it.Fatalf("expected ErrTimeout, got %v", err)
		}
		if m := bus.Entered(); m != n {
			it.Errorf("expected no new transaction while one is on the bus, got %d more", m-n)
		}
	})

	t.Run("retry after release", func(it *testing.T) {
		d.SetPixel(20, 0, true)
		d.SetPixel(127, 63, true)
		// The stale transaction lands while the retry waits for the bus.
		time.AfterFunc(10*time.Millisecond, func() { close(release) })
		if err := d.Update(); err != nil {
			it.Fatal(err)
		}
		var snapshot = pixel.NewBitmap(128, 64)
		d.Snapshot(snapshot)
		if !bytes.Equal(bus.Image().Pix, snapshot.Pix) {
			it.Error("panel differs from bitmap after timeout")
		}
	})

	t.Run("delta after recovery", func(it *testing.T) {
		d.SetPixel(20, 0, false)
		if err := d.Update(); err != nil {
			it.Fatal(err)
		}
		var snapshot = pixel.NewBitmap(128, 64)
		d.Snapshot(snapshot)
		if !bytes.Equal(bus.Image().Pix, snapshot.Pix) {
			it.Error("panel differs from bitmap after delta update")
		}
	})
}

func TestCommands(t *testing.T) {
	panel := emulator.New()
	d := New(NewI2C(panel, nil), testConfig())
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	if err := d.SetContrast(0x42); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(true); err != nil {
		t.Fatal(err)
	}
	if s := panel.State(); s.Contrast != 0x42 || !s.Inverted {
		t.Errorf("expected contrast 0x42 and inverted, got %+v", s)
	}

	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}
	if err := d.Show(false); err != nil {
		t.Fatal(err)
	}
	if s := panel.State(); s.Inverted || s.On {
		t.Errorf("expected normal display switched off, got %+v", s)
	}

	if err := d.Show(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if panel.State().On {
		t.Error("expected Halt to switch the display off")
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if d.IsInitialized() {
		t.Error("expected display to be uninitialized after Close")
	}
	if err := panel.Tx(0x3c, nil, nil); !errors.Is(err, emulator.ErrClosed) {
		t.Errorf("expected bus to be closed, got %v", err)
	}
}

func TestDraw(t *testing.T) {
	d, panel, _ := newTestDisplay(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	r := image.Rect(10, 10, 20, 20)
	if err := d.Draw(r, image.NewUniform(pixel.On), image.Point{}); err != nil {
		t.Fatal(err)
	}
	img := panel.Image()
	for y := 0; y < 64; y++ {
		for x := 0; x < 128; x++ {
			if want := (image.Point{X: x, Y: y}).In(r); img.Bit(x, y) != want {
				t.Fatalf("pixel (%d,%d): expected %t", x, y, want)
			}
		}
	}
}

func TestPanelMatchesBitmap(t *testing.T) {
	d, panel, _ := newTestDisplay(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	s := wave.MustParse("L20 H30 L10 H40 L20")
	d.Render(func(c *Canvas) {
		c.Clear()
		c.DrawChannels([]wave.Signal{s, nil, s, s}, wave.DefaultLayout, wave.View{Offset: 12, Zoom: 2}, pixel.On)
		c.DrawString(0, 0, "Z:2.0x", pixel.On)
	})
	if err := d.Update(); err != nil {
		t.Fatal(err)
	}

	snapshot := pixel.NewBitmap(128, 64)
	d.Snapshot(snapshot)
	if !bytes.Equal(panel.Image().Pix, snapshot.Pix) {
		t.Error("panel RAM differs from bitmap")
	}
	if !bytes.Equal(panel.Frame().Pix, snapshot.Pix) {
		t.Error("panel shows a different image than the bitmap")
	}
}

func TestConcurrentRender(t *testing.T) {
	d, panel, _ := newTestDisplay(t, nil)
	if err := d.Init(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(on bool) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				d.Render(func(c *Canvas) {
					if on {
						c.Fill()
					} else {
						c.Clear()
					}
				})
				if err := d.Update(); err != nil {
					t.Error(err)
					return
				}
			}
		}(i%2 == 0)
	}
	wg.Wait()

	// Every frame is either fully on or fully off, never torn.
	if err := d.Refresh(); err != nil {
		t.Fatal(err)
	}
	img := panel.Image()
	for _, v := range img.Pix {
		if v != img.Pix[0] {
			t.Fatal("torn frame on the panel")
		}
	}
}

func TestString(t *testing.T) {
	d, _, _ := newTestDisplay(t, nil)
	if s := d.String(); !strings.HasPrefix(s, "SH1106 128x64 on I²C bus") {
		t.Errorf("unexpected description %q", s)
	}
}

func TestNewConfig(t *testing.T) {
	t.Run("caller config unchanged", func(it *testing.T) {
		config := Config{ColumnOffset: -1, PowerOnDelay: -time.Second}
		d := New(NewI2C(emulator.New(), nil), &config)
		if config != (Config{ColumnOffset: -1, PowerOnDelay: -time.Second}) {
			it.Errorf("expected config to be left alone, got %+v", config)
		}
		if b := d.Bounds(); b.Dx() != 128 || b.Dy() != 64 {
			it.Errorf("expected default size, got %s", b)
		}
	})

	t.Run("caller bus config unchanged", func(it *testing.T) {
		config := I2CConfig{Addr: 0x3c}
		NewI2C(emulator.New(), &config)
		if config.ChunkSize != 0 {
			it.Errorf("expected chunk size to stay 0, got %d", config.ChunkSize)
		}
	})

	t.Run("height beyond 8 pages", func(it *testing.T) {
		config := testConfig()
		config.Height = 80
		d, panel, _ := newTestDisplay(it, config)
		if b := d.Bounds(); b.Dy() != 64 {
			it.Fatalf("expected height 64, got %d", b.Dy())
		}
		if config.Height != 80 {
			it.Errorf("expected config height to stay 80, got %d", config.Height)
		}
		if err := d.Init(); err != nil {
			it.Fatal(err)
		}
		d.SetPixel(5, 63, true)
		if err := d.Update(); err != nil {
			it.Fatal(err)
		}
		var snapshot = pixel.NewBitmap(128, 64)
		d.Snapshot(snapshot)
		if !bytes.Equal(panel.Image().Pix, snapshot.Pix) {
			it.Error("panel differs from bitmap")
		}
	})

	t.Run("multiplex ratio for shorter panels", func(it *testing.T) {
		config := testConfig()
		config.Height = 32
		d, _, record := newTestDisplay(it, config)
		if err := d.Init(); err != nil {
			it.Fatal(err)
		}
		if len(record.Ops) < 5 || !bytes.Equal(record.Ops[4].W, []byte{0x00, 0xa8, 0x3f}) {
			it.Error("expected multiplex ratio 0x3f in the power on sequence")
		}
	})
}
