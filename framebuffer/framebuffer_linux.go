package framebuffer

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// From <linux/fb.h>
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

func ioctl(fd, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg)); errno != 0 {
		return fmt.Errorf("framebuffer: ioctl %#04x: %w", req, errno)
	}
	return nil
}

// Open maps a Linux framebuffer device by name, typically /dev/fb[0..x]. The
// screen is cleared to black.
func Open(name string) (*Mirror, error) {
	f, err := os.OpenFile(name, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, err
	}

	var (
		fd         = f.Fd()
		info       linuxFrameBufferInfo
		screenInfo linuxVarScreenInfo
	)
	if err = ioctl(fd, fbioGetFScreenInfo, unsafe.Pointer(&info)); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err = ioctl(fd, fbioGetVScreenInfo, unsafe.Pointer(&screenInfo)); err != nil {
		_ = f.Close()
		return nil, err
	}
	format, err := linuxParseFormat(&screenInfo)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	pix, err := unix.Mmap(int(fd), 0, int(info.SmemLen), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	var (
		stride = int(info.LineLength)
		w, h   = int(screenInfo.Xres), int(screenInfo.Yres)
		start  = int(screenInfo.Yoffset)*stride + int(screenInfo.Xoffset)*format.BytesPerPixel()
	)
	if start+h*stride > len(pix) {
		_ = unix.Munmap(pix)
		_ = f.Close()
		return nil, fmt.Errorf("framebuffer: %s: visible area exceeds mapped memory", name)
	}

	m := &Mirror{
		Surface: &Surface{
			Pix:    pix[start:],
			Stride: stride,
			Rect:   image.Rect(0, 0, w, h),
			Format: format,
		},
		name: name,
		close: func() error {
			if err := unix.Munmap(pix); err != nil {
				return err
			}
			return f.Close()
		},
	}
	m.Fill(color.Black)
	return m, nil
}

type linuxFrameBufferInfo struct {
	ID         [16]byte  // Identification string eg "TT Builtin"
	SmemStart  uintptr   // Start of frame buffer mem
	SmemLen    uint32    // Length of frame buffer mem
	Type       uint32    // FB_TYPE_
	TypeAux    uint32    // Interleave for interleaved Planes
	Visual     uint32    // FB_VISUAL_
	Xpanstep   uint16    // Zero if no hardware panning
	Ypanstep   uint16    // Zero if no hardware panning
	Ywrapstep  uint16    // Zero if no hardware ywrap
	LineLength uint32    // Length of a line in bytes
	MmioStart  uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen    uint32    // Length of Memory Mapped I/O
	Accel      uint32    // Type of acceleration available
	Reserved   [3]uint16 // Reserved for future compatibility
}

// linuxBitField for the color
type linuxBitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

// linuxVarScreenInfo contains device independent changeable information about a frame buffer device and a specific video mode.
type linuxVarScreenInfo struct {
	Xres                    uint32
	Yres                    uint32
	XresVirtual             uint32
	YresVirtual             uint32
	Xoffset                 uint32
	Yoffset                 uint32
	BitsPerPixel            uint32
	Grayscale               uint32
	Red, Green, Blue, Alpha linuxBitField
	Nonstd                  uint32
	Activate                uint32
	Height                  uint32
	Width                   uint32
	AccelFlags              uint32
	Pixclock                uint32
	LeftMargin              uint32
	RightMargin             uint32
	UpperMargin             uint32
	LowerMargin             uint32
	HsyncLen                uint32
	VsyncLen                uint32
	Sync                    uint32
	Vmode                   uint32
	Rotate                  uint32
	Colorspace              uint32
	Reserved                [4]uint32
}

func linuxParseFormat(info *linuxVarScreenInfo) (Format, error) {
	switch info.BitsPerPixel {
	case 16:
		switch {
		case info.Red.Offset == 11 && info.Green.Offset == 5 && info.Blue.Offset == 0:
			return RGB565, nil
		case info.Red.Offset == 0 && info.Green.Offset == 5 && info.Blue.Offset == 11:
			return BGR565, nil
		}

	case 32:
		switch {
		case info.Red.Offset == 16 && info.Green.Offset == 8 && info.Blue.Offset == 0:
			return XRGB8888, nil
		case info.Red.Offset == 0 && info.Green.Offset == 8 && info.Blue.Offset == 16:
			return XBGR8888, nil
		}
	}
	return 0, fmt.Errorf("%w: %d bpp red@%d green@%d blue@%d", ErrFormat,
		info.BitsPerPixel, info.Red.Offset, info.Green.Offset, info.Blue.Offset)
}
