package oled

// SH1106 commands.
const (
	setLowColumn          = 0x00 // | column & 0x0f
	setHighColumn         = 0x10 // | column >> 4
	setPumpVoltage        = 0x30 // | 0-3, 0x32 is 8.0V
	setStartLine          = 0x40 // | line
	setContrast           = 0x81 // + level
	setDCDC               = 0xAD // + 0x8a (off) or 0x8b (on)
	setSegmentRemap       = 0xA1
	setSegmentNormal      = 0xA0
	setDisplayAllOnResume = 0xA4
	setDisplayAllOn       = 0xA5
	setNormalDisplay      = 0xA6
	setInvertDisplay      = 0xA7
	setMultiplexRatio     = 0xA8 // + ratio
	setDisplayOff         = 0xAE
	setDisplayOn          = 0xAF
	setPageAddr           = 0xB0 // | page
	setComScanInc         = 0xC0
	setComScanDec         = 0xC8
	setDisplayOffset      = 0xD3 // + offset
	setDisplayClockDiv    = 0xD5 // + divider
	setPrecharge          = 0xD9 // + period
	setComPins            = 0xDA // + config
	setVComDeselect       = 0xDB // + level

	multiplex64    = 0x3F
	pumpVoltage8V0 = 0x02
	dcdcOn         = 0x8B
)
