package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/oled"
	"github.com/BeatGlow/oled/pixel"
)

func main() {
	busFlag := flag.String("bus", "", "I²C bus name or number (default: first available)")
	addrFlag := flag.Uint("addr", uint(oled.DefaultI2CConfig.Addr), "I²C device address")
	scanFlag := flag.Bool("scan", false, "Probe all 7-bit addresses")
	initFlag := flag.Bool("init", false, "Initialize the display after a successful probe")
	flag.Parse()

	if _, err := host.Init(); err != nil {
		log.Fatalln("host init failed:", err)
	}

	bus, err := i2creg.Open(*busFlag)
	if err != nil {
		log.Fatalln("open failed:", err)
	}
	defer bus.Close()
	fmt.Println("connected using", bus)

	if *scanFlag {
		scan(bus)
		return
	}

	config := oled.DefaultI2CConfig
	config.Addr = uint8(*addrFlag)

	if !*initFlag {
		if err = oled.NewI2C(bus, &config).Probe(); err != nil {
			fmt.Printf("no device at %#02x: %v\n", config.Addr, err)
			os.Exit(1)
		}
		fmt.Printf("device found at %#02x\n", config.Addr)
		return
	}

	display := oled.New(oled.NewI2C(bus, &config), nil)
	if err = display.Init(); errors.Is(err, oled.ErrNotPresent) {
		fmt.Printf("no device at %#02x: %v\n", config.Addr, err)
		os.Exit(1)
	} else if err != nil {
		log.Fatalln("init failed:", err)
	}
	display.DrawString(0, 0, "probe ok", pixel.On)
	if err = display.Update(); err != nil {
		log.Fatalln("update failed:", err)
	}
	fmt.Printf("%s initialized\n", display)
}

func scan(bus i2c.Bus) {
	var found int
	for addr := uint16(0x03); addr <= 0x77; addr++ {
		var status [1]byte
		if err := bus.Tx(addr, nil, status[:]); err != nil {
			continue
		}
		fmt.Printf("%#02x: status %#02x\n", addr, status[0])
		found++
	}
	fmt.Printf("%d device(s) found\n", found)
}
