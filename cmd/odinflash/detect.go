package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/gousb"

	"odinflash/internal/usb"
)

func runDetect(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	timeoutMS := fs.Int("timeout-ms", 3000, "timeout in milliseconds (not applied to enumeration)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := gousb.NewContext()
	defer ctx.Close()

	devices, err := usb.Detect(ctx, time.Duration(*timeoutMS)*time.Millisecond)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		logger.Println("no download-mode devices attached")
		return nil
	}
	for _, d := range devices {
		bus, addr := d.BusAddress()
		vendor, product := d.IDs()
		fmt.Printf("%d:%d\tvid=%#04x pid=%#04x\n", bus, addr, vendor, product)
	}
	return nil
}
