package main

import (
	"log"
	"time"

	"github.com/google/gousb"

	"odinflash/internal/proto"
)

func runReboot(args []string, logger *log.Logger) error {
	fs, device := newFlagSet("reboot")
	timeoutMS := fs.Int("timeout-ms", 3000, "device operation timeout in milliseconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := gousb.NewContext()
	defer ctx.Close()

	dev, timeout, err := resolveDevice(ctx, *device, time.Duration(*timeoutMS)*time.Millisecond)
	if err != nil {
		return err
	}

	h, err := dev.Open(timeout)
	if err != nil {
		return err
	}
	defer h.Release()

	if err := h.Claim(); err != nil {
		return err
	}
	if err := h.Reset(); err != nil {
		return err
	}

	if err := proto.Handshake(h); err != nil {
		return err
	}
	defaultSize, err := proto.BeginSession(h)
	if err != nil {
		return err
	}
	if defaultSize != 0 {
		if err := proto.SetupFilePartSize(h, proto.DefaultFilePartSize); err != nil {
			return err
		}
	}
	if err := proto.EndSession(h); err != nil {
		return err
	}
	if err := proto.Reboot(h); err != nil {
		return err
	}

	logger.Println("reboot requested")
	return nil
}
