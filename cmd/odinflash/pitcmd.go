package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/gousb"

	"odinflash/internal/pit"
	"odinflash/internal/proto"
)

func runPit(args []string, logger *log.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("odinflash: pit requires a subcommand: print, download")
	}

	switch args[0] {
	case "print":
		return runPitPrint(args[1:], logger)
	case "download":
		return runPitDownload(args[1:], logger)
	default:
		return fmt.Errorf("odinflash: unknown pit subcommand %q", args[0])
	}
}

func runPitPrint(args []string, logger *log.Logger) error {
	fs, device := newFlagSet("pit print")
	file := fs.String("file", "", "print a saved PIT file instead of reading the device")
	timeoutMS := fs.Int("timeout-ms", 3000, "device operation timeout in milliseconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var data []byte
	var err error
	if *file != "" {
		data, err = os.ReadFile(*file)
		if err != nil {
			return err
		}
	} else {
		data, err = downloadPit(*device, time.Duration(*timeoutMS)*time.Millisecond, logger)
		if err != nil {
			return err
		}
	}

	table, err := pit.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	printPit(table)
	return nil
}

func runPitDownload(args []string, logger *log.Logger) error {
	fs, device := newFlagSet("pit download")
	out := fs.String("out", "device.pit", "output path for the downloaded PIT")
	timeoutMS := fs.Int("timeout-ms", 3000, "device operation timeout in milliseconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := downloadPit(*device, time.Duration(*timeoutMS)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return err
	}
	logger.Printf("saved %d bytes to %s", len(data), *out)
	return nil
}

// downloadPit opens a session against the selected device solely to
// retrieve the PIT, then ends the session without uploading anything.
func downloadPit(selector string, timeout time.Duration, logger *log.Logger) ([]byte, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	dev, timeout, err := resolveDevice(ctx, selector, timeout)
	if err != nil {
		return nil, err
	}

	h, err := dev.Open(timeout)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	if err := h.Claim(); err != nil {
		return nil, err
	}
	if err := h.Reset(); err != nil {
		return nil, err
	}

	if err := proto.Handshake(h); err != nil {
		return nil, err
	}
	defaultSize, err := proto.BeginSession(h)
	if err != nil {
		return nil, err
	}
	if defaultSize != 0 {
		if err := proto.SetupFilePartSize(h, proto.DefaultFilePartSize); err != nil {
			return nil, err
		}
	}

	data, err := proto.ReceivePit(h)
	if err != nil {
		return nil, err
	}

	if err := proto.EndSession(h); err != nil {
		logger.Printf("warning: end_session after pit download: %v", err)
	}
	return data, nil
}

func printPit(table *pit.Pit) {
	fmt.Printf("entries: %d\n", len(table.Entries))
	for _, e := range table.Entries {
		fmt.Printf("%-20s flash=%-20s type=%-4s device=%-8s size=%d blocks\n",
			e.PartitionName.String(), e.FlashFilename.String(), e.BinaryType, e.DeviceType, e.BlockCount)
	}
}
