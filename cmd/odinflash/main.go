// Command odinflash drives the Odin/LOKE download-mode protocol
// against an attached Samsung device: detecting it, reading its PIT,
// flashing partition images, and rebooting it.
package main

import (
	"flag"
	"fmt"
	"os"

	"odinflash/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	id, logger := session.New()
	_ = id

	var err error
	switch os.Args[1] {
	case "detect":
		err = runDetect(os.Args[2:], logger)
	case "pit":
		err = runPit(os.Args[2:], logger)
	case "flash":
		err = runFlash(os.Args[2:], logger)
	case "reboot":
		err = runReboot(os.Args[2:], logger)
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "odinflash: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Printf("error: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: odinflash <command> [flags]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  detect              list attached download-mode devices")
	fmt.Fprintln(os.Stderr, "  pit print           print the device's PIT")
	fmt.Fprintln(os.Stderr, "  pit download        save the device's PIT to a file")
	fmt.Fprintln(os.Stderr, "  flash               flash partition images or a tar archive")
	fmt.Fprintln(os.Stderr, "  reboot              reboot the device out of download mode")
}

// newFlagSet builds a flag.FlagSet with the --device selector common
// to every subcommand that opens a handle.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	device := fs.String("device", "", "device profile name, or BUS:ADDRESS; default: the only attached device")
	return fs, device
}
