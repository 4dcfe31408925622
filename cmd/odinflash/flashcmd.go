package main

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/google/gousb"

	"odinflash/internal/config"
	"odinflash/internal/flash"
	"odinflash/internal/pit"
	"odinflash/internal/proto"
	"odinflash/internal/progress"
)

// partitionFlag collects repeated "-partition NAME=FILE" pairs in the
// order they appear on the command line.
type partitionFlag struct{ args *[]flash.FileArgument }

func (p partitionFlag) String() string { return "" }

func (p partitionFlag) Set(value string) error {
	parts := splitOnce(value, '=')
	if parts[1] == "" {
		return fmt.Errorf("-partition wants NAME=FILE, got %q", value)
	}
	*p.args = append(*p.args, flash.PartitionFile{Name: parts[0], Path: parts[1]})
	return nil
}

// tarFlag collects repeated "-tar FILE" entries in CLI order.
type tarFlag struct{ args *[]flash.FileArgument }

func (t tarFlag) String() string { return "" }

func (t tarFlag) Set(value string) error {
	*t.args = append(*t.args, flash.TarFile{Path: value})
	return nil
}

// endSessionAfter ends the protocol session before surfacing a
// binding/decode error discovered only after begin_session, leaving
// the device recoverable instead of stuck mid-session.
func endSessionAfter(t proto.Transport, cause error, logger *log.Logger) error {
	if err := proto.EndSession(t); err != nil {
		logger.Printf("warning: end_session after %v: %v", cause, err)
	}
	return cause
}

func splitOnce(s string, sep byte) [2]string {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return [2]string{s[:i], s[i+1:]}
		}
	}
	return [2]string{s, ""}
}

func runFlash(args []string, logger *log.Logger) error {
	fs, device := newFlagSet("flash")
	var fileArgs []flash.FileArgument
	fs.Var(partitionFlag{&fileArgs}, "partition", "flash NAME=FILE against the matching PIT entry, repeatable")
	fs.Var(tarFlag{&fileArgs}, "tar", "flash every member of a tar archive matched by flash_filename, repeatable")
	noVerify := fs.Bool("no-verify", false, "skip .tar.md5 checksum verification")
	reboot := fs.Bool("reboot", false, "reboot the device after a successful flash")
	noTUI := fs.Bool("no-tui", false, "log plain progress lines instead of the progress bar")
	timeoutMS := fs.Int("timeout-ms", 3000, "device operation timeout in milliseconds")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if len(fileArgs) == 0 {
		return fmt.Errorf("odinflash: flash requires at least one -partition or -tar argument")
	}

	defaults, err := config.LoadDefaults()
	if err != nil {
		return err
	}
	verify := defaults.Verify && !*noVerify

	if err := flash.ValidateArguments(fileArgs, verify); err != nil {
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

	events := make(chan flash.ProgressEvent)
	done := make(chan error, 1)
	go func() { done <- progress.Run(events, *noTUI, logger) }()

	events <- flash.ProgressEvent{Label: "pit"}
	pitData, err := proto.ReceivePit(h)
	if err != nil {
		close(events)
		<-done
		return err
	}
	events <- flash.ProgressEvent{Label: "pit", BytesTotal: uint64(len(pitData)), BytesDone: uint64(len(pitData)), Done: true}

	table, err := pit.Decode(bytes.NewReader(pitData))
	if err != nil {
		close(events)
		<-done
		return endSessionAfter(h, err, logger)
	}

	targets, totalSize, err := flash.Bind(fileArgs, table)
	if err != nil {
		close(events)
		<-done
		return endSessionAfter(h, err, logger)
	}
	logger.Printf("flashing %d target(s), %d bytes total", len(targets), totalSize)

	// flash.Upload closes events itself once every target is done.
	uploadErr := flash.Upload(h, targets, totalSize, events)
	if progErr := <-done; progErr != nil && uploadErr == nil {
		logger.Printf("progress display: %v", progErr)
	}
	if uploadErr != nil {
		return uploadErr
	}

	if *reboot {
		if err := proto.Reboot(h); err != nil {
			return err
		}
	}
	logger.Println("flash complete")
	return nil
}
