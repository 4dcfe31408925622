//go:build !mips && !mipsle
// +build !mips,!mipsle

package usb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// Handle is the exclusively-owned transport for one Odin session: a
// claimed bulk interface with a fixed per-call timeout. It implements
// the narrow proto.Transport interface (Read/Write) the protocol layer
// depends on, without exposing gousb types to callers above internal/usb.
type Handle struct {
	device  *gousb.Device
	config  *gousb.Config
	timeout time.Duration

	ifaceNumber   int
	altSetting    int
	readEndpoint  int
	writeEndpoint int

	iface *gousb.Interface
	epIn  *gousb.InEndpoint
	epOut *gousb.OutEndpoint
}

// Reset performs a USB port reset on the underlying device. Called
// after Claim and before the first protocol exchange.
func (h *Handle) Reset() error {
	if err := h.device.Reset(); err != nil {
		return fmt.Errorf("usb: reset: %w", err)
	}
	return nil
}

// Claim claims the bulk interface and opens its endpoints. Safe to
// call once per Handle before any protocol exchange.
func (h *Handle) Claim() error {
	if h.iface != nil {
		return nil
	}

	iface, err := h.config.Interface(h.ifaceNumber, h.altSetting)
	if err != nil {
		return fmt.Errorf("usb: claim interface: %w", err)
	}

	epIn, err := iface.InEndpoint(h.readEndpoint)
	if err != nil {
		iface.Close()
		return fmt.Errorf("usb: open in endpoint: %w", err)
	}
	epOut, err := iface.OutEndpoint(h.writeEndpoint)
	if err != nil {
		iface.Close()
		return fmt.Errorf("usb: open out endpoint: %w", err)
	}

	h.iface = iface
	h.epIn = epIn
	h.epOut = epOut
	return nil
}

// Release releases the interface and the underlying device handle.
// Safe to call multiple times and on every exit path, including after
// a failed claim.
func (h *Handle) Release() error {
	if h.iface != nil {
		h.iface.Close()
		h.iface = nil
		h.epIn = nil
		h.epOut = nil
	}
	if h.config != nil {
		h.config.Close()
		h.config = nil
	}
	if h.device != nil {
		err := h.device.Close()
		h.device = nil
		if err != nil {
			return fmt.Errorf("usb: release device: %w", err)
		}
	}
	return nil
}

// Read performs one bulk IN transfer bounded by the handle's timeout.
// A zero-length buf is a valid call, used for post-read trailers.
func (h *Handle) Read(buf []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	n, err := h.epIn.ReadContext(ctx, buf)
	if err != nil {
		return n, fmt.Errorf("usb: bulk read: %w", err)
	}
	return n, nil
}

// Write performs one bulk OUT transfer bounded by the handle's
// timeout. A zero-length buf is a valid call, used for post-write
// trailers.
func (h *Handle) Write(buf []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	n, err := h.epOut.WriteContext(ctx, buf)
	if err != nil {
		return n, fmt.Errorf("usb: bulk write: %w", err)
	}
	return n, nil
}
