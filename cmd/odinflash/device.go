package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/gousb"

	"odinflash/internal/config"
	"odinflash/internal/usb"
)

// resolveDevice detects attached devices and picks the one matching
// selector. selector may be empty (only one device must be attached),
// a saved profile name, or "BUS:ADDRESS" — which always wins when it
// parses, even if a profile of the same name also exists.
func resolveDevice(ctx *gousb.Context, selector string, timeout time.Duration) (*usb.Device, time.Duration, error) {
	if bus, addr, ok := parseBusAddress(selector); ok {
		return pickByBusAddress(ctx, bus, addr, timeout)
	}

	if selector != "" {
		store, err := config.LoadProfileStore()
		if err != nil {
			return nil, 0, err
		}
		if p, ok := store.Find(selector); ok {
			t := timeout
			if p.TimeoutMS > 0 {
				t = time.Duration(p.TimeoutMS) * time.Millisecond
			}
			return pickByBusAddress(ctx, p.Bus, p.Address, t)
		}
		return nil, 0, fmt.Errorf("odinflash: no device profile or bus:address matches %q", selector)
	}

	devices, err := usb.Detect(ctx, timeout)
	if err != nil {
		return nil, 0, err
	}
	switch len(devices) {
	case 0:
		return nil, 0, fmt.Errorf("odinflash: no download-mode device attached")
	case 1:
		return devices[0], timeout, nil
	default:
		return nil, 0, fmt.Errorf("odinflash: %d devices attached, specify --device BUS:ADDRESS", len(devices))
	}
}

func pickByBusAddress(ctx *gousb.Context, bus, addr int, timeout time.Duration) (*usb.Device, time.Duration, error) {
	devices, err := usb.Detect(ctx, timeout)
	if err != nil {
		return nil, 0, err
	}
	for _, d := range devices {
		if b, a := d.BusAddress(); b == bus && a == addr {
			return d, timeout, nil
		}
	}
	return nil, 0, fmt.Errorf("odinflash: no device at bus %d address %d", bus, addr)
}

func parseBusAddress(s string) (bus, addr int, ok bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	b, err1 := strconv.Atoi(parts[0])
	a, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return b, a, true
}
