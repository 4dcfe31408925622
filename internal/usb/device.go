//go:build !mips && !mipsle
// +build !mips,!mipsle

// Package usb discovers Samsung download-mode devices and opens the
// vendor bulk interface the Odin protocol runs over. It is the
// concrete implementation of the Transport Handle capability the
// protocol and flash layers depend on through a narrow interface.
package usb

import (
	"fmt"
	"time"

	"github.com/google/gousb"
)

// VendorID is Samsung's USB vendor id.
const VendorID = 0x04E8

// ProductIDs are the product ids observed for devices in download mode.
var ProductIDs = map[int]bool{
	0x6601: true,
	0x685D: true,
	0x68C3: true,
}

const dataClass = 0x0a // USB class "Data", per the CDC-ACM data interface

// Device is a detected, unopened Samsung download-mode device.
type Device struct {
	desc          *gousb.DeviceDesc
	dev           *gousb.Device
	ifaceNumber   int
	altSetting    int
	readEndpoint  int
	writeEndpoint int
}

// BusAddress returns the bus:address pair used to disambiguate
// multiple attached devices on the CLI.
func (d *Device) BusAddress() (bus, address int) {
	return d.desc.Bus, d.desc.Address
}

// IDs returns the device's vendor and product id.
func (d *Device) IDs() (vendor, product int) {
	return int(d.desc.Vendor), int(d.desc.Product)
}

// Open selects the device's first configuration and returns a Handle
// bound to its bulk interface. The interface itself is claimed by
// Handle.Claim; the handle owns it exclusively until Release is called.
func (d *Device) Open(timeout time.Duration) (*Handle, error) {
	cfg, err := d.dev.Config(1)
	if err != nil {
		return nil, fmt.Errorf("usb: set config: %w", err)
	}

	h := &Handle{
		device:        d.dev,
		config:        cfg,
		timeout:       timeout,
		ifaceNumber:   d.ifaceNumber,
		altSetting:    d.altSetting,
		readEndpoint:  d.readEndpoint,
		writeEndpoint: d.writeEndpoint,
	}
	return h, nil
}

// Detect enumerates attached Samsung download-mode devices. The timeout
// argument is not applied to the enumeration. Devices that don't expose
// a 2-endpoint bulk data interface
// are ignored, matching the original driver's interface-discovery walk.
func Detect(ctx *gousb.Context, timeout time.Duration) ([]*Device, error) {
	raw, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return int(desc.Vendor) == VendorID && ProductIDs[int(desc.Product)]
	})
	if err != nil {
		return nil, fmt.Errorf("usb: enumerate: %w", err)
	}

	devices := make([]*Device, 0, len(raw))
	for _, dev := range raw {
		iface, alt, in, out, ok := findBulkDataInterface(dev.Desc)
		if !ok {
			dev.Close()
			continue
		}
		devices = append(devices, &Device{
			desc:          dev.Desc,
			dev:           dev,
			ifaceNumber:   iface,
			altSetting:    alt,
			readEndpoint:  in,
			writeEndpoint: out,
		})
	}
	return devices, nil
}

func findBulkDataInterface(desc *gousb.DeviceDesc) (iface, alt, in, out int, ok bool) {
	for _, cfg := range desc.Configs {
		for _, ifc := range cfg.Interfaces {
			for _, setting := range ifc.AltSettings {
				if int(setting.Class) != dataClass || len(setting.Endpoints) != 2 {
					continue
				}
				var inAddr, outAddr = -1, -1
				for addr, ep := range setting.Endpoints {
					if ep.Direction == gousb.EndpointDirectionIn {
						inAddr = int(addr)
					} else {
						outAddr = int(addr)
					}
				}
				if inAddr >= 0 && outAddr >= 0 {
					return ifc.Number, setting.Number, inAddr, outAddr, true
				}
			}
		}
	}
	return 0, 0, 0, 0, false
}
