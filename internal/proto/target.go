package proto

import "fmt"

// FileTarget selects which end-transfer record layout file_transfer
// writes: AP and CP carry different fields.
type FileTarget struct {
	isAP       bool
	deviceType uint32
	identifier uint32 // AP only
}

// ApplicationProcessorTarget builds a FileTarget for an AP image.
func ApplicationProcessorTarget(deviceType, identifier uint32) FileTarget {
	return FileTarget{isAP: true, deviceType: deviceType, identifier: identifier}
}

// CommunicationProcessorTarget builds a FileTarget for a CP image.
func CommunicationProcessorTarget(deviceType uint32) FileTarget {
	return FileTarget{isAP: false, deviceType: deviceType}
}

func (t FileTarget) String() string {
	if t.isAP {
		return fmt.Sprintf("AP{device_type: %d, identifier: %d}", t.deviceType, t.identifier)
	}
	return fmt.Sprintf("CP{device_type: %d}", t.deviceType)
}
