package hid

import (
	"fmt"
	"time"

	gohid "github.com/sstallion/go-hid"
)

// HIDAPIDevice wraps a sstallion/go-hid device to implement the Device
// interface.
type HIDAPIDevice struct {
	device *gohid.Device
	info   DeviceInfo
}

// Verify HIDAPIDevice implements Device interface.
var _ Device = (*HIDAPIDevice)(nil)

// NewHIDAPIDevice creates a new HIDAPIDevice from an open hid device.
func NewHIDAPIDevice(device *gohid.Device, info DeviceInfo) *HIDAPIDevice {
	return &HIDAPIDevice{
		device: device,
		info:   info,
	}
}

// Write sends an output report to the device.
func (d *HIDAPIDevice) Write(data []byte) (int, error) {
	return d.device.Write(data)
}

// ReadWithTimeout reads an input report from the device.
func (d *HIDAPIDevice) ReadWithTimeout(data []byte, timeout time.Duration) (int, error) {
	return d.device.ReadWithTimeout(data, timeout)
}

// Close closes the device handle.
func (d *HIDAPIDevice) Close() error {
	return d.device.Close()
}

// Info returns information about the device.
func (d *HIDAPIDevice) Info() DeviceInfo {
	return d.info
}

// Init initializes the hidapi library. It must be called before Enumerate
// or OpenPath.
func Init() error {
	return gohid.Init()
}

// Exit finalizes the hidapi library.
func Exit() error {
	return gohid.Exit()
}

// Enumerate returns every HID endpoint the host exposes. A multi-interface
// keyboard shows up as several endpoints; callers filter by usage and
// capability probes.
func Enumerate() ([]DeviceInfo, error) {
	var endpoints []DeviceInfo

	err := gohid.Enumerate(0, 0, func(info *gohid.DeviceInfo) error {
		endpoints = append(endpoints, DeviceInfo{
			Path:         info.Path,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Serial:       info.SerialNbr,
			Manufacturer: info.MfrStr,
			Product:      info.ProductStr,
			UsagePage:    info.UsagePage,
			Usage:        info.Usage,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate HID devices: %w", err)
	}

	return endpoints, nil
}

// OpenPath opens the endpoint described by info.
func OpenPath(info DeviceInfo) (Device, error) {
	device, err := gohid.OpenPath(info.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", info.Path, err)
	}
	return NewHIDAPIDevice(device, info), nil
}
