// Package hid provides abstractions for talking to raw HID endpoints and
// the framed request/response transport used by Vial keyboards.
package hid

import "time"

//go:generate mockgen -source=device.go -destination=mocks/device_mock.go -package=mocks

// DeviceInfo contains enumerated metadata about a HID endpoint. It is used
// for filtering candidates and is not retained once a device is open.
type DeviceInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Serial       string
	Manufacturer string
	Product      string
	UsagePage    uint16
	Usage        uint16
}

// Device represents an open, exclusive, bidirectional channel to one HID
// endpoint. This interface allows for mocking in tests.
type Device interface {
	// Write sends an output report. The first byte is the report ID.
	Write(data []byte) (int, error)

	// ReadWithTimeout reads an input report, waiting at most timeout.
	// A timeout is reported as a zero-length read, not an error.
	ReadWithTimeout(data []byte, timeout time.Duration) (int, error)

	// Close releases the device handle.
	Close() error

	// Info returns the enumerated metadata for the endpoint.
	Info() DeviceInfo
}
