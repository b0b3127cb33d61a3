package vialrgb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/vialtools/vialctl/internal/hid"
)

// probeAttempts bounds each identification probe. Probes are cheap and an
// endpoint that does not answer is simply not the keyboard we want.
const probeAttempts = 3

// Finder locates the raw HID endpoint of a VialRGB-capable keyboard among
// whatever the host enumerates.
type Finder struct {
	enumerate func() ([]hid.DeviceInfo, error)
	open      func(hid.DeviceInfo) (hid.Device, error)
	policy    func(maxAttempts int) hid.RetryPolicy
}

// FinderOption is a functional option for configuring a Finder.
type FinderOption func(*Finder)

// WithEnumerator sets a custom endpoint enumerator for testing.
func WithEnumerator(fn func() ([]hid.DeviceInfo, error)) FinderOption {
	return func(f *Finder) {
		f.enumerate = fn
	}
}

// WithOpener sets a custom device opener for testing.
func WithOpener(fn func(hid.DeviceInfo) (hid.Device, error)) FinderOption {
	return func(f *Finder) {
		f.open = fn
	}
}

// WithProbePolicy sets the retry policy factory used for capability probes.
func WithProbePolicy(fn func(maxAttempts int) hid.RetryPolicy) FinderOption {
	return func(f *Finder) {
		f.policy = fn
	}
}

// NewFinder creates a Finder backed by the real HID subsystem.
func NewFinder(opts ...FinderOption) *Finder {
	f := &Finder{
		enumerate: hid.Enumerate,
		open:      hid.OpenPath,
		policy:    hid.DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find returns the first enumerated endpoint that identifies as a VialRGB
// keyboard, or ErrDeviceNotFound when none does.
//
// Identification is a conjunction of three predicates, cheapest first: the
// serial number carries the Vial magic, the endpoint answers the raw HID
// capability probe, and the endpoint answers the Vial info probe with a
// new-enough protocol and the RGB flag set. An endpoint that cannot be
// opened or probed is treated as a non-match, never as an error; hosts
// enumerate plenty of HID interfaces we cannot talk to.
func (f *Finder) Find() (hid.DeviceInfo, error) {
	endpoints, err := f.enumerate()
	if err != nil {
		return hid.DeviceInfo{}, fmt.Errorf("failed to enumerate HID endpoints: %w", err)
	}

	for _, info := range endpoints {
		if !strings.Contains(info.Serial, serialMagic) {
			continue
		}
		if !f.isRawHID(info) {
			continue
		}
		if !f.isVialRGB(info) {
			continue
		}

		log.Debug().
			Str("path", info.Path).
			Str("product", info.Product).
			Msg("Found VialRGB endpoint")
		return info, nil
	}

	return hid.DeviceInfo{}, ErrDeviceNotFound
}

// isRawHID reports whether the endpoint is the firmware's raw HID interface:
// the usage pair must match and the capability probe must echo the raw HID
// signature.
func (f *Finder) isRawHID(info hid.DeviceInfo) bool {
	if info.UsagePage != rawUsagePage || info.Usage != rawUsage {
		return false
	}

	dev, err := f.open(info)
	if err != nil {
		log.Debug().Err(err).Str("path", info.Path).Msg("Skipping endpoint that cannot be opened")
		return false
	}
	defer dev.Close()

	resp, err := hid.Send(dev, []byte{cmdGetProtocolVersion}, f.policy(probeAttempts))
	if err != nil {
		return false
	}

	return bytes.Equal(resp[:len(rawHIDSignature)], rawHIDSignature)
}

// isVialRGB reports whether the endpoint answers the Vial info probe with
// protocol version >= 4 and the lighting capability flag set.
func (f *Finder) isVialRGB(info hid.DeviceInfo) bool {
	dev, err := f.open(info)
	if err != nil {
		return false
	}
	defer dev.Close()

	resp, err := hid.Send(dev, []byte{cmdVialPrefix, vialGetKeyboardID}, f.policy(probeAttempts))
	if err != nil {
		return false
	}

	vialProtocol := binary.LittleEndian.Uint32(resp[0:4])
	flags := resp[12]

	return vialProtocol >= minVialProtocol && flags&rgbCapabilityFlag != 0
}
