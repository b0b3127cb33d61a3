// Package vialrgb implements discovery of VialRGB-capable keyboards and the
// VialRGB lighting protocol on top of the raw HID transport.
package vialrgb

import "errors"

const (
	// serialMagic marks Vial-capable firmware in the USB serial string.
	serialMagic = "vial:f64c2b3c"

	// rawUsagePage and rawUsage identify the vendor-defined raw HID
	// interface Vial firmware exposes for configuration traffic.
	rawUsagePage uint16 = 0xFF60
	rawUsage     uint16 = 0x61

	// VIA command bytes selecting the lighting subsystem.
	cmdLightingSetValue byte = 0x07
	cmdLightingGetValue byte = 0x08
	cmdLightingSave     byte = 0x09

	// VialRGB sub-commands.
	subGetInfo      byte = 0x40
	subSetMode      byte = 0x41
	subGetSupported byte = 0x42

	// cmdGetProtocolVersion is the VIA "get protocol version" command;
	// raw HID firmware answers it with the rawHIDSignature prefix.
	cmdGetProtocolVersion byte = 0x01

	// cmdVialPrefix with vialGetKeyboardID queries the Vial extension for
	// its protocol version and capability flags.
	cmdVialPrefix     byte = 0xFE
	vialGetKeyboardID byte = 0x00

	// EffectSolidColor is the VialRGB mode identifier for a single static
	// color.
	EffectSolidColor uint16 = 2

	defaultEffectSpeed byte = 0x80

	// endOfModes terminates the paginated mode listing.
	endOfModes uint16 = 0xFFFF

	// maxScanRounds bounds the paginated mode scan so a misbehaving
	// device cannot keep us polling forever.
	maxScanRounds = 100

	// rgbProtocolVersion is the only VialRGB protocol revision we speak.
	rgbProtocolVersion uint16 = 1

	// minVialProtocol is the lowest Vial protocol that carries the RGB
	// capability flag.
	minVialProtocol uint32 = 4

	// rgbCapabilityFlag is bit 0 of byte 12 in the Vial info response.
	rgbCapabilityFlag byte = 0x01
)

// rawHIDSignature is the reply prefix raw HID firmware sends to the
// capability probe.
var rawHIDSignature = []byte{0x01, 0x00, 0x09}

var (
	// ErrDeviceNotFound is returned when no enumerated endpoint
	// identifies as a VialRGB keyboard.
	ErrDeviceNotFound = errors.New("no VialRGB device found")

	// ErrUnsupportedProtocol is returned when the device answers with a
	// VialRGB protocol version other than 1.
	ErrUnsupportedProtocol = errors.New("unsupported VialRGB protocol version")

	// ErrUnsupportedEffect is returned when the device does not list the
	// solid color effect among its supported modes.
	ErrUnsupportedEffect = errors.New("keyboard does not support the solid color effect")

	// ErrTooManyEffects is returned when the mode scan never reaches the
	// end-of-list terminator within the round bound.
	ErrTooManyEffects = errors.New("device reported too many effects")

	// ErrNotSaved is returned when the color was applied but the save to
	// EEPROM failed; the device is left in the new, unsaved state.
	ErrNotSaved = errors.New("color was applied but not saved to EEPROM")
)
