// SPDX-License-Identifier: GPL-3.0-only

// Package color provides conversions between hex RGB strings, RGB triples
// and the 0-255 scaled HSV representation VialRGB firmware expects, plus
// optional white point correction.
package color

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseHexRGB parses a 6-digit hex color such as "ff00ff" or "#00FF00".
func ParseHexRGB(s string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("color must be 6 hex characters (0-9, a-f), e.g. ff00ff")
	}

	channels := [3]uint8{}
	names := [3]string{"red", "green", "blue"}
	for i := range channels {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid %s component: %w", names[i], err)
		}
		channels[i] = uint8(v)
	}

	return channels[0], channels[1], channels[2], nil
}

// RGBToHSV converts an RGB triple to HSV with every channel scaled to
// 0-255, the range the firmware uses (hue 255 corresponds to 360 degrees).
func RGBToHSV(r, g, b uint8) (h, s, v uint8) {
	red := float64(r) / 255
	green := float64(g) / 255
	blue := float64(b) / 255

	max := math.Max(red, math.Max(green, blue))
	delta := max - math.Min(red, math.Min(green, blue))

	var hue float64
	switch {
	case delta == 0:
		hue = 0
	case max == red:
		// math.Mod keeps the sign of the dividend, so wrap into [0, 6).
		hue = 60 * math.Mod(math.Mod((green-blue)/delta, 6)+6, 6)
	case max == green:
		hue = 60 * ((blue-red)/delta + 2)
	default:
		hue = 60 * ((red-green)/delta + 4)
	}

	var sat float64
	if max > 0 {
		sat = delta / max
	}

	return uint8(math.Round(hue / 360 * 255)),
		uint8(math.Round(sat * 255)),
		uint8(math.Round(max * 255))
}

// WhitePoint is a per-channel color correction triple. A channel of 0 would
// discard that channel entirely and ruin the color ratios, so every channel
// must be in 1-255.
type WhitePoint [3]uint8

// NewWhitePoint validates the triple and returns it as a WhitePoint.
func NewWhitePoint(rgb [3]uint8) (WhitePoint, error) {
	for _, c := range rgb {
		if c == 0 {
			return WhitePoint{}, fmt.Errorf("white point channels must be 1-255, got %v", rgb)
		}
	}
	return WhitePoint(rgb), nil
}

// Apply scales each input channel by the corresponding correction channel.
// A white point of [255, 255, 255] is the identity.
func (wp WhitePoint) Apply(r, g, b uint8) (uint8, uint8, uint8) {
	scale := func(c, w uint8) uint8 {
		return uint8(math.Round(float64(c) * float64(w) / 255))
	}
	return scale(r, wp[0]), scale(g, wp[1]), scale(b, wp[2])
}

// ParseWhitePoint parses a white point given as "R,G,B", e.g. "200,255,230".
func ParseWhitePoint(s string) (WhitePoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return WhitePoint{}, fmt.Errorf("expected 3 comma-separated values, e.g. 200,255,230")
	}

	rgb := [3]uint8{}
	names := [3]string{"red", "green", "blue"}
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return WhitePoint{}, fmt.Errorf("invalid %s channel: %w", names[i], err)
		}
		rgb[i] = uint8(v)
	}

	return NewWhitePoint(rgb)
}
