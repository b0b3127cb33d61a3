// SPDX-License-Identifier: GPL-3.0-only

package vialrgb

import (
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vialtools/vialctl/internal/hid"
)

const (
	// commandAttempts is the retry budget for lighting commands; firmware
	// can be slow to answer while it is busy rendering.
	commandAttempts = 20

	// scanAttempts is the retry budget for each paginated scan round.
	scanAttempts = 3
)

// Client speaks the VialRGB lighting protocol over one open device handle.
// The caller owns the handle and its lifetime; a Client holds no state
// beyond it.
type Client struct {
	dev    hid.Device
	policy func(maxAttempts int) hid.RetryPolicy
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithCommandPolicy sets the retry policy factory used for commands. Tests
// use this to avoid real retry delays.
func WithCommandPolicy(fn func(maxAttempts int) hid.RetryPolicy) ClientOption {
	return func(c *Client) {
		c.policy = fn
	}
}

// NewClient creates a Client over an open device handle.
func NewClient(dev hid.Device, opts ...ClientOption) *Client {
	c := &Client{
		dev:    dev,
		policy: hid.DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SupportedModes queries the device for the set of lighting modes it
// supports. Mode 0 (off) is always present in the result.
//
// The listing is paginated: each round asks for the modes above a cursor
// and the device answers with up to 15 little-endian mode words, terminated
// by 0xFFFF. Once the terminator appears in a response window the remaining
// words of that window are padding and are not scanned.
func (c *Client) SupportedModes() (map[uint16]struct{}, error) {
	resp, err := hid.Send(c.dev, []byte{cmdLightingGetValue, subGetInfo}, c.policy(commandAttempts))
	if err != nil {
		return nil, fmt.Errorf("failed to query device info: %w", err)
	}

	version := binary.LittleEndian.Uint16(resp[2:4])
	if version != rgbProtocolVersion {
		return nil, fmt.Errorf("%w: device speaks version %d", ErrUnsupportedProtocol, version)
	}

	modes := map[uint16]struct{}{0: {}}
	var maxMode uint16

	for round := 0; round < maxScanRounds; round++ {
		msg := make([]byte, hid.MsgLen)
		msg[0] = cmdLightingGetValue
		msg[1] = subGetSupported
		binary.LittleEndian.PutUint16(msg[2:4], maxMode)

		resp, err := hid.Send(c.dev, msg, c.policy(scanAttempts))
		if err != nil {
			return nil, fmt.Errorf("failed to query supported modes: %w", err)
		}

		for i := 2; i+1 < hid.MsgLen; i += 2 {
			mode := binary.LittleEndian.Uint16(resp[i : i+2])
			if mode == endOfModes {
				maxMode = endOfModes
				break
			}
			modes[mode] = struct{}{}
			if mode > maxMode {
				maxMode = mode
			}
		}

		if maxMode == endOfModes {
			log.Debug().Int("modes", len(modes)).Int("rounds", round+1).Msg("Mode scan complete")
			return modes, nil
		}
	}

	return nil, fmt.Errorf("%w: no terminator after %d rounds", ErrTooManyEffects, maxScanRounds)
}

// SetSolidColor switches the keyboard to the solid color effect with the
// given HSV values. When persist is true the setting is also committed to
// EEPROM; otherwise it is lost on power cycle.
//
// The steps are sequential, not transactional. A failed save after a
// successful mode set leaves the color applied but unsaved; that partial
// state is reported via ErrNotSaved, as the protocol has no rollback.
func (c *Client) SetSolidColor(h, s, v uint8, persist bool) error {
	modes, err := c.SupportedModes()
	if err != nil {
		return err
	}
	if _, ok := modes[EffectSolidColor]; !ok {
		return ErrUnsupportedEffect
	}

	msg := make([]byte, 8)
	msg[0] = cmdLightingSetValue
	msg[1] = subSetMode
	binary.LittleEndian.PutUint16(msg[2:4], EffectSolidColor)
	msg[4] = defaultEffectSpeed
	msg[5] = h
	msg[6] = s
	msg[7] = v

	if _, err := hid.Send(c.dev, msg, c.policy(commandAttempts)); err != nil {
		return fmt.Errorf("failed to set mode: %w", err)
	}

	if !persist {
		return nil
	}

	if _, err := hid.Send(c.dev, []byte{cmdLightingSave}, c.policy(commandAttempts)); err != nil {
		return fmt.Errorf("%w: %w", ErrNotSaved, err)
	}

	return nil
}
