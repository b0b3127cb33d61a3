// SPDX-License-Identifier: GPL-3.0-only

package hid

import (
	"errors"
	"fmt"
	"time"
)

const (
	// MsgLen is the logical payload length of every protocol message.
	// Requests shorter than MsgLen are zero-padded; responses are always
	// MsgLen bytes.
	MsgLen = 32

	// reportLen is MsgLen plus the leading report-ID byte, which is
	// always 0 for this firmware.
	reportLen = MsgLen + 1
)

// ErrMessageTooLong is returned when a request exceeds MsgLen bytes. It is
// detected before any I/O is attempted.
var ErrMessageTooLong = errors.New("message exceeds maximum length")

// ErrCommunication is returned when the retry budget of an exchange is
// exhausted without a response.
var ErrCommunication = errors.New("failed to communicate with device")

// RetryPolicy controls how Send retries a failed exchange.
type RetryPolicy struct {
	// MaxAttempts is the total number of write+read attempts.
	MaxAttempts int

	// Delay is slept between attempts, but not before the first.
	Delay time.Duration

	// ReadTimeout bounds each read attempt.
	ReadTimeout time.Duration

	sleep func(time.Duration)
}

// DefaultRetryPolicy returns the policy the protocol uses: a fixed 500ms
// delay between attempts and a 1s read timeout.
func DefaultRetryPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       500 * time.Millisecond,
		ReadTimeout: time.Second,
		sleep:       time.Sleep,
	}
}

// WithSleep overrides the inter-attempt sleep. Tests use this to avoid real
// delays.
func (p RetryPolicy) WithSleep(fn func(time.Duration)) RetryPolicy {
	p.sleep = fn
	return p
}

// Send transmits msg as a fixed 33-byte frame (report ID 0, payload
// zero-padded to 32 bytes) and waits for one 32-byte response.
//
// A write failure, a read error or a timed-out read each consume one
// attempt; the first attempt that yields data returns immediately. When the
// attempt budget is exhausted the returned error wraps ErrCommunication and,
// if one occurred, the last underlying I/O error.
func Send(dev Device, msg []byte, policy RetryPolicy) ([MsgLen]byte, error) {
	var resp [MsgLen]byte

	if len(msg) > MsgLen {
		return resp, fmt.Errorf("%w: %d bytes", ErrMessageTooLong, len(msg))
	}

	var frame [reportLen]byte
	copy(frame[1:], msg)

	sleep := policy.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			sleep(policy.Delay)
		}

		if _, err := dev.Write(frame[:]); err != nil {
			lastErr = err
			continue
		}

		buf := make([]byte, MsgLen)
		n, err := dev.ReadWithTimeout(buf, policy.ReadTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		if n == 0 {
			// Timed out without data.
			continue
		}

		copy(resp[:], buf)
		return resp, nil
	}

	if lastErr != nil {
		return resp, fmt.Errorf("%w after %d attempts: %w", ErrCommunication, policy.MaxAttempts, lastErr)
	}
	return resp, fmt.Errorf("%w after %d attempts", ErrCommunication, policy.MaxAttempts)
}
