// SPDX-License-Identifier: GPL-3.0-only

package hid_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vialtools/vialctl/internal/hid"
	"github.com/vialtools/vialctl/internal/hid/mocks"
)

// testPolicy returns a policy that records sleeps instead of performing them.
func testPolicy(maxAttempts int, slept *[]time.Duration) hid.RetryPolicy {
	return hid.RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       500 * time.Millisecond,
		ReadTimeout: time.Second,
	}.WithSleep(func(d time.Duration) {
		*slept = append(*slept, d)
	})
}

func TestSend_RejectsOversizedMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No expectations: an oversized message must not reach the device.
	mockDevice := mocks.NewMockDevice(ctrl)

	var slept []time.Duration
	_, err := hid.Send(mockDevice, make([]byte, 33), testPolicy(3, &slept))
	require.Error(t, err)
	assert.ErrorIs(t, err, hid.ErrMessageTooLong)
	assert.Empty(t, slept)
}

func TestSend_FramesMessageWithReportID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDevice := mocks.NewMockDevice(ctrl)
	mockDevice.EXPECT().Write(gomock.Any()).DoAndReturn(
		func(data []byte) (int, error) {
			require.Len(t, data, 33)
			assert.Equal(t, byte(0x00), data[0], "report ID")
			assert.Equal(t, []byte{0x08, 0x40}, data[1:3], "payload")
			for _, b := range data[3:] {
				assert.Equal(t, byte(0x00), b, "padding")
			}
			return len(data), nil
		},
	)
	mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), time.Second).DoAndReturn(
		func(data []byte, _ time.Duration) (int, error) {
			data[0] = 0xAB
			return len(data), nil
		},
	)

	var slept []time.Duration
	resp, err := hid.Send(mockDevice, []byte{0x08, 0x40}, testPolicy(3, &slept))
	require.NoError(t, err)
	assert.Equal(t, byte(0xAB), resp[0])
	assert.Empty(t, slept, "no sleep before or after a successful first attempt")
}

func TestSend_RetriesAfterWriteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDevice := mocks.NewMockDevice(ctrl)
	mockDevice.EXPECT().Write(gomock.Any()).Return(0, errors.New("pipe stall"))
	mockDevice.EXPECT().Write(gomock.Any()).Return(33, nil)
	mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), gomock.Any()).DoAndReturn(
		func(data []byte, _ time.Duration) (int, error) {
			data[0] = 0x01
			return len(data), nil
		},
	)

	var slept []time.Duration
	resp, err := hid.Send(mockDevice, []byte{0x01}, testPolicy(3, &slept))
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), resp[0])
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, slept)
}

func TestSend_RetriesAfterReadTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDevice := mocks.NewMockDevice(ctrl)
	mockDevice.EXPECT().Write(gomock.Any()).Return(33, nil).Times(3)
	// Two zero-length reads (timeouts), then data.
	mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), gomock.Any()).Return(0, nil).Times(2)
	mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), gomock.Any()).DoAndReturn(
		func(data []byte, _ time.Duration) (int, error) {
			data[0] = 0x42
			return len(data), nil
		},
	)

	var slept []time.Duration
	resp, err := hid.Send(mockDevice, []byte{0x01}, testPolicy(3, &slept))
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), resp[0])
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, slept)
}

func TestSend_ExhaustsAttempts(t *testing.T) {
	tests := []struct {
		name    string
		lastErr error
	}{
		{name: "timeouts only", lastErr: nil},
		{name: "read errors", lastErr: errors.New("device unplugged")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockDevice := mocks.NewMockDevice(ctrl)
			mockDevice.EXPECT().Write(gomock.Any()).Return(33, nil).Times(5)
			mockDevice.EXPECT().ReadWithTimeout(gomock.Any(), gomock.Any()).Return(0, tt.lastErr).Times(5)

			var slept []time.Duration
			_, err := hid.Send(mockDevice, []byte{0x01}, testPolicy(5, &slept))
			require.Error(t, err)
			assert.ErrorIs(t, err, hid.ErrCommunication)
			assert.Contains(t, err.Error(), "5 attempts")
			if tt.lastErr != nil {
				assert.ErrorIs(t, err, tt.lastErr)
			}

			// N attempts sleep exactly N-1 times.
			assert.Len(t, slept, 4)
		})
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	policy := hid.DefaultRetryPolicy(20)
	assert.Equal(t, 20, policy.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, policy.Delay)
	assert.Equal(t, time.Second, policy.ReadTimeout)
}
