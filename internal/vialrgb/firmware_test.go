package vialrgb_test

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/vialtools/vialctl/internal/hid"
)

// fastPolicy mirrors the default retry policy without real delays.
func fastPolicy(maxAttempts int) hid.RetryPolicy {
	return hid.RetryPolicy{
		MaxAttempts: maxAttempts,
		ReadTimeout: time.Millisecond,
	}.WithSleep(func(time.Duration) {})
}

// scriptedDevice is a Device whose responses are computed from the request
// payload, mimicking firmware behavior.
type scriptedDevice struct {
	info    hid.DeviceInfo
	handler func(msg []byte) ([]byte, error)
	lastMsg []byte
	closed  bool
}

func (d *scriptedDevice) Write(data []byte) (int, error) {
	// Strip the report-ID byte; the handler sees the 32-byte payload.
	d.lastMsg = append([]byte(nil), data[1:]...)
	return len(data), nil
}

func (d *scriptedDevice) ReadWithTimeout(data []byte, _ time.Duration) (int, error) {
	resp, err := d.handler(d.lastMsg)
	if err != nil {
		return 0, err
	}
	copy(data, resp)
	return len(data), nil
}

func (d *scriptedDevice) Close() error {
	d.closed = true
	return nil
}

func (d *scriptedDevice) Info() hid.DeviceInfo {
	return d.info
}

// fakeFirmware simulates the lighting side of a Vial keyboard.
type fakeFirmware struct {
	rawHID       bool
	vialProtocol uint32
	vialFlags    byte
	rgbVersion   uint16
	modes        []uint16 // ascending, excluding the implicit mode 0

	setModeFrames [][]byte
	saveCalls     int
	failSave      bool
	scanRounds    int
}

func workingFirmware(modes ...uint16) *fakeFirmware {
	return &fakeFirmware{
		rawHID:       true,
		vialProtocol: 4,
		vialFlags:    0x01,
		rgbVersion:   1,
		modes:        modes,
	}
}

func (fw *fakeFirmware) handle(msg []byte) ([]byte, error) {
	resp := make([]byte, hid.MsgLen)

	switch {
	case msg[0] == 0x01:
		if !fw.rawHID {
			return nil, errors.New("unexpected probe")
		}
		copy(resp, []byte{0x01, 0x00, 0x09})

	case msg[0] == 0xFE && msg[1] == 0x00:
		binary.LittleEndian.PutUint32(resp[0:4], fw.vialProtocol)
		resp[12] = fw.vialFlags

	case msg[0] == 0x08 && msg[1] == 0x40:
		binary.LittleEndian.PutUint16(resp[2:4], fw.rgbVersion)

	case msg[0] == 0x08 && msg[1] == 0x42:
		fw.scanRounds++
		cursor := binary.LittleEndian.Uint16(msg[2:4])
		i := 2
		done := true
		for _, m := range fw.modes {
			if m <= cursor {
				continue
			}
			if i+1 >= hid.MsgLen {
				done = false
				break
			}
			binary.LittleEndian.PutUint16(resp[i:i+2], m)
			i += 2
		}
		if done && i+1 < hid.MsgLen {
			binary.LittleEndian.PutUint16(resp[i:i+2], 0xFFFF)
		}

	case msg[0] == 0x07 && msg[1] == 0x41:
		fw.setModeFrames = append(fw.setModeFrames, append([]byte(nil), msg[:8]...))

	case msg[0] == 0x09:
		if fw.failSave {
			return nil, errors.New("eeprom write failed")
		}
		fw.saveCalls++

	default:
		return nil, errors.New("unknown command")
	}

	return resp, nil
}

func (fw *fakeFirmware) device(info hid.DeviceInfo) *scriptedDevice {
	return &scriptedDevice{info: info, handler: fw.handle}
}
