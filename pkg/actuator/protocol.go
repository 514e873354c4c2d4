package actuator

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"go.bug.st/serial"
)

// Command identifies a protocol command byte.
type Command byte

// Commands understood by the firmware.
const (
	CmdSetTarget     Command = 0x01 // one float32 per actuator, mm
	CmdEnable        Command = 0x02 // 1 byte: 0 or 1
	CmdEmergencyStop Command = 0x03 // no payload
	CmdGetStatus     Command = 0x04 // no payload
	CmdCalibrate     Command = 0x05 // no payload
	CmdSetSpeed      Command = 0x06 // one float32, mm/s
)

// Responses sent by the firmware.
const (
	RespStatus byte = 0x10
	RespAck    byte = 0x11
	RespError  byte = 0x12
)

const frameStart byte = 0xAA

// EncodeFrame packs a command into its wire frame:
// [START][COMMAND][LENGTH][PAYLOAD...][CHECKSUM], where the checksum is the
// low byte of the sum of all preceding bytes.
func EncodeFrame(cmd Command, payload []byte) ([]byte, error) {
	if len(payload) > 255 {
		return nil, fmt.Errorf("actuator: payload too large: %d bytes", len(payload))
	}
	frame := make([]byte, 0, len(payload)+4)
	frame = append(frame, frameStart, byte(cmd), byte(len(payload)))
	frame = append(frame, payload...)

	var sum byte
	for _, b := range frame {
		sum += b
	}
	return append(frame, sum), nil
}

// DecodeFrame unpacks a wire frame, verifying the start byte, the declared
// length and the checksum.
func DecodeFrame(frame []byte) (Command, []byte, error) {
	if len(frame) < 4 {
		return 0, nil, fmt.Errorf("actuator: frame too short: %d bytes", len(frame))
	}
	if frame[0] != frameStart {
		return 0, nil, fmt.Errorf("actuator: bad start byte 0x%02X", frame[0])
	}
	n := int(frame[2])
	if len(frame) != n+4 {
		return 0, nil, fmt.Errorf("actuator: declared %d payload bytes in a %d byte frame", n, len(frame))
	}

	var sum byte
	for _, b := range frame[:len(frame)-1] {
		sum += b
	}
	if sum != frame[len(frame)-1] {
		return 0, nil, fmt.Errorf("actuator: checksum mismatch: computed 0x%02X, frame has 0x%02X",
			sum, frame[len(frame)-1])
	}
	return Command(frame[1]), frame[3 : 3+n], nil
}

// Link sends protocol frames to the actuator controller, either over a real
// serial port or directly into a simulated Controller.
type Link struct {
	port io.WriteCloser // nil in simulated mode
	ctrl *Controller    // nil when a real port is attached
}

// Dial opens a serial connection to the firmware (115200 8N1 by default when
// baud is zero).
func Dial(portName string, baud int) (*Link, error) {
	if baud == 0 {
		baud = 115200
	}
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	return &Link{port: port}, nil
}

// Simulated returns a Link whose frames are decoded and executed directly on
// the given controller, byte-for-byte the same protocol as the wire.
func Simulated(ctrl *Controller) *Link {
	return &Link{ctrl: ctrl}
}

// Simulated reports whether the link drives the in-process simulator.
func (l *Link) Simulated() bool { return l.port == nil }

// Close closes the underlying port, or stops the simulated controller.
func (l *Link) Close() error {
	if l.port != nil {
		return l.port.Close()
	}
	if l.ctrl != nil {
		l.ctrl.Stop()
	}
	return nil
}

// Send encodes and transmits one command frame.
func (l *Link) Send(cmd Command, payload []byte) error {
	frame, err := EncodeFrame(cmd, payload)
	if err != nil {
		return err
	}
	if l.port != nil {
		if _, err := l.port.Write(frame); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
		return nil
	}

	// Simulated mode: run the frame through the decoder anyway, so the
	// simulator exercises the same path as the firmware.
	cmd, payload, err = DecodeFrame(frame)
	if err != nil {
		return err
	}
	return l.execute(cmd, payload)
}

func (l *Link) execute(cmd Command, payload []byte) error {
	switch cmd {
	case CmdSetTarget:
		if len(payload)%4 != 0 {
			return fmt.Errorf("actuator: set-target payload not float32-aligned")
		}
		targets := make([]float64, len(payload)/4)
		for i := range targets {
			bits := binary.LittleEndian.Uint32(payload[i*4:])
			targets[i] = float64(math.Float32frombits(bits))
		}
		return l.ctrl.SetTargets(targets)

	case CmdEnable:
		if len(payload) != 1 {
			return fmt.Errorf("actuator: enable payload must be 1 byte")
		}
		l.ctrl.Enable(payload[0] == 1)
		return nil

	case CmdEmergencyStop:
		l.ctrl.EmergencyStop()
		return nil

	case CmdGetStatus:
		return nil // status is polled directly off the simulator

	case CmdCalibrate:
		// The firmware homes asynchronously and keeps servicing commands.
		go l.ctrl.Calibrate(context.Background())
		return nil

	case CmdSetSpeed:
		if len(payload) != 4 {
			return fmt.Errorf("actuator: set-speed payload must be 4 bytes")
		}
		l.ctrl.SetSpeed(float64(math.Float32frombits(binary.LittleEndian.Uint32(payload))))
		return nil

	default:
		return fmt.Errorf("actuator: unknown command 0x%02X", byte(cmd))
	}
}

// SetTargets sends a set-target frame, positions in mm.
func (l *Link) SetTargets(targetsMM []float64) error {
	payload := make([]byte, len(targetsMM)*4)
	for i, t := range targetsMM {
		binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(float32(t)))
	}
	return l.Send(CmdSetTarget, payload)
}

// Enable sends an enable or disable frame.
func (l *Link) Enable(on bool) error {
	b := byte(0)
	if on {
		b = 1
	}
	return l.Send(CmdEnable, []byte{b})
}

// EmergencyStop sends an emergency stop frame.
func (l *Link) EmergencyStop() error {
	return l.Send(CmdEmergencyStop, nil)
}

// Calibrate sends a calibrate frame; the firmware homes in the background.
func (l *Link) Calibrate() error {
	return l.Send(CmdCalibrate, nil)
}

// SetSpeed sends a set-speed frame, in mm/s.
func (l *Link) SetSpeed(speed float64) error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, math.Float32bits(float32(speed)))
	return l.Send(CmdSetSpeed, payload)
}

// Controller returns the simulated controller behind the link, or nil when
// the link is attached to a real port.
func (l *Link) Controller() *Controller { return l.ctrl }
