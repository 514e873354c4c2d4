package imu

import (
	"encoding/binary"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePacket_FlatJSON(t *testing.T) {
	a, ok := parsePacket([]byte(`{"roll": 1.5, "pitch": -2.25, "yaw": 30}`))
	require.True(t, ok)
	assert.Equal(t, 1.5, a.roll)
	assert.Equal(t, -2.25, a.pitch)
	assert.Equal(t, 30.0, a.yaw)
}

func TestParsePacket_AttitudeJSON(t *testing.T) {
	a, ok := parsePacket([]byte(`{"attitude": {"roll": 4, "pitch": 5, "yaw": 6}}`))
	require.True(t, ok)
	assert.Equal(t, 4.0, a.roll)
	assert.Equal(t, 5.0, a.pitch)
	assert.Equal(t, 6.0, a.yaw)
}

func TestParsePacket_MotionRadians(t *testing.T) {
	a, ok := parsePacket([]byte(`{"motion": {"attitude": {"roll": 0.5, "pitch": 0, "yaw": 0}}}`))
	require.True(t, ok)
	assert.InDelta(t, 0.5*180/math.Pi, a.roll, 1e-9)
}

func TestParsePacket_Binary(t *testing.T) {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(float32(math.Pi/6)))  // 30 deg roll
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(float32(-math.Pi/4))) // -45 deg pitch
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(0))

	a, ok := parsePacket(buf)
	require.True(t, ok)
	assert.InDelta(t, 30, a.roll, 1e-4)
	assert.InDelta(t, -45, a.pitch, 1e-4)
	assert.InDelta(t, 0, a.yaw, 1e-9)
}

func TestParsePacket_Garbage(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("not json"),
		[]byte(`{"rotationRate": {"x": 1}}`),
		[]byte{0x01, 0x02, 0x03}, // wrong length for binary
		nil,
	} {
		_, ok := parsePacket(data)
		assert.False(t, ok, "packet %q should not parse", data)
	}
}

func TestParseJSON_SensorLoggerPayload(t *testing.T) {
	body := []byte(`{
		"messageId": 42,
		"sessionId": "abc",
		"payload": [
			{"name": "accelerometer", "values": {"x": 0.1, "y": 0.2, "z": 9.8}},
			{"name": "orientation", "values": {"roll": 0.1, "pitch": -0.05, "yaw": 1.0}}
		]
	}`)
	a, ok := parseJSON(body)
	require.True(t, ok)
	assert.InDelta(t, 0.1*180/math.Pi, a.roll, 1e-9)
	assert.InDelta(t, -0.05*180/math.Pi, a.pitch, 1e-9)
	assert.InDelta(t, 1.0*180/math.Pi, a.yaw, 1e-9)
}

func TestParseJSON_SensorLoggerQuaternion(t *testing.T) {
	// 90 degree yaw about Z: q = (cos45, 0, 0, sin45).
	s := math.Sqrt2 / 2
	body := []byte(`{"payload": [{"name": "orientation", "values": {` +
		`"qw": ` + formatFloat(s) + `, "qx": 0, "qy": 0, "qz": ` + formatFloat(s) + `}}]}`)

	a, ok := parseJSON(body)
	require.True(t, ok)
	assert.InDelta(t, 0, a.roll, 1e-6)
	assert.InDelta(t, 0, a.pitch, 1e-6)
	assert.InDelta(t, 90, a.yaw, 1e-6)
}

func TestQuaternionToEuler(t *testing.T) {
	tests := []struct {
		name             string
		w, x, y, z       float64
		roll, pitch, yaw float64
	}{
		{"identity", 1, 0, 0, 0, 0, 0, 0},
		{"90 roll", math.Sqrt2 / 2, math.Sqrt2 / 2, 0, 0, 90, 0, 0},
		{"90 pitch", math.Sqrt2 / 2, 0, math.Sqrt2 / 2, 0, 0, 90, 0},
		{"-90 yaw", math.Sqrt2 / 2, 0, 0, -math.Sqrt2 / 2, 0, 0, -90},
	}

	for _, tt := range tests {
		r, p, y := quaternionToEuler(tt.w, tt.x, tt.y, tt.z)
		assert.InDelta(t, tt.roll, r, 1e-6, "%s roll", tt.name)
		assert.InDelta(t, tt.pitch, p, 1e-6, "%s pitch", tt.name)
		assert.InDelta(t, tt.yaw, y, 1e-6, "%s yaw", tt.name)
	}
}

func TestSample_Radians(t *testing.T) {
	s := Sample{Roll: 180, Pitch: -90, Yaw: 45}
	r, p, y := s.Radians()
	assert.InDelta(t, math.Pi, r, 1e-12)
	assert.InDelta(t, -math.Pi/2, p, 1e-12)
	assert.InDelta(t, math.Pi/4, y, 1e-12)
}

func TestSample_TiltMagnitude(t *testing.T) {
	s := Sample{Roll: 3, Pitch: 4}
	assert.InDelta(t, 5, s.TiltMagnitude(), 1e-12)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
