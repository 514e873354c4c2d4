package imu

import (
	"encoding/binary"
	"encoding/json"
	"math"
)

// angles is the wire-independent result of parsing one packet, in degrees.
type angles struct {
	roll, pitch, yaw float64
}

// parsePacket decodes a UDP datagram. JSON is tried first; a 12-byte packet
// of three little-endian float32 radians is the binary fallback used by the
// custom ESP32 firmware.
func parsePacket(data []byte) (angles, bool) {
	if a, ok := parseJSON(data); ok {
		return a, true
	}
	if len(data) == 12 {
		const toDeg = 180 / math.Pi
		r := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[0:4])))
		p := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4:8])))
		y := float64(math.Float32frombits(binary.LittleEndian.Uint32(data[8:12])))
		return angles{roll: r * toDeg, pitch: p * toDeg, yaw: y * toDeg}, true
	}
	return angles{}, false
}

type eulerJSON struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

type quaternionJSON struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type motionJSON struct {
	Attitude *eulerJSON `json:"attitude"`
}

// parseJSON handles the flat and nested orientation formats that streaming
// apps produce. Flat roll/pitch/yaw and attitude values are degrees; the iOS
// motion block and Sensor Logger payload entries report radians.
func parseJSON(data []byte) (angles, bool) {
	var msg struct {
		Roll       *float64        `json:"roll"`
		Pitch      *float64        `json:"pitch"`
		Yaw        float64         `json:"yaw"`
		Attitude   *eulerJSON      `json:"attitude"`
		Motion     *motionJSON     `json:"motion"`
		Quaternion *quaternionJSON `json:"quaternion"`
		Payload    []payloadEntry  `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return angles{}, false
	}

	switch {
	case msg.Roll != nil && msg.Pitch != nil:
		return angles{roll: *msg.Roll, pitch: *msg.Pitch, yaw: msg.Yaw}, true
	case msg.Attitude != nil:
		return angles{roll: msg.Attitude.Roll, pitch: msg.Attitude.Pitch, yaw: msg.Attitude.Yaw}, true
	case msg.Motion != nil && msg.Motion.Attitude != nil:
		att := msg.Motion.Attitude
		return radiansToAngles(att.Roll, att.Pitch, att.Yaw), true
	case msg.Quaternion != nil:
		q := msg.Quaternion
		r, p, y := quaternionToEuler(q.W, q.X, q.Y, q.Z)
		return angles{roll: r, pitch: p, yaw: y}, true
	case len(msg.Payload) > 0:
		return parsePayload(msg.Payload)
	}
	return angles{}, false
}

// payloadEntry is one sensor reading inside a Sensor Logger push batch.
type payloadEntry struct {
	Name   string `json:"name"`
	Values struct {
		Roll  *float64 `json:"roll"`
		Pitch *float64 `json:"pitch"`
		Yaw   float64  `json:"yaw"`
		QW    *float64 `json:"qw"`
		QX    float64  `json:"qx"`
		QY    float64  `json:"qy"`
		QZ    float64  `json:"qz"`
	} `json:"values"`
}

// parsePayload scans a Sensor Logger batch for an orientation entry. The app
// reports euler angles in radians, or a quaternion when euler output is off.
func parsePayload(entries []payloadEntry) (angles, bool) {
	for _, e := range entries {
		if e.Name != "orientation" && e.Name != "attitude" {
			continue
		}
		v := e.Values
		if v.Roll != nil && v.Pitch != nil {
			return radiansToAngles(*v.Roll, *v.Pitch, v.Yaw), true
		}
		if v.QW != nil {
			r, p, y := quaternionToEuler(*v.QW, v.QX, v.QY, v.QZ)
			return angles{roll: r, pitch: p, yaw: y}, true
		}
	}
	return angles{}, false
}

func radiansToAngles(roll, pitch, yaw float64) angles {
	const toDeg = 180 / math.Pi
	return angles{roll: roll * toDeg, pitch: pitch * toDeg, yaw: yaw * toDeg}
}

// quaternionToEuler converts a unit quaternion to roll/pitch/yaw in degrees.
func quaternionToEuler(w, x, y, z float64) (roll, pitch, yaw float64) {
	const toDeg = 180 / math.Pi

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll = math.Atan2(sinrCosp, cosrCosp) * toDeg

	sinp := 2 * (w*y - z*x)
	if math.Abs(sinp) >= 1 {
		pitch = math.Copysign(math.Pi/2, sinp) * toDeg
	} else {
		pitch = math.Asin(sinp) * toDeg
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw = math.Atan2(sinyCosp, cosyCosp) * toDeg
	return roll, pitch, yaw
}
