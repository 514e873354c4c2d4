// Package imu receives orientation samples streamed from a phone IMU app.
//
// Two transports are supported: raw UDP datagrams (imu_streamer style apps)
// and HTTP POST (Sensor Logger). Both keep only the most recent sample;
// Latest never blocks and reports false until the first packet arrives.
// Angles are degrees at this boundary; callers convert to radians before
// handing them to the kinematics solver.
package imu

import (
	"math"
	"time"
)

// Sample is one orientation measurement, in degrees.
type Sample struct {
	Roll  float64   `json:"roll"`
	Pitch float64   `json:"pitch"`
	Yaw   float64   `json:"yaw"`
	Time  time.Time `json:"time"`
}

// Radians returns the sample angles converted to radians.
func (s Sample) Radians() (roll, pitch, yaw float64) {
	const toRad = math.Pi / 180
	return s.Roll * toRad, s.Pitch * toRad, s.Yaw * toRad
}

// TiltMagnitude returns the combined roll/pitch tilt in degrees.
func (s Sample) TiltMagnitude() float64 {
	return math.Sqrt(s.Roll*s.Roll + s.Pitch*s.Pitch)
}

// Source supplies periodic orientation samples.
//
// Implementations run their own receive loop between Start and Stop. Latest
// is the non-blocking "most recent sample or none" contract; Calibrate makes
// the current orientation the zero reference for subsequent samples and
// reports whether a sample was available to calibrate against.
type Source interface {
	Start() error
	Stop() error
	Latest() (Sample, bool)
	Calibrate() bool
}

// offsets is the shared zero-reference state of a streamer. Calibration
// accumulates, so re-calibrating after a drift shifts the reference again.
type offsets struct {
	roll, pitch, yaw float64
}

func (o *offsets) apply(roll, pitch, yaw float64) Sample {
	return Sample{
		Roll:  roll - o.roll,
		Pitch: pitch - o.pitch,
		Yaw:   yaw - o.yaw,
		Time:  time.Now(),
	}
}

func (o *offsets) rezero(s Sample) {
	o.roll += s.Roll
	o.pitch += s.Pitch
	o.yaw += s.Yaw
}
