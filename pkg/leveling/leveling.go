// Package leveling ties the IMU source, the kinematics solver and the
// actuator link into a leveling loop.
package leveling

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/thebibbi/leveling/pkg/actuator"
	"github.com/thebibbi/leveling/pkg/imu"
	"github.com/thebibbi/leveling/pkg/kinematics"
)

// Tuning controls when and how fast the loop corrects.
type Tuning struct {
	LevelThreshold    float64 `json:"level_threshold"`     // degrees of tilt considered level
	UpdateHz          float64 `json:"update_hz"`           // auto-level loop rate
	Deadband          float64 `json:"deadband"`            // degrees, ignore smaller orientation changes
	MaxCorrectionRate float64 `json:"max_correction_rate"` // degrees per second
}

// DefaultTuning returns the tuning used on the reference rig.
func DefaultTuning() Tuning {
	return Tuning{
		LevelThreshold:    2.0,
		UpdateHz:          2.0,
		Deadband:          0.5,
		MaxCorrectionRate: 5.0,
	}
}

// ErrNoSample is returned by LevelOnce when the IMU has not produced a
// sample yet.
var ErrNoSample = errors.New("leveling: no IMU sample available")

// ErrOutOfReach is returned by LevelOnce when the corrective solution falls
// outside the actuator travel.
var ErrOutOfReach = errors.New("leveling: solution outside actuator limits")

// State is one snapshot published on the States channel.
type State struct {
	Sample    imu.Sample
	HasSample bool
	Lengths   kinematics.Lengths
	Valid     bool
	Timestamp time.Time
	Error     error
}

// System runs the leveling loop: read the latest orientation, compute the
// corrective leg lengths, and command the actuators.
type System struct {
	solver kinematics.Solver
	source imu.Source
	link   *actuator.Link
	tuning Tuning

	mu              sync.Mutex
	levelingEnabled bool
	autoLevel       bool
	lastOrientation [3]float64
	running         bool

	stateCh chan State
	logCh   chan string
}

// NewSystem wires a solver, an orientation source and an actuator link
// together. Zero fields of tuning fall back to DefaultTuning values.
func NewSystem(solver kinematics.Solver, source imu.Source, link *actuator.Link, tuning Tuning) *System {
	def := DefaultTuning()
	if tuning.LevelThreshold <= 0 {
		tuning.LevelThreshold = def.LevelThreshold
	}
	if tuning.UpdateHz <= 0 {
		tuning.UpdateHz = def.UpdateHz
	}
	if tuning.Deadband <= 0 {
		tuning.Deadband = def.Deadband
	}
	if tuning.MaxCorrectionRate <= 0 {
		tuning.MaxCorrectionRate = def.MaxCorrectionRate
	}
	return &System{
		solver:  solver,
		source:  source,
		link:    link,
		tuning:  tuning,
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}
}

// Solver returns the kinematics solver the system was built with.
func (s *System) Solver() kinematics.Solver { return s.solver }

// Source returns the orientation source the system was built with.
func (s *System) Source() imu.Source { return s.source }

// Tuning returns the effective tuning.
func (s *System) Tuning() Tuning { return s.tuning }

// States returns a channel that receives state updates. Old states are
// dropped when the consumer lags.
func (s *System) States() <-chan State { return s.stateCh }

// Logs returns a channel that receives log messages.
func (s *System) Logs() <-chan string { return s.logCh }

func (s *System) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case s.logCh <- msg:
	default:
		// Drop if channel full
	}
}

func (s *System) sendState(st State) {
	select {
	case s.stateCh <- st:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-s.stateCh:
		default:
		}
		s.stateCh <- st
	}
}

// Start runs the auto-level loop until ctx is cancelled. The IMU source must
// already be started. Corrections are only applied while both leveling and
// auto-leveling are enabled; the loop keeps publishing state either way so
// the UI stays live.
func (s *System) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("leveling: already running")
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.log("Leveling loop started at %.1f Hz (%s, %d legs)",
		s.tuning.UpdateHz, s.solver.Variant(), s.solver.Legs())

	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.tuning.UpdateHz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log("Leveling loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.stepAuto()
		}
	}
}

func (s *System) stepAuto() {
	sample, ok := s.source.Latest()
	if !ok {
		s.sendState(State{Timestamp: time.Now()})
		return
	}

	roll, pitch, yaw := sample.Radians()
	lengths, valid := s.solver.Level(roll, pitch, yaw)
	s.sendState(State{
		Sample:    sample,
		HasSample: true,
		Lengths:   lengths,
		Valid:     valid,
		Timestamp: time.Now(),
	})

	s.mu.Lock()
	enabled := s.levelingEnabled && s.autoLevel
	last := s.lastOrientation
	s.mu.Unlock()
	if !enabled {
		return
	}

	// Deadband: skip corrections for orientation jitter.
	dr := sample.Roll - last[0]
	dp := sample.Pitch - last[1]
	dy := sample.Yaw - last[2]
	if dr*dr+dp*dp+dy*dy < s.tuning.Deadband*s.tuning.Deadband {
		return
	}
	if sample.TiltMagnitude() < s.tuning.LevelThreshold {
		return
	}

	if err := s.LevelOnce(); err != nil {
		s.log("Auto-level: %v", err)
		return
	}
	s.mu.Lock()
	s.lastOrientation = [3]float64{sample.Roll, sample.Pitch, sample.Yaw}
	s.mu.Unlock()
}

// LevelOnce performs a single leveling correction from the latest IMU
// sample. A tilt below the threshold is a no-op. Returns ErrOutOfReach when
// the corrective lengths cannot be realized; the actuators are then left
// where they are.
func (s *System) LevelOnce() error {
	sample, ok := s.source.Latest()
	if !ok {
		return ErrNoSample
	}

	tilt := sample.TiltMagnitude()
	if tilt < s.tuning.LevelThreshold {
		s.log("Platform already level (tilt %.2f deg)", tilt)
		return nil
	}

	roll, pitch, yaw := sample.Radians()
	lengths, valid := s.solver.Level(roll, pitch, yaw)
	if !valid {
		return fmt.Errorf("%w (roll %.2f, pitch %.2f)", ErrOutOfReach, sample.Roll, sample.Pitch)
	}

	// Solver lengths are meters; the wire protocol speaks millimeters.
	targetsMM := make([]float64, len(lengths))
	for i, l := range lengths {
		targetsMM[i] = l * 1000
	}
	if err := s.link.SetTargets(targetsMM); err != nil {
		return fmt.Errorf("send targets: %w", err)
	}

	s.log("Leveling: tilt %.2f deg, targets %v mm", tilt, roundAll(targetsMM))
	return nil
}

// EnableLeveling switches the actuators on or off and records the intent.
func (s *System) EnableLeveling(on bool) error {
	if err := s.link.Enable(on); err != nil {
		return err
	}
	s.mu.Lock()
	s.levelingEnabled = on
	s.mu.Unlock()
	if on {
		s.log("Leveling ENABLED")
	} else {
		s.log("Leveling DISABLED")
	}
	return nil
}

// LevelingEnabled reports whether corrections may be applied.
func (s *System) LevelingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levelingEnabled
}

// EnableAutoLevel switches continuous correction on or off.
func (s *System) EnableAutoLevel(on bool) {
	s.mu.Lock()
	s.autoLevel = on
	s.mu.Unlock()
	if on {
		s.log("Auto-leveling ENABLED")
	} else {
		s.log("Auto-leveling DISABLED")
	}
}

// AutoLevelEnabled reports whether the loop corrects continuously.
func (s *System) AutoLevelEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoLevel
}

// CalibrateIMU makes the current orientation the IMU's zero reference.
func (s *System) CalibrateIMU() bool {
	ok := s.source.Calibrate()
	if ok {
		s.log("IMU calibrated: current orientation is the new zero")
	} else {
		s.log("IMU calibration skipped: no sample received yet")
	}
	return ok
}

// CalibrateActuators homes the actuators to the retracted position.
func (s *System) CalibrateActuators() error {
	s.log("Homing actuators...")
	return s.link.Calibrate()
}

// Status is a combined snapshot of the IMU and the actuators.
type Status struct {
	LevelingEnabled  bool
	AutoLevelEnabled bool
	Sample           imu.Sample
	HasSample        bool
	Actuators        *actuator.Status // nil when driving a real serial port
}

// Status returns a combined snapshot. Actuator state is only observable in
// simulated mode; over a real link it would require a status poll.
func (s *System) Status() Status {
	st := Status{
		LevelingEnabled:  s.LevelingEnabled(),
		AutoLevelEnabled: s.AutoLevelEnabled(),
	}
	st.Sample, st.HasSample = s.source.Latest()
	if ctrl := s.link.Controller(); ctrl != nil {
		cs := ctrl.Status()
		st.Actuators = &cs
	}
	return st
}

// Close disables the actuators and stops the IMU source.
func (s *System) Close() error {
	var errs []error
	if err := s.EnableLeveling(false); err != nil {
		errs = append(errs, err)
	}
	if err := s.source.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := s.link.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func roundAll(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = math.Round(v*10) / 10
	}
	return out
}
