package leveling

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebibbi/leveling/pkg/actuator"
	"github.com/thebibbi/leveling/pkg/imu"
	"github.com/thebibbi/leveling/pkg/kinematics"
)

// fakeSource hands out a scripted sample.
type fakeSource struct {
	mu     sync.Mutex
	sample *imu.Sample
}

func (f *fakeSource) Start() error { return nil }
func (f *fakeSource) Stop() error  { return nil }

func (f *fakeSource) Latest() (imu.Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sample == nil {
		return imu.Sample{}, false
	}
	return *f.sample, true
}

func (f *fakeSource) Calibrate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sample != nil
}

func (f *fakeSource) set(roll, pitch, yaw float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sample = &imu.Sample{Roll: roll, Pitch: pitch, Yaw: yaw, Time: time.Now()}
}

func newTestSystem(t *testing.T, variant kinematics.Variant) (*System, *fakeSource, *actuator.Controller) {
	t.Helper()
	cfg := kinematics.DefaultConfig()
	solver, err := kinematics.New(variant, cfg)
	require.NoError(t, err)

	ctrl := actuator.NewController(solver.Legs(), cfg.MinHeight*1000, cfg.MaxLength()*1000)
	src := &fakeSource{}
	sys := NewSystem(solver, src, actuator.Simulated(ctrl), DefaultTuning())
	return sys, src, ctrl
}

func TestLevelOnce_NoSample(t *testing.T) {
	sys, _, _ := newTestSystem(t, kinematics.Tripod)
	assert.ErrorIs(t, sys.LevelOnce(), ErrNoSample)
}

func TestLevelOnce_BelowThresholdIsNoop(t *testing.T) {
	sys, src, ctrl := newTestSystem(t, kinematics.Tripod)
	src.set(0.5, 0.5, 0) // under the 2 degree threshold

	require.NoError(t, sys.LevelOnce())
	st := ctrl.Status()
	assert.Equal(t, []float64{300, 300, 300}, st.Targets, "targets untouched")
}

func TestLevelOnce_SendsCorrectiveTargets(t *testing.T) {
	sys, src, ctrl := newTestSystem(t, kinematics.Stewart6DOF)
	src.set(4, -3, 5)

	require.NoError(t, sys.LevelOnce())

	// The controller targets must match the solver's corrective lengths.
	sample, ok := src.Latest()
	require.True(t, ok)
	roll, pitch, yaw := sample.Radians()
	want, valid := sys.Solver().Level(roll, pitch, yaw)
	require.True(t, valid)

	st := ctrl.Status()
	require.Len(t, st.Targets, 6)
	for i, w := range want {
		assert.InDelta(t, w*1000, st.Targets[i], 0.1, "leg %d", i) // float32 on the wire
	}
}

func TestLevelOnce_OutOfReach(t *testing.T) {
	sys, src, ctrl := newTestSystem(t, kinematics.Tripod)
	src.set(0, 45, 0)

	assert.ErrorIs(t, sys.LevelOnce(), ErrOutOfReach)
	st := ctrl.Status()
	assert.Equal(t, []float64{300, 300, 300}, st.Targets, "invalid solution not sent")
}

func TestEnableLeveling_DrivesActuators(t *testing.T) {
	sys, _, ctrl := newTestSystem(t, kinematics.Tripod)

	require.NoError(t, sys.EnableLeveling(true))
	assert.True(t, sys.LevelingEnabled())
	assert.Equal(t, []bool{true, true, true}, ctrl.Status().Enabled)

	require.NoError(t, sys.EnableLeveling(false))
	assert.False(t, sys.LevelingEnabled())
	assert.Equal(t, []bool{false, false, false}, ctrl.Status().Enabled)
}

func TestStatus_Snapshot(t *testing.T) {
	sys, src, _ := newTestSystem(t, kinematics.Stewart3DOF)

	st := sys.Status()
	assert.False(t, st.HasSample)
	require.NotNil(t, st.Actuators)
	assert.Len(t, st.Actuators.Positions, 6)

	src.set(1, 2, 3)
	st = sys.Status()
	assert.True(t, st.HasSample)
	assert.Equal(t, 1.0, st.Sample.Roll)
}

func TestNewSystem_TuningDefaults(t *testing.T) {
	sys, _, _ := newTestSystem(t, kinematics.Tripod)
	assert.Equal(t, DefaultTuning(), sys.Tuning())

	solver := sys.Solver()
	partial := NewSystem(solver, &fakeSource{}, actuator.Simulated(actuator.NewController(3, 300, 700)),
		Tuning{LevelThreshold: 1})
	assert.Equal(t, 1.0, partial.Tuning().LevelThreshold)
	assert.Equal(t, DefaultTuning().UpdateHz, partial.Tuning().UpdateHz)
}

func TestRigConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leveling.json")

	cfg := DefaultRigConfig()
	cfg.Platform = kinematics.Stewart6DOF
	cfg.Serial = SerialConfig{Port: "/dev/ttyUSB0", Baud: 115200}
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}

func TestLoadConfigFrom_Missing(t *testing.T) {
	_, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestStepAuto_PublishesStateWithoutSample(t *testing.T) {
	sys, _, _ := newTestSystem(t, kinematics.Tripod)

	sys.stepAuto()
	st := <-sys.States()
	assert.False(t, st.HasSample)
	assert.False(t, st.Timestamp.IsZero())
}

func TestStepAuto_CorrectsOnlyWhenAutoEnabled(t *testing.T) {
	sys, src, ctrl := newTestSystem(t, kinematics.Tripod)
	src.set(4, -3, 0)

	// Auto-level off: the state still streams, the actuators stay put.
	sys.stepAuto()
	st := <-sys.States()
	assert.True(t, st.HasSample)
	assert.True(t, st.Valid)
	assert.Equal(t, []float64{300, 300, 300}, ctrl.Status().Targets)

	require.NoError(t, sys.EnableLeveling(true))
	sys.EnableAutoLevel(true)
	sys.stepAuto()

	roll, pitch, yaw := st.Sample.Radians()
	want, valid := sys.Solver().Level(roll, pitch, yaw)
	require.True(t, valid)
	targets := ctrl.Status().Targets
	for i, w := range want {
		assert.InDelta(t, w*1000, targets[i], 0.1, "leg %d", i)
	}
}

func TestStepAuto_DeadbandSkipsJitter(t *testing.T) {
	sys, src, ctrl := newTestSystem(t, kinematics.Tripod)
	require.NoError(t, sys.EnableLeveling(true))
	sys.EnableAutoLevel(true)

	src.set(4, -3, 0)
	sys.stepAuto()
	first := ctrl.Status().Targets
	assert.NotEqual(t, []float64{300, 300, 300}, first)

	// Sensor jitter below the 0.5 degree deadband is not re-corrected.
	src.set(4.1, -3.05, 0)
	sys.stepAuto()
	assert.Equal(t, first, ctrl.Status().Targets)

	// A real orientation change is.
	src.set(6, -3, 0)
	sys.stepAuto()
	assert.NotEqual(t, first, ctrl.Status().Targets)
}

func TestStepAuto_BelowThresholdHolds(t *testing.T) {
	sys, src, ctrl := newTestSystem(t, kinematics.Tripod)
	require.NoError(t, sys.EnableLeveling(true))
	sys.EnableAutoLevel(true)

	src.set(1, 0.5, 0) // past the deadband, under the 2 degree threshold
	sys.stepAuto()
	assert.Equal(t, []float64{300, 300, 300}, ctrl.Status().Targets)
}

func TestStates_DropOldest(t *testing.T) {
	sys, src, _ := newTestSystem(t, kinematics.Tripod)

	src.set(1, 0, 0)
	sys.stepAuto()
	src.set(2, 0, 0)
	sys.stepAuto()

	// A lagging consumer sees the newest snapshot, and only that one.
	st := <-sys.States()
	assert.Equal(t, 2.0, st.Sample.Roll)
	select {
	case <-sys.States():
		t.Fatal("more than one state buffered")
	default:
	}
}

func TestStart_TicksAndStops(t *testing.T) {
	cfg := kinematics.DefaultConfig()
	solver, err := kinematics.New(kinematics.Tripod, cfg)
	require.NoError(t, err)
	ctrl := actuator.NewController(solver.Legs(), cfg.MinHeight*1000, cfg.MaxLength()*1000)
	src := &fakeSource{}
	src.set(4, -3, 0)

	tuning := DefaultTuning()
	tuning.UpdateHz = 100
	sys := NewSystem(solver, src, actuator.Simulated(ctrl), tuning)
	require.NoError(t, sys.EnableLeveling(true))
	sys.EnableAutoLevel(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- sys.Start(ctx) }()

	select {
	case st := <-sys.States():
		assert.True(t, st.HasSample)
	case <-time.After(2 * time.Second):
		t.Fatal("running loop published no state")
	}

	// The front leg moves off its home position once the loop corrects.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && ctrl.Status().Targets[0] == 300 {
		time.Sleep(5 * time.Millisecond)
	}
	assert.NotEqual(t, 300.0, ctrl.Status().Targets[0])

	assert.Error(t, sys.Start(ctx), "second start rejected while running")

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}
