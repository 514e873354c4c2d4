// Package actuator simulates the ESP32 actuator controller of the leveling
// rig and implements its binary serial protocol.
//
// The Controller models N linear actuators that slew toward their targets at
// a fixed speed, with limit switches at both ends of the travel. In
// production the same protocol frames drive the real firmware over a serial
// port; the simulator stands in for it during development and tests.
package actuator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Positions and speeds are millimeters and millimeters per second throughout
// this package, matching the firmware's units.

// State is the live state of a single actuator.
type State struct {
	Position float64 // mm
	Target   float64 // mm
	Speed    float64 // mm/s
	Current  float64 // amps, simulated draw
	LimitMin bool
	LimitMax bool
	Enabled  bool
}

// Status is a snapshot of the whole controller.
type Status struct {
	Positions     []float64 `json:"positions"`
	Targets       []float64 `json:"targets"`
	Currents      []float64 `json:"currents"`
	Enabled       []bool    `json:"enabled"`
	LimitMin      []bool    `json:"limit_min"`
	LimitMax      []bool    `json:"limit_max"`
	EmergencyStop bool      `json:"emergency_stop"`
	Calibrated    bool      `json:"calibrated"`
}

const (
	defaultSpeed  = 20.0 // mm/s
	updateRate    = 50   // Hz
	settleBand    = 0.5  // mm, close enough to target
	holdingAmps   = 0.1
	movingAmpBase = 0.5
)

// Controller simulates the actuator firmware's control loop.
type Controller struct {
	minPos float64 // mm
	maxPos float64 // mm

	mu         sync.Mutex
	legs       []State
	estop      bool
	calibrated bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewController creates a controller for n actuators whose travel spans
// [minPos, maxPos] millimeters. All actuators start fully retracted,
// disabled, with the min limit switch engaged.
func NewController(n int, minPos, maxPos float64) *Controller {
	legs := make([]State, n)
	for i := range legs {
		legs[i] = State{
			Position: minPos,
			Target:   minPos,
			Speed:    defaultSpeed,
			LimitMin: true,
		}
	}
	return &Controller{minPos: minPos, maxPos: maxPos, legs: legs}
}

// Legs returns the number of actuators.
func (c *Controller) Legs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.legs)
}

// Start launches the control loop. Stop it with Stop.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return
	}
	c.done = make(chan struct{})
	c.wg.Add(1)
	go c.controlLoop()
}

// Stop halts the control loop and waits for it to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	done := c.done
	c.done = nil
	c.mu.Unlock()
	if done == nil {
		return
	}
	close(done)
	c.wg.Wait()
}

func (c *Controller) controlLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(time.Second / updateRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		c.mu.Lock()
		done := c.done
		c.mu.Unlock()
		if done == nil {
			return
		}
		select {
		case <-done:
			return
		case now := <-ticker.C:
			c.step(now.Sub(last).Seconds())
			last = now
		}
	}
}

// step advances every enabled actuator by dt seconds. Exposed within the
// package so tests can drive the simulation without real time passing.
func (c *Controller) step(dt float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.estop {
		return
	}
	for i := range c.legs {
		if c.legs[i].Enabled {
			c.updateLeg(&c.legs[i], dt)
		}
	}
}

func (c *Controller) updateLeg(leg *State, dt float64) {
	err := leg.Target - leg.Position
	if err > -settleBand && err < settleBand {
		leg.Current = holdingAmps
		return
	}

	move := err
	maxMove := leg.Speed * dt
	if move > maxMove {
		move = maxMove
	} else if move < -maxMove {
		move = -maxMove
	}

	pos := leg.Position + move
	leg.LimitMin = pos <= c.minPos
	leg.LimitMax = pos >= c.maxPos
	if leg.LimitMin {
		pos = c.minPos
	}
	if leg.LimitMax {
		pos = c.maxPos
	}
	leg.Position = pos

	if move > 0.1 || move < -0.1 {
		abs := move
		if abs < 0 {
			abs = -abs
		}
		leg.Current = movingAmpBase + abs*0.1
	} else {
		leg.Current = holdingAmps
	}
}

// SetTargets sets the target position of every actuator, clamping each to
// the physical travel. The number of targets must match the actuator count.
func (c *Controller) SetTargets(targetsMM []float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(targetsMM) != len(c.legs) {
		return fmt.Errorf("actuator: expected %d targets, got %d", len(c.legs), len(targetsMM))
	}
	for i, target := range targetsMM {
		if target < c.minPos {
			target = c.minPos
		} else if target > c.maxPos {
			target = c.maxPos
		}
		c.legs[i].Target = target
	}
	return nil
}

// Enable switches torque on or off for all actuators.
func (c *Controller) Enable(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.legs {
		c.legs[i].Enabled = on
	}
}

// EmergencyStop freezes all motion and disables the actuators. Motion stays
// inhibited until ResetEmergencyStop.
func (c *Controller) EmergencyStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.estop = true
	for i := range c.legs {
		c.legs[i].Enabled = false
	}
}

// ResetEmergencyStop clears the emergency stop latch.
func (c *Controller) ResetEmergencyStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.estop = false
}

// SetSpeed sets the slew speed of all actuators, in mm/s.
func (c *Controller) SetSpeed(speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.legs {
		c.legs[i].Speed = speed
	}
}

// Positions returns the current position of every actuator in mm.
func (c *Controller) Positions() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]float64, len(c.legs))
	for i, leg := range c.legs {
		out[i] = leg.Position
	}
	return out
}

// Status returns a snapshot of the whole controller.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{
		Positions:     make([]float64, len(c.legs)),
		Targets:       make([]float64, len(c.legs)),
		Currents:      make([]float64, len(c.legs)),
		Enabled:       make([]bool, len(c.legs)),
		LimitMin:      make([]bool, len(c.legs)),
		LimitMax:      make([]bool, len(c.legs)),
		EmergencyStop: c.estop,
		Calibrated:    c.calibrated,
	}
	for i, leg := range c.legs {
		st.Positions[i] = leg.Position
		st.Targets[i] = leg.Target
		st.Currents[i] = leg.Current
		st.Enabled[i] = leg.Enabled
		st.LimitMin[i] = leg.LimitMin
		st.LimitMax[i] = leg.LimitMax
	}
	return st
}

// Calibrate homes every actuator to the fully retracted position and waits
// for the movement to finish, or for ctx to be cancelled.
func (c *Controller) Calibrate(ctx context.Context) error {
	c.Enable(true)

	c.mu.Lock()
	home := make([]float64, len(c.legs))
	for i := range home {
		home[i] = c.minPos
	}
	c.mu.Unlock()

	if err := c.SetTargets(home); err != nil {
		return err
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.atTargets(1.0) {
				c.mu.Lock()
				c.calibrated = true
				c.mu.Unlock()
				return nil
			}
		}
	}
}

func (c *Controller) atTargets(toleranceMM float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, leg := range c.legs {
		diff := leg.Position - leg.Target
		if diff < -toleranceMM || diff > toleranceMM {
			return false
		}
	}
	return true
}
