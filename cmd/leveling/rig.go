package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/thebibbi/leveling/pkg/actuator"
	"github.com/thebibbi/leveling/pkg/imu"
	"github.com/thebibbi/leveling/pkg/kinematics"
	"github.com/thebibbi/leveling/pkg/leveling"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// loadRig reads leveling.json, or falls back to the default simulated rig so
// every command works out of the box.
func loadRig(platform string) (leveling.RigConfig, error) {
	var cfg leveling.RigConfig
	if leveling.ConfigExists() {
		loaded, err := leveling.LoadConfig()
		if err != nil {
			return cfg, fmt.Errorf("load %s: %w", leveling.DefaultConfigFile, err)
		}
		cfg = *loaded
	} else {
		cfg = leveling.DefaultRigConfig()
	}
	if platform != "" {
		cfg.Platform = kinematics.Variant(platform)
	}
	return cfg, nil
}

// newSource builds the orientation source selected by the rig config.
func newSource(cfg leveling.IMUConfig) (imu.Source, error) {
	switch cfg.Transport {
	case "", "udp":
		return imu.NewUDPStreamer(cfg.Listen), nil
	case "http":
		return imu.NewHTTPStreamer(cfg.Listen), nil
	default:
		return nil, fmt.Errorf("unknown IMU transport %q (want udp or http)", cfg.Transport)
	}
}

// newLink builds the actuator link: a serial connection to the firmware, or
// the in-process simulator with the same leg count and travel as the solver.
func newLink(cfg leveling.SerialConfig, solver kinematics.Solver) (*actuator.Link, error) {
	if !cfg.Simulated && cfg.Port != "" {
		return actuator.Dial(cfg.Port, cfg.Baud)
	}
	geo := solver.Config()
	ctrl := actuator.NewController(solver.Legs(), geo.MinHeight*1000, geo.MaxLength()*1000)
	ctrl.Start()
	return actuator.Simulated(ctrl), nil
}

// buildSystem assembles the full leveling system for a rig config.
func buildSystem(cfg leveling.RigConfig) (*leveling.System, error) {
	solver, err := kinematics.New(cfg.Platform, cfg.Geometry)
	if err != nil {
		return nil, err
	}
	source, err := newSource(cfg.IMU)
	if err != nil {
		return nil, err
	}
	link, err := newLink(cfg.Serial, solver)
	if err != nil {
		return nil, err
	}
	return leveling.NewSystem(solver, source, link, cfg.Tuning), nil
}

func platformNames() []string {
	variants := kinematics.Variants()
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = string(v)
	}
	return names
}
