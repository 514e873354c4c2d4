package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/thebibbi/leveling/pkg/leveling"
)

type RunCommand struct {
	Platform string `long:"platform" default:"" description:"Platform variant (tripod, stewart_3dof, stewart_6dof)"`
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := loadRig(c.Platform)
	if err != nil {
		return err
	}

	sys, err := buildSystem(cfg)
	if err != nil {
		return err
	}
	defer sys.Close()

	if err := sys.Source().Start(); err != nil {
		return fmt.Errorf("start IMU source: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sys.Start(ctx)

	// Drain logs to the terminal between prompts.
	go func() {
		for msg := range sys.Logs() {
			fmt.Println(dimStyle.Render(msg))
		}
	}()

	fmt.Println(headerStyle.Render("Platform Leveling Shell"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Printf("Platform: %s   IMU: %s on %s   Actuators: %s\n",
		cfg.Platform, cfg.IMU.Transport, cfg.IMU.Listen, serialLabel(cfg.Serial))
	fmt.Println()
	printShellHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))

		switch cmd {
		case "":
			continue
		case "c":
			sys.CalibrateIMU()
		case "a":
			if err := sys.CalibrateActuators(); err != nil {
				fmt.Println(warnStyle.Render(err.Error()))
			}
		case "e":
			if err := sys.EnableLeveling(!sys.LevelingEnabled()); err != nil {
				fmt.Println(warnStyle.Render(err.Error()))
			}
		case "l":
			if !sys.LevelingEnabled() {
				fmt.Println("Enable leveling first (press 'e')")
				continue
			}
			if err := sys.LevelOnce(); err != nil {
				fmt.Println(warnStyle.Render(err.Error()))
			}
		case "auto":
			sys.EnableAutoLevel(!sys.AutoLevelEnabled())
		case "s":
			printStatus(sys)
		case "h", "help":
			printShellHelp()
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Println("Unknown command (h for help)")
		}
	}
	return scanner.Err()
}

func printShellHelp() {
	fmt.Println("Commands:")
	fmt.Println("  c     calibrate IMU (current orientation becomes zero)")
	fmt.Println("  a     calibrate actuators (home to retracted)")
	fmt.Println("  e     enable/disable leveling")
	fmt.Println("  l     level once")
	fmt.Println("  auto  enable/disable auto-leveling")
	fmt.Println("  s     show status")
	fmt.Println("  q     quit")
}

func printStatus(sys *leveling.System) {
	st := sys.Status()

	fmt.Println()
	fmt.Println(subHeaderStyle.Render("System Status"))
	fmt.Printf("  Leveling:   %s\n", onOff(st.LevelingEnabled))
	fmt.Printf("  Auto-level: %s\n", onOff(st.AutoLevelEnabled))

	if st.HasSample {
		fmt.Println("\n  IMU:")
		fmt.Printf("    Roll:  %7.2f°\n", st.Sample.Roll)
		fmt.Printf("    Pitch: %7.2f°\n", st.Sample.Pitch)
		fmt.Printf("    Yaw:   %7.2f°\n", st.Sample.Yaw)
		fmt.Printf("    Tilt:  %7.2f°\n", st.Sample.TiltMagnitude())
	} else {
		fmt.Println("\n  IMU: waiting for first sample")
	}

	if st.Actuators != nil {
		fmt.Println("\n  Actuators:")
		fmt.Printf("    Positions: %s mm\n", formatMM(st.Actuators.Positions))
		fmt.Printf("    Targets:   %s mm\n", formatMM(st.Actuators.Targets))
		if st.Actuators.EmergencyStop {
			fmt.Println(warnStyle.Render("    EMERGENCY STOP ACTIVE"))
		}
	}
	fmt.Println()
}

func onOff(b bool) string {
	if b {
		return successStyle.Render("ENABLED")
	}
	return dimStyle.Render("DISABLED")
}

func formatMM(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%.1f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func serialLabel(cfg leveling.SerialConfig) string {
	if cfg.Simulated || cfg.Port == "" {
		return "simulated"
	}
	return cfg.Port
}
