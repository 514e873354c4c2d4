package main

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/thebibbi/leveling/pkg/kinematics"
)

type CompareCommand struct{}

type compareCase struct {
	roll, pitch, yaw float64 // degrees
	desc             string
}

var compareCases = []compareCase{
	{0, 0, 0, "Level"},
	{5, 0, 0, "5° roll"},
	{0, 5, 0, "5° pitch"},
	{10, 10, 0, "10° roll + 10° pitch"},
	{15, 0, 0, "15° roll"},
	{0, 15, 0, "15° pitch"},
	{10, 10, 15, "10° roll + 10° pitch + 15° yaw"},
}

func (c *CompareCommand) Execute(args []string) error {
	cfg := kinematics.DefaultConfig()

	solvers := make([]kinematics.Solver, 0, 3)
	for _, v := range kinematics.Variants() {
		s, err := kinematics.New(v, cfg)
		if err != nil {
			return err
		}
		solvers = append(solvers, s)
	}

	fmt.Println(headerStyle.Render("Platform Configuration Comparison"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Printf("Platform: %.0fmm × %.0fmm   Height: %.0f-%.0fmm   Stroke: %.0fmm\n\n",
		cfg.Length*1000, cfg.Width*1000, cfg.MinHeight*1000, cfg.MaxHeight*1000, cfg.Stroke*1000)

	okCellStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	badCellStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerCellStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)

	var rows [][]string
	var rowValid []bool
	for _, tc := range compareCases {
		const toRad = math.Pi / 180
		for _, s := range solvers {
			// The tripod and 3-DOF rows mirror what those rigs would be
			// commanded: yaw only reaches the 6-DOF variant.
			yaw := tc.yaw
			if s.Variant() != kinematics.Stewart6DOF {
				yaw = 0
			}
			lengths, valid := s.Solve(tc.roll*toRad, tc.pitch*toRad, yaw*toRad)
			min, max := lengthBounds(lengths)

			verdict := "ok"
			if !valid {
				verdict = "OUT OF REACH"
			}
			rows = append(rows, []string{
				tc.desc,
				string(s.Variant()),
				fmt.Sprintf("%d", s.Legs()),
				fmt.Sprintf("%.1f", min*1000),
				fmt.Sprintf("%.1f", max*1000),
				fmt.Sprintf("%.1f", (max-min)*1000),
				verdict,
			})
			rowValid = append(rowValid, valid)
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Test", "Variant", "Legs", "Min (mm)", "Max (mm)", "Spread (mm)", "Result").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			if col == 6 && row >= 0 && row < len(rowValid) {
				if rowValid[row] {
					return okCellStyle
				}
				return badCellStyle
			}
			return cellStyle
		})

	fmt.Println(t.Render())
	fmt.Println()
	printEnvelopes(solvers)
	return nil
}

// printEnvelopes sweeps pitch until the solution leaves the actuator travel
// and reports the largest correctable tilt per variant.
func printEnvelopes(solvers []kinematics.Solver) {
	fmt.Println(subHeaderStyle.Render("Maximum correctable pitch"))
	for _, s := range solvers {
		maxDeg := 0.0
		for d := 0.5; d <= 45; d += 0.5 {
			if _, valid := s.Solve(0, d*math.Pi/180, 0); !valid {
				break
			}
			maxDeg = d
		}
		fmt.Printf("  %-13s %5.1f°\n", s.Variant(), maxDeg)
	}
}

func lengthBounds(lengths kinematics.Lengths) (min, max float64) {
	min, max = lengths[0], lengths[0]
	for _, l := range lengths[1:] {
		if l < min {
			min = l
		}
		if l > max {
			max = l
		}
	}
	return min, max
}
