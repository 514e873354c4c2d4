package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/thebibbi/leveling/pkg/imu"
	"github.com/thebibbi/leveling/pkg/kinematics"
)

type VisualizeCommand struct {
	Platform string  `long:"platform" default:"" description:"Platform variant (tripod, stewart_3dof, stewart_6dof)"`
	Hz       int     `long:"hz" default:"30" description:"Refresh rate"`
	Step     float64 `long:"step" default:"1" description:"Keyboard nudge in degrees"`
}

const (
	visHeaderHeight = 3 // title + orientation row + blank
	visFooterHeight = 4 // help + status box
	visBorderSize   = 2
)

// One distinct color per leg, matching the chart legend.
var legColors = []string{"196", "208", "226", "46", "51", "201"}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	invalidStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

type visModel struct {
	solver  kinematics.Solver
	source  imu.Source
	chart   *streamlinechart.Model
	stepDeg float64
	hz      int

	width, height int
	manual        [3]float64 // roll, pitch, yaw in degrees, keyboard-driven
	fromIMU       bool
	leveling      bool // render corrective lengths instead of commanded ones
	lengths       kinematics.Lengths
	valid         bool
	sample        imu.Sample
	haveSample    bool
	quitting      bool
}

type visTickMsg struct{}

func newVisModel(solver kinematics.Solver, source imu.Source, stepDeg float64, hz int) visModel {
	geo := solver.Config()
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(geo.MinHeight*1000-50, geo.MaxLength()*1000+50),
	)
	for i := 0; i < solver.Legs(); i++ {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(legColors[i]))
		chart.SetDataSetStyles(legName(i), runes.ThinLineStyle, style)
	}
	if hz <= 0 {
		hz = 30
	}
	return visModel{
		solver:  solver,
		source:  source,
		chart:   &chart,
		stepDeg: stepDeg,
		hz:      hz,
	}
}

func legName(i int) string { return fmt.Sprintf("leg%d", i+1) }

func (m visModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.hz), func(time.Time) tea.Msg {
		return visTickMsg{}
	})
}

func (m visModel) Init() tea.Cmd {
	return m.tick()
}

func (m *visModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = m.width - visBorderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - visHeaderHeight - visFooterHeight - visBorderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *visModel) refresh() {
	roll, pitch, yaw := m.manual[0], m.manual[1], m.manual[2]
	if s, ok := m.source.Latest(); ok {
		m.sample, m.haveSample = s, true
		roll, pitch, yaw = s.Roll, s.Pitch, s.Yaw
		m.fromIMU = true
	} else {
		m.fromIMU = false
	}

	const toRad = math.Pi / 180
	if m.leveling {
		m.lengths, m.valid = m.solver.Level(roll*toRad, pitch*toRad, yaw*toRad)
	} else {
		m.lengths, m.valid = m.solver.Solve(roll*toRad, pitch*toRad, yaw*toRad)
	}

	for i, l := range m.lengths {
		m.chart.PushDataSet(legName(i), l*1000)
	}
	m.chart.DrawAll()
}

func (m visModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.chartSize()
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "left":
			m.manual[0] -= m.stepDeg
		case "right":
			m.manual[0] += m.stepDeg
		case "up":
			m.manual[1] += m.stepDeg
		case "down":
			m.manual[1] -= m.stepDeg
		case "y":
			m.manual[2] += m.stepDeg
		case "u":
			m.manual[2] -= m.stepDeg
		case "l":
			m.leveling = !m.leveling
		case "c":
			m.source.Calibrate()
		case "0":
			m.manual = [3]float64{}
		}
		return m, nil

	case visTickMsg:
		m.refresh()
		return m, m.tick()
	}

	return m, nil
}

func (m visModel) View() string {
	if m.quitting {
		return "Visualizer stopped.\n"
	}

	var sb strings.Builder

	mode := "solve"
	if m.leveling {
		mode = "level"
	}
	src := "keyboard"
	if m.fromIMU {
		src = "IMU"
	}

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Platform Visualizer — %s", m.solver.Variant())))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%s mode, %s input]", mode, src)))
	sb.WriteString("\n")

	roll, pitch, yaw := m.manual[0], m.manual[1], m.manual[2]
	if m.fromIMU {
		roll, pitch, yaw = m.sample.Roll, m.sample.Pitch, m.sample.Yaw
	}
	sb.WriteString(fmt.Sprintf("Roll %7.2f°  Pitch %7.2f°  Yaw %7.2f°   ", roll, pitch, yaw))
	if m.valid {
		sb.WriteString(successStyle.Render("in reach"))
	} else {
		sb.WriteString(invalidStyle.Render("OUT OF REACH"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	sb.WriteString(m.renderLegend())
	sb.WriteString("\n")

	sb.WriteString(statusStyle.Render(
		"←/→ roll  ↑/↓ pitch  y/u yaw  l level mode  c calibrate IMU  0 reset  q quit"))
	sb.WriteString("\n")

	return sb.String()
}

func (m visModel) renderLegend() string {
	var items []string
	for i := 0; i < m.solver.Legs(); i++ {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(legColors[i])).Bold(true)
		item := colorStyle.Render("━━") + " " + legName(i)
		if i < len(m.lengths) {
			item += fmt.Sprintf(" %.0fmm", m.lengths[i]*1000)
		}
		items = append(items, item)
	}
	return strings.Join(items, "  ")
}

func (c *VisualizeCommand) Execute(args []string) error {
	cfg, err := loadRig(c.Platform)
	if err != nil {
		return err
	}

	solver, err := kinematics.New(cfg.Platform, cfg.Geometry)
	if err != nil {
		return err
	}
	source, err := newSource(cfg.IMU)
	if err != nil {
		return err
	}
	if err := source.Start(); err != nil {
		return fmt.Errorf("start IMU source: %w", err)
	}
	defer source.Stop()

	p := tea.NewProgram(newVisModel(solver, source, c.Step, c.Hz), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run visualizer: %w", err)
	}
	return nil
}
