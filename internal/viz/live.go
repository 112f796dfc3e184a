package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/dynamics"
	"github.com/san-kum/rigidsim/internal/metrics"
	"github.com/san-kum/rigidsim/internal/scenario"
)

const (
	canvasWidth     = 64
	canvasHeight    = 20
	historyCapacity = 600
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

type TickMsg time.Time

// Model steps a scenario world in real time and renders the x/y plane
// on a braille canvas next to a live stats panel.
type Model struct {
	scn    scenario.Scenario
	cfg    *config.Config
	world  *dynamics.World
	canvas *Canvas

	energy *metrics.KineticEnergy
	drift  *metrics.ConstraintDrift

	energyHistory []float64
	running       bool
	showGraph     bool
	showHelp      bool
	stepErr       error
}

func NewModel(scn scenario.Scenario, cfg *config.Config) (Model, error) {
	world, err := scn.Build(cfg)
	if err != nil {
		return Model{}, err
	}

	return Model{
		scn:           scn,
		cfg:           cfg,
		world:         world,
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		energy:        metrics.NewKineticEnergy(),
		drift:         metrics.NewConstraintDrift(),
		energyHistory: make([]float64, 0, historyCapacity),
		running:       true,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if world, err := m.scn.Build(m.cfg); err == nil {
				m.world = world
				m.energyHistory = m.energyHistory[:0]
				m.drift.Reset()
				m.stepErr = nil
			}
		case "g":
			m.showGraph = !m.showGraph
		case "+", "=":
			m.canvas.Scale *= 1.2
		case "-", "_":
			m.canvas.Scale /= 1.2
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && m.stepErr == nil && m.world.Time() < m.cfg.Duration {
			if err := m.world.StepSimulation(m.cfg.Dt); err != nil {
				m.stepErr = err
			} else {
				m.observe()
			}
		}
		return m, tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) observe() {
	t := m.world.Time()
	m.energy.Reset()
	m.energy.Observe(m.world, t)
	m.drift.Observe(m.world, t)

	m.energyHistory = append(m.energyHistory, m.energy.Value())
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m Model) View() string {
	m.canvas.Clear()

	for _, c := range m.world.Constraints() {
		a := c.BodyA().CenterOfMassPosition()
		b := c.BodyB().CenterOfMassPosition()
		m.canvas.Link(a.X(), a.Y(), b.X(), b.Y())
	}
	for _, b := range m.world.Bodies() {
		p := b.CenterOfMassPosition()
		m.canvas.Mark(p.X(), p.Y())
	}

	view := headerStyle.Render(fmt.Sprintf("rigidsim live: %s", m.scn.Name())) + "\n"
	view += lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(m.statsView()),
	)

	if m.showGraph && len(m.energyHistory) > 1 {
		view += "\n" + graphStyle.Render(asciigraph.Plot(m.energyHistory,
			asciigraph.Height(8), asciigraph.Caption("kinetic energy")))
	}

	if m.stepErr != nil {
		view += "\n" + errorStyle.Render(fmt.Sprintf("step failed: %v", m.stepErr))
	}

	if m.showHelp {
		view += helpStyle.Render("\nspace pause  r reset  g graph  +/- zoom  q quit")
	} else {
		view += helpStyle.Render("\npress ? for help")
	}

	return view
}

func (m Model) statsView() string {
	asleep := 0
	for _, b := range m.world.Bodies() {
		if b.ActivationState() == dynamics.StateSleeping {
			asleep++
		}
	}

	status := "running"
	if !m.running {
		status = "paused"
	}
	if m.world.Time() >= m.cfg.Duration {
		status = "done"
	}

	rows := []struct {
		label, value string
	}{
		{"status", status},
		{"time", fmt.Sprintf("%.2f / %.2f s", m.world.Time(), m.cfg.Duration)},
		{"steps", fmt.Sprintf("%d", m.world.StepCount())},
		{"bodies", fmt.Sprintf("%d (%d asleep)", len(m.world.Bodies()), asleep)},
		{"joints", fmt.Sprintf("%d", len(m.world.Constraints()))},
		{"energy", fmt.Sprintf("%.4f J", m.energy.Value())},
		{"max drift", fmt.Sprintf("%.5f m", m.drift.Value())},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label) + valueStyle.Render(r.value) + "\n")
	}
	return b.String()
}
