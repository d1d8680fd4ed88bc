package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/sim"
)

const historyLen = 120

// Builder makes a fresh simulator; the monitor calls it on start and reset.
type Builder func() (*sim.Simulator, error)

type sample struct {
	energy      float64
	contacts    int
	penetration float64
	topSpeed    float64
}

// Model is a bubbletea model that steps a simulator in real time and shows
// its telemetry. It owns the simulator exclusively.
type Model struct {
	name     string
	build    Builder
	dt       float64
	duration float64

	sim     *sim.Simulator
	err     error
	paused  bool
	done    bool
	speed   float64
	budget  float64
	last    sample
	energy  []float64
	contact []float64

	lastFrame time.Time
	fps       float64
	width     int
}

func New(name string, build Builder, dt, duration float64) *Model {
	m := &Model{
		name:     name,
		build:    build,
		dt:       dt,
		duration: duration,
		speed:    1,
		width:    80,
	}
	m.reset()
	return m
}

func (m *Model) reset() {
	m.sim, m.err = m.build()
	m.paused, m.done = false, false
	m.budget = 0
	m.energy = make([]float64, 0, historyLen)
	m.contact = make([]float64, 0, historyLen)
	if m.err == nil {
		m.observe()
	}
}

func (m Model) Init() tea.Cmd { return tick() }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
				m.fps = 1.0 / dt
			}
		}
		m.lastFrame = now

		if m.err == nil && !m.paused && !m.done {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
	case "r":
		m.reset()
	case "+", "=":
		m.speed = math.Min(m.speed*2, 16)
	case "-", "_":
		m.speed = math.Max(m.speed/2, 0.25)
	case "0":
		m.speed = 1
	}
	return m, nil
}

// advance runs speed steps per frame. Fractional speeds accumulate across
// frames.
func (m *Model) advance() {
	m.budget += m.speed
	steps := int(m.budget)
	m.budget -= float64(steps)
	for i := 0; i < steps; i++ {
		if m.sim.Arena().Time() >= m.duration-m.dt/2 {
			m.done = true
			break
		}
		if _, err := m.sim.Advance(m.dt); err != nil {
			m.err = err
			return
		}
		if !m.sim.Arena().State().IsValid() {
			m.err = dynamo.ErrInvalidState
			return
		}
	}
	m.observe()
}

func (m *Model) observe() {
	a := m.sim.Arena()
	x := a.State()
	model := a.Model()

	top := 0.0
	for i := 0; i < x.Bodies(); i++ {
		b := x.Body(i)
		top = math.Max(top, math.Hypot(b[dynamo.VX], b[dynamo.VY]))
	}
	m.last = sample{
		energy:      model.Energy(x),
		contacts:    model.Contacts(x),
		penetration: model.MaxPenetration(x),
		topSpeed:    top,
	}

	m.energy = appendBounded(m.energy, m.last.energy)
	m.contact = appendBounded(m.contact, float64(m.last.contacts))
}

func appendBounded(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyLen {
		s = s[1:]
	}
	return s
}

func (m Model) View() string {
	var b strings.Builder

	if m.err != nil {
		b.WriteString(fmt.Sprintf("\n   %s %s\n", red.Render("●"), red.Render(m.err.Error())))
		b.WriteString("\n" + dim.Render("   r reset  q quit") + "\n")
		return b.String()
	}

	a := m.sim.Arena()
	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.done:
		statusIcon = dim.Render("■")
		statusText = dim.Render("finished")
	case m.paused:
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.name), statusText, dim.Render(fmt.Sprintf("%d bodies", a.Bodies()))))

	progress := math.Min(a.Time()/m.duration, 1)
	barWidth := 36
	filled := int(progress * float64(barWidth))
	timeStr := fmt.Sprintf("%.1fs/%.0fs", a.Time(), m.duration)
	bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
	b.WriteString(fmt.Sprintf("   %s %s  %s  %s\n\n", bar, dim.Render(timeStr),
		dim.Render(fmt.Sprintf("x%.2g", m.speed)), dim.Render(fmt.Sprintf("%.0ffps", m.fps))))

	rows := []struct {
		label string
		value string
	}{
		{"kinetic energy", fmt.Sprintf("%.2f", m.last.energy)},
		{"contacts", fmt.Sprintf("%d", m.last.contacts)},
		{"wall penetration", fmt.Sprintf("%.3f", m.last.penetration)},
		{"top speed", fmt.Sprintf("%.2f", m.last.topSpeed)},
		{"step", fmt.Sprintf("%d", a.Steps())},
		{"checksum", fmt.Sprintf("%016x", a.State().Checksum())},
	}
	var table strings.Builder
	for i, r := range rows {
		if i > 0 {
			table.WriteString("\n")
		}
		table.WriteString(dim.Render(fmt.Sprintf("%-17s", r.label)) + white.Render(r.value))
	}

	graphWidth := m.width - 50
	if graphWidth < 20 {
		graphWidth = 20
	}
	graph := ""
	if len(m.energy) > 1 {
		graph = asciigraph.Plot(m.energy,
			asciigraph.Height(6),
			asciigraph.Width(graphWidth),
			asciigraph.Caption("kinetic energy"))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, "   ", panel.Render(table.String()), "  ", graph))
	b.WriteString("\n")

	if len(m.contact) > 1 {
		b.WriteString(fmt.Sprintf("\n   %s %s\n", dim.Render("contacts"), cyan.Render(sparkline(m.contact, 40))))
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r reset  q quit") + "\n")
	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		idx = max(0, min(7, idx))
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// Run blocks until the user quits.
func Run(name string, build Builder, dt, duration float64) error {
	p := tea.NewProgram(New(name, build, dt, duration), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
