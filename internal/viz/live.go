package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fabricsim/internal/experiment"
	"github.com/san-kum/fabricsim/internal/mesh"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	frameInterval   = time.Second / 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps an experiment on every tick and draws its wireframe.
type Model struct {
	ctx   context.Context
	exp   *experiment.Experiment
	title string

	canvas *Canvas
	cam    *Camera
	edges  []Edge
	follow bool

	frame       experiment.Frame
	heights     []float64
	corrections int
	running     bool
	showHelp    bool
	err         error
}

// NewModel wraps an experiment that has been set up.
func NewModel(ctx context.Context, exp *experiment.Experiment, title string) Model {
	in := exp.Scene().Interface
	pts := make([]mesh.Vec3, len(in.Vertices))
	for i, v := range in.Vertices {
		pts[i] = v.Pos
	}
	canvas := NewCanvas(width, height)
	cam := NewCamera()
	cam.Fit(pts, canvas.DotsWide(), canvas.DotsHigh())

	return Model{
		ctx:     ctx,
		exp:     exp,
		title:   title,
		canvas:  canvas,
		cam:     cam,
		edges:   Wireframe(in),
		follow:  true,
		heights: make([]float64, 0, historyCapacity),
		running: true,
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "f":
			m.follow = !m.follow
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		case "up", "k":
			m.cam.Rotate(0.1, 0)
		case "down", "j":
			m.cam.Rotate(-0.1, 0)
		case "left", "h":
			m.cam.Rotate(0, -0.1)
		case "right", "l":
			m.cam.Rotate(0, 0.1)
		case "+", "=":
			m.cam.ZoomIn()
		case "-", "_":
			m.cam.ZoomOut()
		}
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// step advances one macro step. A failed step pauses the view and keeps
// the error for display.
func (m *Model) step() {
	if m.err != nil {
		return
	}
	f, err := m.exp.Step(m.ctx)
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.frame = f
	m.corrections += f.Corrected
	m.heights = append(m.heights, f.COM[2])
	if len(m.heights) > historyCapacity {
		m.heights = m.heights[1:]
	}
}

// Err is the step error that stopped the view, if any.
func (m Model) Err() error { return m.err }

// Frame is the latest step record.
func (m Model) Frame() experiment.Frame { return m.frame }

func (m *Model) draw() {
	m.canvas.Clear()
	if m.follow && m.frame.Step > 0 {
		m.cam.Center = m.frame.COM
	}
	Render(m.canvas, m.edges, m.cam)
}

func (m Model) View() string {
	th := CurrentTheme
	header := lipgloss.NewStyle().Foreground(th.Primary).Bold(true).MarginBottom(1)
	label := lipgloss.NewStyle().Foreground(th.Muted).Width(12)
	value := lipgloss.NewStyle().Foreground(th.Text)
	canvasStyle := lipgloss.NewStyle().Foreground(th.Accent).Padding(1, 2)
	stats := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(th.Muted).
		Padding(1, 2).
		Width(45)

	m.draw()

	status := "RUNNING"
	statusStyle := lipgloss.NewStyle().Foreground(th.Accent).Bold(true)
	switch {
	case m.err != nil:
		status = "STOPPED"
		statusStyle = statusStyle.Foreground(th.Error)
	case !m.running:
		status = "PAUSED"
		statusStyle = statusStyle.Foreground(th.Warning)
	}

	var s strings.Builder
	s.WriteString(header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(statusStyle.Render(status) + "\n\n")
	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("COM height"))
		s.WriteString(chart + "\n\n")
	}
	f := m.frame
	row := func(k, v string) { s.WriteString(label.Render(k) + value.Render(v) + "\n") }
	row("Time", fmt.Sprintf("%.3fs", f.Time))
	row("Step", fmt.Sprintf("%d", f.Step))
	row("Points", fmt.Sprintf("%d", f.NumVerts))
	row("COM", fmtVec(f.COM))
	row("COM vel", fmtVec(f.COMVel))
	row("Max speed", fmt.Sprintf("%.4f", f.MaxSpeed))
	row("Corrected", fmt.Sprintf("%d", m.corrections))
	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(th.Error).Width(40).Render(m.err.Error()) + "\n")
	}
	s.WriteString(label.Width(40).Render("\nSP:Pause N:Step F:Follow\n←→↑↓:Turn +-:Zoom T:Theme Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + main
	}
	return main
}

const helpText = `KEYS
  Space     pause / resume
  N         single step while paused
  F         follow the center of mass
  Arrows    turn the view (also hjkl)
  + / -     zoom
  T         cycle themes
  ?         toggle this help
  Q         quit`

func fmtVec(v mesh.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}

// Run opens the live view full screen and returns the step error that
// stopped it, if any.
func Run(ctx context.Context, exp *experiment.Experiment, title string) error {
	final, err := tea.NewProgram(NewModel(ctx, exp, title), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
