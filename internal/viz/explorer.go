package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/sim"
	"github.com/san-kum/caustics/internal/tensor"
)

const (
	defaultNudge   = 0.05
	fluxHistoryCap = 120
	explorerWidth  = 64
)

// Explorer is a Bubble Tea model that edits a flat parameter vector one
// element at a time and re-renders the image after every change.
type Explorer struct {
	sim      *sim.Lensing
	labels   []string
	initial  []float64
	flat     []float64
	selected int
	nudge    float64
	palette  int
	image    *tensor.Tensor
	err      error
	fluxes   []float64
	width    int
	showHelp bool
}

// NewExplorer renders flat once and returns the ready model. flat must
// match the simulator's dynamic layout.
func NewExplorer(s *sim.Lensing, flat []float64) (Explorer, error) {
	if len(flat) != s.DynamicSize() {
		return Explorer{}, fmt.Errorf("%w: got %d values for %d dynamic entries",
			param.ErrSizeMismatch, len(flat), s.DynamicSize())
	}
	m := Explorer{
		sim:     s,
		labels:  FlatLabels(s),
		initial: append([]float64(nil), flat...),
		flat:    append([]float64(nil), flat...),
		nudge:   defaultNudge,
		width:   explorerWidth,
		fluxes:  make([]float64, 0, fluxHistoryCap),
	}
	m.render()
	return m, m.err
}

// FlatLabels names every element of the flat vector, expanding
// non-scalar params to name[i].
func FlatLabels(tree param.Node) []string {
	var out []string
	for _, d := range tree.Base().DynamicParams() {
		base := d.Module.Name() + "." + d.Name
		if len(d.Shape) == 0 {
			out = append(out, base)
			continue
		}
		for i := 0; i < d.Size(); i++ {
			out = append(out, fmt.Sprintf("%s[%d]", base, i))
		}
	}
	return out
}

func (m Explorer) Flat() []float64       { return append([]float64(nil), m.flat...) }
func (m Explorer) Selected() int         { return m.selected }
func (m Explorer) Image() *tensor.Tensor { return m.image }
func (m Explorer) Err() error            { return m.err }
func (m Explorer) Palette() Palette      { return Palettes[m.palette] }

func (m Explorer) Init() tea.Cmd {
	return nil
}

// Update handles key presses; every change to the vector triggers a render.
func (m Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = clampInt(msg.Width/2, 16, 160)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.cycle(1)
		case "shift+tab":
			m.cycle(-1)
		case "up", "k":
			m.adjust(1)
		case "down", "j":
			m.adjust(-1)
		case "]":
			m.nudge *= 2
		case "[":
			m.nudge /= 2
		case "p":
			m.palette = (m.palette + 1) % len(Palettes)
		case "r":
			m.flat = append([]float64(nil), m.initial...)
			m.fluxes = make([]float64, 0, fluxHistoryCap)
			m.render()
		case "?":
			m.showHelp = !m.showHelp
		}
	}
	return m, nil
}

func (m *Explorer) cycle(dir int) {
	if len(m.flat) == 0 {
		return
	}
	m.selected = (m.selected + dir + len(m.flat)) % len(m.flat)
}

func (m *Explorer) adjust(dir float64) {
	if len(m.flat) == 0 {
		return
	}
	// copy so a Flat() handed out earlier keeps its values
	flat := append([]float64(nil), m.flat...)
	flat[m.selected] += dir * m.nudge
	m.flat = flat
	m.render()
}

func (m *Explorer) render() {
	img, err := m.sim.RenderFlat(m.flat)
	if err != nil {
		logrus.WithError(err).WithField("flat", m.flat).Debug("explorer render failed")
		m.err = err
		return
	}
	m.err = nil
	m.image = img
	if len(m.fluxes) == fluxHistoryCap {
		m.fluxes = m.fluxes[1:]
	}
	m.fluxes = append(m.fluxes, img.Sum())
}

func (m Explorer) View() string {
	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("caustics explorer - %s", m.sim.Name())) + "\n\n")

	left := ""
	if m.image != nil {
		p := m.Palette()
		left, _ = Heatmap(m.image, HeatmapOptions{Width: m.width, Palette: &p})
	}

	var right strings.Builder
	if len(m.labels) == 0 {
		right.WriteString(Subtle.Render("no dynamic params") + "\n")
	}
	for i, l := range m.labels {
		line := fmt.Sprintf("%-20s %10.4g", l, m.flat[i])
		if i == m.selected {
			right.WriteString(Selected.Render("> "+line) + "\n")
		} else {
			right.WriteString("  " + line + "\n")
		}
	}
	right.WriteString("\n" + MetricLine("nudge", m.nudge) + "\n")
	if len(m.fluxes) > 0 {
		right.WriteString(MetricLine("flux", m.fluxes[len(m.fluxes)-1]) + "\n")
		right.WriteString(Sparkline(m.fluxes, 30) + "\n")
	}
	right.WriteString(MetricLabel.Render("palette") + m.Palette().Name + "\n")
	if m.err != nil {
		right.WriteString("\n" + ErrorText.Render(m.err.Error()) + "\n")
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, Panel.Render(left), Panel.Render(right.String())))
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(KeyHint.Render("tab/shift+tab select | up/down nudge | [ ] step | p palette | r reset | q quit"))
	} else {
		b.WriteString(KeyHint.Render("? help | q quit"))
	}
	return b.String()
}

// RunExplorer opens the explorer full screen and returns the vector the
// user left it at.
func RunExplorer(s *sim.Lensing, flat []float64) ([]float64, error) {
	m, err := NewExplorer(s, flat)
	if err != nil {
		return nil, err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	return final.(Explorer).Flat(), nil
}
