package viz

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/knobs/internal/config"
	"github.com/san-kum/knobs/internal/knob"
)

// Document units per terminal cell. Cells are about twice as tall as wide.
const (
	CellW = 4.0
	CellH = 8.0
)

const (
	marginLeft      = 2
	headerRows      = 2
	blockGap        = 4
	minBlockWidth   = 14
	historyCapacity = 600
)

// StatusTickMsg refreshes the status line.
type StatusTickMsg time.Time

type entry struct {
	id      string
	cfg     config.KnobConfig
	knob    *knob.Knob
	face    Face
	cells   int
	col     int
	width   int
	history []float64
}

// Model is the bubbletea program for one page of knobs. It is the page's
// only event dispatcher.
type Model struct {
	title    string
	page     *knob.Page
	entries  []*entry
	theme    Theme
	status   func() string
	showHelp bool
	width    int
	height   int
}

type Option func(*Model)

func WithTheme(name string) Option {
	return func(m *Model) { m.theme = GetTheme(name) }
}

// WithStatus adds a status line refreshed once a second.
func WithStatus(fn func() string) Option {
	return func(m *Model) { m.status = fn }
}

// Layout returns the document-space bounds of each knob's canvas, in the
// order of knobs. Pass it to the knob constructors so hit testing and the
// absolute-angle center match what is drawn.
func Layout(knobs []config.KnobConfig) []knob.Rect {
	rects := make([]knob.Rect, len(knobs))
	col := marginLeft
	for i, kc := range knobs {
		cells := config.Sizes[kc.Size].Cells
		bw := blockWidth(cells)
		left := col + (bw-cells)/2
		rects[i] = knob.Rect{
			X: float64(left) * CellW,
			Y: float64(headerRows+1) * CellH,
			W: float64(cells) * CellW,
			H: float64(cells/2) * CellH,
		}
		col += bw + blockGap
	}
	return rects
}

func blockWidth(cells int) int {
	return max(cells, minBlockWidth)
}

// New builds the model over an already-constructed page. knobs must list
// the page's knobs in page order.
func New(title string, knobs []config.KnobConfig, page *knob.Page, opts ...Option) Model {
	m := Model{title: title, page: page, theme: ThemeStudio, width: 80, height: 24}
	col := marginLeft
	for _, kc := range knobs {
		k, ok := page.Knob(kc.ID)
		if !ok {
			continue
		}
		kcfg := k.Config()
		cells := config.Sizes[kc.Size].Cells
		e := &entry{
			id:    kc.ID,
			cfg:   kc,
			knob:  k,
			face:  Face{KnobType: kc.KnobType, MinAngle: kcfg.MinAngle, MaxAngle: kcfg.MaxAngle},
			cells: cells,
			col:   col,
			width: blockWidth(cells),
		}
		e.history = append(e.history, k.Value())
		m.entries = append(m.entries, e)
		col += e.width + blockGap
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func statusTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return StatusTickMsg(t) })
}

// Init mounts the page, which pushes every knob's initial state to its host.
func (m Model) Init() tea.Cmd {
	m.page.Mount()
	if m.status != nil {
		return statusTick()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case StatusTickMsg:
		return m, statusTick()
	case tea.MouseMsg:
		m.handleMouse(msg)
		m.sample()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.page.Unmount()
			return m, tea.Quit
		case "esc":
			m.page.Blur()
		case "tab":
			m.page.FocusNext()
		case "shift+tab":
			m.page.FocusPrev()
		case "up", "k":
			m.page.KeyDown(knob.KeyArrowUp)
		case "down", "j":
			m.page.KeyDown(knob.KeyArrowDown)
		case "t":
			m.theme = m.theme.Next()
		case "?":
			m.showHelp = !m.showHelp
		}
		m.sample()
	}
	return m, nil
}

// ToDocument converts a terminal cell to document coordinates, at the cell
// center.
func ToDocument(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * CellW, (float64(y) + 0.5) * CellH
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	x, y := ToDocument(msg.X, msg.Y)
	ev := knob.PointerEvent{X: x, Y: y}
	if msg.Button == tea.MouseButtonLeft {
		ev.Buttons = knob.ButtonPrimary
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.page.PointerDown(ev)
		}
	case tea.MouseActionMotion:
		m.page.PointerMove(ev)
	case tea.MouseActionRelease:
		ev.Buttons = 0
		m.page.PointerUp(ev)
	}
}

// sample appends each knob's value to its history when it changed.
func (m *Model) sample() {
	for _, e := range m.entries {
		v := e.knob.Value()
		if n := len(e.history); n > 0 && e.history[n-1] == v {
			continue
		}
		e.history = append(e.history, v)
		if len(e.history) > historyCapacity {
			e.history = e.history[1:]
		}
	}
}

// History returns the recorded values of knob id, oldest first.
func (m Model) History(id string) []float64 {
	for _, e := range m.entries {
		if e.id == id {
			return append([]float64(nil), e.history...)
		}
	}
	return nil
}

func formatValue(v, step float64) string {
	if step > 0 && step == float64(int64(step)) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func (m Model) renderBlock(e *entry) string {
	s := e.knob.State()
	focused := m.page.Focused() == e.id
	center := func(str string) string {
		return lipgloss.PlaceHorizontal(e.width, lipgloss.Center, str)
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Text)
	if focused {
		titleStyle = titleStyle.Foreground(m.theme.Focus)
	}
	lines := []string{center(titleStyle.Render(e.cfg.Title))}

	capStyle := lipgloss.NewStyle().Foreground(m.theme.Cap(e.cfg.KnobType))
	if s.Phase == knob.Dragging {
		capStyle = capStyle.Foreground(m.theme.Indicator)
	}
	left := (e.width - e.cells) / 2
	pad := strings.Repeat(" ", left)
	tail := strings.Repeat(" ", e.width-e.cells-left)
	for _, row := range e.face.Render(e.cells, s.Angle) {
		lines = append(lines, pad+capStyle.Render(row)+tail)
	}

	kc := e.knob.Config()
	lines = append(lines,
		center(lipgloss.NewStyle().Bold(true).Foreground(m.theme.Text).Render(formatValue(s.Value, kc.Step))),
		center(SparklineChart(e.history, kc.MinValue, kc.MaxValue, e.width-2)),
		center(Subtle.Render(e.cfg.Mode)),
	)
	return strings.Join(lines, "\n")
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", marginLeft) + GradientText(strings.ToUpper(m.title), m.theme.Title, m.theme.Focus) + "\n\n")

	blocks := make([]string, 0, 2*len(m.entries))
	blocks = append(blocks, strings.Repeat(" ", marginLeft))
	for i, e := range m.entries {
		if i > 0 {
			blocks = append(blocks, strings.Repeat(" ", blockGap))
		}
		blocks = append(blocks, m.renderBlock(e))
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
	b.WriteString(row + "\n")
	b.WriteString(strings.Repeat(" ", marginLeft) + Separator(max(lipgloss.Width(row)-marginLeft, 8)) + "\n\n")

	if e := m.focusedEntry(); e != nil && len(e.history) > 1 {
		chart := asciigraph.Plot(e.history,
			asciigraph.Height(5),
			asciigraph.Width(min(60, max(20, m.width-12))),
			asciigraph.Caption(e.cfg.Title))
		b.WriteString(lipgloss.NewStyle().Foreground(m.theme.Muted).PaddingLeft(marginLeft).Render(chart) + "\n\n")
	}

	if m.status != nil {
		b.WriteString(strings.Repeat(" ", marginLeft) + KeyHint.Render(m.status()) + "\n")
	}
	b.WriteString(strings.Repeat(" ", marginLeft) + hints("tab", "focus", "↑↓", "step", "drag", "turn", "t", "theme", "?", "help", "q", "quit") + "\n")

	if m.showHelp {
		b.WriteString("\n" + HelpBox.Render(helpText) + "\n")
	}
	return b.String()
}

func (m Model) focusedEntry() *entry {
	id := m.page.Focused()
	for _, e := range m.entries {
		if e.id == id {
			return e
		}
	}
	return nil
}

const helpText = `KEYBOARD AND MOUSE

  drag        turn the knob under the pointer
  tab         focus next knob
  shift+tab   focus previous knob
  up / k      step the focused knob up
  down / j    step the focused knob down
  esc         clear focus
  t           cycle themes
  q           quit`

// Run starts the program on the alternate screen with mouse tracking.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

// Describe returns a one-line summary of every knob, for logs.
func (m Model) Describe() string {
	parts := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		parts = append(parts, fmt.Sprintf("%s=%s", e.id, formatValue(e.knob.Value(), e.knob.Config().Step)))
	}
	return strings.Join(parts, " ")
}
