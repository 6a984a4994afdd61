package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/wavesketch/internal/media"
	"github.com/olivier-w/wavesketch/internal/player"
	"github.com/olivier-w/wavesketch/internal/pointer"
	"github.com/olivier-w/wavesketch/internal/protocol"
	"github.com/olivier-w/wavesketch/internal/session"
	"github.com/olivier-w/wavesketch/internal/util"
)

const (
	// The canvas starts below the header lines, inside a border, indented
	// by two columns.
	canvasLeft = 3
	canvasTop  = 5
	// lines outside the canvas: header, borders, playhead, status, help
	chromeRows = 13
	chromeCols = 6

	detuneStep    = 10.0
	volumeStep    = 0.05
	statusTimeout = 5 * time.Second
	levelFrames   = 1024
)

// Model is the Bubbletea model for the drawing screen.
type Model struct {
	session   *session.Session
	sketch    media.Sketch
	exportDir string

	keys  keyMap
	help  help.Model
	meter meter

	frame        []string
	framePending bool
	frameStale   bool

	width, height int
	cols, rows    int
	playhead      float64
	drawing       bool

	status     string
	statusErr  bool
	statusTime time.Time
	exporting  bool
	quitting   bool
}

// New creates the drawing screen for a running session. The sketch has
// already been sent to the session with Load.
func New(s *session.Session, sk media.Sketch, exportDir string) Model {
	h := help.New()
	h.Styles.ShortKey = helpStyle
	h.Styles.ShortDesc = helpStyle
	h.Styles.FullKey = helpStyle
	h.Styles.FullDesc = helpStyle
	return Model{
		session:   s,
		sketch:    sk,
		exportDir: exportDir,
		keys:      defaultKeys(),
		help:      h,
		meter:     newMeter(),
	}
}

// Session returns the session the screen drives.
func (m Model) Session() *session.Session { return m.session }

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		waitForNotification(m.session),
		tea.SetWindowTitle(windowTitle(m.sketch.Title, false)),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case notificationMsg:
		if err := m.session.Apply(msg.note); err != nil {
			m.setStatus(err.Error(), true)
		}
		if loaded, ok := msg.note.(protocol.ImageLoaded); ok {
			m.setStatus(fmt.Sprintf("%d columns × %d rows", len(loaded.Values), loaded.Height), false)
		}
		var cmd tea.Cmd
		m, cmd = m.requestFrame()
		return m, tea.Batch(waitForNotification(m.session), cmd)

	case workerStoppedMsg:
		if m.quitting {
			return m, nil
		}
		m.setStatus("render worker stopped", true)
		return m, nil

	case frameMsg:
		m.framePending = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else {
			m.frame = msg.lines
		}
		if m.frameStale {
			m.frameStale = false
			return m.requestFrame()
		}
		return m, nil

	case exportedMsg:
		m.exporting = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Export failed: %v", msg.err), true)
		} else {
			m.setStatus(fmt.Sprintf("Saved to %s", msg.path), false)
		}
		return m, nil

	case tickMsg:
		m.meter = m.meter.update(m.session.Level(levelFrames))
		m.playhead = m.session.Playhead()
		if m.status != "" && time.Since(m.statusTime) > statusTimeout {
			m.status = ""
		}
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width - 4
		m.cols = max(msg.Width-chromeCols, 10)
		m.rows = max(msg.Height-chromeRows, 4)
		return m.requestFrame()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	s := m.session
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)

	case key.Matches(msg, m.keys.Play):
		if err := s.TogglePlay(); err != nil {
			m.setStatus(err.Error(), true)
		}
		return m, tea.SetWindowTitle(windowTitle(m.sketch.Title, s.Playing()))

	case key.Matches(msg, m.keys.Preset):
		if i, ok := presetKey(msg); ok {
			m.setDuration(i)
		}
	case key.Matches(msg, m.keys.Shorter):
		m.stepDuration(-1)
	case key.Matches(msg, m.keys.Longer):
		m.stepDuration(1)

	case key.Matches(msg, m.keys.DetuneDown):
		s.AdjustDetune(-detuneStep)
	case key.Matches(msg, m.keys.DetuneUp):
		s.AdjustDetune(detuneStep)
	case key.Matches(msg, m.keys.Reset):
		s.ResetDetune()

	case key.Matches(msg, m.keys.Mode):
		m.setStatus(s.ToggleMode().String()+" edits", false)
	case key.Matches(msg, m.keys.Loop):
		if s.ToggleLoop() {
			m.setStatus("looping", false)
		} else {
			m.setStatus("one shot", false)
		}

	case key.Matches(msg, m.keys.Export):
		if m.exporting {
			return m, nil
		}
		m.exporting = true
		m.setStatus("Exporting...", false)
		dir, title := m.exportDir, m.sketch.Title
		return m, func() tea.Msg {
			path, err := s.ExportFile(dir, title, session.DefaultExportLength)
			return exportedMsg{path: path, err: err}
		}

	case key.Matches(msg, m.keys.VolumeUp):
		s.AdjustVolume(volumeStep)
	case key.Matches(msg, m.keys.VolumeDown):
		s.AdjustVolume(-volumeStep)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) setDuration(i int) {
	if i >= len(player.Durations) {
		return
	}
	if err := m.session.SetDuration(i); err != nil {
		m.setStatus(err.Error(), true)
	}
}

func (m *Model) stepDuration(delta int) {
	cur, err := session.DurationIndex(m.session.Duration())
	if err != nil {
		return
	}
	m.setDuration(max(0, cur+delta))
}

// handleMouse turns terminal mouse events into pointer events. Dragging off
// the canvas ends the stroke.
func (m Model) handleMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	x, y, inside := m.canvasPoint(msg.X, msg.Y)

	var ev pointer.Event
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if !inside {
			return m, nil
		}
		m.drawing = true
		ev = pointer.Event{Kind: pointer.Press, X: x, Y: y}
	case msg.Action == tea.MouseActionMotion && m.drawing:
		if !inside {
			m.drawing = false
			ev = pointer.Event{Kind: pointer.Out}
			break
		}
		ev = pointer.Event{Kind: pointer.Move, X: x, Y: y}
	case msg.Action == tea.MouseActionRelease && m.drawing:
		m.drawing = false
		ev = pointer.Event{Kind: pointer.Release, X: x, Y: y}
	default:
		return m, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
	defer cancel()
	if err := m.session.Pointer(ctx, ev); err != nil {
		m.setStatus(err.Error(), true)
	}
	return m, nil
}

// canvasPoint maps a terminal cell to the surface pixel at its centre.
func (m Model) canvasPoint(cellX, cellY int) (x, y int, inside bool) {
	w, h := m.session.Size()
	cx, cy := cellX-canvasLeft, cellY-canvasTop
	if w == 0 || h == 0 || m.cols == 0 || m.rows == 0 {
		return 0, 0, false
	}
	if cx < 0 || cy < 0 || cx >= m.cols || cy >= m.rows {
		return 0, 0, false
	}
	x = min((2*cx+1)*w/(2*m.cols), w-1)
	y = min((2*cy+1)*h/(2*m.rows), h-1)
	return x, y, true
}

func (m Model) requestFrame() (Model, tea.Cmd) {
	if m.framePending {
		m.frameStale = true
		return m, nil
	}
	cmd := frameCmd(m.session, m.cols, m.rows)
	if cmd != nil {
		m.framePending = true
	}
	return m, cmd
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
	m.statusTime = time.Now()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.session

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("  " + headerStyle.Render("wavesketch") + "  " + titleStyle.Render(m.sketch.Title) + "\n")
	w, h := s.Size()
	sub := fmt.Sprintf("%d × %d", w, h)
	if m.sketch.ClipDuration > 0 {
		sub += "  ·  clip " + m.sketch.ClipDuration.String()
	}
	b.WriteString("  " + subtitleStyle.Render(sub) + "\n")
	b.WriteString("\n")

	canvas := make([]string, m.rows)
	for i := range canvas {
		if i < len(m.frame) {
			canvas[i] = m.frame[i]
		}
		canvas[i] += spaces(m.cols - lipgloss.Width(canvas[i]))
	}
	b.WriteString(indentBlock(canvasStyle.Render(strings.Join(canvas, "\n")), "  "))
	b.WriteString("\n")
	b.WriteString("   " + timeStyle.Render(renderPlayhead(m.playhead, m.cols, s.Playing())) + "\n")
	b.WriteString("\n")

	b.WriteString("  " + m.statusLine() + "\n")
	if m.status != "" {
		style := helpStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString("  " + style.Render(m.status) + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString("  " + m.help.View(m.keys) + "\n")
	return b.String()
}

func (m Model) statusLine() string {
	s := m.session
	icon, state := "■", s.State().String()
	if s.Playing() {
		icon = "▶"
	}
	loop := ""
	if !s.Loop() {
		loop = "  one shot"
	}
	left := fmt.Sprintf("%s  %s  %s  %s  %s%s",
		icon, state,
		util.FormatDuration(s.Duration()),
		util.FormatCents(s.Detune()),
		s.Mode(),
		loop,
	)
	right := renderVolumePercent(s.Volume())
	meterWidth := max(m.cols-lipgloss.Width(left)-len(right)-4, 4)
	return statusStyle.Render(left) + "  " + m.meter.view(meterWidth) + "  " + statusStyle.Render(right)
}

func windowTitle(title string, playing bool) string {
	if playing {
		return "▶ " + title + " · wavesketch"
	}
	return title + " · wavesketch"
}

func indentBlock(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if lines[i] != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
