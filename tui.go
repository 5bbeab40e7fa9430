package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"earshot/capture"
	"earshot/hotkey"
)

// TUI message types
type stateMsg struct{ State capture.State }
type calibratedMsg struct{ Calibration capture.Calibration }
type levelMsg struct {
	RMS    float64
	Speech bool
}
type resultMsg struct {
	Result *listenResult
	Err    error
}
type tickMsg time.Time

const levelBarWidth = 32

type tuiModel struct {
	daemon     bool
	state      capture.State
	active     bool // a capture is running
	started    time.Time
	now        time.Time
	level      float64
	speech     bool
	cal        capture.Calibration
	modeLine   string
	deviceLine string
	width      int

	count    int
	lastText string
	metrics  []string
	noSpeech bool
	copied   bool
	err      error
}

func newTUIModel(daemon bool, modeLine, deviceLine string) tuiModel {
	return tuiModel{daemon: daemon, modeLine: modeLine, deviceLine: deviceLine}
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tickMsg:
		m.now = time.Time(msg)
		return m, tuiTick()

	case stateMsg:
		m.state = msg.State
		switch msg.State {
		case capture.Calibrating:
			m.active = true
			m.started = time.Now()
			m.now = m.started
			m.level = 0
			m.speech = false
			m.cal = capture.Calibration{}
			m.err = nil
		case capture.Done:
			m.level = 0
			m.speech = false
		}

	case calibratedMsg:
		m.cal = msg.Calibration

	case levelMsg:
		// Smooth the meter without hiding onsets.
		m.level = m.level*0.5 + msg.RMS*0.5
		m.speech = msg.Speech

	case resultMsg:
		m.active = false
		m.err = msg.Err
		if r := msg.Result; r != nil {
			m.count++
			m.noSpeech = r.Text == ""
			m.lastText = r.Text
			m.metrics = r.Metrics
			m.copied = r.Delivery.Copied
		}
		if !m.daemon {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m tuiModel) statusLine() string {
	if !m.active {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("○ STANDBY")
	}
	elapsed := m.now.Sub(m.started).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	switch m.state {
	case capture.Calibrating:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("220")).
			Render("◌ CALIBRATING (stay quiet)")
	case capture.WaitingForSpeech:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42")).
			Render(fmt.Sprintf("○ LISTENING %.1fs", elapsed))
	case capture.Speaking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).
			Render(fmt.Sprintf("● SPEAKING %.1fs", elapsed))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("245")).
			Render("◍ TRANSCRIBING")
	}
}

func (m tuiModel) View() string {
	var b strings.Builder
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	b.WriteString(m.statusLine() + "\n")
	if m.active && m.state != capture.Calibrating && m.state != capture.Done {
		barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		if m.speech {
			barStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		}
		b.WriteString(barStyle.Render(renderLevelBar(m.level, m.cal.Threshold, levelBarWidth)))
		b.WriteString(dim.Render(fmt.Sprintf(" %.3f", m.level)) + "\n")
		b.WriteString(dim.Render(fmt.Sprintf("noise %.4f  threshold %.4f", m.cal.NoiseRMS, m.cal.Threshold)) + "\n")
	}
	if m.modeLine != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(m.modeLine) + "\n")
	}
	if m.deviceLine != "" {
		b.WriteString(dim.Render(m.deviceLine) + "\n")
	}
	b.WriteString("\n")

	wrapWidth := m.width - 2
	if wrapWidth < 20 {
		wrapWidth = 60
	}
	switch {
	case m.err != nil:
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		for _, line := range wrapText("Error: "+m.err.Error(), wrapWidth) {
			b.WriteString(errStyle.Render(line) + "\n")
		}
	case m.count == 0:
		b.WriteString(dim.Render("No transcriptions yet") + "\n")
	case m.noSpeech:
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render("No speech detected.") + "\n")
	default:
		title := lipgloss.NewStyle().Foreground(lipgloss.Color("246")).
			Render(fmt.Sprintf("Last transcription (#%d)", m.count))
		b.WriteString(title + "\n\n")
		textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		lines := wrapText(m.lastText, wrapWidth)
		for i, line := range lines {
			b.WriteString(textStyle.Render(line))
			if i == len(lines)-1 && m.copied {
				b.WriteString(" " + lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("[✓ copied]"))
			}
			b.WriteString("\n")
		}
		if len(m.metrics) > 0 {
			b.WriteString("\n")
			metricsStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
			for _, metric := range m.metrics {
				b.WriteString(metricsStyle.Render(metric) + "\n")
			}
		}
	}

	b.WriteString("\n")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	if m.daemon {
		b.WriteString(boldStyle.Render(hotkey.Combo) + helpStyle.Render(" to listen, ") +
			boldStyle.Render("q") + helpStyle.Render(" to quit") + "\n")
	} else {
		b.WriteString(boldStyle.Render("q") + helpStyle.Render(" to cancel") + "\n")
	}
	b.WriteString(helpStyle.Render("earshot "+version) + "\n")
	return b.String()
}

// renderLevelBar draws rms as a bar of width cells with a marker at the
// speech threshold. The scale is four times the threshold, so the marker
// sits at a quarter of the bar.
func renderLevelBar(rms, threshold float64, width int) string {
	if width < 4 {
		width = 4
	}
	full := threshold * 4
	if full <= 0 {
		full = 0.1
	}
	filled := int(rms / full * float64(width))
	filled = max(0, min(filled, width))
	marker := min(int(threshold/full*float64(width)), width-1)

	cells := make([]string, width)
	for i := range cells {
		switch {
		case i == marker:
			cells[i] = "│"
		case i < filled:
			cells[i] = "█"
		default:
			cells[i] = "░"
		}
	}
	return "[" + strings.Join(cells, "") + "]"
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		for len(para) > width {
			// Find last space within width
			splitAt := width
			for i := width; i > 0; i-- {
				if para[i] == ' ' {
					splitAt = i
					break
				}
			}
			lines = append(lines, para[:splitAt])
			para = strings.TrimLeft(para[splitAt:], " ")
		}
		lines = append(lines, para)
	}
	return lines
}

// tuiObserver forwards capture progress into the bubbletea program through
// a buffer, so the capture loop never waits on the UI. Level updates are
// dropped when the buffer is full; state changes are not.
type tuiObserver struct {
	events chan tea.Msg
	done   <-chan struct{}
}

// newTUIObserver starts a goroutine that hands buffered events to send
// until done is closed.
func newTUIObserver(send func(tea.Msg), done <-chan struct{}) *tuiObserver {
	o := &tuiObserver{events: make(chan tea.Msg, 64), done: done}
	go func() {
		for {
			select {
			case msg := <-o.events:
				send(msg)
			case <-done:
				return
			}
		}
	}()
	return o
}

func (o *tuiObserver) deliver(msg tea.Msg) {
	select {
	case o.events <- msg:
	case <-o.done:
	}
}

func (o *tuiObserver) StateChanged(s capture.State) { o.deliver(stateMsg{s}) }

func (o *tuiObserver) Calibrated(c capture.Calibration) { o.deliver(calibratedMsg{c}) }

func (o *tuiObserver) Level(rms float64, speech bool) {
	select {
	case o.events <- levelMsg{rms, speech}:
	default:
	}
}

// runTUI drives listening from a terminal UI. In daemon mode each hotkey
// press starts a cycle; otherwise the UI exits after one utterance. Quitting
// the UI cancels any capture in progress and waits for it to release the
// microphone.
func runTUI(ctx context.Context, a *app, daemon bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	modeLine := fmt.Sprintf("[%s | %s | %s]", a.tr.Name(), a.tr.Model(), a.format())
	m := newTUIModel(daemon, modeLine, "mic: "+deviceLabel(a.device))
	p := tea.NewProgram(m, tea.WithContext(ctx))
	a.observer = newTUIObserver(p.Send, ctx.Done())

	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		if daemon {
			runErr = serveHotkey(ctx, a, hotkey.New(), func(r *listenResult, err error) {
				p.Send(resultMsg{r, err})
			})
			if runErr != nil {
				p.Send(resultMsg{nil, runErr})
				p.Quit()
			}
			return
		}
		r, err := a.listen(ctx)
		runErr = err
		p.Send(resultMsg{r, err})
	}()

	_, err := p.Run()
	cancel()
	<-done
	if runErr != nil {
		return runErr
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
