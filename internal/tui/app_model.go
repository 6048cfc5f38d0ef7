package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"halo-cli/internal/model"
	"halo-cli/internal/present"
	"halo-cli/internal/radar"
	"halo-cli/internal/widget"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Readiness gate: wait for the terminal to report its size, polling a bounded
// number of times before falling back to fallbackWidth x fallbackHeight.
const (
	readyPollInterval = 40 * time.Millisecond
	readyMaxPolls     = 25
)

type readyTickMsg struct{}

func tickReady() tea.Cmd {
	return tea.Tick(readyPollInterval, func(time.Time) tea.Msg { return readyTickMsg{} })
}

// control is one focusable element of a field row.
type control int

const (
	controlName control = iota
	controlStage
	controlNote
	controlsPerRow
)

// linesPerRow is the rendered height of one field row, separator included.
const linesPerRow = 4

type fieldRow struct {
	id   string
	name textinput.Model
	note textinput.Model
}

type pendingConfirm struct {
	title        string
	body         string
	confirmLabel string
	// removeID is empty for a reset.
	removeID string
	focus    confirmModalFocus
}

// noticeQueue collects widget notices until the model shows them.
type noticeQueue struct{ msgs []string }

func (q *noticeQueue) Notify(msg string) { q.msgs = append(q.msgs, msg) }

func (q *noticeQueue) pop() (string, bool) {
	if len(q.msgs) == 0 {
		return "", false
	}
	msg := q.msgs[0]
	q.msgs = q.msgs[1:]
	return msg, true
}

type appModel struct {
	ctx     context.Context
	opts    Options
	log     *zap.Logger
	w       *widget.Widget
	notices *noticeQueue
	err     error

	width  int
	height int
	ready  bool
	polls  int
	layout paneLayout

	rows          []fieldRow
	focus         int
	fieldsRebuilt int

	notice  string
	confirm *pendingConfirm
}

func newAppModel(ctx context.Context, opts Options) appModel {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return appModel{
		ctx:     ctx,
		opts:    opts,
		log:     log,
		notices: &noticeQueue{},
	}
}

func (m appModel) Init() tea.Cmd { return tickReady() }

func (m appModel) chartFactory() present.ChartFactory {
	return radar.TerminalFactory{
		Width:  m.layout.chartWidth,
		Height: m.layout.chartHeight,
		Plain:  noColor(),
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		cmd := m.becomeReady()
		return m, cmd

	case readyTickMsg:
		if m.ready {
			return m, nil
		}
		m.polls++
		if m.polls >= readyMaxPolls {
			m.log.Info("terminal size not reported; using fallback",
				zap.Int("width", fallbackWidth), zap.Int("height", fallbackHeight))
			m.width, m.height = fallbackWidth, fallbackHeight
			cmd := m.becomeReady()
			return m, cmd
		}
		return m, tickReady()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if !m.ready || m.w == nil {
			return m, nil
		}
		switch {
		case m.notice != "":
			m.updateNotice(msg)
			return m, nil
		case m.confirm != nil:
			cmd := m.updateConfirm(msg)
			return m, cmd
		}
		cmd := m.updateKey(msg)
		return m, cmd
	}

	// Cursor blink and other input-internal messages.
	cmd := m.updateFocusedInput(msg)
	return m, cmd
}

// becomeReady lays out the screen for the current size. The widget (and its
// first chart) is only constructed once the surface size is known.
func (m *appModel) becomeReady() tea.Cmd {
	m.layout = computeLayout(m.width, m.height)
	m.ready = true
	if m.w != nil {
		m.w.Redraw(m.chartFactory())
		m.resizeInputs()
		return nil
	}
	w, err := widget.New(widget.Options{
		Defaults:  m.opts.Defaults,
		Charts:    m.chartFactory(),
		Notifier:  m.notices,
		Clipboard: m.opts.Clipboard,
		Archive:   m.opts.Archive,
		Logger:    m.log,
	})
	if err != nil {
		m.err = err
		return tea.Quit
	}
	m.w = w
	m.rebuildRows("", controlName)
	m.focus = 0
	return m.applyFocus()
}

func (m *appModel) inputWidth() int {
	w := m.layout.leftWidth - 10
	if w < 12 {
		w = 12
	}
	return w
}

func (m *appModel) newInput(value, placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = limit
	in.Width = m.inputWidth()
	in.Placeholder = placeholder
	in.SetValue(value)
	return in
}

// rebuildRows recreates the inputs from the widget's field list. It only runs
// after structural changes so in-place edits keep their cursor and focus.
func (m *appModel) rebuildRows(focusID string, focusCtl control) {
	fields := m.w.Fields()
	m.rows = make([]fieldRow, 0, len(fields))
	for _, f := range fields {
		m.rows = append(m.rows, fieldRow{
			id:   f.ID,
			name: m.newInput(f.Name, model.PositionalName(f.Position), 60),
			note: m.newInput(f.Note, f.Placeholder, 200),
		})
	}
	m.fieldsRebuilt = m.w.FieldsRebuilt()

	if focusID != "" {
		for i, r := range m.rows {
			if r.id == focusID {
				m.focus = i*int(controlsPerRow) + int(focusCtl)
				break
			}
		}
	}
	m.clampFocus()
}

func (m *appModel) resizeInputs() {
	for i := range m.rows {
		m.rows[i].name.Width = m.inputWidth()
		m.rows[i].note.Width = m.inputWidth()
	}
}

func (m *appModel) controls() int { return len(m.rows) * int(controlsPerRow) }

func (m *appModel) clampFocus() {
	if n := m.controls(); m.focus >= n {
		m.focus = n - 1
	}
	if m.focus < 0 {
		m.focus = 0
	}
}

func (m *appModel) focused() (row int, ctl control, ok bool) {
	if len(m.rows) == 0 {
		return 0, controlName, false
	}
	return m.focus / int(controlsPerRow), control(m.focus % int(controlsPerRow)), true
}

func (m *appModel) applyFocus() tea.Cmd {
	var cmd tea.Cmd
	row, ctl, ok := m.focused()
	for i := range m.rows {
		m.rows[i].name.Blur()
		m.rows[i].note.Blur()
	}
	if !ok {
		return nil
	}
	switch ctl {
	case controlName:
		cmd = m.rows[row].name.Focus()
	case controlNote:
		cmd = m.rows[row].note.Focus()
	}
	return cmd
}

// afterOp refreshes view state after a widget operation: rebuild inputs when the
// field list was rebuilt and surface the next pending notice.
func (m *appModel) afterOp(focusID string, focusCtl control) tea.Cmd {
	var cmd tea.Cmd
	if m.w.FieldsRebuilt() != m.fieldsRebuilt {
		m.rebuildRows(focusID, focusCtl)
		cmd = m.applyFocus()
	}
	if m.notice == "" {
		if msg, ok := m.notices.pop(); ok {
			m.notice = msg
		}
	}
	return cmd
}

func (m *appModel) moveFocus(delta int) tea.Cmd {
	n := m.controls()
	if n == 0 {
		return nil
	}
	m.focus = ((m.focus+delta)%n + n) % n
	return m.applyFocus()
}

func (m *appModel) updateKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		return m.moveFocus(1)
	case "shift+tab":
		return m.moveFocus(-1)
	case "up":
		return m.moveFocus(-int(controlsPerRow))
	case "down":
		return m.moveFocus(int(controlsPerRow))
	case "ctrl+n":
		rec, err := m.w.Add()
		if err != nil {
			return m.afterOp("", controlName)
		}
		return m.afterOp(rec.ID, controlName)
	case "ctrl+d":
		row, _, ok := m.focused()
		if !ok {
			return nil
		}
		recs := m.w.Records()
		if row >= len(recs) {
			return nil
		}
		m.confirm = &pendingConfirm{
			title:        "Remove function",
			body:         widget.RemovePrompt(recs[row]),
			confirmLabel: "Remove",
			removeID:     recs[row].ID,
			focus:        confirmFocusCancel,
		}
		return nil
	case "ctrl+r":
		m.confirm = &pendingConfirm{
			title:        "Reset",
			body:         widget.ResetPrompt,
			confirmLabel: "Reset",
			focus:        confirmFocusCancel,
		}
		return nil
	case "ctrl+y":
		if _, err := m.w.Export(m.ctx); err != nil {
			m.log.Debug("export", zap.Error(err))
		}
		return m.afterOp("", controlName)
	}

	row, ctl, ok := m.focused()
	if !ok {
		return nil
	}
	if ctl == controlStage {
		m.updateStage(row, msg)
		return nil
	}
	return m.updateFocusedInput(msg)
}

func (m *appModel) updateStage(row int, msg tea.KeyMsg) {
	id := m.rows[row].id
	cur := m.w.Records()[row].Stage
	next := cur
	switch msg.String() {
	case "left", "h":
		if cur > model.StageEarly {
			next = cur - 1
		}
	case "right", "l", " ":
		if cur < model.StageEstablished {
			next = cur + 1
		}
	case "1", "2", "3":
		next = model.Stage(msg.Runes[0] - '0')
	default:
		return
	}
	if next != cur {
		m.w.Restage(id, next)
		m.afterOp(id, controlStage)
	}
}

func (m *appModel) updateFocusedInput(msg tea.Msg) tea.Cmd {
	row, ctl, ok := m.focused()
	if !ok || m.w == nil {
		return nil
	}
	r := &m.rows[row]
	var cmd tea.Cmd
	switch ctl {
	case controlName:
		before := r.name.Value()
		r.name, cmd = r.name.Update(msg)
		if v := r.name.Value(); v != before {
			m.w.Rename(r.id, v)
			m.afterOp(r.id, controlName)
		}
	case controlNote:
		before := r.note.Value()
		r.note, cmd = r.note.Update(msg)
		if v := r.note.Value(); v != before {
			m.w.Annotate(r.id, v)
			m.afterOp(r.id, controlNote)
		}
	}
	return cmd
}

func (m *appModel) updateNotice(msg tea.KeyMsg) {
	switch msg.String() {
	case "enter", "esc", " ", "ctrl+g":
		m.notice = ""
		if next, ok := m.notices.pop(); ok {
			m.notice = next
		}
	}
}

func (m *appModel) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	c := m.confirm
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		if c.focus == confirmFocusConfirm {
			c.focus = confirmFocusCancel
		} else {
			c.focus = confirmFocusConfirm
		}
		return nil
	case "esc", "ctrl+g", "n":
		m.confirm = nil
		return nil
	case "y":
		return m.resolveConfirm(true)
	case "enter":
		return m.resolveConfirm(c.focus == confirmFocusConfirm)
	}
	return nil
}

// resolveConfirm runs the pending destructive operation. The modal has already
// asked the user, so the widget is handed an accepting confirmer.
func (m *appModel) resolveConfirm(accepted bool) tea.Cmd {
	c := m.confirm
	m.confirm = nil
	if !accepted {
		return nil
	}
	if c.removeID != "" {
		row, _, _ := m.focused()
		m.w.Remove(c.removeID, widget.Confirmed)
		// Keep focus on the row that slid into the removed slot.
		m.focus = row * int(controlsPerRow)
		return m.afterOp("", controlName)
	}
	m.w.Reset(widget.Confirmed)
	m.focus = 0
	return m.afterOp("", controlName)
}

func (m appModel) View() string {
	if !m.ready {
		return styleMuted().Render("Waiting for terminal…")
	}
	if m.w == nil {
		return ""
	}
	if m.confirm != nil {
		return m.placeCentered(renderConfirmModal(m.width, m.confirm.title, m.confirm.body, m.confirm.confirmLabel, "Cancel", m.confirm.focus))
	}
	if m.notice != "" {
		return m.placeCentered(renderNoticeModal(m.width, m.notice))
	}

	proj := m.w.Projection()
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		styleTitle().Render("Divine H.A.L.O."),
		"  ",
		styleBadge().Render(proj.Counts.String()),
	)

	l := m.layout
	left := normalizePane(m.viewFields(), l.leftWidth, l.bodyHeight)
	right := normalizePane(m.viewChartPane(proj), l.rightWidth, l.bodyHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)

	footer := styleMuted().Render("tab: next  ←/→ 1-3: stage  ctrl+n: add  ctrl+d: remove  ctrl+r: reset  ctrl+y: copy  ctrl+c: quit")
	return strings.Join([]string{header, "", body, footer}, "\n")
}

func (m appModel) placeCentered(s string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, s)
}

func (m appModel) viewFields() string {
	if len(m.rows) == 0 {
		return styleMuted().Render("No functions. ctrl+n adds one; ctrl+r restores the defaults.")
	}
	focusRow, focusCtl, _ := m.focused()

	// Scroll so the focused row stays visible.
	visible := m.layout.bodyHeight / linesPerRow
	if visible < 1 {
		visible = 1
	}
	start := 0
	if focusRow >= visible {
		start = focusRow - visible + 1
	}
	end := start + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}

	recs := m.w.Records()
	label := lipgloss.NewStyle().Foreground(colorMuted).Width(7)
	labelFocused := styleFocused().Width(7)
	input := lipgloss.NewStyle().Background(colorInputBg)

	var b strings.Builder
	for i := start; i < end; i++ {
		r := m.rows[i]
		pick := func(ctl control, text string) string {
			if i == focusRow && ctl == focusCtl {
				return labelFocused.Render(text)
			}
			return label.Render(text)
		}
		num := styleTitle().Render(fmt.Sprintf("%2d.", i+1))
		fmt.Fprintf(&b, "%s %s %s\n", num, pick(controlName, "Name"), input.Render(r.name.View()))
		stage := model.StageEarly
		if i < len(recs) {
			stage = recs[i].Stage
		}
		fmt.Fprintf(&b, "    %s %s\n", pick(controlStage, "Stage"), renderStagePicker(stage))
		fmt.Fprintf(&b, "    %s %s\n", pick(controlNote, "Note"), input.Render(r.note.View()))
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderStagePicker(cur model.Stage) string {
	on := styleBadge()
	off := lipgloss.NewStyle().Padding(0, 1).Foreground(colorSurfaceFg).Background(colorControlBg)
	parts := make([]string, 0, len(model.Stages))
	for _, s := range model.Stages {
		if s == cur {
			parts = append(parts, on.Render(s.Label()))
		} else {
			parts = append(parts, off.Render(s.Label()))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m appModel) viewChartPane(proj present.Projection) string {
	var chart string
	switch c := m.w.Chart().(type) {
	case *radar.Terminal:
		chart = c.String()
	default:
		if err := m.w.ChartErr(); err != nil {
			chart = lipgloss.NewStyle().Foreground(colorError).Render("Chart unavailable: " + err.Error())
		}
	}
	summary := renderMarkdown(proj.SummaryMarkdown(), m.layout.rightWidth)
	return chart + "\n\n" + summary
}
