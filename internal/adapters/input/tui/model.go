// Package tui is the terminal editor. It renders machine snapshots and turns
// key presses into machine messages; it never talks to the controller
// itself.
package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"led-effect-editor/internal/domain/coerce"
	"led-effect-editor/internal/domain/reconcile"
	"led-effect-editor/internal/domain/schema"
)

// Editor is the part of *reconcile.Machine the view drives.
type Editor interface {
	Snapshot() reconcile.Snapshot
	Send(msg reconcile.Message) bool
	Subscribe() <-chan reconcile.Snapshot
}

type pane int

const (
	panePresets pane = iota
	paneSegments
	paneFields
	paneCount
)

type snapshotMsg reconcile.Snapshot

type stoppedMsg struct{}

type Model struct {
	editor  Editor
	updates <-chan reconcile.Snapshot
	snap    reconcile.Snapshot

	focus   pane
	cursors [paneCount]int

	editing bool
	// prefill is the rounded text the input opened with
	prefill string
	input   textinput.Model
	spinner spinner.Model

	styles Styles
	width  int
}

func New(editor Editor) Model {
	in := textinput.New()
	in.CharLimit = 64
	in.Width = 24

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		editor:  editor,
		updates: editor.Subscribe(),
		snap:    editor.Snapshot(),
		focus:   paneSegments,
		input:   in,
		spinner: sp,
		styles:  DefaultStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), m.spinner.Tick)
}

func (m Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return stoppedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m.snap = reconcile.Snapshot(msg)
		m.clampCursors()
		return m, m.waitForSnapshot()
	case stoppedMsg:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if m.snap.State == reconcile.StateError {
			m.editor.Send(reconcile.Retry{})
		}
		return m, nil
	}
	if m.snap.State != reconcile.StateReady {
		return m, nil
	}

	switch msg.String() {
	case "tab", "right", "l":
		m.focus = (m.focus + 1) % paneCount
	case "shift+tab", "left", "h":
		m.focus = (m.focus + paneCount - 1) % paneCount
	case "down", "j":
		m.cursors[m.focus]++
		m.clampCursors()
	case "up", "k":
		m.cursors[m.focus]--
		m.clampCursors()
	case "enter", " ":
		return m.activate()
	}
	return m, nil
}

// activate acts on the row under the cursor of the focused pane.
func (m Model) activate() (tea.Model, tea.Cmd) {
	switch m.focus {
	case panePresets:
		presets := m.snap.Context.Presets
		if len(presets) > 0 {
			m.editor.Send(reconcile.LoadPreset{Name: presets[m.cursors[panePresets]].Name})
		}
	case paneSegments:
		m.focus = paneFields
		m.cursors[paneFields] = 0
	case paneFields:
		f, ok := m.selectedField()
		if !ok || coerce.Disabled(f.Schema) {
			return m, nil
		}
		if coerce.InputKind(f.Schema) == coerce.KindBoolean {
			checked, _ := f.Value.(bool)
			m.commit(f, coerce.Control{Checked: !checked})
			return m, nil
		}
		m.editing = true
		m.prefill = fmt.Sprint(coerce.DisplayValue(f.Schema, f.Value))
		m.input.SetValue(m.prefill)
		m.input.CursorEnd()
		return m, m.input.Focus()
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.input.Blur()
		if m.input.Value() == m.prefill {
			return m, nil
		}
		if f, ok := m.selectedField(); ok {
			m.commit(f, controlFor(m.input.Value()))
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// controlFor reads a text box the way a number input would: Number is NaN
// unless the text parses.
func controlFor(text string) coerce.Control {
	n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		n = math.NaN()
	}
	return coerce.Control{Text: text, Number: n}
}

func (m Model) commit(f schema.Field, ctl coerce.Control) {
	value, ok := coerce.ParseInput(f.Schema, ctl)
	if !ok {
		return
	}
	if edit, ok := reconcile.EditField(m.snap.Context, m.selectedSegment(), f.Name, value); ok {
		m.editor.Send(edit)
	}
}

func (m Model) selectedSegment() int {
	effects := m.snap.Context.State.Effects
	if idx := m.cursors[paneSegments]; idx < len(effects) {
		return effects[idx].SegmentIndex
	}
	return -1
}

func (m Model) fields() []schema.Field {
	d, ok := m.snap.Context.Effect(m.selectedSegment())
	if !ok {
		return nil
	}
	return schema.DeriveFields(d.Config, d.Schema)
}

func (m Model) selectedField() (schema.Field, bool) {
	fields := m.fields()
	idx := m.cursors[paneFields]
	if idx < 0 || idx >= len(fields) {
		return schema.Field{}, false
	}
	return fields[idx], true
}

func (m *Model) clampCursors() {
	sizes := [paneCount]int{
		len(m.snap.Context.Presets),
		len(m.snap.Context.State.Effects),
		len(m.fields()),
	}
	for p := range m.cursors {
		m.cursors[p] = max(0, min(m.cursors[p], sizes[p]-1))
	}
}

func (m Model) View() string {
	title := m.styles.Title.Render("LED effect editor")
	switch m.snap.State {
	case reconcile.StateLoading:
		return lipgloss.JoinVertical(lipgloss.Left, title, "",
			m.spinner.View()+" Loading effects from the controller...")
	case reconcile.StateError:
		return lipgloss.JoinVertical(lipgloss.Left, title, "",
			m.styles.Error.Render("Could not sync with the controller."),
			m.styles.Help.Render("r retry • q quit"))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.pane(panePresets, "Presets", m.presetRows()),
		m.pane(paneSegments, "Segments", m.segmentRows()),
		m.pane(paneFields, m.fieldsTitle(), m.fieldRows()),
	)
	help := "tab switch pane • ↑/↓ move • enter select/edit • q quit"
	if m.editing {
		help = "enter apply • esc cancel"
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, body, m.styles.Help.Render(help))
}

func (m Model) pane(p pane, title string, rows []string) string {
	style := m.styles.Pane
	if m.focus == p {
		style = m.styles.Focused
	}
	for i, row := range rows {
		if i == m.cursors[p] && m.focus == p {
			rows[i] = m.styles.Cursor.Render("> " + row)
		} else {
			rows[i] = "  " + row
		}
	}
	content := append([]string{m.styles.Header.Render(title)}, rows...)
	return style.Render(strings.Join(content, "\n"))
}

func (m Model) presetRows() []string {
	rows := make([]string, 0, len(m.snap.Context.Presets))
	for _, p := range m.snap.Context.Presets {
		rows = append(rows, p.Name)
	}
	return rows
}

func (m Model) segmentRows() []string {
	rows := make([]string, 0, len(m.snap.Context.State.Effects))
	for _, e := range m.snap.Context.State.Effects {
		rows = append(rows, fmt.Sprintf("%2d %s", e.SegmentIndex, coerce.PrettyName(e.Effect)))
	}
	return rows
}

func (m Model) fieldsTitle() string {
	d, ok := m.snap.Context.Effect(m.selectedSegment())
	if !ok {
		return "Settings"
	}
	return coerce.PrettyName(d.Name)
}

func (m Model) fieldRows() []string {
	fields := m.fields()
	rows := make([]string, 0, len(fields))
	for i, f := range fields {
		label := coerce.Label(f.Name, f.Schema)
		var value string
		switch {
		case m.editing && i == m.cursors[paneFields]:
			value = m.input.View()
		case coerce.InputKind(f.Schema) == coerce.KindBoolean:
			value = "[ ]"
			if checked, _ := f.Value.(bool); checked {
				value = "[x]"
			}
		default:
			value = fmt.Sprint(coerce.DisplayValue(f.Schema, f.Value))
		}
		row := fmt.Sprintf("%-24s %s", label, value)
		if coerce.Disabled(f.Schema) {
			row = m.styles.Disabled.Render(row)
		}
		rows = append(rows, row)
	}
	return rows
}
