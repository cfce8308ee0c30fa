package tui

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/domain/reconcile"
)

type fakeEditor struct {
	mu      sync.Mutex
	snap    reconcile.Snapshot
	sent    []reconcile.Message
	updates chan reconcile.Snapshot
}

func (f *fakeEditor) Snapshot() reconcile.Snapshot { return f.snap }

func (f *fakeEditor) Send(msg reconcile.Message) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return true
}

func (f *fakeEditor) Subscribe() <-chan reconcile.Snapshot { return f.updates }

func readySnapshot() reconcile.Snapshot {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"speed": map[string]any{"type": "number"},
			"on":    map[string]any{"type": "boolean"},
			"name":  map[string]any{"type": "string"},
		},
	}
	return reconcile.Snapshot{
		State: reconcile.StateReady,
		Context: reconcile.Context{
			Effects: map[string]model.EffectDescriptor{
				"rainbow": {
					Name:   "rainbow",
					Schema: schema,
					Config: model.NewConfig("speed", 0.12345, "on", true, "name", "a", "color", "red"),
				},
			},
			Presets: []model.Preset{{Name: "calm"}, {Name: "party"}},
			State: model.DisplayState{Effects: []model.SegmentEffectState{
				{SegmentIndex: 0, Effect: "rainbow"},
				{SegmentIndex: 1, Effect: "rainbow"},
			}},
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m tea.Model, keys ...string) tea.Model {
	t.Helper()
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

func newModel(snap reconcile.Snapshot) (*fakeEditor, tea.Model) {
	f := &fakeEditor{snap: snap, updates: make(chan reconcile.Snapshot, 1)}
	return f, New(f)
}

func TestView_Loading(t *testing.T) {
	_, m := newModel(reconcile.Snapshot{State: reconcile.StateLoading})
	assert.Contains(t, m.View(), "Loading")
}

func TestView_ErrorAndRetry(t *testing.T) {
	f, m := newModel(reconcile.Snapshot{State: reconcile.StateError})
	assert.Contains(t, m.View(), "r retry")

	press(t, m, "r")
	require.Len(t, f.sent, 1)
	assert.Equal(t, reconcile.Retry{}, f.sent[0])
}

func TestRetryIgnoredWhenReady(t *testing.T) {
	f, m := newModel(readySnapshot())
	press(t, m, "r")
	assert.Empty(t, f.sent)
}

func TestView_ReadyShowsFields(t *testing.T) {
	_, m := newModel(readySnapshot())
	view := m.View()
	assert.Contains(t, view, "Speed")
	assert.Contains(t, view, "0.123")
	assert.Contains(t, view, "[x]")
	assert.Contains(t, view, "Color (invalid schema)")
}

func TestLoadPreset(t *testing.T) {
	f, m := newModel(readySnapshot())
	// segments -> fields -> presets
	press(t, m, "tab", "tab", "down", "enter")
	require.Len(t, f.sent, 1)
	assert.Equal(t, reconcile.LoadPreset{Name: "party"}, f.sent[0])
}

func TestToggleBoolean(t *testing.T) {
	f, m := newModel(readySnapshot())
	press(t, m, "down", "enter", "down", "enter")

	require.Len(t, f.sent, 1)
	edit, ok := f.sent[0].(reconcile.SetEffectConfig)
	require.True(t, ok)
	assert.Equal(t, 1, edit.Index)
	assert.Equal(t, "rainbow", edit.Effect)
	on, _ := edit.Config.Get("on")
	assert.Equal(t, false, on)
	assert.Equal(t, []string{"speed", "on", "name", "color"}, edit.Config.Keys())
}

func TestEditNumber(t *testing.T) {
	f, m := newModel(readySnapshot())
	m = press(t, m, "enter", "enter")
	assert.Contains(t, m.View(), "esc cancel")

	for range len("0.123") {
		m = press(t, m, "backspace")
	}
	press(t, m, "0", ".", "8", "enter")

	require.Len(t, f.sent, 1)
	edit := f.sent[0].(reconcile.SetEffectConfig)
	speed, _ := edit.Config.Get("speed")
	assert.Equal(t, 0.8, speed)
}

func TestEditNumberUnchangedKeepsStoredValue(t *testing.T) {
	f, m := newModel(readySnapshot())
	m = press(t, m, "enter", "enter")
	assert.Contains(t, m.View(), "0.123")

	m = press(t, m, "enter")
	assert.NotContains(t, m.View(), "esc cancel")
	assert.Empty(t, f.sent)
}

func TestEditNumberRejectsGarbage(t *testing.T) {
	f, m := newModel(readySnapshot())
	m = press(t, m, "enter", "enter")
	press(t, m, "x", "enter")
	assert.Empty(t, f.sent)
}

func TestEditCancelled(t *testing.T) {
	f, m := newModel(readySnapshot())
	m = press(t, m, "enter", "enter", "9", "esc")
	assert.NotContains(t, m.View(), "esc cancel")
	assert.Empty(t, f.sent)
}

func TestInvalidFieldIsReadOnly(t *testing.T) {
	f, m := newModel(readySnapshot())
	m = press(t, m, "enter", "down", "down", "down", "enter")
	assert.False(t, strings.Contains(m.View(), "esc cancel"))
	assert.Empty(t, f.sent)
}

func TestSnapshotUpdatesView(t *testing.T) {
	_, m := newModel(reconcile.Snapshot{State: reconcile.StateLoading})
	m, cmd := m.Update(snapshotMsg(readySnapshot()))
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Presets")
}

func TestStoppedQuits(t *testing.T) {
	_, m := newModel(readySnapshot())
	_, cmd := m.Update(stoppedMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
