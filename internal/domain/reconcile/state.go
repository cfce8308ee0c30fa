// Package reconcile keeps the editor's view of the controller consistent with
// the controller itself.
//
// Transition is a pure function over (State, Context, Message) returning the
// next state, the next context and the requests to run against the remote
// source. Machine runs it: one message at a time, requests in the
// background, results fed back in as messages.
//
// Every request carries a sequence number. A result is committed only if it
// is newer than the last committed result for the same target and belongs to
// the current load epoch, so a slow response can never overwrite the outcome
// of a later edit.
package reconcile

import (
	"maps"

	"led-effect-editor/internal/domain/model"
)

// State is the editor's UI state.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Context is everything the editor knows about the controller. Values are
// replaced, never mutated in place.
type Context struct {
	Config   model.Config
	Segments []model.Segment
	Effects  map[string]model.EffectDescriptor
	Presets  []model.Preset
	State    model.DisplayState

	seq sequencing
}

type sequencing struct {
	// last issued sequence number
	last uint64
	// results older than epoch belong to a load that has been superseded
	epoch uint64
	// sequence number of the outstanding initial fetch
	load uint64
	// last committed preset result
	preset uint64
	// last committed result per effect
	effects map[string]uint64
}

// Effect returns the descriptor of the effect running on segment idx.
func (c Context) Effect(idx int) (model.EffectDescriptor, bool) {
	name, ok := c.State.EffectAt(idx)
	if !ok {
		return model.EffectDescriptor{}, false
	}
	d, ok := c.Effects[name]
	return d, ok
}

// Issued is the sequence number of the most recent request. The next
// request gets Issued()+1.
func (c Context) Issued() uint64 {
	return c.seq.last
}

// PresetSettled reports whether a preset result issued at seq or later has
// been committed.
func (c Context) PresetSettled(seq uint64) bool {
	return c.seq.preset >= seq
}

// EffectSettled reports whether a config result for effect issued at seq or
// later has been committed.
func (c Context) EffectSettled(effect string, seq uint64) bool {
	return c.seq.effects[effect] >= seq
}

func (c Context) issue() (Context, uint64) {
	c.seq.last++
	return c, c.seq.last
}

func (c Context) stale(seq uint64) bool {
	return seq < c.seq.epoch
}

func (c Context) committedEffect(name string) uint64 {
	return c.seq.effects[name]
}

func (c Context) commitEffect(name string, seq uint64, cfg model.Config) Context {
	effects := maps.Clone(c.Effects)
	effects[name] = effects[name].WithConfig(cfg)
	c.Effects = effects

	committed := maps.Clone(c.seq.effects)
	if committed == nil {
		committed = map[string]uint64{}
	}
	committed[name] = seq
	c.seq.effects = committed
	return c
}

func (c Context) withData(data model.InitialData) Context {
	c.Config = data.Config
	c.Segments = append([]model.Segment(nil), data.Segments...)
	c.Effects = maps.Clone(data.Effects)
	if c.Effects == nil {
		c.Effects = map[string]model.EffectDescriptor{}
	}
	c.Presets = append([]model.Preset(nil), data.Presets...)
	c.State = data.State.Clone()
	c.seq.preset = 0
	c.seq.effects = nil
	return c
}

// Clone returns a copy whose maps and slices can be handed out without
// exposing the original's. Configs are shared since they are immutable.
func (c Context) Clone() Context {
	out := c
	out.Segments = append([]model.Segment(nil), c.Segments...)
	out.Effects = maps.Clone(c.Effects)
	out.Presets = make([]model.Preset, len(c.Presets))
	for i, p := range c.Presets {
		out.Presets[i] = model.Preset{Name: p.Name, State: p.State.Clone()}
	}
	out.State = c.State.Clone()
	out.seq.effects = maps.Clone(c.seq.effects)
	return out
}
