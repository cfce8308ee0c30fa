package reconcile

import (
	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/domain/patch"
)

// Init is the machine's starting point: loading, with the initial fetch
// requested.
func Init() (State, Context, []Request) {
	return startLoad(Context{Effects: map[string]model.EffectDescriptor{}})
}

// Transition computes the successor of (s, c) under msg. It never mutates c.
// Messages that are not valid in s, and results that have been superseded,
// leave state and context as they are and request nothing.
func Transition(s State, c Context, msg Message) (State, Context, []Request) {
	switch m := msg.(type) {
	case Retry:
		if s != StateError {
			return s, c, nil
		}
		return startLoad(c)

	case LoadPreset:
		if s != StateReady {
			return s, c, nil
		}
		c, seq := c.issue()
		return s, c, []Request{ApplyPreset{Seq: seq, Name: m.Name}}

	case SetEffectConfig:
		if s != StateReady {
			return s, c, nil
		}
		running, ok := c.State.EffectAt(m.Index)
		if !ok || running != m.Effect {
			return s, c, nil
		}
		if _, ok := c.Effects[m.Effect]; !ok {
			return s, c, nil
		}
		c, seq := c.issue()
		return s, c, []Request{ApplyEffectConfig{Seq: seq, Effect: m.Effect, Config: m.Config}}

	case InitialDataLoaded:
		if s != StateLoading || m.Seq != c.seq.load {
			return s, c, nil
		}
		return StateReady, c.withData(m.Data), nil

	case PresetApplied:
		if s != StateReady || c.stale(m.Seq) || m.Seq <= c.seq.preset {
			return s, c, nil
		}
		c.State = m.State.Clone()
		c.seq.preset = m.Seq
		return s, c, nil

	case EffectConfigApplied:
		if s != StateReady || c.stale(m.Seq) || m.Seq <= c.committedEffect(m.Effect) {
			return s, c, nil
		}
		if _, ok := c.Effects[m.Effect]; !ok {
			return s, c, nil
		}
		return s, c.commitEffect(m.Effect, m.Seq, m.Config), nil

	case RequestFailed:
		if failureApplies(s, c, m.Request) {
			return StateError, c, nil
		}
		return s, c, nil
	}
	return s, c, nil
}

// failureApplies reports whether a failed request still matters: it belongs
// to the current epoch and nothing newer for the same target has committed.
func failureApplies(s State, c Context, r Request) bool {
	if r == nil || c.stale(r.Sequence()) {
		return false
	}
	switch r := r.(type) {
	case FetchInitialData:
		return s == StateLoading && r.Seq == c.seq.load
	case ApplyPreset:
		return s == StateReady && r.Seq > c.seq.preset
	case ApplyEffectConfig:
		return s == StateReady && r.Seq > c.committedEffect(r.Effect)
	}
	return false
}

func startLoad(c Context) (State, Context, []Request) {
	c, seq := c.issue()
	c.seq.epoch = seq
	c.seq.load = seq
	return StateLoading, c, []Request{FetchInitialData{Seq: seq}}
}

// EditField builds the SetEffectConfig for setting field to value on the
// effect running on segment idx. ok is false if the segment has no known
// effect or the effect's config has no such field.
func EditField(c Context, idx int, field string, value any) (SetEffectConfig, bool) {
	name, ok := c.State.EffectAt(idx)
	if !ok {
		return SetEffectConfig{}, false
	}
	d, ok := c.Effects[name]
	if !ok || !d.Config.Has(field) {
		return SetEffectConfig{}, false
	}
	return SetEffectConfig{
		Index:  idx,
		Effect: name,
		Config: patch.ApplyPatch(d.Config, field, value),
	}, true
}
