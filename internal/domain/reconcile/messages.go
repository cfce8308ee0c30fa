package reconcile

import (
	"led-effect-editor/internal/domain/model"
)

// Message is anything Transition accepts. The set is closed.
type Message interface {
	message()
}

// Retry re-runs the initial load after a failure.
type Retry struct{}

// LoadPreset replaces the running display state with a preset.
type LoadPreset struct {
	Name string
}

// SetEffectConfig proposes a new config for the effect running on segment
// Index. See EditField for building one from a single field edit.
type SetEffectConfig struct {
	Index  int
	Effect string
	Config model.Config
}

// InitialDataLoaded is the result of FetchInitialData.
type InitialDataLoaded struct {
	Seq  uint64
	Data model.InitialData
}

// PresetApplied is the result of ApplyPreset.
type PresetApplied struct {
	Seq   uint64
	Name  string
	State model.DisplayState
}

// EffectConfigApplied is the result of ApplyEffectConfig.
type EffectConfigApplied struct {
	Seq    uint64
	Effect string
	Config model.Config
}

// RequestFailed reports that Request could not be completed.
type RequestFailed struct {
	Request Request
	Err     error
}

func (Retry) message()               {}
func (LoadPreset) message()          {}
func (SetEffectConfig) message()     {}
func (InitialDataLoaded) message()   {}
func (PresetApplied) message()       {}
func (EffectConfigApplied) message() {}
func (RequestFailed) message()       {}

// Request is a side effect Transition asks for. The set is closed.
type Request interface {
	Sequence() uint64
}

type FetchInitialData struct {
	Seq uint64
}

type ApplyPreset struct {
	Seq  uint64
	Name string
}

type ApplyEffectConfig struct {
	Seq    uint64
	Effect string
	Config model.Config
}

func (r FetchInitialData) Sequence() uint64  { return r.Seq }
func (r ApplyPreset) Sequence() uint64       { return r.Seq }
func (r ApplyEffectConfig) Sequence() uint64 { return r.Seq }
