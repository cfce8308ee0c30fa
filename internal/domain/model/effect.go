package model

import "sort"

// EffectDescriptor describes one effect the controller knows about: its
// parameter schema (a decoded JSON-Schema document) and current parameters.
type EffectDescriptor struct {
	Name   string `json:"name"`
	Schema any    `json:"schema"`
	Config Config `json:"config"`
}

// WithConfig returns a copy of d carrying cfg.
func (d EffectDescriptor) WithConfig(cfg Config) EffectDescriptor {
	d.Config = cfg
	return d
}

// SegmentEffectState is the effect currently assigned to a segment.
type SegmentEffectState struct {
	SegmentIndex int    `json:"segment"`
	Effect       string `json:"effect"`
}

// DisplayState is what is currently running on the controller.
type DisplayState struct {
	Effects []SegmentEffectState `json:"effects"`
}

// EffectAt returns the effect assigned to segment idx.
func (s DisplayState) EffectAt(idx int) (string, bool) {
	for _, e := range s.Effects {
		if e.SegmentIndex == idx {
			return e.Effect, true
		}
	}
	return "", false
}

func (s DisplayState) Clone() DisplayState {
	out := DisplayState{Effects: make([]SegmentEffectState, len(s.Effects))}
	copy(out.Effects, s.Effects)
	return out
}

// Preset is a named snapshot of a full display state.
type Preset struct {
	Name  string       `json:"name"`
	State DisplayState `json:"state"`
}

// Segment is an addressable run of LEDs on one strip.
type Segment struct {
	Strip    int  `json:"strip"`
	Start    int  `json:"start"`
	Length   int  `json:"length"`
	Inverted bool `json:"inverted"`
}

// InitialData is everything the editor needs before it can show anything.
type InitialData struct {
	Config   Config                      `json:"config"`
	Segments []Segment                   `json:"segments"`
	Effects  map[string]EffectDescriptor `json:"effects"`
	Presets  []Preset                    `json:"presets"`
	State    DisplayState                `json:"state"`
}

// EffectNames returns the catalog's names in lexical order.
func EffectNames(effects map[string]EffectDescriptor) []string {
	names := make([]string, 0, len(effects))
	for name := range effects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
