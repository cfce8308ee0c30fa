package catalog

import "led-effect-editor/internal/domain/model"

// sections lists the segment lengths of each strip, in strip order.
var sections = [][]int{
	{149, 160, 83, 83},
	{149, 160, 42, 86},
	{107, 46, 55, 100, 42, 92, 33},
}

// invertedSegments is how many leading segments run back to front.
const invertedSegments = 9

// Segments returns the fixed layout of the three strips.
func Segments() []model.Segment {
	var out []model.Segment
	for strip, lengths := range sections {
		start := 0
		for _, n := range lengths {
			out = append(out, model.Segment{
				Strip:    strip,
				Start:    start,
				Length:   n,
				Inverted: len(out) < invertedSegments,
			})
			start += n
		}
	}
	return out
}

// DefaultState runs DefaultEffect on every segment.
func DefaultState() model.DisplayState {
	return Uniform(DefaultEffect)
}

// Uniform runs effect on every segment.
func Uniform(effect string) model.DisplayState {
	segs := Segments()
	state := model.DisplayState{Effects: make([]model.SegmentEffectState, len(segs))}
	for i := range segs {
		state.Effects[i] = model.SegmentEffectState{SegmentIndex: i, Effect: effect}
	}
	return state
}

// DefaultPresets are available before anything was saved.
func DefaultPresets() []model.Preset {
	alternating := Uniform("meteors")
	for i := range alternating.Effects {
		if i%2 == 1 {
			alternating.Effects[i].Effect = "snake"
		}
	}
	return []model.Preset{
		{Name: "rainbow", State: Uniform("rainbow")},
		{Name: "calm", State: Uniform("static_rainbow")},
		{Name: "party", State: alternating},
		{Name: "police", State: Uniform("police")},
	}
}

// DefaultGlobalConfig is the controller-wide output configuration.
func DefaultGlobalConfig() model.Config {
	return model.NewConfig("brightness", 1.0, "as_srgb", false)
}
