package translator

import (
	"github.com/amimof/huego"

	"led-effect-editor/internal/domain/model"
)

// DimmableStrategy edits on/off and brightness.
type DimmableStrategy struct {
	Brightness Formulas
}

func (s *DimmableStrategy) Schema() map[string]any {
	return objectSchema(dimmableProperties())
}

func dimmableProperties() map[string]any {
	return map[string]any{
		"on":         boolProp("On", true),
		"brightness": numberProp("Brightness", 1, 0, 1),
	}
}

func (s *DimmableStrategy) ToConfig(state *huego.State) model.Config {
	if state == nil {
		state = &huego.State{}
	}
	bri := clamp(evaluate(s.Brightness.FromHue, float64(state.Bri)), 0, 1)
	return model.NewConfig(
		"on", state.On,
		"brightness", round3(bri),
	)
}

func (s *DimmableStrategy) ToHue(cfg model.Config) *huego.State {
	state := &huego.State{}
	if on, ok := cfg.Get("on"); ok {
		state.On, _ = on.(bool)
	}
	if v, ok := cfg.Get("brightness"); ok {
		if b, ok := number(v); ok {
			state.Bri = uint8(clamp(evaluate(s.Brightness.ToHue, b), 1, 254))
		}
	}
	return state
}

// ColorStrategy adds hue in degrees and saturation in 0..1.
type ColorStrategy struct {
	DimmableStrategy
}

func (s *ColorStrategy) Schema() map[string]any {
	props := dimmableProperties()
	props["hue"] = numberProp("Hue", 0, 0, 360)
	props["saturation"] = numberProp("Saturation", 1, 0, 1)
	return objectSchema(props)
}

func (s *ColorStrategy) ToConfig(state *huego.State) model.Config {
	cfg := s.DimmableStrategy.ToConfig(state)
	if state == nil {
		state = &huego.State{}
	}
	return cfg.
		With("hue", round3(float64(state.Hue)*360/65535)).
		With("saturation", round3(float64(state.Sat)/254))
}

func (s *ColorStrategy) ToHue(cfg model.Config) *huego.State {
	state := s.DimmableStrategy.ToHue(cfg)
	if v, ok := cfg.Get("hue"); ok {
		if h, ok := number(v); ok {
			state.Hue = uint16(clamp(h, 0, 360) * 65535 / 360)
		}
	}
	if v, ok := cfg.Get("saturation"); ok {
		if sat, ok := number(v); ok {
			state.Sat = uint8(clamp(sat, 0, 1) * 254)
		}
	}
	return state
}

// TemperatureStrategy adds a white color temperature in kelvin.
type TemperatureStrategy struct {
	DimmableStrategy
}

const (
	minKelvin = 2000
	maxKelvin = 6500
)

func (s *TemperatureStrategy) Schema() map[string]any {
	props := dimmableProperties()
	props["color_temperature"] = numberProp("Color temperature", 4000, minKelvin, maxKelvin)
	return objectSchema(props)
}

func (s *TemperatureStrategy) ToConfig(state *huego.State) model.Config {
	cfg := s.DimmableStrategy.ToConfig(state)
	kelvin := 4000.0
	if state != nil && state.Ct > 0 {
		kelvin = clamp(1e6/float64(state.Ct), minKelvin, maxKelvin)
	}
	return cfg.With("color_temperature", float64(int(kelvin)))
}

func (s *TemperatureStrategy) ToHue(cfg model.Config) *huego.State {
	state := s.DimmableStrategy.ToHue(cfg)
	if v, ok := cfg.Get("color_temperature"); ok {
		if k, ok := number(v); ok {
			state.Ct = uint16(1e6 / clamp(k, minKelvin, maxKelvin))
		}
	}
	return state
}

func objectSchema(props map[string]any) map[string]any {
	return map[string]any{"type": "object", "properties": props}
}

func boolProp(title string, def bool) map[string]any {
	return map[string]any{"type": "boolean", "title": title, "default": def}
}

func numberProp(title string, def, min, max float64) map[string]any {
	return map[string]any{
		"type":    "number",
		"title":   title,
		"default": def,
		"minimum": min,
		"maximum": max,
	}
}
