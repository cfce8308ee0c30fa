package translator

// Hue light types as reported by the bridge.
const (
	TypeExtendedColor = "Extended color light"
	TypeColor         = "Color light"
	TypeTemperature   = "Color temperature light"
	TypeDimmable      = "Dimmable light"
)

type Factory struct {
	strategies map[string]Translator
	fallback   Translator
}

func NewFactory(brightness Formulas) *Factory {
	dim := DimmableStrategy{Brightness: brightness}
	color := &ColorStrategy{DimmableStrategy: dim}
	return &Factory{
		strategies: map[string]Translator{
			TypeExtendedColor: color,
			TypeColor:         color,
			TypeTemperature:   &TemperatureStrategy{DimmableStrategy: dim},
			TypeDimmable:      &dim,
		},
		fallback: &dim,
	}
}

// GetTranslator returns the strategy for a Hue light type. Unknown types
// are treated as dimmable lights.
func (f *Factory) GetTranslator(lightType string) Translator {
	if t, ok := f.strategies[lightType]; ok {
		return t
	}
	return f.fallback
}

// EffectName is the name under which a light type is exposed as an effect.
func EffectName(lightType string) string {
	switch lightType {
	case TypeExtendedColor, TypeColor:
		return "hue_color"
	case TypeTemperature:
		return "hue_white_ambiance"
	default:
		return "hue_dimmable"
	}
}
