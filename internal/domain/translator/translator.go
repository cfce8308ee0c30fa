// Package translator converts between Hue light states and editor configs.
package translator

import (
	"github.com/amimof/huego"

	"led-effect-editor/internal/domain/model"
)

// Translator maps one kind of Hue light onto an editable effect.
type Translator interface {
	// Schema is the effect schema describing the config ToConfig produces.
	Schema() map[string]any
	ToConfig(state *huego.State) model.Config
	ToHue(cfg model.Config) *huego.State
}

// Formulas hold govaluate expressions over x. An empty or broken formula
// passes the value through unchanged.
type Formulas struct {
	ToHue   string
	FromHue string
}

// DefaultBrightness maps 0..1 onto the Hue range 0..254.
var DefaultBrightness = Formulas{ToHue: "x * 254", FromHue: "x / 254"}
