// Package catalog holds the effects, segment layout and presets a fresh
// controller starts with.
package catalog

import (
	"sort"

	"led-effect-editor/internal/domain/model"
)

// Effect is a built-in effect: its schema and its parameters before anyone
// edited them.
type Effect struct {
	Name     string
	Schema   map[string]any
	Defaults model.Config
}

// Descriptor returns the effect as the controller reports it, running cfg.
func (e Effect) Descriptor(cfg model.Config) model.EffectDescriptor {
	return model.EffectDescriptor{Name: e.Name, Schema: e.Schema, Config: cfg}
}

// Has reports whether key is a property the effect's schema declares.
func (e Effect) Has(key string) bool {
	props, _ := e.Schema["properties"].(map[string]any)
	_, ok := props[key]
	return ok
}

// DefaultEffect runs on every segment of a fresh controller.
const DefaultEffect = "rainbow"

// Effects builds the catalog. Every call returns fresh values.
func Effects() map[string]Effect {
	list := []Effect{
		build("meteors",
			prop{"count", integer("Count", 5, 1, 50)},
			prop{"speed", num("Speed", 0.25, 0, 2)},
			prop{"decay", num("Trail decay", 0.9, 0, 1)},
			prop{"random_colors", boolean("Random colors", true)},
		),
		build("balls",
			prop{"count", integer("Count", 3, 1, 20)},
			prop{"gravity", num("Gravity", 9.81, 0, 30)},
			prop{"elasticity", num("Elasticity", 0.9, 0, 1)},
		),
		build("explosions",
			prop{"frequency", num("Frequency", 0.5, 0, 5)},
			prop{"size", integer("Size", 20, 1, 100)},
			prop{"fade", num("Fade", 0.95, 0, 1)},
		),
		build("rainbow",
			prop{"speed", num("Speed", 0.3, 0, 5)},
			prop{"scale", num("Scale", 1, 0.01, 10)},
			prop{"saturation", num("Saturation", 1, 0, 1)},
		),
		build("snake",
			prop{"length", integer("Length", 20, 1, 200)},
			prop{"speed", num("Speed", 0.5, 0, 5)},
			prop{"wrap", boolean("Wrap around", true)},
		),
		build("random",
			prop{"scale", num("Noise scale", 0.05, 0, 1)},
			prop{"speed", num("Speed", 0.1, 0, 2)},
		),
		build("flash_rainbow",
			prop{"interval", num("Interval (s)", 0.5, 0.05, 10)},
			prop{"hue_step", num("Hue step", 30, 0, 360)},
		),
		// The color parameter is a nested object the editor cannot edit.
		police(),
		build("moving_lights",
			prop{"count", integer("Count", 4, 1, 30)},
			prop{"speed", num("Speed", 0.2, 0, 5)},
			prop{"width", integer("Width", 6, 1, 50)},
		),
		build("static_rainbow",
			prop{"offset", num("Offset", 0, 0, 1)},
			prop{"scale", num("Scale", 1, 0.01, 10)},
		),
	}
	out := make(map[string]Effect, len(list))
	for _, e := range list {
		out[e.Name] = e
	}
	return out
}

// Names returns the catalog's effect names sorted.
func Names() []string {
	effects := Effects()
	names := make([]string, 0, len(effects))
	for name := range effects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the built-in effect called name.
func Lookup(name string) (Effect, bool) {
	e, ok := Effects()[name]
	return e, ok
}

type prop struct {
	name   string
	schema map[string]any
}

func build(name string, props ...prop) Effect {
	properties := make(map[string]any, len(props))
	keys := make([]string, 0, len(props))
	values := make(map[string]any, len(props))
	for _, p := range props {
		properties[p.name] = p.schema
		keys = append(keys, p.name)
		values[p.name] = p.schema["default"]
	}
	return Effect{
		Name: name,
		Schema: map[string]any{
			"$schema":    "http://json-schema.org/draft-07/schema#",
			"title":      name,
			"type":       "object",
			"properties": properties,
		},
		Defaults: model.ConfigFromParts(keys, values),
	}
}

func police() Effect {
	e := build("police")
	e.Schema["properties"] = map[string]any{"color": true}
	e.Schema["definitions"] = map[string]any{
		"Color": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"r": map[string]any{"type": "number"},
				"g": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
		},
	}
	e.Defaults = model.NewConfig("color", map[string]any{"r": 0.0, "g": 0.0, "b": 1.0})
	return e
}

func num(title string, def, min, max float64) map[string]any {
	return map[string]any{
		"type":    "number",
		"format":  "float",
		"title":   title,
		"default": def,
		"minimum": min,
		"maximum": max,
	}
}

func integer(title string, def, min, max float64) map[string]any {
	s := num(title, def, min, max)
	s["type"] = "integer"
	s["format"] = "uint"
	return s
}

func boolean(title string, def bool) map[string]any {
	return map[string]any{"type": "boolean", "title": title, "default": def}
}
