// Package patch produces a new effect config from a single field edit.
package patch

import (
	"github.com/tiendc/go-deepcopy"

	"led-effect-editor/internal/domain/model"
)

// ApplyPatch returns a deep copy of cfg with field set to value. cfg is left
// untouched and the key order is preserved.
//
// field is expected to be one of cfg's keys. An unknown field is never added:
// the copy comes back without it.
func ApplyPatch(cfg model.Config, field string, value any) model.Config {
	out := Clone(cfg)
	if !cfg.Has(field) {
		return out
	}
	values := out.Values()
	values[field] = value
	return model.ConfigFromParts(out.Keys(), values)
}

// Clone deep-copies cfg, nested maps, slices and configs included.
func Clone(cfg model.Config) model.Config {
	src := cfg.Values()
	values := make(map[string]any, len(src))
	for k, v := range src {
		values[k] = cloneValue(v)
	}
	return model.ConfigFromParts(cfg.Keys(), values)
}

// cloneValue walks the shapes a decoded JSON document can take and nested
// configs, whose fields deepcopy cannot see. Anything else goes to deepcopy.
func cloneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case model.Config:
		return Clone(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		var out any
		if err := deepcopy.Copy(&out, v); err != nil {
			return v
		}
		return out
	}
}
