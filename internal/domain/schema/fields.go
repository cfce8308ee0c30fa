package schema

import "led-effect-editor/internal/domain/model"

// Field is one editable config entry, derived at render time.
type Field struct {
	Name   string
	Value  any
	Schema Property
}

// Invalid reports whether the config holds a value the schema has no usable
// property for.
func (f Field) Invalid() bool {
	_, ok := f.Schema.(Unusable)
	return ok || f.Schema == nil
}

// DeriveFields lists one field per key of cfg, in cfg's key order. If raw is
// not an object schema the result is empty.
func DeriveFields(cfg model.Config, raw any) []Field {
	return Parse(raw).Fields(cfg)
}

// Fields is DeriveFields for an already parsed document.
func (d Document) Fields(cfg model.Config) []Field {
	if !d.IsObject() {
		return []Field{}
	}
	keys := cfg.Keys()
	fields := make([]Field, 0, len(keys))
	for _, name := range keys {
		v, _ := cfg.Get(name)
		fields = append(fields, Field{
			Name:   name,
			Value:  v,
			Schema: d.Property(name),
		})
	}
	return fields
}
