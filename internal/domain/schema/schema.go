// Package schema turns a JSON-Schema object description and a config into
// the list of fields an editor shows.
//
// Only flat objects of scalar properties are understood. Anything else
// degrades: a document that is not an object yields no fields, a property
// whose schema is missing or unusable yields a field marked invalid.
package schema

import "strings"

// Property is the resolved schema of one config field: either Concrete or
// Unusable.
type Property interface {
	property()
}

// Concrete is a property with an object schema.
type Concrete struct {
	Type        string
	Title       string
	Description string
	Default     any
	Minimum     *float64
	Maximum     *float64
}

// Unusable marks a property whose schema is missing or is not an object
// (e.g. the boolean schemas true/false).
type Unusable struct{}

func (Concrete) property() {}
func (Unusable) property() {}

// Document is a parsed top-level schema.
type Document struct {
	Type       string
	Properties map[string]Property
}

// IsObject reports whether the document describes an object.
func (d Document) IsObject() bool {
	return d.Type == "object"
}

// Property looks up name, returning Unusable when it has no usable schema.
func (d Document) Property(name string) Property {
	if p, ok := d.Properties[name]; ok {
		return p
	}
	return Unusable{}
}

// Parse reads a decoded JSON value. It never fails: shapes it does not
// understand produce an empty Document or Unusable properties.
func Parse(raw any) Document {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Document{}
	}
	doc := Document{Type: typeName(obj["type"])}
	props, _ := obj["properties"].(map[string]any)
	doc.Properties = make(map[string]Property, len(props))
	for name, p := range props {
		doc.Properties[name] = parseProperty(p)
	}
	return doc
}

func parseProperty(raw any) Property {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Unusable{}
	}
	p := Concrete{
		Type:    typeName(obj["type"]),
		Default: obj["default"],
		Minimum: number(obj["minimum"]),
		Maximum: number(obj["maximum"]),
	}
	p.Title, _ = obj["title"].(string)
	p.Description, _ = obj["description"].(string)
	return p
}

// typeName accepts "type": "number" as well as "type": ["number", "null"].
func typeName(raw any) string {
	switch t := raw.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s != "null" {
				return s
			}
		}
	}
	return ""
}

func number(raw any) *float64 {
	switch n := raw.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	}
	return nil
}
