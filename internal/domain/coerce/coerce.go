// Package coerce maps a field's declared type to how it is edited, shown and
// parsed back.
package coerce

import (
	"math"
	"strings"
	"unicode"

	"led-effect-editor/internal/domain/schema"
)

// InvalidMarker is appended to the label of fields without a usable schema.
const InvalidMarker = " (invalid schema)"

// Kind is the editing affordance for a field.
type Kind int

const (
	KindText Kind = iota
	KindNumeric
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	default:
		return "text"
	}
}

// Control is the state of an input control at the moment it changed.
// Number is the control's numeric reading and is NaN when the control does
// not hold a number.
type Control struct {
	Text    string
	Number  float64
	Checked bool
}

func InputKind(p schema.Property) Kind {
	c, ok := p.(schema.Concrete)
	if !ok {
		return KindText
	}
	switch c.Type {
	case "number", "integer":
		return KindNumeric
	case "boolean":
		return KindBoolean
	default:
		return KindText
	}
}

// Disabled reports whether the field must be shown read-only.
func Disabled(p schema.Property) bool {
	_, ok := p.(schema.Concrete)
	return !ok
}

// ParseInput reads the typed value out of a control. ok is false when
// nothing should be written back: the field has no usable schema, or a
// numeric control does not hold a finite number.
func ParseInput(p schema.Property, ctl Control) (value any, ok bool) {
	if Disabled(p) {
		return nil, false
	}
	switch InputKind(p) {
	case KindNumeric:
		if math.IsNaN(ctl.Number) || math.IsInf(ctl.Number, 0) {
			return nil, false
		}
		return ctl.Number, true
	case KindBoolean:
		return ctl.Checked, true
	default:
		return ctl.Text, true
	}
}

// DisplayValue is what a control shows for a stored value. Numbers are
// rounded to three decimals; the stored value is not touched.
func DisplayValue(p schema.Property, stored any) any {
	if InputKind(p) != KindNumeric {
		return stored
	}
	v, ok := toFloat(stored)
	if !ok {
		return stored
	}
	return math.Round(v*1000) / 1000
}

// Label is the field's caption.
func Label(name string, p schema.Property) string {
	label := PrettyName(name)
	if Disabled(p) {
		label += InvalidMarker
	}
	return label
}

// PrettyName turns "flash_rainbow" or "moving-lights" into "Flash Rainbow" /
// "Moving Lights".
func PrettyName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	}
	return 0, false
}
