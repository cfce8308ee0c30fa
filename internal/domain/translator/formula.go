package translator

import (
	"math"

	"github.com/Knetic/govaluate"
)

// evaluate handles simple formulas like "x * 254" or "x / 254"
func evaluate(formula string, x float64) float64 {
	if formula == "" {
		return x
	}
	expression, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return x
	}
	result, err := expression.Evaluate(map[string]interface{}{"x": x})
	if err != nil {
		return x
	}
	if val, ok := result.(float64); ok && !math.IsNaN(val) && !math.IsInf(val, 0) {
		return val
	}
	return x
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func number(v any) (float64, bool) {
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
