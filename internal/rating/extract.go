package rating

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValueMap maps a KPI key to its value; nil means the provider had no data
type ValueMap map[string]*float64

// Get returns the value for key and whether it is present
func (m ValueMap) Get(key string) (float64, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Present counts the KPIs with a value
func (m ValueMap) Present() int {
	n := 0
	for _, v := range m {
		if v != nil {
			n++
		}
	}
	return n
}

// Float returns a pointer to a copy of v
func Float(v float64) *float64 {
	return &v
}

// Extract pulls the catalog's KPIs out of a raw provider record
// Unusable values degrade to absent; extraction never fails
func (c *Catalog) Extract(raw map[string]any) ValueMap {
	kpis := make(ValueMap, len(c.defs))
	for _, def := range c.defs {
		if v, ok := toFloat(raw[def.Key]); ok {
			kpis[def.Key] = Float(v)
		} else {
			kpis[def.Key] = nil
		}
	}
	return kpis
}

// toFloat coerces provider values to float64
func toFloat(value any) (float64, bool) {
	var f float64

	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		// bools are not metrics
		return 0, false
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
