package rating

import "sort"

// AggregateSector reduces peer KPI maps to one median-per-KPI map
// Median keeps mis-reported peer outliers from dragging the sector value.
// The caller excludes the target ticker from peers.
func (c *Catalog) AggregateSector(peers []ValueMap) ValueMap {
	agg := make(ValueMap, len(c.defs))

	for _, def := range c.defs {
		values := make([]float64, 0, len(peers))
		for _, peer := range peers {
			if v, ok := peer.Get(def.Key); ok {
				values = append(values, v)
			}
		}

		if median, ok := Median(values); ok {
			agg[def.Key] = Float(median)
		} else {
			agg[def.Key] = nil
		}
	}

	return agg
}

// Median returns the statistical median of values without modifying the slice
// Even counts average the two middle values.
func Median(values []float64) (float64, bool) {
	n := len(values)
	if n == 0 {
		return 0, false
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, true
	}
	return sorted[mid], true
}
