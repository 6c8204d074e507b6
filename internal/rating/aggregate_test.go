package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		ok     bool
	}{
		{"empty", nil, 0, false},
		{"single", []float64{7}, 7, true},
		{"odd", []float64{30, 10, 20}, 20, true},
		{"even", []float64{40, 10, 30, 20}, 25, true},
		{"negatives", []float64{-0.1, 0.2, -0.3}, -0.1, true},
		{"outlier", []float64{12, 14, 15, 4000}, 14.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Median(tt.values)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestMedian_DoesNotMutate(t *testing.T) {
	values := []float64{3, 1, 2}
	_, _ = Median(values)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestAggregateSector(t *testing.T) {
	cat := DefaultCatalog()

	peers := []ValueMap{
		{"trailingPE": Float(10), "returnOnEquity": Float(0.2), "dividendYield": nil},
		{"trailingPE": Float(30), "returnOnEquity": nil},
		{"trailingPE": Float(20), "returnOnEquity": Float(0.1)},
		{"trailingPE": Float(40)},
	}

	agg := cat.AggregateSector(peers)

	assert.Len(t, agg, cat.Len())

	pe, ok := agg.Get("trailingPE")
	require.True(t, ok)
	assert.Equal(t, 25.0, pe)

	roe, ok := agg.Get("returnOnEquity")
	require.True(t, ok)
	assert.InDelta(t, 0.15, roe, 1e-12)

	// nobody reported these
	assert.Nil(t, agg["dividendYield"])
	assert.Nil(t, agg["forwardPE"])
}

func TestAggregateSector_OddCount(t *testing.T) {
	peers := []ValueMap{
		{"priceToBook": Float(10)},
		{"priceToBook": Float(20)},
		{"priceToBook": Float(30)},
	}

	agg := DefaultCatalog().AggregateSector(peers)

	v, ok := agg.Get("priceToBook")
	require.True(t, ok)
	assert.Equal(t, 20.0, v)
}

func TestAggregateSector_IdenticalValues(t *testing.T) {
	cat := DefaultCatalog()

	peers := make([]ValueMap, 0, 7)
	for i := 0; i < 7; i++ {
		peers = append(peers, ValueMap{"currentRatio": Float(1.37)})
	}

	v, ok := cat.AggregateSector(peers).Get("currentRatio")
	require.True(t, ok)
	assert.Equal(t, 1.37, v)
}

func TestAggregateSector_NoPeers(t *testing.T) {
	cat := DefaultCatalog()

	agg := cat.AggregateSector(nil)

	assert.Len(t, agg, cat.Len())
	assert.Equal(t, 0, agg.Present())
}
