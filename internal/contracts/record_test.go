package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawRecord_String(t *testing.T) {
	raw := RawRecord{
		"sector":    "  Technology ",
		"marketCap": 3.1e12,
		"industry":  nil,
	}

	assert.Equal(t, "Technology", raw.String("sector"))
	assert.Equal(t, "", raw.String("marketCap"))
	assert.Equal(t, "", raw.String("industry"))
	assert.Equal(t, "", raw.String("missing"))
}

func TestRawRecord_Has(t *testing.T) {
	raw := RawRecord{"a": 1, "b": nil}

	assert.True(t, raw.Has("a"))
	assert.False(t, raw.Has("b"))
	assert.False(t, raw.Has("c"))
}

func TestNormalizeTicker(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeTicker(" aapl "))
	assert.Equal(t, "BRK-B", NormalizeTicker("brk-b"))
}

func TestSameSector(t *testing.T) {
	assert.True(t, SameSector("Technology", " technology"))
	assert.False(t, SameSector("Technology", "Healthcare"))
}

func TestRawRecord_Classification(t *testing.T) {
	raw := RawRecord{
		"shortName": "Apple Inc.",
		"sector":    "Technology",
		"industry":  "Consumer Electronics",
	}

	assert.Equal(t, "Apple Inc.", raw.Name())
	assert.Equal(t, "Technology", raw.Sector())
	assert.Equal(t, "Consumer Electronics", raw.Industry())

	assert.Equal(t, "Long Only", RawRecord{"longName": "Long Only"}.Name())
	assert.Equal(t, "Unknown", RawRecord{"shortName": "  "}.Name())
	assert.Equal(t, "", RawRecord{}.Sector())
}
