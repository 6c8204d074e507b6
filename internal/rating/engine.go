package rating

import (
	"fmt"
	"math"
	"strconv"
)

// Weights blends absolute and relative sub-scores
type Weights struct {
	Absolute float64 `json:"absolute"`
	Relative float64 `json:"relative"`
}

// DefaultWeights favours standing against live peers over fixed thresholds,
// since "cheap" multiples differ a lot between sectors.
var DefaultWeights = Weights{Absolute: 0.40, Relative: 0.60}

// Validate checks that weights are non-negative and sum to 1
func (w Weights) Validate() error {
	if w.Absolute < 0 || w.Relative < 0 {
		return fmt.Errorf("weights must be non-negative (absolute=%.4f, relative=%.4f)", w.Absolute, w.Relative)
	}
	if math.Abs(w.Absolute+w.Relative-1.0) > weightTolerance {
		return fmt.Errorf("absolute and relative weights must sum to 1.0 (got %.4f)", w.Absolute+w.Relative)
	}
	return nil
}

// Confidence tells callers how much of the catalog backed a rating
type Confidence string

const (
	ConfidenceNone   Confidence = "none" // no KPI present, rating is the 1.0 floor
	ConfidenceLow    Confidence = "low"  // under half the catalog weight present
	ConfidenceNormal Confidence = "normal"
)

// lowConfidenceWeight is the catalog weight share below which a rating is flagged
const lowConfidenceWeight = 0.5

// KPIScore is the per-KPI breakdown; all fields are nil when the stock lacks the KPI
type KPIScore struct {
	Absolute *float64 `json:"absolute"`
	Relative *float64 `json:"relative"`
	Combined *float64 `json:"combined"`
}

// Result is a 1-10 rating with its breakdown
type Result struct {
	OverallRating float64             `json:"overall_rating"`
	AbsoluteScore float64             `json:"absolute_score"`
	RelativeScore float64             `json:"relative_score"`
	KPIScores     map[string]KPIScore `json:"kpi_scores"`
	KPIsUsed      int                 `json:"kpis_used"`
	WeightUsed    float64             `json:"weight_used"`
	Confidence    Confidence          `json:"confidence"`
}

// Ratable reports whether at least one KPI contributed to the rating
func (r Result) Ratable() bool {
	return r.KPIsUsed > 0
}

// Engine turns stock and sector KPI maps into a rating
// ⭐ SSOT: 평가 점수 계산은 여기서만
// Engine holds no mutable state and is safe for concurrent use.
type Engine struct {
	catalog *Catalog
	weights Weights
}

// NewEngine creates a scoring engine
func NewEngine(catalog *Catalog, weights Weights) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Engine{catalog: catalog, weights: weights}, nil
}

// Catalog returns the engine's catalog
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Weights returns the absolute/relative blend
func (e *Engine) Weights() Weights {
	return e.weights
}

// ScoreAbsolute maps a value onto [0,1] between the definition's best and worst bounds
func ScoreAbsolute(value float64, def KPIDefinition) float64 {
	if def.LowerIsBetter {
		if value <= def.AbsBest {
			return 1.0
		}
		if value >= def.AbsWorst {
			return 0.0
		}
		return 1.0 - (value-def.AbsBest)/(def.AbsWorst-def.AbsBest)
	}

	if value >= def.AbsBest {
		return 1.0
	}
	if value <= def.AbsWorst {
		return 0.0
	}
	return (value - def.AbsWorst) / (def.AbsBest - def.AbsWorst)
}

// ScoreRelative scores a value against the sector average on [0,1]
// 0.5 = in line with peers (also returned when no comparison is possible).
// A logistic curve saturates outlier deviations instead of letting them dominate.
func ScoreRelative(value float64, sectorAvg *float64, def KPIDefinition) float64 {
	if sectorAvg == nil || *sectorAvg == 0 {
		return 0.5
	}

	avg := *sectorAvg
	pctDiff := (value - avg) / math.Abs(avg)
	if def.LowerIsBetter {
		pctDiff = -pctDiff
	}

	score := 1.0 / (1.0 + math.Exp(-4.0*pctDiff))
	return clamp01(score)
}

// Rate scores every catalog KPI and blends them into a 1-10 rating
// KPIs missing from stock are left out of both numerator and denominator,
// so a ticker is not penalised merely for missing data.
func (e *Engine) Rate(stock, sector ValueMap) Result {
	var (
		absWeighted float64
		relWeighted float64
		weightUsed  float64
		used        int
	)

	scores := make(map[string]KPIScore, e.catalog.Len())

	for _, def := range e.catalog.defs {
		val, ok := stock.Get(def.Key)
		if !ok {
			scores[def.Key] = KPIScore{}
			continue
		}

		absScore := ScoreAbsolute(val, def)
		relScore := ScoreRelative(val, sector[def.Key], def)
		combined := e.weights.Absolute*absScore + e.weights.Relative*relScore

		scores[def.Key] = KPIScore{
			Absolute: Float(round(absScore, 3)),
			Relative: Float(round(relScore, 3)),
			Combined: Float(round(combined, 3)),
		}

		absWeighted += absScore * def.Weight
		relWeighted += relScore * def.Weight
		weightUsed += def.Weight
		used++
	}

	// Renormalise over the KPIs actually present
	if weightUsed > 0 {
		absWeighted /= weightUsed
		relWeighted /= weightUsed
	}

	overall := e.weights.Absolute*absWeighted + e.weights.Relative*relWeighted

	return Result{
		OverallRating: round(toTenScale(overall), 1),
		AbsoluteScore: round(toTenScale(absWeighted), 1),
		RelativeScore: round(toTenScale(relWeighted), 1),
		KPIScores:     scores,
		KPIsUsed:      used,
		WeightUsed:    round(weightUsed, 3),
		Confidence:    confidenceFor(used, weightUsed),
	}
}

func confidenceFor(used int, weightUsed float64) Confidence {
	switch {
	case used == 0:
		return ConfidenceNone
	case weightUsed < lowConfidenceWeight:
		return ConfidenceLow
	default:
		return ConfidenceNormal
	}
}

// toTenScale maps [0,1] to [1,10]
func toTenScale(raw float64) float64 {
	return 1.0 + raw*9.0
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

// round rounds the exact binary value to places decimals, ties to even
func round(v float64, places int) float64 {
	out, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return out
}
