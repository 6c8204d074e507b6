package rating

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// KPIDefinition describes a tracked metric and how it is scored
type KPIDefinition struct {
	Key            string  `json:"key"`          // provider field name
	DisplayName    string  `json:"display_name"` // human-readable name
	Weight         float64 `json:"weight"`       // share of the composite (sum = 1.0)
	LowerIsBetter  bool    `json:"lower_is_better"`
	AbsBest        float64 `json:"abs_best"`  // value scoring 1.0
	AbsWorst       float64 `json:"abs_worst"` // value scoring 0.0
	FormatAsPct    bool    `json:"format_as_pct"`
	FormatDecimals int     `json:"format_decimals"`
}

// Catalog is the ordered KPI table used for extraction, aggregation and scoring
// ⭐ SSOT: 평가 대상 KPI 목록은 여기서만 정의
type Catalog struct {
	defs  []KPIDefinition
	index map[string]int
}

const weightTolerance = 1e-9

// NewCatalog builds a catalog from definitions and validates it
func NewCatalog(defs []KPIDefinition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]KPIDefinition, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	copy(c.defs, defs)

	for i, def := range c.defs {
		if def.Key == "" {
			return nil, fmt.Errorf("kpi #%d: key is required", i)
		}
		if _, exists := c.index[def.Key]; exists {
			return nil, fmt.Errorf("kpi %s: duplicate key", def.Key)
		}
		c.index[def.Key] = i
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// DefaultCatalog returns the reference ten-KPI catalog
func DefaultCatalog() *Catalog {
	cat, err := NewCatalog(defaultDefinitions())
	if err != nil {
		// built-in table is covered by tests
		panic(fmt.Sprintf("default catalog invalid: %v", err))
	}
	return cat
}

func defaultDefinitions() []KPIDefinition {
	return []KPIDefinition{
		// Valuation
		{Key: "trailingPE", DisplayName: "P/E Ratio (TTM)", Weight: 0.15, LowerIsBetter: true, AbsBest: 5.0, AbsWorst: 60.0, FormatDecimals: 2},
		{Key: "forwardPE", DisplayName: "Forward P/E", Weight: 0.12, LowerIsBetter: true, AbsBest: 5.0, AbsWorst: 50.0, FormatDecimals: 2},
		{Key: "priceToBook", DisplayName: "P/B Ratio", Weight: 0.10, LowerIsBetter: true, AbsBest: 0.5, AbsWorst: 20.0, FormatDecimals: 2},
		{Key: "enterpriseToEbitda", DisplayName: "EV/EBITDA", Weight: 0.12, LowerIsBetter: true, AbsBest: 3.0, AbsWorst: 40.0, FormatDecimals: 2},

		// Leverage
		{Key: "debtToEquity", DisplayName: "Debt/Equity", Weight: 0.10, LowerIsBetter: true, AbsBest: 0.0, AbsWorst: 300.0, FormatDecimals: 2},

		// Profitability
		{Key: "returnOnEquity", DisplayName: "ROE", Weight: 0.12, AbsBest: 0.40, AbsWorst: -0.10, FormatAsPct: true, FormatDecimals: 2},
		{Key: "profitMargins", DisplayName: "Profit Margin", Weight: 0.10, AbsBest: 0.40, AbsWorst: -0.10, FormatAsPct: true, FormatDecimals: 2},

		// Growth
		{Key: "revenueGrowth", DisplayName: "Revenue Growth", Weight: 0.09, AbsBest: 0.50, AbsWorst: -0.20, FormatAsPct: true, FormatDecimals: 2},

		// Liquidity
		{Key: "currentRatio", DisplayName: "Current Ratio", Weight: 0.05, AbsBest: 3.0, AbsWorst: 0.3, FormatDecimals: 2},

		// Yield
		{Key: "dividendYield", DisplayName: "Dividend Yield", Weight: 0.05, AbsBest: 0.06, AbsWorst: 0.0, FormatAsPct: true, FormatDecimals: 2},
	}
}

// Validate checks weights and scoring bounds
func (c *Catalog) Validate() error {
	if len(c.defs) == 0 {
		return fmt.Errorf("catalog is empty")
	}

	sum := 0.0
	for _, def := range c.defs {
		if def.Weight <= 0 || def.Weight > 1 {
			return fmt.Errorf("kpi %s: weight %.4f out of range (0,1]", def.Key, def.Weight)
		}
		if def.AbsBest == def.AbsWorst {
			return fmt.Errorf("kpi %s: abs_best and abs_worst must differ", def.Key)
		}
		if def.LowerIsBetter && def.AbsBest > def.AbsWorst {
			return fmt.Errorf("kpi %s: lower_is_better needs abs_best < abs_worst", def.Key)
		}
		if !def.LowerIsBetter && def.AbsBest < def.AbsWorst {
			return fmt.Errorf("kpi %s: higher_is_better needs abs_best > abs_worst", def.Key)
		}
		if def.FormatDecimals < 0 {
			return fmt.Errorf("kpi %s: format_decimals must be >= 0", def.Key)
		}
		sum += def.Weight
	}

	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("kpi weights must sum to 1.0 (got %.6f)", sum)
	}
	return nil
}

// Definitions returns a copy of the definitions in presentation order
func (c *Catalog) Definitions() []KPIDefinition {
	out := make([]KPIDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Keys returns the provider field names in catalog order
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.defs))
	for i, def := range c.defs {
		keys[i] = def.Key
	}
	return keys
}

// Lookup finds a definition by key
func (c *Catalog) Lookup(key string) (KPIDefinition, bool) {
	i, ok := c.index[key]
	if !ok {
		return KPIDefinition{}, false
	}
	return c.defs[i], true
}

// Len returns the number of KPIs
func (c *Catalog) Len() int {
	return len(c.defs)
}

// catalogFile is the on-disk YAML layout
type catalogFile struct {
	KPIs []catalogEntry `yaml:"kpis"`
}

type catalogEntry struct {
	Key            string  `yaml:"key"`
	DisplayName    string  `yaml:"display_name"`
	Weight         float64 `yaml:"weight"`
	LowerIsBetter  bool    `yaml:"lower_is_better"`
	AbsBest        float64 `yaml:"abs_best"`
	AbsWorst       float64 `yaml:"abs_worst"`
	FormatAsPct    bool    `yaml:"format_as_pct"`
	FormatDecimals *int    `yaml:"format_decimals"` // nil = 2
}

// LoadCatalog reads a catalog from a YAML file
// KnownFields(true): 오타/미사용 필드는 즉시 실패
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog document
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	defs := make([]KPIDefinition, len(file.KPIs))
	for i, e := range file.KPIs {
		decimals := 2
		if e.FormatDecimals != nil {
			decimals = *e.FormatDecimals
		}
		defs[i] = KPIDefinition{
			Key:            e.Key,
			DisplayName:    e.DisplayName,
			Weight:         e.Weight,
			LowerIsBetter:  e.LowerIsBetter,
			AbsBest:        e.AbsBest,
			AbsWorst:       e.AbsWorst,
			FormatAsPct:    e.FormatAsPct,
			FormatDecimals: decimals,
		}
	}

	cat, err := NewCatalog(defs)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return cat, nil
}
