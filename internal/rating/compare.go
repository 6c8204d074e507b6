package rating

import "fmt"

// Comparison is one row of the stock vs. sector table
type Comparison struct {
	Key           string   `json:"key"`
	DisplayName   string   `json:"display_name"`
	Weight        string   `json:"weight"`
	StockValue    string   `json:"stock_value"`
	SectorAvg     string   `json:"sector_avg"`
	Difference    string   `json:"difference"`
	StockRaw      *float64 `json:"stock_raw"`
	SectorRaw     *float64 `json:"sector_raw"`
	DiffRaw       *float64 `json:"diff_raw"`
	LowerIsBetter bool     `json:"lower_is_better"`
	Score         KPIScore `json:"kpi_score"`
}

const notAvailable = "N/A"

// FormatValue renders a KPI value using the definition's display mode
func FormatValue(def KPIDefinition, value *float64) string {
	if value == nil {
		return notAvailable
	}
	if def.FormatAsPct {
		return fmt.Sprintf("%.*f%%", def.FormatDecimals, *value*100)
	}
	return fmt.Sprintf("%.*f", def.FormatDecimals, *value)
}

// formatDiff renders a signed difference
func formatDiff(def KPIDefinition, diff float64) string {
	if def.FormatAsPct {
		return fmt.Sprintf("%+.*f%%", def.FormatDecimals, diff*100)
	}
	return fmt.Sprintf("%+.*f", def.FormatDecimals, diff)
}

// Compare pairs stock and sector values per KPI for presentation
func (c *Catalog) Compare(stock, sector ValueMap, result Result) []Comparison {
	rows := make([]Comparison, 0, len(c.defs))

	for _, def := range c.defs {
		stockVal := stock[def.Key]
		sectorVal := sector[def.Key]

		row := Comparison{
			Key:           def.Key,
			DisplayName:   def.DisplayName,
			Weight:        fmt.Sprintf("%.0f%%", def.Weight*100),
			StockValue:    FormatValue(def, stockVal),
			SectorAvg:     FormatValue(def, sectorVal),
			Difference:    notAvailable,
			StockRaw:      stockVal,
			SectorRaw:     sectorVal,
			LowerIsBetter: def.LowerIsBetter,
			Score:         result.KPIScores[def.Key],
		}

		if stockVal != nil && sectorVal != nil {
			diff := *stockVal - *sectorVal
			row.DiffRaw = Float(diff)
			row.Difference = formatDiff(def, diff)
		}

		rows = append(rows, row)
	}

	return rows
}
