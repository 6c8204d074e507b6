package universe

import (
	"sort"
	"strings"

	"github.com/Liszten/kpiComp/internal/contracts"
)

// gicsToProvider maps GICS sector names to the names the market data provider reports
var gicsToProvider = map[string]string{
	"information technology": "Technology",
	"health care":            "Healthcare",
	"financials":             "Financial Services",
	"consumer discretionary": "Consumer Cyclical",
	"consumer staples":       "Consumer Defensive",
	"materials":              "Basic Materials",
	"communication services": "Communication Services",
	"industrials":            "Industrials",
	"energy":                 "Energy",
	"utilities":              "Utilities",
	"real estate":            "Real Estate",
}

// NormalizeSector converts a GICS sector name into the provider's sector name.
// Unknown names are returned trimmed and unchanged.
func NormalizeSector(sector string) string {
	sector = strings.TrimSpace(sector)
	if mapped, ok := gicsToProvider[strings.ToLower(sector)]; ok {
		return mapped
	}
	return sector
}

// ProviderTicker converts an index symbol (BRK.B) to the provider's form (BRK-B)
func ProviderTicker(symbol string) string {
	return strings.ReplaceAll(contracts.NormalizeTicker(symbol), ".", "-")
}

func sortConstituents(list []contracts.Constituent) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].Ticker < list[j].Ticker
	})
}

func allTickers(list []contracts.Constituent) []string {
	tickers := make([]string, 0, len(list))
	for _, c := range list {
		tickers = append(tickers, c.Ticker)
	}
	return tickers
}

func filterBySector(list []contracts.Constituent, sector string) []string {
	var tickers []string
	for _, c := range list {
		if contracts.SameSector(c.Sector, sector) {
			tickers = append(tickers, c.Ticker)
		}
	}
	return tickers
}

func distinctSectors(list []contracts.Constituent) []string {
	seen := make(map[string]bool)
	var sectors []string
	for _, c := range list {
		if c.Sector == "" || seen[c.Sector] {
			continue
		}
		seen[c.Sector] = true
		sectors = append(sectors, c.Sector)
	}
	sort.Strings(sectors)
	return sectors
}
