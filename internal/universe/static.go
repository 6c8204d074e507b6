package universe

import "github.com/Liszten/kpiComp/internal/contracts"

// staticUniverse is the built-in peer list used when no refreshed universe is available.
// Sector names follow the market data provider (e.g. "Technology", not "Information Technology").
var staticUniverse = buildStatic(map[string][]string{
	"Technology": {
		"AAPL", "MSFT", "NVDA", "AVGO", "ORCL", "CRM", "ADBE", "AMD", "CSCO", "ACN",
		"IBM", "INTU", "TXN", "QCOM", "NOW", "AMAT", "MU", "ADI", "LRCX", "KLAC",
		"SNPS", "CDNS", "PANW", "ANET", "INTC", "APH", "MSI", "FTNT", "ADSK", "ROP",
	},
	"Communication Services": {
		"GOOGL", "GOOG", "META", "NFLX", "DIS", "CMCSA", "T", "VZ", "TMUS", "CHTR",
		"EA", "TTWO", "WBD", "OMC", "IPG",
	},
	"Consumer Cyclical": {
		"AMZN", "TSLA", "HD", "MCD", "NKE", "LOW", "SBUX", "BKNG", "TJX", "ORLY",
		"AZO", "CMG", "MAR", "HLT", "ROST", "GM", "F", "YUM", "DHI", "LEN",
	},
	"Consumer Defensive": {
		"WMT", "PG", "COST", "KO", "PEP", "PM", "MDLZ", "MO", "CL", "TGT",
		"KMB", "GIS", "STZ", "KHC", "SYY", "KR", "HSY", "DG",
	},
	"Healthcare": {
		"LLY", "UNH", "JNJ", "ABBV", "MRK", "TMO", "ABT", "DHR", "PFE", "AMGN",
		"ISRG", "BMY", "GILD", "VRTX", "MDT", "SYK", "ELV", "CI", "REGN", "BSX",
		"ZTS", "HCA", "MCK", "CVS",
	},
	"Financial Services": {
		"BRK-B", "JPM", "V", "MA", "BAC", "WFC", "GS", "MS", "SPGI", "AXP",
		"BLK", "C", "SCHW", "PGR", "CB", "MMC", "ICE", "CME", "PNC", "USB",
		"AON", "COF", "MET", "AIG",
	},
	"Industrials": {
		"GE", "CAT", "RTX", "HON", "UNP", "UPS", "BA", "LMT", "DE", "ADP",
		"ETN", "WM", "GD", "NOC", "ITW", "CSX", "EMR", "FDX", "NSC", "MMM",
		"PH", "CTAS",
	},
	"Energy": {
		"XOM", "CVX", "COP", "EOG", "SLB", "MPC", "PSX", "OXY", "VLO", "WMB",
		"KMI", "HES", "OKE", "HAL", "DVN", "BKR",
	},
	"Utilities": {
		"NEE", "SO", "DUK", "CEG", "SRE", "AEP", "D", "PCG", "EXC", "XEL",
		"ED", "PEG", "WEC", "EIX",
	},
	"Real Estate": {
		"PLD", "AMT", "EQIX", "WELL", "SPG", "PSA", "O", "CCI", "DLR", "VICI",
		"CBRE", "EXR", "AVB",
	},
	"Basic Materials": {
		"LIN", "SHW", "APD", "ECL", "FCX", "NEM", "DOW", "DD", "NUE", "PPG",
		"CTVA", "MLM", "VMC",
	},
})

func buildStatic(bySector map[string][]string) []contracts.Constituent {
	var out []contracts.Constituent
	for sector, tickers := range bySector {
		for _, ticker := range tickers {
			out = append(out, contracts.Constituent{Ticker: ticker, Sector: sector})
		}
	}
	sortConstituents(out)
	return out
}

// Static returns a copy of the built-in universe
func Static() []contracts.Constituent {
	out := make([]contracts.Constituent, len(staticUniverse))
	copy(out, staticUniverse)
	return out
}
