package contracts

import (
	"errors"
	"strings"
	"time"
)

// ErrTickerNotFound is returned when a provider has no usable record for a ticker
var ErrTickerNotFound = errors.New("ticker not found")

// RawRecord is the flat field map a market data provider returns for one ticker
// ⭐ SSOT: 원본 데이터 → KPI 추출 입력
type RawRecord map[string]any

// String returns a trimmed string field, or "" when absent or not a string
func (r RawRecord) String(key string) string {
	v, ok := r[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Has reports whether the field is present and non-nil
func (r RawRecord) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Name returns the short name, then the long name, then "Unknown"
func (r RawRecord) Name() string {
	if name := r.String("shortName"); name != "" {
		return name
	}
	if name := r.String("longName"); name != "" {
		return name
	}
	return "Unknown"
}

// Sector returns the sector classification or ""
func (r RawRecord) Sector() string {
	return r.String("sector")
}

// Industry returns the industry or ""
func (r RawRecord) Industry() string {
	return r.String("industry")
}

// Constituent is one member of the peer universe
// ⭐ SSOT: 유니버스 종목 정보
type Constituent struct {
	Ticker      string    `json:"ticker"`
	CompanyName string    `json:"company_name"`
	Sector      string    `json:"sector"`
	Industry    string    `json:"industry"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeTicker upper-cases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// SameSector compares sector names case-insensitively
func SameSector(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
