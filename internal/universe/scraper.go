package universe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Liszten/kpiComp/internal/contracts"
	"github.com/Liszten/kpiComp/pkg/httputil"
	"github.com/Liszten/kpiComp/pkg/logger"
)

// Scraper reads the S&P 500 constituents table
// ⭐ SSOT: 유니버스 스크래핑은 여기서만
type Scraper struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	sourceURL  string
}

// NewScraper creates a new constituents scraper
func NewScraper(httpClient *httputil.Client, sourceURL string, log *logger.Logger) *Scraper {
	return &Scraper{
		httpClient: httpClient,
		logger:     log,
		sourceURL:  sourceURL,
	}
}

// Fetch downloads and parses the constituents page
func (s *Scraper) Fetch(ctx context.Context) ([]contracts.Constituent, error) {
	resp, err := s.httpClient.Get(ctx, s.sourceURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	list, err := ParseConstituents(resp.Body)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"source": s.sourceURL,
		"count":  len(list),
	}).Info("Scraped universe constituents")

	return list, nil
}

// ParseConstituents extracts constituents from the #constituents table.
// Columns are located by header text so reordering on the page is tolerated.
func ParseConstituents(r io.Reader) ([]contracts.Constituent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		// 페이지 구조 변경 대비: 첫 번째 wikitable
		table = doc.Find("table.wikitable").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("constituents table not found")
	}

	cols := map[string]int{}
	table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
		header := strings.ToLower(strings.TrimSpace(th.Text()))
		switch {
		case strings.HasPrefix(header, "symbol"):
			cols["symbol"] = i
		case strings.HasPrefix(header, "security"):
			cols["security"] = i
		case strings.Contains(header, "sub-industry"):
			cols["industry"] = i
		case strings.Contains(header, "sector"):
			cols["sector"] = i
		}
	})
	for _, required := range []string{"symbol", "sector"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("constituents table missing %q column", required)
		}
	}

	cell := func(cells *goquery.Selection, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= cells.Length() {
			return ""
		}
		return strings.TrimSpace(cells.Eq(idx).Text())
	}

	seen := make(map[string]bool)
	var list []contracts.Constituent
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		ticker := ProviderTicker(cell(cells, "symbol"))
		if ticker == "" || seen[ticker] {
			return
		}
		seen[ticker] = true

		list = append(list, contracts.Constituent{
			Ticker:      ticker,
			CompanyName: cell(cells, "security"),
			Sector:      NormalizeSector(cell(cells, "sector")),
			Industry:    cell(cells, "industry"),
		})
	})

	if len(list) == 0 {
		return nil, fmt.Errorf("constituents table is empty")
	}

	sortConstituents(list)
	return list, nil
}
