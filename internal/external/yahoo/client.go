package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Liszten/kpiComp/internal/contracts"
	"github.com/Liszten/kpiComp/pkg/httputil"
	"github.com/Liszten/kpiComp/pkg/logger"
)

// ErrTickerNotFound is returned when Yahoo has no usable record for a ticker
var ErrTickerNotFound = contracts.ErrTickerNotFound

// quoteSummary modules merged into one raw record
var summaryModules = []string{
	"price",
	"summaryProfile",
	"summaryDetail",
	"defaultKeyStatistics",
	"financialData",
}

// Client handles communication with the Yahoo Finance quoteSummary API
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]map[string]any `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// FetchInfo returns the flattened quote summary for a ticker
func (c *Client) FetchInfo(ctx context.Context, ticker string) (contracts.RawRecord, error) {
	ticker = contracts.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("empty ticker: %w", ErrTickerNotFound)
	}

	params := url.Values{}
	params.Set("modules", strings.Join(summaryModules, ","))
	fullURL := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var body quoteSummaryResponse
	if err := c.httpClient.GetJSON(ctx, fullURL, &body); err != nil {
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", ticker, ErrTickerNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	if qsErr := body.QuoteSummary.Error; qsErr != nil {
		if strings.EqualFold(qsErr.Code, "Not Found") {
			return nil, fmt.Errorf("%s: %w", ticker, ErrTickerNotFound)
		}
		return nil, fmt.Errorf("fetch %s: %s: %s", ticker, qsErr.Code, qsErr.Description)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, ErrTickerNotFound)
	}

	raw := Flatten(body.QuoteSummary.Result[0])
	if !raw.Has("regularMarketPrice") {
		return nil, fmt.Errorf("%s: no market price: %w", ticker, ErrTickerNotFound)
	}
	raw["symbol"] = ticker

	c.logger.WithTicker(ticker).WithField("fields", len(raw)).Debug("Fetched quote summary")

	return raw, nil
}

// Flatten merges quoteSummary modules into one field map.
// {"raw": x, "fmt": "..."} objects are unwrapped to x and empty objects are dropped.
// Modules are merged in request order; the first module to report a field wins.
func Flatten(result map[string]map[string]any) contracts.RawRecord {
	raw := make(contracts.RawRecord)

	merge := func(module map[string]any) {
		for key, value := range module {
			if key == "maxAge" {
				continue
			}
			if _, seen := raw[key]; seen {
				continue
			}
			if v, ok := unwrap(value); ok {
				raw[key] = v
			}
		}
	}

	for _, name := range summaryModules {
		if module, ok := result[name]; ok {
			merge(module)
		}
	}
	return raw
}

func unwrap(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case map[string]any:
		inner, ok := v["raw"]
		if !ok || inner == nil {
			return nil, false
		}
		return inner, true
	case []any:
		// officer lists and similar are not KPI inputs
		return nil, false
	default:
		return v, true
	}
}
