package yahoo

import (
	"context"
	"fmt"
	"strings"

	"stockcollector/internal/fetcher"
)

// infoModules are merged in order; later modules win on key clashes.
var infoModules = []string{
	"assetProfile",
	"summaryProfile",
	"quoteType",
	"price",
	"summaryDetail",
	"defaultKeyStatistics",
	"financialData",
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]map[string]any `json:"result"`
		Error  *apiError                   `json:"error"`
	} `json:"quoteSummary"`
}

// Info retrieves company metadata and key statistics as one flat map.
// Formatted numbers ({"raw": 1.2, "fmt": "1.20"}) collapse to their raw value.
func (t *Ticker) Info(ctx context.Context) (map[string]any, error) {
	var resp quoteSummaryResponse

	err := t.client.get(ctx, "/v10/finance/quoteSummary/{symbol}", t.symbol, map[string]string{
		"modules": strings.Join(infoModules, ","),
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.QuoteSummary.Error != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("quote summary error for %s: %s", t.symbol, resp.QuoteSummary.Error.Description))
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fetcher.NewValidationError(fmt.Sprintf("no quote summary for %s", t.symbol))
	}

	modules := resp.QuoteSummary.Result[0]
	info := make(map[string]any)
	for _, name := range infoModules {
		for key, value := range modules[name] {
			if key == "maxAge" {
				continue
			}
			if v, ok := flatten(value); ok {
				info[key] = v
			}
		}
	}

	if len(info) == 0 {
		return nil, fetcher.NewValidationError(fmt.Sprintf("empty quote summary for %s", t.symbol))
	}
	info["symbol"] = t.symbol
	return info, nil
}

// flatten unwraps Yahoo's formatted values. Empty objects ({}) are dropped.
func flatten(value any) (any, bool) {
	obj, ok := value.(map[string]any)
	if !ok {
		return value, value != nil
	}
	if raw, ok := obj["raw"]; ok {
		return raw, true
	}
	if len(obj) == 0 {
		return nil, false
	}
	return obj, true
}
