package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"stockcollector/internal/fetcher"
	"stockcollector/internal/table"
)

// ItemLabel names the label column of statement tables.
const ItemLabel = "Item"

// firstPeriod is the earliest timestamp Yahoo serves fundamentals for.
const firstPeriod = 493590046

// Statement line items, in the row order of the returned tables.
var (
	BalanceSheetItems = []string{
		"TotalAssets", "CurrentAssets", "CashAndCashEquivalents", "AccountsReceivable", "Inventory",
		"TotalLiabilitiesNetMinorityInterest", "CurrentLiabilities", "AccountsPayable",
		"TotalDebt", "LongTermDebt", "NetDebt",
		"TotalEquityGrossMinorityInterest", "StockholdersEquity",
		"WorkingCapital", "InvestedCapital", "TangibleBookValue",
		"ShareIssued", "OrdinarySharesNumber",
	}
	IncomeStatementItems = []string{
		"TotalRevenue", "CostOfRevenue", "GrossProfit", "OperatingExpense", "OperatingIncome",
		"EBITDA", "EBIT", "InterestExpense", "PretaxIncome", "TaxProvision",
		"NetIncome", "NetIncomeCommonStockholders",
		"BasicEPS", "DilutedEPS", "BasicAverageShares", "DilutedAverageShares",
	}
	CashFlowItems = []string{
		"OperatingCashFlow", "InvestingCashFlow", "FinancingCashFlow", "FreeCashFlow",
		"CapitalExpenditure", "DepreciationAndAmortization", "StockBasedCompensation",
		"CashDividendsPaid", "RepurchaseOfCapitalStock", "IssuanceOfDebt", "RepaymentOfDebt",
		"BeginningCashPosition", "ChangesInCash", "EndCashPosition",
	}
)

// BalanceSheet retrieves the annual balance sheet.
func (t *Ticker) BalanceSheet(ctx context.Context) (*table.Table, error) {
	return t.statement(ctx, BalanceSheetItems)
}

// IncomeStatement retrieves the annual income statement.
func (t *Ticker) IncomeStatement(ctx context.Context) (*table.Table, error) {
	return t.statement(ctx, IncomeStatementItems)
}

// CashFlow retrieves the annual cash flow statement.
func (t *Ticker) CashFlow(ctx context.Context) (*table.Table, error) {
	return t.statement(ctx, CashFlowItems)
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *apiError                    `json:"error"`
	} `json:"timeseries"`
}

type timeseriesMeta struct {
	Type []string `json:"type"`
}

type timeseriesPoint struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue struct {
		Raw *float64 `json:"raw"`
	} `json:"reportedValue"`
}

// statement builds a table with one row per line item that has data and one
// column per fiscal period end date, newest first.
func (t *Ticker) statement(ctx context.Context, items []string) (*table.Table, error) {
	types := make([]string, len(items))
	for i, item := range items {
		types[i] = "annual" + item
	}

	var resp timeseriesResponse
	err := t.client.get(ctx, "/ws/fundamentals-timeseries/v1/finance/timeseries/{symbol}", t.symbol, map[string]string{
		"symbol":  t.symbol,
		"type":    strings.Join(types, ","),
		"period1": strconv.FormatInt(firstPeriod, 10),
		"period2": strconv.FormatInt(t.client.now().Unix(), 10),
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Timeseries.Error != nil {
		return nil, fetcher.NewValidationError(fmt.Sprintf("timeseries error for %s: %s", t.symbol, resp.Timeseries.Error.Description))
	}

	values := make(map[string]map[string]float64)
	dates := make(map[string]bool)

	for _, result := range resp.Timeseries.Result {
		var meta timeseriesMeta
		if err := json.Unmarshal(result["meta"], &meta); err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("timeseries meta for %s: %v", t.symbol, err))
		}
		if len(meta.Type) == 0 {
			continue
		}
		kind := meta.Type[0]
		raw, ok := result[kind]
		if !ok {
			continue
		}

		var points []*timeseriesPoint
		if err := json.Unmarshal(raw, &points); err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("timeseries %s for %s: %v", kind, t.symbol, err))
		}

		item := strings.TrimPrefix(kind, "annual")
		for _, p := range points {
			if p == nil || p.ReportedValue.Raw == nil || p.AsOfDate == "" {
				continue
			}
			if values[item] == nil {
				values[item] = make(map[string]float64)
			}
			values[item][p.AsOfDate] = *p.ReportedValue.Raw
			dates[p.AsOfDate] = true
		}
	}

	columns := make([]string, 0, len(dates))
	for d := range dates {
		columns = append(columns, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(columns)))

	out := table.New([]string{ItemLabel}, columns)
	for _, item := range items {
		byDate, ok := values[item]
		if !ok {
			continue
		}
		row := make([]float64, len(columns))
		for i, d := range columns {
			if v, ok := byDate[d]; ok {
				row[i] = v
			} else {
				row[i] = table.Missing()
			}
		}
		if err := out.Append([]string{DisplayName(item)}, row); err != nil {
			return nil, fetcher.NewValidationError(err.Error())
		}
	}

	return out, nil
}

// DisplayName splits a CamelCase line item into words, keeping acronyms
// together: "TotalDebt" becomes "Total Debt", "BasicEPS" becomes "Basic EPS".
func DisplayName(item string) string {
	runes := []rune(item)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
