package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"stockcollector/internal/fetcher"
	"stockcollector/internal/table"
)

// Ticker is the per-symbol handle returned by Client.Ticker.
type Ticker struct {
	client *Client
	symbol string
}

var _ fetcher.Ticker = (*Ticker)(nil)

// Symbol returns the ticker symbol the handle was created for.
func (t *Ticker) Symbol() string { return t.symbol }

// Info retrieves the company overview. Numeric fields are returned as
// float64, text fields as strings; missing fields are dropped.
func (t *Ticker) Info(ctx context.Context) (map[string]any, error) {
	body, err := t.client.query(ctx, "OVERVIEW", t.symbol, nil)
	if err != nil {
		return nil, err
	}

	info := make(map[string]any, len(body))
	for key, raw := range body {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if v, ok := number(s); ok {
			info[key] = v
		} else if s != "" && s != "None" && s != "-" {
			info[key] = s
		}
	}
	if len(info) == 0 {
		return nil, fetcher.NewValidationError(fmt.Sprintf("empty overview for %s", t.symbol))
	}
	return info, nil
}

// lineItem maps an Alpha Vantage report field to a statement row name.
type lineItem struct {
	field string
	name  string
}

var (
	balanceSheetItems = []lineItem{
		{"totalAssets", "Total Assets"},
		{"totalCurrentAssets", "Current Assets"},
		{"cashAndCashEquivalentsAtCarryingValue", "Cash And Cash Equivalents"},
		{"currentNetReceivables", "Accounts Receivable"},
		{"inventory", "Inventory"},
		{"totalLiabilities", "Total Liabilities Net Minority Interest"},
		{"totalCurrentLiabilities", "Current Liabilities"},
		{"currentAccountsPayable", "Accounts Payable"},
		{"shortLongTermDebtTotal", "Total Debt"},
		{"longTermDebt", "Long Term Debt"},
		{"totalShareholderEquity", "Stockholders Equity"},
		{"commonStockSharesOutstanding", "Ordinary Shares Number"},
	}
	incomeStatementItems = []lineItem{
		{"totalRevenue", "Total Revenue"},
		{"costOfRevenue", "Cost Of Revenue"},
		{"grossProfit", "Gross Profit"},
		{"operatingExpenses", "Operating Expense"},
		{"operatingIncome", "Operating Income"},
		{"ebitda", "EBITDA"},
		{"ebit", "EBIT"},
		{"interestExpense", "Interest Expense"},
		{"incomeBeforeTax", "Pretax Income"},
		{"incomeTaxExpense", "Tax Provision"},
		{"netIncome", "Net Income"},
	}
	cashFlowItems = []lineItem{
		{"operatingCashflow", "Operating Cash Flow"},
		{"cashflowFromInvestment", "Investing Cash Flow"},
		{"cashflowFromFinancing", "Financing Cash Flow"},
		{"capitalExpenditures", "Capital Expenditure"},
		{"depreciationDepletionAndAmortization", "Depreciation And Amortization"},
		{"dividendPayout", "Cash Dividends Paid"},
		{"paymentsForRepurchaseOfCommonStock", "Repurchase Of Capital Stock"},
		{"changeInCashAndCashEquivalents", "Changes In Cash"},
	}
)

// BalanceSheet retrieves the annual balance sheet.
func (t *Ticker) BalanceSheet(ctx context.Context) (*table.Table, error) {
	return t.statement(ctx, "BALANCE_SHEET", balanceSheetItems, nil)
}

// IncomeStatement retrieves the annual income statement.
func (t *Ticker) IncomeStatement(ctx context.Context) (*table.Table, error) {
	return t.statement(ctx, "INCOME_STATEMENT", incomeStatementItems, nil)
}

// CashFlow retrieves the annual cash flow statement. Free cash flow is
// derived as operating cash flow less capital expenditure.
func (t *Ticker) CashFlow(ctx context.Context) (*table.Table, error) {
	return t.statement(ctx, "CASH_FLOW", cashFlowItems, func(report map[string]string) (string, float64, bool) {
		ocf, ok1 := number(report["operatingCashflow"])
		capex, ok2 := number(report["capitalExpenditures"])
		return "Free Cash Flow", ocf - capex, ok1 && ok2
	})
}

// derived computes an extra row from a raw report.
type derived func(report map[string]string) (name string, value float64, ok bool)

// statement builds a table with one row per line item and one column per
// fiscal year end, newest first. Rows without any value are dropped.
func (t *Ticker) statement(ctx context.Context, function string, items []lineItem, extra derived) (*table.Table, error) {
	body, err := t.client.query(ctx, function, t.symbol, nil)
	if err != nil {
		return nil, err
	}

	var annual []map[string]string
	if raw, ok := body["annualReports"]; ok {
		if err := json.Unmarshal(raw, &annual); err != nil {
			return nil, fetcher.NewValidationError(fmt.Sprintf("%s for %s: %v", function, t.symbol, err))
		}
	}

	reports := make([]map[string]string, 0, len(annual))
	for _, r := range annual {
		if r["fiscalDateEnding"] != "" {
			reports = append(reports, r)
		}
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i]["fiscalDateEnding"] > reports[j]["fiscalDateEnding"]
	})

	columns := make([]string, len(reports))
	for i, r := range reports {
		columns[i] = r["fiscalDateEnding"]
	}
	out := table.New([]string{"Item"}, columns)

	appendRow := func(name string, values []float64, present bool) error {
		if !present {
			return nil
		}
		return out.Append([]string{name}, values)
	}

	for _, item := range items {
		values := make([]float64, len(reports))
		present := false
		for i, r := range reports {
			if v, ok := number(r[item.field]); ok {
				values[i] = v
				present = true
			} else {
				values[i] = table.Missing()
			}
		}
		if err := appendRow(item.name, values, present); err != nil {
			return nil, fetcher.NewValidationError(err.Error())
		}
	}

	if extra != nil && len(reports) > 0 {
		values := make([]float64, len(reports))
		present := false
		var name string
		for i, r := range reports {
			n, v, ok := extra(r)
			name = n
			if ok {
				values[i] = v
				present = true
			} else {
				values[i] = table.Missing()
			}
		}
		if err := appendRow(name, values, present); err != nil {
			return nil, fetcher.NewValidationError(err.Error())
		}
	}

	return out, nil
}
