package stats

import (
	"sort"

	"github.com/kalesha58/expense-core/internal/models"
	"github.com/shopspring/decimal"
)

// TypeTotal is the spend for one expense type.
type TypeTotal struct {
	ExpenseType string `json:"expense_type"`
	Count       int    `json:"count"`
	Total       string `json:"total"`
}

// Summary is the basic spend statistics view over a set of line items.
type Summary struct {
	LineItemCount int         `json:"line_item_count"`
	ItemizedCount int         `json:"itemized_count"`
	GrandTotal    string      `json:"grand_total"`
	CurrencyCode  string      `json:"currency_code"`
	ByType        []TypeTotal `json:"by_type"`
}

// Summarize aggregates line items per expense type. Unparseable amounts
// contribute zero; the validator owns reporting them. Types are sorted
// alphabetically so the output is stable.
func Summarize(header *models.ExpenseHeader, lineItems []models.LineItem) Summary {
	grand := decimal.Zero
	itemized := 0
	totals := make(map[string]*struct {
		count int
		sum   decimal.Decimal
	})

	for _, item := range lineItems {
		amt, err := decimal.NewFromString(item.Amount)
		if err != nil {
			amt = decimal.Zero
		}
		grand = grand.Add(amt)
		itemized += item.ItemizedCount()

		key := item.Description()
		if key == "" {
			key = "Uncategorized"
		}
		agg, ok := totals[key]
		if !ok {
			agg = &struct {
				count int
				sum   decimal.Decimal
			}{}
			totals[key] = agg
		}
		agg.count++
		agg.sum = agg.sum.Add(amt)
	}

	types := make([]string, 0, len(totals))
	for k := range totals {
		types = append(types, k)
	}
	sort.Strings(types)

	byType := make([]TypeTotal, 0, len(types))
	for _, k := range types {
		byType = append(byType, TypeTotal{
			ExpenseType: k,
			Count:       totals[k].count,
			Total:       totals[k].sum.String(),
		})
	}

	currency := ""
	if header != nil {
		currency = header.CurrencyCode
	}

	return Summary{
		LineItemCount: len(lineItems),
		ItemizedCount: itemized,
		GrandTotal:    grand.String(),
		CurrencyCode:  currency,
		ByType:        byType,
	}
}
