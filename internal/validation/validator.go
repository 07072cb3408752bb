package validation

import (
	"fmt"

	"github.com/kalesha58/expense-core/internal/models"
	"github.com/shopspring/decimal"
)

// Result aggregates every problem found in a draft. Rules never short-circuit
// so the UI can show everything wrong at once.
type Result struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// ValidatePayload gatekeeps submission. Error strings carry 1-based positions
// so the UI can correlate them to list rows.
func ValidatePayload(header *models.ExpenseHeader, lineItems []models.LineItem) Result {
	errs := make([]string, 0)

	if header == nil || header.ReportTitle() == "" {
		errs = append(errs, "Report purpose is required")
	}
	if header == nil || header.DeptCode() == "" {
		errs = append(errs, "Department is required")
	}

	if len(lineItems) == 0 {
		errs = append(errs, "At least one line item is required")
	}

	for i, item := range lineItems {
		pos := i + 1

		if !positiveAmount(item.Amount) {
			errs = append(errs, fmt.Sprintf("Line item %d: Amount must be greater than 0", pos))
		}
		if item.Description() == "" {
			errs = append(errs, fmt.Sprintf("Line item %d: Expense type is required", pos))
		}
		if item.TransactionDate == nil && item.StartDate == "" {
			errs = append(errs, fmt.Sprintf("Line item %d: Date is required", pos))
		}

		for j, entry := range item.Itemized {
			entryPos := j + 1
			if !positiveAmount(entry.Amount) {
				errs = append(errs, fmt.Sprintf("Line item %d, itemized entry %d: Amount must be greater than 0", pos, entryPos))
			}
			if entry.Description() == "" {
				errs = append(errs, fmt.Sprintf("Line item %d, itemized entry %d: Description is required", pos, entryPos))
			}
		}
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

func positiveAmount(amount string) bool {
	if amount == "" {
		return false
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return false
	}
	return d.IsPositive()
}
