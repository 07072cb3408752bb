package models

import "time"

// ExpenseHeader represents the header of an in-progress expense report.
// Identifier fields are optional until assigned by the backend; the title and
// department pairs mirror the two field names the mobile client uses
// interchangeably.
type ExpenseHeader struct {
	DraftID          string    `json:"draft_id"`
	Title            string    `json:"title"`
	Purpose          string    `json:"purpose"`
	Department       string    `json:"department"`
	DepartmentCode   string    `json:"department_code"`
	CurrencyCode     string    `json:"currency_code"`
	EmployeeID       string    `json:"employee_id"`
	OrgID            string    `json:"org_id"`
	UserID           string    `json:"user_id"`
	ResponsibilityID string    `json:"responsibility_id"`
	ApproverID       string    `json:"approver_id"`
	ReportNumber     string    `json:"report_number"`
	TransactionID    string    `json:"transaction_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ReportTitle returns the title with purpose as fallback.
func (h *ExpenseHeader) ReportTitle() string {
	if h.Title != "" {
		return h.Title
	}
	return h.Purpose
}

// DeptCode returns the department with department code as fallback.
func (h *ExpenseHeader) DeptCode() string {
	if h.Department != "" {
		return h.Department
	}
	return h.DepartmentCode
}

// LineItem represents one expense line within a report. Amounts are
// string-encoded decimals exactly as the client entered them.
type LineItem struct {
	ID              string     `json:"id"`
	Amount          string     `json:"amount"`
	CurrencyCode    string     `json:"currency_code"`
	ExpenseType     string     `json:"expense_type"`
	ItemDescription string     `json:"item_description"`
	TransactionDate *time.Time `json:"transaction_date"`
	StartDate       string     `json:"start_date"`
	Location        string     `json:"location"`
	ToLocation      string     `json:"to_location"`
	Supplier        string     `json:"supplier"`
	Comment         string     `json:"comment"`
	Justification   string     `json:"justification"`
	LineNum         string     `json:"line_num"`
	NumberOfDays    string     `json:"number_of_days"`
	DailyRates      *string    `json:"daily_rates"`
	ReceiptRef      string     `json:"receipt_ref"`

	// Itemized is a denormalized copy for display. The per-line-item
	// collection in the draft store is the source of truth.
	Itemized []ItemizedEntry `json:"itemized,omitempty"`
}

// HasItemized reports whether the line item carries itemized entries.
// Derived, never stored.
func (li *LineItem) HasItemized() bool {
	return len(li.Itemized) > 0
}

// ItemizedCount returns the number of itemized entries attached for display.
func (li *LineItem) ItemizedCount() int {
	return len(li.Itemized)
}

// Description returns the expense type with item description as fallback.
func (li *LineItem) Description() string {
	if li.ExpenseType != "" {
		return li.ExpenseType
	}
	return li.ItemDescription
}

// ItemizedEntry represents a sub-breakdown of a single line item. Entries are
// keyed to their parent by LineItemID and replaced wholesale on each save.
type ItemizedEntry struct {
	ID                  string     `json:"id"`
	LineItemID          string     `json:"line_item_id"`
	Amount              string     `json:"amount"`
	CurrencyCode        string     `json:"currency_code"`
	ExpenseType         string     `json:"expense_type"`
	ItemizedDescription string     `json:"itemized_description"`
	ItemDescription     string     `json:"item_description"`
	Date                *time.Time `json:"date"`
	StartDate           string     `json:"start_date"`
	Location            string     `json:"location"`
	Supplier            string     `json:"supplier"`
	Comment             string     `json:"comment"`
	NumberOfDays        string     `json:"number_of_days"`
	Justification       string     `json:"justification"`
}

// Description returns the itemized description with the general item
// description as fallback.
func (e *ItemizedEntry) Description() string {
	if e.ItemizedDescription != "" {
		return e.ItemizedDescription
	}
	return e.ItemDescription
}
