package payload

import (
	"strconv"
	"time"

	"github.com/kalesha58/expense-core/internal/models"
)

// DateLayout is the wire format for all payload dates: two-digit day,
// three-letter English month, four-digit year. The backend parses this
// positionally, so it is exact.
const DateLayout = "02-Jan-2006"

const (
	createOperation = "CREATE"
	createPath      = "/expenses"
)

// Overrides supplies identifier fields that take precedence over the header,
// typically resolved from the authenticated session.
type Overrides struct {
	EmployeeID       string
	OrgID            string
	UserID           string
	ResponsibilityID string
}

// Builder transforms a draft into the nested request structure the
// expense-creation API expects. It is pure: no storage, no network. The clock
// is injected so transaction id generation is deterministic under test.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder using the real clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// NewBuilderWithClock creates a Builder with an injected clock.
func NewBuilderWithClock(now func() time.Time) *Builder {
	return &Builder{now: now}
}

// FormatDate renders a date in the wire format, e.g. 05-Mar-2024.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ConvertItemizedEntry maps an itemized entry to its payload shape, applying
// the description and date fallback chains. Missing optional fields default
// to empty strings; the builder never rejects.
func ConvertItemizedEntry(entry models.ItemizedEntry) models.PayloadItemized {
	startDate := entry.StartDate
	if startDate == "" && entry.Date != nil {
		startDate = FormatDate(*entry.Date)
	}

	return models.PayloadItemized{
		ItemizedDescription: entry.Description(),
		StartDate:           startDate,
		NumberOfDays:        entry.NumberOfDays,
		Justification:       entry.Justification,
		Amount:              entry.Amount,
		Location:            entry.Location,
		MerchantName:        entry.Supplier,
		CurrencyCode:        entry.CurrencyCode,
	}
}

// ConvertLineItem maps a line item to its payload shape. The line number is
// the item's own when present, else the 1-based position. DailyRates passes
// through as null when absent, never coerced to zero. The itemized array is
// always present, empty when the item has no entries.
func ConvertLineItem(item models.LineItem, positionIndex int) models.PayloadLineItem {
	lineNum := item.LineNum
	if lineNum == "" {
		lineNum = strconv.Itoa(positionIndex + 1)
	}

	startDate := item.StartDate
	if startDate == "" && item.TransactionDate != nil {
		startDate = FormatDate(*item.TransactionDate)
	}

	itemized := make([]models.PayloadItemized, 0, len(item.Itemized))
	for _, e := range item.Itemized {
		itemized = append(itemized, ConvertItemizedEntry(e))
	}

	justification := item.Justification
	if justification == "" {
		justification = item.Comment
	}

	return models.PayloadLineItem{
		LineNum:         lineNum,
		ItemDescription: item.Description(),
		StartDate:       startDate,
		NumberOfDays:    item.NumberOfDays,
		Justification:   justification,
		Amount:          item.Amount,
		Location:        item.Location,
		ToLocation:      item.ToLocation,
		MerchantName:    item.Supplier,
		DailyRates:      item.DailyRates,
		CurrencyCode:    item.CurrencyCode,
		Itemized:        itemized,
	}
}

// BuildCreateExpensePayload assembles the full request envelope: one part
// with one header and the converted line items. Identifier fields resolve
// override first, then header, then empty. A transaction id is generated when
// the header carries none; it is unique per submission attempt, so
// regenerating on retry is expected.
func (b *Builder) BuildCreateExpensePayload(header *models.ExpenseHeader, lineItems []models.LineItem, overrides *Overrides) models.CreateExpensePayload {
	if overrides == nil {
		overrides = &Overrides{}
	}

	transactionID := header.TransactionID
	if transactionID == "" {
		transactionID = strconv.FormatInt(b.now().UnixMilli(), 10)
	}

	currency := header.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	lines := make([]models.PayloadLineItem, 0, len(lineItems))
	for i, item := range lineItems {
		lines = append(lines, ConvertLineItem(item, i))
	}

	payloadHeader := models.PayloadHeader{
		EmployeeID:          firstNonEmpty(overrides.EmployeeID, header.EmployeeID),
		OrgID:               firstNonEmpty(overrides.OrgID, header.OrgID),
		UserID:              firstNonEmpty(overrides.UserID, header.UserID),
		ResponsibilityID:    firstNonEmpty(overrides.ResponsibilityID, header.ResponsibilityID),
		MobileTransactionID: transactionID,
		Purpose:             header.ReportTitle(),
		DepartmentCode:      header.DeptCode(),
		CurrencyCode:        currency,
		ApproverID:          header.ApproverID,
		Lines:               lines,
	}

	return models.CreateExpensePayload{
		Parts: []models.PayloadPart{
			{
				Operation: createOperation,
				Path:      createPath,
				Headers:   []models.PayloadHeader{payloadHeader},
			},
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
