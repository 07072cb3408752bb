package models

// CreateExpensePayload is the wire envelope for the expense-creation API: a
// single Parts array carrying exactly one part, whose Headers array carries
// exactly one header. The backend parses this shape positionally.
type CreateExpensePayload struct {
	Parts []PayloadPart `json:"Parts"`
}

// PayloadPart names the operation and resource path for one request part.
type PayloadPart struct {
	Operation string          `json:"Operation"`
	Path      string          `json:"Path"`
	Headers   []PayloadHeader `json:"Headers"`
}

// PayloadHeader is the expense report header as the backend expects it.
type PayloadHeader struct {
	EmployeeID          string            `json:"EmployeeID"`
	OrgID               string            `json:"OrgID"`
	UserID              string            `json:"UserID"`
	ResponsibilityID    string            `json:"ResponsibilityID"`
	MobileTransactionID string            `json:"MobileTransactionId"`
	Purpose             string            `json:"Purpose"`
	DepartmentCode      string            `json:"DepartmentCode"`
	CurrencyCode        string            `json:"CurrencyCode"`
	ApproverID          string            `json:"ApproverID"`
	Lines               []PayloadLineItem `json:"Lines"`
}

// PayloadLineItem is one expense line in the wire payload. Amount stays a
// string-encoded decimal; DailyRates is null when the client never set it,
// never coerced to zero.
type PayloadLineItem struct {
	LineNum         string            `json:"LineNum"`
	ItemDescription string            `json:"ItemDescription"`
	StartDate       string            `json:"StartDate"`
	NumberOfDays    string            `json:"NumberOfDays"`
	Justification   string            `json:"Justification"`
	Amount          string            `json:"Amount"`
	Location        string            `json:"Location"`
	ToLocation      string            `json:"ToLocation"`
	MerchantName    string            `json:"MerchantName"`
	DailyRates      *string           `json:"DailyRates"`
	CurrencyCode    string            `json:"CurrencyCode"`
	Itemized        []PayloadItemized `json:"Itemized"`
}

// PayloadItemized is one itemized sub-expense in the wire payload.
type PayloadItemized struct {
	ItemizedDescription string `json:"ItemizedDescription"`
	StartDate           string `json:"StartDate"`
	NumberOfDays        string `json:"NumberOfDays"`
	Justification       string `json:"Justification"`
	Amount              string `json:"Amount"`
	Location            string `json:"Location"`
	MerchantName        string `json:"MerchantName"`
	CurrencyCode        string `json:"CurrencyCode"`
}
