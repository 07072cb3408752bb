package models

// Return status codes the expense-creation API responds with.
const (
	ReturnStatusSuccess  = "S"
	ReturnStatusError    = "E"
	ReturnStatusDeclined = "D" // duplicate or declined submission
)

// SubmitResponse is the normalized form of the backend's response record.
// The raw body arrives in one of three envelope shapes; the transport layer
// collapses all of them into this single type before business logic sees it.
type SubmitResponse struct {
	EmployeeID          string `json:"EmployeeID"`
	InvoiceNumber       string `json:"InvoiceNumber"`
	MobileTransactionID string `json:"MobileTransactionId"`
	ReportNumber        string `json:"ReportNumber"`
	ReturnMessage       string `json:"ReturnMessage"`
	ReturnStatus        string `json:"ReturnStatus"`
}

// Accepted reports whether the backend accepted the submission. Anything
// other than the success status, including codes we have never seen, counts
// as a rejection.
func (r *SubmitResponse) Accepted() bool {
	return r.ReturnStatus == ReturnStatusSuccess
}
