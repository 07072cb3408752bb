package validation

import (
	"testing"
	"time"

	"github.com/kalesha58/expense-core/internal/models"
	"github.com/stretchr/testify/assert"
)

func validHeader() *models.ExpenseHeader {
	return &models.ExpenseHeader{Title: "Client Dinner", Department: "400-Sales"}
}

func validLineItem() models.LineItem {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return models.LineItem{
		ID:              "li-1",
		Amount:          "120.00",
		ExpenseType:     "Meals",
		TransactionDate: &date,
		Location:        "NYC",
		Supplier:        "Cafe X",
	}
}

func TestValidatePayload_ValidDraft(t *testing.T) {
	result := ValidatePayload(validHeader(), []models.LineItem{validLineItem()})
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidatePayload_EmptyLineItems(t *testing.T) {
	result := ValidatePayload(validHeader(), nil)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "At least one line item is required")
}

func TestValidatePayload_NoShortCircuit(t *testing.T) {
	// Missing title and a department-less draft with a bad line item must
	// report every problem at once.
	header := &models.ExpenseHeader{}
	item := models.LineItem{Amount: "0"}

	result := ValidatePayload(header, []models.LineItem{item})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Report purpose is required")
	assert.Contains(t, result.Errors, "Department is required")
	assert.Contains(t, result.Errors, "Line item 1: Amount must be greater than 0")
	assert.Contains(t, result.Errors, "Line item 1: Expense type is required")
	assert.Contains(t, result.Errors, "Line item 1: Date is required")
}

func TestValidatePayload_HeaderFallbackPairs(t *testing.T) {
	header := &models.ExpenseHeader{Purpose: "Offsite", DepartmentCode: "200-Eng"}
	result := ValidatePayload(header, []models.LineItem{validLineItem()})
	assert.True(t, result.IsValid)
}

func TestValidatePayload_LineItemRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.LineItem)
		wantErr string
	}{
		{
			name:    "zero amount",
			mutate:  func(li *models.LineItem) { li.Amount = "0.00" },
			wantErr: "Line item 1: Amount must be greater than 0",
		},
		{
			name:    "negative amount",
			mutate:  func(li *models.LineItem) { li.Amount = "-5" },
			wantErr: "Line item 1: Amount must be greater than 0",
		},
		{
			name:    "unparseable amount",
			mutate:  func(li *models.LineItem) { li.Amount = "abc" },
			wantErr: "Line item 1: Amount must be greater than 0",
		},
		{
			name:    "missing expense type and description",
			mutate:  func(li *models.LineItem) { li.ExpenseType = ""; li.ItemDescription = "" },
			wantErr: "Line item 1: Expense type is required",
		},
		{
			name:    "missing date",
			mutate:  func(li *models.LineItem) { li.TransactionDate = nil; li.StartDate = "" },
			wantErr: "Line item 1: Date is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validLineItem()
			tt.mutate(&item)
			result := ValidatePayload(validHeader(), []models.LineItem{item})
			assert.False(t, result.IsValid)
			assert.Contains(t, result.Errors, tt.wantErr)
		})
	}
}

func TestValidatePayload_ItemDescriptionSatisfiesTypeRule(t *testing.T) {
	item := validLineItem()
	item.ExpenseType = ""
	item.ItemDescription = "Taxi to airport"
	result := ValidatePayload(validHeader(), []models.LineItem{item})
	assert.True(t, result.IsValid)
}

func TestValidatePayload_ItemizedEntries(t *testing.T) {
	item := validLineItem()
	item.Itemized = []models.ItemizedEntry{
		{Amount: "60.00", ItemizedDescription: "Dinner"},
		{Amount: "0", ItemizedDescription: ""},
	}

	result := ValidatePayload(validHeader(), []models.LineItem{item})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Line item 1, itemized entry 2: Amount must be greater than 0")
	assert.Contains(t, result.Errors, "Line item 1, itemized entry 2: Description is required")
	assert.Len(t, result.Errors, 2)
}

func TestValidatePayload_SecondLineItemIndexed(t *testing.T) {
	bad := validLineItem()
	bad.ID = "li-2"
	bad.Amount = ""

	result := ValidatePayload(validHeader(), []models.LineItem{validLineItem(), bad})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "Line item 2: Amount must be greater than 0")
}
