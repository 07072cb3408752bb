package payload

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/kalesha58/expense-core/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "05-Mar-2024", FormatDate(d))

	d = time.Date(2023, time.December, 25, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "25-Dec-2023", FormatDate(d))
}

func TestConvertItemizedEntry_Fallbacks(t *testing.T) {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		entry    models.ItemizedEntry
		wantDesc string
		wantDate string
	}{
		{
			name: "explicit fields win",
			entry: models.ItemizedEntry{
				ItemizedDescription: "Room service",
				ItemDescription:     "Hotel",
				StartDate:           "01-Jan-2024",
				Date:                &date,
			},
			wantDesc: "Room service",
			wantDate: "01-Jan-2024",
		},
		{
			name: "falls back to item description and formatted date",
			entry: models.ItemizedEntry{
				ItemDescription: "Hotel",
				Date:            &date,
			},
			wantDesc: "Hotel",
			wantDate: "05-Mar-2024",
		},
		{
			name:     "everything absent defaults to empty",
			entry:    models.ItemizedEntry{},
			wantDesc: "",
			wantDate: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertItemizedEntry(tt.entry)
			assert.Equal(t, tt.wantDesc, got.ItemizedDescription)
			assert.Equal(t, tt.wantDate, got.StartDate)
		})
	}
}

func TestConvertLineItem(t *testing.T) {
	t.Run("line number falls back to position", func(t *testing.T) {
		got := ConvertLineItem(models.LineItem{Amount: "10"}, 2)
		assert.Equal(t, "3", got.LineNum)
	})

	t.Run("explicit line number wins", func(t *testing.T) {
		got := ConvertLineItem(models.LineItem{LineNum: "7"}, 0)
		assert.Equal(t, "7", got.LineNum)
	})

	t.Run("daily rates stays null when absent", func(t *testing.T) {
		got := ConvertLineItem(models.LineItem{}, 0)
		assert.Nil(t, got.DailyRates)

		raw, err := json.Marshal(got)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"DailyRates":null`)
	})

	t.Run("no itemized entries yields empty array not missing field", func(t *testing.T) {
		got := ConvertLineItem(models.LineItem{Amount: "120.00"}, 0)
		require.NotNil(t, got.Itemized)
		assert.Empty(t, got.Itemized)

		raw, err := json.Marshal(got)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"Itemized":[]`)
	})

	t.Run("itemized entries converted in order", func(t *testing.T) {
		item := models.LineItem{
			Amount: "130.00",
			Itemized: []models.ItemizedEntry{
				{Amount: "60.00", ItemizedDescription: "Dinner"},
				{Amount: "70.00", ItemizedDescription: "Drinks"},
			},
		}
		got := ConvertLineItem(item, 0)
		require.Len(t, got.Itemized, 2)
		assert.Equal(t, "Dinner", got.Itemized[0].ItemizedDescription)
		assert.Equal(t, "70.00", got.Itemized[1].Amount)
	})
}

func testHeader() *models.ExpenseHeader {
	return &models.ExpenseHeader{
		Title:      "Client Dinner",
		Department: "400-Sales",
	}
}

func testLineItems() []models.LineItem {
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	return []models.LineItem{
		{
			ID:              "li-1",
			Amount:          "120.00",
			ExpenseType:     "Meals",
			TransactionDate: &date,
			Location:        "NYC",
			Supplier:        "Cafe X",
		},
	}
}

func TestBuildCreateExpensePayload_Scenario(t *testing.T) {
	builder := NewBuilderWithClock(func() time.Time {
		return time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	})

	payload := builder.BuildCreateExpensePayload(testHeader(), testLineItems(), nil)

	require.Len(t, payload.Parts, 1)
	part := payload.Parts[0]
	assert.Equal(t, "CREATE", part.Operation)
	require.Len(t, part.Headers, 1)

	header := part.Headers[0]
	assert.Equal(t, "Client Dinner", header.Purpose)
	assert.Equal(t, "400-Sales", header.DepartmentCode)
	assert.Equal(t, "USD", header.CurrencyCode)
	assert.NotEmpty(t, header.MobileTransactionID)

	require.Len(t, header.Lines, 1)
	line := header.Lines[0]
	assert.Equal(t, "1", line.LineNum)
	assert.Equal(t, "120.00", line.Amount)
	assert.Equal(t, "05-Mar-2024", line.StartDate)
	assert.Equal(t, "Cafe X", line.MerchantName)
	assert.Empty(t, line.Itemized)
}

func TestBuildCreateExpensePayload_Deterministic(t *testing.T) {
	fixed := func() time.Time { return time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC) }
	builder := NewBuilderWithClock(fixed)

	first, err := json.Marshal(builder.BuildCreateExpensePayload(testHeader(), testLineItems(), nil))
	require.NoError(t, err)
	second, err := json.Marshal(builder.BuildCreateExpensePayload(testHeader(), testLineItems(), nil))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestBuildCreateExpensePayload_IdentifierResolution(t *testing.T) {
	header := testHeader()
	header.EmployeeID = "emp-header"
	header.OrgID = "org-header"

	payload := NewBuilder().BuildCreateExpensePayload(header, nil, &Overrides{
		EmployeeID: "emp-override",
		UserID:     "user-override",
	})

	h := payload.Parts[0].Headers[0]
	assert.Equal(t, "emp-override", h.EmployeeID, "override wins")
	assert.Equal(t, "org-header", h.OrgID, "header fills when no override")
	assert.Equal(t, "user-override", h.UserID)
	assert.Equal(t, "", h.ResponsibilityID, "defaults to empty")
}

func TestBuildCreateExpensePayload_TransactionID(t *testing.T) {
	t.Run("existing header transaction id kept", func(t *testing.T) {
		header := testHeader()
		header.TransactionID = "txn-123"
		payload := NewBuilder().BuildCreateExpensePayload(header, nil, nil)
		assert.Equal(t, "txn-123", payload.Parts[0].Headers[0].MobileTransactionID)
	})

	t.Run("generated from clock when absent", func(t *testing.T) {
		at := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
		builder := NewBuilderWithClock(func() time.Time { return at })
		payload := builder.BuildCreateExpensePayload(testHeader(), nil, nil)
		assert.Equal(t, "1709640000000", payload.Parts[0].Headers[0].MobileTransactionID)
	})
}
