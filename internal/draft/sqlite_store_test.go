package draft

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kalesha58/expense-core/internal/models"
	"github.com/kalesha58/expense-core/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "drafts.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStore(db, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestSQLiteStore_HeaderRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	draftID, err := store.CreateDraft(ctx)
	require.NoError(t, err)

	header, err := store.GetHeader(ctx, draftID)
	require.NoError(t, err)
	assert.Equal(t, "USD", header.CurrencyCode)

	header.Title = "Quarterly Offsite"
	header.DepartmentCode = "200-Eng"
	header.EmployeeID = "E-42"
	require.NoError(t, store.UpdateHeader(ctx, draftID, header))

	got, err := store.GetHeader(ctx, draftID)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly Offsite", got.Title)
	assert.Equal(t, "200-Eng", got.DepartmentCode)
	assert.Equal(t, "E-42", got.EmployeeID)

	assert.ErrorIs(t, store.UpdateHeader(ctx, "missing", header), ErrDraftNotFound)
}

func TestSQLiteStore_LineItemsAndItemization(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	draftID, err := store.CreateDraft(ctx)
	require.NoError(t, err)

	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	rate := "150.00"
	require.NoError(t, store.AddLineItem(ctx, draftID, &models.LineItem{
		ID:              "li-1",
		Amount:          "450.00",
		ExpenseType:     "Hotel",
		TransactionDate: &date,
		DailyRates:      &rate,
		Supplier:        "Grand Hotel",
	}))
	require.NoError(t, store.AddLineItem(ctx, draftID, &models.LineItem{
		ID:     "li-2",
		Amount: "30.00",
	}))

	items, err := store.GetLineItems(ctx, draftID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "li-1", items[0].ID, "position order preserved")
	require.NotNil(t, items[0].DailyRates)
	assert.Equal(t, "150.00", *items[0].DailyRates)
	require.NotNil(t, items[0].TransactionDate)
	assert.Nil(t, items[1].DailyRates, "absent daily rate stays null")
	assert.Nil(t, items[1].TransactionDate)

	entries := []models.ItemizedEntry{
		{ID: "e-1", Amount: "400.00", ItemizedDescription: "Room"},
		{ID: "e-2", Amount: "50.00", ItemizedDescription: "Breakfast"},
	}
	require.NoError(t, store.SetItemizedExpenses(ctx, draftID, "li-1", entries))

	saved, err := store.GetItemizedExpenses(ctx, draftID, "li-1")
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "Room", saved[0].ItemizedDescription)

	// Replacement is wholesale.
	require.NoError(t, store.SetItemizedExpenses(ctx, draftID, "li-1", entries[:1]))
	saved, err = store.GetItemizedExpenses(ctx, draftID, "li-1")
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	require.NoError(t, store.ClearDraft(ctx, draftID))
	_, err = store.GetHeader(ctx, draftID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	saved, err = store.GetItemizedExpenses(ctx, draftID, "li-1")
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSQLiteStore_MultipleDraftsIsolated(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	first, err := store.CreateDraft(ctx)
	require.NoError(t, err)
	second, err := store.CreateDraft(ctx)
	require.NoError(t, err)

	require.NoError(t, store.AddLineItem(ctx, first, &models.LineItem{ID: "li-1", Amount: "10"}))

	items, err := store.GetLineItems(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, store.ClearDraft(ctx, first))
	_, err = store.GetHeader(ctx, second)
	assert.NoError(t, err, "clearing one draft leaves others intact")
}
