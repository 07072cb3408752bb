package submission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kalesha58/expense-core/internal/draft"
	"github.com/kalesha58/expense-core/internal/models"
	"github.com/kalesha58/expense-core/internal/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockClient struct {
	submitFunc func(ctx context.Context, p models.CreateExpensePayload) (*models.SubmitResponse, error)
	submitted  []models.CreateExpensePayload
}

func (m *mockClient) Submit(ctx context.Context, p models.CreateExpensePayload) (*models.SubmitResponse, error) {
	m.submitted = append(m.submitted, p)
	if m.submitFunc != nil {
		return m.submitFunc(ctx, p)
	}
	return &models.SubmitResponse{ReturnStatus: "S", ReportNumber: "EXP-100"}, nil
}

func seedDraft(t *testing.T) (draft.Store, string) {
	t.Helper()
	store := draft.NewMemoryStore()
	ctx := context.Background()

	draftID, err := store.CreateDraft(ctx)
	require.NoError(t, err)

	header, err := store.GetHeader(ctx, draftID)
	require.NoError(t, err)
	header.Title = "Client Dinner"
	header.Department = "400-Sales"
	require.NoError(t, store.UpdateHeader(ctx, draftID, header))

	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddLineItem(ctx, draftID, &models.LineItem{
		ID:              "li-1",
		Amount:          "120.00",
		ExpenseType:     "Meals",
		TransactionDate: &date,
		Location:        "NYC",
		Supplier:        "Cafe X",
	}))
	return store, draftID
}

func newOrchestrator(store draft.Store, client Client, cfg Config) *Orchestrator {
	builder := payload.NewBuilderWithClock(func() time.Time {
		return time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)
	})
	return NewOrchestrator(store, builder, client, cfg, zap.NewNop())
}

func TestOrchestrator_Submit_Success(t *testing.T) {
	store, draftID := seedDraft(t)
	client := &mockClient{}
	orch := newOrchestrator(store, client, Config{})

	result := orch.Submit(context.Background(), draftID, nil)

	assert.Equal(t, StateSucceeded, result.State)
	assert.Equal(t, "EXP-100", result.ReportNumber)
	assert.True(t, result.DraftCleared)
	assert.Equal(t, DefaultPostSubmitDelay, result.RedirectDelay)
	assert.Equal(t, StateIdle, orch.State(), "returns to idle after terminal state")

	// Draft is gone after a terminal outcome.
	_, err := store.GetHeader(context.Background(), draftID)
	assert.ErrorIs(t, err, draft.ErrDraftNotFound)

	// The submitted payload carried exactly one header with one line.
	require.Len(t, client.submitted, 1)
	parts := client.submitted[0].Parts
	require.Len(t, parts, 1)
	require.Len(t, parts[0].Headers, 1)
	assert.Len(t, parts[0].Headers[0].Lines, 1)
}

func TestOrchestrator_Submit_ValidationFailureSkipsRemoteCall(t *testing.T) {
	store := draft.NewMemoryStore()
	draftID, err := store.CreateDraft(context.Background())
	require.NoError(t, err)

	client := &mockClient{}
	orch := newOrchestrator(store, client, Config{})

	result := orch.Submit(context.Background(), draftID, nil)

	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, FailureValidation, result.FailureKind)
	assert.Contains(t, result.Errors, "At least one line item is required")
	assert.Contains(t, result.Errors, "Report purpose is required")
	assert.Empty(t, client.submitted, "transport never invoked on validation failure")
	assert.True(t, result.DraftCleared)
}

func TestOrchestrator_Submit_BackendRejection(t *testing.T) {
	tests := []struct {
		name        string
		response    *models.SubmitResponse
		wantMessage string
	}{
		{
			name:        "error status with message",
			response:    &models.SubmitResponse{ReturnStatus: "E", ReturnMessage: "Invalid department"},
			wantMessage: "Invalid department",
		},
		{
			name:        "declined status",
			response:    &models.SubmitResponse{ReturnStatus: "D", ReturnMessage: "Duplicate submission"},
			wantMessage: "Duplicate submission",
		},
		{
			name:        "unrecognized status falls back to generic message",
			response:    &models.SubmitResponse{ReturnStatus: "Q"},
			wantMessage: genericRejectionMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, draftID := seedDraft(t)
			client := &mockClient{submitFunc: func(ctx context.Context, p models.CreateExpensePayload) (*models.SubmitResponse, error) {
				return tt.response, nil
			}}
			orch := newOrchestrator(store, client, Config{})

			result := orch.Submit(context.Background(), draftID, nil)

			assert.Equal(t, StateFailed, result.State)
			assert.Equal(t, FailureRejected, result.FailureKind)
			assert.Equal(t, tt.wantMessage, result.Message)
			assert.True(t, result.DraftCleared, "rejection clears the draft")
		})
	}
}

func TestOrchestrator_Submit_TransportError(t *testing.T) {
	t.Run("clears draft by default", func(t *testing.T) {
		store, draftID := seedDraft(t)
		client := &mockClient{submitFunc: func(ctx context.Context, p models.CreateExpensePayload) (*models.SubmitResponse, error) {
			return nil, &TransportError{Kind: KindNetwork, Err: errors.New("connection refused")}
		}}
		orch := newOrchestrator(store, client, Config{})

		result := orch.Submit(context.Background(), draftID, nil)

		assert.Equal(t, FailureTransport, result.FailureKind)
		assert.True(t, result.DraftCleared)
	})

	t.Run("preserves draft for retry when configured", func(t *testing.T) {
		store, draftID := seedDraft(t)
		client := &mockClient{submitFunc: func(ctx context.Context, p models.CreateExpensePayload) (*models.SubmitResponse, error) {
			return nil, &TransportError{Kind: KindTimeout, Err: context.DeadlineExceeded}
		}}
		orch := newOrchestrator(store, client, Config{PreserveDraftOnTransportError: true})

		result := orch.Submit(context.Background(), draftID, nil)

		assert.Equal(t, FailureTransport, result.FailureKind)
		assert.False(t, result.DraftCleared)

		// Draft still intact for retry.
		items, err := store.GetLineItems(context.Background(), draftID)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})
}

func TestOrchestrator_Submit_AttachesStoredItemization(t *testing.T) {
	store, draftID := seedDraft(t)
	ctx := context.Background()

	entries := []models.ItemizedEntry{
		{ID: "e-1", Amount: "50.00", ItemizedDescription: "Dinner"},
		{ID: "e-2", Amount: "70.00", ItemizedDescription: "Drinks"},
	}
	require.NoError(t, store.SetItemizedExpenses(ctx, draftID, "li-1", entries))

	client := &mockClient{}
	orch := newOrchestrator(store, client, Config{})

	result := orch.Submit(ctx, draftID, nil)
	assert.Equal(t, StateSucceeded, result.State)

	require.Len(t, client.submitted, 1)
	line := client.submitted[0].Parts[0].Headers[0].Lines[0]
	require.Len(t, line.Itemized, 2)
	assert.Equal(t, "Dinner", line.Itemized[0].ItemizedDescription)
}

func TestOrchestrator_Submit_UnknownDraft(t *testing.T) {
	store := draft.NewMemoryStore()
	orch := newOrchestrator(store, &mockClient{}, Config{})

	result := orch.Submit(context.Background(), "missing", nil)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, FailureStorage, result.FailureKind)
}
