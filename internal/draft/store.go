package draft

import (
	"context"
	"errors"

	"github.com/kalesha58/expense-core/internal/models"
)

var (
	// ErrDraftNotFound is returned when the draft id does not resolve to a
	// stored draft.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrLineItemNotFound is returned when a line item id does not exist
	// within the draft.
	ErrLineItemNotFound = errors.New("line item not found")
)

// Store persists one in-progress expense report per draft id: a header, its
// line items, and a replace-on-save itemized collection per line item. The
// original client kept a single global draft; this interface generalizes to
// multiple drafts while preserving the same per-entity operations.
type Store interface {
	// CreateDraft allocates a new empty draft and returns its id.
	CreateDraft(ctx context.Context) (string, error)

	GetHeader(ctx context.Context, draftID string) (*models.ExpenseHeader, error)
	UpdateHeader(ctx context.Context, draftID string, header *models.ExpenseHeader) error

	GetLineItems(ctx context.Context, draftID string) ([]models.LineItem, error)
	AddLineItem(ctx context.Context, draftID string, item *models.LineItem) error
	UpdateLineItem(ctx context.Context, draftID string, item *models.LineItem) error
	DeleteLineItem(ctx context.Context, draftID, lineItemID string) error

	// GetItemizedExpenses returns the stored itemized collection for a line
	// item; an empty slice when none were ever saved.
	GetItemizedExpenses(ctx context.Context, draftID, lineItemID string) ([]models.ItemizedEntry, error)

	// SetItemizedExpenses replaces the whole itemized collection for a line
	// item. Collections are never diffed incrementally.
	SetItemizedExpenses(ctx context.Context, draftID, lineItemID string, entries []models.ItemizedEntry) error

	// ClearDraft removes the header, all line items, and all itemized
	// collections for the draft.
	ClearDraft(ctx context.Context, draftID string) error
}
