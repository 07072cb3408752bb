package itemization

import (
	"context"
	"errors"
	"fmt"

	"github.com/kalesha58/expense-core/internal/draft"
	"github.com/kalesha58/expense-core/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Tolerance for the itemized total exceeding the line item amount, as a
// percentage. Overages at or below this auto-sync; above it the user must
// decide. Decreases never prompt.
var overageTolerancePct = decimal.NewFromInt(5)

var (
	// ErrNoEntries is returned when a save is attempted with an empty entry
	// list. This is a precondition failure, not a field-level validation error.
	ErrNoEntries = errors.New("no itemized entries to save")

	// ErrAmountSyncFailed wraps a failure to update the parent line item's
	// amount after its entries were already persisted. The caller can retry
	// just the amount sync.
	ErrAmountSyncFailed = errors.New("failed to sync parent line item amount")

	// ErrSaveAborted is returned when the user chose to revise or cancel.
	// Nothing was mutated.
	ErrSaveAborted = errors.New("itemization save aborted")
)

// OutcomeKind classifies the reconciliation result.
type OutcomeKind string

const (
	// AutoSync means the parent amount is set to the itemized total and the
	// save proceeds without prompting.
	AutoSync OutcomeKind = "AUTO_SYNC"

	// RequiresUserDecision means the itemized total exceeds the parent amount
	// beyond tolerance and the save is suspended for a user choice.
	RequiresUserDecision OutcomeKind = "REQUIRES_USER_DECISION"
)

// Decision is the user's answer to a RequiresUserDecision outcome.
type Decision string

const (
	// ReviseAmounts aborts the save and returns to the itemization editor.
	ReviseAmounts Decision = "REVISE_AMOUNTS"
	// ProceedAnyway forces the parent amount to the itemized total and saves.
	ProceedAnyway Decision = "PROCEED_ANYWAY"
	// Cancel aborts entirely.
	Cancel Decision = "CANCEL"
)

// Outcome is the result of reconciling a line item amount against its
// itemized total. Difference and Percentage are only meaningful when Kind is
// RequiresUserDecision.
type Outcome struct {
	Kind          OutcomeKind
	ItemizedTotal decimal.Decimal
	Difference    decimal.Decimal
	Percentage    decimal.Decimal
}

// DecisionRequiredError suspends a save pending a user choice. It carries the
// computed outcome so the UI can show the overage.
type DecisionRequiredError struct {
	Outcome Outcome
}

func (e *DecisionRequiredError) Error() string {
	return fmt.Sprintf("itemized total exceeds line item amount by %s (%s%%)",
		e.Outcome.Difference.String(), e.Outcome.Percentage.String())
}

// CountObserver is notified with the new entry count after a successful save.
type CountObserver func(lineItemID string, count int)

// Engine keeps a line item's amount consistent with its itemized breakdown.
type Engine struct {
	store    draft.Store
	observer CountObserver
	logger   *zap.Logger
}

// NewEngine creates an itemization engine. The observer may be nil.
func NewEngine(store draft.Store, observer CountObserver, logger *zap.Logger) *Engine {
	return &Engine{store: store, observer: observer, logger: logger}
}

// ComputeItemizedTotal sums the entry amounts. An empty list totals zero.
// Unparseable amounts count as zero; the validator reports them separately.
func ComputeItemizedTotal(entries []models.ItemizedEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		amt, err := decimal.NewFromString(e.Amount)
		if err != nil {
			continue
		}
		total = total.Add(amt)
	}
	return total
}

// Reconcile decides whether the itemized total can silently replace the line
// item amount. A total at or below the amount, or exceeding it by no more
// than the tolerance, auto-syncs. A larger overage requires a user decision.
// A zero base amount with any positive total always requires a decision, with
// the percentage reported as 100.
func Reconcile(lineItemAmount, itemizedTotal decimal.Decimal) Outcome {
	if itemizedTotal.LessThanOrEqual(lineItemAmount) {
		return Outcome{Kind: AutoSync, ItemizedTotal: itemizedTotal}
	}

	diff := itemizedTotal.Sub(lineItemAmount)

	if lineItemAmount.IsZero() {
		return Outcome{
			Kind:          RequiresUserDecision,
			ItemizedTotal: itemizedTotal,
			Difference:    diff,
			Percentage:    decimal.NewFromInt(100),
		}
	}

	pct := diff.Div(lineItemAmount).Mul(decimal.NewFromInt(100))
	if pct.LessThanOrEqual(overageTolerancePct) {
		return Outcome{Kind: AutoSync, ItemizedTotal: itemizedTotal}
	}

	return Outcome{
		Kind:          RequiresUserDecision,
		ItemizedTotal: itemizedTotal,
		Difference:    diff,
		Percentage:    pct,
	}
}

// SaveItemizedEntries persists the entries for a line item and syncs the
// parent amount to the itemized total. When the total exceeds the stored
// amount beyond tolerance it returns a *DecisionRequiredError without
// mutating anything; the caller resolves it via ResolveAndSave.
func (e *Engine) SaveItemizedEntries(ctx context.Context, draftID, lineItemID string, entries []models.ItemizedEntry) (*Outcome, error) {
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	item, err := e.lineItem(ctx, draftID, lineItemID)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(item.Amount)
	if err != nil {
		amount = decimal.Zero
	}

	outcome := Reconcile(amount, ComputeItemizedTotal(entries))
	if outcome.Kind == RequiresUserDecision {
		e.logger.Debug("Itemized total exceeds tolerance",
			zap.String("line_item_id", lineItemID),
			zap.String("difference", outcome.Difference.String()),
			zap.String("percentage", outcome.Percentage.String()))
		return nil, &DecisionRequiredError{Outcome: outcome}
	}

	if err := e.commit(ctx, draftID, item, entries, outcome.ItemizedTotal); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// ResolveAndSave applies the user's decision for a save that was suspended by
// a DecisionRequiredError. ReviseAmounts and Cancel mutate nothing and return
// ErrSaveAborted; ProceedAnyway forces the parent amount to the itemized
// total and saves.
func (e *Engine) ResolveAndSave(ctx context.Context, draftID, lineItemID string, entries []models.ItemizedEntry, decision Decision) error {
	switch decision {
	case ReviseAmounts, Cancel:
		return ErrSaveAborted
	case ProceedAnyway:
	default:
		return fmt.Errorf("unknown reconciliation decision %q", decision)
	}

	if len(entries) == 0 {
		return ErrNoEntries
	}

	item, err := e.lineItem(ctx, draftID, lineItemID)
	if err != nil {
		return err
	}
	return e.commit(ctx, draftID, item, entries, ComputeItemizedTotal(entries))
}

func (e *Engine) lineItem(ctx context.Context, draftID, lineItemID string) (*models.LineItem, error) {
	items, err := e.store.GetLineItems(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	for i := range items {
		if items[i].ID == lineItemID {
			return &items[i], nil
		}
	}
	return nil, draft.ErrLineItemNotFound
}

// commit writes the entries first and the parent amount second. A failure of
// the second step is surfaced as ErrAmountSyncFailed so the caller can retry
// just the amount sync without rewriting the entries.
func (e *Engine) commit(ctx context.Context, draftID string, item *models.LineItem, entries []models.ItemizedEntry, total decimal.Decimal) error {
	if err := e.store.SetItemizedExpenses(ctx, draftID, item.ID, entries); err != nil {
		return fmt.Errorf("failed to persist itemized entries: %w", err)
	}

	item.Amount = total.String()
	item.Itemized = entries
	if err := e.store.UpdateLineItem(ctx, draftID, item); err != nil {
		return fmt.Errorf("%w: %v", ErrAmountSyncFailed, err)
	}

	e.logger.Info("Itemized entries saved",
		zap.String("draft_id", draftID),
		zap.String("line_item_id", item.ID),
		zap.Int("entry_count", len(entries)),
		zap.String("total", total.String()))

	if e.observer != nil {
		e.observer(item.ID, len(entries))
	}
	return nil
}
