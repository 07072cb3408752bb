package submission

import (
	"context"
	"errors"
	"time"

	"github.com/kalesha58/expense-core/internal/draft"
	"github.com/kalesha58/expense-core/internal/models"
	"github.com/kalesha58/expense-core/internal/payload"
	"github.com/kalesha58/expense-core/internal/validation"
	"go.uber.org/zap"
)

// State tracks the orchestrator through one submission attempt.
type State string

const (
	StateIdle         State = "IDLE"
	StateValidating   State = "VALIDATING"
	StateBuilding     State = "BUILDING"
	StateSubmitting   State = "SUBMITTING"
	StateInterpreting State = "INTERPRETING"
	StateSucceeded    State = "SUCCEEDED"
	StateFailed       State = "FAILED"
)

// DefaultPostSubmitDelay paces the return to the landing screen after a
// terminal outcome. The original client used 1s and 3s in different call
// paths for the same purpose; this is the single constant replacing both.
const DefaultPostSubmitDelay = 2 * time.Second

// FailureKind categorizes a terminal failure for the UI.
type FailureKind string

const (
	FailureValidation FailureKind = "VALIDATION"
	FailureStorage    FailureKind = "STORAGE"
	FailureTransport  FailureKind = "TRANSPORT"
	FailureRejected   FailureKind = "REJECTED"
)

const genericRejectionMessage = "The expense report could not be created. Please try again later."

// Result is the terminal outcome of a submission attempt. RedirectDelay tells
// the caller how long to pace before returning to the landing destination.
type Result struct {
	State         State                  `json:"state"`
	ReportNumber  string                 `json:"report_number,omitempty"`
	Message       string                 `json:"message,omitempty"`
	FailureKind   FailureKind            `json:"failure_kind,omitempty"`
	Errors        []string               `json:"errors,omitempty"`
	Response      *models.SubmitResponse `json:"response,omitempty"`
	DraftCleared  bool                   `json:"draft_cleared"`
	RedirectDelay time.Duration          `json:"redirect_delay"`
}

// Config tunes orchestrator behavior.
type Config struct {
	PostSubmitDelay time.Duration
	// PreserveDraftOnTransportError keeps the draft around when the request
	// never reached a verdict, so the user can retry instead of re-entering
	// everything.
	PreserveDraftOnTransportError bool
}

// Orchestrator sequences validation, payload build, the remote call, response
// interpretation, and draft cleanup.
type Orchestrator struct {
	store   draft.Store
	builder *payload.Builder
	client  Client
	cfg     Config
	logger  *zap.Logger

	state State
}

// NewOrchestrator creates a submission orchestrator.
func NewOrchestrator(store draft.Store, builder *payload.Builder, client Client, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.PostSubmitDelay <= 0 {
		cfg.PostSubmitDelay = DefaultPostSubmitDelay
	}
	return &Orchestrator{
		store:   store,
		builder: builder,
		client:  client,
		cfg:     cfg,
		logger:  logger,
		state:   StateIdle,
	}
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() State { return o.state }

// Submit runs the full flow for one draft and always reaches a terminal
// state. The draft is cleared on both terminal outcomes, except on transport
// errors when PreserveDraftOnTransportError is set.
func (o *Orchestrator) Submit(ctx context.Context, draftID string, overrides *payload.Overrides) *Result {
	defer func() { o.state = StateIdle }()

	// Validating
	o.state = StateValidating
	header, lineItems, err := o.loadDraft(ctx, draftID)
	if err != nil {
		return o.fail(ctx, draftID, FailureStorage, err.Error(), nil, true)
	}

	result := validation.ValidatePayload(header, lineItems)
	if !result.IsValid {
		o.logger.Info("Submission blocked by validation",
			zap.String("draft_id", draftID),
			zap.Int("error_count", len(result.Errors)))
		return o.fail(ctx, draftID, FailureValidation, "Validation failed", result.Errors, true)
	}

	// Building cannot fail: the builder defaults every optional field and
	// only the validator gates entry here.
	o.state = StateBuilding
	body := o.builder.BuildCreateExpensePayload(header, lineItems, overrides)

	// Submitting
	o.state = StateSubmitting
	resp, err := o.client.Submit(ctx, body)
	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			clearOnFail := !o.cfg.PreserveDraftOnTransportError
			return o.fail(ctx, draftID, FailureTransport, userMessageFor(transportErr), nil, clearOnFail)
		}
		return o.fail(ctx, draftID, FailureTransport, err.Error(), nil, true)
	}

	// Interpreting: only the success status succeeds; error, declined, and
	// anything unrecognized all fail with the backend message when present.
	o.state = StateInterpreting
	if !resp.Accepted() {
		message := resp.ReturnMessage
		if message == "" {
			message = genericRejectionMessage
		}
		o.logger.Warn("Backend rejected submission",
			zap.String("draft_id", draftID),
			zap.String("return_status", resp.ReturnStatus))
		res := o.fail(ctx, draftID, FailureRejected, message, nil, true)
		res.Response = resp
		return res
	}

	o.state = StateSucceeded
	cleared := o.clearDraft(ctx, draftID)
	o.logger.Info("Expense report submitted",
		zap.String("draft_id", draftID),
		zap.String("report_number", resp.ReportNumber))

	return &Result{
		State:         StateSucceeded,
		ReportNumber:  resp.ReportNumber,
		Message:       resp.ReturnMessage,
		Response:      resp,
		DraftCleared:  cleared,
		RedirectDelay: o.cfg.PostSubmitDelay,
	}
}

func (o *Orchestrator) loadDraft(ctx context.Context, draftID string) (*models.ExpenseHeader, []models.LineItem, error) {
	header, err := o.store.GetHeader(ctx, draftID)
	if err != nil {
		return nil, nil, err
	}
	lineItems, err := o.store.GetLineItems(ctx, draftID)
	if err != nil {
		return nil, nil, err
	}
	// The stored per-line-item collections are the source of truth for
	// itemization; attach them before validating and building.
	for i := range lineItems {
		entries, err := o.store.GetItemizedExpenses(ctx, draftID, lineItems[i].ID)
		if err != nil {
			return nil, nil, err
		}
		lineItems[i].Itemized = entries
	}
	return header, lineItems, nil
}

func (o *Orchestrator) fail(ctx context.Context, draftID string, kind FailureKind, message string, errs []string, clearDraft bool) *Result {
	o.state = StateFailed
	cleared := false
	if clearDraft {
		cleared = o.clearDraft(ctx, draftID)
	}
	return &Result{
		State:         StateFailed,
		FailureKind:   kind,
		Message:       message,
		Errors:        errs,
		DraftCleared:  cleared,
		RedirectDelay: o.cfg.PostSubmitDelay,
	}
}

// clearDraft is best-effort: a cleanup failure is logged, never surfaced over
// the terminal outcome.
func (o *Orchestrator) clearDraft(ctx context.Context, draftID string) bool {
	if err := o.store.ClearDraft(ctx, draftID); err != nil {
		o.logger.Error("Failed to clear draft after terminal outcome",
			zap.String("draft_id", draftID), zap.Error(err))
		return false
	}
	return true
}

func userMessageFor(err *TransportError) string {
	switch err.Kind {
	case KindTimeout:
		return "The request timed out. Please check your connection and try again."
	case KindNetwork:
		return "Could not reach the server. Please check your connection."
	case KindServerError:
		return "The server reported an error. Please try again later."
	case KindBadResponse:
		return "The server returned an unexpected response."
	default:
		return genericRejectionMessage
	}
}
