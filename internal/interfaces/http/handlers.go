package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kalesha58/expense-core/internal/draft"
	"github.com/kalesha58/expense-core/internal/itemization"
	"github.com/kalesha58/expense-core/internal/models"
	"github.com/kalesha58/expense-core/internal/payload"
	"github.com/kalesha58/expense-core/internal/stats"
	"github.com/kalesha58/expense-core/internal/submission"
	"github.com/kalesha58/expense-core/internal/validation"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	store        draft.Store
	engine       *itemization.Engine
	orchestrator *submission.Orchestrator
	exporter     *stats.ExcelExporter
	logger       *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	store draft.Store,
	engine *itemization.Engine,
	orchestrator *submission.Orchestrator,
	exporter *stats.ExcelExporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		store:        store,
		engine:       engine,
		orchestrator: orchestrator,
		exporter:     exporter,
		logger:       logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SaveItemizationRequest carries the replacement entry list and, when the
// save was suspended for a reconciliation decision, the user's choice.
type SaveItemizationRequest struct {
	Entries  []models.ItemizedEntry `json:"entries"`
	Decision itemization.Decision   `json:"decision,omitempty"`
}

// DecisionRequiredResponse tells the client the save is suspended and what
// the overage looks like.
type DecisionRequiredResponse struct {
	DecisionRequired bool   `json:"decision_required"`
	ItemizedTotal    string `json:"itemized_total"`
	Difference       string `json:"difference"`
	Percentage       string `json:"percentage"`
}

// SubmitRequest optionally overrides identifier fields from the session.
type SubmitRequest struct {
	EmployeeID       string `json:"employee_id"`
	OrgID            string `json:"org_id"`
	UserID           string `json:"user_id"`
	ResponsibilityID string `json:"responsibility_id"`
}

// CreateDraft handles POST /api/v1/drafts
func (h *Handlers) CreateDraft(c *gin.Context) {
	draftID, err := h.store.CreateDraft(c.Request.Context())
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: gin.H{"draft_id": draftID}})
}

// GetHeader handles GET /api/v1/drafts/:id/header
func (h *Handlers) GetHeader(c *gin.Context) {
	header, err := h.store.GetHeader(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: header})
}

// UpdateHeader handles PUT /api/v1/drafts/:id/header
func (h *Handlers) UpdateHeader(c *gin.Context) {
	var header models.ExpenseHeader
	if err := c.ShouldBindJSON(&header); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid header payload"})
		return
	}
	if err := h.store.UpdateHeader(c.Request.Context(), c.Param("id"), &header); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// ListLineItems handles GET /api/v1/drafts/:id/lines
func (h *Handlers) ListLineItems(c *gin.Context) {
	items, err := h.store.GetLineItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: items})
}

// AddLineItem handles POST /api/v1/drafts/:id/lines
func (h *Handlers) AddLineItem(c *gin.Context) {
	var item models.LineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid line item payload"})
		return
	}
	if item.ID == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "line item id is required"})
		return
	}
	if err := h.store.AddLineItem(c.Request.Context(), c.Param("id"), &item); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: item})
}

// UpdateLineItem handles PUT /api/v1/drafts/:id/lines/:lineID
func (h *Handlers) UpdateLineItem(c *gin.Context) {
	var item models.LineItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid line item payload"})
		return
	}
	item.ID = c.Param("lineID")
	if err := h.store.UpdateLineItem(c.Request.Context(), c.Param("id"), &item); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// DeleteLineItem handles DELETE /api/v1/drafts/:id/lines/:lineID
func (h *Handlers) DeleteLineItem(c *gin.Context) {
	if err := h.store.DeleteLineItem(c.Request.Context(), c.Param("id"), c.Param("lineID")); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// GetItemization handles GET /api/v1/drafts/:id/lines/:lineID/itemization
func (h *Handlers) GetItemization(c *gin.Context) {
	entries, err := h.store.GetItemizedExpenses(c.Request.Context(), c.Param("id"), c.Param("lineID"))
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// SaveItemization handles PUT /api/v1/drafts/:id/lines/:lineID/itemization.
// Without a decision it runs the reconciliation policy; a 409 response means
// the save is suspended and the client must repeat the call carrying the
// user's decision.
func (h *Handlers) SaveItemization(c *gin.Context) {
	var req SaveItemizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid itemization payload"})
		return
	}

	ctx := c.Request.Context()
	draftID := c.Param("id")
	lineID := c.Param("lineID")

	if req.Decision != "" {
		err := h.engine.ResolveAndSave(ctx, draftID, lineID, req.Entries, req.Decision)
		switch {
		case errors.Is(err, itemization.ErrSaveAborted):
			c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"saved": false}})
		case err != nil:
			h.engineError(c, err)
		default:
			c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"saved": true}})
		}
		return
	}

	_, err := h.engine.SaveItemizedEntries(ctx, draftID, lineID, req.Entries)
	if err != nil {
		var decisionErr *itemization.DecisionRequiredError
		if errors.As(err, &decisionErr) {
			c.JSON(http.StatusConflict, Response{Success: false, Data: DecisionRequiredResponse{
				DecisionRequired: true,
				ItemizedTotal:    decisionErr.Outcome.ItemizedTotal.String(),
				Difference:       decisionErr.Outcome.Difference.String(),
				Percentage:       decisionErr.Outcome.Percentage.String(),
			}})
			return
		}
		h.engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"saved": true}})
}

// ValidateDraft handles POST /api/v1/drafts/:id/validate
func (h *Handlers) ValidateDraft(c *gin.Context) {
	header, lineItems, err := h.loadDraft(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: validation.ValidatePayload(header, lineItems)})
}

// SubmitDraft handles POST /api/v1/drafts/:id/submit
func (h *Handlers) SubmitDraft(c *gin.Context) {
	var req SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid submit payload"})
			return
		}
	}

	result := h.orchestrator.Submit(c.Request.Context(), c.Param("id"), &payload.Overrides{
		EmployeeID:       req.EmployeeID,
		OrgID:            req.OrgID,
		UserID:           req.UserID,
		ResponsibilityID: req.ResponsibilityID,
	})

	status := http.StatusOK
	if result.State == submission.StateFailed {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, Response{Success: result.State == submission.StateSucceeded, Data: result})
}

// GetStats handles GET /api/v1/drafts/:id/stats
func (h *Handlers) GetStats(c *gin.Context) {
	header, lineItems, err := h.loadDraft(c)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: stats.Summarize(header, lineItems)})
}

// ExportStats handles POST /api/v1/drafts/:id/stats/export
func (h *Handlers) ExportStats(c *gin.Context) {
	header, lineItems, err := h.loadDraft(c)
	if err != nil {
		return
	}
	path, err := h.exporter.Export(stats.Summarize(header, lineItems), header.ReportTitle())
	if err != nil {
		h.logger.Error("Failed to export spend summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "export failed"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"path": path}})
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// loadDraft fetches the header and line items with stored itemization
// attached; on error it writes the response itself and returns a non-nil err.
func (h *Handlers) loadDraft(c *gin.Context) (*models.ExpenseHeader, []models.LineItem, error) {
	ctx := c.Request.Context()
	draftID := c.Param("id")

	header, err := h.store.GetHeader(ctx, draftID)
	if err != nil {
		h.storeError(c, err)
		return nil, nil, err
	}
	lineItems, err := h.store.GetLineItems(ctx, draftID)
	if err != nil {
		h.storeError(c, err)
		return nil, nil, err
	}
	for i := range lineItems {
		entries, err := h.store.GetItemizedExpenses(ctx, draftID, lineItems[i].ID)
		if err != nil {
			h.storeError(c, err)
			return nil, nil, err
		}
		lineItems[i].Itemized = entries
	}
	return header, lineItems, nil
}

func (h *Handlers) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, draft.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "draft not found"})
	case errors.Is(err, draft.ErrLineItemNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "line item not found"})
	default:
		h.logger.Error("Draft store operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "storage failure"})
	}
}

func (h *Handlers) engineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, itemization.ErrNoEntries):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "no itemized entries to save"})
	case errors.Is(err, itemization.ErrAmountSyncFailed):
		// Entries persisted; only the parent amount sync needs a retry.
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "entries saved but amount sync failed; retry the save"})
	case errors.Is(err, draft.ErrDraftNotFound), errors.Is(err, draft.ErrLineItemNotFound):
		h.storeError(c, err)
	default:
		h.logger.Error("Itemization save failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "itemization save failed"})
	}
}
