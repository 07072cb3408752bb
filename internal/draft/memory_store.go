package draft

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kalesha58/expense-core/internal/models"
)

// MemoryStore is an in-memory Store. It mirrors the original client's
// device-local key-value draft storage and backs the unit tests.
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[string]*draftState
}

type draftState struct {
	header   models.ExpenseHeader
	items    []models.LineItem
	itemized map[string][]models.ItemizedEntry
}

// NewMemoryStore creates an empty in-memory draft store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]*draftState)}
}

func (s *MemoryStore) CreateDraft(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	now := time.Now()
	s.drafts[id] = &draftState{
		header: models.ExpenseHeader{
			DraftID:      id,
			CurrencyCode: "USD",
			CreatedAt:    now,
			UpdatedAt:    now,
		},
		itemized: make(map[string][]models.ItemizedEntry),
	}
	return id, nil
}

func (s *MemoryStore) get(draftID string) (*draftState, error) {
	d, ok := s.drafts[draftID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

func (s *MemoryStore) GetHeader(ctx context.Context, draftID string) (*models.ExpenseHeader, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.get(draftID)
	if err != nil {
		return nil, err
	}
	header := d.header
	return &header, nil
}

func (s *MemoryStore) UpdateHeader(ctx context.Context, draftID string, header *models.ExpenseHeader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.get(draftID)
	if err != nil {
		return err
	}
	h := *header
	h.DraftID = draftID
	h.CreatedAt = d.header.CreatedAt
	h.UpdatedAt = time.Now()
	d.header = h
	return nil
}

func (s *MemoryStore) GetLineItems(ctx context.Context, draftID string) ([]models.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.get(draftID)
	if err != nil {
		return nil, err
	}
	items := make([]models.LineItem, len(d.items))
	copy(items, d.items)
	return items, nil
}

func (s *MemoryStore) AddLineItem(ctx context.Context, draftID string, item *models.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.get(draftID)
	if err != nil {
		return err
	}
	d.items = append(d.items, *item)
	return nil
}

func (s *MemoryStore) UpdateLineItem(ctx context.Context, draftID string, item *models.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.get(draftID)
	if err != nil {
		return err
	}
	for i := range d.items {
		if d.items[i].ID == item.ID {
			d.items[i] = *item
			return nil
		}
	}
	return ErrLineItemNotFound
}

func (s *MemoryStore) DeleteLineItem(ctx context.Context, draftID, lineItemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.get(draftID)
	if err != nil {
		return err
	}
	for i := range d.items {
		if d.items[i].ID == lineItemID {
			d.items = append(d.items[:i], d.items[i+1:]...)
			delete(d.itemized, lineItemID)
			return nil
		}
	}
	return ErrLineItemNotFound
}

func (s *MemoryStore) GetItemizedExpenses(ctx context.Context, draftID, lineItemID string) ([]models.ItemizedEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.get(draftID)
	if err != nil {
		return nil, err
	}
	entries := make([]models.ItemizedEntry, len(d.itemized[lineItemID]))
	copy(entries, d.itemized[lineItemID])
	return entries, nil
}

func (s *MemoryStore) SetItemizedExpenses(ctx context.Context, draftID, lineItemID string, entries []models.ItemizedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.get(draftID)
	if err != nil {
		return err
	}
	stored := make([]models.ItemizedEntry, len(entries))
	copy(stored, entries)
	for i := range stored {
		stored[i].LineItemID = lineItemID
	}
	d.itemized[lineItemID] = stored
	return nil
}

func (s *MemoryStore) ClearDraft(ctx context.Context, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[draftID]; !ok {
		return ErrDraftNotFound
	}
	delete(s.drafts, draftID)
	return nil
}
