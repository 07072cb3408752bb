package draft

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kalesha58/expense-core/internal/models"
	"github.com/kalesha58/expense-core/pkg/database"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS expense_headers (
	draft_id          TEXT PRIMARY KEY,
	title             TEXT NOT NULL DEFAULT '',
	purpose           TEXT NOT NULL DEFAULT '',
	department        TEXT NOT NULL DEFAULT '',
	department_code   TEXT NOT NULL DEFAULT '',
	currency_code     TEXT NOT NULL DEFAULT 'USD',
	employee_id       TEXT NOT NULL DEFAULT '',
	org_id            TEXT NOT NULL DEFAULT '',
	user_id           TEXT NOT NULL DEFAULT '',
	responsibility_id TEXT NOT NULL DEFAULT '',
	approver_id       TEXT NOT NULL DEFAULT '',
	report_number     TEXT NOT NULL DEFAULT '',
	transaction_id    TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS line_items (
	id               TEXT PRIMARY KEY,
	draft_id         TEXT NOT NULL REFERENCES expense_headers(draft_id) ON DELETE CASCADE,
	amount           TEXT NOT NULL DEFAULT '',
	currency_code    TEXT NOT NULL DEFAULT '',
	expense_type     TEXT NOT NULL DEFAULT '',
	item_description TEXT NOT NULL DEFAULT '',
	transaction_date TIMESTAMP,
	start_date       TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	to_location      TEXT NOT NULL DEFAULT '',
	supplier         TEXT NOT NULL DEFAULT '',
	comment          TEXT NOT NULL DEFAULT '',
	justification    TEXT NOT NULL DEFAULT '',
	line_num         TEXT NOT NULL DEFAULT '',
	number_of_days   TEXT NOT NULL DEFAULT '',
	daily_rates      TEXT,
	receipt_ref      TEXT NOT NULL DEFAULT '',
	position         INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS itemized_entries (
	id                   TEXT NOT NULL,
	draft_id             TEXT NOT NULL,
	line_item_id         TEXT NOT NULL REFERENCES line_items(id) ON DELETE CASCADE,
	amount               TEXT NOT NULL DEFAULT '',
	currency_code        TEXT NOT NULL DEFAULT '',
	expense_type         TEXT NOT NULL DEFAULT '',
	itemized_description TEXT NOT NULL DEFAULT '',
	item_description     TEXT NOT NULL DEFAULT '',
	entry_date           TIMESTAMP,
	start_date           TEXT NOT NULL DEFAULT '',
	location             TEXT NOT NULL DEFAULT '',
	supplier             TEXT NOT NULL DEFAULT '',
	comment              TEXT NOT NULL DEFAULT '',
	number_of_days       TEXT NOT NULL DEFAULT '',
	justification        TEXT NOT NULL DEFAULT '',
	position             INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_line_items_draft ON line_items(draft_id, position);
CREATE INDEX IF NOT EXISTS idx_itemized_line ON itemized_entries(line_item_id, position);
`

// SQLiteStore is a durable Store backed by SQLite. Unlike the original
// client's device storage, a draft survives process restart.
type SQLiteStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteStore creates the store and ensures the schema exists.
func NewSQLiteStore(db *database.DB, logger *zap.Logger) (*SQLiteStore, error) {
	if err := db.ExecSchema(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize draft schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) CreateDraft(ctx context.Context) (string, error) {
	id := uuid.NewString()
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expense_headers (draft_id, currency_code, created_at, updated_at)
		VALUES (?, 'USD', ?, ?)
	`, id, now, now)
	if err != nil {
		s.logger.Error("Failed to create draft", zap.Error(err))
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetHeader(ctx context.Context, draftID string) (*models.ExpenseHeader, error) {
	query := `
		SELECT draft_id, title, purpose, department, department_code, currency_code,
			employee_id, org_id, user_id, responsibility_id, approver_id,
			report_number, transaction_id, created_at, updated_at
		FROM expense_headers
		WHERE draft_id = ?
	`

	var h models.ExpenseHeader
	err := s.db.QueryRowContext(ctx, query, draftID).Scan(
		&h.DraftID, &h.Title, &h.Purpose, &h.Department, &h.DepartmentCode,
		&h.CurrencyCode, &h.EmployeeID, &h.OrgID, &h.UserID, &h.ResponsibilityID,
		&h.ApproverID, &h.ReportNumber, &h.TransactionID, &h.CreatedAt, &h.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		s.logger.Error("Failed to get header", zap.String("draft_id", draftID), zap.Error(err))
		return nil, fmt.Errorf("failed to get header: %w", err)
	}
	return &h, nil
}

func (s *SQLiteStore) UpdateHeader(ctx context.Context, draftID string, header *models.ExpenseHeader) error {
	query := `
		UPDATE expense_headers
		SET title = ?, purpose = ?, department = ?, department_code = ?,
			currency_code = ?, employee_id = ?, org_id = ?, user_id = ?,
			responsibility_id = ?, approver_id = ?, report_number = ?,
			transaction_id = ?, updated_at = ?
		WHERE draft_id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		header.Title, header.Purpose, header.Department, header.DepartmentCode,
		header.CurrencyCode, header.EmployeeID, header.OrgID, header.UserID,
		header.ResponsibilityID, header.ApproverID, header.ReportNumber,
		header.TransactionID, time.Now(), draftID,
	)
	if err != nil {
		s.logger.Error("Failed to update header", zap.String("draft_id", draftID), zap.Error(err))
		return fmt.Errorf("failed to update header: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func (s *SQLiteStore) GetLineItems(ctx context.Context, draftID string) ([]models.LineItem, error) {
	query := `
		SELECT id, amount, currency_code, expense_type, item_description,
			transaction_date, start_date, location, to_location, supplier,
			comment, justification, line_num, number_of_days, daily_rates, receipt_ref
		FROM line_items
		WHERE draft_id = ?
		ORDER BY position, id
	`

	rows, err := s.db.QueryContext(ctx, query, draftID)
	if err != nil {
		s.logger.Error("Failed to get line items", zap.String("draft_id", draftID), zap.Error(err))
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	items := make([]models.LineItem, 0)
	for rows.Next() {
		var li models.LineItem
		var txnDate sql.NullTime
		var dailyRates sql.NullString
		if err := rows.Scan(
			&li.ID, &li.Amount, &li.CurrencyCode, &li.ExpenseType, &li.ItemDescription,
			&txnDate, &li.StartDate, &li.Location, &li.ToLocation, &li.Supplier,
			&li.Comment, &li.Justification, &li.LineNum, &li.NumberOfDays,
			&dailyRates, &li.ReceiptRef,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		if txnDate.Valid {
			t := txnDate.Time
			li.TransactionDate = &t
		}
		if dailyRates.Valid {
			v := dailyRates.String
			li.DailyRates = &v
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) AddLineItem(ctx context.Context, draftID string, item *models.LineItem) error {
	query := `
		INSERT INTO line_items (
			id, draft_id, amount, currency_code, expense_type, item_description,
			transaction_date, start_date, location, to_location, supplier,
			comment, justification, line_num, number_of_days, daily_rates,
			receipt_ref, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM line_items WHERE draft_id = ?))
	`

	_, err := s.db.ExecContext(ctx, query,
		item.ID, draftID, item.Amount, item.CurrencyCode, item.ExpenseType,
		item.ItemDescription, nullTime(item.TransactionDate), item.StartDate,
		item.Location, item.ToLocation, item.Supplier, item.Comment,
		item.Justification, item.LineNum, item.NumberOfDays,
		nullString(item.DailyRates), item.ReceiptRef, draftID,
	)
	if err != nil {
		s.logger.Error("Failed to add line item", zap.String("line_item_id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to add line item: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateLineItem(ctx context.Context, draftID string, item *models.LineItem) error {
	query := `
		UPDATE line_items
		SET amount = ?, currency_code = ?, expense_type = ?, item_description = ?,
			transaction_date = ?, start_date = ?, location = ?, to_location = ?,
			supplier = ?, comment = ?, justification = ?, line_num = ?,
			number_of_days = ?, daily_rates = ?, receipt_ref = ?
		WHERE id = ? AND draft_id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		item.Amount, item.CurrencyCode, item.ExpenseType, item.ItemDescription,
		nullTime(item.TransactionDate), item.StartDate, item.Location,
		item.ToLocation, item.Supplier, item.Comment, item.Justification,
		item.LineNum, item.NumberOfDays, nullString(item.DailyRates),
		item.ReceiptRef, item.ID, draftID,
	)
	if err != nil {
		s.logger.Error("Failed to update line item", zap.String("line_item_id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update line item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLineItemNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteLineItem(ctx context.Context, draftID, lineItemID string) error {
	return s.db.WithTransaction(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM line_items WHERE id = ? AND draft_id = ?`, lineItemID, draftID)
		if err != nil {
			return fmt.Errorf("failed to delete line item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrLineItemNotFound
		}
		if _, err := tx.Exec(`DELETE FROM itemized_entries WHERE line_item_id = ?`, lineItemID); err != nil {
			return fmt.Errorf("failed to delete itemized entries: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) GetItemizedExpenses(ctx context.Context, draftID, lineItemID string) ([]models.ItemizedEntry, error) {
	query := `
		SELECT id, line_item_id, amount, currency_code, expense_type,
			itemized_description, item_description, entry_date, start_date,
			location, supplier, comment, number_of_days, justification
		FROM itemized_entries
		WHERE draft_id = ? AND line_item_id = ?
		ORDER BY position, id
	`

	rows, err := s.db.QueryContext(ctx, query, draftID, lineItemID)
	if err != nil {
		s.logger.Error("Failed to get itemized entries", zap.String("line_item_id", lineItemID), zap.Error(err))
		return nil, fmt.Errorf("failed to get itemized entries: %w", err)
	}
	defer rows.Close()

	entries := make([]models.ItemizedEntry, 0)
	for rows.Next() {
		var e models.ItemizedEntry
		var date sql.NullTime
		if err := rows.Scan(
			&e.ID, &e.LineItemID, &e.Amount, &e.CurrencyCode, &e.ExpenseType,
			&e.ItemizedDescription, &e.ItemDescription, &date, &e.StartDate,
			&e.Location, &e.Supplier, &e.Comment, &e.NumberOfDays, &e.Justification,
		); err != nil {
			return nil, fmt.Errorf("failed to scan itemized entry: %w", err)
		}
		if date.Valid {
			t := date.Time
			e.Date = &t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) SetItemizedExpenses(ctx context.Context, draftID, lineItemID string, entries []models.ItemizedEntry) error {
	return s.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM itemized_entries WHERE draft_id = ? AND line_item_id = ?`, draftID, lineItemID); err != nil {
			return fmt.Errorf("failed to clear itemized entries: %w", err)
		}
		for i, e := range entries {
			_, err := tx.Exec(`
				INSERT INTO itemized_entries (
					id, draft_id, line_item_id, amount, currency_code, expense_type,
					itemized_description, item_description, entry_date, start_date,
					location, supplier, comment, number_of_days, justification, position
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, e.ID, draftID, lineItemID, e.Amount, e.CurrencyCode, e.ExpenseType,
				e.ItemizedDescription, e.ItemDescription, nullTime(e.Date), e.StartDate,
				e.Location, e.Supplier, e.Comment, e.NumberOfDays, e.Justification, i)
			if err != nil {
				return fmt.Errorf("failed to insert itemized entry: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ClearDraft(ctx context.Context, draftID string) error {
	return s.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM itemized_entries WHERE draft_id = ?`, draftID); err != nil {
			return fmt.Errorf("failed to clear itemized entries: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM line_items WHERE draft_id = ?`, draftID); err != nil {
			return fmt.Errorf("failed to clear line items: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM expense_headers WHERE draft_id = ?`, draftID); err != nil {
			return fmt.Errorf("failed to clear header: %w", err)
		}
		return nil
	})
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
