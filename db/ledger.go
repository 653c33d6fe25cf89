/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/humaidq/bookkeeper/finance"
)

// activeSourceIndex is the partial unique index that keeps one
// non-cancelled entry per source key.
const activeSourceIndex = "ledger_entries_active_source_key"

const ledgerEntryColumns = `
	id, record_type, direction, category, amount, occurred_at, status,
	client_id, project_id, employee_id, account_id, created_by,
	source_type, source_id, metadata, description,
	budget_spent, budget_remaining, created_at, updated_at`

func scanLedgerEntry(row pgx.Row) (*finance.LedgerEntry, error) {
	var (
		entry           finance.LedgerEntry
		direction       *string
		createdBy       string
		sourceType      *string
		sourceID        *string
		budgetSpent     decimal.NullDecimal
		budgetRemaining decimal.NullDecimal
	)

	if err := row.Scan(
		&entry.ID,
		&entry.RecordType,
		&direction,
		&entry.Category,
		&entry.Amount,
		&entry.OccurredAt,
		&entry.Status,
		&entry.Refs.ClientID,
		&entry.Refs.ProjectID,
		&entry.Refs.EmployeeID,
		&entry.Refs.AccountID,
		&createdBy,
		&sourceType,
		&sourceID,
		&entry.Metadata,
		&entry.Description,
		&budgetSpent,
		&budgetRemaining,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if direction != nil {
		entry.Direction = finance.Direction(*direction)
	}

	entry.CreatedBy = finance.Actor(createdBy)

	if sourceType != nil && sourceID != nil {
		entry.Source = finance.SourceFromKey(finance.SourceKey{
			Type: finance.SourceType(*sourceType),
			ID:   *sourceID,
		}, entry.Metadata)
	}

	if budgetSpent.Valid {
		entry.BudgetSpent = budgetSpent.Decimal
	}

	if budgetRemaining.Valid {
		entry.BudgetRemaining = budgetRemaining.Decimal
	}

	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}

	return &entry, nil
}

func scanLedgerEntries(rows pgx.Rows) ([]finance.LedgerEntry, error) {
	defer rows.Close()

	var entries []finance.LedgerEntry

	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}

// InsertLedgerEntry stores entry and fills in its id and timestamps. It
// returns finance.ErrDuplicateSource when an active entry already holds the
// entry's source key.
func InsertLedgerEntry(ctx context.Context, entry *finance.LedgerEntry) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	var direction, sourceType, sourceID *string

	if entry.Direction != "" {
		d := string(entry.Direction)
		direction = &d
	}

	if key, ok := entry.SourceKey(); ok {
		st := string(key.Type)
		sourceType = &st
		sourceID = &key.ID
	}

	var budgetSpent, budgetRemaining decimal.NullDecimal
	if entry.RecordType == finance.RecordBudget {
		budgetSpent = decimal.NewNullDecimal(entry.BudgetSpent)
		budgetRemaining = decimal.NewNullDecimal(entry.BudgetRemaining)
	}

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	query := `
		INSERT INTO ledger_entries (
			record_type, direction, category, amount, occurred_at, status,
			client_id, project_id, employee_id, account_id, created_by,
			source_type, source_id, metadata, description,
			budget_spent, budget_remaining
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at
	`

	err := pool.QueryRow(ctx, query,
		entry.RecordType,
		direction,
		entry.Category,
		entry.Amount,
		entry.OccurredAt,
		entry.Status,
		entry.Refs.ClientID,
		entry.Refs.ProjectID,
		entry.Refs.EmployeeID,
		entry.Refs.AccountID,
		string(entry.CreatedBy),
		sourceType,
		sourceID,
		metadata,
		entry.Description,
		budgetSpent,
		budgetRemaining,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if isUniqueViolation(err, activeSourceIndex) {
		return finance.ErrDuplicateSource
	}

	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	entry.Metadata = metadata

	return nil
}

// FindActiveLedgerEntryBySource returns the non-cancelled entry for key, or
// nil when there is none.
func FindActiveLedgerEntryBySource(ctx context.Context, key finance.SourceKey) (*finance.LedgerEntry, error) {
	return findLedgerEntryBySource(ctx, key, true)
}

// FindLatestLedgerEntryBySource returns the most recent entry for key in any
// status, or nil when there is none.
func FindLatestLedgerEntryBySource(ctx context.Context, key finance.SourceKey) (*finance.LedgerEntry, error) {
	return findLedgerEntryBySource(ctx, key, false)
}

func findLedgerEntryBySource(ctx context.Context, key finance.SourceKey, activeOnly bool) (*finance.LedgerEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `SELECT ` + ledgerEntryColumns + `
		FROM ledger_entries
		WHERE source_type = $1 AND source_id = $2`

	if activeOnly {
		query += ` AND status <> 'cancelled'`
	}

	query += ` ORDER BY created_at DESC LIMIT 1`

	entry, err := scanLedgerEntry(pool.QueryRow(ctx, query, string(key.Type), key.ID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find ledger entry for %s: %w", key, err)
	}

	return entry, nil
}

// GetLedgerEntry fetches a single entry by ID.
func GetLedgerEntry(ctx context.Context, id uuid.UUID) (*finance.LedgerEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	entry, err := scanLedgerEntry(pool.QueryRow(ctx,
		`SELECT `+ledgerEntryColumns+` FROM ledger_entries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ledger entry %s: %w", id, finance.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// UpdateLedgerEntryStatus changes an entry's status.
func UpdateLedgerEntryStatus(ctx context.Context, id uuid.UUID, status finance.EntryStatus) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx,
		`UPDATE ledger_entries SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if isUniqueViolation(err, activeSourceIndex) {
		return finance.ErrDuplicateSource
	}

	if err != nil {
		return fmt.Errorf("failed to update ledger entry status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("ledger entry %s: %w", id, finance.ErrNotFound)
	}

	return nil
}

// DeleteLedgerEntry removes an entry permanently.
func DeleteLedgerEntry(ctx context.Context, id uuid.UUID) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("ledger entry %s: %w", id, finance.ErrNotFound)
	}

	return nil
}

// ListLedgerEntries returns entries matching filter, newest first.
func ListLedgerEntries(ctx context.Context, filter finance.LedgerFilter) ([]finance.LedgerEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var whereClauses []string
	var args []interface{}
	argNum := 1

	if len(filter.RecordTypes) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("record_type = ANY($%d::text[])", argNum))
		args = append(args, enumStrings(filter.RecordTypes))
		argNum++
	}

	if filter.Direction != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("direction = $%d", argNum))
		args = append(args, string(filter.Direction))
		argNum++
	}

	if len(filter.Statuses) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("status = ANY($%d::text[])", argNum))
		args = append(args, enumStrings(filter.Statuses))
		argNum++
	}

	if len(filter.SourceTypes) > 0 {
		whereClauses = append(whereClauses, fmt.Sprintf("source_type = ANY($%d::text[])", argNum))
		args = append(args, enumStrings(filter.SourceTypes))
		argNum++
	}

	if filter.From != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("occurred_at >= $%d", argNum))
		args = append(args, *filter.From)
		argNum++
	}

	if filter.To != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("occurred_at < $%d", argNum))
		args = append(args, *filter.To)
	}

	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY occurred_at DESC, created_at DESC"

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}

	return scanLedgerEntries(rows)
}

// AddBudgetSpend adds amount to a budget's spent total and recomputes the
// remaining balance in one statement.
func AddBudgetSpend(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*finance.LedgerEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		UPDATE ledger_entries
		SET budget_spent = COALESCE(budget_spent, 0) + $1,
			budget_remaining = amount - (COALESCE(budget_spent, 0) + $1),
			updated_at = NOW()
		WHERE id = $2 AND record_type = 'budget'
		RETURNING ` + ledgerEntryColumns

	entry, err := scanLedgerEntry(pool.QueryRow(ctx, query, amount, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("budget %s: %w", id, finance.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to record budget spend: %w", err)
	}

	return entry, nil
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}

	return out
}
