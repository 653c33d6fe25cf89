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
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/humaidq/bookkeeper/finance"
)

const definitionColumns = `
	id, name, category, amount, frequency, start_date, end_date, status,
	day_of_month, next_due_date, last_paid_date, auto_pay, account_id,
	description, created_at, updated_at`

const expenseEntryColumns = `
	id, definition_id, period, amount, due_date, status, paid_date, created_at`

func scanDefinition(row pgx.Row) (*finance.RecurringExpense, error) {
	var def finance.RecurringExpense

	if err := row.Scan(
		&def.ID,
		&def.Name,
		&def.Category,
		&def.Amount,
		&def.Frequency,
		&def.StartDate,
		&def.EndDate,
		&def.Status,
		&def.DayOfMonth,
		&def.NextDueDate,
		&def.LastPaidDate,
		&def.AutoPay,
		&def.AccountID,
		&def.Description,
		&def.CreatedAt,
		&def.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &def, nil
}

func scanExpenseEntry(row pgx.Row) (*finance.ExpenseEntry, error) {
	var entry finance.ExpenseEntry

	if err := row.Scan(
		&entry.ID,
		&entry.DefinitionID,
		&entry.Period,
		&entry.Amount,
		&entry.DueDate,
		&entry.Status,
		&entry.PaidDate,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &entry, nil
}

// CreateRecurringExpense validates input and stores a new definition.
func CreateRecurringExpense(ctx context.Context, input finance.DefinitionInput) (*finance.RecurringExpense, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	def, err := finance.ValidateDefinition(input)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO recurring_expenses (
			name, category, amount, frequency, start_date, end_date, status,
			day_of_month, auto_pay, account_id, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + definitionColumns

	created, err := scanDefinition(pool.QueryRow(ctx, query,
		def.Name,
		def.Category,
		def.Amount,
		def.Frequency,
		def.StartDate,
		def.EndDate,
		def.Status,
		def.DayOfMonth,
		def.AutoPay,
		def.AccountID,
		def.Description,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create recurring expense: %w", err)
	}

	logger.Info("Created recurring expense",
		"definition_id", created.ID,
		"name", created.Name,
		"frequency", created.Frequency,
		"auto_pay", created.AutoPay,
	)

	return created, nil
}

// UpdateRecurringExpense replaces a definition's editable fields. Entries
// already generated keep their amounts.
func UpdateRecurringExpense(ctx context.Context, id uuid.UUID, input finance.DefinitionInput) (*finance.RecurringExpense, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	def, err := finance.ValidateDefinition(input)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE recurring_expenses
		SET name = $1, category = $2, amount = $3, frequency = $4, start_date = $5,
			end_date = $6, status = $7, day_of_month = $8, auto_pay = $9,
			account_id = $10, description = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING ` + definitionColumns

	updated, err := scanDefinition(pool.QueryRow(ctx, query,
		def.Name,
		def.Category,
		def.Amount,
		def.Frequency,
		def.StartDate,
		def.EndDate,
		def.Status,
		def.DayOfMonth,
		def.AutoPay,
		def.AccountID,
		def.Description,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("recurring expense %s: %w", id, finance.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to update recurring expense: %w", err)
	}

	return updated, nil
}

// DeleteRecurringExpense removes a definition and, through the foreign key,
// all of its entries. Ledger entries already recorded are kept.
func DeleteRecurringExpense(ctx context.Context, id uuid.UUID) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx, `DELETE FROM recurring_expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recurring expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("recurring expense %s: %w", id, finance.ErrNotFound)
	}

	return nil
}

// GetRecurringExpense fetches a single definition by ID.
func GetRecurringExpense(ctx context.Context, id uuid.UUID) (*finance.RecurringExpense, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	def, err := scanDefinition(pool.QueryRow(ctx,
		`SELECT `+definitionColumns+` FROM recurring_expenses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("recurring expense %s: %w", id, finance.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get recurring expense: %w", err)
	}

	return def, nil
}

// ListRecurringExpenses returns definitions matching filter ordered by name.
func ListRecurringExpenses(ctx context.Context, filter finance.DefinitionFilter) ([]finance.RecurringExpense, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var whereClauses []string
	var args []interface{}
	argNum := 1

	if filter.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argNum))
		args = append(args, string(filter.Status))
		argNum++
	}

	if filter.AutoPayOnly {
		whereClauses = append(whereClauses, fmt.Sprintf("auto_pay = $%d", argNum))
		args = append(args, true)
	}

	query := `SELECT ` + definitionColumns + ` FROM recurring_expenses`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY name ASC, created_at ASC"

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring expenses: %w", err)
	}
	defer rows.Close()

	var defs []finance.RecurringExpense

	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring expense: %w", err)
		}

		defs = append(defs, *def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring expenses: %w", err)
	}

	return defs, nil
}

// UpdateRecurringExpenseSchedule stores the derived schedule fields.
func UpdateRecurringExpenseSchedule(ctx context.Context, id uuid.UUID, nextDue *time.Time, lastPaid *time.Time) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx, `
		UPDATE recurring_expenses
		SET next_due_date = $1, last_paid_date = $2, updated_at = NOW()
		WHERE id = $3
	`, nextDue, lastPaid, id)
	if err != nil {
		return fmt.Errorf("failed to update recurring expense schedule: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("recurring expense %s: %w", id, finance.ErrNotFound)
	}

	return nil
}

// GetExpenseEntry fetches a single expense entry by ID.
func GetExpenseEntry(ctx context.Context, id uuid.UUID) (*finance.ExpenseEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	entry, err := scanExpenseEntry(pool.QueryRow(ctx,
		`SELECT `+expenseEntryColumns+` FROM expense_entries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("expense entry %s: %w", id, finance.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get expense entry: %w", err)
	}

	return entry, nil
}

// ListExpenseEntries returns a definition's entries ordered by due date.
func ListExpenseEntries(ctx context.Context, definitionID uuid.UUID) ([]finance.ExpenseEntry, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT `+expenseEntryColumns+`
		FROM expense_entries
		WHERE definition_id = $1
		ORDER BY due_date ASC
	`, definitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense entries: %w", err)
	}
	defer rows.Close()

	var entries []finance.ExpenseEntry

	for rows.Next() {
		entry, err := scanExpenseEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense entry: %w", err)
		}

		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense entries: %w", err)
	}

	return entries, nil
}

// InsertExpenseEntry stores entry unless its period already exists for the
// definition. The returned bool is false when the period was skipped.
func InsertExpenseEntry(ctx context.Context, entry *finance.ExpenseEntry) (bool, error) {
	if pool == nil {
		return false, ErrDatabaseConnectionNotInitialized
	}

	err := pool.QueryRow(ctx, `
		INSERT INTO expense_entries (definition_id, period, amount, due_date, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (definition_id, period) DO NOTHING
		RETURNING id, created_at
	`,
		entry.DefinitionID,
		entry.Period,
		entry.Amount,
		entry.DueDate,
		entry.Status,
	).Scan(&entry.ID, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to insert expense entry: %w", err)
	}

	return true, nil
}

// MarkExpenseEntryPaid flips an unpaid entry to paid.
func MarkExpenseEntryPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx, `
		UPDATE expense_entries
		SET status = 'paid', paid_date = $1
		WHERE id = $2 AND status IN ('pending', 'overdue')
	`, paidAt, id)
	if err != nil {
		return fmt.Errorf("failed to mark expense entry paid: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("unpaid expense entry %s: %w", id, finance.ErrNotFound)
	}

	return nil
}

// SetExpenseEntryStatus changes an entry's status.
func SetExpenseEntryStatus(ctx context.Context, id uuid.UUID, status finance.ExpenseEntryStatus) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx, `UPDATE expense_entries SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update expense entry status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("expense entry %s: %w", id, finance.ErrNotFound)
	}

	return nil
}

// MarkOverdueExpenseEntries persists the overdue status of pending entries
// due before day and returns how many changed.
func MarkOverdueExpenseEntries(ctx context.Context, day time.Time) (int, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx, `
		UPDATE expense_entries
		SET status = 'overdue'
		WHERE status = 'pending' AND due_date < $1
	`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue expense entries: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// ListPaidExpenses returns paid entries with their definition's category,
// filtered by paid date.
func ListPaidExpenses(ctx context.Context, from, to *time.Time) ([]finance.PaidExpense, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT e.id, e.definition_id, e.period, e.amount, e.due_date, e.status,
			e.paid_date, e.created_at, d.category
		FROM expense_entries e
		JOIN recurring_expenses d ON d.id = e.definition_id
		WHERE e.status = 'paid'
			AND ($1::timestamptz IS NULL OR e.paid_date >= $1)
			AND ($2::timestamptz IS NULL OR e.paid_date < $2)
		ORDER BY e.paid_date ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query paid expenses: %w", err)
	}
	defer rows.Close()

	var paid []finance.PaidExpense

	for rows.Next() {
		var p finance.PaidExpense
		if err := rows.Scan(
			&p.Entry.ID,
			&p.Entry.DefinitionID,
			&p.Entry.Period,
			&p.Entry.Amount,
			&p.Entry.DueDate,
			&p.Entry.Status,
			&p.Entry.PaidDate,
			&p.Entry.CreatedAt,
			&p.Category,
		); err != nil {
			return nil, fmt.Errorf("failed to scan paid expense: %w", err)
		}

		paid = append(paid, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paid expenses: %w", err)
	}

	return paid, nil
}
