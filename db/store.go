/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/bookkeeper/finance"
)

// Store adapts the package-level pool functions to the finance store
// interfaces.
type Store struct{}

var (
	_ finance.LedgerStore    = Store{}
	_ finance.RecurringStore = Store{}
	_ finance.SourceStore    = Store{}
	_ finance.RunClaimer     = Store{}
)

func (Store) InsertLedgerEntry(ctx context.Context, entry *finance.LedgerEntry) error {
	return InsertLedgerEntry(ctx, entry)
}

func (Store) FindActiveBySource(ctx context.Context, key finance.SourceKey) (*finance.LedgerEntry, error) {
	return FindActiveLedgerEntryBySource(ctx, key)
}

func (Store) FindLatestBySource(ctx context.Context, key finance.SourceKey) (*finance.LedgerEntry, error) {
	return FindLatestLedgerEntryBySource(ctx, key)
}

func (Store) GetLedgerEntry(ctx context.Context, id uuid.UUID) (*finance.LedgerEntry, error) {
	return GetLedgerEntry(ctx, id)
}

func (Store) UpdateLedgerEntryStatus(ctx context.Context, id uuid.UUID, status finance.EntryStatus) error {
	return UpdateLedgerEntryStatus(ctx, id, status)
}

func (Store) DeleteLedgerEntry(ctx context.Context, id uuid.UUID) error {
	return DeleteLedgerEntry(ctx, id)
}

func (Store) ListLedgerEntries(ctx context.Context, filter finance.LedgerFilter) ([]finance.LedgerEntry, error) {
	return ListLedgerEntries(ctx, filter)
}

func (Store) AddBudgetSpend(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*finance.LedgerEntry, error) {
	return AddBudgetSpend(ctx, id, amount)
}

func (Store) GetDefinition(ctx context.Context, id uuid.UUID) (*finance.RecurringExpense, error) {
	return GetRecurringExpense(ctx, id)
}

func (Store) ListDefinitions(ctx context.Context, filter finance.DefinitionFilter) ([]finance.RecurringExpense, error) {
	return ListRecurringExpenses(ctx, filter)
}

func (Store) UpdateDefinitionSchedule(ctx context.Context, id uuid.UUID, nextDue *time.Time, lastPaid *time.Time) error {
	return UpdateRecurringExpenseSchedule(ctx, id, nextDue, lastPaid)
}

func (Store) GetExpenseEntry(ctx context.Context, id uuid.UUID) (*finance.ExpenseEntry, error) {
	return GetExpenseEntry(ctx, id)
}

func (Store) ListExpenseEntries(ctx context.Context, definitionID uuid.UUID) ([]finance.ExpenseEntry, error) {
	return ListExpenseEntries(ctx, definitionID)
}

func (Store) InsertExpenseEntry(ctx context.Context, entry *finance.ExpenseEntry) (bool, error) {
	return InsertExpenseEntry(ctx, entry)
}

func (Store) MarkExpenseEntryPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	return MarkExpenseEntryPaid(ctx, id, paidAt)
}

func (Store) SetExpenseEntryStatus(ctx context.Context, id uuid.UUID, status finance.ExpenseEntryStatus) error {
	return SetExpenseEntryStatus(ctx, id, status)
}

func (Store) MarkOverdue(ctx context.Context, day time.Time) (int, error) {
	return MarkOverdueExpenseEntries(ctx, day)
}

func (Store) ListPaidExpenses(ctx context.Context, from, to *time.Time) ([]finance.PaidExpense, error) {
	return ListPaidExpenses(ctx, from, to)
}

func (Store) ListProjects(ctx context.Context) ([]finance.Project, error) {
	return ListProjects(ctx)
}

func (Store) ListApprovedReceipts(ctx context.Context) ([]finance.PaymentReceipt, error) {
	return ListApprovedReceipts(ctx)
}

func (Store) ListCompletedPayments(ctx context.Context, from, to *time.Time) ([]finance.Payment, error) {
	return ListCompletedPayments(ctx, from, to)
}

func (Store) ListIncentiveRecords(ctx context.Context) ([]finance.IncentiveRecord, error) {
	return ListIncentiveRecords(ctx)
}

func (Store) UpdateProjectFinancials(ctx context.Context, id uuid.UUID, advanceReceived, remaining decimal.Decimal) error {
	return UpdateProjectFinancials(ctx, id, advanceReceived, remaining)
}

func (Store) ClaimRun(ctx context.Context, job string, day time.Time) (bool, error) {
	return ClaimSchedulerRun(ctx, job, day)
}

func (Store) CreateDefinition(ctx context.Context, input finance.DefinitionInput) (*finance.RecurringExpense, error) {
	return CreateRecurringExpense(ctx, input)
}

func (Store) UpdateDefinition(ctx context.Context, id uuid.UUID, input finance.DefinitionInput) (*finance.RecurringExpense, error) {
	return UpdateRecurringExpense(ctx, id, input)
}

func (Store) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	return DeleteRecurringExpense(ctx, id)
}
