/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerFilter narrows ListLedgerEntries. Zero fields match everything.
// From is inclusive and To is exclusive.
type LedgerFilter struct {
	RecordTypes []RecordType
	Direction   Direction
	Statuses    []EntryStatus
	SourceTypes []SourceType
	From        *time.Time
	To          *time.Time
}

// LedgerStore persists ledger entries.
type LedgerStore interface {
	// InsertLedgerEntry assigns ID and timestamps. It returns
	// ErrDuplicateSource when an active entry already holds the source key.
	InsertLedgerEntry(ctx context.Context, entry *LedgerEntry) error
	// FindActiveBySource returns the non-cancelled entry for key, or nil.
	FindActiveBySource(ctx context.Context, key SourceKey) (*LedgerEntry, error)
	// FindLatestBySource returns the newest entry for key in any status, or nil.
	FindLatestBySource(ctx context.Context, key SourceKey) (*LedgerEntry, error)
	GetLedgerEntry(ctx context.Context, id uuid.UUID) (*LedgerEntry, error)
	UpdateLedgerEntryStatus(ctx context.Context, id uuid.UUID, status EntryStatus) error
	DeleteLedgerEntry(ctx context.Context, id uuid.UUID) error
	ListLedgerEntries(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error)
	// AddBudgetSpend adds amount to a budget row's spent total and returns the row.
	AddBudgetSpend(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*LedgerEntry, error)
}

// DefinitionFilter narrows ListDefinitions.
type DefinitionFilter struct {
	Status      DefinitionStatus
	AutoPayOnly bool
}

// RecurringStore persists recurring expense definitions and their entries.
type RecurringStore interface {
	GetDefinition(ctx context.Context, id uuid.UUID) (*RecurringExpense, error)
	ListDefinitions(ctx context.Context, filter DefinitionFilter) ([]RecurringExpense, error)
	UpdateDefinitionSchedule(ctx context.Context, id uuid.UUID, nextDue *time.Time, lastPaid *time.Time) error

	GetExpenseEntry(ctx context.Context, id uuid.UUID) (*ExpenseEntry, error)
	// ListExpenseEntries returns a definition's entries ordered by due date.
	ListExpenseEntries(ctx context.Context, definitionID uuid.UUID) ([]ExpenseEntry, error)
	// InsertExpenseEntry returns false when (definition, period) already exists.
	InsertExpenseEntry(ctx context.Context, entry *ExpenseEntry) (bool, error)
	MarkExpenseEntryPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
	SetExpenseEntryStatus(ctx context.Context, id uuid.UUID, status ExpenseEntryStatus) error
	// MarkOverdue persists the derived overdue status for pending entries due before day.
	MarkOverdue(ctx context.Context, day time.Time) (int, error)
	// ListPaidExpenses returns entries paid within [from, to).
	ListPaidExpenses(ctx context.Context, from, to *time.Time) ([]PaidExpense, error)
}

// SourceStore reads the collaborator entities the aggregator reconciles.
type SourceStore interface {
	ListProjects(ctx context.Context) ([]Project, error)
	ListApprovedReceipts(ctx context.Context) ([]PaymentReceipt, error)
	ListCompletedPayments(ctx context.Context, from, to *time.Time) ([]Payment, error)
	ListIncentiveRecords(ctx context.Context) ([]IncentiveRecord, error)
	UpdateProjectFinancials(ctx context.Context, id uuid.UUID, advanceReceived, remaining decimal.Decimal) error
}

// RunClaimer claims a scheduled job for a calendar day. It returns false
// when the day was already claimed.
type RunClaimer interface {
	ClaimRun(ctx context.Context, job string, day time.Time) (bool, error)
}
