/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settler pays expense entries and mirrors each payment into the ledger.
type Settler struct {
	store     RecurringStore
	recorder  *Recorder
	generator *Generator
	now       func() time.Time
}

// NewSettler returns a Settler.
func NewSettler(store RecurringStore, recorder *Recorder, generator *Generator, now func() time.Time) *Settler {
	if now == nil {
		now = time.Now
	}

	return &Settler{store: store, recorder: recorder, generator: generator, now: now}
}

// PayEntry settles an entry on behalf of actor.
func (s *Settler) PayEntry(ctx context.Context, entryID uuid.UUID, actor Actor) (*LedgerEntry, error) {
	if actor == "" {
		return nil, invalid("actor", "is required")
	}

	entry, err := s.store.GetExpenseEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	switch entry.Status {
	case EntryPaid:
		return nil, invalid("status", errEntryAlreadyPaid.Error())
	case EntrySkipped:
		return nil, invalid("status", errEntrySkipped.Error())
	}

	def, err := s.store.GetDefinition(ctx, entry.DefinitionID)
	if err != nil {
		return nil, err
	}

	return s.settle(ctx, def, entry, actor, false)
}

// SkipEntry marks an unpaid entry as skipped and moves the definition's
// next due date past it.
func (s *Settler) SkipEntry(ctx context.Context, entryID uuid.UUID) (*ExpenseEntry, error) {
	entry, err := s.store.GetExpenseEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if !entry.IsUnpaid() {
		return nil, invalid("status", "only pending or overdue entries can be skipped")
	}

	if err := s.store.SetExpenseEntryStatus(ctx, entry.ID, EntrySkipped); err != nil {
		return nil, fmt.Errorf("failed to skip expense entry: %w", err)
	}

	entry.Status = EntrySkipped

	def, err := s.store.GetDefinition(ctx, entry.DefinitionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.generator.RecomputeNextDue(ctx, def); err != nil {
		return nil, err
	}

	return entry, nil
}

// settle marks entry paid, updates the definition schedule and records the
// outgoing ledger entry, in that order. A failure after the first step
// leaves the earlier steps applied.
func (s *Settler) settle(ctx context.Context, def *RecurringExpense, entry *ExpenseEntry, actor Actor, autoPaid bool) (*LedgerEntry, error) {
	now := s.now()

	if err := s.store.MarkExpenseEntryPaid(ctx, entry.ID, now); err != nil {
		return nil, fmt.Errorf("failed to mark expense entry paid: %w", err)
	}

	entry.Status = EntryPaid
	entry.PaidDate = &now
	def.LastPaidDate = &now

	if _, err := s.generator.RecomputeNextDue(ctx, def); err != nil {
		return nil, err
	}

	ledgerEntry, _, err := s.recorder.RecordOutgoing(ctx, RecordInput{
		Amount:      decimal.NewNullDecimal(entry.Amount),
		Category:    def.Category,
		OccurredAt:  now,
		Actor:       actor,
		Refs:        References{AccountID: def.AccountID},
		Source:      ExpenseEntrySource{EntryID: entry.ID, DefinitionID: def.ID, AutoPaid: autoPaid},
		Description: fmt.Sprintf("%s (%s)", def.Name, entry.Period),
		Metadata:    map[string]any{"period": entry.Period},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record expense payment: %w", err)
	}

	return ledgerEntry, nil
}
