// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/bookkeeper/finance"
)

// fakeStore keeps ledger and recurring data in memory for handler tests.
// Collaborator sources are always empty.
type fakeStore struct {
	mu sync.Mutex

	ledger      map[uuid.UUID]finance.LedgerEntry
	definitions map[uuid.UUID]finance.RecurringExpense
	entries     map[uuid.UUID]finance.ExpenseEntry
}

var (
	_ DefinitionStore     = (*fakeStore)(nil)
	_ finance.LedgerStore = (*fakeStore)(nil)
	_ finance.SourceStore = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		ledger:      map[uuid.UUID]finance.LedgerEntry{},
		definitions: map[uuid.UUID]finance.RecurringExpense{},
		entries:     map[uuid.UUID]finance.ExpenseEntry{},
	}
}

func notFound(id uuid.UUID) error {
	return fmt.Errorf("%s: %w", id, finance.ErrNotFound)
}

func (s *fakeStore) InsertLedgerEntry(_ context.Context, entry *finance.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := entry.SourceKey(); ok {
		for _, e := range s.ledger {
			if k, ok := e.SourceKey(); ok && k == key && e.Status != finance.StatusCancelled {
				return finance.ErrDuplicateSource
			}
		}
	}

	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	s.ledger[entry.ID] = *entry

	return nil
}

func (s *fakeStore) findBySource(key finance.SourceKey, activeOnly bool) *finance.LedgerEntry {
	var found *finance.LedgerEntry

	for _, e := range s.ledger {
		k, ok := e.SourceKey()
		if !ok || k != key || (activeOnly && e.Status == finance.StatusCancelled) {
			continue
		}

		if found == nil || e.CreatedAt.After(found.CreatedAt) {
			match := e
			found = &match
		}
	}

	return found
}

func (s *fakeStore) FindActiveBySource(_ context.Context, key finance.SourceKey) (*finance.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.findBySource(key, true), nil
}

func (s *fakeStore) FindLatestBySource(_ context.Context, key finance.SourceKey) (*finance.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.findBySource(key, false), nil
}

func (s *fakeStore) GetLedgerEntry(_ context.Context, id uuid.UUID) (*finance.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ledger[id]
	if !ok {
		return nil, notFound(id)
	}

	return &e, nil
}

func (s *fakeStore) UpdateLedgerEntryStatus(_ context.Context, id uuid.UUID, status finance.EntryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ledger[id]
	if !ok {
		return notFound(id)
	}

	e.Status = status
	s.ledger[id] = e

	return nil
}

func (s *fakeStore) DeleteLedgerEntry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.ledger, id)

	return nil
}

func (s *fakeStore) ListLedgerEntries(_ context.Context, filter finance.LedgerFilter) ([]finance.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []finance.LedgerEntry

	for _, e := range s.ledger {
		if len(filter.RecordTypes) > 0 && !containsValue(filter.RecordTypes, e.RecordType) {
			continue
		}

		if len(filter.Statuses) > 0 && !containsValue(filter.Statuses, e.Status) {
			continue
		}

		if !(finance.TimeFilter{From: filter.From, To: filter.To}).Contains(e.OccurredAt) {
			continue
		}

		out = append(out, e)
	}

	return out, nil
}

func containsValue[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}

	return false
}

func (s *fakeStore) AddBudgetSpend(_ context.Context, id uuid.UUID, amount decimal.Decimal) (*finance.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.ledger[id]
	if !ok {
		return nil, notFound(id)
	}

	e.BudgetSpent = e.BudgetSpent.Add(amount)
	e.BudgetRemaining = e.Amount.Sub(e.BudgetSpent)
	s.ledger[id] = e

	return &e, nil
}

func (s *fakeStore) CreateDefinition(_ context.Context, input finance.DefinitionInput) (*finance.RecurringExpense, error) {
	def, err := finance.ValidateDefinition(input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def.ID = uuid.New()
	def.CreatedAt = time.Now()
	def.UpdatedAt = def.CreatedAt
	s.definitions[def.ID] = def

	return &def, nil
}

func (s *fakeStore) UpdateDefinition(_ context.Context, id uuid.UUID, input finance.DefinitionInput) (*finance.RecurringExpense, error) {
	def, err := finance.ValidateDefinition(input)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.definitions[id]
	if !ok {
		return nil, notFound(id)
	}

	def.ID = id
	def.CreatedAt = existing.CreatedAt
	def.LastPaidDate = existing.LastPaidDate
	def.UpdatedAt = time.Now()
	s.definitions[id] = def

	return &def, nil
}

func (s *fakeStore) DeleteDefinition(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.definitions[id]; !ok {
		return notFound(id)
	}

	delete(s.definitions, id)

	for entryID, e := range s.entries {
		if e.DefinitionID == id {
			delete(s.entries, entryID)
		}
	}

	return nil
}

func (s *fakeStore) GetDefinition(_ context.Context, id uuid.UUID) (*finance.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.definitions[id]
	if !ok {
		return nil, notFound(id)
	}

	return &def, nil
}

func (s *fakeStore) ListDefinitions(_ context.Context, filter finance.DefinitionFilter) ([]finance.RecurringExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []finance.RecurringExpense

	for _, def := range s.definitions {
		if filter.Status != "" && def.Status != filter.Status {
			continue
		}

		if filter.AutoPayOnly && !def.AutoPay {
			continue
		}

		out = append(out, def)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (s *fakeStore) UpdateDefinitionSchedule(_ context.Context, id uuid.UUID, nextDue *time.Time, lastPaid *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.definitions[id]
	if !ok {
		return notFound(id)
	}

	def.NextDueDate = nextDue
	def.LastPaidDate = lastPaid
	s.definitions[id] = def

	return nil
}

func (s *fakeStore) GetExpenseEntry(_ context.Context, id uuid.UUID) (*finance.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, notFound(id)
	}

	return &e, nil
}

func (s *fakeStore) ListExpenseEntries(_ context.Context, definitionID uuid.UUID) ([]finance.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []finance.ExpenseEntry

	for _, e := range s.entries {
		if e.DefinitionID == definitionID {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })

	return out, nil
}

func (s *fakeStore) InsertExpenseEntry(_ context.Context, entry *finance.ExpenseEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.DefinitionID == entry.DefinitionID && e.Period == entry.Period {
			return false, nil
		}
	}

	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	s.entries[entry.ID] = *entry

	return true, nil
}

func (s *fakeStore) MarkExpenseEntryPaid(_ context.Context, id uuid.UUID, paidAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || !e.IsUnpaid() {
		return notFound(id)
	}

	e.Status = finance.EntryPaid
	e.PaidDate = &paidAt
	s.entries[id] = e

	return nil
}

func (s *fakeStore) SetExpenseEntryStatus(_ context.Context, id uuid.UUID, status finance.ExpenseEntryStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return notFound(id)
	}

	e.Status = status
	s.entries[id] = e

	return nil
}

func (s *fakeStore) MarkOverdue(_ context.Context, day time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for id, e := range s.entries {
		if e.Status == finance.EntryPending && e.DueDate.Before(day) {
			e.Status = finance.EntryOverdue
			s.entries[id] = e
			n++
		}
	}

	return n, nil
}

func (s *fakeStore) ListPaidExpenses(_ context.Context, from, to *time.Time) ([]finance.PaidExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []finance.PaidExpense

	window := finance.TimeFilter{From: from, To: to}

	for _, e := range s.entries {
		if e.Status != finance.EntryPaid || !window.ContainsPtr(e.PaidDate) {
			continue
		}

		out = append(out, finance.PaidExpense{Entry: e, Category: s.definitions[e.DefinitionID].Category})
	}

	return out, nil
}

func (s *fakeStore) ListProjects(context.Context) ([]finance.Project, error) {
	return nil, nil
}

func (s *fakeStore) ListApprovedReceipts(context.Context) ([]finance.PaymentReceipt, error) {
	return nil, nil
}

func (s *fakeStore) ListCompletedPayments(context.Context, *time.Time, *time.Time) ([]finance.Payment, error) {
	return nil, nil
}

func (s *fakeStore) ListIncentiveRecords(context.Context) ([]finance.IncentiveRecord, error) {
	return nil, nil
}

func (s *fakeStore) UpdateProjectFinancials(context.Context, uuid.UUID, decimal.Decimal, decimal.Decimal) error {
	return nil
}
