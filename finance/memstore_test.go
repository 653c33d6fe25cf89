// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package finance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory implementation of every finance store used by tests.
type memStore struct {
	mu sync.Mutex

	ledger      []LedgerEntry
	definitions map[uuid.UUID]RecurringExpense
	entries     []ExpenseEntry
	projects    []Project
	receipts    []PaymentReceipt
	payments    []Payment
	incentives  []IncentiveRecord
	claims      map[string]time.Time

	// failures
	failRecordOutgoing error
	failMarkPaid       map[uuid.UUID]error

	projectUpdates int
}

var _ LedgerStore = (*memStore)(nil)
var _ RecurringStore = (*memStore)(nil)
var _ SourceStore = (*memStore)(nil)
var _ RunClaimer = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		definitions:  map[uuid.UUID]RecurringExpense{},
		claims:       map[string]time.Time{},
		failMarkPaid: map[uuid.UUID]error{},
	}
}

func (m *memStore) InsertLedgerEntry(_ context.Context, entry *LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.Direction == DirectionOutgoing && m.failRecordOutgoing != nil {
		return m.failRecordOutgoing
	}

	if key, ok := entry.SourceKey(); ok {
		for _, e := range m.ledger {
			if k, ok := e.SourceKey(); ok && k == key && e.Status != StatusCancelled {
				return ErrDuplicateSource
			}
		}
	}

	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	m.ledger = append(m.ledger, *entry)

	return nil
}

func (m *memStore) FindActiveBySource(_ context.Context, key SourceKey) (*LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.ledger {
		if k, ok := m.ledger[i].SourceKey(); ok && k == key && m.ledger[i].Status != StatusCancelled {
			e := m.ledger[i]
			return &e, nil
		}
	}

	return nil, nil
}

func (m *memStore) FindLatestBySource(_ context.Context, key SourceKey) (*LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.ledger) - 1; i >= 0; i-- {
		if k, ok := m.ledger[i].SourceKey(); ok && k == key {
			e := m.ledger[i]
			return &e, nil
		}
	}

	return nil, nil
}

func (m *memStore) GetLedgerEntry(_ context.Context, id uuid.UUID) (*LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.ledger {
		if m.ledger[i].ID == id {
			e := m.ledger[i]
			return &e, nil
		}
	}

	return nil, ErrNotFound
}

func (m *memStore) UpdateLedgerEntryStatus(_ context.Context, id uuid.UUID, status EntryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.ledger {
		if m.ledger[i].ID == id {
			m.ledger[i].Status = status
			return nil
		}
	}

	return ErrNotFound
}

func (m *memStore) DeleteLedgerEntry(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.ledger {
		if m.ledger[i].ID == id {
			m.ledger = append(m.ledger[:i], m.ledger[i+1:]...)
			return nil
		}
	}

	return ErrNotFound
}

func (m *memStore) ListLedgerEntries(_ context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []LedgerEntry

	for _, e := range m.ledger {
		if len(filter.RecordTypes) > 0 && !containsValue(filter.RecordTypes, e.RecordType) {
			continue
		}

		if filter.Direction != "" && e.Direction != filter.Direction {
			continue
		}

		if len(filter.Statuses) > 0 && !containsValue(filter.Statuses, e.Status) {
			continue
		}

		if len(filter.SourceTypes) > 0 && !containsValue(filter.SourceTypes, e.SourceType()) {
			continue
		}

		if !(TimeFilter{From: filter.From, To: filter.To}).Contains(e.OccurredAt) {
			continue
		}

		out = append(out, e)
	}

	return out, nil
}

func (m *memStore) AddBudgetSpend(_ context.Context, id uuid.UUID, amount decimal.Decimal) (*LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.ledger {
		if m.ledger[i].ID == id {
			m.ledger[i].BudgetSpent = m.ledger[i].BudgetSpent.Add(amount)
			m.ledger[i].BudgetRemaining = m.ledger[i].Amount.Sub(m.ledger[i].BudgetSpent)
			e := m.ledger[i]

			return &e, nil
		}
	}

	return nil, ErrNotFound
}

func (m *memStore) addDefinition(def RecurringExpense) *RecurringExpense {
	m.mu.Lock()
	defer m.mu.Unlock()

	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}

	m.definitions[def.ID] = def

	return &def
}

func (m *memStore) GetDefinition(_ context.Context, id uuid.UUID) (*RecurringExpense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	def, ok := m.definitions[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &def, nil
}

func (m *memStore) ListDefinitions(_ context.Context, filter DefinitionFilter) ([]RecurringExpense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []RecurringExpense

	for _, def := range m.definitions {
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

func (m *memStore) UpdateDefinitionSchedule(_ context.Context, id uuid.UUID, nextDue *time.Time, lastPaid *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	def, ok := m.definitions[id]
	if !ok {
		return ErrNotFound
	}

	def.NextDueDate = nextDue
	def.LastPaidDate = lastPaid
	m.definitions[id] = def

	return nil
}

func (m *memStore) GetExpenseEntry(_ context.Context, id uuid.UUID) (*ExpenseEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == id {
			e := m.entries[i]
			return &e, nil
		}
	}

	return nil, ErrNotFound
}

func (m *memStore) ListExpenseEntries(_ context.Context, definitionID uuid.UUID) ([]ExpenseEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ExpenseEntry

	for _, e := range m.entries {
		if e.DefinitionID == definitionID {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })

	return out, nil
}

func (m *memStore) InsertExpenseEntry(_ context.Context, entry *ExpenseEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.DefinitionID == entry.DefinitionID && e.Period == entry.Period {
			return false, nil
		}
	}

	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)

	return true, nil
}

func (m *memStore) MarkExpenseEntryPaid(_ context.Context, id uuid.UUID, paidAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failMarkPaid[id]; err != nil {
		return err
	}

	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries[i].Status = EntryPaid
			m.entries[i].PaidDate = &paidAt

			return nil
		}
	}

	return ErrNotFound
}

func (m *memStore) SetExpenseEntryStatus(_ context.Context, id uuid.UUID, status ExpenseEntryStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries[i].Status = status
			return nil
		}
	}

	return ErrNotFound
}

func (m *memStore) MarkOverdue(_ context.Context, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0

	for i := range m.entries {
		if m.entries[i].Status == EntryPending && CivilDate(m.entries[i].DueDate).Before(day) {
			m.entries[i].Status = EntryOverdue
			n++
		}
	}

	return n, nil
}

func (m *memStore) ListPaidExpenses(_ context.Context, from, to *time.Time) ([]PaidExpense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := TimeFilter{From: from, To: to}

	var out []PaidExpense

	for _, e := range m.entries {
		if e.Status != EntryPaid || !filter.ContainsPtr(e.PaidDate) {
			continue
		}

		out = append(out, PaidExpense{Entry: e, Category: m.definitions[e.DefinitionID].Category})
	}

	return out, nil
}

func (m *memStore) ListProjects(context.Context) ([]Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]Project(nil), m.projects...), nil
}

func (m *memStore) ListApprovedReceipts(context.Context) ([]PaymentReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []PaymentReceipt

	for _, r := range m.receipts {
		if r.Status == ReceiptApproved {
			out = append(out, r)
		}
	}

	return out, nil
}

func (m *memStore) ListCompletedPayments(_ context.Context, from, to *time.Time) ([]Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filter := TimeFilter{From: from, To: to}

	var out []Payment

	for _, p := range m.payments {
		if p.Status == PaymentCompleted && filter.ContainsPtr(p.PaidAt) {
			out = append(out, p)
		}
	}

	return out, nil
}

func (m *memStore) ListIncentiveRecords(context.Context) ([]IncentiveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]IncentiveRecord(nil), m.incentives...), nil
}

func (m *memStore) UpdateProjectFinancials(_ context.Context, id uuid.UUID, advanceReceived, remaining decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.projects {
		if m.projects[i].ID == id {
			m.projects[i].AdvanceReceived = advanceReceived
			m.projects[i].RemainingAmount = remaining
			m.projectUpdates++

			return nil
		}
	}

	return ErrNotFound
}

func (m *memStore) ClaimRun(_ context.Context, job string, day time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.claims[job]; ok && !last.Before(day) {
		return false, nil
	}

	m.claims[job] = day

	return true, nil
}

func (m *memStore) activeLedger() []LedgerEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []LedgerEntry

	for _, e := range m.ledger {
		if e.Status != StatusCancelled {
			out = append(out, e)
		}
	}

	return out
}

func containsValue[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}

	return false
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return p.err
}

var errInjected = errors.New("injected failure")

func amount(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
