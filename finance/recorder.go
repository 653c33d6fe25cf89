/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CancelMode selects how CancelForSource reverses an entry.
type CancelMode string

// CancelMode values.
const (
	// CancelSoft flips the entry to cancelled and keeps it for audit.
	CancelSoft CancelMode = "cancel"
	// CancelDelete removes the entry permanently.
	CancelDelete CancelMode = "delete"
)

// RecordInput is the input of RecordIncoming and RecordOutgoing.
type RecordInput struct {
	Amount      decimal.NullDecimal
	Category    string
	OccurredAt  time.Time
	Actor       Actor
	Refs        References
	Source      Source
	Description string
	Metadata    map[string]any
}

// Recorder writes ledger entries on behalf of other subsystems. Entries with
// a source are recorded at most once per source key while active.
type Recorder struct {
	store     LedgerStore
	publisher EventPublisher
	now       func() time.Time
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithPublisher sets the publisher that receives ledger events.
func WithPublisher(p EventPublisher) RecorderOption {
	return func(r *Recorder) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithRecorderClock overrides the recorder's clock.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder returns a Recorder backed by store.
func NewRecorder(store LedgerStore, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:     store,
		publisher: noopPublisher{},
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RecordIncoming records money received. The returned bool is false when an
// active entry for the same source already existed and was returned as is.
func (r *Recorder) RecordIncoming(ctx context.Context, in RecordInput) (*LedgerEntry, bool, error) {
	return r.record(ctx, DirectionIncoming, in)
}

// RecordOutgoing records money paid out. See RecordIncoming.
func (r *Recorder) RecordOutgoing(ctx context.Context, in RecordInput) (*LedgerEntry, bool, error) {
	return r.record(ctx, DirectionOutgoing, in)
}

func (r *Recorder) record(ctx context.Context, direction Direction, in RecordInput) (*LedgerEntry, bool, error) {
	if err := validateRecordInput(in); err != nil {
		return nil, false, err
	}

	src, err := recordSource(in)
	if err != nil {
		return nil, false, err
	}
	in.Source = src

	if in.Source != nil {
		existing, err := r.store.FindActiveBySource(ctx, KeyOf(in.Source))
		if err != nil {
			return nil, false, fmt.Errorf("failed to look up source entry: %w", err)
		}

		if existing != nil {
			logger.Debug("Ledger entry already recorded for source",
				"source", KeyOf(in.Source).String(), "entry_id", existing.ID)

			return existing, false, nil
		}
	}

	entry := &LedgerEntry{
		RecordType:  RecordTransaction,
		Direction:   direction,
		Category:    strings.TrimSpace(in.Category),
		Amount:      in.Amount.Decimal,
		OccurredAt:  in.OccurredAt,
		Status:      StatusCompleted,
		Refs:        in.Refs,
		CreatedBy:   in.Actor,
		Source:      in.Source,
		Metadata:    mergeMetadata(in.Metadata, in.Source),
		Description: in.Description,
	}

	return r.insert(ctx, entry)
}

// insert writes entry, resolving a storage-level duplicate to the existing row.
func (r *Recorder) insert(ctx context.Context, entry *LedgerEntry) (*LedgerEntry, bool, error) {
	err := r.store.InsertLedgerEntry(ctx, entry)
	if errors.Is(err, ErrDuplicateSource) && entry.Source != nil {
		existing, findErr := r.store.FindActiveBySource(ctx, KeyOf(entry.Source))
		if findErr != nil {
			return nil, false, fmt.Errorf("failed to look up source entry after conflict: %w", findErr)
		}

		if existing != nil {
			return existing, false, nil
		}

		return nil, false, err
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to record ledger entry: %w", err)
	}

	r.publish(ctx, EventRecorded, entry)

	return entry, true, nil
}

// CancelForSource reverses the entry recorded for key. It returns nil when
// no entry matches.
func (r *Recorder) CancelForSource(ctx context.Context, key SourceKey, mode CancelMode) (*LedgerEntry, error) {
	if mode != CancelSoft && mode != CancelDelete {
		return nil, invalid("mode", errUnknownCancelMode.Error())
	}

	if key.Type == "" || key.ID == "" {
		return nil, invalid("source", "source type and id are required")
	}

	entry, err := r.store.FindActiveBySource(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to look up source entry: %w", err)
	}

	if entry == nil && mode == CancelDelete {
		entry, err = r.store.FindLatestBySource(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to look up source entry: %w", err)
		}
	}

	if entry == nil {
		return nil, nil
	}

	switch mode {
	case CancelSoft:
		if err := r.store.UpdateLedgerEntryStatus(ctx, entry.ID, StatusCancelled); err != nil {
			return nil, fmt.Errorf("failed to cancel ledger entry: %w", err)
		}

		entry.Status = StatusCancelled
		r.publish(ctx, EventCancelled, entry)
	case CancelDelete:
		if err := r.store.DeleteLedgerEntry(ctx, entry.ID); err != nil {
			return nil, fmt.Errorf("failed to delete ledger entry: %w", err)
		}

		r.publish(ctx, EventDeleted, entry)
	}

	return entry, nil
}

// ManualInput is an admin-entered ledger record.
type ManualInput struct {
	RecordType  RecordType
	Direction   Direction
	Amount      decimal.NullDecimal
	Category    string
	OccurredAt  time.Time
	Actor       Actor
	Status      EntryStatus
	Refs        References
	Description string
	Metadata    map[string]any
}

// RecordManual records an admin-entered transaction, expense or invoice. The
// record is tagged with a fresh manual source so statistics can see it.
func (r *Recorder) RecordManual(ctx context.Context, in ManualInput) (*LedgerEntry, error) {
	if err := validateRecordInput(RecordInput{
		Amount:     in.Amount,
		Category:   in.Category,
		OccurredAt: in.OccurredAt,
		Actor:      in.Actor,
	}); err != nil {
		return nil, err
	}

	status := in.Status
	direction := in.Direction

	switch in.RecordType {
	case RecordTransaction:
		if direction != DirectionIncoming && direction != DirectionOutgoing {
			return nil, invalid("direction", "must be incoming or outgoing")
		}

		if status == "" {
			status = StatusCompleted
		}
	case RecordExpense:
		direction = DirectionOutgoing

		if status == "" {
			status = StatusPaid
		}
	case RecordInvoice:
		direction = ""

		if status == "" {
			status = StatusPending
		}
	case RecordBudget:
		return nil, invalid("recordType", "use CreateBudget for budgets")
	default:
		return nil, invalid("recordType", "unknown record type")
	}

	if !status.Valid() {
		return nil, invalid("status", "unknown status")
	}

	src := ManualSource{Reference: uuid.New()}
	entry := &LedgerEntry{
		RecordType:  in.RecordType,
		Direction:   direction,
		Category:    strings.TrimSpace(in.Category),
		Amount:      in.Amount.Decimal,
		OccurredAt:  in.OccurredAt,
		Status:      status,
		Refs:        in.Refs,
		CreatedBy:   in.Actor,
		Source:      src,
		Metadata:    mergeMetadata(in.Metadata, src),
		Description: in.Description,
	}

	created, _, err := r.insert(ctx, entry)

	return created, err
}

// BudgetInput is the input of CreateBudget.
type BudgetInput struct {
	Category    string
	Amount      decimal.NullDecimal
	PeriodStart time.Time
	Actor       Actor
	Description string
}

// CreateBudget records a budget line with nothing spent yet.
func (r *Recorder) CreateBudget(ctx context.Context, in BudgetInput) (*LedgerEntry, error) {
	if err := validateRecordInput(RecordInput{
		Amount:     in.Amount,
		Category:   in.Category,
		OccurredAt: in.PeriodStart,
		Actor:      in.Actor,
	}); err != nil {
		return nil, err
	}

	entry := &LedgerEntry{
		RecordType:      RecordBudget,
		Category:        strings.TrimSpace(in.Category),
		Amount:          in.Amount.Decimal,
		OccurredAt:      in.PeriodStart,
		Status:          StatusActive,
		CreatedBy:       in.Actor,
		Metadata:        map[string]any{},
		Description:     in.Description,
		BudgetSpent:     decimal.Zero,
		BudgetRemaining: in.Amount.Decimal,
	}

	if err := r.store.InsertLedgerEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}

	r.publish(ctx, EventRecorded, entry)

	return entry, nil
}

// RecordBudgetSpend adds amount to a budget's spent total. Remaining may go
// negative when the budget is overspent.
func (r *Recorder) RecordBudgetSpend(ctx context.Context, budgetID uuid.UUID, amount decimal.Decimal) (*LedgerEntry, error) {
	if amount.IsNegative() {
		return nil, invalid("amount", "must not be negative")
	}

	budget, err := r.store.GetLedgerEntry(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	if budget.RecordType != RecordBudget {
		return nil, invalid("budgetId", "entry is not a budget")
	}

	updated, err := r.store.AddBudgetSpend(ctx, budgetID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to record budget spend: %w", err)
	}

	return updated, nil
}

func (r *Recorder) publish(ctx context.Context, kind EventKind, entry *LedgerEntry) {
	if err := r.publisher.Publish(ctx, newLedgerEvent(kind, entry, r.now())); err != nil {
		logger.Warn("Failed to publish ledger event",
			"kind", kind, "entry_id", entry.ID, "error", err)
	}
}

// recordSource returns the explicit source, or the one the metadata tags
// name. Tags that name no known source are rejected so an untagged row never
// carries them.
func recordSource(in RecordInput) (Source, error) {
	if in.Source != nil {
		return in.Source, nil
	}

	_, hasType := in.Metadata[MetaSourceType]
	_, hasID := in.Metadata[MetaSourceID]

	if !hasType && !hasID {
		return nil, nil
	}

	src := SourceFromMetadata(in.Metadata)
	if src == nil {
		return nil, invalid("metadata", "sourceType and sourceId must name a known source")
	}

	return src, nil
}

func validateRecordInput(in RecordInput) error {
	switch {
	case !in.Amount.Valid:
		return invalid("amount", "is required")
	case in.Amount.Decimal.IsNegative():
		return invalid("amount", "must not be negative")
	case strings.TrimSpace(in.Category) == "":
		return invalid("category", "is required")
	case in.OccurredAt.IsZero():
		return invalid("occurredAt", "is required")
	case in.Actor == "":
		return invalid("actor", "is required")
	}

	return nil
}
