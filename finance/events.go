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

// EventKind is what happened to a ledger entry.
type EventKind string

// EventKind values.
const (
	EventRecorded  EventKind = "recorded"
	EventCancelled EventKind = "cancelled"
	EventDeleted   EventKind = "deleted"
)

// LedgerEvent describes a ledger write for downstream consumers.
type LedgerEvent struct {
	Kind       EventKind       `json:"kind"`
	EntryID    uuid.UUID       `json:"entryId"`
	RecordType RecordType      `json:"recordType"`
	Direction  Direction       `json:"direction,omitempty"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Status     EntryStatus     `json:"status"`
	OccurredAt time.Time       `json:"occurredAt"`
	SourceType SourceType      `json:"sourceType,omitempty"`
	SourceID   string          `json:"sourceId,omitempty"`
	Actor      Actor           `json:"actor"`
	EmittedAt  time.Time       `json:"emittedAt"`
}

// EventPublisher delivers ledger events.
type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, LedgerEvent) error { return nil }

func newLedgerEvent(kind EventKind, entry *LedgerEntry, at time.Time) LedgerEvent {
	ev := LedgerEvent{
		Kind:       kind,
		EntryID:    entry.ID,
		RecordType: entry.RecordType,
		Direction:  entry.Direction,
		Category:   entry.Category,
		Amount:     entry.Amount,
		Status:     entry.Status,
		OccurredAt: entry.OccurredAt,
		Actor:      entry.CreatedBy,
		EmittedAt:  at,
	}

	if key, ok := entry.SourceKey(); ok {
		ev.SourceType = key.Type
		ev.SourceID = key.ID
	}

	return ev
}
