/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"context"
	"fmt"
	"time"
)

// maxGeneratedPeriods bounds one expansion so a far-away horizon cannot loop forever.
const maxGeneratedPeriods = 1200

// GenerateResult counts the outcome of one expansion.
type GenerateResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Generator expands recurring expense definitions into dated entries.
type Generator struct {
	store RecurringStore
	now   func() time.Time
}

// NewGenerator returns a Generator backed by store.
func NewGenerator(store RecurringStore, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}

	return &Generator{store: store, now: now}
}

// GenerateEntries creates one entry per period from the definition's start
// date through min(horizon, end date). Existing periods are skipped, so the
// call can be repeated at any time. The definition's next due date is
// recomputed afterwards and def is updated in place.
func (g *Generator) GenerateEntries(ctx context.Context, def *RecurringExpense, horizon time.Time) (GenerateResult, error) {
	var result GenerateResult

	if def.Status != DefinitionActive {
		return result, nil
	}

	start := CivilDate(def.StartDate)
	limit := CivilDate(horizon)

	if def.EndDate != nil {
		end := CivilDate(*def.EndDate)
		if end.Before(start) {
			return result, nil
		}

		if end.Before(limit) {
			limit = end
		}
	}

	existing, err := g.store.ListExpenseEntries(ctx, def.ID)
	if err != nil {
		return result, fmt.Errorf("failed to list expense entries: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, entry := range existing {
		seen[entry.Period] = true
	}

	today := Today(g.now())

	for step := 0; step < maxGeneratedPeriods; step++ {
		due := DueDateAt(def.Frequency, start, def.DayOfMonth, step)
		if due.After(limit) {
			break
		}

		period := PeriodKey(def.Frequency, due)
		if seen[period] {
			result.Skipped++
			continue
		}

		status := EntryPending
		if due.Before(today) {
			status = EntryOverdue
		}

		entry := &ExpenseEntry{
			DefinitionID: def.ID,
			Period:       period,
			Amount:       def.Amount,
			DueDate:      due,
			Status:       status,
		}

		created, err := g.store.InsertExpenseEntry(ctx, entry)
		if err != nil {
			return result, fmt.Errorf("failed to create expense entry for %s: %w", period, err)
		}

		seen[period] = true

		if !created {
			result.Skipped++
			continue
		}

		result.Created++
	}

	if _, err := g.RecomputeNextDue(ctx, def); err != nil {
		return result, err
	}

	return result, nil
}

// RecomputeNextDue stores the definition's next due date from its current
// entries and returns it.
func (g *Generator) RecomputeNextDue(ctx context.Context, def *RecurringExpense) (time.Time, error) {
	entries, err := g.store.ListExpenseEntries(ctx, def.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to list expense entries: %w", err)
	}

	next := NextDueDate(*def, entries)

	if err := g.store.UpdateDefinitionSchedule(ctx, def.ID, &next, def.LastPaidDate); err != nil {
		return time.Time{}, fmt.Errorf("failed to update definition schedule: %w", err)
	}

	def.NextDueDate = &next

	return next, nil
}

// RefreshOverdue persists the derived overdue status for entries due before today.
func (g *Generator) RefreshOverdue(ctx context.Context) (int, error) {
	n, err := g.store.MarkOverdue(ctx, Today(g.now()))
	if err != nil {
		return 0, fmt.Errorf("failed to refresh overdue entries: %w", err)
	}

	return n, nil
}
