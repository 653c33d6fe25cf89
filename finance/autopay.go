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

// AutoPayJob is the run-claim key of the daily auto-pay job.
const AutoPayJob = "recurring-expense-autopay"

// autoPayHorizonMonths is how far ahead entries are generated before settling.
const autoPayHorizonMonths = 12

// RunReport counts the outcome of one scheduler run.
type RunReport struct {
	Claimed bool      `json:"claimed"`
	Day     time.Time `json:"day"`
	Created int       `json:"created"`
	Skipped int       `json:"skipped"`
	Overdue int       `json:"overdue"`
	Paid    int       `json:"paid"`
	Errors  int       `json:"errors"`
}

// AutoPayScheduler generates upcoming entries and settles those due today
// for auto-pay definitions.
type AutoPayScheduler struct {
	store     RecurringStore
	claimer   RunClaimer
	generator *Generator
	settler   *Settler
	now       func() time.Time
}

// NewAutoPayScheduler returns a scheduler. The generator and settler should
// share the scheduler's store.
func NewAutoPayScheduler(store RecurringStore, claimer RunClaimer, generator *Generator, settler *Settler, now func() time.Time) *AutoPayScheduler {
	if now == nil {
		now = time.Now
	}

	return &AutoPayScheduler{
		store:     store,
		claimer:   claimer,
		generator: generator,
		settler:   settler,
		now:       now,
	}
}

// Run executes one daily pass. Per-definition and per-entry failures are
// logged and counted; only failing to claim or list definitions aborts.
func (s *AutoPayScheduler) Run(ctx context.Context) (RunReport, error) {
	today := Today(s.now())
	report := RunReport{Day: today}

	claimed, err := s.claimer.ClaimRun(ctx, AutoPayJob, today)
	if err != nil {
		return report, fmt.Errorf("failed to claim auto-pay run: %w", err)
	}

	if !claimed {
		schedulerLogger.Info("Auto-pay run already claimed for today", "day", today.Format(time.DateOnly))

		return report, nil
	}

	report.Claimed = true

	defs, err := s.store.ListDefinitions(ctx, DefinitionFilter{Status: DefinitionActive})
	if err != nil {
		return report, fmt.Errorf("failed to list recurring expenses: %w", err)
	}

	horizon := today.AddDate(0, autoPayHorizonMonths, 0)

	for i := range defs {
		def := &defs[i]

		result, err := s.generator.GenerateEntries(ctx, def, horizon)
		report.Created += result.Created
		report.Skipped += result.Skipped

		if err != nil {
			report.Errors++
			schedulerLogger.Error("Failed to generate expense entries",
				"definition_id", def.ID, "name", def.Name, "error", err)
		}
	}

	overdue, err := s.generator.RefreshOverdue(ctx)
	if err != nil {
		report.Errors++
		schedulerLogger.Error("Failed to refresh overdue entries", "error", err)
	}

	report.Overdue = overdue

	for i := range defs {
		def := &defs[i]
		if !def.AutoPay {
			continue
		}

		paid, failed := s.settleDue(ctx, def, today)
		report.Paid += paid
		report.Errors += failed
	}

	schedulerLogger.Info("Auto-pay run completed",
		"day", today.Format(time.DateOnly),
		"created", report.Created,
		"skipped", report.Skipped,
		"overdue", report.Overdue,
		"paid", report.Paid,
		"errors", report.Errors,
	)

	return report, nil
}

func (s *AutoPayScheduler) settleDue(ctx context.Context, def *RecurringExpense, today time.Time) (paid int, failed int) {
	entries, err := s.store.ListExpenseEntries(ctx, def.ID)
	if err != nil {
		schedulerLogger.Error("Failed to list expense entries",
			"definition_id", def.ID, "error", err)

		return 0, 1
	}

	tomorrow := today.AddDate(0, 0, 1)

	for i := range entries {
		entry := &entries[i]
		if !entry.IsUnpaid() {
			continue
		}

		due := CivilDate(entry.DueDate)
		if due.Before(today) || !due.Before(tomorrow) {
			continue
		}

		if _, err := s.settler.settle(ctx, def, entry, SystemActor, true); err != nil {
			failed++
			schedulerLogger.Error("Failed to auto-pay expense entry",
				"definition_id", def.ID,
				"entry_id", entry.ID,
				"period", entry.Period,
				"error", err,
			)

			continue
		}

		paid++
	}

	return paid, failed
}

// StartDaily runs the scheduler at the next local midnight and every 24
// hours after that until ctx is cancelled.
func (s *AutoPayScheduler) StartDaily(ctx context.Context) {
	go func() {
		wait := untilNextMidnight(s.now())
		schedulerLogger.Info("Auto-pay scheduler armed", "first_run_in", wait.Round(time.Second).String())

		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.runLogged(ctx)

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				schedulerLogger.Info("Auto-pay scheduler shutting down")
				return
			case <-ticker.C:
				s.runLogged(ctx)
			}
		}
	}()
}

func (s *AutoPayScheduler) runLogged(ctx context.Context) {
	if _, err := s.Run(ctx); err != nil {
		schedulerLogger.Error("Auto-pay run failed", "error", err)
	}
}

func untilNextMidnight(now time.Time) time.Duration {
	local := now.In(time.Local)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, time.Local)

	return next.Sub(local)
}
