// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/bookkeeper/finance"
)

func testContext() context.Context {
	return context.Background()
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustCreateDefinition(t *testing.T, input finance.DefinitionInput) *finance.RecurringExpense {
	t.Helper()
	def, err := CreateRecurringExpense(testContext(), input)
	if err != nil {
		t.Fatalf("failed to create recurring expense: %v", err)
	}
	return def
}

func monthlyDefinitionInput(name string, start time.Time, autoPay bool) finance.DefinitionInput {
	return finance.DefinitionInput{
		Name:      name,
		Category:  "hosting",
		Amount:    decimal.NewNullDecimal(dec(80)),
		Frequency: finance.FrequencyMonthly,
		StartDate: start,
		AutoPay:   autoPay,
	}
}

func mustInsertLedgerEntry(t *testing.T, entry *finance.LedgerEntry) *finance.LedgerEntry {
	t.Helper()
	if err := InsertLedgerEntry(testContext(), entry); err != nil {
		t.Fatalf("failed to insert ledger entry: %v", err)
	}
	return entry
}

func sourcedEntry(src finance.Source, direction finance.Direction, amount int64) *finance.LedgerEntry {
	return &finance.LedgerEntry{
		RecordType: finance.RecordTransaction,
		Direction:  direction,
		Category:   "test",
		Amount:     dec(amount),
		OccurredAt: time.Now().UTC().Truncate(time.Microsecond),
		Status:     finance.StatusCompleted,
		CreatedBy:  finance.SystemActor,
		Source:     src,
		Metadata:   src.Metadata(),
	}
}

func mustCreateProject(t *testing.T, input CreateProjectInput) uuid.UUID {
	t.Helper()
	id, err := CreateProject(testContext(), input)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return id
}
