/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// RevenueLine names one revenue evidence source.
type RevenueLine string

// RevenueLine values.
const (
	RevenuePayments        RevenueLine = "payments"
	RevenueProjectAdvances RevenueLine = "projectAdvances"
	RevenueReceipts        RevenueLine = "paymentReceipts"
	RevenueInstallments    RevenueLine = "installments"
	RevenueLedgerOther     RevenueLine = "ledgerOther"
)

// ExpenseLine names one expense evidence source.
type ExpenseLine string

// ExpenseLine values.
const (
	ExpenseRecurring ExpenseLine = "recurring"
	ExpenseSalary    ExpenseLine = "salary"
	ExpenseIncentive ExpenseLine = "incentive"
	ExpenseReward    ExpenseLine = "reward"
	ExpenseManual    ExpenseLine = "manual"
	ExpenseOther     ExpenseLine = "other"
)

// sourceOwnedRevenue lists source types whose amounts are counted from the
// source entities, so their ledger mirrors are not added again.
var sourceOwnedRevenue = map[SourceType]bool{
	SourcePayment:            true,
	SourceProjectInstallment: true,
	SourcePaymentReceipt:     true,
	SourceProjectConversion:  true,
}

// RecurringCategoryTotal compares the two evidence sources of one category.
type RecurringCategoryTotal struct {
	FromEntries decimal.Decimal `json:"fromEntries"`
	FromLedger  decimal.Decimal `json:"fromLedger"`
	Counted     decimal.Decimal `json:"counted"`
}

// Statistics is the finance dashboard summary for one time filter.
type Statistics struct {
	Filter              TimeFilter                        `json:"filter"`
	Revenue             decimal.Decimal                   `json:"revenue"`
	Expenses            decimal.Decimal                   `json:"expenses"`
	NetProfit           decimal.Decimal                   `json:"netProfit"`
	RevenueBreakdown    map[RevenueLine]decimal.Decimal   `json:"revenueBreakdown"`
	ExpenseBreakdown    map[ExpenseLine]decimal.Decimal   `json:"expenseBreakdown"`
	RecurringByCategory map[string]RecurringCategoryTotal `json:"recurringByCategory"`
	Receivables         decimal.Decimal                   `json:"receivables"`
	IncentivesPayable   decimal.Decimal                   `json:"incentivesPayable"`
	IncentivesPending   decimal.Decimal                   `json:"incentivesPending"`
	Projects            []ProjectReconciliation           `json:"projects"`
	Corrections         int                               `json:"corrections"`
}

// Aggregator computes finance statistics from the ledger and the
// collaborator source entities.
type Aggregator struct {
	ledger    LedgerStore
	recurring RecurringStore
	sources   SourceStore
}

// NewAggregator returns an Aggregator.
func NewAggregator(ledger LedgerStore, recurring RecurringStore, sources SourceStore) *Aggregator {
	return &Aggregator{ledger: ledger, recurring: recurring, sources: sources}
}

// ComputeStatistics returns revenue, expenses and profit for filter. Project
// stored fields that disagree with the reconciled totals are corrected as a
// side effect; correction failures are logged only.
func (a *Aggregator) ComputeStatistics(ctx context.Context, filter TimeFilter) (*Statistics, error) {
	stats := &Statistics{
		Filter:              filter,
		RevenueBreakdown:    map[RevenueLine]decimal.Decimal{},
		ExpenseBreakdown:    map[ExpenseLine]decimal.Decimal{},
		RecurringByCategory: map[string]RecurringCategoryTotal{},
	}

	for _, line := range []RevenueLine{RevenuePayments, RevenueProjectAdvances, RevenueReceipts, RevenueInstallments, RevenueLedgerOther} {
		stats.RevenueBreakdown[line] = decimal.Zero
	}

	for _, line := range []ExpenseLine{ExpenseRecurring, ExpenseSalary, ExpenseIncentive, ExpenseReward, ExpenseManual, ExpenseOther} {
		stats.ExpenseBreakdown[line] = decimal.Zero
	}

	if err := a.addProjectRevenue(ctx, filter, stats); err != nil {
		return nil, err
	}

	payments, err := a.sources.ListCompletedPayments(ctx, filter.From, filter.To)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	for _, p := range payments {
		if p.Status == PaymentCompleted && filter.ContainsPtr(p.PaidAt) {
			addLine(stats.RevenueBreakdown, RevenuePayments, p.Amount)
		}
	}

	entries, err := a.ledger.ListLedgerEntries(ctx, LedgerFilter{
		RecordTypes: []RecordType{RecordTransaction, RecordExpense},
		Statuses:    []EntryStatus{StatusCompleted, StatusPaid},
		From:        filter.From,
		To:          filter.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	ledgerRecurring := a.addLedgerLines(entries, stats)

	if err := a.addRecurringExpenses(ctx, filter, ledgerRecurring, stats); err != nil {
		return nil, err
	}

	incentives, err := a.sources.ListIncentiveRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list incentive records: %w", err)
	}

	stats.IncentivesPayable = decimal.Zero
	stats.IncentivesPending = decimal.Zero

	for _, rec := range incentives {
		stats.IncentivesPayable = stats.IncentivesPayable.Add(rec.CurrentBalance)
		stats.IncentivesPending = stats.IncentivesPending.Add(rec.PendingBalance)
	}

	stats.Revenue = sumLines(stats.RevenueBreakdown)
	stats.Expenses = sumLines(stats.ExpenseBreakdown)
	stats.NetProfit = stats.Revenue.Sub(stats.Expenses)

	return stats, nil
}

// addProjectRevenue reconciles every project over all time, attributes the
// parts that fall inside filter, and corrects drifted stored fields.
func (a *Aggregator) addProjectRevenue(ctx context.Context, filter TimeFilter, stats *Statistics) error {
	projects, err := a.sources.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	receipts, err := a.sources.ListApprovedReceipts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list payment receipts: %w", err)
	}

	byProject := map[string][]PaymentReceipt{}
	for _, r := range receipts {
		key := r.ProjectID.String()
		byProject[key] = append(byProject[key], r)
	}

	stats.Receivables = decimal.Zero

	for _, p := range projects {
		projectReceipts := byProject[p.ID.String()]
		rec := ReconcileProject(p, projectReceipts)
		stats.Projects = append(stats.Projects, rec)
		stats.Receivables = stats.Receivables.Add(rec.Remaining)

		for _, r := range projectReceipts {
			if r.Status == ReceiptApproved && filter.ContainsPtr(r.VerifiedAt) {
				addLine(stats.RevenueBreakdown, RevenueReceipts, r.Amount)
			}
		}

		for _, inst := range p.Installments {
			if inst.Status == InstallmentPaid && filter.ContainsPtr(inst.PaidDate) {
				addLine(stats.RevenueBreakdown, RevenueInstallments, inst.Amount)
			}
		}

		capturedAt := p.CreatedAt
		if p.ConvertedAt != nil {
			capturedAt = *p.ConvertedAt
		}

		if filter.Contains(capturedAt) {
			addLine(stats.RevenueBreakdown, RevenueProjectAdvances, rec.AdvanceOnly)
		}

		if rec.NeedsCorrection {
			if err := a.sources.UpdateProjectFinancials(ctx, p.ID, rec.TotalReceived, rec.Remaining); err != nil {
				logger.Warn("Failed to correct project financials",
					"project_id", p.ID, "rule", rec.Rule, "error", err)

				continue
			}

			stats.Corrections++
		}
	}

	sort.Slice(stats.Projects, func(i, j int) bool {
		return stats.Projects[i].ProjectID.String() < stats.Projects[j].ProjectID.String()
	})

	return nil
}

// addLedgerLines buckets tagged ledger rows and returns the per-category
// totals of recurring expense payments for the cross-check.
func (a *Aggregator) addLedgerLines(entries []LedgerEntry, stats *Statistics) map[string]decimal.Decimal {
	recurring := map[string]decimal.Decimal{}

	for _, entry := range entries {
		st := entry.SourceType()
		if st == "" {
			continue
		}

		outgoing := entry.Direction == DirectionOutgoing || entry.RecordType == RecordExpense

		if !outgoing {
			if entry.Direction == DirectionIncoming && !sourceOwnedRevenue[st] {
				addLine(stats.RevenueBreakdown, RevenueLedgerOther, entry.Amount)
			}

			continue
		}

		switch st {
		case SourceExpenseEntry:
			recurring[entry.Category] = recurring[entry.Category].Add(entry.Amount)
		case SourceSalary:
			addLine(stats.ExpenseBreakdown, ExpenseSalary, entry.Amount)
		case SourceIncentive:
			addLine(stats.ExpenseBreakdown, ExpenseIncentive, entry.Amount)
		case SourceReward:
			addLine(stats.ExpenseBreakdown, ExpenseReward, entry.Amount)
		case SourceManual:
			addLine(stats.ExpenseBreakdown, ExpenseManual, entry.Amount)
		default:
			addLine(stats.ExpenseBreakdown, ExpenseOther, entry.Amount)
		}
	}

	return recurring
}

// addRecurringExpenses counts, per category, the larger of the paid expense
// entries and their ledger mirrors.
func (a *Aggregator) addRecurringExpenses(ctx context.Context, filter TimeFilter, fromLedger map[string]decimal.Decimal, stats *Statistics) error {
	paid, err := a.recurring.ListPaidExpenses(ctx, filter.From, filter.To)
	if err != nil {
		return fmt.Errorf("failed to list paid expenses: %w", err)
	}

	fromEntries := map[string]decimal.Decimal{}

	for _, p := range paid {
		if p.Entry.Status != EntryPaid || !filter.ContainsPtr(p.Entry.PaidDate) {
			continue
		}

		fromEntries[p.Category] = fromEntries[p.Category].Add(p.Entry.Amount)
	}

	categories := map[string]bool{}
	for c := range fromEntries {
		categories[c] = true
	}

	for c := range fromLedger {
		categories[c] = true
	}

	for c := range categories {
		total := RecurringCategoryTotal{
			FromEntries: fromEntries[c],
			FromLedger:  fromLedger[c],
		}
		total.Counted = decimal.Max(total.FromEntries, total.FromLedger)
		stats.RecurringByCategory[c] = total
		addLine(stats.ExpenseBreakdown, ExpenseRecurring, total.Counted)
	}

	return nil
}

func addLine[K comparable](lines map[K]decimal.Decimal, key K, amount decimal.Decimal) {
	lines[key] = lines[key].Add(amount)
}

func sumLines[K comparable](lines map[K]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range lines {
		total = total.Add(v)
	}

	return total
}
