/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconcileRule names which branch decided a project's total received.
type ReconcileRule string

// ReconcileRule values.
const (
	// RuleStoredInclusive: the stored advance already covers receipts and installments.
	RuleStoredInclusive ReconcileRule = "storedInclusive"
	// RuleAdvancePlusParts: the stored advance is a separate initial amount.
	RuleAdvancePlusParts ReconcileRule = "advancePlusParts"
	// RuleSumOfParts: receipts and installments alone.
	RuleSumOfParts ReconcileRule = "sumOfParts"
)

// ProjectReconciliation is the reconciled view of one project's receivable.
type ProjectReconciliation struct {
	ProjectID        uuid.UUID       `json:"projectId"`
	StoredAdvance    decimal.Decimal `json:"storedAdvance"`
	ReceiptsTotal    decimal.Decimal `json:"receiptsTotal"`
	InstallmentTotal decimal.Decimal `json:"installmentTotal"`
	ApprovedReceipts int             `json:"approvedReceipts"`
	TotalReceived    decimal.Decimal `json:"totalReceived"`
	// AdvanceOnly is the part of TotalReceived not evidenced by a receipt or installment.
	AdvanceOnly     decimal.Decimal `json:"advanceOnly"`
	Remaining       decimal.Decimal `json:"remaining"`
	Rule            ReconcileRule   `json:"rule"`
	NeedsCorrection bool            `json:"needsCorrection"`
}

// ReconcileProject combines a project's stored advance, its approved
// receipts and its paid installments into one total received.
//
//  1. parts = approved receipts + paid installments
//  2. stored >= parts: stored is already inclusive
//  3. stored > 0 and exactly one approved receipt: stored + parts
//  4. otherwise: parts
//  5. remaining = max(0, total cost - total received)
//
// Receipts for other projects or not approved are ignored.
func ReconcileProject(p Project, receipts []PaymentReceipt) ProjectReconciliation {
	rec := ProjectReconciliation{
		ProjectID:        p.ID,
		StoredAdvance:    p.AdvanceReceived,
		ReceiptsTotal:    decimal.Zero,
		InstallmentTotal: decimal.Zero,
	}

	for _, r := range receipts {
		if r.ProjectID != p.ID || r.Status != ReceiptApproved {
			continue
		}

		rec.ReceiptsTotal = rec.ReceiptsTotal.Add(r.Amount)
		rec.ApprovedReceipts++
	}

	for _, inst := range p.Installments {
		if inst.Status == InstallmentPaid {
			rec.InstallmentTotal = rec.InstallmentTotal.Add(inst.Amount)
		}
	}

	parts := rec.ReceiptsTotal.Add(rec.InstallmentTotal)
	stored := p.AdvanceReceived

	switch {
	case stored.GreaterThanOrEqual(parts):
		rec.TotalReceived = stored
		rec.Rule = RuleStoredInclusive
	case stored.IsPositive() && rec.ApprovedReceipts == 1:
		rec.TotalReceived = stored.Add(parts)
		rec.Rule = RuleAdvancePlusParts
	default:
		rec.TotalReceived = parts
		rec.Rule = RuleSumOfParts
	}

	rec.AdvanceOnly = rec.TotalReceived.Sub(parts)
	if rec.AdvanceOnly.IsNegative() {
		rec.AdvanceOnly = decimal.Zero
	}

	rec.Remaining = decimal.Max(decimal.Zero, p.TotalCost.Sub(rec.TotalReceived))
	rec.NeedsCorrection = !stored.Equal(rec.TotalReceived) || !p.RemainingAmount.Equal(rec.Remaining)

	return rec
}
