/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordType is the kind of ledger record.
type RecordType string

// RecordType values.
const (
	RecordTransaction RecordType = "transaction"
	RecordBudget      RecordType = "budget"
	RecordInvoice     RecordType = "invoice"
	RecordExpense     RecordType = "expense"
)

// Direction is the money flow of a transaction.
type Direction string

// Direction values.
const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// EntryStatus is the lifecycle state of a ledger record.
type EntryStatus string

// EntryStatus values.
const (
	StatusPending   EntryStatus = "pending"
	StatusCompleted EntryStatus = "completed"
	StatusPaid      EntryStatus = "paid"
	StatusFailed    EntryStatus = "failed"
	StatusCancelled EntryStatus = "cancelled"
	StatusActive    EntryStatus = "active"
	StatusInactive  EntryStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusPaid, StatusFailed,
		StatusCancelled, StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}

// References holds the optional foreign keys of a ledger entry.
type References struct {
	ClientID   *uuid.UUID `json:"clientId,omitempty"`
	ProjectID  *uuid.UUID `json:"projectId,omitempty"`
	EmployeeID *uuid.UUID `json:"employeeId,omitempty"`
	AccountID  *uuid.UUID `json:"accountId,omitempty"`
}

// LedgerEntry is one recorded financial event.
type LedgerEntry struct {
	ID          uuid.UUID       `json:"id"`
	RecordType  RecordType      `json:"recordType"`
	Direction   Direction       `json:"direction,omitempty"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	OccurredAt  time.Time       `json:"occurredAt"`
	Status      EntryStatus     `json:"status"`
	Refs        References      `json:"refs"`
	CreatedBy   Actor           `json:"createdBy"`
	Source      Source          `json:"-"`
	Metadata    map[string]any  `json:"metadata"`
	Description string          `json:"description,omitempty"`

	// Budget rows only.
	BudgetSpent     decimal.Decimal `json:"budgetSpent"`
	BudgetRemaining decimal.Decimal `json:"budgetRemaining"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SourceKey returns the entry's source key when it mirrors another event.
func (e LedgerEntry) SourceKey() (SourceKey, bool) {
	if e.Source == nil {
		return SourceKey{}, false
	}

	return KeyOf(e.Source), true
}

// SourceType returns the entry's source type, or "" when untagged.
func (e LedgerEntry) SourceType() SourceType {
	if e.Source == nil {
		return ""
	}

	return e.Source.Type()
}

// Frequency is how often a recurring expense falls due.
type Frequency string

// Frequency values.
const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// DefinitionStatus is the state of a recurring expense definition.
type DefinitionStatus string

// DefinitionStatus values.
const (
	DefinitionActive   DefinitionStatus = "active"
	DefinitionInactive DefinitionStatus = "inactive"
	DefinitionPaused   DefinitionStatus = "paused"
)

// Valid reports whether s is a known definition status.
func (s DefinitionStatus) Valid() bool {
	switch s {
	case DefinitionActive, DefinitionInactive, DefinitionPaused:
		return true
	default:
		return false
	}
}

// RecurringExpense is a recurring vendor cost definition.
type RecurringExpense struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Amount       decimal.Decimal  `json:"amount"`
	Frequency    Frequency        `json:"frequency"`
	StartDate    time.Time        `json:"startDate"`
	EndDate      *time.Time       `json:"endDate,omitempty"`
	Status       DefinitionStatus `json:"status"`
	DayOfMonth   int              `json:"dayOfMonth"`
	NextDueDate  *time.Time       `json:"nextDueDate,omitempty"`
	LastPaidDate *time.Time       `json:"lastPaidDate,omitempty"`
	AutoPay      bool             `json:"autoPay"`
	AccountID    *uuid.UUID       `json:"accountId,omitempty"`
	Description  string           `json:"description,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// ExpenseEntryStatus is the state of one obligation.
type ExpenseEntryStatus string

// ExpenseEntryStatus values.
const (
	EntryPending ExpenseEntryStatus = "pending"
	EntryOverdue ExpenseEntryStatus = "overdue"
	EntryPaid    ExpenseEntryStatus = "paid"
	EntrySkipped ExpenseEntryStatus = "skipped"
)

// ExpenseEntry is one period's obligation of a recurring expense.
type ExpenseEntry struct {
	ID           uuid.UUID          `json:"id"`
	DefinitionID uuid.UUID          `json:"definitionId"`
	Period       string             `json:"period"`
	Amount       decimal.Decimal    `json:"amount"`
	DueDate      time.Time          `json:"dueDate"`
	Status       ExpenseEntryStatus `json:"status"`
	PaidDate     *time.Time         `json:"paidDate,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
}

// IsUnpaid reports whether the entry is still owed.
func (e ExpenseEntry) IsUnpaid() bool {
	return e.Status == EntryPending || e.Status == EntryOverdue
}

// EffectiveStatus derives overdue from the due date. A stored overdue
// status is reported as overdue regardless of now.
func (e ExpenseEntry) EffectiveStatus(now time.Time) ExpenseEntryStatus {
	if e.Status == EntryPending && CivilDate(e.DueDate).Before(Today(now)) {
		return EntryOverdue
	}

	return e.Status
}

// PaidExpense is a paid entry joined with its definition's category.
type PaidExpense struct {
	Entry    ExpenseEntry
	Category string
}

// InstallmentStatus is the state of one installment in a project plan.
type InstallmentStatus string

// InstallmentStatus values.
const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
)

// Installment is one row of a project's installment plan.
type Installment struct {
	Position int               `json:"position"`
	Amount   decimal.Decimal   `json:"amount"`
	Status   InstallmentStatus `json:"status"`
	PaidDate *time.Time        `json:"paidDate,omitempty"`
}

// Project exposes the financial details the aggregator reconciles.
type Project struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	ClientID        *uuid.UUID      `json:"clientId,omitempty"`
	TotalCost       decimal.Decimal `json:"totalCost"`
	AdvanceReceived decimal.Decimal `json:"advanceReceived"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	ConvertedAt     *time.Time      `json:"convertedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	Installments    []Installment   `json:"installmentPlan"`
}

// ReceiptStatus is the approval state of a payment receipt.
type ReceiptStatus string

// ReceiptStatus values.
const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptApproved ReceiptStatus = "approved"
	ReceiptRejected ReceiptStatus = "rejected"
)

// PaymentReceipt is client-submitted evidence of a payment toward a project.
type PaymentReceipt struct {
	ID         uuid.UUID       `json:"id"`
	ProjectID  uuid.UUID       `json:"projectId"`
	Amount     decimal.Decimal `json:"amount"`
	Status     ReceiptStatus   `json:"status"`
	VerifiedAt *time.Time      `json:"verifiedAt,omitempty"`
}

// PaymentStatus is the state of a client payment.
type PaymentStatus string

// PaymentStatus values.
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is a client payment processed outside the project plan.
type Payment struct {
	ID        uuid.UUID       `json:"id"`
	ProjectID *uuid.UUID      `json:"projectId,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Status    PaymentStatus   `json:"status"`
	PaidAt    *time.Time      `json:"paidAt,omitempty"`
}

// IncentiveRecord splits an incentive award into payable and pending parts.
type IncentiveRecord struct {
	ID             uuid.UUID       `json:"id"`
	EmployeeID     uuid.UUID       `json:"employeeId"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	PendingBalance decimal.Decimal `json:"pendingBalance"`
}
