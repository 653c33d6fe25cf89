/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/humaidq/bookkeeper/finance"
)

// CreateProjectInput represents input for creating a project with its
// installment plan.
type CreateProjectInput struct {
	Name            string
	ClientID        *uuid.UUID
	TotalCost       decimal.Decimal
	AdvanceReceived decimal.Decimal
	ConvertedAt     *time.Time
	Installments    []decimal.Decimal
}

// CreateProject stores a project and its pending installments.
func CreateProject(ctx context.Context, input CreateProjectInput) (uuid.UUID, error) {
	if pool == nil {
		return uuid.UUID{}, ErrDatabaseConnectionNotInitialized
	}

	if input.Name == "" {
		return uuid.UUID{}, &finance.ValidationError{Field: "name", Message: "is required"}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to rollback project creation", "error", err)
		}
	}()

	remaining := decimal.Max(decimal.Zero, input.TotalCost.Sub(input.AdvanceReceived))

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `
		INSERT INTO projects (name, client_id, total_cost, advance_received, remaining_amount, converted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, input.Name, input.ClientID, input.TotalCost, input.AdvanceReceived, remaining, input.ConvertedAt).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create project: %w", err)
	}

	for i, amount := range input.Installments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO project_installments (project_id, position, amount)
			VALUES ($1, $2, $3)
		`, id, i, amount); err != nil {
			return uuid.UUID{}, fmt.Errorf("failed to create installment %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// MarkInstallmentPaid marks one installment of a project's plan as paid.
func MarkInstallmentPaid(ctx context.Context, projectID uuid.UUID, position int, paidAt time.Time) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx, `
		UPDATE project_installments
		SET status = 'paid', paid_date = $1
		WHERE project_id = $2 AND position = $3
	`, paidAt, projectID, position)
	if err != nil {
		return fmt.Errorf("failed to mark installment paid: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("installment %s:%d: %w", projectID, position, finance.ErrNotFound)
	}

	return nil
}

// ListProjects returns every project with its installment plan.
func ListProjects(ctx context.Context) ([]finance.Project, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT id, name, client_id, total_cost, advance_received, remaining_amount,
			converted_at, created_at
		FROM projects
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []finance.Project
	index := map[uuid.UUID]int{}

	for rows.Next() {
		var p finance.Project
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.ClientID,
			&p.TotalCost,
			&p.AdvanceReceived,
			&p.RemainingAmount,
			&p.ConvertedAt,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}

		index[p.ID] = len(projects)
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	rows.Close()

	instRows, err := pool.Query(ctx, `
		SELECT project_id, position, amount, status, paid_date
		FROM project_installments
		ORDER BY project_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments: %w", err)
	}
	defer instRows.Close()

	for instRows.Next() {
		var (
			projectID uuid.UUID
			inst      finance.Installment
		)

		if err := instRows.Scan(&projectID, &inst.Position, &inst.Amount, &inst.Status, &inst.PaidDate); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}

		if i, ok := index[projectID]; ok {
			projects[i].Installments = append(projects[i].Installments, inst)
		}
	}

	if err := instRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating installments: %w", err)
	}

	return projects, nil
}

// UpdateProjectFinancials stores reconciled totals on a project.
func UpdateProjectFinancials(ctx context.Context, id uuid.UUID, advanceReceived, remaining decimal.Decimal) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx, `
		UPDATE projects
		SET advance_received = $1, remaining_amount = $2, updated_at = NOW()
		WHERE id = $3 AND (advance_received <> $1 OR remaining_amount <> $2)
	`, advanceReceived, remaining, id)
	if err != nil {
		return fmt.Errorf("failed to update project financials: %w", err)
	}

	if result.RowsAffected() == 0 {
		logger.Debug("Project financials already up to date", "project_id", id)
	}

	return nil
}

// CreatePaymentReceipt stores a pending receipt for a project.
func CreatePaymentReceipt(ctx context.Context, projectID uuid.UUID, amount decimal.Decimal) (uuid.UUID, error) {
	if pool == nil {
		return uuid.UUID{}, ErrDatabaseConnectionNotInitialized
	}

	var id uuid.UUID
	if err := pool.QueryRow(ctx, `
		INSERT INTO payment_receipts (project_id, amount)
		VALUES ($1, $2)
		RETURNING id
	`, projectID, amount).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create payment receipt: %w", err)
	}

	return id, nil
}

// ApprovePaymentReceipt marks a receipt approved at verifiedAt.
func ApprovePaymentReceipt(ctx context.Context, id uuid.UUID, verifiedAt time.Time) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	result, err := pool.Exec(ctx, `
		UPDATE payment_receipts SET status = 'approved', verified_at = $1 WHERE id = $2
	`, verifiedAt, id)
	if err != nil {
		return fmt.Errorf("failed to approve payment receipt: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("payment receipt %s: %w", id, finance.ErrNotFound)
	}

	return nil
}

// ListApprovedReceipts returns every approved receipt.
func ListApprovedReceipts(ctx context.Context) ([]finance.PaymentReceipt, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT id, project_id, amount, status, verified_at
		FROM payment_receipts
		WHERE status = 'approved'
		ORDER BY verified_at ASC NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment receipts: %w", err)
	}
	defer rows.Close()

	var receipts []finance.PaymentReceipt

	for rows.Next() {
		var r finance.PaymentReceipt
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Amount, &r.Status, &r.VerifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment receipt: %w", err)
		}

		receipts = append(receipts, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment receipts: %w", err)
	}

	return receipts, nil
}

// CreatePaymentInput represents input for recording a client payment.
type CreatePaymentInput struct {
	ProjectID *uuid.UUID
	Amount    decimal.Decimal
	Status    finance.PaymentStatus
	PaidAt    *time.Time
}

// CreatePayment stores a client payment.
func CreatePayment(ctx context.Context, input CreatePaymentInput) (uuid.UUID, error) {
	if pool == nil {
		return uuid.UUID{}, ErrDatabaseConnectionNotInitialized
	}

	if input.Status == "" {
		input.Status = finance.PaymentPending
	}

	var id uuid.UUID
	if err := pool.QueryRow(ctx, `
		INSERT INTO payments (project_id, amount, status, paid_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, input.ProjectID, input.Amount, input.Status, input.PaidAt).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create payment: %w", err)
	}

	return id, nil
}

// ListCompletedPayments returns completed payments paid inside [from, to).
func ListCompletedPayments(ctx context.Context, from, to *time.Time) ([]finance.Payment, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT id, project_id, amount, status, paid_at
		FROM payments
		WHERE status = 'completed'
			AND ($1::timestamptz IS NULL OR paid_at >= $1)
			AND ($2::timestamptz IS NULL OR paid_at < $2)
		ORDER BY paid_at ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []finance.Payment

	for rows.Next() {
		var p finance.Payment
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Amount, &p.Status, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

// CreateIncentiveRecord stores an incentive award split.
func CreateIncentiveRecord(ctx context.Context, employeeID uuid.UUID, current, pending decimal.Decimal) (uuid.UUID, error) {
	if pool == nil {
		return uuid.UUID{}, ErrDatabaseConnectionNotInitialized
	}

	var id uuid.UUID
	if err := pool.QueryRow(ctx, `
		INSERT INTO incentive_records (employee_id, current_balance, pending_balance)
		VALUES ($1, $2, $3)
		RETURNING id
	`, employeeID, current, pending).Scan(&id); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create incentive record: %w", err)
	}

	return id, nil
}

// ListIncentiveRecords returns every incentive record.
func ListIncentiveRecords(ctx context.Context) ([]finance.IncentiveRecord, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT id, employee_id, current_balance, pending_balance
		FROM incentive_records
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query incentive records: %w", err)
	}
	defer rows.Close()

	var records []finance.IncentiveRecord

	for rows.Next() {
		var r finance.IncentiveRecord
		if err := rows.Scan(&r.ID, &r.EmployeeID, &r.CurrentBalance, &r.PendingBalance); err != nil {
			return nil, fmt.Errorf("failed to scan incentive record: %w", err)
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating incentive records: %w", err)
	}

	return records, nil
}
