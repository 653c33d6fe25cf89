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

	"github.com/jackc/pgx/v5"
)

// ClaimSchedulerRun advances job's watermark to day. It returns false when
// another run already claimed day or a later one.
func ClaimSchedulerRun(ctx context.Context, job string, day time.Time) (bool, error) {
	if pool == nil {
		return false, ErrDatabaseConnectionNotInitialized
	}

	var claimed time.Time

	err := pool.QueryRow(ctx, `
		INSERT INTO scheduler_runs (job, last_run_date, claimed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (job) DO UPDATE
			SET last_run_date = EXCLUDED.last_run_date, claimed_at = NOW()
			WHERE scheduler_runs.last_run_date < EXCLUDED.last_run_date
		RETURNING last_run_date
	`, job, day).Scan(&claimed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to claim scheduler run: %w", err)
	}

	return true, nil
}
