/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"fmt"
	"time"
)

// ParseFrequency validates a frequency string.
func ParseFrequency(raw string) (Frequency, error) {
	switch f := Frequency(raw); f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownFrequency, raw)
	}
}

// Months returns the number of calendar months in one step of f.
func (f Frequency) Months() int {
	switch f {
	case FrequencyQuarterly:
		return 3
	case FrequencyYearly:
		return 12
	default:
		return 1
	}
}

// CivilDate truncates t to its calendar date, expressed as midnight UTC.
// Due dates and paid dates are compared as civil dates.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the civil date of now in the local time zone.
func Today(now time.Time) time.Time {
	return CivilDate(now.In(time.Local))
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns the civil date for day in year/month, clamped to the
// month's length.
func ClampDay(year int, month time.Month, day int) time.Time {
	if day < 1 {
		day = 1
	}

	if last := DaysIn(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// PeriodKey returns the canonical period string of t for f:
// YYYY-MM, YYYY-Qn or YYYY.
func PeriodKey(f Frequency, t time.Time) string {
	switch f {
	case FrequencyQuarterly:
		return fmt.Sprintf("%04d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	case FrequencyYearly:
		return fmt.Sprintf("%04d", t.Year())
	default:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	}
}

// DueDateAt returns the due date of the step-th period after start.
// Step 0 is the period containing start.
func DueDateAt(f Frequency, start time.Time, dayOfMonth int, step int) time.Time {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	month := first.AddDate(0, step*f.Months(), 0)

	return ClampDay(month.Year(), month.Month(), dayOfMonth)
}

// StepAfter returns the due date one frequency step after due.
func StepAfter(f Frequency, due time.Time, dayOfMonth int) time.Time {
	return DueDateAt(f, due, dayOfMonth, 1)
}

// NextDueDate applies the two-tier rule: the earliest unpaid entry wins,
// otherwise project one step past the latest entry, or past start when no
// entries exist.
func NextDueDate(def RecurringExpense, entries []ExpenseEntry) time.Time {
	var (
		earliestUnpaid *time.Time
		latest         *time.Time
	)

	for i := range entries {
		due := CivilDate(entries[i].DueDate)

		if entries[i].IsUnpaid() && (earliestUnpaid == nil || due.Before(*earliestUnpaid)) {
			earliestUnpaid = &due
		}

		if latest == nil || due.After(*latest) {
			latest = &due
		}
	}

	switch {
	case earliestUnpaid != nil:
		return *earliestUnpaid
	case latest != nil:
		return StepAfter(def.Frequency, *latest, def.DayOfMonth)
	default:
		return StepAfter(def.Frequency, CivilDate(def.StartDate), def.DayOfMonth)
	}
}
