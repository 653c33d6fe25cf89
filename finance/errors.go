/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every ValidationError through errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a referenced definition, entry or ledger row is absent.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateSource is returned by stores when an active entry already holds the source key.
	ErrDuplicateSource = errors.New("active ledger entry already exists for source")

	errUnknownSourceType = errors.New("unknown source type")
	errUnknownFrequency  = errors.New("unknown frequency")
	errUnknownCancelMode = errors.New("unknown cancel mode")
	errUnknownTimeFilter = errors.New("unknown time filter")
	errEntryAlreadyPaid  = errors.New("expense entry is already paid")
	errEntrySkipped      = errors.New("expense entry was skipped")
)

// ValidationError reports a missing or invalid input field. Nothing is written
// when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
