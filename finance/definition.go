/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefinitionInput is the editable part of a recurring expense definition.
type DefinitionInput struct {
	Name        string              `json:"name"`
	Category    string              `json:"category"`
	Amount      decimal.NullDecimal `json:"amount"`
	Frequency   Frequency           `json:"frequency"`
	StartDate   time.Time           `json:"startDate"`
	EndDate     *time.Time          `json:"endDate,omitempty"`
	Status      DefinitionStatus    `json:"status"`
	DayOfMonth  int                 `json:"dayOfMonth"`
	AutoPay     bool                `json:"autoPay"`
	AccountID   *uuid.UUID          `json:"accountId,omitempty"`
	Description string              `json:"description,omitempty"`
}

// ValidateDefinition checks in and returns the normalized definition.
// A missing status defaults to active and a missing day of month defaults
// to the start date's day.
func ValidateDefinition(in DefinitionInput) (RecurringExpense, error) {
	def := RecurringExpense{
		Name:        strings.TrimSpace(in.Name),
		Category:    strings.TrimSpace(in.Category),
		Frequency:   in.Frequency,
		Status:      in.Status,
		DayOfMonth:  in.DayOfMonth,
		AutoPay:     in.AutoPay,
		AccountID:   in.AccountID,
		Description: strings.TrimSpace(in.Description),
	}

	if def.Name == "" {
		return def, invalid("name", "is required")
	}

	if def.Category == "" {
		return def, invalid("category", "is required")
	}

	if !in.Amount.Valid || !in.Amount.Decimal.IsPositive() {
		return def, invalid("amount", "must be greater than zero")
	}

	def.Amount = in.Amount.Decimal

	if _, err := ParseFrequency(string(in.Frequency)); err != nil {
		return def, invalid("frequency", "must be monthly, quarterly or yearly")
	}

	if in.StartDate.IsZero() {
		return def, invalid("startDate", "is required")
	}

	def.StartDate = CivilDate(in.StartDate)

	if in.EndDate != nil {
		end := CivilDate(*in.EndDate)
		if end.Before(def.StartDate) {
			return def, invalid("endDate", "must not be before the start date")
		}

		def.EndDate = &end
	}

	if def.Status == "" {
		def.Status = DefinitionActive
	}

	if !def.Status.Valid() {
		return def, invalid("status", "must be active, inactive or paused")
	}

	if def.DayOfMonth == 0 {
		def.DayOfMonth = def.StartDate.Day()
	}

	if def.DayOfMonth < 1 || def.DayOfMonth > 31 {
		return def, invalid("dayOfMonth", "must be between 1 and 31")
	}

	return def, nil
}
