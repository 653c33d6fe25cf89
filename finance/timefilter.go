/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package finance

import (
	"fmt"
	"strings"
	"time"
)

// TimeFilter bounds statistics to [From, To). Nil bounds are open.
type TimeFilter struct {
	Preset string     `json:"preset"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls inside the filter.
func (f TimeFilter) Contains(t time.Time) bool {
	if f.From != nil && t.Before(*f.From) {
		return false
	}

	if f.To != nil && !t.Before(*f.To) {
		return false
	}

	return true
}

// ContainsPtr is Contains for optional timestamps. A missing timestamp only
// matches an unbounded filter.
func (f TimeFilter) ContainsPtr(t *time.Time) bool {
	if t == nil {
		return f.From == nil && f.To == nil
	}

	return f.Contains(*t)
}

// ParseTimeFilter builds a filter from a preset name. Custom filters take
// YYYY-MM-DD bounds where to is inclusive.
func ParseTimeFilter(preset, from, to string, now time.Time) (TimeFilter, error) {
	preset = strings.ToLower(strings.TrimSpace(preset))
	if preset == "" {
		preset = "all"
	}

	local := now.In(time.Local)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)

	bounded := func(start, end time.Time) TimeFilter {
		return TimeFilter{Preset: preset, From: &start, To: &end}
	}

	switch preset {
	case "all":
		return TimeFilter{Preset: preset}, nil
	case "today":
		return bounded(day, day.AddDate(0, 0, 1)), nil
	case "week":
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)

		return bounded(start, start.AddDate(0, 0, 7)), nil
	case "month":
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.Local)

		return bounded(start, start.AddDate(0, 1, 0)), nil
	case "quarter":
		firstMonth := time.Month((int(day.Month())-1)/3*3 + 1)
		start := time.Date(day.Year(), firstMonth, 1, 0, 0, 0, 0, time.Local)

		return bounded(start, start.AddDate(0, 3, 0)), nil
	case "year":
		start := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.Local)

		return bounded(start, start.AddDate(1, 0, 0)), nil
	case "custom":
		filter := TimeFilter{Preset: preset}

		if strings.TrimSpace(from) != "" {
			start, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(from), time.Local)
			if err != nil {
				return TimeFilter{}, invalid("from", "must be YYYY-MM-DD")
			}

			filter.From = &start
		}

		if strings.TrimSpace(to) != "" {
			end, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(to), time.Local)
			if err != nil {
				return TimeFilter{}, invalid("to", "must be YYYY-MM-DD")
			}

			end = end.AddDate(0, 0, 1)
			filter.To = &end
		}

		if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
			return TimeFilter{}, invalid("to", "must not be before from")
		}

		return filter, nil
	default:
		return TimeFilter{}, invalid("period", fmt.Sprintf("%v: %q", errUnknownTimeFilter, preset))
	}
}
