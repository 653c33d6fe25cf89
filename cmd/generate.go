/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/bookkeeper/finance"
)

const maxHorizonMonths = 120

var CmdGenerate = &cli.Command{
	Name:  "generate",
	Usage: "Generate recurring expense entries for every active definition",
	Flags: append(financeFlags(),
		&cli.IntFlag{
			Name:  "horizon-months",
			Value: 0,
			Usage: "generate entries due up to this many months from today",
		},
	),
	Action: runGenerate,
}

// generateTotals sums GenerateEntries over all definitions.
type generateTotals struct {
	Definitions int
	Created     int
	Skipped     int
	Failed      int
	Overdue     int
}

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	months := int(cmd.Int("horizon-months"))
	if months < 0 || months > maxHorizonMonths {
		return errInvalidHorizon
	}

	cfg, err := financeConfigFromCommand(cmd)
	if err != nil {
		return err
	}

	stack, closeFinance, err := openFinance(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFinance()

	horizon := finance.Today(time.Now()).AddDate(0, months, 0)

	totals, err := generateAll(ctx, stack.api.Definitions, stack.api.Generator, horizon)
	if err != nil {
		return err
	}

	printGenerateTotals(cmd.Root().Writer, horizon, totals)

	return nil
}

// generateAll expands every active definition up to horizon and refreshes
// overdue entries. A failing definition is logged and counted.
func generateAll(ctx context.Context, store finance.RecurringStore, generator *finance.Generator, horizon time.Time) (generateTotals, error) {
	var totals generateTotals

	defs, err := store.ListDefinitions(ctx, finance.DefinitionFilter{Status: finance.DefinitionActive})
	if err != nil {
		return totals, fmt.Errorf("failed to list definitions: %w", err)
	}

	for i := range defs {
		totals.Definitions++

		result, err := generator.GenerateEntries(ctx, &defs[i], horizon)
		if err != nil {
			appLogger.Error("Failed to generate entries",
				"definition_id", defs[i].ID, "name", defs[i].Name, "error", err)

			totals.Failed++

			continue
		}

		totals.Created += result.Created
		totals.Skipped += result.Skipped
	}

	overdue, err := generator.RefreshOverdue(ctx)
	if err != nil {
		return totals, err
	}

	totals.Overdue = overdue

	return totals, nil
}

func printGenerateTotals(w io.Writer, horizon time.Time, totals generateTotals) {
	fmt.Fprintf(w, "Generated through %s: %d definitions, %d created, %d skipped, %d failed, %d overdue\n",
		horizon.Format(time.DateOnly), totals.Definitions, totals.Created, totals.Skipped, totals.Failed, totals.Overdue)
}
