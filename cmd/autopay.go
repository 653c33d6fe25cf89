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

var CmdAutoPay = &cli.Command{
	Name:   "autopay",
	Usage:  "Run today's auto-pay pass once and exit",
	Flags:  financeFlags(),
	Action: runAutoPay,
}

func runAutoPay(ctx context.Context, cmd *cli.Command) error {
	cfg, err := financeConfigFromCommand(cmd)
	if err != nil {
		return err
	}

	stack, closeFinance, err := openFinance(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFinance()

	report, err := stack.scheduler.Run(ctx)
	if err != nil {
		return fmt.Errorf("auto-pay run failed: %w", err)
	}

	printRunReport(cmd.Root().Writer, report)

	return nil
}

func printRunReport(w io.Writer, report finance.RunReport) {
	day := report.Day.Format(time.DateOnly)

	if !report.Claimed {
		fmt.Fprintf(w, "Auto-pay for %s already ran\n", day)
		return
	}

	fmt.Fprintf(w, "Auto-pay for %s: %d created, %d skipped, %d overdue, %d paid, %d errors\n",
		day, report.Created, report.Skipped, report.Overdue, report.Paid, report.Errors)
}
