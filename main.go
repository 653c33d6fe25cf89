/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/bookkeeper/cmd"
)

func main() {
	envFile := os.Getenv("BOOKKEEPER_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}

	if err := cmd.LoadEnvFile(envFile); err != nil {
		log.Fatal(err)
	}

	app := &cli.Command{
		Name:  "bookkeeper",
		Usage: "Bookkeeper - Business finance ledger",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdAutoPay,
			cmd.CmdGenerate,
			cmd.CmdMigrate,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
