/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/humaidq/bookkeeper/db"
	"github.com/humaidq/bookkeeper/events"
	"github.com/humaidq/bookkeeper/finance"
	"github.com/humaidq/bookkeeper/routes"
)

// financeStore is the storage every finance service runs on.
type financeStore interface {
	routes.DefinitionStore
	finance.LedgerStore
	finance.SourceStore
	finance.RunClaimer
}

var _ financeStore = db.Store{}

// financeStack holds the wired finance services of one process.
type financeStack struct {
	api       *routes.Finance
	scheduler *finance.AutoPayScheduler
	publisher *events.Publisher
}

func newFinanceStack(cfg financeConfig, store financeStore, now func() time.Time) (*financeStack, error) {
	stack := &financeStack{}

	var opts []finance.RecorderOption

	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to configure event publisher: %w", err)
		}

		stack.publisher = publisher
		opts = append(opts, finance.WithPublisher(publisher))
	} else {
		appLogger.Info("No Kafka brokers configured, ledger events will not be published")
	}

	if now != nil {
		opts = append(opts, finance.WithRecorderClock(now))
	}

	recorder := finance.NewRecorder(store, opts...)
	generator := finance.NewGenerator(store, now)
	settler := finance.NewSettler(store, recorder, generator, now)

	stack.api = &routes.Finance{
		Recorder:    recorder,
		Generator:   generator,
		Settler:     settler,
		Aggregator:  finance.NewAggregator(store, store, store),
		Definitions: store,
		Now:         now,
	}
	stack.scheduler = finance.NewAutoPayScheduler(store, store, generator, settler, now)

	return stack, nil
}

func (s *financeStack) Close() {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Close(); err != nil {
		appLogger.Warn("Failed to close event publisher", "error", err)
	}
}

// openFinance connects to the database, applies migrations and wires the
// finance services. The returned close function releases both.
func openFinance(ctx context.Context, cfg financeConfig) (*financeStack, func(), error) {
	appLogger.Info("Connecting to database")

	if err := db.Init(ctx, cfg.DatabaseURL); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Syncing database schema")

	if err := db.SyncSchema(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to sync schema: %w", err)
	}

	stack, err := newFinanceStack(cfg, db.Store{}, nil)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return stack, func() {
		stack.Close()
		db.Close()
	}, nil
}
