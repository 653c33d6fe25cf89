/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package events publishes ledger events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/humaidq/bookkeeper/finance"
	"github.com/humaidq/bookkeeper/logging"
)

// DefaultTopic is the topic ledger events are written to when none is configured.
const DefaultTopic = "ledger_entries"

// ErrNoBrokers is returned when a publisher is built without brokers.
var ErrNoBrokers = errors.New("no kafka brokers configured")

var logger = logging.Logger(logging.SourceEvents)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes finance.LedgerEvent values as JSON Kafka messages keyed
// by source key, so events of one business event stay on one partition.
type Publisher struct {
	writer messageWriter
	topic  string
}

var _ finance.EventPublisher = (*Publisher)(nil)

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(raw string) []string {
	var brokers []string

	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return brokers
}

// NewPublisher returns a publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}

	logger.Info("Kafka publisher configured", "brokers", strings.Join(brokers, ","), "topic", topic)

	return &Publisher{writer: writer, topic: topic}, nil
}

// Publish writes one event.
func (p *Publisher) Publish(ctx context.Context, event finance.LedgerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode ledger event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(messageKey(event)),
		Value: data,
		Time:  event.EmittedAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write ledger event to %s: %w", p.topic, err)
	}

	logger.Debug("Published ledger event", "kind", event.Kind, "entry_id", event.EntryID)

	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}

	return nil
}

func messageKey(event finance.LedgerEvent) string {
	if event.SourceType != "" {
		return finance.SourceKey{Type: event.SourceType, ID: event.SourceID}.String()
	}

	return event.EntryID.String()
}
