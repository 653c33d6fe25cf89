/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/bookkeeper/finance"
)

// DefinitionStore is the recurring expense storage the API manages directly.
type DefinitionStore interface {
	finance.RecurringStore
	CreateDefinition(ctx context.Context, input finance.DefinitionInput) (*finance.RecurringExpense, error)
	UpdateDefinition(ctx context.Context, id uuid.UUID, input finance.DefinitionInput) (*finance.RecurringExpense, error)
	DeleteDefinition(ctx context.Context, id uuid.UUID) error
}

// Finance bundles the services behind the finance API.
type Finance struct {
	Recorder    *finance.Recorder
	Generator   *finance.Generator
	Settler     *finance.Settler
	Aggregator  *finance.Aggregator
	Definitions DefinitionStore
	Now         func() time.Time
}

func (s *Finance) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}

	return s.Now()
}

// Register mounts the finance API under /api/finance.
func Register(f *flamego.Flame) {
	f.Group("/api/finance", func() {
		f.Get("/statistics", Statistics)

		f.Post("/transactions", RecordTransaction)
		f.Post("/budgets", CreateBudget)
		f.Post("/budgets/{id}/spend", RecordBudgetSpend)
		f.Post("/sources/{type}/{id}/cancel", CancelSource)

		f.Get("/recurring", ListRecurring)
		f.Post("/recurring", CreateRecurring)
		f.Get("/recurring/{id}", GetRecurring)
		f.Put("/recurring/{id}", UpdateRecurring)
		f.Delete("/recurring/{id}", DeleteRecurring)
		f.Post("/recurring/{id}/generate", GenerateRecurring)
		f.Get("/recurring/{id}/entries", ListRecurringEntries)

		f.Post("/expense-entries/{id}/pay", PayExpenseEntry)
		f.Post("/expense-entries/{id}/skip", SkipExpenseEntry)
	}, NoCacheHeaders())
}

// Statistics reports the dashboard totals for ?period=&from=&to=.
func Statistics(c flamego.Context, svc *Finance) {
	filter, err := finance.ParseTimeFilter(c.Query("period"), c.Query("from"), c.Query("to"), svc.now())
	if err != nil {
		writeError(c, err)
		return
	}

	stats, err := svc.Aggregator.ComputeStatistics(c.Request().Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, stats)
}

type transactionRequest struct {
	RecordType  finance.RecordType  `json:"recordType"`
	Direction   finance.Direction   `json:"direction"`
	Amount      decimal.NullDecimal `json:"amount"`
	Category    string              `json:"category"`
	OccurredAt  *time.Time          `json:"occurredAt"`
	Status      finance.EntryStatus `json:"status"`
	Refs        finance.References  `json:"refs"`
	Description string              `json:"description"`
	Metadata    map[string]any      `json:"metadata"`
}

// RecordTransaction records an admin-entered transaction, expense or invoice.
func RecordTransaction(c flamego.Context, svc *Finance) {
	actor, err := requestActor(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(c, &req); err != nil {
		writeBadRequest(c, err)
		return
	}

	recordType := req.RecordType
	if recordType == "" {
		recordType = finance.RecordTransaction
	}

	occurredAt := svc.now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	entry, err := svc.Recorder.RecordManual(c.Request().Context(), finance.ManualInput{
		RecordType:  recordType,
		Direction:   req.Direction,
		Amount:      req.Amount,
		Category:    req.Category,
		OccurredAt:  occurredAt,
		Actor:       actor,
		Status:      req.Status,
		Refs:        req.Refs,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, entry)
}

type budgetRequest struct {
	Category    string              `json:"category"`
	Amount      decimal.NullDecimal `json:"amount"`
	PeriodStart *time.Time          `json:"periodStart"`
	Description string              `json:"description"`
}

// CreateBudget records a budget line.
func CreateBudget(c flamego.Context, svc *Finance) {
	actor, err := requestActor(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	var req budgetRequest
	if err := decodeBody(c, &req); err != nil {
		writeBadRequest(c, err)
		return
	}

	periodStart := finance.Today(svc.now())
	if req.PeriodStart != nil {
		periodStart = finance.CivilDate(*req.PeriodStart)
	}

	budget, err := svc.Recorder.CreateBudget(c.Request().Context(), finance.BudgetInput{
		Category:    req.Category,
		Amount:      req.Amount,
		PeriodStart: periodStart,
		Actor:       actor,
		Description: req.Description,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, budget)
}

type spendRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// RecordBudgetSpend adds to a budget's spent total.
func RecordBudgetSpend(c flamego.Context, svc *Finance) {
	id, err := paramUUID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	var req spendRequest
	if err := decodeBody(c, &req); err != nil {
		writeBadRequest(c, err)
		return
	}

	budget, err := svc.Recorder.RecordBudgetSpend(c.Request().Context(), id, req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, budget)
}

type cancelResponse struct {
	Changed bool                 `json:"changed"`
	Entry   *finance.LedgerEntry `json:"entry,omitempty"`
}

// CancelSource reverses the ledger entry mirroring a source event.
// ?mode=delete removes it instead of flagging it cancelled.
func CancelSource(c flamego.Context, svc *Finance) {
	sourceType, err := finance.ParseSourceType(c.Param("type"))
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	mode := finance.CancelMode(strings.TrimSpace(c.Query("mode")))
	if mode == "" {
		mode = finance.CancelSoft
	}

	key := finance.SourceKey{Type: sourceType, ID: strings.TrimSpace(c.Param("id"))}

	entry, err := svc.Recorder.CancelForSource(c.Request().Context(), key, mode)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, cancelResponse{Changed: entry != nil, Entry: entry})
}

// ListRecurring lists definitions, optionally by ?status= and ?autoPay=true.
func ListRecurring(c flamego.Context, svc *Finance) {
	var filter finance.DefinitionFilter

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		filter.Status = finance.DefinitionStatus(raw)
		if !filter.Status.Valid() {
			writeBadRequest(c, errInvalidStatusFlag)
			return
		}
	}

	if raw := strings.TrimSpace(c.Query("autoPay")); raw != "" {
		autoPay, err := strconv.ParseBool(raw)
		if err != nil {
			writeBadRequest(c, errInvalidBody)
			return
		}

		filter.AutoPayOnly = autoPay
	}

	defs, err := svc.Definitions.ListDefinitions(c.Request().Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	if defs == nil {
		defs = []finance.RecurringExpense{}
	}

	writeJSON(c, http.StatusOK, defs)
}

// CreateRecurring stores a definition and sets its first next due date.
func CreateRecurring(c flamego.Context, svc *Finance) {
	var input finance.DefinitionInput
	if err := decodeBody(c, &input); err != nil {
		writeBadRequest(c, err)
		return
	}

	ctx := c.Request().Context()

	def, err := svc.Definitions.CreateDefinition(ctx, input)
	if err != nil {
		writeError(c, err)
		return
	}

	if _, err := svc.Generator.RecomputeNextDue(ctx, def); err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, def)
}

// GetRecurring returns one definition.
func GetRecurring(c flamego.Context, svc *Finance) {
	id, err := paramUUID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	def, err := svc.Definitions.GetDefinition(c.Request().Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, def)
}

// UpdateRecurring replaces a definition's fields and recomputes its schedule.
func UpdateRecurring(c flamego.Context, svc *Finance) {
	id, err := paramUUID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	var input finance.DefinitionInput
	if err := decodeBody(c, &input); err != nil {
		writeBadRequest(c, err)
		return
	}

	ctx := c.Request().Context()

	def, err := svc.Definitions.UpdateDefinition(ctx, id, input)
	if err != nil {
		writeError(c, err)
		return
	}

	if _, err := svc.Generator.RecomputeNextDue(ctx, def); err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, def)
}

// DeleteRecurring removes a definition and its entries.
func DeleteRecurring(c flamego.Context, svc *Finance) {
	id, err := paramUUID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	if err := svc.Definitions.DeleteDefinition(c.Request().Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.ResponseWriter().WriteHeader(http.StatusNoContent)
}

// GenerateRecurring expands a definition up to ?horizon=YYYY-MM-DD, which
// defaults to today.
func GenerateRecurring(c flamego.Context, svc *Finance) {
	id, err := paramUUID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	horizon := finance.Today(svc.now())

	if raw := strings.TrimSpace(c.Query("horizon")); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			writeBadRequest(c, errInvalidHorizon)
			return
		}

		horizon = parsed
	}

	ctx := c.Request().Context()

	def, err := svc.Definitions.GetDefinition(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := svc.Generator.GenerateEntries(ctx, def, horizon)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, struct {
		finance.GenerateResult
		Definition *finance.RecurringExpense `json:"definition"`
	}{result, def})
}

// ListRecurringEntries lists a definition's entries with overdue status derived.
func ListRecurringEntries(c flamego.Context, svc *Finance) {
	id, err := paramUUID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	ctx := c.Request().Context()

	if _, err := svc.Definitions.GetDefinition(ctx, id); err != nil {
		writeError(c, err)
		return
	}

	entries, err := svc.Definitions.ListExpenseEntries(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	now := svc.now()
	for i := range entries {
		entries[i].Status = entries[i].EffectiveStatus(now)
	}

	if entries == nil {
		entries = []finance.ExpenseEntry{}
	}

	writeJSON(c, http.StatusOK, entries)
}

// PayExpenseEntry settles an entry on behalf of the acting user.
func PayExpenseEntry(c flamego.Context, svc *Finance) {
	id, err := paramUUID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	actor, err := requestActor(c)
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	ledger, err := svc.Settler.PayEntry(c.Request().Context(), id, actor)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, ledger)
}

// SkipExpenseEntry marks an entry skipped.
func SkipExpenseEntry(c flamego.Context, svc *Finance) {
	id, err := paramUUID(c, "id")
	if err != nil {
		writeBadRequest(c, err)
		return
	}

	entry, err := svc.Settler.SkipEntry(c.Request().Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, entry)
}
