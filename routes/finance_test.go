// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flamego/flamego"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/humaidq/bookkeeper/finance"
)

var testActor = uuid.MustParse("6f1c2d3e-4b5a-4c7d-8e9f-0a1b2c3d4e5f")

func testNow() time.Time {
	return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.Local)
}

func newFinanceTestApp(t *testing.T) (*flamego.Flame, *fakeStore) {
	t.Helper()

	store := newFakeStore()
	recorder := finance.NewRecorder(store, finance.WithRecorderClock(testNow))
	generator := finance.NewGenerator(store, testNow)

	svc := &Finance{
		Recorder:    recorder,
		Generator:   generator,
		Settler:     finance.NewSettler(store, recorder, generator, testNow),
		Aggregator:  finance.NewAggregator(store, store, store),
		Definitions: store,
		Now:         testNow,
	}

	f := flamego.New()
	f.Use(MapFinance(svc))
	Register(f)

	return f, store
}

func performJSON(t *testing.T, f *flamego.Flame, method, path, body string, withActor bool) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if withActor {
		req.Header.Set(actorHeader, testActor.String())
	}

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	return rec
}

func decodeResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}

	return out
}

const hostingDefinition = `{
	"name": "VPS",
	"category": "hosting",
	"amount": "80",
	"frequency": "monthly",
	"startDate": "2026-01-15T00:00:00Z",
	"autoPay": false
}`

func TestRecordTransactionCreatesManualEntry(t *testing.T) {
	t.Parallel()

	f, store := newFinanceTestApp(t)

	rec := performJSON(t, f, http.MethodPost, "/api/finance/transactions",
		`{"direction":"incoming","amount":"150.50","category":"consulting"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	entry := decodeResponse[finance.LedgerEntry](t, rec)
	if !entry.Amount.Equal(decimal.RequireFromString("150.50")) {
		t.Fatalf("expected amount 150.50, got %s", entry.Amount)
	}

	if entry.Status != finance.StatusCompleted {
		t.Fatalf("expected status completed, got %q", entry.Status)
	}

	if entry.CreatedBy != finance.UserActor(testActor) {
		t.Fatalf("expected created by %s, got %q", testActor, entry.CreatedBy)
	}

	if len(store.ledger) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(store.ledger))
	}
}

func TestRecordTransactionRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		withActor bool
		field     string
	}{
		{name: "missing actor", body: `{"direction":"incoming","amount":"10","category":"misc"}`, field: "actor"},
		{name: "missing amount", body: `{"direction":"incoming","category":"misc"}`, withActor: true, field: "amount"},
		{name: "missing direction", body: `{"amount":"10","category":"misc"}`, withActor: true, field: "direction"},
		{name: "budget record type", body: `{"recordType":"budget","amount":"10","category":"misc"}`, withActor: true, field: "recordType"},
		{name: "malformed body", body: `{"amount":`, withActor: true},
		{name: "unknown field", body: `{"amount":"10","bogus":true}`, withActor: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, store := newFinanceTestApp(t)

			rec := performJSON(t, f, http.MethodPost, "/api/finance/transactions", tt.body, tt.withActor)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
			}

			resp := decodeResponse[errorResponse](t, rec)
			if resp.Field != tt.field {
				t.Fatalf("expected field %q, got %q", tt.field, resp.Field)
			}

			if len(store.ledger) != 0 {
				t.Fatalf("expected nothing recorded, got %d entries", len(store.ledger))
			}
		})
	}
}

func TestRecordTransactionRejectsMalformedActor(t *testing.T) {
	t.Parallel()

	f, _ := newFinanceTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/finance/transactions",
		strings.NewReader(`{"direction":"incoming","amount":"10","category":"misc"}`))
	req.Header.Set(actorHeader, "not-a-uuid")

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	if resp := decodeResponse[errorResponse](t, rec); resp.Error != errInvalidActor.Error() {
		t.Fatalf("expected error %q, got %q", errInvalidActor, resp.Error)
	}
}

func TestStatisticsCountsManualRevenue(t *testing.T) {
	t.Parallel()

	f, _ := newFinanceTestApp(t)

	for _, body := range []string{
		`{"direction":"incoming","amount":"150","category":"consulting"}`,
		`{"recordType":"expense","amount":"40","category":"travel"}`,
	} {
		if rec := performJSON(t, f, http.MethodPost, "/api/finance/transactions", body, true); rec.Code != http.StatusCreated {
			t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
		}
	}

	rec := performJSON(t, f, http.MethodGet, "/api/finance/statistics?period=month", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	stats := decodeResponse[finance.Statistics](t, rec)
	if !stats.Revenue.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected revenue 150, got %s", stats.Revenue)
	}

	if !stats.Expenses.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected expenses 40, got %s", stats.Expenses)
	}

	if !stats.NetProfit.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("expected net profit 110, got %s", stats.NetProfit)
	}

	if got := rec.Header().Get("Cache-Control"); got != "no-store, max-age=0" {
		t.Fatalf("expected no-store cache header, got %q", got)
	}
}

func TestStatisticsRejectsUnknownPeriod(t *testing.T) {
	t.Parallel()

	f, _ := newFinanceTestApp(t)

	rec := performJSON(t, f, http.MethodGet, "/api/finance/statistics?period=fortnight", "", false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	if resp := decodeResponse[errorResponse](t, rec); resp.Field != "period" {
		t.Fatalf("expected field period, got %q", resp.Field)
	}
}

func TestBudgetCreateAndSpend(t *testing.T) {
	t.Parallel()

	f, _ := newFinanceTestApp(t)

	rec := performJSON(t, f, http.MethodPost, "/api/finance/budgets", `{"category":"marketing","amount":"500"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	budget := decodeResponse[finance.LedgerEntry](t, rec)

	rec = performJSON(t, f, http.MethodPost, "/api/finance/budgets/"+budget.ID.String()+"/spend", `{"amount":"620"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	updated := decodeResponse[finance.LedgerEntry](t, rec)
	if !updated.BudgetRemaining.Equal(decimal.NewFromInt(-120)) {
		t.Fatalf("expected remaining -120, got %s", updated.BudgetRemaining)
	}

	rec = performJSON(t, f, http.MethodPost, "/api/finance/budgets/"+uuid.NewString()+"/spend", `{"amount":"1"}`, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCancelSource(t *testing.T) {
	t.Parallel()

	f, store := newFinanceTestApp(t)
	paymentID := uuid.New()

	_, _, err := finance.NewRecorder(store).RecordIncoming(t.Context(), finance.RecordInput{
		Amount:     decimal.NewNullDecimal(decimal.NewFromInt(300)),
		Category:   "payment",
		OccurredAt: testNow(),
		Actor:      finance.SystemActor,
		Source:     finance.PaymentSource{PaymentID: paymentID},
	})
	if err != nil {
		t.Fatalf("failed to record payment: %v", err)
	}

	path := "/api/finance/sources/payment/" + paymentID.String() + "/cancel"

	rec := performJSON(t, f, http.MethodPost, path, "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	resp := decodeResponse[cancelResponse](t, rec)
	if !resp.Changed || resp.Entry.Status != finance.StatusCancelled {
		t.Fatalf("expected cancelled entry, got %+v", resp)
	}

	rec = performJSON(t, f, http.MethodPost, path, "", true)
	if resp := decodeResponse[cancelResponse](t, rec); resp.Changed {
		t.Fatalf("expected second cancel to be a no-op, got %+v", resp)
	}

	rec = performJSON(t, f, http.MethodPost, path+"?mode=delete", "", true)
	if resp := decodeResponse[cancelResponse](t, rec); !resp.Changed {
		t.Fatalf("expected delete to remove the cancelled entry, got %+v", resp)
	}

	if len(store.ledger) != 0 {
		t.Fatalf("expected empty ledger, got %d entries", len(store.ledger))
	}
}

func TestCancelSourceRejectsBadInput(t *testing.T) {
	t.Parallel()

	f, _ := newFinanceTestApp(t)

	for _, path := range []string{
		"/api/finance/sources/invoice/abc/cancel",
		"/api/finance/sources/payment/abc/cancel?mode=purge",
	} {
		rec := performJSON(t, f, http.MethodPost, path, "", true)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestRecurringLifecycle(t *testing.T) {
	t.Parallel()

	f, store := newFinanceTestApp(t)

	rec := performJSON(t, f, http.MethodPost, "/api/finance/recurring", hostingDefinition, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	def := decodeResponse[finance.RecurringExpense](t, rec)
	if def.DayOfMonth != 15 || def.Status != finance.DefinitionActive {
		t.Fatalf("expected defaults day 15 and active, got day %d status %q", def.DayOfMonth, def.Status)
	}

	base := "/api/finance/recurring/" + def.ID.String()

	rec = performJSON(t, f, http.MethodPost, base+"/generate", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	result := decodeResponse[finance.GenerateResult](t, rec)
	if result.Created != 2 {
		t.Fatalf("expected 2 entries through March 10, got %d", result.Created)
	}

	rec = performJSON(t, f, http.MethodGet, base+"/entries", "", false)
	entries := decodeResponse[[]finance.ExpenseEntry](t, rec)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	for _, e := range entries {
		if e.Status != finance.EntryOverdue {
			t.Fatalf("expected entry %s to be overdue, got %q", e.Period, e.Status)
		}
	}

	payPath := "/api/finance/expense-entries/" + entries[0].ID.String() + "/pay"

	if rec := performJSON(t, f, http.MethodPost, payPath, "", false); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected pay without actor to fail with %d, got %d", http.StatusBadRequest, rec.Code)
	}

	rec = performJSON(t, f, http.MethodPost, payPath, "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	ledger := decodeResponse[finance.LedgerEntry](t, rec)
	if ledger.Direction != finance.DirectionOutgoing || !ledger.Amount.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected outgoing 80, got %s %s", ledger.Direction, ledger.Amount)
	}

	if rec := performJSON(t, f, http.MethodPost, payPath, "", true); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected second payment to fail with %d, got %d", http.StatusBadRequest, rec.Code)
	}

	skipPath := "/api/finance/expense-entries/" + entries[1].ID.String() + "/skip"

	rec = performJSON(t, f, http.MethodPost, skipPath, "", true)
	if skipped := decodeResponse[finance.ExpenseEntry](t, rec); skipped.Status != finance.EntrySkipped {
		t.Fatalf("expected skipped entry, got %q", skipped.Status)
	}

	rec = performJSON(t, f, http.MethodGet, base, "", false)

	stored := decodeResponse[finance.RecurringExpense](t, rec)
	if stored.NextDueDate == nil || !stored.NextDueDate.Equal(time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected next due 2026-03-15, got %v", stored.NextDueDate)
	}

	if rec := performJSON(t, f, http.MethodDelete, base, "", true); rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	if len(store.entries) != 0 {
		t.Fatalf("expected entries removed with definition, got %d", len(store.entries))
	}

	if rec := performJSON(t, f, http.MethodGet, base, "", false); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestUpdateRecurringValidates(t *testing.T) {
	t.Parallel()

	f, _ := newFinanceTestApp(t)

	rec := performJSON(t, f, http.MethodPost, "/api/finance/recurring", hostingDefinition, true)
	def := decodeResponse[finance.RecurringExpense](t, rec)
	base := "/api/finance/recurring/" + def.ID.String()

	rec = performJSON(t, f, http.MethodPut, base, strings.Replace(hostingDefinition, `"80"`, `"-5"`, 1), true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	rec = performJSON(t, f, http.MethodPut, base, strings.Replace(hostingDefinition, "monthly", "quarterly", 1), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	if updated := decodeResponse[finance.RecurringExpense](t, rec); updated.Frequency != finance.FrequencyQuarterly {
		t.Fatalf("expected quarterly, got %q", updated.Frequency)
	}
}

func TestListRecurringFilters(t *testing.T) {
	t.Parallel()

	f, _ := newFinanceTestApp(t)

	performJSON(t, f, http.MethodPost, "/api/finance/recurring", hostingDefinition, true)
	performJSON(t, f, http.MethodPost, "/api/finance/recurring",
		strings.Replace(strings.Replace(hostingDefinition, `"autoPay": false`, `"autoPay": true`, 1), "VPS", "Domain", 1), true)

	rec := performJSON(t, f, http.MethodGet, "/api/finance/recurring?autoPay=true", "", false)

	defs := decodeResponse[[]finance.RecurringExpense](t, rec)
	if len(defs) != 1 || defs[0].Name != "Domain" {
		t.Fatalf("expected only the auto-pay definition, got %+v", defs)
	}

	if rec := performJSON(t, f, http.MethodGet, "/api/finance/recurring?status=archived", "", false); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestRecurringRejectsInvalidID(t *testing.T) {
	t.Parallel()

	f, _ := newFinanceTestApp(t)

	for _, path := range []string{
		"/api/finance/recurring/not-a-uuid",
		"/api/finance/recurring/not-a-uuid/entries",
	} {
		rec := performJSON(t, f, http.MethodGet, path, "", false)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusBadRequest, rec.Code)
		}
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	t.Parallel()

	f := flamego.New()

	var got string

	f.Get("/", func(c flamego.Context) {
		got = clientIP(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	f.ServeHTTP(httptest.NewRecorder(), req)

	if got != "203.0.113.7" {
		t.Fatalf("expected first forwarded address, got %q", got)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := flamego.New()
	f.Get("/health", Health)

	rec := performJSON(t, f, http.MethodGet, "/health", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	if body := decodeResponse[map[string]string](t, rec); body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body)
	}
}
