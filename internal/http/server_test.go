package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"fintrack/internal/recurrence"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	engine := recurrence.NewEngine(repo, repo)
	transactions := services.NewTransactionService(repo, engine, nil)

	svc := Services{
		Transactions: transactions,
		Income:       services.NewIncomeService(repo, engine, nil),
		Debts:        services.NewDebtService(repo),
		Budgets:      services.NewBudgetService(repo, transactions),
		Savings:      services.NewSavingsService(repo),
		Rules:        services.NewRulesService(repo),
		Categories:   services.NewCategoryService(repo),
	}
	return NewServer(":0", svc)
}

func doRequest(t *testing.T, s *Server, method, target, body string, owner string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set(ownerHeader, owner)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpointsNeedNoAuth(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, target, "", "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want %d", target, rec.Code, http.StatusOK)
		}
	}
}

func TestMissingOwnerHeaderIsUnauthorized(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/expenses", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/expenses", "", "not-a-number")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCreateAndGetExpense(t *testing.T) {
	s := newTestServer(t)

	body := `{"category":"Groceries","amount":42.50,"date":"2025-03-10","description":"weekly shop"}`
	rec := doRequest(t, s, http.MethodPost, "/api/expenses", body, "1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created expense has no id")
	}
	if created.Amount.Cents != 4250 {
		t.Errorf("amount = %d cents, want 4250", created.Amount.Cents)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/expenses/"+itoa(created.ID), "", "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusOK)
	}
	var fetched transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched.Category != "Groceries" || fetched.Date != "2025-03-10" {
		t.Errorf("fetched = %+v, want Groceries on 2025-03-10", fetched)
	}
}

func TestOwnersDoNotSeeEachOther(t *testing.T) {
	s := newTestServer(t)

	body := `{"category":"Dining","amount":"18.00","date":"2025-03-11"}`
	rec := doRequest(t, s, http.MethodPost, "/api/expenses", body, "1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/expenses/"+itoa(created.ID), "", "2")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("cross-owner get status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestValidationErrorsMapToBadRequest(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"blank category", `{"category":"","amount":10,"date":"2025-03-10"}`},
		{"bad date", `{"category":"Misc","amount":10,"date":"March 10"}`},
		{"unknown field", `{"category":"Misc","amount":10,"date":"2025-03-10","bogus":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/expenses", tt.body, "1")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestDebtPaymentFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/debts",
		`{"creditor":"Bank","totalAmount":500,"dueDate":"2025-12-01"}`, "1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt status = %d: %s", rec.Code, rec.Body.String())
	}
	var debt debtView
	if err := json.Unmarshal(rec.Body.Bytes(), &debt); err != nil {
		t.Fatalf("decode debt: %v", err)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/debts/"+itoa(debt.ID)+"/payments",
		`{"amount":200}`, "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("payment status = %d: %s", rec.Code, rec.Body.String())
	}
	var afterPayment debtView
	if err := json.Unmarshal(rec.Body.Bytes(), &afterPayment); err != nil {
		t.Fatalf("decode debt after payment: %v", err)
	}
	if afterPayment.Remaining.Cents != 30000 {
		t.Errorf("remaining = %d cents, want 30000", afterPayment.Remaining.Cents)
	}

	// Overpayment violates the ledger and must be rejected whole.
	rec = doRequest(t, s, http.MethodPost, "/api/debts/"+itoa(debt.ID)+"/payments",
		`{"amount":400}`, "1")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("overpayment status = %d, want %d: %s",
			rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
}

func TestUnknownDebtIsNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/debts/999", "", "1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSavingsGoalRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/savings",
		`{"title":"Vacation","target":1500,"current":250,"dueDate":"2026-06-01"}`, "1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var goal savingsGoalView
	if err := json.Unmarshal(rec.Body.Bytes(), &goal); err != nil {
		t.Fatalf("decode goal: %v", err)
	}
	if goal.DueDate != "2026-06-01" {
		t.Errorf("dueDate = %q, want 2026-06-01", goal.DueDate)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/savings/"+itoa(goal.ID), "", "1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doRequest(t, s, http.MethodGet, "/api/savings/"+itoa(goal.ID), "", "1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"direct public peer", "203.0.113.9:443", "198.51.100.1", "203.0.113.9"},
		{"trusted proxy honors forwarding", "10.0.0.5:8080", "198.51.100.1", "198.51.100.1"},
		{"trusted proxy with bad header falls back", "127.0.0.1:9999", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestRecurringExpenseDefaultsDayFromDate(t *testing.T) {
	s := newTestServer(t)

	body := `{"category":"Rent","amount":900,"date":"2026-03-07","isRecurring":true}`
	rec := doRequest(t, s, http.MethodPost, "/api/expenses", body, "1")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var created transactionView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Recurrence == nil {
		t.Fatal("created expense has no recurrence")
	}
	if created.Recurrence.DayOfMonth != 7 {
		t.Errorf("dayOfMonth = %d, want 7 (the expense date's day)", created.Recurrence.DayOfMonth)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t)

	// First list seeds the defaults.
	rec := doRequest(t, s, http.MethodGet, "/api/categories", "", "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	var cats []categoryView
	if err := json.Unmarshal(rec.Body.Bytes(), &cats); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(cats) == 0 {
		t.Fatal("fresh owner got no seeded categories")
	}

	rec = doRequest(t, s, http.MethodPut, "/api/categories", `{"name":"Food","color":"#000000"}`, "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var saved categoryView
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode upsert response: %v", err)
	}
	if saved.Color != "#000000" {
		t.Errorf("color = %q, want %q", saved.Color, "#000000")
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/categories/Food", "", "1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	rec = doRequest(t, s, http.MethodDelete, "/api/categories/Food", "", "1")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestImportCSVRejectsUnknownType(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/import/csv?type=debts", "date,amount\n2026-01-02,5", "1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}
