// Package http is the JSON API boundary. Handlers translate requests into
// service calls and error kinds into status codes; no domain logic lives
// here.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/services"
)

// Services groups everything the API serves.
type Services struct {
	Transactions *services.TransactionService
	Income       *services.IncomeService
	Debts        *services.DebtService
	Budgets      *services.BudgetService
	Savings      *services.SavingsService
	Rules        *services.RulesService
	Categories   *services.CategoryService
}

type Server struct {
	http.Server
	svc          Services
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run server.
func NewServer(addr string, svc Services) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:         svc,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/expenses", s.withMiddleware(s.handleCreateExpense))
	mux.HandleFunc("GET /api/expenses", s.withMiddleware(s.handleListExpenses))
	mux.HandleFunc("GET /api/expenses/month", s.withMiddleware(s.handleExpensesByMonth))
	mux.HandleFunc("GET /api/expenses/templates", s.withMiddleware(s.handleListTemplates))
	mux.HandleFunc("GET /api/expenses/{id}", s.withMiddleware(s.handleGetExpense))
	mux.HandleFunc("PUT /api/expenses/{id}", s.withMiddleware(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.withMiddleware(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/import/csv", s.withMiddleware(s.handleImportCSV))

	mux.HandleFunc("POST /api/income", s.withMiddleware(s.handleCreateIncome))
	mux.HandleFunc("GET /api/income", s.withMiddleware(s.handleListIncome))
	mux.HandleFunc("GET /api/income/month", s.withMiddleware(s.handleIncomeByMonth))
	mux.HandleFunc("GET /api/income/{id}", s.withMiddleware(s.handleGetIncome))
	mux.HandleFunc("PUT /api/income/{id}", s.withMiddleware(s.handleUpdateIncome))
	mux.HandleFunc("DELETE /api/income/{id}", s.withMiddleware(s.handleDeleteIncome))
	mux.HandleFunc("GET /api/salary/settings", s.withMiddleware(s.handleGetSalarySettings))
	mux.HandleFunc("PUT /api/salary/settings", s.withMiddleware(s.handleUpdateSalarySettings))
	mux.HandleFunc("PUT /api/salary/month", s.withMiddleware(s.handleEditSalaryMonth))

	mux.HandleFunc("POST /api/debts", s.withMiddleware(s.handleCreateDebt))
	mux.HandleFunc("GET /api/debts", s.withMiddleware(s.handleListDebts))
	mux.HandleFunc("GET /api/debts/{id}", s.withMiddleware(s.handleGetDebt))
	mux.HandleFunc("PUT /api/debts/{id}", s.withMiddleware(s.handleUpdateDebt))
	mux.HandleFunc("DELETE /api/debts/{id}", s.withMiddleware(s.handleDeleteDebt))
	mux.HandleFunc("POST /api/debts/{id}/payments", s.withMiddleware(s.handleRecordPayment))

	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("PUT /api/categories", s.withMiddleware(s.handleUpsertCategory))
	mux.HandleFunc("DELETE /api/categories/{name}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/rules", s.withMiddleware(s.handleListRules))
	mux.HandleFunc("POST /api/rules", s.withMiddleware(s.handleUpsertRule))
	mux.HandleFunc("DELETE /api/rules/{id}", s.withMiddleware(s.handleDeleteRule))

	mux.HandleFunc("GET /api/budgets/{month}", s.withMiddleware(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{month}", s.withMiddleware(s.handlePutBudget))
	mux.HandleFunc("GET /api/budgets/{month}/report", s.withMiddleware(s.handleBudgetReport))
	mux.HandleFunc("GET /api/overview/{month}", s.withMiddleware(s.handleMonthOverview))

	mux.HandleFunc("POST /api/savings", s.withMiddleware(s.handleCreateSavingsGoal))
	mux.HandleFunc("GET /api/savings", s.withMiddleware(s.handleListSavingsGoals))
	mux.HandleFunc("GET /api/savings/{id}", s.withMiddleware(s.handleGetSavingsGoal))
	mux.HandleFunc("PUT /api/savings/{id}", s.withMiddleware(s.handleUpdateSavingsGoal))
	mux.HandleFunc("DELETE /api/savings/{id}", s.withMiddleware(s.handleDeleteSavingsGoal))

	return s
}

// Shutdown stops the rate limiter cleanup goroutine and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
