package http

import (
	"net/http"

	"fintrack/internal/core"
)

type budgetView struct {
	Month       string                `json:"month"`
	Total       core.Money            `json:"total"`
	PerCategory map[string]core.Money `json:"perCategory"`
}

func toBudgetView(b core.Budget) budgetView {
	per := b.PerCategory
	if per == nil {
		per = map[string]core.Money{}
	}
	return budgetView{Month: string(b.Month), Total: b.Total, PerCategory: per}
}

func pathMonth(r *http.Request) (core.MonthKey, error) {
	return core.ParseMonthKey(r.PathValue("month"))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.Budgets.Get(r.Context(), ownerID(r), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetView(b))
}

type budgetRequest struct {
	Total       core.Money            `json:"total"`
	PerCategory map[string]core.Money `json:"perCategory"`
}

func (s *Server) handlePutBudget(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Budgets.Put(r.Context(), core.Budget{
		OwnerID:     ownerID(r),
		Month:       month,
		Total:       req.Total,
		PerCategory: req.PerCategory,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetView(saved))
}

type budgetLineView struct {
	Category string     `json:"category"`
	Limit    core.Money `json:"limit"`
	Spent    core.Money `json:"spent"`
	Over     bool       `json:"over"`
}

type budgetReportView struct {
	Month      string           `json:"month"`
	TotalLimit core.Money       `json:"totalLimit"`
	TotalSpent core.Money       `json:"totalSpent"`
	Lines      []budgetLineView `json:"lines"`
}

func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.svc.Budgets.Report(r.Context(), ownerID(r), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := budgetReportView{
		Month:      string(report.Month),
		TotalLimit: report.TotalLimit,
		TotalSpent: report.TotalSpent,
		Lines:      make([]budgetLineView, 0, len(report.Lines)),
	}
	for _, line := range report.Lines {
		view.Lines = append(view.Lines, budgetLineView{
			Category: line.Category,
			Limit:    line.Limit,
			Spent:    line.Spent,
			Over:     line.Over(),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

type categoryAmountView struct {
	Name   string     `json:"name"`
	Amount core.Money `json:"amount"`
}

type overviewView struct {
	Month      string               `json:"month"`
	Total      core.Money           `json:"total"`
	ByCategory []categoryAmountView `json:"byCategory"`
}

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	month, err := pathMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	overview, err := s.svc.Budgets.Overview(r.Context(), ownerID(r), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view := overviewView{
		Month:      string(overview.Month),
		Total:      overview.Total,
		ByCategory: make([]categoryAmountView, 0, len(overview.ByCategory)),
	}
	for _, cat := range overview.ByCategory {
		view.ByCategory = append(view.ByCategory, categoryAmountView{Name: cat.Name, Amount: cat.Amount})
	}
	writeJSON(w, http.StatusOK, view)
}
