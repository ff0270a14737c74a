package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
)

type incomeView struct {
	ID          int64      `json:"id"`
	Source      string     `json:"source"`
	Amount      core.Money `json:"amount"`
	Date        string     `json:"date"`
	Note        string     `json:"note,omitempty"`
	Description string     `json:"description,omitempty"`
	IsRecurring bool       `json:"isRecurring"`
	AutoKey     string     `json:"autoKey,omitempty"`
}

func toIncomeView(in core.Income) incomeView {
	return incomeView{
		ID:          in.ID,
		Source:      in.Source,
		Amount:      in.Amount,
		Date:        in.Date.Format(dateLayout),
		Note:        in.Note,
		Description: in.Description,
		IsRecurring: in.IsRecurring,
		AutoKey:     in.AutoKey,
	}
}

func toIncomeViews(list []core.Income) []incomeView {
	out := make([]incomeView, 0, len(list))
	for _, in := range list {
		out = append(out, toIncomeView(in))
	}
	return out
}

type incomeRequest struct {
	Source      string     `json:"source"`
	Amount      core.Money `json:"amount"`
	Date        string     `json:"date"`
	Note        string     `json:"note"`
	Description string     `json:"description"`
}

func (req incomeRequest) toDomain(ownerID int64) (core.Income, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		OwnerID:     ownerID,
		Source:      strings.TrimSpace(req.Source),
		Amount:      req.Amount,
		Date:        date,
		Note:        strings.TrimSpace(req.Note),
		Description: strings.TrimSpace(req.Description),
	}, nil
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toDomain(ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Income.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIncomeView(saved))
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Income.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeViews(list))
}

func (s *Server) handleIncomeByMonth(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.Income.ListByMonth(r.Context(), ownerID(r), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeViews(list))
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := s.svc.Income.Get(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeView(in))
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.toDomain(ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = id
	saved, err := s.svc.Income.Update(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeView(saved))
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Income.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type salarySettingsView struct {
	Enabled       bool       `json:"enabled"`
	DefaultSalary core.Money `json:"defaultSalary"`
	DayOfMonth    int        `json:"dayOfMonth"`
}

func (s *Server) handleGetSalarySettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Income.SalarySettings(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, salarySettingsView{
		Enabled:       settings.Enabled,
		DefaultSalary: settings.DefaultSalary,
		DayOfMonth:    settings.DayOfMonth,
	})
}

func (s *Server) handleUpdateSalarySettings(w http.ResponseWriter, r *http.Request) {
	var req salarySettingsView
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Income.UpdateSalarySettings(r.Context(), ownerID(r), core.SalarySettings{
		Enabled:       req.Enabled,
		DefaultSalary: req.DefaultSalary,
		DayOfMonth:    req.DayOfMonth,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, salarySettingsView{
		Enabled:       saved.Enabled,
		DefaultSalary: saved.DefaultSalary,
		DayOfMonth:    saved.DayOfMonth,
	})
}

type editSalaryRequest struct {
	Month         string     `json:"month"`
	Amount        core.Money `json:"amount"`
	ApplyToFuture bool       `json:"applyToFuture"`
}

func (s *Server) handleEditSalaryMonth(w http.ResponseWriter, r *http.Request) {
	var req editSalaryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	month, err := core.ParseMonthKey(req.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	edited, err := s.svc.Income.EditSalaryForMonth(r.Context(), ownerID(r), month, req.Amount, req.ApplyToFuture)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIncomeView(edited))
}
