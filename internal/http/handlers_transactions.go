package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/importer"
)

const dateLayout = "2006-01-02"

type recurrenceView struct {
	Frequency  string `json:"frequency"`
	DayOfMonth int    `json:"dayOfMonth"`
}

type transactionView struct {
	ID          int64           `json:"id"`
	Category    string          `json:"category"`
	Amount      core.Money      `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description,omitempty"`
	IsRecurring bool            `json:"isRecurring"`
	IsTemplate  bool            `json:"isTemplate"`
	TemplateID  int64           `json:"templateId,omitempty"`
	AutoKey     string          `json:"autoKey,omitempty"`
	Recurrence  *recurrenceView `json:"recurrence,omitempty"`
}

func toTransactionView(t core.Transaction) transactionView {
	v := transactionView{
		ID:          t.ID,
		Category:    t.Category,
		Amount:      t.Amount,
		Date:        t.Date.Format(dateLayout),
		Description: t.Description,
		IsRecurring: t.IsRecurring,
		IsTemplate:  t.IsTemplate,
		TemplateID:  t.TemplateID,
		AutoKey:     t.AutoKey,
	}
	if t.IsRecurring {
		v.Recurrence = &recurrenceView{Frequency: t.Rule.Freq, DayOfMonth: t.Rule.DayOfMonth}
	}
	return v
}

func toTransactionViews(list []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(list))
	for _, t := range list {
		out = append(out, toTransactionView(t))
	}
	return out
}

type transactionRequest struct {
	Category    string     `json:"category"`
	Amount      core.Money `json:"amount"`
	Date        string     `json:"date"`
	Description string     `json:"description"`
	IsRecurring bool       `json:"isRecurring"`
	DayOfMonth  int        `json:"dayOfMonth"`
}

func (req transactionRequest) toDomain(ownerID int64) (core.Transaction, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		OwnerID:     ownerID,
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		IsRecurring: req.IsRecurring,
	}
	if req.IsRecurring {
		day := req.DayOfMonth
		if day == 0 {
			// Absent dayOfMonth falls back to the expense date's day.
			day = date.Day()
		}
		t.Rule = core.RecurrenceRule{Freq: core.FreqMonthly, DayOfMonth: day}
	}
	return t, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.toDomain(ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Transactions.Create(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionView(saved))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Transactions.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionViews(list))
}

func (s *Server) handleExpensesByMonth(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.Transactions.ListByMonth(r.Context(), ownerID(r), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionViews(list))
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Transactions.ListTemplates(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionViews(list))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.svc.Transactions.Get(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionView(t))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := req.toDomain(ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	t.ID = id
	saved, err := s.svc.Transactions.Update(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionView(saved))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Transactions.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportCSV accepts a CSV body (or multipart "file" field) and
// imports each valid row. The type query parameter picks the side:
// expense (default) or income.
func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	kind := strings.TrimSpace(r.URL.Query().Get("type"))
	if kind == "" {
		kind = string(core.ApplyExpense)
	}
	if kind != string(core.ApplyExpense) && kind != string(core.ApplyIncome) {
		writeError(w, r, core.Validationf("type must be expense or income"))
		return
	}

	body := r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, core.Validationf("missing file field: %v", err))
			return
		}
		defer file.Close()
		body = file
	}

	var (
		result importer.Result
		err    error
	)
	if kind == string(core.ApplyIncome) {
		result, err = s.svc.Income.ImportCSV(r.Context(), ownerID(r), body)
	} else {
		result, err = s.svc.Transactions.ImportCSV(r.Context(), ownerID(r), body)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Validationf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func monthParam(r *http.Request) (core.MonthKey, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		// Default to the current month.
		return core.MonthKeyOf(time.Now().UTC()), nil
	}
	return core.ParseMonthKey(raw)
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, core.Validationf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return t, nil
}
