package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

type paymentView struct {
	ID     int64      `json:"id"`
	Amount core.Money `json:"amount"`
	Date   string     `json:"date"`
}

type debtView struct {
	ID        int64         `json:"id"`
	Creditor  string        `json:"creditor"`
	Total     core.Money    `json:"totalAmount"`
	Remaining core.Money    `json:"remainingAmount"`
	DueDate   string        `json:"dueDate"`
	Payments  []paymentView `json:"payments,omitempty"`
}

func toDebtView(d core.Debt) debtView {
	v := debtView{
		ID:        d.ID,
		Creditor:  d.Creditor,
		Total:     d.Total,
		Remaining: d.Remaining,
		DueDate:   d.DueDate.Format(dateLayout),
	}
	for _, p := range d.Payments {
		v.Payments = append(v.Payments, paymentView{
			ID:     p.ID,
			Amount: p.Amount,
			Date:   p.Date.Format(dateLayout),
		})
	}
	return v
}

type debtRequest struct {
	Creditor string     `json:"creditor"`
	Total    core.Money `json:"totalAmount"`
	DueDate  string     `json:"dueDate"`
}

func (req debtRequest) toDomain(ownerID int64) (core.Debt, error) {
	due, err := parseDate(req.DueDate)
	if err != nil {
		return core.Debt{}, err
	}
	return core.Debt{
		OwnerID:  ownerID,
		Creditor: strings.TrimSpace(req.Creditor),
		Total:    req.Total,
		DueDate:  due,
	}, nil
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := req.toDomain(ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Debts.Create(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDebtView(saved))
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Debts.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]debtView, 0, len(list))
	for _, d := range list {
		views = append(views, toDebtView(d))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := s.svc.Debts.Get(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtView(d))
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := req.toDomain(ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	d.ID = id
	saved, err := s.svc.Debts.Update(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtView(saved))
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Debts.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentRequest struct {
	Amount core.Money `json:"amount"`
	Date   string     `json:"date"`
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var paidAt time.Time
	if strings.TrimSpace(req.Date) != "" {
		if paidAt, err = parseDate(req.Date); err != nil {
			writeError(w, r, err)
			return
		}
	}
	debt, err := s.svc.Debts.RecordPayment(r.Context(), ownerID(r), id, req.Amount, paidAt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDebtView(debt))
}
