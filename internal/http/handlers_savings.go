package http

import (
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
)

type savingsGoalView struct {
	ID      int64      `json:"id"`
	Title   string     `json:"title"`
	Target  core.Money `json:"target"`
	Current core.Money `json:"current"`
	DueDate string     `json:"dueDate,omitempty"`
}

func toSavingsGoalView(g core.SavingsGoal) savingsGoalView {
	v := savingsGoalView{
		ID:      g.ID,
		Title:   g.Title,
		Target:  g.Target,
		Current: g.Current,
	}
	if !g.DueDate.IsZero() {
		v.DueDate = g.DueDate.Format(dateLayout)
	}
	return v
}

type savingsGoalRequest struct {
	Title   string     `json:"title"`
	Target  core.Money `json:"target"`
	Current core.Money `json:"current"`
	DueDate string     `json:"dueDate"`
}

func (req savingsGoalRequest) toDomain(ownerID int64) (core.SavingsGoal, error) {
	var due time.Time
	if strings.TrimSpace(req.DueDate) != "" {
		var err error
		if due, err = parseDate(req.DueDate); err != nil {
			return core.SavingsGoal{}, err
		}
	}
	return core.SavingsGoal{
		OwnerID: ownerID,
		Title:   strings.TrimSpace(req.Title),
		Target:  req.Target,
		Current: req.Current,
		DueDate: due,
	}, nil
}

func (s *Server) handleCreateSavingsGoal(w http.ResponseWriter, r *http.Request) {
	var req savingsGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := req.toDomain(ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Savings.Create(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSavingsGoalView(saved))
}

func (s *Server) handleListSavingsGoals(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Savings.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]savingsGoalView, 0, len(list))
	for _, g := range list {
		views = append(views, toSavingsGoalView(g))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.svc.Savings.Get(r.Context(), ownerID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSavingsGoalView(g))
}

func (s *Server) handleUpdateSavingsGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req savingsGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := req.toDomain(ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	g.ID = id
	saved, err := s.svc.Savings.Update(r.Context(), g)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSavingsGoalView(saved))
}

func (s *Server) handleDeleteSavingsGoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Savings.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
