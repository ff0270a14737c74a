package http

import (
	"net/http"

	"fintrack/internal/core"
)

type ruleView struct {
	ID       int64  `json:"id"`
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	ApplyTo  string `json:"applyTo"`
}

func toRuleView(rule core.SmartRule) ruleView {
	return ruleView{
		ID:       rule.ID,
		Keyword:  rule.Keyword,
		Category: rule.Category,
		ApplyTo:  string(rule.ApplyTo),
	}
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Rules.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]ruleView, 0, len(list))
	for _, rule := range list {
		views = append(views, toRuleView(rule))
	}
	writeJSON(w, http.StatusOK, views)
}

type ruleRequest struct {
	Keyword  string `json:"keyword"`
	Category string `json:"category"`
	ApplyTo  string `json:"applyTo"`
}

func (s *Server) handleUpsertRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Rules.Upsert(r.Context(), core.SmartRule{
		OwnerID:  ownerID(r),
		Keyword:  req.Keyword,
		Category: req.Category,
		ApplyTo:  core.Direction(req.ApplyTo),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleView(saved))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Rules.Delete(r.Context(), ownerID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
