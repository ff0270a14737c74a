package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func toCategoryView(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Color: c.Color}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Categories.List(r.Context(), ownerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]categoryView, 0, len(list))
	for _, c := range list {
		views = append(views, toCategoryView(c))
	}
	writeJSON(w, http.StatusOK, views)
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleUpsertCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	saved, err := s.svc.Categories.Upsert(r.Context(), core.Category{
		OwnerID: ownerID(r),
		Name:    req.Name,
		Color:   req.Color,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryView(saved))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Categories.Delete(r.Context(), ownerID(r), r.PathValue("name")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
