package http

import (
	"net/http"
	"strings"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listCategories(w, r)
	case http.MethodPost:
		s.createCategory(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/categories/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid category ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateCategory(w, r, id)
	case http.MethodDelete:
		s.deleteCategory(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	payload := make([]categoryPayload, 0, len(cats))
	for _, c := range cats {
		payload = append(payload, categoryToPayload(c))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var p categoryPayload
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := s.ledger.CreateCategory(r.Context(), payloadToCategory(p))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	s.flushSummaries()
	writeJSON(w, http.StatusCreated, categoryToPayload(created))
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request, id string) {
	var p categoryPayload
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p.ID = id

	updated, err := s.ledger.UpdateCategory(r.Context(), payloadToCategory(p))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	s.flushSummaries()
	writeJSON(w, http.StatusOK, categoryToPayload(updated))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request, id string) {
	deleted, err := s.ledger.DeleteCategory(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	s.flushSummaries()
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
