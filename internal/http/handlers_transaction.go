package http

import (
	"net/http"
	"strings"
	"sync/atomic"

	"spendtrack/internal/core"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getTransaction(w, r, id)
	case http.MethodPut:
		s.updateTransaction(w, r, id)
	case http.MethodDelete:
		s.deleteTransaction(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// listTransactions returns all transactions, optionally filtered by the
// date or category query parameters.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txs []core.Transaction
		err error
	)

	q := r.URL.Query()
	switch {
	case q.Get("date") != "":
		var d core.Date
		d, err = core.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		txs, err = s.ledger.ListTransactionsByDate(r.Context(), d)
	case q.Get("category") != "":
		txs, err = s.ledger.ListTransactionsByCategory(r.Context(), q.Get("category"))
	default:
		txs, err = s.ledger.ListTransactions(r.Context())
	}
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	payload := make([]transactionPayload, 0, len(txs))
	for _, t := range txs {
		payload = append(payload, transactionToPayload(t))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var p transactionPayload
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	t, err := payloadToTransaction(p)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	created, err := s.ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	atomic.AddInt64(&s.metrics.transactionsCreated, 1)
	s.flushSummaries()
	writeJSON(w, http.StatusCreated, transactionToPayload(created))
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request, id string) {
	t, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, transactionToPayload(t))
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	var p transactionPayload
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	p.ID = id

	t, err := payloadToTransaction(p)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	updated, err := s.ledger.UpdateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	s.flushSummaries()
	writeJSON(w, http.StatusOK, transactionToPayload(updated))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	deleted, err := s.ledger.DeleteTransaction(r.Context(), id)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	s.flushSummaries()
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
