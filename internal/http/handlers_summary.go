package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"

	"spendtrack/internal/core"
)

// serveCachedSummary serves the response from the summary cache when
// possible, computing and caching it otherwise. The cache key is the full
// request URI so distinct query parameters get distinct entries.
func (s *Server) serveCachedSummary(w http.ResponseWriter, r *http.Request, compute func() (any, error)) {
	key := r.URL.RequestURI()

	if body, ok := s.summaryCache.Get(key); ok {
		atomic.AddInt64(&s.metrics.cacheHits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	atomic.AddInt64(&s.metrics.cacheMisses, 1)

	v, err := compute()
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.summaryCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleSummaryDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	d, err := core.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.serveCachedSummary(w, r, func() (any, error) {
		total, err := s.ledger.TotalForDate(r.Context(), d)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"date":  d.String(),
			"total": total.String(),
		}, nil
	})
}

func (s *Server) handleSummaryMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.serveCachedSummary(w, r, func() (any, error) {
		total, err := s.ledger.TotalForMonth(r.Context(), year, month)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"year":  year,
			"month": month,
			"total": total.String(),
		}, nil
	})
}

func (s *Server) handleSummaryCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	categoryID := r.URL.Query().Get("category")
	if categoryID == "" {
		writeError(w, http.StatusUnprocessableEntity, core.ErrMissingID)
		return
	}

	s.serveCachedSummary(w, r, func() (any, error) {
		total, err := s.ledger.TotalForCategory(r.Context(), categoryID)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"category_id": categoryID,
			"total":       total.String(),
		}, nil
	})
}

func (s *Server) handleSummaryKind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kind := core.TransactionKind(r.URL.Query().Get("kind"))

	s.serveCachedSummary(w, r, func() (any, error) {
		total, err := s.ledger.TotalForKind(r.Context(), kind)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"kind":  string(kind),
			"total": total.String(),
		}, nil
	})
}

// handleSummaryBalance reports income, expense, and net. Without query
// parameters it covers the whole store; with year and month it covers
// that calendar month.
func (s *Server) handleSummaryBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var p core.Period
	if r.URL.Query().Get("year") != "" || r.URL.Query().Get("month") != "" {
		year, month, err := parseYearMonth(r)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		p = core.Period{Year: year, Month: month}
	}

	s.serveCachedSummary(w, r, func() (any, error) {
		b, err := s.ledger.NetBalance(r.Context(), p)
		if err != nil {
			return nil, err
		}
		return map[string]string{
			"income":  b.Income.String(),
			"expense": b.Expense.String(),
			"net":     b.Net.String(),
		}, nil
	})
}

func parseYearMonth(r *http.Request) (int, int, error) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		return 0, 0, core.ErrInvalidDate
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		return 0, 0, core.ErrInvalidDate
	}
	return year, month, nil
}
