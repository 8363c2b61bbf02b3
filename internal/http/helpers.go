package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"spendtrack/internal/core"
)

type categoryPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

type transactionPayload struct {
	ID            string `json:"id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	CategoryID    string `json:"category_id,omitempty"`
	Note          string `json:"note,omitempty"`
	Kind          string `json:"kind"`
	Source        string `json:"source,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

func categoryToPayload(c core.Category) categoryPayload {
	return categoryPayload{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color}
}

func payloadToCategory(p categoryPayload) core.Category {
	return core.Category{
		ID:    sanitizeInput(p.ID),
		Name:  sanitizeInput(p.Name),
		Icon:  sanitizeInput(p.Icon),
		Color: strings.TrimSpace(p.Color),
	}
}

func transactionToPayload(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:            t.ID,
		Amount:        t.Amount.String(),
		Date:          t.Date.String(),
		CategoryID:    t.CategoryID,
		Note:          t.Note,
		Kind:          string(t.Kind),
		Source:        t.Source,
		PaymentMethod: t.PaymentMethod,
	}
}

// payloadToTransaction parses the wire form. Amounts travel as decimal
// strings and are converted to cents.
func payloadToTransaction(p transactionPayload) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(p.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:            sanitizeInput(p.ID),
		Amount:        core.Money{Cents: cents},
		Date:          d,
		CategoryID:    sanitizeInput(p.CategoryID),
		Note:          sanitizeInput(p.Note),
		Kind:          core.TransactionKind(strings.TrimSpace(p.Kind)),
		Source:        sanitizeInput(p.Source),
		PaymentMethod: sanitizeInput(p.PaymentMethod),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusForError maps the domain error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrCategoryRef),
		errors.Is(err, core.ErrVariantField),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidColor),
		errors.Is(err, core.ErrMissingID),
		errors.Is(err, core.ErrEmptyName):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
