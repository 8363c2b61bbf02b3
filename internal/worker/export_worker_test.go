package worker

import (
	"context"
	"errors"
	"testing"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	exportmem "spendtrack/internal/export/memory"
)

type fakeStore struct {
	transactions map[string]core.Transaction
	exported     map[string]bool
	markErr      error
}

func newFakeStore(txs ...core.Transaction) *fakeStore {
	s := &fakeStore{
		transactions: make(map[string]core.Transaction),
		exported:     make(map[string]bool),
	}
	for _, t := range txs {
		s.transactions[t.ID] = t
	}
	return s
}

func (s *fakeStore) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *fakeStore) ListPendingExport(_ context.Context, limit int) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range s.transactions {
		if !s.exported[t.ID] {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) MarkExported(_ context.Context, id string) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.exported[id] = true
	return nil
}

func expenseTx(id string) core.Transaction {
	return core.Transaction{
		ID:     id,
		Amount: core.Money{Cents: 4550},
		Date:   core.NewDate(2024, 3, 1),
		Kind:   core.Expense,
		UserID: 1,
	}
}

func TestHandleEvent_ExportsCreated(t *testing.T) {
	store := newFakeStore(expenseTx("t1"))
	sink := exportmem.New()
	w := NewExportWorker(store, sink, 10)

	msg := amqp.NewTransactionEvent("t1", amqp.ActionCreated)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	if items := sink.Items(); len(items) != 1 || items[0].ID != "t1" {
		t.Fatalf("expected one exported item, got %+v", items)
	}
	if !store.exported["t1"] {
		t.Fatal("transaction should be marked exported")
	}
}

func TestHandleEvent_SkipsDeleted(t *testing.T) {
	store := newFakeStore(expenseTx("t1"))
	sink := exportmem.New()
	w := NewExportWorker(store, sink, 10)

	msg := amqp.NewTransactionEvent("t1", amqp.ActionDeleted)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(sink.Items()) != 0 {
		t.Fatal("delete events should not be exported")
	}
}

func TestHandleEvent_MissingTransactionIsNotAnError(t *testing.T) {
	store := newFakeStore()
	sink := exportmem.New()
	w := NewExportWorker(store, sink, 10)

	msg := amqp.NewTransactionEvent("ghost", amqp.ActionCreated)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("missing transaction should be swallowed, got %v", err)
	}
	if len(sink.Items()) != 0 {
		t.Fatal("nothing should be exported")
	}
}

func TestProcessPending_ExportsBacklog(t *testing.T) {
	store := newFakeStore(expenseTx("t1"), expenseTx("t2"))
	sink := exportmem.New()
	w := NewExportWorker(store, sink, 10)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(sink.Items()) != 2 {
		t.Fatalf("expected two exports, got %d", len(sink.Items()))
	}

	// Second sweep finds nothing.
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(sink.Items()) != 2 {
		t.Fatalf("backlog should not be re-exported, got %d", len(sink.Items()))
	}
}

func TestExport_MarkFailureDoesNotFailEvent(t *testing.T) {
	store := newFakeStore(expenseTx("t1"))
	store.markErr = errors.New("disk full")
	sink := exportmem.New()
	w := NewExportWorker(store, sink, 10)

	msg := amqp.NewTransactionEvent("t1", amqp.ActionCreated)
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("mark failure should not fail the event: %v", err)
	}
	if len(sink.Items()) != 1 {
		t.Fatal("export should still have happened")
	}
}
