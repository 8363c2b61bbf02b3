package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"spendtrack/internal/amqp"
	"spendtrack/internal/core"
	"spendtrack/internal/export"
)

// ExportStore is the slice of the storage layer the worker needs.
type ExportStore interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListPendingExport(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkExported(ctx context.Context, id string) error
}

// EventSource delivers transaction events until the context is done.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(*amqp.TransactionEvent) error) error
}

// ExportWorker mirrors ledger writes to the export sink. Events arrive
// over AMQP; a periodic sweep of unexported rows covers lost messages.
type ExportWorker struct {
	store     ExportStore
	sink      export.TransactionAppender
	batchSize int
}

func NewExportWorker(store ExportStore, sink export.TransactionAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		store:     store,
		sink:      sink,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single transaction event from AMQP.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"transaction_id", msg.ID,
		"action", msg.Action)

	if msg.Action == amqp.ActionDeleted {
		// Deletions are not propagated to the sheet; the row stays as
		// an audit trail.
		slog.InfoContext(ctx, "Skipping export for deleted transaction", "transaction_id", msg.ID)
		return nil
	}

	t, err := w.store.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted between publish and consume; nothing to export.
		slog.WarnContext(ctx, "Transaction gone before export", "transaction_id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.exportTransaction(ctx, t)
}

// ProcessPending exports any transactions that were never exported.
// Backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending export: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, t := range pending {
		if err := w.exportTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction",
				"transaction_id", t.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupCheck sweeps a larger batch once at worker startup to recover
// from downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.ListPendingExport(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending export for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending exports on startup", "count", len(pending))

	exported := 0
	failed := 0
	for _, t := range pending {
		if err := w.exportTransaction(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to export transaction during startup",
				"transaction_id", t.ID, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(pending),
		"exported", exported,
		"errors", failed)
	return nil
}

// Run consumes events and sweeps pending exports until ctx is done.
func (w *ExportWorker) Run(ctx context.Context, source EventSource, sweepInterval time.Duration) error {
	if err := w.StartupCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export check failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return source.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEvent) error {
			return w.HandleEvent(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending export sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

func (w *ExportWorker) exportTransaction(ctx context.Context, t core.Transaction) error {
	ref, err := w.sink.Append(ctx, t)
	if err != nil {
		return fmt.Errorf("append to export sink: %w", err)
	}

	if err := w.store.MarkExported(ctx, t.ID); err != nil {
		// The export itself worked; the row will be re-exported on the
		// next sweep.
		slog.ErrorContext(ctx, "Failed to mark as exported",
			"transaction_id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"transaction_id", t.ID,
		"row_ref", ref,
		"amount_cents", t.Amount.Cents)
	return nil
}
