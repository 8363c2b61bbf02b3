package backend

import (
	"context"
	"fmt"
	"log/slog"

	"spendtrack/internal/amqp"
	"spendtrack/internal/ledger"
	"spendtrack/internal/memory"
	"spendtrack/internal/storage"
	"spendtrack/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	events, eventsCleanup := f.initEvents(config)

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"amqp_enabled", events != nil)

	return &Result{
		Store:  repo,
		Events: events,
		Cleanup: func() error {
			if eventsCleanup != nil {
				eventsCleanup()
			}
			return repo.Close()
		},
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*Result, error) {
	repo, err := postgres.NewRepository(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres repository: %w", err)
	}

	events, eventsCleanup := f.initEvents(config)

	f.logger.Info("Initialized postgres backend", "amqp_enabled", events != nil)

	return &Result{
		Store:  repo,
		Events: events,
		Cleanup: func() error {
			if eventsCleanup != nil {
				eventsCleanup()
			}
			return repo.Close()
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*Result, error) {
	f.logger.Info("Initialized memory backend")
	return &Result{
		Store: memory.New(),
	}, nil
}

// initEvents wires up the AMQP publisher when configured. A failed
// connection logs a warning and the service runs without events.
func (f *DefaultFactory) initEvents(config Config) (ledger.EventPublisher, func() error) {
	if config.AMQPURL == "" {
		return nil, nil
	}

	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		return nil, nil
	}

	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return client, client.Close
}
