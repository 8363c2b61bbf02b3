package backend

import (
	"context"

	"spendtrack/internal/ledger"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result bundles the created store with its optional event publisher
// and cleanup.
type Result struct {
	Store   ledger.Store
	Events  ledger.EventPublisher
	Cleanup CleanupFunc
}

// Factory creates storage backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string

	// AMQP event publishing (optional for sqlite and postgres)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type selects the storage backend.
type Type string

const (
	MemoryBackend   Type = "memory"
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}
