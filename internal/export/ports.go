package export

import (
	"context"

	"spendtrack/internal/core"
)

// TransactionAppender is the outbound port for export sinks. Deletions are
// never propagated; exported rows stay behind as an audit trail.
type TransactionAppender interface {
	Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
}
