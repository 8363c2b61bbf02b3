package amqp

import "context"

// The ledger service publishes through these. Kept as thin wrappers so
// the service port stays free of wire-level detail.

func (c *Client) PublishTransactionCreated(ctx context.Context, id string) error {
	return c.PublishTransactionEvent(ctx, id, ActionCreated)
}

func (c *Client) PublishTransactionDeleted(ctx context.Context, id string) error {
	return c.PublishTransactionEvent(ctx, id, ActionDeleted)
}
