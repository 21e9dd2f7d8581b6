package sui

import "context"

// Client is the fullnode interface used by the launchpad services.
type Client interface {
	// QueryEvents returns events matching the filter, paginating through
	// the fullnode cursor until the filter limit or the final page.
	QueryEvents(ctx context.Context, filter EventFilter) ([]EventEnvelope, error)

	// GetObject fetches the current state of an on-chain object.
	GetObject(ctx context.Context, objectID string) (*ObjectState, error)

	// ExecuteTransaction submits a signed transaction and waits for
	// local execution. Never retried: a timed-out submission may still
	// land on-chain, so the caller decides how to re-drive it.
	ExecuteTransaction(ctx context.Context, txBytes string, signatures []string) (*ExecuteResult, error)
}
