// Package sui provides the client for the Sui fullnode: JSON-RPC event
// queries and transaction submission, plus a websocket event subscriber.
package sui

import "encoding/json"

// EventEnvelope is one protocol event as returned by the fullnode.
// ParsedJSON carries the Move event payload and is decoded by the
// ledger layer against a per-event-type schema.
type EventEnvelope struct {
	TxDigest    string          // base58 transaction digest
	EventSeq    int             // index of the event within its transaction
	TimestampMs int64           // Unix timestamp in milliseconds
	Type        string          // fully-qualified Move event type
	ParsedJSON  json.RawMessage // event payload
}

// EventFilter selects events by Move type.
type EventFilter struct {
	EventType  string // fully-qualified Move event type
	Descending bool   // result order; callers re-sort before replay regardless
	Limit      int    // 0 = server default
}

// ObjectState is the field map of an on-chain object.
type ObjectState struct {
	ObjectID string
	Version  int64
	Fields   map[string]json.RawMessage
}

// ExecuteResult is the outcome of a submitted transaction.
type ExecuteResult struct {
	Success        bool
	TxDigest       string
	Error          string   // execution failure message, empty on success
	CreatedObjects []string // object IDs created by the transaction
}
