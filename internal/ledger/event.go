// Package ledger reconstructs trades, balances and candles from the raw
// launch-protocol event log. Replay is deterministic: the same event
// list always produces the same result.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"sui-launchpad/internal/observability"
	"sui-launchpad/internal/sui"
)

// Kind discriminates decoded event variants.
type Kind string

// Event kind constants.
const (
	KindBuy  Kind = "buy"
	KindSell Kind = "sell"
)

// Move event type suffixes emitted by the launch package.
const (
	buyEventSuffix  = "::launchpad::BuyEvent"
	sellEventSuffix = "::launchpad::SellEvent"
)

// Decode errors.
var (
	// ErrUnknownEventType is returned for Move types the ledger does not track.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrMalformedEvent is returned when a payload fails schema validation.
	ErrMalformedEvent = errors.New("malformed event payload")
)

// Event is a schema-validated trade event ready for replay.
type Event struct {
	Kind        Kind
	TokenID     string
	Actor       string
	Amount      float64 // token units, always positive
	TimestampMs int64
	TxDigest    string
	EventIndex  int
}

// tradePayload is the Move event payload schema shared by buys and sells.
// Amounts arrive as u64 decimal strings.
type tradePayload struct {
	TokenID string `json:"token_id"`
	Trader  string `json:"trader"`
	Amount  string `json:"amount"`
}

// DecodeEnvelope validates one raw envelope against the trade-event
// schema and produces a tagged Event. Fails closed: any missing or
// unparsable field is ErrMalformedEvent, never a defaulted zero.
func DecodeEnvelope(env *sui.EventEnvelope) (*Event, error) {
	if env == nil {
		return nil, ErrMalformedEvent
	}

	var kind Kind
	switch {
	case strings.HasSuffix(env.Type, buyEventSuffix):
		kind = KindBuy
	case strings.HasSuffix(env.Type, sellEventSuffix):
		kind = KindSell
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEventType, env.Type)
	}

	var payload tradePayload
	if err := json.Unmarshal(env.ParsedJSON, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if payload.TokenID == "" || payload.Trader == "" || payload.Amount == "" {
		return nil, fmt.Errorf("%w: missing field", ErrMalformedEvent)
	}

	amount, err := strconv.ParseFloat(payload.Amount, 64)
	if err != nil || amount <= 0 {
		return nil, fmt.Errorf("%w: bad amount %q", ErrMalformedEvent, payload.Amount)
	}

	if env.TimestampMs <= 0 {
		return nil, fmt.Errorf("%w: missing timestamp", ErrMalformedEvent)
	}

	if !sui.IsValidDigest(env.TxDigest) {
		return nil, fmt.Errorf("%w: bad digest %q", ErrMalformedEvent, env.TxDigest)
	}

	return &Event{
		Kind:        kind,
		TokenID:     payload.TokenID,
		Actor:       payload.Trader,
		Amount:      amount,
		TimestampMs: env.TimestampMs,
		TxDigest:    env.TxDigest,
		EventIndex:  env.EventSeq,
	}, nil
}

// DecodeAll decodes a batch of envelopes. Malformed envelopes are
// skipped with a logged warning, not fatal; the skipped count is
// returned alongside the decoded events.
func DecodeAll(envs []*sui.EventEnvelope, logger zerolog.Logger) ([]*Event, int) {
	var events []*Event
	skipped := 0

	for _, env := range envs {
		e, err := DecodeEnvelope(env)
		if err != nil {
			skipped++
			observability.RecordEventSkipped("malformed")
			logger.Warn().
				Err(err).
				Str("tx_digest", envDigest(env)).
				Msg("skipping undecodable event")
			continue
		}
		observability.RecordEventDecoded(string(e.Kind))
		events = append(events, e)
	}

	return events, skipped
}

func envDigest(env *sui.EventEnvelope) string {
	if env == nil {
		return ""
	}
	return env.TxDigest
}
