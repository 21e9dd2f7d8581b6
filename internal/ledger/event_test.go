package ledger

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"sui-launchpad/internal/sui"
)

func testEnvelope(eventType, payload string) *sui.EventEnvelope {
	return &sui.EventEnvelope{
		TxDigest:    "5KqB8sGxZm2nF3jWvYt7cRd9pLhA4eXu6oM1iNbVQkzH",
		EventSeq:    0,
		TimestampMs: 1_700_000_000_000,
		Type:        eventType,
		ParsedJSON:  json.RawMessage(payload),
	}
}

func TestDecodeEnvelope_Buy(t *testing.T) {
	env := testEnvelope("0xpkg::launchpad::BuyEvent",
		`{"token_id":"0xtoken","trader":"0xalice","amount":"100000000"}`)

	e, err := DecodeEnvelope(env)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if e.Kind != KindBuy {
		t.Errorf("expected buy, got %s", e.Kind)
	}
	if e.TokenID != "0xtoken" || e.Actor != "0xalice" {
		t.Errorf("fields not decoded: %+v", e)
	}
	if e.Amount != 100_000_000 {
		t.Errorf("expected amount 100M, got %g", e.Amount)
	}
}

func TestDecodeEnvelope_Sell(t *testing.T) {
	env := testEnvelope("0xpkg::launchpad::SellEvent",
		`{"token_id":"0xtoken","trader":"0xbob","amount":"5"}`)

	e, err := DecodeEnvelope(env)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if e.Kind != KindSell {
		t.Errorf("expected sell, got %s", e.Kind)
	}
}

func TestDecodeEnvelope_FailsClosed(t *testing.T) {
	cases := []struct {
		name    string
		env     *sui.EventEnvelope
		wantErr error
	}{
		{
			"unknown event type",
			testEnvelope("0xpkg::launchpad::MigrateEvent", `{}`),
			ErrUnknownEventType,
		},
		{
			"invalid json",
			testEnvelope("0xpkg::launchpad::BuyEvent", `{not json`),
			ErrMalformedEvent,
		},
		{
			"missing token id",
			testEnvelope("0xpkg::launchpad::BuyEvent", `{"trader":"0xa","amount":"1"}`),
			ErrMalformedEvent,
		},
		{
			"missing trader",
			testEnvelope("0xpkg::launchpad::BuyEvent", `{"token_id":"0xt","amount":"1"}`),
			ErrMalformedEvent,
		},
		{
			"non-numeric amount",
			testEnvelope("0xpkg::launchpad::BuyEvent", `{"token_id":"0xt","trader":"0xa","amount":"abc"}`),
			ErrMalformedEvent,
		},
		{
			"zero amount",
			testEnvelope("0xpkg::launchpad::BuyEvent", `{"token_id":"0xt","trader":"0xa","amount":"0"}`),
			ErrMalformedEvent,
		},
		{
			"nil envelope",
			nil,
			ErrMalformedEvent,
		},
	}

	for _, tc := range cases {
		if _, err := DecodeEnvelope(tc.env); !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestDecodeEnvelope_MissingTimestamp(t *testing.T) {
	env := testEnvelope("0xpkg::launchpad::BuyEvent",
		`{"token_id":"0xt","trader":"0xa","amount":"1"}`)
	env.TimestampMs = 0

	if _, err := DecodeEnvelope(env); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("expected ErrMalformedEvent for zero timestamp, got %v", err)
	}
}

func TestDecodeEnvelope_RejectsBadDigest(t *testing.T) {
	for _, digest := range []string{
		"",
		"not-base58-0OIl",
		"2g", // valid base58, far shorter than 32 bytes
	} {
		env := testEnvelope("0xpkg::launchpad::BuyEvent",
			`{"token_id":"0xt","trader":"0xa","amount":"1"}`)
		env.TxDigest = digest

		if _, err := DecodeEnvelope(env); !errors.Is(err, ErrMalformedEvent) {
			t.Errorf("digest %q: expected ErrMalformedEvent, got %v", digest, err)
		}
	}
}

func TestDecodeAll_SkipsMalformed(t *testing.T) {
	envs := []*sui.EventEnvelope{
		testEnvelope("0xpkg::launchpad::BuyEvent",
			`{"token_id":"0xt","trader":"0xa","amount":"10"}`),
		testEnvelope("0xpkg::launchpad::BuyEvent", `{broken`),
		testEnvelope("0xpkg::launchpad::SellEvent",
			`{"token_id":"0xt","trader":"0xa","amount":"5"}`),
	}

	events, skipped := DecodeAll(envs, zerolog.Nop())
	if len(events) != 2 {
		t.Errorf("expected 2 decoded events, got %d", len(events))
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", skipped)
	}
}
