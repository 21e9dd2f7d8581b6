package ledger

import (
	"errors"
	"sort"
)

// ErrInvalidOrdering is returned when events are not properly ordered.
var ErrInvalidOrdering = errors.New("events are not in deterministic order")

// SortEvents orders events by (timestamp ASC, tx_digest ASC,
// event_index ASC, kind ASC). Timestamp ties are broken
// deterministically so repeated replays agree.
func SortEvents(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return compareEvents(events[i], events[j]) < 0
	})
}

// MergeEvents combines independently-fetched buy and sell streams into
// one sorted stream. Arrival order never reflects chronological order
// across separate queries, so the merge always re-sorts.
func MergeEvents(buys, sells []*Event) []*Event {
	events := make([]*Event, 0, len(buys)+len(sells))
	events = append(events, buys...)
	events = append(events, sells...)
	SortEvents(events)
	return events
}

// ValidateOrdering checks that events are strictly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateOrdering(events []*Event) error {
	for i := 1; i < len(events); i++ {
		if compareEvents(events[i-1], events[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp ASC, tx_digest ASC, event_index ASC, kind ASC)
func compareEvents(a, b *Event) int {
	if a.TimestampMs != b.TimestampMs {
		if a.TimestampMs < b.TimestampMs {
			return -1
		}
		return 1
	}
	if a.TxDigest != b.TxDigest {
		if a.TxDigest < b.TxDigest {
			return -1
		}
		return 1
	}
	if a.EventIndex != b.EventIndex {
		if a.EventIndex < b.EventIndex {
			return -1
		}
		return 1
	}
	if a.Kind != b.Kind {
		if a.Kind < b.Kind {
			return -1
		}
		return 1
	}
	return 0
}
