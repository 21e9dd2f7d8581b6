// Package identity implements the commit-reveal name registration flow
// and the cross-chain wallet mapping store with fail-closed trust
// verification.
package identity

import (
	"errors"
	"fmt"
	"strings"
)

// NameSuffix is the TLD appended to registered labels.
const NameSuffix = ".eth"

// MinLabelLength is the minimum normalized label length.
const MinLabelLength = 3

// ErrInvalidLabel is returned when a label fails validation. This is a
// configuration error: rejected before any network call, never retried.
var ErrInvalidLabel = errors.New("invalid label")

// NormalizeLabel lowercases and trims a label, stripping a trailing
// name suffix if the caller included one.
func NormalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	return strings.TrimSuffix(label, NameSuffix)
}

// ValidateLabel checks a normalized label: at least 3 characters,
// lowercase alphanumerics and internal hyphens only.
func ValidateLabel(label string) error {
	if len(label) < MinLabelLength {
		return fmt.Errorf("%w: %q is shorter than %d characters", ErrInvalidLabel, label, MinLabelLength)
	}
	if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return fmt.Errorf("%w: %q has a leading or trailing hyphen", ErrInvalidLabel, label)
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return fmt.Errorf("%w: %q contains disallowed character %q", ErrInvalidLabel, label, r)
		}
	}
	return nil
}
