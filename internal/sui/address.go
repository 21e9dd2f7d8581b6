package sui

import (
	"strings"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const addressHexLength = 64

// IsValidAddress reports whether s is a well-formed Sui address:
// 0x prefix followed by 64 hex characters.
func IsValidAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") {
		return false
	}
	body := s[2:]
	if len(body) != addressHexLength {
		return false
	}
	for _, c := range body {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// IsValidDigest reports whether s is a well-formed transaction digest:
// base58 encoding of exactly 32 bytes.
func IsValidDigest(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}

// IsOnCurvePubKey reports whether the 32-byte value is a valid ed25519
// curve point, i.e. a plausible signing key rather than a derived
// object address.
func IsOnCurvePubKey(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
