package identity

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// newSecret draws the 32-byte reveal secret.
func newSecret() ([32]byte, error) {
	var secret [32]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return secret, fmt.Errorf("generate commitment secret: %w", err)
	}
	return secret, nil
}

// commitmentHash derives the on-chain commitment:
// keccak256(labelHash || owner || duration || secret || resolver).
// The registrar contract recomputes the same digest on reveal.
func commitmentHash(label string, owner common.Address, durationSeconds uint64, secret [32]byte, resolver common.Address) common.Hash {
	labelHash := crypto.Keccak256([]byte(label))

	var duration [8]byte
	binary.BigEndian.PutUint64(duration[:], durationSeconds)

	return common.BytesToHash(crypto.Keccak256(
		labelHash,
		owner.Bytes(),
		duration[:],
		secret[:],
		resolver.Bytes(),
	))
}
