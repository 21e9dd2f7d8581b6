package launchpad

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"sui-launchpad/internal/sui"
)

// ErrNoWallet is returned when a mutating action is attempted without
// a connected wallet.
var ErrNoWallet = errors.New("launchpad: no wallet connected")

// ErrInvalidSignature is returned when a wallet hands back a signature
// that cannot be valid on-chain. Rejected before the RPC call so a
// broken wallet never burns a write.
var ErrInvalidSignature = errors.New("launchpad: invalid transaction signature")

// Serialized signature layout: scheme flag, then the signature, then
// the public key. Only the ed25519 scheme is checked; other schemes
// pass through for the node to verify.
const (
	ed25519SchemeFlag    = 0x00
	ed25519SerializedLen = 1 + 64 + 32
)

func validateSignature(serialized string) error {
	raw, err := base64.StdEncoding.DecodeString(serialized)
	if err != nil {
		return fmt.Errorf("%w: not base64", ErrInvalidSignature)
	}
	if len(raw) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidSignature)
	}
	if raw[0] != ed25519SchemeFlag {
		return nil
	}
	if len(raw) != ed25519SerializedLen {
		return fmt.Errorf("%w: %d bytes, want %d", ErrInvalidSignature, len(raw), ed25519SerializedLen)
	}
	if !sui.IsOnCurvePubKey(raw[1+64:]) {
		return fmt.Errorf("%w: public key not on curve", ErrInvalidSignature)
	}
	return nil
}

// TxSigner turns a protocol action into signed transaction bytes. The
// wallet owns key material; the service never sees it.
type TxSigner interface {
	Sign(ctx context.Context, action string, args map[string]interface{}) (txBytes string, signatures []string, err error)
}

// ClientSubmitter signs actions through a wallet and executes them via
// the RPC client. Execution is a write and is never silently retried;
// the caller sees every failure.
type ClientSubmitter struct {
	client sui.Client
	signer TxSigner
}

var _ Submitter = (*ClientSubmitter)(nil)

// NewClientSubmitter pairs a wallet signer with an RPC client.
func NewClientSubmitter(client sui.Client, signer TxSigner) *ClientSubmitter {
	return &ClientSubmitter{client: client, signer: signer}
}

// Submit signs and executes one protocol action.
func (s *ClientSubmitter) Submit(ctx context.Context, action string, args map[string]interface{}) (*sui.ExecuteResult, error) {
	txBytes, signatures, err := s.signer.Sign(ctx, action, args)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", action, err)
	}
	for _, sig := range signatures {
		if err := validateSignature(sig); err != nil {
			return nil, fmt.Errorf("sign %s: %w", action, err)
		}
	}
	return s.client.ExecuteTransaction(ctx, txBytes, signatures)
}

// ReadOnlySubmitter rejects every action. Used by monitoring tools that
// run the service without a wallet.
type ReadOnlySubmitter struct{}

var _ Submitter = ReadOnlySubmitter{}

func (ReadOnlySubmitter) Submit(_ context.Context, action string, _ map[string]interface{}) (*sui.ExecuteResult, error) {
	return nil, fmt.Errorf("%w: cannot submit %s", ErrNoWallet, action)
}
