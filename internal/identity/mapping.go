package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"sui-launchpad/internal/domain"
	"sui-launchpad/internal/kv"
	"sui-launchpad/internal/sui"
)

// Key layout in the KV port. The primary record is keyed by the
// Ethereum address; two secondary indexes give name -> eth and
// eth -> sui lookups.
const (
	mappingPrimaryPrefix = "walletmap:addr:"
	mappingNamePrefix    = "walletmap:name:"
	mappingTargetPrefix  = "walletmap:target:"
)

// Mapping errors.
var (
	// ErrUnmapped is returned when a resolution hop has no entry.
	ErrUnmapped = errors.New("no mapping for input")

	// ErrInvalidMapping is returned when a mapping fails validation.
	ErrInvalidMapping = errors.New("invalid mapping")
)

// MappingStore persists name <-> chain-account mappings in the KV port.
// Nothing here is authoritative: the store is an advisory cache and all
// read paths tolerate it being empty or cleared.
type MappingStore struct {
	store  kv.Store
	logger zerolog.Logger
}

// NewMappingStore creates a mapping store over the given KV port.
func NewMappingStore(store kv.Store, logger zerolog.Logger) *MappingStore {
	return &MappingStore{
		store:  store,
		logger: logger.With().Str("component", "mapping-store").Logger(),
	}
}

// Save writes the primary record plus both secondary indexes. The write
// is atomic from the caller's point of view: if any key fails, already
// written keys are rolled back best-effort and the operation reports
// failed. Partial-index states are never valid.
func (m *MappingStore) Save(ctx context.Context, mapping *domain.WalletMapping) error {
	if err := validateMapping(mapping); err != nil {
		return err
	}

	record, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	// Names are case-insensitive: the index key is lowercased so a
	// mixed-case save and a lowercase Resolve meet at the same entry,
	// and case variants of one name cannot index to different owners.
	ethKey := strings.ToLower(mapping.EthAddress)
	nameKey := strings.ToLower(mapping.ENSName)
	writes := []struct{ key, value string }{
		{mappingNamePrefix + nameKey, ethKey},
		{mappingTargetPrefix + ethKey, mapping.SuiAddress},
		{mappingPrimaryPrefix + ethKey, string(record)},
	}

	var written []string
	for _, w := range writes {
		if err := m.store.Set(ctx, w.key, w.value); err != nil {
			for _, k := range written {
				if rmErr := m.store.Remove(ctx, k); rmErr != nil {
					m.logger.Warn().Err(rmErr).Str("key", k).Msg("rollback failed, index may dangle")
				}
			}
			return fmt.Errorf("save mapping: %w", err)
		}
		written = append(written, w.key)
	}

	return nil
}

// Lookup retrieves the mapping for an Ethereum address.
func (m *MappingStore) Lookup(ctx context.Context, ethAddress string) (*domain.WalletMapping, error) {
	record, err := m.store.Get(ctx, mappingPrimaryPrefix+strings.ToLower(ethAddress))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, ErrUnmapped
		}
		return nil, fmt.Errorf("lookup mapping: %w", err)
	}

	var mapping domain.WalletMapping
	if err := json.Unmarshal([]byte(record), &mapping); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return &mapping, nil
}

// Resolve redirects a name to its Sui account. Inputs matching the name
// suffix take the two-hop path (name -> eth address -> sui address) and
// fail with ErrUnmapped if either hop misses; anything else is already a
// target-chain address and is returned unchanged.
func (m *MappingStore) Resolve(ctx context.Context, nameOrAddress string) (string, error) {
	if !strings.HasSuffix(nameOrAddress, NameSuffix) {
		return nameOrAddress, nil
	}

	ethAddress, err := m.store.Get(ctx, mappingNamePrefix+strings.ToLower(nameOrAddress))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", fmt.Errorf("%w: name %q", ErrUnmapped, nameOrAddress)
		}
		return "", fmt.Errorf("resolve name hop: %w", err)
	}

	suiAddress, err := m.store.Get(ctx, mappingTargetPrefix+ethAddress)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", fmt.Errorf("%w: address %q", ErrUnmapped, ethAddress)
		}
		return "", fmt.Errorf("resolve target hop: %w", err)
	}

	return suiAddress, nil
}

// Remove deletes the primary record and both secondary indexes so no
// dangling entries survive.
func (m *MappingStore) Remove(ctx context.Context, ethAddress string) error {
	mapping, err := m.Lookup(ctx, ethAddress)
	if err != nil {
		if errors.Is(err, ErrUnmapped) {
			return nil
		}
		return err
	}

	ethKey := strings.ToLower(mapping.EthAddress)
	for _, key := range []string{
		mappingPrimaryPrefix + ethKey,
		mappingNamePrefix + strings.ToLower(mapping.ENSName),
		mappingTargetPrefix + ethKey,
	} {
		if err := m.store.Remove(ctx, key); err != nil {
			return fmt.Errorf("remove mapping key %q: %w", key, err)
		}
	}

	return nil
}

// FindBySuiAddress scans for the mapping whose target account matches.
// Used by the reverse verification path when no Ethereum wallet is
// connected.
func (m *MappingStore) FindBySuiAddress(ctx context.Context, suiAddress string) (*domain.WalletMapping, error) {
	keys, err := m.store.ListPrefix(ctx, mappingPrimaryPrefix)
	if err != nil {
		return nil, fmt.Errorf("scan mappings: %w", err)
	}

	for _, key := range keys {
		record, err := m.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var mapping domain.WalletMapping
		if err := json.Unmarshal([]byte(record), &mapping); err != nil {
			m.logger.Warn().Str("key", key).Msg("skipping undecodable mapping record")
			continue
		}
		if mapping.SuiAddress == suiAddress {
			return &mapping, nil
		}
	}

	return nil, ErrUnmapped
}

// VerifyIdentity decides whether a cached mapping may be displayed as
// the active identity. Fail closed: with both wallets connected, both
// sides must equal the stored addresses; any mismatch suppresses the
// identity entirely. With no Ethereum wallet connected at all, the
// reverse path (sui -> mapping) alone is sufficient.
func (m *MappingStore) VerifyIdentity(ctx context.Context, connectedEth, connectedSui string) (string, bool, error) {
	if connectedSui == "" {
		return "", false, nil
	}

	if connectedEth == "" {
		mapping, err := m.FindBySuiAddress(ctx, connectedSui)
		if err != nil {
			if errors.Is(err, ErrUnmapped) {
				return "", false, nil
			}
			return "", false, err
		}
		return mapping.ENSName, true, nil
	}

	mapping, err := m.Lookup(ctx, connectedEth)
	if err != nil {
		if errors.Is(err, ErrUnmapped) {
			return "", false, nil
		}
		return "", false, err
	}

	if !strings.EqualFold(mapping.EthAddress, connectedEth) {
		return "", false, nil
	}
	if mapping.SuiAddress != connectedSui {
		return "", false, nil
	}

	return mapping.ENSName, true, nil
}

func validateMapping(mapping *domain.WalletMapping) error {
	if mapping == nil {
		return fmt.Errorf("%w: nil", ErrInvalidMapping)
	}
	if !strings.HasSuffix(mapping.ENSName, NameSuffix) {
		return fmt.Errorf("%w: name %q lacks %s suffix", ErrInvalidMapping, mapping.ENSName, NameSuffix)
	}
	if !common.IsHexAddress(mapping.EthAddress) {
		return fmt.Errorf("%w: eth address %q", ErrInvalidMapping, mapping.EthAddress)
	}
	if !sui.IsValidAddress(mapping.SuiAddress) {
		return fmt.Errorf("%w: sui address %q", ErrInvalidMapping, mapping.SuiAddress)
	}
	return nil
}
