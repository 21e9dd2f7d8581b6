package identity

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// controllerABI is the surface of the registrar controller contract the
// client needs: the commit and reveal entry points.
const controllerABI = `[
	{"name":"commit","type":"function","inputs":[{"name":"commitment","type":"bytes32"}]},
	{"name":"register","type":"function","inputs":[
		{"name":"label","type":"string"},
		{"name":"owner","type":"address"},
		{"name":"duration","type":"uint256"},
		{"name":"secret","type":"bytes32"},
		{"name":"resolver","type":"address"}
	]}
]`

// EthController submits commit and register transactions to the name
// controller contract. It satisfies the Controller interface used by
// the Registrar.
type EthController struct {
	contract *bind.BoundContract
	auth     *bind.TransactOpts
	logger   zerolog.Logger
}

var _ Controller = (*EthController)(nil)

// NewEthController connects to an Ethereum endpoint and binds the
// controller contract. privateKeyHex signs the transactions.
func NewEthController(ctx context.Context, rpcURL, contractAddress, privateKeyHex string, logger zerolog.Logger) (*EthController, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("%w: controller contract %q", ErrInvalidAddress, contractAddress)
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum endpoint: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain ID: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(controllerABI))
	if err != nil {
		return nil, fmt.Errorf("parse controller ABI: %w", err)
	}

	return &EthController{
		contract: bind.NewBoundContract(common.HexToAddress(contractAddress), parsed, client, client, client),
		auth:     auth,
		logger:   logger.With().Str("component", "eth_controller").Logger(),
	}, nil
}

// SubmitCommitment sends the commitment digest on-chain. Not retried:
// a resubmitted commitment would reset the reveal timer.
func (c *EthController) SubmitCommitment(ctx context.Context, commitment common.Hash) error {
	opts := *c.auth
	opts.Context = ctx

	tx, err := c.contract.Transact(&opts, "commit", commitment)
	if err != nil {
		return fmt.Errorf("submit commitment: %w", err)
	}
	c.logger.Info().Str("tx_hash", tx.Hash().Hex()).Msg("commitment submitted")
	return nil
}

// Register reveals the commitment preimage and claims the name.
func (c *EthController) Register(ctx context.Context, label string, owner common.Address, durationSeconds uint64, secret [32]byte, resolver common.Address) error {
	opts := *c.auth
	opts.Context = ctx

	tx, err := c.contract.Transact(&opts, "register",
		label, owner, new(big.Int).SetUint64(durationSeconds), secret, resolver)
	if err != nil {
		return fmt.Errorf("submit registration: %w", err)
	}
	c.logger.Info().Str("tx_hash", tx.Hash().Hex()).Str("label", label).Msg("registration submitted")
	return nil
}
