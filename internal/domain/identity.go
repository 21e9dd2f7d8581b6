package domain

// WalletMapping links an ENS name and its Ethereum owner address to a
// Sui account. Keyed primarily by EthAddress; the store maintains
// secondary indexes ensName -> EthAddress and EthAddress -> SuiAddress.
// At most one active mapping exists per EthAddress.
type WalletMapping struct {
	ENSName     string // normalized name including the .eth suffix
	EthAddress  string // checksummed 0x address on Ethereum
	SuiAddress  string // 0x-prefixed 32-byte hex address on Sui
	CreatedAtMs int64  // Unix timestamp in milliseconds
}

// RegistrationCommitment is the client-side half of the commit-reveal
// registration flow. Created on commit submission, deleted on a
// successful reveal.
type RegistrationCommitment struct {
	Label           string   // normalized label without the .eth suffix
	Owner           string   // 0x address that will own the name
	DurationSeconds uint64   // registration duration
	Secret          [32]byte // random reveal secret
	Resolver        string   // resolver contract address
	CommitmentHash  string   // 0x-prefixed keccak256 commitment
	CreatedAtMs     int64    // commit submission time, gates the reveal
}
