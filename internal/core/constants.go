package core

// Protocol constants. These values are consensus-critical and fixed across
// every node on the network; do not change without a network-wide upgrade.
const (
	// AddressVersionBytes prefixes every address payload before Base58 encoding,
	// chosen so encoded addresses read "BLoCK1...".
	// (see AddressVersionBytes below for the concrete array)

	// WIFVersionPrefix prefixes a private key before WIF encoding.
	WIFVersionPrefix = 0x80
	// WIFCompressedSuffix is appended to a WIF payload when the private key
	// derives a compressed-public-key address.
	WIFCompressedSuffix = 0x01

	// TransactionVersion is the only transaction wire version this node emits.
	TransactionVersion = 0x01
	// BlockVersion is the only block header version this node emits.
	BlockVersion = 0x01

	// HalvingInterval is the number of blocks between subsidy halvings.
	HalvingInterval = 210_000
	// LowestDenominationPerCoin is the number of smallest units in one coin.
	LowestDenominationPerCoin = 100_000_000
	// InitialSubsidy is the block reward before any halving, in smallest units.
	InitialSubsidy = 50 * LowestDenominationPerCoin

	// BootstrappingPhaseBlockHeight is the height at which uniform-rotation
	// proposer selection and unrestricted staking amounts end.
	BootstrappingPhaseBlockHeight = 105_000
	// MinimumStakingAmount is the minimum stake required to enable validation
	// once the bootstrapping phase has ended.
	MinimumStakingAmount = 3_200_000_000

	// MaxTransactionsPerBlock bounds block assembly, coinbase included.
	MaxTransactionsPerBlock = 2_000

	// ProposerBaseTimingSeconds and ProposerTimingStepSeconds parameterize the
	// fallback timing rule: a proposer found at fallback iteration i must be
	// at least ProposerBaseTimingSeconds + i*ProposerTimingStepSeconds after
	// its parent.
	ProposerBaseTimingSeconds = 300
	ProposerTimingStepSeconds = 120
)

// AddressVersionBytes is the 5-byte version prefix for every address payload.
var AddressVersionBytes = [5]byte{0x03, 0xED, 0x73, 0x45, 0xC0}

// LooseChange is the sentinel address credited with fees from blocks whose
// first transaction is not a valid coinbase.
var LooseChange = Address{}

// ValidatorEnableRecipient is the sentinel escrow address for active stake;
// all-zero except the final byte, which is 0x01.
var ValidatorEnableRecipient = func() Address {
	var a Address
	a[AddressSize-1] = 0x01
	return a
}()

// ValidatorRevokeRecipient is the sentinel address a validator_revoke
// transaction must pay to; all-zero except the final byte, which is 0x02.
var ValidatorRevokeRecipient = func() Address {
	var a Address
	a[AddressSize-1] = 0x02
	return a
}()

// CoinbaseSender is the all-zero sender placeholder on coinbase transactions.
// It is never a valid secp256k1 public key and verification must never try
// to ECDSA-verify against it.
var CoinbaseSender = PublicKey{}

// Subsidy returns the block reward in smallest units for a block about to
// be produced at the given height (the chain height *after* the block is
// applied), halving every HalvingInterval blocks and dropping to zero once
// halved past 63 times.
func Subsidy(height uint64) uint64 {
	halvings := height / HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return InitialSubsidy >> halvings
}
