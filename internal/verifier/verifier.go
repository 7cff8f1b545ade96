// Package verifier implements the pure classification predicates and the
// verify_transaction / verify_block admissibility rules. Verifier never
// mutates a Ledger; it reads a snapshot and returns a kind of error or nil.
// Per-transaction application of a verified block is orchestrated by the
// statetransition package, which interleaves calls back into this package's
// VerifyTransaction with its own per-class effects.
package verifier

import (
	"bytes"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"empower1.com/empower1blockchain/internal/addresscodec"
	"empower1.com/empower1blockchain/internal/codec"
	"empower1.com/empower1blockchain/internal/core"
	internalerrors "empower1.com/empower1blockchain/internal/errors"
	"empower1.com/empower1blockchain/internal/proposer"
)

// AccountView is the minimal read-only ledger surface the verifier needs.
// *ledger.Ledger satisfies this, as does any snapshot/clone of one.
type AccountView interface {
	Account(addr core.Address) (core.Account, bool)
}

// RosterView is the minimal read-only view of the validator roster and tip
// height that VerifyBlockHeader needs.
type RosterView interface {
	AccountView
	LastBlock() *core.Block
	Validators() []core.PublicKey
	BlockHeight() uint64
}

// IsCoinbase reports whether tx is shaped and positioned as the block's
// coinbase: it is transaction index 0, sender is the all-zero placeholder,
// fee and nonce are zero, and amount does not exceed the subsidy owed at
// the block about to be produced (height+1).
func IsCoinbase(tx *core.Transaction, txIndex int, ledgerHeight uint64) bool {
	return txIndex == 0 && tx.IsCoinbaseShaped() && tx.Amount <= core.Subsidy(ledgerHeight+1)
}

// IsValidatorEnable reports whether tx is a validator-enable transaction:
// the sender is not already a validator, it pays the enable-escrow
// recipient, and — once the bootstrapping phase has ended — it stakes at
// least the minimum amount.
func IsValidatorEnable(tx *core.Transaction, view AccountView, ledgerHeight uint64) bool {
	if tx.Recipient != core.ValidatorEnableRecipient {
		return false
	}
	senderAddr := addresscodec.DeriveAddress(tx.Sender)
	if acc, ok := view.Account(senderAddr); ok && acc.IsValidator {
		return false
	}
	if ledgerHeight >= core.BootstrappingPhaseBlockHeight && tx.Amount < core.MinimumStakingAmount {
		return false
	}
	return true
}

// IsValidatorRevoke reports whether tx is a validator-revoke transaction:
// the sender is currently a validator, it pays the revoke recipient, and
// its amount equals exactly the sender's current stake.
func IsValidatorRevoke(tx *core.Transaction, view AccountView) bool {
	if tx.Recipient != core.ValidatorRevokeRecipient {
		return false
	}
	senderAddr := addresscodec.DeriveAddress(tx.Sender)
	acc, ok := view.Account(senderAddr)
	if !ok || !acc.IsValidator {
		return false
	}
	return tx.Amount == acc.Stake
}

// VerifySignature ECDSA-verifies sig over hash against the compressed
// public key pub. Coinbase transactions carry an all-zero sender, which is
// never a valid curve point; callers must classify coinbase first and skip
// this check entirely rather than let parsing fault.
func VerifySignature(pub core.PublicKey, hash core.Hash, sig []byte) bool {
	pubKey, err := secp256k1.ParsePubKey(pub[:])
	if err != nil {
		return false
	}
	parsedSig, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsedSig.Verify(hash[:], pubKey)
}

// VerifyTransaction checks a transaction's signature, nonce, and balance
// against view, dispatching the balance check by transaction class.
// isCoinbase must be determined by the caller (it depends on block
// position, which a bare transaction does not carry).
func VerifyTransaction(tx *core.Transaction, isCoinbase bool, view AccountView) error {
	if !isCoinbase {
		if !VerifySignature(tx.Sender, codec.TxSigningHash(tx), tx.Signature) {
			return fmt.Errorf("transaction: %w", internalerrors.ErrBadSignature)
		}
	}

	senderAddr := addresscodec.DeriveAddress(tx.Sender)
	senderAcc, hasSender := view.Account(senderAddr)

	if !isCoinbase {
		var currentNonce uint64
		if hasSender {
			currentNonce = senderAcc.Nonce
		}
		if tx.Nonce != currentNonce {
			return fmt.Errorf("transaction nonce %d, expected %d: %w", tx.Nonce, currentNonce, internalerrors.ErrNonceMismatch)
		}
	}

	switch {
	case isCoinbase:
		return nil
	case tx.Recipient == core.ValidatorEnableRecipient:
		var balance uint64
		if hasSender {
			balance = senderAcc.Balance
		}
		if balance < tx.Amount+tx.Fee {
			return fmt.Errorf("validator_enable: %w", internalerrors.ErrInsufficientFunds)
		}
	case IsValidatorRevoke(tx, view):
		if !hasSender || senderAcc.Balance < tx.Fee {
			return fmt.Errorf("validator_revoke: %w", internalerrors.ErrInsufficientFunds)
		}
	default:
		if !hasSender || senderAcc.Balance < tx.Amount+tx.Fee {
			return fmt.Errorf("plain transaction: %w", internalerrors.ErrInsufficientFunds)
		}
	}
	return nil
}

// BlockHeaderResult carries what VerifyBlockHeader established, so
// statetransition doesn't need to recompute the block hash or re-run the
// proposer loop.
type BlockHeaderResult struct {
	ProposerPubKey core.PublicKey
	Iteration      int
}

// VerifyBlockHeader checks a block's parent linkage, Merkle commitment, and
// the proposer verification loop with its timing rule. It does not touch
// transactions — per-transaction verification is interleaved with
// application by the caller, since each transaction's admissibility
// depends on the effects of the ones before it in the same block.
func VerifyBlockHeader(block *core.Block, view RosterView) (BlockHeaderResult, error) {
	last := view.LastBlock()
	if last == nil {
		return BlockHeaderResult{}, fmt.Errorf("verify_block: %w", internalerrors.ErrNoGenesis)
	}
	lastHash := codec.HashHeader(&last.Header)
	if !bytes.Equal(lastHash[:], block.Header.PrevHash[:]) {
		return BlockHeaderResult{}, fmt.Errorf("verify_block: %w", internalerrors.ErrWrongParent)
	}

	wantRoot := codec.MerkleRoot(block.Transactions)
	if !bytes.Equal(wantRoot[:], block.Header.MerkleRoot[:]) {
		return BlockHeaderResult{}, fmt.Errorf("verify_block: %w", internalerrors.ErrBadMerkle)
	}

	blockHash := codec.HashHeader(&block.Header)
	pub, iteration, found := findVerifiedProposer(view.Validators(), view, lastHash, blockHash, block.Signature, view.BlockHeight())
	if !found {
		return BlockHeaderResult{}, fmt.Errorf("verify_block: %w", internalerrors.ErrBadProposer)
	}

	minElapsed := uint64(core.ProposerBaseTimingSeconds + iteration*core.ProposerTimingStepSeconds)
	if block.Header.Timestamp < last.Header.Timestamp ||
		block.Header.Timestamp-last.Header.Timestamp < minElapsed {
		return BlockHeaderResult{}, fmt.Errorf("verify_block: %w", internalerrors.ErrBadTimestamp)
	}

	return BlockHeaderResult{ProposerPubKey: pub, Iteration: iteration}, nil
}

// BlockValidatorAddress is the account credited with every transaction's fee
// in this block: the first transaction's recipient if it is a coinbase,
// else the LOOSE_CHANGE sentinel.
func BlockValidatorAddress(block *core.Block, ledgerHeight uint64) core.Address {
	if len(block.Transactions) > 0 && IsCoinbase(&block.Transactions[0], 0, ledgerHeight) {
		return block.Transactions[0].Recipient
	}
	return core.LooseChange
}

// findVerifiedProposer iterates proposer.CalculateProposer, removing each
// returned candidate from the working list, until one whose pubkey verifies
// the block signature over blockHash is found or the roster is exhausted.
func findVerifiedProposer(validators []core.PublicKey, lookup proposer.StakeLookup, lastBlockHash, blockHash core.Hash, signature []byte, height uint64) (core.PublicKey, int, bool) {
	working := make([]core.PublicKey, len(validators))
	copy(working, validators)

	var previous *core.PublicKey
	for i := 0; len(working) > 0; i++ {
		pub, idx, ok := proposer.CalculateProposer(working, lookup, lastBlockHash, previous, height)
		if !ok {
			return core.PublicKey{}, 0, false
		}
		if VerifySignature(pub, blockHash, signature) {
			return pub, i, true
		}
		previous = &pub
		working = append(working[:idx], working[idx+1:]...)
	}
	return core.PublicKey{}, 0, false
}
