package ledger

import (
	"fmt"
	"time"

	"empower1.com/empower1blockchain/internal/addresscodec"
	"empower1.com/empower1blockchain/internal/codec"
	"empower1.com/empower1blockchain/internal/core"
	internalerrors "empower1.com/empower1blockchain/internal/errors"
)

// canonicalGenesisBytes is the network's canonical genesis block, fixed for
// all nodes. It has no block-level signature (that field postdates this
// literal) and must deserialize, round-trip, and report block_size ==
// 0xF8, merkle_root == FD E1 1E 73 ... exactly.
var canonicalGenesisBytes = []byte{
	0x00, 0x00, 0x00, 0xF8, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xFD, 0xE1, 0x1E, 0x73, 0x72, 0x36, 0xF6, 0x78,
	0x00, 0x54, 0xB5, 0x20, 0xD8, 0xB0, 0xF5, 0xA6, 0x50, 0x07, 0xBF, 0xAA,
	0xF8, 0x17, 0x3C, 0x42, 0xEB, 0x6C, 0x4F, 0x49, 0x82, 0xE4, 0x4A, 0x52,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x7B, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x01, 0x01, 0x00, 0x00, 0x00, 0x01, 0x2A, 0x05, 0xF2,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x42, 0x4C, 0x6F,
	0x43, 0x4B, 0x31, 0x44, 0x76, 0x76, 0x4E, 0x68, 0x79, 0x4A, 0x78, 0x6F,
	0x43, 0x38, 0x34, 0x35, 0x42, 0x45, 0x48, 0x37, 0x44, 0x79, 0x32, 0x53,
	0x62, 0x44, 0x48, 0x42, 0x50, 0x70, 0x61, 0x54, 0x77, 0x34, 0x57, 0x38,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x7D, 0x3B, 0xF7,
	0x40, 0x92, 0x66, 0x67, 0xD8, 0xA2, 0xDD, 0x47, 0x10, 0x06, 0x53, 0x16,
	0x41, 0x25, 0x5A, 0xFD, 0x04, 0x32, 0x99, 0xEE, 0x00, 0xF4, 0x34, 0x06,
	0x2B, 0x2A, 0x67, 0x4F, 0xE2, 0x69, 0x03, 0xC0, 0xE5, 0x22, 0x5F, 0x71,
	0x57, 0x39, 0x1E, 0xCB, 0x09, 0xD3, 0x8F, 0x0F, 0xC1, 0xE5, 0x91, 0x14,
	0x65, 0x32, 0xD4, 0x9C, 0x20, 0x5E, 0x1E, 0xB3, 0x81, 0x12, 0x9F, 0x77,
	0x21, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// CanonicalGenesisBytes returns the canonical genesis block's wire form, for
// byte-equality comparisons during initial sync.
func CanonicalGenesisBytes() []byte {
	out := make([]byte, len(canonicalGenesisBytes))
	copy(out, canonicalGenesisBytes)
	return out
}

// CanonicalGenesisBlock decodes the canonical genesis byte literal.
func CanonicalGenesisBlock() (*core.Block, error) {
	block, err := codec.DecodeBlock(canonicalGenesisBytes)
	if err != nil {
		return nil, fmt.Errorf("canonical genesis: %w", err)
	}
	return block, nil
}

// ApplyCanonicalGenesis installs the canonical genesis block and credits its
// coinbase transaction's recipient directly (genesis is not run through
// statetransition.ApplyBlock — there is no parent block to verify prev_hash or
// proposer against).
func ApplyCanonicalGenesis(l *Ledger) error {
	block, err := CanonicalGenesisBlock()
	if err != nil {
		return err
	}
	if err := l.InstallGenesis(block); err != nil {
		return err
	}
	l.WithAccountsLocked(func(m *Mutator) {
		for _, tx := range block.Transactions {
			acc := m.Account(tx.Recipient)
			acc.Balance += tx.Amount
		}
	})
	return nil
}

// LocalGenesisParams configures a self-signed local genesis chain: a
// coinbase transaction to founderAddr followed by a self-stake
// validator_enable transaction from the same keypair. Sign signs the stake
// transaction and the block header; the coinbase carries no signature.
type LocalGenesisParams struct {
	FounderAddress core.Address
	FounderPubKey  core.PublicKey
	StakeAmount    uint64
	Sign           func(hash core.Hash) ([]byte, error)
}

// BuildLocalGenesis constructs and signs a local genesis block: prev_hash is
// all-zero, timestamp is now, and it contains a founder coinbase plus a
// self-stake validator_enable transaction. The stake transaction and the
// block are signed by the local wallet; the coinbase is unsigned. No uniqueness check prevents two operators from producing
// colliding local chains; accepted by design.
func BuildLocalGenesis(p LocalGenesisParams) (*core.Block, error) {
	coinbase := core.Transaction{
		Version:   core.TransactionVersion,
		Amount:    core.Subsidy(0),
		Fee:       0,
		Recipient: p.FounderAddress,
		Sender:    core.CoinbaseSender,
		Nonce:     0,
	}
	stake := core.Transaction{
		Version:   core.TransactionVersion,
		Amount:    p.StakeAmount,
		Fee:       0,
		Recipient: core.ValidatorEnableRecipient,
		Sender:    p.FounderPubKey,
		Nonce:     0,
	}
	sig, err := p.Sign(codec.TxSigningHash(&stake))
	if err != nil {
		return nil, fmt.Errorf("signing local genesis stake transaction: %w", internalerrors.ErrSignatureFailed)
	}
	stake.Signature = sig

	txs := []core.Transaction{coinbase, stake}
	header := core.BlockHeader{
		Version:    core.BlockVersion,
		PrevHash:   core.Hash{},
		MerkleRoot: codec.MerkleRoot(txs),
		Timestamp:  uint64(time.Now().Unix()),
	}
	block := &core.Block{
		Header:       header,
		Transactions: txs,
	}
	block.BlockSize = codec.RecomputeBlockSize(block)

	blockHash := codec.HashHeader(&block.Header)
	blockSig, err := p.Sign(blockHash)
	if err != nil {
		return nil, fmt.Errorf("signing local genesis block: %w", internalerrors.ErrSignatureFailed)
	}
	block.Signature = blockSig
	return block, nil
}

// ApplyLocalGenesis installs a local genesis block built by BuildLocalGenesis
// and applies its two transactions directly (genesis bypasses
// statetransition.ApplyBlock's parent-block bookkeeping, same as the canonical
// path, but still honors each transaction's class effects).
func ApplyLocalGenesis(l *Ledger, block *core.Block) error {
	if err := l.InstallGenesis(block); err != nil {
		return err
	}
	l.WithAccountsLocked(func(m *Mutator) {
		for _, tx := range block.Transactions {
			switch {
			case tx.IsCoinbaseShaped():
				acc := m.Account(tx.Recipient)
				acc.Balance += tx.Amount
			case tx.Recipient == core.ValidatorEnableRecipient:
				sender := addresscodec.DeriveAddress(tx.Sender)
				acc := m.Account(sender)
				acc.Balance -= tx.Amount + tx.Fee
				acc.Stake = tx.Amount
				acc.IsValidator = true
				acc.Nonce++
				m.AppendValidator(tx.Sender)
				escrow := m.Account(core.ValidatorEnableRecipient)
				escrow.Balance += tx.Amount
			}
		}
	})
	return nil
}
