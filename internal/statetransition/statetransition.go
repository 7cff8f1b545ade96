// Package statetransition applies verified blocks and transactions to a
// Ledger, mutating accounts, the validator roster, and block height.
// ApplyBlock owns the atomic apply-or-discard lifecycle: it works against
// a disposable clone and only commits it back into the live ledger once
// every transaction in the block has verified and applied cleanly.
package statetransition

import (
	"empower1.com/empower1blockchain/internal/addresscodec"
	"empower1.com/empower1blockchain/internal/core"
	"empower1.com/empower1blockchain/internal/ledger"
	"empower1.com/empower1blockchain/internal/verifier"
)

// ApplyBlock runs the block's header checks, then for each transaction in
// order, verify_transaction followed immediately by that transaction's
// class effects — all against a clone of live, so a mid-block failure
// never leaves live mutated. On success the clone is committed into live
// and block_height advances; bootstrap_end runs if the new height lands
// exactly on the bootstrapping threshold.
func ApplyBlock(live *ledger.Ledger, block *core.Block) (verifier.BlockHeaderResult, error) {
	result, err := verifier.VerifyBlockHeader(block, live)
	if err != nil {
		return verifier.BlockHeaderResult{}, err
	}

	working := live.Clone()
	ledgerHeight := working.BlockHeight()
	blockValidator := verifier.BlockValidatorAddress(block, ledgerHeight)

	for i := range block.Transactions {
		tx := &block.Transactions[i]
		isCoinbase := verifier.IsCoinbase(tx, i, ledgerHeight)
		if err := verifier.VerifyTransaction(tx, isCoinbase, working); err != nil {
			return verifier.BlockHeaderResult{}, err
		}
		applyTransaction(working, tx, isCoinbase, blockValidator, ledgerHeight)
	}

	working.WithAccountsLocked(func(m *ledger.Mutator) {
		m.AppendBlock(block)
		m.AdvanceHeight()
		if m.BlockHeight() == core.BootstrappingPhaseBlockHeight {
			bootstrapEnd(m)
		}
		for i := range block.Transactions {
			m.RemoveFromMempool(block.Transactions[i])
		}
	})

	live.AdoptFrom(working)
	return result, nil
}

// applyTransaction dispatches tx to its per-class effects, crediting the
// block validator's fee and mutating sender/recipient accounts and the
// roster as appropriate. All accounts are created lazily.
func applyTransaction(l *ledger.Ledger, tx *core.Transaction, isCoinbase bool, blockValidator core.Address, ledgerHeight uint64) {
	switch {
	case isCoinbase:
		applyCoinbase(l, tx)
	case verifier.IsValidatorEnable(tx, l, ledgerHeight):
		applyValidatorEnable(l, tx, blockValidator)
	case verifier.IsValidatorRevoke(tx, l):
		applyValidatorRevoke(l, tx, blockValidator)
	default:
		applyPlain(l, tx, blockValidator)
	}
}

func applyCoinbase(l *ledger.Ledger, tx *core.Transaction) {
	l.WithAccountsLocked(func(m *ledger.Mutator) {
		recipient := m.Account(tx.Recipient)
		recipient.Balance += tx.Amount
	})
}

func applyValidatorEnable(l *ledger.Ledger, tx *core.Transaction, blockValidator core.Address) {
	senderAddr := addresscodec.DeriveAddress(tx.Sender)
	l.WithAccountsLocked(func(m *ledger.Mutator) {
		validator := m.Account(blockValidator)
		validator.Balance += tx.Fee

		sender := m.Account(senderAddr)
		sender.Nonce++
		sender.Balance -= tx.Amount + tx.Fee
		sender.Stake = tx.Amount
		sender.IsValidator = true

		m.AppendValidator(tx.Sender)

		escrow := m.Account(core.ValidatorEnableRecipient)
		escrow.Balance += tx.Amount
	})
}

func applyValidatorRevoke(l *ledger.Ledger, tx *core.Transaction, blockValidator core.Address) {
	senderAddr := addresscodec.DeriveAddress(tx.Sender)
	l.WithAccountsLocked(func(m *ledger.Mutator) {
		validator := m.Account(blockValidator)
		validator.Balance += tx.Fee

		m.RemoveValidator(tx.Sender)

		sender := m.Account(senderAddr)
		sender.Nonce++
		sender.Stake = 0
		sender.Balance -= tx.Fee
		sender.Balance += tx.Amount
		sender.IsValidator = false

		escrow := m.Account(core.ValidatorEnableRecipient)
		escrow.Balance -= tx.Amount
	})
}

func applyPlain(l *ledger.Ledger, tx *core.Transaction, blockValidator core.Address) {
	senderAddr := addresscodec.DeriveAddress(tx.Sender)
	l.WithAccountsLocked(func(m *ledger.Mutator) {
		validator := m.Account(blockValidator)
		validator.Balance += tx.Fee

		recipient := m.Account(tx.Recipient)
		recipient.Balance += tx.Amount

		sender := m.Account(senderAddr)
		sender.Balance -= tx.Amount + tx.Fee
		sender.Nonce++
	})
}

// bootstrapEnd runs the end-of-bootstrapping sweep: any validator whose
// stake fell short of MinimumStakingAmount during the bootstrapping phase
// is evicted and refunded. Called with the write lock already held,
// exactly once, on the height transition into
// BootstrappingPhaseBlockHeight.
func bootstrapEnd(m *ledger.Mutator) {
	for _, pubkey := range append([]core.PublicKey(nil), m.Validators()...) {
		addr := addresscodec.DeriveAddress(pubkey)
		acc := m.Account(addr)
		if acc.Stake >= core.MinimumStakingAmount {
			continue
		}
		acc.Balance += acc.Stake
		acc.Stake = 0
		acc.IsValidator = false
		m.RemoveValidator(pubkey)
	}
}
