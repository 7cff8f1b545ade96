// Package mempool implements block assembly from pending transactions:
// per-sender nonce ordering with fee maximization among eligible fronts.
// Mempool admission itself lives on ledger.Ledger (AddToMempool); this
// package only selects what goes into the next block.
package mempool

import (
	"empower1.com/empower1blockchain/internal/core"
)

// AccountNonce resolves an account's current confirmed nonce (0 if the
// account has never transacted), used to seed the assembler's working
// per-sender nonce counters.
type AccountNonce interface {
	Account(addr core.Address) (core.Account, bool)
}

// AssembleBlock takes a snapshot of the mempool (sender → nonce-ascending
// pending transactions) and account lookups for seeding the per-sender
// nonce counters, and greedily selects transactions for the next block.
// maxTransactions bounds the number of selected transactions only; a caller
// that prepends a coinbase reserves its slot by passing one less.
//
// Returns the selected transactions (not including any coinbase) in the
// order they should appear in the block, and the set of sender+nonce pairs
// that were found stale (front.nonce < working_nonce[sender]) and dropped
// permanently — callers must remove these from the live mempool.
func AssembleBlock(mempoolSnapshot map[core.PublicKey][]core.Transaction, accounts AccountNonce, addressOf func(core.PublicKey) core.Address, maxTransactions int) (selected []core.Transaction, stale []core.Transaction) {
	queues := make(map[core.PublicKey][]core.Transaction, len(mempoolSnapshot))
	for sender, txs := range mempoolSnapshot {
		cp := make([]core.Transaction, len(txs))
		copy(cp, txs)
		queues[sender] = cp
	}

	working := make(map[core.PublicKey]uint64, len(queues))
	for sender := range queues {
		var nonce uint64
		if acc, ok := accounts.Account(addressOf(sender)); ok {
			nonce = acc.Nonce
		}
		working[sender] = nonce
	}

	for len(selected) < maxTransactions {
		var winner *core.Transaction
		var winnerSender core.PublicKey

		for sender, queue := range queues {
			for len(queue) > 0 && queue[0].Nonce < working[sender] {
				stale = append(stale, queue[0])
				queue = queue[1:]
			}
			queues[sender] = queue
			if len(queue) == 0 {
				continue
			}
			front := queue[0]
			if front.Nonce != working[sender] {
				continue // future nonce, not yet eligible
			}
			if winner == nil || front.Fee > winner.Fee {
				frontCopy := front
				winner = &frontCopy
				winnerSender = sender
			}
		}

		if winner == nil {
			break
		}
		selected = append(selected, *winner)
		queues[winnerSender] = queues[winnerSender][1:]
		working[winnerSender]++
	}

	return selected, stale
}
