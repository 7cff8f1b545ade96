// Package proposer implements the stake-weighted deterministic
// proposer-selection algorithm, shared by local block proposal and the
// verifier's proposer-verification fallback loop.
package proposer

import (
	"crypto/sha256"
	"encoding/binary"

	"empower1.com/empower1blockchain/internal/addresscodec"
	"empower1.com/empower1blockchain/internal/core"
)

// StakeLookup resolves a validator's current account, for reading its stake.
// ledger.Ledger and any clone/snapshot of one satisfies this.
type StakeLookup interface {
	Account(addr core.Address) (core.Account, bool)
}

// CalculateProposer selects the expected proposer for the block that
// extends a chain whose tip header hashes to lastBlockHash, at the given
// ledger height (the tip's height, i.e. the height the new block will be
// height+1). previousAttempt is nil for the first selection attempt at this
// height, or the previously-selected pubkey for fallback iterations.
//
// Returns the selected pubkey and its index within validators. ok is false
// iff validators is empty.
func CalculateProposer(validators []core.PublicKey, lookup StakeLookup, lastBlockHash core.Hash, previousAttempt *core.PublicKey, height uint64) (pubkey core.PublicKey, index int, ok bool) {
	if len(validators) == 0 {
		return core.PublicKey{}, 0, false
	}

	seed := seedFor(lastBlockHash, previousAttempt)
	r := binary.BigEndian.Uint64(seed[24:32])

	totalStake := totalStakeOf(validators, lookup)
	if height > core.BootstrappingPhaseBlockHeight && totalStake > 0 {
		w := r % totalStake
		var running uint64
		for i, v := range validators {
			running += stakeOf(v, lookup)
			if running >= w {
				return v, i, true
			}
		}
	}

	idx := int(r % uint64(len(validators)))
	return validators[idx], idx, true
}

// seedFor computes the PRNG seed: hash(last_block_header) for the first
// attempt, or SHA-256(hash(last_block_header) || previous_attempt_pubkey)
// for fallback iterations.
func seedFor(lastBlockHash core.Hash, previousAttempt *core.PublicKey) core.Hash {
	if previousAttempt == nil {
		return lastBlockHash
	}
	buf := make([]byte, 0, len(lastBlockHash)+core.PublicKeySize)
	buf = append(buf, lastBlockHash[:]...)
	buf = append(buf, previousAttempt[:]...)
	return sha256.Sum256(buf)
}

func totalStakeOf(validators []core.PublicKey, lookup StakeLookup) uint64 {
	var total uint64
	for _, v := range validators {
		total += stakeOf(v, lookup)
	}
	return total
}

func stakeOf(pubkey core.PublicKey, lookup StakeLookup) uint64 {
	addr := addresscodec.DeriveAddress(pubkey)
	acc, ok := lookup.Account(addr)
	if !ok {
		return 0
	}
	return acc.Stake
}
