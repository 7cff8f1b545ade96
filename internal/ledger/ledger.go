// Package ledger holds the process-wide account state, block chain, and
// validator roster. statetransition.ApplyBlock and the genesis installers
// change accounts and the roster through a Mutator under the write lock; the
// mempool and block list have their own write-locked methods. Readers take
// the shared lock and see a consistent snapshot.
package ledger

import (
	"fmt"
	"sync"

	"empower1.com/empower1blockchain/internal/codec"
	"empower1.com/empower1blockchain/internal/core"
	internalerrors "empower1.com/empower1blockchain/internal/errors"
)

// Ledger is the single shared mutable resource of the node: accounts, the
// block list, the ordered validator roster, and the per-sender mempool.
// All mutations serialize under mu; reads take the shared lock.
type Ledger struct {
	mu sync.RWMutex

	blocks      []*core.Block
	accounts    map[core.Address]*core.Account
	validators  []core.PublicKey
	mempool     map[core.PublicKey][]core.Transaction
	blockHeight uint64
	hasGenesis  bool
}

// New returns an empty Ledger, ready to be populated with a genesis block.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[core.Address]*core.Account),
		mempool:  make(map[core.PublicKey][]core.Transaction),
	}
}

// HasGenesis reports whether a genesis block has been installed.
func (l *Ledger) HasGenesis() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hasGenesis
}

// BlockHeight returns the index of the tip (0 once genesis is applied).
func (l *Ledger) BlockHeight() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blockHeight
}

// LastBlock returns the chain tip, or nil if no genesis has been applied.
func (l *Ledger) LastBlock() *core.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.blocks) == 0 {
		return nil
	}
	return l.blocks[len(l.blocks)-1]
}

// BlockAt returns the block at the given height, or nil, false if the chain
// has no block at that height.
func (l *Ledger) BlockAt(height uint64) (*core.Block, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if height >= uint64(len(l.blocks)) {
		return nil, false
	}
	return l.blocks[height], true
}

// Account returns a copy of the account at addr, or the zero Account with
// ok=false if no account has ever been credited at that address.
func (l *Ledger) Account(addr core.Address) (core.Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return core.Account{}, false
	}
	return acc.Clone(), true
}

// Validators returns a copy of the ordered validator roster.
func (l *Ledger) Validators() []core.PublicKey {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]core.PublicKey, len(l.validators))
	copy(out, l.validators)
	return out
}

// MempoolSnapshot returns a deep copy of the mempool, grouped by sender.
func (l *Ledger) MempoolSnapshot() map[core.PublicKey][]core.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[core.PublicKey][]core.Transaction, len(l.mempool))
	for sender, txs := range l.mempool {
		cp := make([]core.Transaction, len(txs))
		copy(cp, txs)
		out[sender] = cp
	}
	return out
}

// AddToMempool appends tx to its sender's pending queue, keeping the queue
// sorted ascending by nonce. Admission policy (signature/nonce/balance
// checks) is the verifier's job; this is pure bookkeeping.
func (l *Ledger) AddToMempool(tx core.Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	queue := l.mempool[tx.Sender]
	i := 0
	for i < len(queue) && queue[i].Nonce < tx.Nonce {
		i++
	}
	queue = append(queue, core.Transaction{})
	copy(queue[i+1:], queue[i:])
	queue[i] = tx
	l.mempool[tx.Sender] = queue
}

// DropFromMempoolFront removes the earliest-nonce pending transaction for
// sender, if any, and reports whether one was removed.
func (l *Ledger) DropFromMempoolFront(sender core.PublicKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	queue := l.mempool[sender]
	if len(queue) == 0 {
		return false
	}
	queue = queue[1:]
	if len(queue) == 0 {
		delete(l.mempool, sender)
	} else {
		l.mempool[sender] = queue
	}
	return true
}

// getOrCreateAccount returns the live, mutable account at addr, lazily
// creating it if absent. Callers must hold mu for writing.
func (l *Ledger) getOrCreateAccount(addr core.Address) *core.Account {
	if acc, ok := l.accounts[addr]; ok {
		return acc
	}
	acc := &core.Account{Address: addr}
	l.accounts[addr] = acc
	return acc
}

// InstallGenesis installs block as height 0. Fails if a genesis block has
// already been installed.
func (l *Ledger) InstallGenesis(block *core.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hasGenesis {
		return fmt.Errorf("genesis already installed: %w", internalerrors.ErrInvalidOperation)
	}
	l.blocks = append(l.blocks, block)
	l.hasGenesis = true
	l.blockHeight = 0
	return nil
}

// AppendBlock appends an already-verified block as the new tip and advances
// block_height. Callers must have already run statetransition.ApplyBlock's
// account mutations; AppendBlock only manages the block list and height.
func (l *Ledger) AppendBlock(block *core.Block) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocks = append(l.blocks, block)
	l.blockHeight++
}

// WithAccountsLocked runs fn with the write lock held, giving StateTransition
// exclusive, serialized access to mutate accounts and the validator roster.
// fn must not call back into any other Ledger method (re-entrant locking
// would deadlock); it operates directly on the maps/slices via the provided
// mutator.
func (l *Ledger) WithAccountsLocked(fn func(m *Mutator)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&Mutator{l: l})
}

// Mutator is the narrow, lock-already-held view of a Ledger that
// statetransition.ApplyBlock uses to mutate accounts and the roster. It exists so
// ApplyBlock's effects (documented per-class in statetransition) cannot be
// invoked outside of WithAccountsLocked's exclusive section.
type Mutator struct {
	l *Ledger
}

// Account returns the live, lazily-created account at addr for mutation.
func (m *Mutator) Account(addr core.Address) *core.Account {
	return m.l.getOrCreateAccount(addr)
}

// AppendValidator appends pubkey to the end of the ordered roster.
func (m *Mutator) AppendValidator(pubkey core.PublicKey) {
	m.l.validators = append(m.l.validators, pubkey)
}

// RemoveValidator removes the first occurrence of pubkey from the roster.
func (m *Mutator) RemoveValidator(pubkey core.PublicKey) {
	for i, v := range m.l.validators {
		if v == pubkey {
			m.l.validators = append(m.l.validators[:i], m.l.validators[i+1:]...)
			return
		}
	}
}

// Validators returns the live roster slice for read-only iteration during a
// mutation (e.g. bootstrap_end scanning for under-staked validators).
func (m *Mutator) Validators() []core.PublicKey {
	return m.l.validators
}

// BlockHeight returns the ledger's current tip height (pre-increment) while
// the write lock is held.
func (m *Mutator) BlockHeight() uint64 {
	return m.l.blockHeight
}

// AdvanceHeight increments block_height after a block's transactions have
// all been applied.
func (m *Mutator) AdvanceHeight() {
	m.l.blockHeight++
}

// AppendBlock appends block to the chain while the write lock is held.
func (m *Mutator) AppendBlock(block *core.Block) {
	m.l.blocks = append(m.l.blocks, block)
}

// RemoveFromMempool deletes tx (matched by sender+nonce) from the mempool,
// used once a transaction has been committed into an applied block.
func (m *Mutator) RemoveFromMempool(tx core.Transaction) {
	queue := m.l.mempool[tx.Sender]
	for i, q := range queue {
		if q.Nonce == tx.Nonce {
			m.l.mempool[tx.Sender] = append(queue[:i], queue[i+1:]...)
			if len(m.l.mempool[tx.Sender]) == 0 {
				delete(m.l.mempool, tx.Sender)
			}
			return
		}
	}
}

// Clone returns a deep copy of l for speculative block verification: the
// copy can be mutated freely by statetransition.ApplyBlock and discarded on
// failure without ever touching l itself.
func (l *Ledger) Clone() *Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cp := &Ledger{
		blocks:      append([]*core.Block(nil), l.blocks...),
		accounts:    make(map[core.Address]*core.Account, len(l.accounts)),
		validators:  append([]core.PublicKey(nil), l.validators...),
		mempool:     make(map[core.PublicKey][]core.Transaction, len(l.mempool)),
		blockHeight: l.blockHeight,
		hasGenesis:  l.hasGenesis,
	}
	for addr, acc := range l.accounts {
		clone := acc.Clone()
		cp.accounts[addr] = &clone
	}
	for sender, txs := range l.mempool {
		cp.mempool[sender] = append([]core.Transaction(nil), txs...)
	}
	return cp
}

// AdoptFrom replaces l's entire state with other's, atomically under l's
// write lock. Used to commit a clone back into the live ledger once a block
// has verified and applied successfully end-to-end.
func (l *Ledger) AdoptFrom(other *Ledger) {
	other.mu.RLock()
	blocks := append([]*core.Block(nil), other.blocks...)
	accounts := make(map[core.Address]*core.Account, len(other.accounts))
	for addr, acc := range other.accounts {
		clone := acc.Clone()
		accounts[addr] = &clone
	}
	validators := append([]core.PublicKey(nil), other.validators...)
	mempool := make(map[core.PublicKey][]core.Transaction, len(other.mempool))
	for sender, txs := range other.mempool {
		mempool[sender] = append([]core.Transaction(nil), txs...)
	}
	blockHeight := other.blockHeight
	hasGenesis := other.hasGenesis
	other.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocks = blocks
	l.accounts = accounts
	l.validators = validators
	l.mempool = mempool
	l.blockHeight = blockHeight
	l.hasGenesis = hasGenesis
}

// HashLastHeader returns SHA-256(serialize(last.header)), the value the next
// block's prev_hash must equal. Panics if no genesis has been installed —
// callers must check HasGenesis first.
func (l *Ledger) HashLastHeader() core.Hash {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.blocks) == 0 {
		panic("ledger: HashLastHeader called before genesis installed")
	}
	last := l.blocks[len(l.blocks)-1]
	return codec.HashHeader(&last.Header)
}
