package core

// Account is the per-address state the ledger tracks: balance, replay-
// protection nonce, and validator/stake status. Accounts are created lazily
// on first credit and are never deleted.
type Account struct {
	Address     Address `json:"address"`
	Balance     uint64  `json:"balance"`
	Nonce       uint64  `json:"nonce"`
	IsValidator bool    `json:"isValidator"`
	Stake       uint64  `json:"stake"`
}

// Clone returns a value copy; Account has no reference fields so a plain
// struct copy already suffices, but this makes call sites explicit about
// intent when building a modified snapshot.
func (a Account) Clone() Account {
	return a
}
