package core

// BlockHeader is the fixed-size portion of a block that is hashed to
// produce the block's identity and is what prev_hash points back to.
type BlockHeader struct {
	Version     uint32 `json:"version"`
	PrevHash    Hash   `json:"prevHash"`
	MerkleRoot  Hash   `json:"merkleRoot"`
	Timestamp   uint64 `json:"timestamp"`
}

// Block is a header, its ordered transaction list, and the proposer's
// signature over the block hash. BlockSize is decorative: it is
// recomputed from the serialized form before signing but never consulted
// by verification.
type Block struct {
	BlockSize    uint32        `json:"blockSize"`
	Header       BlockHeader   `json:"header"`
	Transactions []Transaction `json:"transactions"`
	Signature    []byte        `json:"signature"`
}

// ValidatorAccount is a validator's compressed public key as carried in the
// ledger's roster. Roster order is consensus-critical: proposer selection
// enumerates the roster in insertion order.
type ValidatorAccount = PublicKey
