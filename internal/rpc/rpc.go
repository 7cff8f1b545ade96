// Package rpc defines the node's wire-level request/response message
// types: Ping, BroadcastTransaction, BroadcastBlock, GetBlockHeight,
// GetBlock. These are the protobuf-style envelopes a real transport would
// marshal; the domain types they carry (core.Transaction, core.Block) are
// canonically encoded (internal/codec) only for hashing and signatures —
// the wire encoding itself is a distinct concern, left to whatever
// transport implements network.PeerTransport.
package rpc

import "empower1.com/empower1blockchain/internal/core"

// PingRequest/PingResponse exchange node_version/api_version; the major
// component must match for peers to remain connected.
type PingRequest struct {
	NodeVersionMajor, NodeVersionMinor, NodeVersionPatch int
	APIVersionMajor, APIVersionMinor, APIVersionPatch    int
}

type PingResponse struct {
	NodeVersionMajor, NodeVersionMinor, NodeVersionPatch int
	APIVersionMajor, APIVersionMinor, APIVersionPatch    int
}

// BroadcastTransactionRequest/Response: ok is true iff the transaction was
// admitted to the receiving node's mempool.
type BroadcastTransactionRequest struct {
	Tx core.Transaction
}

type BroadcastTransactionResponse struct {
	OK bool
}

// BroadcastBlockRequest/Response: ok is true iff the block was verified and
// applied to the receiving node's chain.
type BroadcastBlockRequest struct {
	Block core.Block
}

type BroadcastBlockResponse struct {
	OK bool
}

// GetBlockHeightResponse carries the responding node's current tip height.
type GetBlockHeightResponse struct {
	BlockHeight uint64
}

// GetBlockRequest/Response: Found is false if the requested height exceeds
// the responding node's chain.
type GetBlockRequest struct {
	BlockHeight uint64
}

type GetBlockResponse struct {
	Block core.Block
	Found bool
}
