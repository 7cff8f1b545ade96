// Package node implements the node driver: peer bootstrap, initial chain
// sync, steady-state RPC handling, and local block proposal, tying together
// Ledger, Verifier, StateTransition, ProposerSelector, BlockAssembler,
// Wallet, and the peer transport. Startup sequence: parse config, build the
// chain and wallet, initialize the network, then restore/sync before
// accepting steady-state traffic.
package node

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"empower1.com/empower1blockchain/internal/addresscodec"
	"empower1.com/empower1blockchain/internal/codec"
	"empower1.com/empower1blockchain/internal/config"
	"empower1.com/empower1blockchain/internal/core"
	internalerrors "empower1.com/empower1blockchain/internal/errors"
	"empower1.com/empower1blockchain/internal/ledger"
	"empower1.com/empower1blockchain/internal/mempool"
	"empower1.com/empower1blockchain/internal/network"
	"empower1.com/empower1blockchain/internal/proposer"
	"empower1.com/empower1blockchain/internal/rpc"
	"empower1.com/empower1blockchain/internal/statetransition"
	"empower1.com/empower1blockchain/internal/verifier"
	"empower1.com/empower1blockchain/internal/wallet"
)

// NodeVersion and APIVersion are exchanged during the ping handshake. Bump
// NodeVersion.Major on breaking consensus changes; bump APIVersion.Major on
// breaking RPC-shape changes.
var (
	NodeVersion = network.Version{Major: 1, Minor: 0, Patch: 0}
	APIVersion  = network.Version{Major: 1, Minor: 0, Patch: 0}
)

// Node orchestrates one running instance: its ledger, its wallet, its peer
// set, and the steady-state RPC surface peers and local proposal drive.
type Node struct {
	log    *zap.SugaredLogger
	cfg    config.Config
	ledger *ledger.Ledger
	wallet *wallet.Wallet
	peers  *network.PeerSet

	walletPath string
	mu         sync.Mutex // serializes proposal + nonce bookkeeping
	nextNonce  uint64
}

// New constructs a Node around an empty ledger and the given wallet/config.
// Call Bootstrap before accepting traffic.
func New(cfg config.Config, w *wallet.Wallet, walletPath string, nextNonce uint64, log *zap.SugaredLogger) *Node {
	return &Node{
		log:        log,
		cfg:        cfg,
		ledger:     ledger.New(),
		wallet:     w,
		peers:      network.NewPeerSet(log),
		walletPath: walletPath,
		nextNonce:  nextNonce,
	}
}

// Ledger exposes the node's ledger for read-only queries (wallet balance,
// block explorer commands).
func (n *Node) Ledger() *ledger.Ledger { return n.ledger }

// Wallet exposes the node's local wallet, e.g. for CLI balance/address
// lookups.
func (n *Node) Wallet() *wallet.Wallet { return n.wallet }

// Peers exposes the node's peer set, e.g. for wiring simulated peers in
// tests or a development multi-node harness.
func (n *Node) Peers() *network.PeerSet { return n.peers }

// Bootstrap runs the node's startup sequence: ping every peer in the peer set
// (cfg.Network.PeerList is not read; peers are added through Peers()),
// then either start a local chain or install the canonical genesis and
// sync from the tallest surviving peer.
func (n *Node) Bootstrap(ctx context.Context) error {
	n.peers.PingAll(ctx, NodeVersion)

	useLocalGenesis := n.cfg.Network.LocalBlockchain || len(n.peers.Active()) == 0
	if useLocalGenesis {
		n.log.Infow("starting local genesis chain", "reason_local_blockchain_configured", n.cfg.Network.LocalBlockchain, "active_peers", len(n.peers.Active()))
		return n.startLocalGenesis()
	}

	n.log.Infow("installing canonical genesis and syncing from peers")
	if err := ledger.ApplyCanonicalGenesis(n.ledger); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return n.initialSync(ctx)
}

func (n *Node) startLocalGenesis() error {
	block, err := ledger.BuildLocalGenesis(ledger.LocalGenesisParams{
		FounderAddress: n.wallet.Address(),
		FounderPubKey:  n.wallet.PublicKey(),
		StakeAmount:    n.cfg.Validator.StakeAmount,
		Sign:           n.wallet.Sign,
	})
	if err != nil {
		return fmt.Errorf("building local genesis: %w", err)
	}
	if err := ledger.ApplyLocalGenesis(n.ledger, block); err != nil {
		return fmt.Errorf("applying local genesis: %w", err)
	}
	return nil
}

// initialSync picks the tallest active peer, fetches block 0 and asserts
// byte-equality with the canonical genesis literal, then fetches and
// applies blocks 1..tip sequentially. With no active peer it returns nil and
// leaves the ledger as it is. A failure returns an error and leaves in place
// the blocks applied before it; callers treat a non-nil error as fatal, so
// the node does not operate on a partial chain.
func (n *Node) initialSync(ctx context.Context) error {
	best, tip, err := n.peers.TallestPeer(ctx)
	if err != nil {
		n.log.Infow("no peers to sync from, remaining at genesis only")
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, network.DefaultRPCTimeout)
	genesisBlock, found, err := best.Transport.GetBlock(callCtx, 0)
	cancel()
	if err != nil || !found {
		return fmt.Errorf("initial sync: fetching block 0 from %s: %w", best.Address, internalerrors.ErrPeerUnreachable)
	}
	if !genesisBytesMatch(&genesisBlock) {
		return fmt.Errorf("initial sync: peer %s's genesis does not match canonical genesis: %w", best.Address, internalerrors.ErrWrongParent)
	}

	for height := uint64(1); height <= tip; height++ {
		callCtx, cancel := context.WithTimeout(ctx, network.DefaultRPCTimeout)
		block, found, err := best.Transport.GetBlock(callCtx, height)
		cancel()
		if err != nil || !found {
			return fmt.Errorf("initial sync: fetching block %d from %s: %w", height, best.Address, internalerrors.ErrPeerUnreachable)
		}
		if _, err := statetransition.ApplyBlock(n.ledger, &block); err != nil {
			return fmt.Errorf("initial sync: applying block %d: %w", height, err)
		}
	}
	n.log.Infow("initial sync complete", "peer", best.Address, "tip", tip)
	return nil
}

func genesisBytesMatch(block *core.Block) bool {
	encoded := codec.EncodeBlock(block)
	canonical := ledger.CanonicalGenesisBytes()
	if len(encoded) != len(canonical) {
		return false
	}
	for i := range encoded {
		if encoded[i] != canonical[i] {
			return false
		}
	}
	return true
}

// ProposeBlock runs the local-proposal path: assemble the next block from
// the mempool, sign it, apply it to the local ledger, and broadcast it to
// active peers. A coinbase transaction leads the block unless the node is
// configured with propose_without_coinbase, followed by mempool
// transactions truncated to the per-block cap; the whole block is
// timestamped and signed before it is applied or sent anywhere.
func (n *Node) ProposeBlock(ctx context.Context) (*core.Block, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	last := n.ledger.LastBlock()
	if last == nil {
		return nil, fmt.Errorf("propose block: %w", internalerrors.ErrNoGenesis)
	}
	height := n.ledger.BlockHeight()

	budget := core.MaxTransactionsPerBlock
	var txs []core.Transaction
	if !n.cfg.Validator.ProposeWithoutCoinbase {
		coinbase := core.Transaction{
			Version:   core.TransactionVersion,
			Amount:    core.Subsidy(height + 1),
			Fee:       0,
			Recipient: n.wallet.Address(),
			Sender:    core.CoinbaseSender,
			Nonce:     0,
		}
		txs = append(txs, coinbase)
		budget--
	}

	snapshot := n.ledger.MempoolSnapshot()
	selected, stale := mempool.AssembleBlock(snapshot, n.ledger, addressOfPublicKey, budget)
	for _, tx := range stale {
		n.ledger.DropFromMempoolFront(tx.Sender)
	}

	txs = append(txs, selected...)
	header := core.BlockHeader{
		Version:    core.BlockVersion,
		PrevHash:   codec.HashHeader(&last.Header),
		MerkleRoot: codec.MerkleRoot(txs),
		Timestamp:  uint64(time.Now().Unix()),
	}
	block := &core.Block{Header: header, Transactions: txs}
	block.BlockSize = codec.RecomputeBlockSize(block)

	blockHash := codec.HashHeader(&block.Header)
	sig, err := n.wallet.Sign(blockHash)
	if err != nil {
		return nil, fmt.Errorf("signing proposed block: %w", err)
	}
	block.Signature = sig

	if _, err := verifier.VerifyBlockHeader(block, n.ledger); err != nil {
		return nil, fmt.Errorf("self-check of proposed block: %w", err)
	}
	if _, err := statetransition.ApplyBlock(n.ledger, block); err != nil {
		return nil, fmt.Errorf("applying proposed block: %w", err)
	}

	n.peers.BroadcastBlock(ctx, *block)
	return block, nil
}

func addressOfPublicKey(pub core.PublicKey) core.Address {
	return addresscodec.DeriveAddress(pub)
}

// MaybePropose attempts a local block proposal iff staking is enabled, the
// wallet is currently an active validator, this node is the expected
// proposer for the next block, and enough time has elapsed since the tip.
// Returns (nil, nil) when it is not this node's turn yet — that is the
// expected steady-state outcome, not an error.
func (n *Node) MaybePropose(ctx context.Context) (*core.Block, error) {
	if !n.cfg.Validator.Enabled {
		return nil, nil
	}

	last := n.ledger.LastBlock()
	if last == nil {
		return nil, nil
	}
	validators := n.ledger.Validators()
	lastHash := codec.HashHeader(&last.Header)
	expected, _, ok := proposer.CalculateProposer(validators, n.ledger, lastHash, nil, n.ledger.BlockHeight())
	if !ok || expected != n.wallet.PublicKey() {
		return nil, nil
	}

	elapsed := uint64(time.Now().Unix()) - last.Header.Timestamp
	if elapsed < core.ProposerBaseTimingSeconds {
		return nil, nil
	}

	return n.ProposeBlock(ctx)
}

// HandlePing implements network.Handler.
func (n *Node) HandlePing(network.Version) (network.Version, error) {
	return NodeVersion, nil
}

// HandleBroadcastTransaction admits tx to the mempool if it verifies against
// the current ledger snapshot.
func (n *Node) HandleBroadcastTransaction(tx core.Transaction) (bool, error) {
	if err := verifier.VerifyTransaction(&tx, false, n.ledger); err != nil {
		n.log.Debugw("rejected inbound transaction", "error", err)
		return false, nil
	}
	n.ledger.AddToMempool(tx)
	return true, nil
}

// HandleBroadcastBlock verifies and applies block to the local ledger.
func (n *Node) HandleBroadcastBlock(block core.Block) (bool, error) {
	if _, err := statetransition.ApplyBlock(n.ledger, &block); err != nil {
		n.log.Debugw("rejected inbound block", "error", err)
		return false, nil
	}
	return true, nil
}

// HandleGetBlockHeight implements network.Handler.
func (n *Node) HandleGetBlockHeight() uint64 { return n.ledger.BlockHeight() }

// HandleGetBlock implements network.Handler.
func (n *Node) HandleGetBlock(height uint64) (core.Block, bool) {
	block, ok := n.ledger.BlockAt(height)
	if !ok {
		return core.Block{}, false
	}
	return *block, true
}

// The RPC* methods adapt the protobuf-style rpc package envelopes onto the
// node's core Handler behavior, checking both node_version and api_version
// compatibility (the in-process network.Handler path only compares
// node_version, since simulated peers never run a different API
// revision).

// PingRPC answers an rpc.PingRequest, exposing both version components.
func (n *Node) PingRPC(req rpc.PingRequest) rpc.PingResponse {
	return rpc.PingResponse{
		NodeVersionMajor: NodeVersion.Major, NodeVersionMinor: NodeVersion.Minor, NodeVersionPatch: NodeVersion.Patch,
		APIVersionMajor: APIVersion.Major, APIVersionMinor: APIVersion.Minor, APIVersionPatch: APIVersion.Patch,
	}
}

// PingCompatible reports whether a peer's rpc.PingResponse shares both major
// version components with this node.
func PingCompatible(resp rpc.PingResponse) bool {
	return resp.NodeVersionMajor == NodeVersion.Major && resp.APIVersionMajor == APIVersion.Major
}

// BroadcastTransactionRPC adapts HandleBroadcastTransaction to the wire
// envelope.
func (n *Node) BroadcastTransactionRPC(req rpc.BroadcastTransactionRequest) rpc.BroadcastTransactionResponse {
	ok, _ := n.HandleBroadcastTransaction(req.Tx)
	return rpc.BroadcastTransactionResponse{OK: ok}
}

// BroadcastBlockRPC adapts HandleBroadcastBlock to the wire envelope.
func (n *Node) BroadcastBlockRPC(req rpc.BroadcastBlockRequest) rpc.BroadcastBlockResponse {
	ok, _ := n.HandleBroadcastBlock(req.Block)
	return rpc.BroadcastBlockResponse{OK: ok}
}

// GetBlockHeightRPC adapts HandleGetBlockHeight to the wire envelope.
func (n *Node) GetBlockHeightRPC() rpc.GetBlockHeightResponse {
	return rpc.GetBlockHeightResponse{BlockHeight: n.HandleGetBlockHeight()}
}

// GetBlockRPC adapts HandleGetBlock to the wire envelope.
func (n *Node) GetBlockRPC(req rpc.GetBlockRequest) rpc.GetBlockResponse {
	block, found := n.HandleGetBlock(req.BlockHeight)
	return rpc.GetBlockResponse{Block: block, Found: found}
}
