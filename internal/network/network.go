// Package network defines the peer transport contract (the node's Ping,
// BroadcastTransaction, BroadcastBlock, GetBlockHeight, and GetBlock RPCs)
// and an in-memory SimulatedNetwork implementation, built on
// goroutines and channels, for local multi-node development and testing.
// A real wire transport (protobuf over gRPC) would sit behind the same
// PeerTransport interface; this package only fixes the contract and a
// process-local stand-in for it.
package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"empower1.com/empower1blockchain/internal/core"
	internalerrors "empower1.com/empower1blockchain/internal/errors"
)

// Version is this node's node_version/api_version pair, exchanged during
// the ping handshake. Peers whose major version differs are rejected.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible reports whether v and other share a major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// PeerTransport is the typed RPC contract a node speaks to a peer: ping
// handshake, transaction/block broadcast, and chain-height/block queries.
// Every call takes a context so the node can time out an unresponsive peer
// without blocking forever.
type PeerTransport interface {
	Ping(ctx context.Context, local Version) (Version, error)
	BroadcastTransaction(ctx context.Context, tx core.Transaction) (ok bool, err error)
	BroadcastBlock(ctx context.Context, block core.Block) (ok bool, err error)
	GetBlockHeight(ctx context.Context) (uint64, error)
	GetBlock(ctx context.Context, height uint64) (core.Block, bool, error)
}

// Handler is what a node exposes to satisfy inbound RPCs from peers: the
// same operations PeerTransport performs against the local node.
type Handler interface {
	HandlePing(local Version) (Version, error)
	HandleBroadcastTransaction(tx core.Transaction) (bool, error)
	HandleBroadcastBlock(block core.Block) (bool, error)
	HandleGetBlockHeight() uint64
	HandleGetBlock(height uint64) (core.Block, bool)
}

// PeerState is a peer's position in the per-peer state machine: Unknown →
// Active or rejected (Incompatible/Unreachable) after the ping handshake.
type PeerState int

const (
	PeerUnknown PeerState = iota
	PeerIncompatible
	PeerUnreachable
	PeerActive
)

func (s PeerState) String() string {
	switch s {
	case PeerIncompatible:
		return "incompatible"
	case PeerUnreachable:
		return "unreachable"
	case PeerActive:
		return "active"
	default:
		return "unknown"
	}
}

// DefaultRPCTimeout bounds every outbound call; on expiry the peer is
// marked unreachable for that call but not removed from the peer set.
const DefaultRPCTimeout = 5 * time.Second

// ManagedPeer tracks one remote peer's transport and handshake state.
// SessionID is freshly generated each time the peer is (re-)added, so log
// lines from two successive connections to the same Address (e.g. after a
// peer restarts under the same host:port) are never confused with each
// other.
type ManagedPeer struct {
	Address   string
	Transport PeerTransport
	State     PeerState
	SessionID uuid.UUID
}

// PeerSet is the thread-safe collection of peers a node gossips with. Peers
// are never removed automatically — only operator action removes one; RPC
// failures only change its State.
type PeerSet struct {
	mu    sync.RWMutex
	log   *zap.SugaredLogger
	peers map[string]*ManagedPeer
}

// NewPeerSet returns an empty peer set that logs through log.
func NewPeerSet(log *zap.SugaredLogger) *PeerSet {
	return &PeerSet{
		log:   log,
		peers: make(map[string]*ManagedPeer),
	}
}

// Add registers a peer transport under address, in PeerUnknown state.
func (ps *PeerSet) Add(address string, transport PeerTransport) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.peers[address] = &ManagedPeer{Address: address, Transport: transport, State: PeerUnknown, SessionID: uuid.New()}
}

// Remove drops a peer entirely.
func (ps *PeerSet) Remove(address string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	delete(ps.peers, address)
}

// Active returns the peers currently in PeerActive state.
func (ps *PeerSet) Active() []*ManagedPeer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make([]*ManagedPeer, 0, len(ps.peers))
	for _, p := range ps.peers {
		if p.State == PeerActive {
			out = append(out, p)
		}
	}
	return out
}

// All returns every known peer, regardless of state.
func (ps *PeerSet) All() []*ManagedPeer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	out := make([]*ManagedPeer, 0, len(ps.peers))
	for _, p := range ps.peers {
		out = append(out, p)
	}
	return out
}

// PingAll attempts the ping handshake against every peer, updating each
// one's state; peers that are unreachable or run an incompatible major
// version are marked as such but stay in the set.
func (ps *PeerSet) PingAll(ctx context.Context, local Version) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	for addr, p := range ps.peers {
		callCtx, cancel := context.WithTimeout(ctx, DefaultRPCTimeout)
		remote, err := p.Transport.Ping(callCtx, local)
		cancel()
		switch {
		case err != nil:
			p.State = PeerUnreachable
			ps.log.Infow("peer unreachable", "peer", addr, "session", p.SessionID, "error", err)
		case !local.Compatible(remote):
			p.State = PeerIncompatible
			ps.log.Infow("peer incompatible", "peer", addr, "session", p.SessionID, "localVersion", local.String(), "remoteVersion", remote.String())
		default:
			p.State = PeerActive
			ps.log.Infow("peer active", "peer", addr, "session", p.SessionID, "remoteVersion", remote.String())
		}
	}
}

// TallestPeer returns the active peer reporting the greatest block height,
// used to pick an initial-sync source.
func (ps *PeerSet) TallestPeer(ctx context.Context) (*ManagedPeer, uint64, error) {
	ps.mu.RLock()
	candidates := make([]*ManagedPeer, 0, len(ps.peers))
	for _, p := range ps.peers {
		if p.State == PeerActive {
			candidates = append(candidates, p)
		}
	}
	ps.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, 0, fmt.Errorf("tallest peer: %w", internalerrors.ErrPeerUnreachable)
	}

	var best *ManagedPeer
	var bestHeight uint64
	for _, p := range candidates {
		callCtx, cancel := context.WithTimeout(ctx, DefaultRPCTimeout)
		height, err := p.Transport.GetBlockHeight(callCtx)
		cancel()
		if err != nil {
			continue
		}
		if best == nil || height > bestHeight {
			best, bestHeight = p, height
		}
	}
	if best == nil {
		return nil, 0, fmt.Errorf("tallest peer: %w", internalerrors.ErrPeerUnreachable)
	}
	return best, bestHeight, nil
}

// BroadcastTransaction sends tx to every active peer, logging but not
// failing on a per-peer error — gossip is best-effort.
func (ps *PeerSet) BroadcastTransaction(ctx context.Context, tx core.Transaction) {
	for _, p := range ps.Active() {
		callCtx, cancel := context.WithTimeout(ctx, DefaultRPCTimeout)
		_, err := p.Transport.BroadcastTransaction(callCtx, tx)
		cancel()
		if err != nil {
			ps.log.Infow("broadcast transaction failed", "peer", p.Address, "error", err)
		}
	}
}

// BroadcastBlock sends block to every active peer, best-effort.
func (ps *PeerSet) BroadcastBlock(ctx context.Context, block core.Block) {
	for _, p := range ps.Active() {
		callCtx, cancel := context.WithTimeout(ctx, DefaultRPCTimeout)
		_, err := p.Transport.BroadcastBlock(callCtx, block)
		cancel()
		if err != nil {
			ps.log.Infow("broadcast block failed", "peer", p.Address, "error", err)
		}
	}
}

// ErrNoSuchBlock names a requested height beyond a peer's chain.
// SimulatedPeer.GetBlock does not return it; it reports that case as
// found == false with a nil error.
var ErrNoSuchBlock = errors.New("no such block")
