package network

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"empower1.com/empower1blockchain/internal/core"
)

// fakeHandler is an in-memory Handler stand-in for a node, used to exercise
// SimulatedPeer and PeerSet without constructing a real node.
type fakeHandler struct {
	version     Version
	height      uint64
	blocks      map[uint64]core.Block
	lastTx      core.Transaction
	lastBlock   core.Block
	rejectPings bool
}

func newFakeHandler(height uint64) *fakeHandler {
	return &fakeHandler{
		version: Version{Major: 1},
		height:  height,
		blocks:  make(map[uint64]core.Block),
	}
}

func (f *fakeHandler) HandlePing(Version) (Version, error) { return f.version, nil }
func (f *fakeHandler) HandleBroadcastTransaction(tx core.Transaction) (bool, error) {
	f.lastTx = tx
	return true, nil
}
func (f *fakeHandler) HandleBroadcastBlock(block core.Block) (bool, error) {
	f.lastBlock = block
	return true, nil
}
func (f *fakeHandler) HandleGetBlockHeight() uint64 { return f.height }
func (f *fakeHandler) HandleGetBlock(height uint64) (core.Block, bool) {
	b, ok := f.blocks[height]
	return b, ok
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestSimulatedPeer_PingRoundTrip(t *testing.T) {
	remote := newFakeHandler(5)
	peer := NewSimulatedPeer("local", "remote", remote, testLogger())
	defer peer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	got, err := peer.Ping(ctx, Version{Major: 1})
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if got.Major != 1 {
		t.Errorf("Ping version = %+v, want Major 1", got)
	}
}

func TestSimulatedPeer_GetBlockHeight(t *testing.T) {
	remote := newFakeHandler(42)
	peer := NewSimulatedPeer("local", "remote", remote, testLogger())
	defer peer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	height, err := peer.GetBlockHeight(ctx)
	if err != nil {
		t.Fatalf("GetBlockHeight: %v", err)
	}
	if height != 42 {
		t.Errorf("GetBlockHeight = %d, want 42", height)
	}
}

func TestSimulatedPeer_BroadcastTransaction(t *testing.T) {
	remote := newFakeHandler(0)
	peer := NewSimulatedPeer("local", "remote", remote, testLogger())
	defer peer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tx := core.Transaction{Amount: 100, Fee: 1}
	ok, err := peer.BroadcastTransaction(ctx, tx)
	if err != nil || !ok {
		t.Fatalf("BroadcastTransaction: ok=%v err=%v", ok, err)
	}
	if remote.lastTx.Amount != 100 {
		t.Errorf("remote did not receive the broadcast transaction")
	}
}

func TestSimulatedPeer_ContextCancelled(t *testing.T) {
	remote := newFakeHandler(0)
	peer := NewSimulatedPeer("local", "remote", remote, testLogger())
	defer peer.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := peer.Ping(ctx, Version{}); err == nil {
		t.Error("Ping with a cancelled context should return an error")
	}
}

func TestPeerSet_AddAssignsDistinctSessionIDs(t *testing.T) {
	ps := NewPeerSet(testLogger())
	remote := newFakeHandler(0)
	peer := NewSimulatedPeer("local", "remote", remote, testLogger())
	defer peer.Stop()

	ps.Add("remote:9000", peer)
	first := ps.All()[0].SessionID

	ps.Add("remote:9000", peer)
	second := ps.All()[0].SessionID

	if first == second {
		t.Error("re-adding a peer at the same address should assign a fresh SessionID")
	}
}

func TestPeerSet_PingAllMarksIncompatible(t *testing.T) {
	compatible := newFakeHandler(0)
	compatible.version = Version{Major: 1}
	incompatible := newFakeHandler(0)
	incompatible.version = Version{Major: 2}

	ps := NewPeerSet(testLogger())
	compatPeer := NewSimulatedPeer("local", "compat", compatible, testLogger())
	incompatPeer := NewSimulatedPeer("local", "incompat", incompatible, testLogger())
	defer compatPeer.Stop()
	defer incompatPeer.Stop()

	ps.Add("compat", compatPeer)
	ps.Add("incompat", incompatPeer)

	ps.PingAll(context.Background(), Version{Major: 1})

	active := ps.Active()
	if len(active) != 1 || active[0].Address != "compat" {
		t.Errorf("Active() = %+v, want only compat", active)
	}

	all := ps.All()
	for _, p := range all {
		if p.Address == "incompat" && p.State != PeerIncompatible {
			t.Errorf("incompat peer state = %v, want PeerIncompatible", p.State)
		}
	}
}

func TestPeerSet_TallestPeer(t *testing.T) {
	short := newFakeHandler(3)
	tall := newFakeHandler(10)

	ps := NewPeerSet(testLogger())
	shortPeer := NewSimulatedPeer("local", "short", short, testLogger())
	tallPeer := NewSimulatedPeer("local", "tall", tall, testLogger())
	defer shortPeer.Stop()
	defer tallPeer.Stop()

	ps.Add("short", shortPeer)
	ps.Add("tall", tallPeer)
	ps.PingAll(context.Background(), Version{Major: 1})

	best, height, err := ps.TallestPeer(context.Background())
	if err != nil {
		t.Fatalf("TallestPeer: %v", err)
	}
	if best.Address != "tall" || height != 10 {
		t.Errorf("TallestPeer = %s/%d, want tall/10", best.Address, height)
	}
}

func TestPeerSet_TallestPeerNoActivePeers(t *testing.T) {
	ps := NewPeerSet(testLogger())
	if _, _, err := ps.TallestPeer(context.Background()); err == nil {
		t.Error("TallestPeer with no active peers should return an error")
	}
}

func TestSimulatedNetwork_ConnectAndBroadcast(t *testing.T) {
	remote := newFakeHandler(0)
	net := NewSimulatedNetwork("nodeA", testLogger())
	defer net.Shutdown()

	net.ConnectPeer("nodeB", remote)
	net.Peers.PingAll(context.Background(), Version{Major: 1})

	if len(net.Peers.Active()) != 1 {
		t.Fatalf("expected 1 active peer after ping, got %d", len(net.Peers.Active()))
	}

	net.Peers.BroadcastTransaction(context.Background(), core.Transaction{Amount: 7})
	if remote.lastTx.Amount != 7 {
		t.Error("remote node did not observe the broadcast transaction")
	}
}
