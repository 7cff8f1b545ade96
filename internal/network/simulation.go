package network

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"empower1.com/empower1blockchain/internal/core"
)

// requestKind tags a simRequest with which Handler method to invoke.
type requestKind int

const (
	requestPing requestKind = iota
	requestBroadcastTransaction
	requestBroadcastBlock
	requestGetBlockHeight
	requestGetBlock
)

// simRequest is one call queued onto a SimulatedPeer's goroutine, carrying
// whichever argument its kind needs and a reply channel for the result.
type simRequest struct {
	kind   requestKind
	ping   Version
	tx     core.Transaction
	block  core.Block
	height uint64
	reply  chan simReply
}

type simReply struct {
	version Version
	ok      bool
	height  uint64
	block   core.Block
	found   bool
	err     error
}

// SimulatedPeer implements PeerTransport by queuing each call onto a
// dedicated goroutine that dispatches into a remote node's Handler
// in-process, mirroring the latency and back-pressure characteristics of a
// real transport without leaving the process. This is the in-memory stand-in
// used for local multi-node development and tests.
type SimulatedPeer struct {
	localID, remoteID string
	remote            Handler
	log               *zap.SugaredLogger

	requests chan simRequest
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSimulatedPeer starts a peer connection from localID to remoteID,
// dispatching queued calls into remote's Handler on a background goroutine.
func NewSimulatedPeer(localID, remoteID string, remote Handler, log *zap.SugaredLogger) *SimulatedPeer {
	p := &SimulatedPeer{
		localID:  localID,
		remoteID: remoteID,
		remote:   remote,
		log:      log,
		requests: make(chan simRequest, 100),
		stopChan: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.processLoop()
	return p
}

// Stop signals the peer's processing goroutine to exit and waits for it.
func (p *SimulatedPeer) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *SimulatedPeer) processLoop() {
	defer p.wg.Done()
	p.log.Debugw("simulated peer link started", "from", p.localID, "to", p.remoteID)
	for {
		select {
		case req := <-p.requests:
			p.dispatch(req)
		case <-p.stopChan:
			p.log.Debugw("simulated peer link stopped", "from", p.localID, "to", p.remoteID)
			return
		}
	}
}

func (p *SimulatedPeer) dispatch(req simRequest) {
	var rep simReply
	switch req.kind {
	case requestPing:
		rep.version, rep.err = p.remote.HandlePing(req.ping)
	case requestBroadcastTransaction:
		rep.ok, rep.err = p.remote.HandleBroadcastTransaction(req.tx)
	case requestBroadcastBlock:
		rep.ok, rep.err = p.remote.HandleBroadcastBlock(req.block)
	case requestGetBlockHeight:
		rep.height = p.remote.HandleGetBlockHeight()
	case requestGetBlock:
		rep.block, rep.found = p.remote.HandleGetBlock(req.height)
	}
	select {
	case req.reply <- rep:
	default:
		p.log.Warnw("simulated peer reply dropped, caller no longer waiting", "from", p.localID, "to", p.remoteID)
	}
}

// call queues req and waits for its reply, respecting ctx cancellation on
// both the enqueue and the wait.
func (p *SimulatedPeer) call(ctx context.Context, req simRequest) (simReply, error) {
	select {
	case p.requests <- req:
	case <-ctx.Done():
		return simReply{}, ctx.Err()
	}
	select {
	case rep := <-req.reply:
		return rep, nil
	case <-ctx.Done():
		return simReply{}, ctx.Err()
	}
}

func (p *SimulatedPeer) Ping(ctx context.Context, local Version) (Version, error) {
	rep, err := p.call(ctx, simRequest{kind: requestPing, ping: local, reply: make(chan simReply, 1)})
	if err != nil {
		return Version{}, err
	}
	return rep.version, rep.err
}

func (p *SimulatedPeer) BroadcastTransaction(ctx context.Context, tx core.Transaction) (bool, error) {
	rep, err := p.call(ctx, simRequest{kind: requestBroadcastTransaction, tx: tx, reply: make(chan simReply, 1)})
	if err != nil {
		return false, err
	}
	return rep.ok, rep.err
}

func (p *SimulatedPeer) BroadcastBlock(ctx context.Context, block core.Block) (bool, error) {
	rep, err := p.call(ctx, simRequest{kind: requestBroadcastBlock, block: block, reply: make(chan simReply, 1)})
	if err != nil {
		return false, err
	}
	return rep.ok, rep.err
}

func (p *SimulatedPeer) GetBlockHeight(ctx context.Context) (uint64, error) {
	rep, err := p.call(ctx, simRequest{kind: requestGetBlockHeight, reply: make(chan simReply, 1)})
	if err != nil {
		return 0, err
	}
	return rep.height, rep.err
}

func (p *SimulatedPeer) GetBlock(ctx context.Context, height uint64) (core.Block, bool, error) {
	rep, err := p.call(ctx, simRequest{kind: requestGetBlock, height: height, reply: make(chan simReply, 1)})
	if err != nil {
		return core.Block{}, false, err
	}
	return rep.block, rep.found, rep.err
}

// SimulatedNetwork is one node's end of an in-memory network: its own
// Handler (answering inbound calls) plus the PeerSet of outbound links to
// other simulated nodes.
type SimulatedNetwork struct {
	NodeID string
	Peers  *PeerSet

	log   *zap.SugaredLogger
	links []*SimulatedPeer
}

// NewSimulatedNetwork creates a node's in-memory network endpoint.
func NewSimulatedNetwork(nodeID string, log *zap.SugaredLogger) *SimulatedNetwork {
	return &SimulatedNetwork{
		NodeID: nodeID,
		Peers:  NewPeerSet(log),
		log:    log,
	}
}

// ConnectPeer wires this node to remoteID's Handler, registering the link in
// the peer set under PeerUnknown state until the next PingAll.
func (sn *SimulatedNetwork) ConnectPeer(remoteID string, remoteHandler Handler) {
	link := NewSimulatedPeer(sn.NodeID, remoteID, remoteHandler, sn.log)
	sn.links = append(sn.links, link)
	sn.Peers.Add(remoteID, link)
	sn.log.Infow("connected simulated peer", "node", sn.NodeID, "peer", remoteID)
}

// Shutdown stops every simulated peer link's background goroutine.
func (sn *SimulatedNetwork) Shutdown() {
	for _, link := range sn.links {
		link.Stop()
	}
}
