// Package router is the distributed link-state protocol engine: the
// per-node server loop, per-connection request handler, peering
// handshake, LSA flooding/synchronization, and the client-initiated
// attach/start/connect/disconnect/quit flows.
package router

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/lsrsim/sospf/internal/lsd"
	"github.com/lsrsim/sospf/internal/ports"
	"github.com/lsrsim/sospf/internal/topo"
)

// Node is a single simulated router: its identity, ports table, LSD and
// logger. Every component operates on an explicit *Node rather than
// process-wide globals, so a test suite can run many nodes in one process.
type Node struct {
	Id       topo.NodeId
	Endpoint topo.ProcessEndpoint
	Log      *slog.Logger

	Ports *ports.Table
	LSD   *lsd.Database

	hasRunStart atomic.Bool

	mu   sync.Mutex
	seen map[topo.NodeId]bool // which neighbors we have ever ingested a LSAUPDATE from

	listener net.Listener
	stopOnce sync.Once
}

// New creates a Node listening on the first available port in
// [topo.MinPort, topo.MaxPort]. This is the only fatal condition named in
// the spec: if no port can be bound, New returns an error and the process
// should exit.
func New(id topo.NodeId, host string, log *slog.Logger) (*Node, error) {
	listener, port, err := bindFreePort(host)
	if err != nil {
		return nil, fmt.Errorf("unable to bind any port in [%d, %d]: %w", topo.MinPort, topo.MaxPort, err)
	}

	n := &Node{
		Id:       id,
		Endpoint: topo.ProcessEndpoint{Host: host, Port: port},
		Log:      log.With("node", string(id)),
		Ports:    &ports.Table{},
		listener: listener,
		seen:     make(map[topo.NodeId]bool),
	}
	n.LSD = lsd.New(id)
	n.LSD.WriteSelf(nil, false)

	n.Log.Info("successfully started router instance",
		"simulatedIp", string(id), "processIp", host, "processPort", port)
	return n, nil
}

func bindFreePort(host string) (net.Listener, int, error) {
	for p := topo.MinPort; p <= topo.MaxPort; p++ {
		addr := fmt.Sprintf("%s:%d", host, p)
		l, err := net.Listen("tcp", addr)
		if err == nil {
			return l, p, nil
		}
	}
	return nil, 0, fmt.Errorf("no free port in range")
}

// Listener exposes the bound listener for the server loop.
func (n *Node) Listener() net.Listener {
	return n.listener
}

// SelfDescriptor returns this node's own NeighborDescriptor, as used as
// the Origin of every Link it owns.
func (n *Node) SelfDescriptor() topo.NeighborDescriptor {
	return topo.NeighborDescriptor{
		Endpoint: n.Endpoint,
		NodeId:   n.Id,
		Status:   topo.StatusTwoWay,
		Weight:   topo.TransmissionWeightToSelf,
	}
}

// RebuildSelfLSA regenerates this node's self-LSA from the current ports
// table: one LinkDescription per TWO_WAY slot. hasShutdown tombstones the
// advertisement, used by Disconnect(isShutdown=true) and Quit.
func (n *Node) RebuildSelfLSA(hasShutdown bool) topo.LSA {
	slots := n.Ports.Snapshot()
	links := make([]topo.LinkDescription, 0, len(slots))
	for _, s := range slots {
		if s.Link.Target.Status != topo.StatusTwoWay {
			continue
		}
		links = append(links, topo.LinkDescription{
			NeighborId: s.Link.Target.NodeId,
			PortIndex:  s.Index,
			Weight:     s.Link.Weight,
		})
	}
	return n.LSD.WriteSelf(links, hasShutdown)
}

// markFirstContact returns true the first time it is called for sender,
// and false on every subsequent call. It drives the flood policy in
// spec §4.7: a never-before-seen sender gets broadcast back to everyone.
func (n *Node) markFirstContact(sender topo.NodeId) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.seen[sender] {
		return false
	}
	n.seen[sender] = true
	return true
}

// HasRunStart reports whether Start has been invoked at least once,
// gating Connect per spec §4.9.
func (n *Node) HasRunStart() bool {
	return n.hasRunStart.Load()
}

// Close shuts down the listening socket. Safe to call more than once.
func (n *Node) Close() error {
	var err error
	n.stopOnce.Do(func() {
		err = n.listener.Close()
	})
	return err
}
