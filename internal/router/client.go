// This file implements the client-initiated flows of spec §4.9: attach,
// start, connect, disconnect and quit.
package router

import (
	"fmt"
	"net"

	"github.com/lsrsim/sospf/internal/ports"
	"github.com/lsrsim/sospf/internal/topo"
	"github.com/lsrsim/sospf/internal/wire"
)

// Attach validates the given remote and, if there is room, installs a
// local Link with status UNKNOWN. Purely local: no network I/O.
func (n *Node) Attach(remote topo.ProcessEndpoint, remoteId topo.NodeId, weight int) error {
	if err := ports.ValidateAttachment(n.SelfDescriptor(), remote, remoteId, weight); err != nil {
		return err
	}

	slot := n.Ports.FindFreeSlot(remoteId)
	switch slot {
	case ports.NotFound:
		return fmt.Errorf("NO_PORTS_AVAILABLE")
	case ports.Duplicate:
		return fmt.Errorf("already attached to %s", remoteId)
	}

	link := &topo.Link{
		Origin: n.SelfDescriptor(),
		Target: topo.NeighborDescriptor{
			Endpoint: remote,
			NodeId:   remoteId,
			Status:   topo.StatusUnknown,
			Weight:   weight,
		},
		Weight: weight,
	}
	return n.Ports.Attach(slot, link)
}

// Start runs the client side of the HELLO handshake for every occupied
// port. It is idempotent: subsequent attaches may be upgraded via
// Connect, gated by the one-shot hasRunStart flag.
func (n *Node) Start() error {
	var firstErr error
	for _, slot := range n.Ports.Snapshot() {
		if err := n.clientHandshake(wire.Hello, slot.Link.Target, slot.Link.Weight); err != nil {
			n.Log.Error("start: handshake failed", "neighbor", string(slot.Link.Target.NodeId), "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	n.hasRunStart.Store(true)
	return firstErr
}

// Connect requires Start to have run at least once; it attaches then
// performs a CONNECT handshake, whose weight is authoritative.
func (n *Node) Connect(remote topo.ProcessEndpoint, remoteId topo.NodeId, weight int) error {
	if !n.HasRunStart() {
		return fmt.Errorf("connect requires start to have run at least once")
	}
	if err := n.Attach(remote, remoteId, weight); err != nil {
		return err
	}
	return n.clientHandshake(wire.Connect, topo.NeighborDescriptor{Endpoint: remote, NodeId: remoteId, Weight: weight}, weight)
}

// clientHandshake is the client side of spec §4.6: send step 1, wait for
// step 2, promote to TWO_WAY, echo step 3, write a fresh self-LSA, then
// synchronize the LSD and flood to other neighbors.
func (n *Node) clientHandshake(pktType wire.PacketType, target topo.NeighborDescriptor, weight int) error {
	addr := fmt.Sprintf("%s:%d", target.Endpoint.Host, target.Endpoint.Port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	wc := wire.NewConn(conn)
	step1 := wire.Packet{
		Type:                 pktType,
		SrcNodeId:            n.Id,
		SrcProcessIp:         n.Endpoint.Host,
		SrcProcessPort:       n.Endpoint.Port,
		DstNodeId:            target.NodeId,
		WeightOfTransmission: weight,
	}
	if err := wc.Send(step1); err != nil {
		return err
	}

	reply, err := wc.Recv()
	if err != nil {
		return fmt.Errorf("handshake: failed to receive step 2: %w", err)
	}
	if reply.Type == wire.NoPortsAvailable {
		return fmt.Errorf("NO_PORTS_AVAILABLE from %s", target.NodeId)
	}
	if reply.Type != wire.Hello && reply.Type != wire.Connect {
		return fmt.Errorf("protocol violation: unexpected reply type %s", reply.Type)
	}

	slot := n.Ports.FindAttachedSlot(target.NodeId)
	if slot == ports.NotFound {
		return fmt.Errorf("no attached slot for %s", target.NodeId)
	}
	if err := n.Ports.SetStatus(slot, topo.StatusTwoWay); err != nil {
		return err
	}
	n.Log.Info(fmt.Sprintf("set %s state to TWO_WAY", target.NodeId))

	if err := wc.Send(reply); err != nil {
		return err
	}

	n.RebuildSelfLSA(false)
	if err := n.syncAsClient(wc); err != nil {
		return err
	}
	n.FloodToNeighbors(target.NodeId)
	return nil
}

// Disconnect tears down the link at the given slot. If it is TWO_WAY, it
// exchanges a DISCONNECT over the network, synchronizes the LSD, and
// floods the remaining neighbors. If it is merely attached but not
// TWO_WAY, it detaches locally without network traffic. isShutdown
// tombstones this node's self-LSA before synchronizing (used by Quit).
func (n *Node) Disconnect(slot int, isShutdown bool) error {
	link, ok := n.Ports.Get(slot)
	if !ok {
		return fmt.Errorf("no link at port index %d", slot)
	}

	if link.Target.Status != topo.StatusTwoWay {
		return n.Ports.Detach(slot)
	}

	addr := fmt.Sprintf("%s:%d", link.Target.Endpoint.Host, link.Target.Endpoint.Port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()

	wc := wire.NewConn(conn)
	if err := wc.Send(wire.Packet{
		Type:                 wire.Disconnect,
		SrcNodeId:            n.Id,
		DstNodeId:            link.Target.NodeId,
		WeightOfTransmission: topo.IrrelevantTransmissionWeight,
	}); err != nil {
		return err
	}
	ack, err := wc.Recv()
	if err != nil {
		return fmt.Errorf("disconnect: failed to receive ack: %w", err)
	}
	if ack.Type != wire.Disconnect {
		return fmt.Errorf("protocol violation: expected DISCONNECT ack, got %s", ack.Type)
	}

	if err := n.Ports.Detach(slot); err != nil {
		return err
	}
	n.RebuildSelfLSA(isShutdown)

	if err := n.syncAsClient(wc); err != nil {
		return err
	}
	n.FloodToNeighbors(link.Target.NodeId)
	return nil
}

// Quit disconnects every TWO_WAY neighbor as a shutdown, so peers learn
// this node is gone before the process exits.
func (n *Node) Quit() {
	for _, slot := range n.Ports.Snapshot() {
		if slot.Link.Target.Status != topo.StatusTwoWay {
			continue
		}
		if err := n.Disconnect(slot.Index, true); err != nil {
			n.Log.Error("quit: disconnect failed", "neighbor", string(slot.Link.Target.NodeId), "err", err)
		}
	}
}
