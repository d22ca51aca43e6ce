package router

import (
	"fmt"
	"net"

	"github.com/lsrsim/sospf/internal/topo"
	"github.com/lsrsim/sospf/internal/wire"
)

// FloodToNeighbors implements the outbound broadcast pattern of spec
// §4.7.1: for every TWO_WAY, non-shutdown neighbor other than exclude, it
// opens a fresh outbound connection, sends a single LSAUPDATE carrying
// lsd.SnapshotValues(), and closes — no reply is awaited. A failing
// neighbor never aborts the broadcast to the rest.
func (n *Node) FloodToNeighbors(exclude topo.NodeId) {
	for _, slot := range n.Ports.Snapshot() {
		target := slot.Link.Target
		if target.Status != topo.StatusTwoWay {
			continue
		}
		if exclude != "" && target.NodeId == exclude {
			continue
		}
		if lsa, ok := n.LSD.Get(target.NodeId); ok && lsa.HasShutdown {
			continue
		}
		go n.sendUpdate(target)
	}
}

func (n *Node) sendUpdate(target topo.NeighborDescriptor) {
	addr := fmt.Sprintf("%s:%d", target.Endpoint.Host, target.Endpoint.Port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		n.Log.Warn("flood: failed to reach neighbor", "neighbor", string(target.NodeId), "err", err)
		return
	}
	defer conn.Close()

	wc := wire.NewConn(conn)
	err = wc.Send(wire.Packet{
		Type:                 wire.LsaUpdate,
		SrcNodeId:            n.Id,
		SrcProcessIp:         n.Endpoint.Host,
		SrcProcessPort:       n.Endpoint.Port,
		DstNodeId:            target.NodeId,
		LsaArray:             n.LSD.SnapshotValues(),
		WeightOfTransmission: topo.IrrelevantTransmissionWeight,
	})
	if err != nil {
		n.Log.Warn("flood: failed to send LSAUPDATE", "neighbor", string(target.NodeId), "err", err)
	}
}

// HandleLsaUpdate ingests an inbound LSAUPDATE and applies the flood
// policy of spec §4.7: the first-ever LSAUPDATE from a sender is
// broadcast back to everyone (including the sender); otherwise the
// broadcast excludes the sender and only happens if anything changed.
func (n *Node) HandleLsaUpdate(pkt wire.Packet) {
	changed := n.Ingest(pkt.SrcNodeId, pkt.LsaArray)
	firstContact := n.markFirstContact(pkt.SrcNodeId)
	if firstContact {
		n.FloodToNeighbors("")
	} else if changed {
		n.FloodToNeighbors(pkt.SrcNodeId)
	}
}

// syncAsServer is the passive half of inline LSD synchronization
// (spec §4.7.2): wait for the peer's LSAUPDATE, apply it, rewrite the
// self-LSA to reflect any local topology change, then reply in kind.
func (n *Node) syncAsServer(wc *wire.Conn) error {
	peerUpdate, err := wc.Recv()
	if err != nil {
		return fmt.Errorf("sync: failed to receive peer LSAUPDATE: %w", err)
	}
	n.Ingest(peerUpdate.SrcNodeId, peerUpdate.LsaArray)
	n.RebuildSelfLSA(false)
	return wc.Send(wire.Packet{
		Type:                 wire.LsaUpdate,
		SrcNodeId:            n.Id,
		LsaArray:             n.LSD.SnapshotValues(),
		WeightOfTransmission: topo.IrrelevantTransmissionWeight,
	})
}

// syncAsClient is the active half of inline LSD synchronization: send
// first, then wait for and apply the peer's reply.
func (n *Node) syncAsClient(wc *wire.Conn) error {
	err := wc.Send(wire.Packet{
		Type:                 wire.LsaUpdate,
		SrcNodeId:            n.Id,
		LsaArray:             n.LSD.SnapshotValues(),
		WeightOfTransmission: topo.IrrelevantTransmissionWeight,
	})
	if err != nil {
		return fmt.Errorf("sync: failed to send LSAUPDATE: %w", err)
	}
	peerUpdate, err := wc.Recv()
	if err != nil {
		return fmt.Errorf("sync: failed to receive peer LSAUPDATE: %w", err)
	}
	n.Ingest(peerUpdate.SrcNodeId, peerUpdate.LsaArray)
	return nil
}
