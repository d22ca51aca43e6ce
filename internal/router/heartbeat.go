package router

import (
	"fmt"
	"net"
	"time"

	"github.com/lsrsim/sospf/internal/topo"
	"github.com/lsrsim/sospf/internal/wire"
)

const (
	heartbeatInterval = 5 * time.Second
	heartbeatMaxRetry = 5
)

// RunHeartbeat is the optional liveness loop sketched in spec §9: every
// heartbeatInterval it pings each TWO_WAY neighbor, and after
// heartbeatMaxRetry consecutive failures against one neighbor marks that
// neighbor's advertisement shut down, detaches locally, bumps this node's
// self-LSA, and floods the change. It runs until stop is closed.
func (n *Node) RunHeartbeat(stop <-chan struct{}) {
	failures := make(map[topo.NodeId]int)
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, slot := range n.Ports.Snapshot() {
				target := slot.Link.Target
				if target.Status != topo.StatusTwoWay {
					continue
				}
				if n.pingNeighbor(target) {
					delete(failures, target.NodeId)
					continue
				}
				failures[target.NodeId]++
				if failures[target.NodeId] < heartbeatMaxRetry {
					continue
				}
				delete(failures, target.NodeId)
				n.Log.Warn("heartbeat: neighbor unresponsive, marking shut down", "neighbor", string(target.NodeId))
				if lsa, ok := n.LSD.Get(target.NodeId); ok {
					lsa.HasShutdown = true
					n.LSD.Put(lsa)
				}
				_ = n.Ports.Detach(slot.Index)
				n.RebuildSelfLSA(false)
				n.FloodToNeighbors(target.NodeId)
			}
		}
	}
}

func (n *Node) pingNeighbor(target topo.NeighborDescriptor) bool {
	addr := fmt.Sprintf("%s:%d", target.Endpoint.Host, target.Endpoint.Port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return false
	}
	defer conn.Close()

	wc := wire.NewConn(conn)
	if err := wc.Send(wire.Packet{
		Type:                 wire.Heartbeat,
		SrcNodeId:            n.Id,
		DstNodeId:            target.NodeId,
		WeightOfTransmission: topo.IrrelevantTransmissionWeight,
	}); err != nil {
		return false
	}
	reply, err := wc.Recv()
	return err == nil && reply.Type == wire.Heartbeat
}
