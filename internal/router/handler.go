package router

import (
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/lsrsim/sospf/internal/ports"
	"github.com/lsrsim/sospf/internal/topo"
	"github.com/lsrsim/sospf/internal/wire"
)

// handleConnection serves exactly one protocol request on conn and then
// closes it (spec §4.5). Any error during handling is logged and the
// socket closed; it never propagates to the accept loop.
func (n *Node) handleConnection(conn net.Conn) {
	connId := uuid.New()
	defer conn.Close()

	wc := wire.NewConn(conn)
	first, err := wc.Recv()
	if err != nil {
		n.Log.Warn("failed to read request envelope", "conn", connId, "err", err)
		return
	}

	var handleErr error
	switch first.Type {
	case wire.Hello, wire.Connect:
		handleErr = n.serverHandshake(wc, first)
	case wire.LsaUpdate:
		n.HandleLsaUpdate(first)
	case wire.Disconnect:
		handleErr = n.serverDisconnect(wc, first)
	case wire.Heartbeat:
		handleErr = n.serverHeartbeat(wc, first)
	default:
		handleErr = fmt.Errorf("protocol violation: unexpected packet type %s", first.Type)
	}
	if handleErr != nil {
		n.Log.Error("request handler failed", "conn", connId, "type", first.Type, "err", handleErr)
	}
}

// serverHandshake is the server side of the HELLO/CONNECT handshake
// (spec §4.6). CONNECT and HELLO are handled identically here; CONNECT's
// weight is simply authoritative at the client's originating end.
func (n *Node) serverHandshake(wc *wire.Conn, first wire.Packet) error {
	clientId := first.SrcNodeId

	slot := n.Ports.FindFreeSlot(clientId)
	switch slot {
	case ports.NotFound:
		return wc.Send(wire.Packet{
			Type:                 wire.NoPortsAvailable,
			SrcNodeId:            n.Id,
			WeightOfTransmission: topo.IrrelevantTransmissionWeight,
		})
	case ports.Duplicate:
		// Re-running HELLO against an already-attached neighbor is
		// permitted and resets both sides to INIT (spec §9 open question).
		slot = n.Ports.FindAttachedSlot(clientId)
	default:
		link := &topo.Link{
			Origin: n.SelfDescriptor(),
			Target: topo.NeighborDescriptor{
				Endpoint: topo.ProcessEndpoint{Host: first.SrcProcessIp, Port: first.SrcProcessPort},
				NodeId:   clientId,
				Status:   topo.StatusUnknown,
				Weight:   first.WeightOfTransmission,
			},
			Weight: first.WeightOfTransmission,
		}
		if err := n.Ports.Attach(slot, link); err != nil {
			return err
		}
	}

	if err := n.Ports.SetStatus(slot, topo.StatusInit); err != nil {
		return err
	}
	n.Log.Info(fmt.Sprintf("received HELLO from %s", clientId))
	n.Log.Info(fmt.Sprintf("set %s state to INIT", clientId))

	reply := wire.Packet{
		Type:                 first.Type,
		SrcNodeId:            n.Id,
		SrcProcessIp:         n.Endpoint.Host,
		SrcProcessPort:       n.Endpoint.Port,
		DstNodeId:            clientId,
		WeightOfTransmission: first.WeightOfTransmission,
	}
	if err := wc.Send(reply); err != nil {
		return err
	}

	step3, err := wc.Recv()
	if err != nil {
		return fmt.Errorf("handshake: failed to receive step 3: %w", err)
	}
	if step3.Type != wire.Hello && step3.Type != wire.Connect {
		return fmt.Errorf("protocol violation: expected HELLO/CONNECT echo, got %s", step3.Type)
	}

	if err := n.Ports.SetStatus(slot, topo.StatusTwoWay); err != nil {
		return err
	}
	n.Log.Info(fmt.Sprintf("set %s state to TWO_WAY", clientId))

	n.RebuildSelfLSA(false)
	if err := n.syncAsServer(wc); err != nil {
		return err
	}
	n.FloodToNeighbors(clientId)
	return nil
}

// serverDisconnect handles an inbound DISCONNECT: acknowledge, detach the
// slot, then synchronize the LSD over the same connection (spec §4.5).
func (n *Node) serverDisconnect(wc *wire.Conn, first wire.Packet) error {
	slot := n.Ports.FindAttachedSlot(first.SrcNodeId)
	if err := wc.Send(wire.Packet{
		Type:                 wire.Disconnect,
		SrcNodeId:            n.Id,
		DstNodeId:            first.SrcNodeId,
		WeightOfTransmission: topo.IrrelevantTransmissionWeight,
	}); err != nil {
		return err
	}
	if slot != ports.NotFound {
		if err := n.Ports.Detach(slot); err != nil {
			return err
		}
		n.RebuildSelfLSA(false)
	}
	if err := n.syncAsServer(wc); err != nil {
		return err
	}
	n.FloodToNeighbors(first.SrcNodeId)
	return nil
}

// serverHeartbeat echoes a HEARTBEAT reply if the sender is a currently
// attached neighbor, and fails silently (no reply, no error) otherwise.
func (n *Node) serverHeartbeat(wc *wire.Conn, first wire.Packet) error {
	if n.Ports.FindAttachedSlot(first.SrcNodeId) == ports.NotFound {
		return nil
	}
	return wc.Send(wire.Packet{
		Type:                 wire.Heartbeat,
		SrcNodeId:            n.Id,
		DstNodeId:            first.SrcNodeId,
		WeightOfTransmission: topo.IrrelevantTransmissionWeight,
	})
}
