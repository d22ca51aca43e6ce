// Package wire defines the single envelope used for every protocol
// interaction and frames it over a stream connection with encoding/gob.
//
// The teacher framed its control packets with protobuf against a
// .proto-generated type; reproducing that here would require running
// protoc, which this codebase cannot do. gob over a raw net.Conn is the
// ecosystem's standard substitute for streaming one self-describing Go
// struct type per connection (see other_examples/dedis-tlc__node.go and
// other_examples/senutpal-quorum__transport.go).
package wire

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/lsrsim/sospf/internal/topo"
)

// PacketType tags which of the six protocol interactions an envelope carries.
type PacketType int

const (
	Hello PacketType = iota
	LsaUpdate
	Connect
	Disconnect
	Heartbeat
	NoPortsAvailable
)

func (t PacketType) String() string {
	switch t {
	case Hello:
		return "HELLO"
	case LsaUpdate:
		return "LSAUPDATE"
	case Connect:
		return "CONNECT"
	case Disconnect:
		return "DISCONNECT"
	case Heartbeat:
		return "HEARTBEAT"
	case NoPortsAvailable:
		return "NO_PORTS_AVAILABLE"
	default:
		return fmt.Sprintf("PacketType(%d)", int(t))
	}
}

// Packet is the wire envelope shared by all six protocol interactions.
// Fields not relevant to Type carry their zero value, except
// WeightOfTransmission, which carries topo.IrrelevantTransmissionWeight on
// every packet other than HELLO/CONNECT.
type Packet struct {
	SrcProcessIp         string
	SrcProcessPort       int
	SrcNodeId            topo.NodeId
	DstNodeId            topo.NodeId
	Type                 PacketType
	RouterId             topo.NodeId
	NeighborId           topo.NodeId
	LsaArray             []topo.LSA
	WeightOfTransmission int
}

// Conn wraps a stream connection with a gob encoder/decoder pair. Per the
// protocol's resource discipline, the encoder (output stream) is
// established before the decoder (input stream) on every conversation.
type Conn struct {
	enc *gob.Encoder
	dec *gob.Decoder
}

func NewConn(rw io.ReadWriter) *Conn {
	enc := gob.NewEncoder(rw)
	dec := gob.NewDecoder(rw)
	return &Conn{enc: enc, dec: dec}
}

func (c *Conn) Send(p Packet) error {
	if err := c.enc.Encode(&p); err != nil {
		return fmt.Errorf("encode packet: %w", err)
	}
	return nil
}

func (c *Conn) Recv() (Packet, error) {
	var p Packet
	if err := c.dec.Decode(&p); err != nil {
		return Packet{}, fmt.Errorf("decode packet: %w", err)
	}
	return p, nil
}
