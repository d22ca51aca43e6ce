package router

import (
	"io"
	"log/slog"
	"testing"

	"github.com/lsrsim/sospf/internal/topo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNode(t *testing.T, id string) *Node {
	n, err := New(topo.NodeId(id), "127.0.0.1", testLogger())
	require.NoError(t, err)
	go func() {
		_ = n.Serve()
	}()
	t.Cleanup(func() { _ = n.Close() })
	return n
}

// Scenario 1 (spec §8): two-node handshake.
func TestTwoNodeHandshake(t *testing.T) {
	a := newTestNode(t, "1.1.1.1")
	b := newTestNode(t, "2.2.2.2")

	require.NoError(t, a.Attach(b.Endpoint, b.Id, 7))
	require.NoError(t, a.Start())

	aSlots := a.Ports.Snapshot()
	require.Len(t, aSlots, 1)
	assert.Equal(t, topo.StatusTwoWay, aSlots[0].Link.Target.Status)
	assert.Equal(t, 7, aSlots[0].Link.Weight)

	bSlots := b.Ports.Snapshot()
	require.Len(t, bSlots, 1)
	assert.Equal(t, topo.StatusTwoWay, bSlots[0].Link.Target.Status)
	assert.Equal(t, 7, bSlots[0].Link.Weight)

	path, ok := a.LSD.ShortestPath(b.Id)
	require.True(t, ok)
	assert.Equal(t, "1.1.1.1 ->(7) 2.2.2.2", path)
}

// Scenario 2 (spec §8): triangle, shortest path prefers the cheaper
// two-hop route over the expensive direct edge.
func TestTriangleShortestPath(t *testing.T) {
	a := newTestNode(t, "A")
	b := newTestNode(t, "B")
	c := newTestNode(t, "C")

	// Start with no attachments just to arm hasRunStart on b and c, so
	// they are later allowed to use Connect.
	require.NoError(t, b.Start())
	require.NoError(t, c.Start())

	require.NoError(t, a.Attach(b.Endpoint, b.Id, 3))
	require.NoError(t, a.Start())

	require.NoError(t, b.Connect(c.Endpoint, c.Id, 1))
	require.NoError(t, a.Connect(c.Endpoint, c.Id, 10))

	path, ok := a.LSD.ShortestPath(c.Id)
	require.True(t, ok)
	assert.Equal(t, "A ->(3) B ->(1) C", path)

	return_, ok := b.LSD.ShortestPath(c.Id)
	require.True(t, ok)
	assert.Equal(t, "B ->(1) C", return_)
}

// spec §4.7: a link-weight change propagates through the ingest rule,
// not just through a fresh handshake.
func TestIngestPropagatesWeightChange(t *testing.T) {
	a := newTestNode(t, "A")

	link := &topo.Link{
		Origin: a.SelfDescriptor(),
		Target: topo.NeighborDescriptor{
			Endpoint: topo.ProcessEndpoint{Host: "127.0.0.1", Port: topo.MinPort + 1},
			NodeId:   "B",
			Status:   topo.StatusTwoWay,
			Weight:   3,
		},
		Weight: 3,
	}
	require.NoError(t, a.Ports.Attach(0, link))
	a.RebuildSelfLSA(false)

	// B advertises that its own link back to A now costs 1, not 3.
	changed := a.Ingest("B", []topo.LSA{
		{Origin: "B", Seq: 0, Links: []topo.LinkDescription{{NeighborId: "A", Weight: 1}}},
	})
	assert.True(t, changed)

	got, ok := a.Ports.Get(0)
	require.True(t, ok)
	assert.Equal(t, 1, got.Weight)
}

// Scenario 4 (spec §8): port exhaustion.
func TestPortExhaustion(t *testing.T) {
	server := newTestNode(t, "S")
	peers := make([]*Node, 0, 5)
	for i := 0; i < 5; i++ {
		peers = append(peers, newTestNode(t, string(rune('a'+i))))
	}

	for i := 0; i < 4; i++ {
		require.NoError(t, peers[i].Attach(server.Endpoint, server.Id, 1))
		require.NoError(t, peers[i].Start())
	}

	err := peers[4].Attach(server.Endpoint, server.Id, 1)
	require.NoError(t, err) // attach is purely local, always succeeds if there's room elsewhere
	err = peers[4].Start()
	assert.Error(t, err)

	slots := server.Ports.Snapshot()
	require.Len(t, slots, 4)
	for _, s := range slots {
		assert.Equal(t, topo.StatusTwoWay, s.Link.Target.Status)
	}
}

// Scenario 5 (spec §8): graceful shutdown tombstones the departing
// node's LSA and reroutes around it.
func TestQuitTombstonesAndReroutes(t *testing.T) {
	a := newTestNode(t, "A")
	b := newTestNode(t, "B")
	c := newTestNode(t, "C")

	require.NoError(t, b.Start())
	require.NoError(t, c.Start())
	require.NoError(t, a.Attach(b.Endpoint, b.Id, 3))
	require.NoError(t, a.Start())
	require.NoError(t, b.Connect(c.Endpoint, c.Id, 1))
	require.NoError(t, a.Connect(c.Endpoint, c.Id, 10))

	b.Quit()

	bLsa, ok := a.LSD.Get(b.Id)
	require.True(t, ok)
	assert.True(t, bLsa.HasShutdown)

	path, ok := a.LSD.ShortestPath(c.Id)
	require.True(t, ok)
	assert.Equal(t, "A ->(10) C", path)
}

// Re-ingesting the same LSAUPDATE a second time changes nothing.
func TestIngest_RepeatIsNoop(t *testing.T) {
	a := newTestNode(t, "A")
	lsa := topo.LSA{Origin: "B", Seq: 1, Links: []topo.LinkDescription{{NeighborId: "C", Weight: 1}}}

	assert.True(t, a.Ingest("B", []topo.LSA{lsa}))
	assert.False(t, a.Ingest("B", []topo.LSA{lsa}))
}
