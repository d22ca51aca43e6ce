// Package lsd implements the replicated Link-State Database: the mapping
// from NodeId to each origin's latest LSA, and the Dijkstra shortest-path
// query over the graph it induces.
package lsd

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lsrsim/sospf/internal/topo"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Database is a node's view of every router's latest advertisement. Get,
// Put and SnapshotValues are each atomic; WriteSelf additionally makes the
// read-bump-write sequence used to regenerate a node's own LSA atomic with
// respect to any other writer.
type Database struct {
	mu   sync.Mutex
	self topo.NodeId
	lsas map[topo.NodeId]topo.LSA
}

func New(self topo.NodeId) *Database {
	return &Database{
		self: self,
		lsas: make(map[topo.NodeId]topo.LSA),
	}
}

// Get returns the stored LSA for id, if any.
func (d *Database) Get(id topo.NodeId) (topo.LSA, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	lsa, ok := d.lsas[id]
	return lsa, ok
}

// Put unconditionally overwrites the stored LSA for lsa.Origin.
func (d *Database) Put(lsa topo.LSA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lsas[lsa.Origin] = lsa
}

// SnapshotValues returns every stored LSA, used to build LSAUPDATE payloads.
func (d *Database) SnapshotValues() []topo.LSA {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]topo.LSA, 0, len(d.lsas))
	for _, lsa := range d.lsas {
		out = append(out, lsa)
	}
	return out
}

// IsFresher reports whether candidate should replace the stored LSA:
// the stored LSA is absent (flagged by topo.NoPreviousSeq), candidate's Seq
// is strictly greater, or the stored LSA was a shutdown tombstone and
// candidate resurrects it.
func IsFresher(stored topo.LSA, storedOk bool, candidate topo.LSA) bool {
	storedSeq := stored.Seq
	if !storedOk {
		storedSeq = topo.NoPreviousSeq
	}
	if candidate.Seq > storedSeq {
		return true
	}
	if stored.HasShutdown && !candidate.HasShutdown {
		return true
	}
	return false
}

// IngestOne applies candidate if it is fresher than what is stored for its
// origin, returning whether it replaced the stored value.
func (d *Database) IngestOne(candidate topo.LSA) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	stored, ok := d.lsas[candidate.Origin]
	if !IsFresher(stored, ok, candidate) {
		return false
	}
	d.lsas[candidate.Origin] = candidate
	return true
}

// WriteSelf regenerates this node's self-LSA from the given link
// descriptions, bumping the sequence number exactly once regardless of
// concurrent callers.
func (d *Database) WriteSelf(links []topo.LinkDescription, hasShutdown bool) topo.LSA {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.lsas[d.self]
	seq := 0
	if ok {
		seq = prev.Seq + 1
	}
	lsa := topo.LSA{
		Origin:      d.self,
		Seq:         seq,
		HasShutdown: hasShutdown,
		Links:       links,
	}
	d.lsas[d.self] = lsa
	return lsa
}

// ShortestPath computes the shortest path from this node's own id to dest
// by Dijkstra's algorithm over the directed weighted graph induced by
// every non-shutdown LSA in the database, formatted as
// "a ->(w1) b ->(w2) ... ->(wn) z". It returns false if dest is unreachable.
func (d *Database) ShortestPath(dest topo.NodeId) (string, bool) {
	d.mu.Lock()
	all := make([]topo.LSA, 0, len(d.lsas))
	for _, lsa := range d.lsas {
		all = append(all, lsa)
	}
	self := d.self
	d.mu.Unlock()

	if self == dest {
		return string(self), true
	}

	// Nodes whose own LSA is tombstoned are excluded both as origins and
	// as edge endpoints (spec §4.8).
	shutdown := make(map[topo.NodeId]bool)
	for _, lsa := range all {
		if lsa.HasShutdown {
			shutdown[lsa.Origin] = true
		}
	}

	// gonum's tie-break among equal-cost paths depends on node/edge
	// iteration order, so the NodeId -> int64 interning must be assigned
	// from a deterministic ordering rather than map iteration order
	// (spec §4.8: tie-breaking must be deterministic for a given LSD
	// state). Collect every id that will appear in the graph and sort it
	// before interning.
	idSet := make(map[topo.NodeId]struct{})
	for _, lsa := range all {
		idSet[lsa.Origin] = struct{}{}
		for _, ld := range lsa.Links {
			idSet[ld.NeighborId] = struct{}{}
		}
	}
	sorted := make([]topo.NodeId, 0, len(idSet))
	for id := range idSet {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	ids := make(map[topo.NodeId]int64, len(sorted))
	names := make(map[int64]topo.NodeId, len(sorted))
	for i, id := range sorted {
		ids[id] = int64(i)
		names[int64(i)] = id
	}
	idOf := func(n topo.NodeId) int64 { return ids[n] }

	g := simple.NewWeightedDirectedGraph(0, 0)
	for _, lsa := range all {
		if lsa.HasShutdown {
			continue
		}
		from := idOf(lsa.Origin)
		if g.Node(from) == nil {
			g.AddNode(simple.Node(from))
		}
		for _, ld := range lsa.Links {
			if shutdown[ld.NeighborId] {
				continue
			}
			to := idOf(ld.NeighborId)
			if g.Node(to) == nil {
				g.AddNode(simple.Node(to))
			}
			g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(from), T: simple.Node(to), W: float64(ld.Weight)})
		}
	}

	srcId, ok := ids[self]
	if !ok {
		return "", false
	}
	dstId, ok := ids[dest]
	if !ok {
		return "", false
	}

	srcNode := g.Node(srcId)
	if srcNode == nil {
		// This node's own LSA is tombstoned, so nothing is reachable from it.
		return "", false
	}
	shortest := path.DijkstraFrom(srcNode, g)
	nodes, _ := shortest.To(dstId)
	if len(nodes) == 0 {
		return "", false
	}

	result := string(names[nodes[0].ID()])
	for i := 1; i < len(nodes); i++ {
		edge := g.WeightedEdge(nodes[i-1].ID(), nodes[i].ID())
		w := 0
		if edge != nil {
			w = int(edge.Weight())
		}
		result += fmt.Sprintf(" ->(%d) %s", w, names[nodes[i].ID()])
	}
	return result, true
}

