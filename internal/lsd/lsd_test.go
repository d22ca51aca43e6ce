package lsd

import (
	"testing"

	"github.com/lsrsim/sospf/internal/topo"
	"github.com/stretchr/testify/assert"
)

func TestIsFresher(t *testing.T) {
	stale := topo.LSA{Origin: "a", Seq: 3}
	fresher := topo.LSA{Origin: "a", Seq: 4}
	sameSeq := topo.LSA{Origin: "a", Seq: 3}
	tombstone := topo.LSA{Origin: "a", Seq: 3, HasShutdown: true}
	resurrection := topo.LSA{Origin: "a", Seq: 1, HasShutdown: false}

	assert.True(t, IsFresher(topo.LSA{}, false, stale))
	assert.True(t, IsFresher(stale, true, fresher))
	assert.False(t, IsFresher(stale, true, sameSeq))
	assert.False(t, IsFresher(stale, true, stale))
	// resurrection after shutdown is accepted regardless of sequence number
	assert.True(t, IsFresher(tombstone, true, resurrection))
}

func TestIngestOne_DropsStaleOrDuplicate(t *testing.T) {
	db := New("self")
	assert.True(t, db.IngestOne(topo.LSA{Origin: "a", Seq: 2}))
	assert.False(t, db.IngestOne(topo.LSA{Origin: "a", Seq: 2}))
	assert.False(t, db.IngestOne(topo.LSA{Origin: "a", Seq: 1}))
	assert.True(t, db.IngestOne(topo.LSA{Origin: "a", Seq: 3}))
}

func TestWriteSelf_SeqStrictlyIncreases(t *testing.T) {
	db := New("self")
	first := db.WriteSelf(nil, false)
	second := db.WriteSelf([]topo.LinkDescription{{NeighborId: "a", Weight: 1}}, false)
	assert.Less(t, first.Seq, second.Seq)
}

func TestShortestPath_TrivialToSelf(t *testing.T) {
	db := New("a")
	path, ok := db.ShortestPath("a")
	assert.True(t, ok)
	assert.Equal(t, "a", path)
}

func TestShortestPath_Unreachable(t *testing.T) {
	db := New("a")
	db.Put(topo.LSA{Origin: "a", Links: nil})
	_, ok := db.ShortestPath("z")
	assert.False(t, ok)
}

func TestShortestPath_PrefersCheaperIndirectRoute(t *testing.T) {
	db := New("a")
	db.Put(topo.LSA{Origin: "a", Links: []topo.LinkDescription{
		{NeighborId: "b", Weight: 3},
		{NeighborId: "c", Weight: 10},
	}})
	db.Put(topo.LSA{Origin: "b", Links: []topo.LinkDescription{
		{NeighborId: "a", Weight: 3},
		{NeighborId: "c", Weight: 1},
	}})
	db.Put(topo.LSA{Origin: "c", Links: []topo.LinkDescription{
		{NeighborId: "a", Weight: 10},
		{NeighborId: "b", Weight: 1},
	}})

	path, ok := db.ShortestPath("c")
	assert.True(t, ok)
	assert.Equal(t, "a ->(3) b ->(1) c", path)
}

func TestShortestPath_ExcludesShutdownOrigins(t *testing.T) {
	db := New("a")
	db.Put(topo.LSA{Origin: "a", Links: []topo.LinkDescription{{NeighborId: "b", Weight: 1}}})
	db.Put(topo.LSA{Origin: "b", HasShutdown: true, Links: []topo.LinkDescription{{NeighborId: "a", Weight: 1}}})

	_, ok := db.ShortestPath("b")
	assert.False(t, ok)
}
