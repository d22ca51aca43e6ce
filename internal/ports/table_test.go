package ports

import (
	"testing"

	"github.com/lsrsim/sospf/internal/topo"
	"github.com/stretchr/testify/assert"
)

func selfDescriptor() topo.NeighborDescriptor {
	return topo.NeighborDescriptor{
		Endpoint: topo.ProcessEndpoint{Host: "127.0.0.1", Port: 20000},
		NodeId:   "1.1.1.1",
	}
}

func TestFindFreeSlot_EmptyTable(t *testing.T) {
	tbl := &Table{}
	assert.Equal(t, 0, tbl.FindFreeSlot("2.2.2.2"))
}

func TestFindFreeSlot_DuplicateDetected(t *testing.T) {
	tbl := &Table{}
	link := &topo.Link{Target: topo.NeighborDescriptor{NodeId: "2.2.2.2"}}
	assert.NoError(t, tbl.Attach(0, link))
	assert.Equal(t, Duplicate, tbl.FindFreeSlot("2.2.2.2"))
}

func TestFindFreeSlot_FullTableReturnsNotFound(t *testing.T) {
	tbl := &Table{}
	for i := 0; i < topo.PortCapacity; i++ {
		link := &topo.Link{Target: topo.NeighborDescriptor{NodeId: topo.NodeId(string(rune('a' + i)))}}
		assert.NoError(t, tbl.Attach(i, link))
	}
	assert.Equal(t, NotFound, tbl.FindFreeSlot("z"))
}

func TestAttachThenDetach_RestoresEmptySlot(t *testing.T) {
	tbl := &Table{}
	link := &topo.Link{Target: topo.NeighborDescriptor{NodeId: "2.2.2.2"}}
	assert.NoError(t, tbl.Attach(0, link))
	assert.NoError(t, tbl.Detach(0))
	_, ok := tbl.Get(0)
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.FindFreeSlot("2.2.2.2"))
}

func TestAttach_RejectsOutOfRangeOrOccupied(t *testing.T) {
	tbl := &Table{}
	link := &topo.Link{Target: topo.NeighborDescriptor{NodeId: "2.2.2.2"}}
	assert.Error(t, tbl.Attach(-1, link))
	assert.Error(t, tbl.Attach(topo.PortCapacity, link))
	assert.NoError(t, tbl.Attach(0, link))
	assert.Error(t, tbl.Attach(0, link))
}

func TestSetStatus_UpdatesBothEnds(t *testing.T) {
	tbl := &Table{}
	link := &topo.Link{
		Origin: selfDescriptor(),
		Target: topo.NeighborDescriptor{NodeId: "2.2.2.2"},
	}
	assert.NoError(t, tbl.Attach(0, link))
	assert.NoError(t, tbl.SetStatus(0, topo.StatusTwoWay))
	got, ok := tbl.Get(0)
	assert.True(t, ok)
	assert.Equal(t, topo.StatusTwoWay, got.Origin.Status)
	assert.Equal(t, topo.StatusTwoWay, got.Target.Status)
}

func TestSnapshot_OnlyOccupiedSlots(t *testing.T) {
	tbl := &Table{}
	assert.NoError(t, tbl.Attach(1, &topo.Link{Target: topo.NeighborDescriptor{NodeId: "a"}}))
	assert.NoError(t, tbl.Attach(3, &topo.Link{Target: topo.NeighborDescriptor{NodeId: "b"}}))
	snap := tbl.Snapshot()
	assert.Len(t, snap, 2)
}

func TestValidateAttachment(t *testing.T) {
	self := selfDescriptor()

	cases := []struct {
		name    string
		remote  topo.ProcessEndpoint
		id      topo.NodeId
		weight  int
		wantErr bool
	}{
		{"ok", topo.ProcessEndpoint{Host: "127.0.0.1", Port: 20001}, "2.2.2.2", 5, false},
		{"empty host", topo.ProcessEndpoint{Host: "", Port: 20001}, "2.2.2.2", 5, true},
		{"empty id", topo.ProcessEndpoint{Host: "127.0.0.1", Port: 20001}, "", 5, true},
		{"port too low", topo.ProcessEndpoint{Host: "127.0.0.1", Port: 1}, "2.2.2.2", 5, true},
		{"zero weight", topo.ProcessEndpoint{Host: "127.0.0.1", Port: 20001}, "2.2.2.2", 0, true},
		{"self id", topo.ProcessEndpoint{Host: "127.0.0.1", Port: 20001}, self.NodeId, 5, true},
		{"self port", topo.ProcessEndpoint{Host: "127.0.0.1", Port: self.Endpoint.Port}, "2.2.2.2", 5, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAttachment(self, tc.remote, tc.id, tc.weight)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
