// Package ports implements the fixed-size neighbor slot table every node
// carries (spec §4.1): at most topo.PortCapacity simultaneous links,
// keyed by slot index, with no duplicate neighbor across slots.
package ports

import (
	"fmt"
	"sync"

	"github.com/lsrsim/sospf/internal/topo"
)

// Sentinel results of FindFreeSlot/FindAttachedSlot.
const (
	NotFound  = -1
	Duplicate = -2
)

// Table is a fixed-size array of topo.PortCapacity slots, each either
// empty or holding a Link. All operations are serialized under a single
// mutex.
type Table struct {
	mu    sync.Mutex
	slots [topo.PortCapacity]*topo.Link
}

// Slot pairs a link with the index it occupies, for snapshotting.
type Slot struct {
	Index int
	Link  topo.Link
}

// FindFreeSlot returns the index of an empty slot, NotFound if the table
// is full, or Duplicate if a slot already holds a link to remoteId.
func (t *Table) FindFreeSlot(remoteId topo.NodeId) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	free := NotFound
	for i, link := range t.slots {
		if link == nil {
			if free == NotFound {
				free = i
			}
			continue
		}
		if link.Target.NodeId == remoteId {
			return Duplicate
		}
	}
	return free
}

// FindAttachedSlot returns the index of the slot holding a link to
// remoteId, or NotFound.
func (t *Table) FindAttachedSlot(remoteId topo.NodeId) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, link := range t.slots {
		if link != nil && link.Target.NodeId == remoteId {
			return i
		}
	}
	return NotFound
}

// Attach installs link at the given index. It fails if the index is out
// of range or already occupied.
func (t *Table) Attach(index int, link *topo.Link) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= topo.PortCapacity {
		return fmt.Errorf("port index %d out of range", index)
	}
	if t.slots[index] != nil {
		return fmt.Errorf("port index %d already attached", index)
	}
	t.slots[index] = link
	return nil
}

// Detach clears the slot at index, a no-op if it is already empty.
func (t *Table) Detach(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= topo.PortCapacity {
		return fmt.Errorf("port index %d out of range", index)
	}
	t.slots[index] = nil
	return nil
}

// Get returns a copy of the link at index, and whether one is present.
func (t *Table) Get(index int) (topo.Link, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= topo.PortCapacity || t.slots[index] == nil {
		return topo.Link{}, false
	}
	return *t.slots[index], true
}

// SetStatus sets both ends of the link at index to status.
func (t *Table) SetStatus(index int, status topo.Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= topo.PortCapacity || t.slots[index] == nil {
		return fmt.Errorf("port index %d is not attached", index)
	}
	t.slots[index].Origin.Status = status
	t.slots[index].Target.Status = status
	return nil
}

// UpdateWeight rewrites the authoritative weight of the link at index,
// the mechanism by which link-weight changes propagate (spec §4.7).
func (t *Table) UpdateWeight(index int, weight int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= topo.PortCapacity || t.slots[index] == nil {
		return fmt.Errorf("port index %d is not attached", index)
	}
	t.slots[index].Weight = weight
	t.slots[index].Target.Weight = weight
	return nil
}

// Snapshot returns a point-in-time copy of every occupied slot.
func (t *Table) Snapshot() []Slot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Slot, 0, topo.PortCapacity)
	for i, link := range t.slots {
		if link != nil {
			out = append(out, Slot{Index: i, Link: *link})
		}
	}
	return out
}

// ValidateAttachment checks the input constraints spec §4.1 requires
// before a link may be attached: non-empty remote address/id, remote port
// in the permitted range, a positive weight, and that the remote is not
// this node itself.
func ValidateAttachment(self topo.NeighborDescriptor, remote topo.ProcessEndpoint, remoteId topo.NodeId, weight int) error {
	if remote.Host == "" || remoteId == "" {
		return fmt.Errorf("remote process address and node id must be non-empty")
	}
	if remote.Port < topo.MinPort || remote.Port > topo.MaxPort {
		return fmt.Errorf("remote process port %d out of range [%d, %d]", remote.Port, topo.MinPort, topo.MaxPort)
	}
	if weight <= 0 {
		return fmt.Errorf("link weight must be positive, got %d", weight)
	}
	if remoteId == self.NodeId {
		return fmt.Errorf("cannot attach to self (%s)", remoteId)
	}
	if remote.Port == self.Endpoint.Port {
		return fmt.Errorf("remote process port %d collides with this node's own port", remote.Port)
	}
	return nil
}
