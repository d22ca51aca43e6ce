package router

import (
	"github.com/lsrsim/sospf/internal/ports"
	"github.com/lsrsim/sospf/internal/topo"
)

// Ingest applies every LSA in lsas to the LSD, replacing the stored value
// for each origin when the fresher predicate holds (spec §4.3). When the
// sender is a directly-attached neighbor, it additionally looks for a
// link in the freshly-stored LSA pointing back at this node and, if the
// advertised weight differs from the local port's weight, rewrites the
// local port and bumps the self-LSA: the mechanism by which link-weight
// changes propagate (spec §4.7). It returns whether anything changed.
func (n *Node) Ingest(sender topo.NodeId, lsas []topo.LSA) bool {
	changed := false
	for _, candidate := range lsas {
		if !n.LSD.IngestOne(candidate) {
			continue
		}
		changed = true

		if candidate.Origin != sender {
			continue
		}
		slot := n.Ports.FindAttachedSlot(sender)
		if slot == ports.NotFound {
			continue
		}
		for _, ld := range candidate.Links {
			if ld.NeighborId != n.Id {
				continue
			}
			link, ok := n.Ports.Get(slot)
			if ok && link.Weight != ld.Weight {
				_ = n.Ports.UpdateWeight(slot, ld.Weight)
				n.RebuildSelfLSA(false)
			}
			break
		}
	}
	return changed
}
