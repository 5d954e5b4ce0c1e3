package feature

import (
	"github.com/pkg/errors"

	"github.com/Ko-stant/tilefeature-engine/internal/board"
	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
)

// Audit recomputes the partition from scratch and compares it with the
// engine's incremental state. It is O(board) and meant for tests and
// debug builds.
func Audit(b *board.Board, e *Engine) error {
	if err := auditNodes(b, e); err != nil {
		return err
	}
	if err := auditFeatures(b, e); err != nil {
		return err
	}
	return auditPartition(b, e)
}

func grouped(n *board.Node) bool {
	if n.Ref.Kind == board.FarmNode {
		return n.Present()
	}
	_, ok := kindForEdge(n.Edge)
	return ok
}

func eachNode(b *board.Board, fn func(n *board.Node) error) error {
	for _, pt := range b.Tiles() {
		for i := range pt.Sides {
			if err := fn(&pt.Sides[i]); err != nil {
				return err
			}
		}
		for i := range pt.Farms {
			if !pt.Farms[i].Present() {
				continue
			}
			if err := fn(&pt.Farms[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// auditNodes checks that links are mutual, that linked nodes share a group
// and that every groupable node points at a live feature.
func auditNodes(b *board.Board, e *Engine) error {
	return eachNode(b, func(n *board.Node) error {
		if n.Linked() {
			p := b.Node(n.OutConnect)
			if p == nil || p.OutConnect != n.Ref {
				return errors.Wrapf(ErrOrphanNode, "%v links to %v which does not link back", n.Ref, n.OutConnect)
			}
			if p.Group != n.Group {
				return errors.Wrapf(ErrOrphanNode, "%v in %d but partner %v in %d", n.Ref, n.Group, p.Ref, p.Group)
			}
		}
		if !grouped(n) {
			if n.Group != None {
				return errors.Wrapf(ErrPartitionMismatch, "%v (%v) should not be grouped", n.Ref, n.Edge)
			}
			return nil
		}
		f, err := e.table.Get(n.Group)
		if err != nil {
			return errors.Wrapf(err, "node %v", n.Ref)
		}
		want := Farm
		if n.Ref.Kind == board.SideNode {
			want, _ = kindForEdge(n.Edge)
		}
		if f.kind != want {
			return errors.Wrapf(ErrPartitionMismatch, "%v (%v) grouped into %v", n.Ref, n.Edge, f)
		}
		return nil
	})
}

// auditFeatures checks member lists and recounts open edges by brute force.
func auditFeatures(b *board.Board, e *Engine) error {
	for _, f := range e.table.slots {
		if f.tombstoned() {
			if len(f.tiles) != 0 || len(f.nodes) != 0 || len(f.occupants) != 0 {
				return errors.Wrapf(ErrStaleHandle, "tombstone %d still owns members", f.id)
			}
			if _, err := e.table.Find(f.id); err != nil {
				return err
			}
			continue
		}
		if len(f.tiles) == 0 {
			return errors.Wrapf(ErrPartitionMismatch, "live %v has no tiles", f)
		}
		switch p := f.payload.(type) {
		case *CloisterPayload, *CastlePayload:
			center, radius := cloisterCenter(p)
			count := 0
			for _, c := range center.Ring(radius) {
				if b.Occupied(c) {
					count++
				}
			}
			if !f.HasTile(center) {
				return errors.Wrapf(ErrPartitionMismatch, "%v does not own its centre %v", f, center)
			}
			if count+1 != len(f.tiles) || f.open != f.required()-count {
				return errors.Wrapf(ErrInconsistentOpenCount, "%v sees %d neighbours", f, count)
			}
			continue
		}
		open := 0
		for _, ref := range f.nodes {
			n := b.Node(ref)
			if n == nil || n.Group != f.id {
				return errors.Wrapf(ErrPartitionMismatch, "%v lists node %v outside it", f, ref)
			}
			if pt := b.Tile(ref.Tile); pt == nil || !f.HasTile(pt.Coord) {
				return errors.Wrapf(ErrPartitionMismatch, "%v owns node %v but not its tile", f, ref)
			}
			if n.Open() {
				open++
			}
		}
		if open != f.open {
			return errors.Wrapf(ErrInconsistentOpenCount, "%v counted %d open nodes", f, open)
		}
		if f.IsComplete() != (f.kind != Farm && f.open == 0) {
			return errors.Wrapf(ErrInconsistentOpenCount, "%v state disagrees with open count", f)
		}
	}
	return nil
}

func cloisterCenter(p Payload) (geometry.Coord, int) {
	switch c := p.(type) {
	case *CloisterPayload:
		return c.Center, CloisterRadius
	case *CastlePayload:
		return c.Center, CastleRadius
	}
	return geometry.Coord{}, 0
}

// auditPartition flood-fills linked nodes into regions and checks that
// regions and features correspond one to one.
func auditPartition(b *board.Board, e *Engine) error {
	region := make(map[board.NodeRef]int)
	regionGroup := make(map[int]ID)
	groupRegion := make(map[ID]int)
	queue := make([]*board.Node, 0, 64)
	regionID := 0

	return eachNode(b, func(start *board.Node) error {
		if !grouped(start) {
			return nil
		}
		if _, seen := region[start.Ref]; seen {
			return nil
		}
		region[start.Ref] = regionID
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]

			if prev, ok := groupRegion[n.Group]; ok && prev != regionID {
				return errors.Wrapf(ErrPartitionMismatch, "feature %d spans disconnected regions", n.Group)
			}
			if g, ok := regionGroup[regionID]; ok && g != n.Group {
				return errors.Wrapf(ErrPartitionMismatch, "region %d holds features %d and %d", regionID, g, n.Group)
			}
			groupRegion[n.Group] = regionID
			regionGroup[regionID] = n.Group

			pt := b.Tile(n.Ref.Tile)
			geometry.ForEachBit(n.Links, func(i uint8) {
				m := pt.Node(n.Ref.Kind, i)
				if _, seen := region[m.Ref]; !seen {
					region[m.Ref] = regionID
					queue = append(queue, m)
				}
			})
			if p := b.Partner(n); p != nil {
				if _, seen := region[p.Ref]; !seen {
					region[p.Ref] = regionID
					queue = append(queue, p)
				}
			}
		}
		regionID++
		return nil
	})
}
