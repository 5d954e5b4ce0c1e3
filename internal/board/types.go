package board

import (
	"fmt"

	"github.com/Ko-stant/tilefeature-engine/internal/geometry"
	"github.com/Ko-stant/tilefeature-engine/internal/tile"
)

// FeatureID is a stable handle into the feature arena. NoFeature marks a
// node that has not been grouped yet.
type FeatureID int32

const NoFeature FeatureID = -1

// TileRef indexes the board's tile arena. Tiles are never removed.
type TileRef int32

const NoTile TileRef = -1

type NodeKind uint8

const (
	SideNode NodeKind = iota
	FarmNode
)

func (k NodeKind) String() string {
	if k == FarmNode {
		return "farm"
	}
	return "side"
}

// NodeRef addresses one side or wedge of a placed tile by its world index.
type NodeRef struct {
	Tile  TileRef  `json:"tile"`
	Kind  NodeKind `json:"kind"`
	Index uint8    `json:"index"`
}

var NoNode = NodeRef{Tile: NoTile}

func (r NodeRef) Valid() bool { return r.Tile != NoTile }

func (r NodeRef) String() string {
	if !r.Valid() {
		return "none"
	}
	return fmt.Sprintf("%d/%v%d", r.Tile, r.Kind, r.Index)
}

// Node is one connectable slot of a placed tile. OutConnect is a plain
// handle to the matching node of the neighbouring tile and implies no ownership.
type Node struct {
	Ref   NodeRef
	Local uint8
	// Links is the world-space mask of same-kind nodes joined through the tile body, self included.
	Links uint8
	Edge  tile.EdgeType

	Group      FeatureID
	OutConnect NodeRef
	// Sealed marks a boundary closed without a link: wildcard edges and bridges.
	Sealed bool
}

// Present is false for farm wedges that lie under a city.
func (n *Node) Present() bool { return n.Links != 0 }

func (n *Node) Linked() bool { return n.OutConnect.Valid() }

// Open reports whether the node still counts toward its feature's open edges.
func (n *Node) Open() bool { return n.Present() && !n.Linked() && !n.Sealed }

// PlacedTile is one template instance on the grid.
type PlacedTile struct {
	Ref      TileRef
	Coord    geometry.Coord
	Rotation geometry.Rotation
	Template *tile.Template

	Sides [4]Node
	Farms [8]Node
	// Center holds the cloister or castle feature anchored on this tile.
	Center FeatureID
}

func newPlacedTile(ref TileRef, t *tile.Template, c geometry.Coord, r geometry.Rotation) *PlacedTile {
	pt := &PlacedTile{
		Ref:      ref,
		Coord:    c,
		Rotation: r,
		Template: t,
		Center:   NoFeature,
	}
	for _, d := range geometry.Directions {
		pt.Sides[d] = Node{
			Ref:        NodeRef{Tile: ref, Kind: SideNode, Index: uint8(d)},
			Local:      uint8(geometry.ToLocal(d, r)),
			Links:      t.SideLinksAt(d, r),
			Edge:       t.EdgeAt(d, r),
			Group:      NoFeature,
			OutConnect: NoNode,
		}
	}
	for w := uint8(0); w < geometry.WedgeCount; w++ {
		pt.Farms[w] = Node{
			Ref:        NodeRef{Tile: ref, Kind: FarmNode, Index: w},
			Local:      geometry.WedgeToLocal(w, r),
			Links:      t.FarmLinksAt(w, r),
			Edge:       tile.Field,
			Group:      NoFeature,
			OutConnect: NoNode,
		}
	}
	return pt
}

// Node returns the side or farm node addressed by kind and world index.
func (pt *PlacedTile) Node(kind NodeKind, index uint8) *Node {
	if kind == FarmNode {
		return &pt.Farms[index&7]
	}
	return &pt.Sides[index&3]
}

// Groups returns the distinct link masks among present nodes of one kind, lowest index first.
func (pt *PlacedTile) Groups(kind NodeKind) []uint8 {
	var nodes []Node
	if kind == FarmNode {
		nodes = pt.Farms[:]
	} else {
		nodes = pt.Sides[:]
	}
	var seen uint8
	var out []uint8
	for i := range nodes {
		if seen&(1<<i) != 0 || !nodes[i].Present() {
			continue
		}
		seen |= nodes[i].Links
		out = append(out, nodes[i].Links)
	}
	return out
}

func (pt *PlacedTile) String() string {
	return fmt.Sprintf("%v@%v r%v", pt.Template, pt.Coord, pt.Rotation)
}
