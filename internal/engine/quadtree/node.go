// Package quadtree maintains the spatial LOD hierarchy over the terrain
// area: each tick it subdivides or merges cells based on viewer distance and
// exposes the current leaf set as the active tiles.
package quadtree

import (
	"github.com/helioforge/terrastream/internal/engine/terrain"
	"github.com/helioforge/terrastream/pkg/geom"
)

// NodeID indexes a node in the manager's arena. The root is always 0.
type NodeID int32

// NilNode marks an absent parent or child slot.
const NilNode NodeID = -1

// Node is one cell of the hierarchy. Nodes live in an arena and reference
// each other by index, so there is no cyclic ownership to manage.
type Node struct {
	Parent   NodeID
	Children [4]NodeID // all NilNode unless Subdivided

	GridX, GridY int // quadrant coordinate within the parent
	LODLevel     int // 0 = finest
	Center       geom.Vec2
	Size         float32 // world units per side

	Subdivided bool
	Visible    bool
	Loaded     bool

	Tile *terrain.TileData // leaf geometry; stub until streaming delivers
}

// IsLeaf reports whether the node currently holds its own tile.
func (n *Node) IsLeaf() bool {
	return !n.Subdivided
}

// Contains reports whether a point lies within the node's 2D footprint.
func (n *Node) Contains(p geom.Vec2) bool {
	half := n.Size / 2
	return p.X >= n.Center.X-half && p.X <= n.Center.X+half &&
		p.Y >= n.Center.Y-half && p.Y <= n.Center.Y+half
}

// quadrantOffsets places the four children at (±¼, ±¼) of the parent size.
var quadrantOffsets = [4]geom.Vec2{
	{X: -0.25, Y: -0.25},
	{X: 0.25, Y: -0.25},
	{X: -0.25, Y: 0.25},
	{X: 0.25, Y: 0.25},
}
