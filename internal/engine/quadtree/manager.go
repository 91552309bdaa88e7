package quadtree

import (
	"go.uber.org/zap"

	"github.com/helioforge/terrastream/internal/engine/terrain"
	"github.com/helioforge/terrastream/pkg/geom"
)

// Config controls the LOD hierarchy.
type Config struct {
	MaxLODLevel    int       `yaml:"max_lod_level"`
	LODDistances   []float32 `yaml:"lod_distances"` // ascending; index = LOD level
	BaseTileSize   float32   `yaml:"base_tile_size"`
	TileResolution int       `yaml:"tile_resolution"`
	ViewDistance   float32   `yaml:"view_distance"`
}

// DefaultConfig returns a four-level hierarchy over an 8 km root tile.
func DefaultConfig() Config {
	return Config{
		MaxLODLevel:    4,
		LODDistances:   []float32{500, 1200, 2500, 5000},
		BaseTileSize:   8000,
		TileResolution: 64,
		ViewDistance:   6000,
	}
}

// ReleaseFunc is invoked for every node discarded by a merge, before its
// tile data is dropped. The renderer hooks this to free mesh resources.
type ReleaseFunc func(*Node)

// Manager owns the node arena and rebuilds the active-leaf set every tick.
// It is single-threaded: all methods must be called from the update loop.
type Manager struct {
	cfg Config
	log *zap.Logger

	nodes    []Node
	freeList []NodeID

	active  []NodeID // current leaves, rebuilt after every Update
	release ReleaseFunc

	initialized bool
}

// NewManager creates a quadtree manager. Pass nil for logger to disable
// logging.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{cfg: cfg, log: log}
}

// SetReleaseFunc registers the callback run for nodes discarded on merge.
func (m *Manager) SetReleaseFunc(f ReleaseFunc) {
	m.release = f
}

// Initialize resets the hierarchy to a single root node centered at the
// given position, at the coarsest LOD level.
func (m *Manager) Initialize(center geom.Vec2) {
	m.nodes = m.nodes[:0]
	m.freeList = m.freeList[:0]
	m.active = m.active[:0]

	root := Node{
		Parent:   NilNode,
		Children: [4]NodeID{NilNode, NilNode, NilNode, NilNode},
		LODLevel: m.cfg.MaxLODLevel,
		Center:   center,
		Size:     m.cfg.BaseTileSize,
		Tile:     m.tileStub(center, m.cfg.BaseTileSize, m.cfg.MaxLODLevel),
	}
	m.nodes = append(m.nodes, root)
	m.active = append(m.active, 0)
	m.initialized = true

	m.log.Info("quadtree initialized",
		zap.Float32("size", m.cfg.BaseTileSize),
		zap.Int("max_lod", m.cfg.MaxLODLevel))
}

// Node returns the arena node for an ID. The pointer is valid until the
// next Update call.
func (m *Manager) Node(id NodeID) *Node {
	return &m.nodes[id]
}

// Update walks the hierarchy top-down, subdividing nodes the viewer moved
// toward and merging nodes it moved away from, then rebuilds the
// active-leaf cache and visibility flags.
func (m *Manager) Update(viewer geom.Vec3) {
	if !m.initialized {
		return
	}
	m.updateNode(0, viewer)
	m.rebuildActive(viewer)
}

func (m *Manager) updateNode(id NodeID, viewer geom.Vec3) {
	n := &m.nodes[id]
	dist := n.Center.Distance(viewer.XY())
	desired := m.CalculateLODLevel(dist)

	switch {
	case !n.Subdivided && n.LODLevel > 0 && desired < n.LODLevel:
		m.subdivide(id)
	case n.Subdivided && desired >= n.LODLevel:
		m.merge(id)
	case n.Subdivided:
		for _, c := range n.Children {
			m.updateNode(c, viewer)
		}
	}
}

// CalculateLODLevel maps a viewer distance to the appropriate LOD level:
// the first threshold exceeding the distance wins, and anything beyond the
// table gets the coarsest level. Monotonic: closer means finer.
func (m *Manager) CalculateLODLevel(distance float32) int {
	for i, d := range m.cfg.LODDistances {
		if distance < d {
			return i
		}
	}
	return m.cfg.MaxLODLevel
}

// subdivide turns a leaf into an internal node with four children at the
// next finer LOD level, each pre-populated with a tile stub. Geometry
// arrives separately through the streaming manager.
func (m *Manager) subdivide(id NodeID) {
	parent := m.nodes[id]
	childLOD := parent.LODLevel - 1
	childSize := parent.Size / 2

	for q, off := range quadrantOffsets {
		center := geom.Vec2{
			X: parent.Center.X + off.X*parent.Size,
			Y: parent.Center.Y + off.Y*parent.Size,
		}
		child := Node{
			Parent:   id,
			Children: [4]NodeID{NilNode, NilNode, NilNode, NilNode},
			GridX:    q % 2,
			GridY:    q / 2,
			LODLevel: childLOD,
			Center:   center,
			Size:     childSize,
			Tile:     m.tileStub(center, childSize, childLOD),
		}
		cid := m.alloc(child)
		m.nodes[id].Children[q] = cid
	}

	n := &m.nodes[id]
	n.Subdivided = true
	n.Tile = nil
	n.Loaded = false
}

// merge collapses an internal node back into a leaf, destroying its
// children depth-first. Discarded nodes go through the release callback so
// the renderer can free their mesh resources.
func (m *Manager) merge(id NodeID) {
	for q, cid := range m.nodes[id].Children {
		if cid == NilNode {
			continue
		}
		if m.nodes[cid].Subdivided {
			m.merge(cid)
		}
		if m.release != nil {
			m.release(&m.nodes[cid])
		}
		m.nodes[cid].Tile = nil
		m.free(cid)
		m.nodes[id].Children[q] = NilNode
	}

	n := &m.nodes[id]
	n.Subdivided = false
	n.Loaded = false
	n.Tile = m.tileStub(n.Center, n.Size, n.LODLevel)
}

func (m *Manager) tileStub(center geom.Vec2, size float32, lod int) *terrain.TileData {
	return &terrain.TileData{
		Position:   center,
		Size:       size,
		Resolution: m.cfg.TileResolution,
		LODLevel:   lod,
	}
}

func (m *Manager) alloc(n Node) NodeID {
	if l := len(m.freeList); l > 0 {
		id := m.freeList[l-1]
		m.freeList = m.freeList[:l-1]
		m.nodes[id] = n
		return id
	}
	m.nodes = append(m.nodes, n)
	return NodeID(len(m.nodes) - 1)
}

func (m *Manager) free(id NodeID) {
	m.nodes[id] = Node{Parent: NilNode, Children: [4]NodeID{NilNode, NilNode, NilNode, NilNode}}
	m.freeList = append(m.freeList, id)
}

// rebuildActive recollects the leaf set depth-first and recomputes
// visibility. Invisible leaves stay in the tree; they are only excluded
// from the renderer-facing tile list.
func (m *Manager) rebuildActive(viewer geom.Vec3) {
	m.active = m.active[:0]
	m.collectLeaves(0, &m.active)

	for _, id := range m.active {
		n := &m.nodes[id]
		dist := n.Center.Distance(viewer.XY())
		n.Visible = dist < m.cfg.ViewDistance+n.Size
	}
}

func (m *Manager) collectLeaves(id NodeID, out *[]NodeID) {
	n := &m.nodes[id]
	if !n.Subdivided {
		*out = append(*out, id)
		return
	}
	for _, c := range n.Children {
		if c != NilNode {
			m.collectLeaves(c, out)
		}
	}
}

// ActiveTileCount returns the number of current leaf nodes.
func (m *Manager) ActiveTileCount() int {
	return len(m.active)
}

// ActiveNodes returns the current leaf node IDs. The slice is reused across
// Update calls; callers must not retain it.
func (m *Manager) ActiveNodes() []NodeID {
	return m.active
}

// ActiveTiles returns the tile data of visible leaves, the renderer-facing
// tile list. Tiles still waiting for geometry are included as stubs;
// callers check HasGeometry.
func (m *Manager) ActiveTiles() []*terrain.TileData {
	tiles := make([]*terrain.TileData, 0, len(m.active))
	for _, id := range m.active {
		n := &m.nodes[id]
		if n.Visible && n.Tile != nil {
			tiles = append(tiles, n.Tile)
		}
	}
	return tiles
}

// TileAt descends from the root to the leaf containing the point and
// returns its tile, or nil if the point lies outside the root bounds.
func (m *Manager) TileAt(p geom.Vec2) *terrain.TileData {
	if !m.initialized || !m.nodes[0].Contains(p) {
		return nil
	}

	id := NodeID(0)
	for m.nodes[id].Subdivided {
		next := NilNode
		for _, c := range m.nodes[id].Children {
			if c != NilNode && m.nodes[c].Contains(p) {
				next = c
				break
			}
		}
		if next == NilNode {
			return nil
		}
		id = next
	}
	return m.nodes[id].Tile
}

// AttachTile installs generated geometry on the leaf covering the tile's
// position, provided the LOD level still matches. Returns false when the
// hierarchy changed since the tile was requested.
func (m *Manager) AttachTile(tile *terrain.TileData) bool {
	if tile == nil || !m.initialized || !m.nodes[0].Contains(tile.Position) {
		return false
	}

	id := NodeID(0)
	for m.nodes[id].Subdivided {
		next := NilNode
		for _, c := range m.nodes[id].Children {
			if c != NilNode && m.nodes[c].Contains(tile.Position) {
				next = c
				break
			}
		}
		if next == NilNode {
			return false
		}
		id = next
	}

	n := &m.nodes[id]
	if n.LODLevel != tile.LODLevel {
		return false
	}
	n.Tile = tile
	n.Loaded = true
	return true
}
