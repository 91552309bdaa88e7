package quadtree

import (
	"testing"

	"github.com/helioforge/terrastream/internal/engine/terrain"
	"github.com/helioforge/terrastream/pkg/geom"
)

func testConfig() Config {
	return Config{
		MaxLODLevel:    3,
		LODDistances:   []float32{100, 300, 800},
		BaseTileSize:   1600,
		TileResolution: 16,
		ViewDistance:   2000,
	}
}

// farViewer is beyond every LOD threshold, so the tree stays a single root
// leaf.
var farViewer = geom.Vec3{X: 99999, Y: 99999}

func TestInitialize(t *testing.T) {
	m := NewManager(testConfig(), nil)
	m.Initialize(geom.Vec2{})

	if m.ActiveTileCount() != 1 {
		t.Fatalf("ActiveTileCount = %d, want 1", m.ActiveTileCount())
	}
	root := m.Node(0)
	if root.LODLevel != 3 {
		t.Errorf("root LOD = %d, want 3", root.LODLevel)
	}
	if root.Size != 1600 {
		t.Errorf("root size = %v, want 1600", root.Size)
	}
	if !root.IsLeaf() {
		t.Error("fresh root is not a leaf")
	}
	if root.Tile == nil || root.Tile.Resolution != 16 {
		t.Error("root missing tile stub")
	}
}

func TestCalculateLODLevel(t *testing.T) {
	m := NewManager(testConfig(), nil)

	tests := []struct {
		distance float32
		want     int
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{299, 1},
		{300, 2},
		{799, 2},
		{800, 3},
		{100000, 3},
	}
	for _, tt := range tests {
		if got := m.CalculateLODLevel(tt.distance); got != tt.want {
			t.Errorf("CalculateLODLevel(%v) = %d, want %d", tt.distance, got, tt.want)
		}
	}
}

func TestSubdivideLevelMonotonicity(t *testing.T) {
	m := NewManager(testConfig(), nil)
	m.Initialize(geom.Vec2{})

	// Viewer at the center forces refinement everywhere it reaches.
	for n := 0; n < 5; n++ {
		m.Update(geom.Vec3{})
	}

	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := m.Node(id)
		if !n.Subdivided {
			return
		}
		for _, c := range n.Children {
			if c == NilNode {
				t.Fatalf("subdivided node %d has a nil child slot", id)
			}
			child := m.Node(c)
			if child.LODLevel != n.LODLevel-1 {
				t.Fatalf("child LOD %d under parent LOD %d, want parent-1", child.LODLevel, n.LODLevel)
			}
			if child.Parent != id {
				t.Fatalf("child back-reference %d, want %d", child.Parent, id)
			}
			if child.Size != n.Size/2 {
				t.Fatalf("child size %v under parent size %v, want half", child.Size, n.Size)
			}
			walk(c)
		}
	}
	walk(0)

	if m.ActiveTileCount() < 4 {
		t.Errorf("close viewer produced only %d leaves", m.ActiveTileCount())
	}
}

func TestLevelZeroNeverSubdivides(t *testing.T) {
	m := NewManager(testConfig(), nil)
	m.Initialize(geom.Vec2{})

	for n := 0; n < 10; n++ {
		m.Update(geom.Vec3{})
	}

	for _, id := range m.ActiveNodes() {
		n := m.Node(id)
		if n.LODLevel == 0 && n.Subdivided {
			t.Fatal("level 0 node was subdivided")
		}
	}
}

func TestSubdivideMergeRoundTrip(t *testing.T) {
	m := NewManager(testConfig(), nil)
	m.Initialize(geom.Vec2{})

	// Move close: refine.
	for n := 0; n < 5; n++ {
		m.Update(geom.Vec3{})
	}
	if m.ActiveTileCount() <= 1 {
		t.Fatal("tree did not refine for a close viewer")
	}

	// Move far: everything merges back to the root leaf.
	for n := 0; n < 5; n++ {
		m.Update(farViewer)
	}
	if m.ActiveTileCount() != 1 {
		t.Fatalf("ActiveTileCount = %d after retreat, want 1", m.ActiveTileCount())
	}
	root := m.Node(0)
	if root.Subdivided {
		t.Error("root still subdivided after retreat")
	}
	for _, c := range root.Children {
		if c != NilNode {
			t.Error("orphaned child reference remains after merge")
		}
	}
}

func TestMergeReleasesResources(t *testing.T) {
	m := NewManager(testConfig(), nil)

	released := 0
	m.SetReleaseFunc(func(n *Node) {
		released++
	})

	m.Initialize(geom.Vec2{})
	for n := 0; n < 5; n++ {
		m.Update(geom.Vec3{})
	}
	created := m.ActiveTileCount()

	for n := 0; n < 5; n++ {
		m.Update(farViewer)
	}

	if released == 0 {
		t.Fatal("release callback never invoked")
	}
	if released < created-1 {
		t.Errorf("released %d nodes, want at least %d", released, created-1)
	}
}

func TestVisibilityCulling(t *testing.T) {
	cfg := testConfig()
	cfg.ViewDistance = 500
	m := NewManager(cfg, nil)
	m.Initialize(geom.Vec2{})

	// Far viewer: the root leaf is outside view distance + node size.
	m.Update(geom.Vec3{X: 50000})

	if m.ActiveTileCount() != 1 {
		t.Fatalf("ActiveTileCount = %d, want 1", m.ActiveTileCount())
	}
	if m.Node(0).Visible {
		t.Error("distant root marked visible")
	}
	if len(m.ActiveTiles()) != 0 {
		t.Error("invisible tile included in renderer list")
	}

	// Viewer above the tile: visible again, node still in the tree.
	m.Update(geom.Vec3{})
	if !m.Node(0).Visible {
		t.Error("near root not visible")
	}
	if len(m.ActiveTiles()) != 1 {
		t.Error("visible tile missing from renderer list")
	}
}

func TestTileAt(t *testing.T) {
	m := NewManager(testConfig(), nil)
	m.Initialize(geom.Vec2{})

	for n := 0; n < 5; n++ {
		m.Update(geom.Vec3{})
	}

	tile := m.TileAt(geom.Vec2{X: 10, Y: 10})
	if tile == nil {
		t.Fatal("TileAt inside bounds returned nil")
	}
	if !(&Node{Center: tile.Position, Size: tile.Size}).Contains(geom.Vec2{X: 10, Y: 10}) {
		t.Errorf("returned tile at %v size %v does not cover the query point", tile.Position, tile.Size)
	}

	if m.TileAt(geom.Vec2{X: 99999, Y: 0}) != nil {
		t.Error("TileAt outside root bounds returned a tile")
	}
}

func TestAttachTile(t *testing.T) {
	m := NewManager(testConfig(), nil)
	m.Initialize(geom.Vec2{})

	root := m.Node(0)
	tile := &terrain.TileData{
		Position:   root.Center,
		Size:       root.Size,
		Resolution: 16,
		LODLevel:   root.LODLevel,
		Heights:    make([]float32, 16*16),
		Vertices:   make([]geom.Vec3, 16*16),
	}
	if !m.AttachTile(tile) {
		t.Fatal("AttachTile failed for matching leaf")
	}
	if !m.Node(0).Loaded {
		t.Error("node not marked loaded")
	}

	// Stale LOD level is refused.
	stale := &terrain.TileData{Position: root.Center, LODLevel: root.LODLevel - 1}
	if m.AttachTile(stale) {
		t.Error("AttachTile accepted a stale LOD level")
	}
}

func TestArenaRecycling(t *testing.T) {
	m := NewManager(testConfig(), nil)
	m.Initialize(geom.Vec2{})

	// Repeated approach/retreat cycles must not grow the arena without
	// bound: freed slots get reused.
	var peak int
	for cycle := 0; cycle < 4; cycle++ {
		for n := 0; n < 5; n++ {
			m.Update(geom.Vec3{})
		}
		for n := 0; n < 5; n++ {
			m.Update(farViewer)
		}
		if cycle == 0 {
			peak = len(m.nodes)
		} else if len(m.nodes) > peak {
			t.Fatalf("arena grew across cycles: %d > %d", len(m.nodes), peak)
		}
	}
}
