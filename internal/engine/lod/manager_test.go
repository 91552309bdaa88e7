package lod

import (
	"fmt"
	"testing"

	"github.com/helioforge/terrastream/internal/engine/noise"
	"github.com/helioforge/terrastream/internal/engine/terrain"
	"github.com/helioforge/terrastream/pkg/geom"
)

func testTile(t *testing.T, pos geom.Vec2, lod, res int, seed int64) *terrain.TileData {
	t.Helper()
	cfg := terrain.DefaultGenerationConfig()
	cfg.Seed = seed
	fields := noise.NewFields(cfg.Seed, cfg.Octaves, cfg.Persistence, cfg.Lacunarity)
	tile, err := terrain.Generate(pos, 500, lod, res, cfg, fields)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	return tile
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.TransitionDuration = 1.0
	cfg.UseSmoothEasing = false
	return cfg
}

func TestStartTransitionRejectsNoOp(t *testing.T) {
	m := NewManager(testConfig(), nil)
	pos := geom.Vec2{X: 100}
	tile := testTile(t, pos, 1, 8, 1)

	if m.StartTransition(pos, 1, 1, tile, tile, geom.Vec3{}) {
		t.Error("StartTransition accepted equal LOD levels")
	}
	if m.ActiveTransitionCount() != 0 {
		t.Error("no-op transition created an entry")
	}
}

func TestStartTransitionCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrentTransitions = 2
	m := NewManager(cfg, nil)

	for i := 0; i < 2; i++ {
		pos := geom.Vec2{X: float32(i) * 1000}
		if !m.StartTransition(pos, 1, 0, testTile(t, pos, 1, 8, 1), testTile(t, pos, 0, 8, 1), geom.Vec3{}) {
			t.Fatalf("transition %d under cap refused", i)
		}
	}

	pos := geom.Vec2{X: 9000}
	if m.StartTransition(pos, 1, 0, testTile(t, pos, 1, 8, 1), testTile(t, pos, 0, 8, 1), geom.Vec3{}) {
		t.Error("transition over cap accepted")
	}

	// Restarting an already-transitioning tile does not count against the
	// cap; it replaces the existing blend.
	existing := geom.Vec2{X: 0}
	if !m.StartTransition(existing, 0, 1, testTile(t, existing, 0, 8, 1), testTile(t, existing, 1, 8, 1), geom.Vec3{}) {
		t.Error("replacement transition refused at cap")
	}
	if m.ActiveTransitionCount() != 2 {
		t.Errorf("ActiveTransitionCount = %d, want 2", m.ActiveTransitionCount())
	}
}

func TestTransitionCompletes(t *testing.T) {
	m := NewManager(testConfig(), nil)
	pos := geom.Vec2{X: 100}

	m.StartTransition(pos, 1, 0, testTile(t, pos, 1, 8, 1), testTile(t, pos, 0, 8, 1), geom.Vec3{})
	if !m.IsTransitioning(pos) {
		t.Fatal("transition not active after start")
	}

	// Cumulative delta time reaching the duration finishes the blend.
	for n := 0; n < 4; n++ {
		m.UpdateTransitions(0.25, geom.Vec3{})
	}
	if m.IsTransitioning(pos) {
		t.Error("transition still active after full duration")
	}
	if got := m.TransitionProgress(pos); got != -1 {
		t.Errorf("TransitionProgress after completion = %v, want -1", got)
	}
}

func TestGeomorphBoundaries(t *testing.T) {
	m := NewManager(testConfig(), nil)
	pos := geom.Vec2{X: 100}
	oldTile := testTile(t, pos, 1, 8, 1)
	newTile := testTile(t, pos, 0, 8, 2) // different seed, same vertex count

	m.StartTransition(pos, 1, 0, oldTile, newTile, geom.Vec3{})

	// Progress 0: geomorphed vertices equal the old tile's.
	m.UpdateTransitions(0, geom.Vec3{})
	morphed, ok := m.GeomorphedTileData(pos)
	if !ok {
		t.Fatal("GeomorphedTileData unavailable while geomorphing")
	}
	for i := range morphed.Vertices {
		if morphed.Vertices[i] != oldTile.Vertices[i] {
			t.Fatalf("vertex %d at progress 0: %v, want old %v", i, morphed.Vertices[i], oldTile.Vertices[i])
		}
	}

	// Progress 1: geomorphed vertices equal the new tile's. Drive the
	// scratch buffers directly; the public update pass removes finished
	// transitions before they can be queried.
	tr := m.transitions[transitionKey(pos)]
	tr.Progress = 1
	m.updateGeomorph(tr)
	for i := range tr.geoVertices {
		if tr.geoVertices[i] != newTile.Vertices[i] {
			t.Fatalf("vertex %d at progress 1: %v, want new %v", i, tr.geoVertices[i], newTile.Vertices[i])
		}
	}
}

func TestGeomorphMidpoint(t *testing.T) {
	m := NewManager(testConfig(), nil) // easing off: alpha == progress
	pos := geom.Vec2{}
	oldTile := testTile(t, pos, 1, 8, 1)
	newTile := testTile(t, pos, 0, 8, 2)

	m.StartTransition(pos, 1, 0, oldTile, newTile, geom.Vec3{})
	m.UpdateTransitions(0.5, geom.Vec3{})

	morphed, ok := m.GeomorphedTileData(pos)
	if !ok {
		t.Fatal("GeomorphedTileData unavailable")
	}
	for i := range morphed.Vertices {
		want := oldTile.Vertices[i].Lerp(newTile.Vertices[i], 0.5)
		got := morphed.Vertices[i]
		if got.Sub(want).Length() > 1e-4 {
			t.Fatalf("vertex %d at progress 0.5: %v, want %v", i, got, want)
		}
	}

	// Interpolated normals stay unit length.
	for i, n := range morphed.Normals {
		l := n.Length()
		if l < 0.999 || l > 1.001 {
			t.Fatalf("normal %d has length %v after interpolation", i, l)
		}
	}
}

func TestGeomorphMismatchedResolutions(t *testing.T) {
	m := NewManager(testConfig(), nil)
	pos := geom.Vec2{}
	oldTile := testTile(t, pos, 2, 5, 1)  // coarse
	newTile := testTile(t, pos, 1, 9, 1) // fine

	m.StartTransition(pos, 2, 1, oldTile, newTile, geom.Vec3{})
	m.UpdateTransitions(0, geom.Vec3{})

	morphed, ok := m.GeomorphedTileData(pos)
	if !ok {
		t.Fatal("GeomorphedTileData unavailable")
	}
	if len(morphed.Vertices) != len(newTile.Vertices) {
		t.Fatalf("morphed mesh has %d vertices, want new tile's %d", len(morphed.Vertices), len(newTile.Vertices))
	}

	// At progress 0 each vertex height comes from the old tile's surface,
	// sampled at the vertex UV.
	for i, v := range morphed.Vertices {
		uv := newTile.UVs[i]
		want := oldTile.SampleHeightBilinear(uv.X, uv.Y)
		if diff := v.Z - want; diff > 1e-4 || diff < -1e-4 {
			t.Fatalf("vertex %d height %v, want resampled %v", i, v.Z, want)
		}
	}

	// At progress 1 the fine mesh is fully in place.
	tr := m.transitions[transitionKey(pos)]
	tr.Progress = 1
	m.updateGeomorph(tr)
	for i := range tr.geoVertices {
		if tr.geoVertices[i] != newTile.Vertices[i] {
			t.Fatalf("vertex %d at progress 1 not the new tile's", i)
		}
	}
}

func TestFadingWhenGeomorphingDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableGeomorphing = false
	m := NewManager(cfg, nil)
	pos := geom.Vec2{X: 50}

	m.StartTransition(pos, 1, 0, testTile(t, pos, 1, 8, 1), testTile(t, pos, 0, 8, 1), geom.Vec3{})

	if _, ok := m.GeomorphedTileData(pos); ok {
		t.Error("GeomorphedTileData available for a fade transition")
	}

	m.UpdateTransitions(0.5, geom.Vec3{})
	if got := m.TransitionProgress(pos); got != 0.5 {
		t.Errorf("TransitionProgress = %v, want 0.5", got)
	}

	m.UpdateTransitions(0.5, geom.Vec3{})
	if m.IsTransitioning(pos) {
		t.Error("fade transition still active after full duration")
	}
}

func TestCalculateDistanceFade(t *testing.T) {
	cfg := testConfig()
	cfg.FadeDistanceRange = 1000
	m := NewManager(cfg, nil)

	tests := []struct {
		distance float32
		want     float32
	}{
		{0, 0},
		{500, 0.5},
		{1000, 1},
		{5000, 1}, // clamped
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("d=%v", tt.distance), func(t *testing.T) {
			got := m.CalculateDistanceFade(geom.Vec2{X: tt.distance}, geom.Vec3{})
			if got != tt.want {
				t.Errorf("CalculateDistanceFade = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransitionQueriesAbsent(t *testing.T) {
	m := NewManager(testConfig(), nil)
	pos := geom.Vec2{X: 1234}

	if m.IsTransitioning(pos) {
		t.Error("IsTransitioning true with no transitions")
	}
	if got := m.TransitionProgress(pos); got != -1 {
		t.Errorf("TransitionProgress = %v, want -1", got)
	}
	if _, ok := m.GeomorphedTileData(pos); ok {
		t.Error("GeomorphedTileData returned data with no transitions")
	}
}
