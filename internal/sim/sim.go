// Package sim runs the demo loop: a viewer orbiting over a procedural
// planet surface while the terrain engine streams tiles and blends LOD
// switches underneath it.
package sim

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/helioforge/terrastream/internal/config"
	"github.com/helioforge/terrastream/internal/engine/lod"
	"github.com/helioforge/terrastream/internal/engine/quadtree"
	"github.com/helioforge/terrastream/internal/engine/streaming"
	"github.com/helioforge/terrastream/internal/engine/terrain"
	"github.com/helioforge/terrastream/internal/engine/viewer"
	"github.com/helioforge/terrastream/pkg/geom"
)

// Sim owns the engine managers and drives them with a fixed timestep.
type Sim struct {
	cfg *config.Config
	log *zap.Logger

	stream *streaming.Manager
	tree   *quadtree.Manager
	trans  *lod.Manager
	view   *viewer.Orbit

	// in-flight tile loads, keyed by position/LOD
	pending map[string]streaming.RequestID
	// last geometry attached per position, for transition starts
	attached map[string]*terrain.TileData

	elapsed float64
}

// New creates a simulation from config.
func New(cfg *config.Config, log *zap.Logger) (*Sim, error) {
	if cfg.QuadTree.TileResolution < 2 {
		return nil, fmt.Errorf("tile resolution %d below minimum of 2", cfg.QuadTree.TileResolution)
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Sim{
		cfg:      cfg,
		log:      log,
		stream:   streaming.NewManager(cfg.Streaming, log),
		tree:     quadtree.NewManager(cfg.QuadTree, log),
		trans:    lod.NewManager(cfg.Transition, log),
		pending:  make(map[string]streaming.RequestID),
		attached: make(map[string]*terrain.TileData),
	}

	center := geom.Vec2{}
	s.tree.Initialize(center)
	s.view = viewer.NewOrbit(center,
		cfg.Simulation.OrbitRadius,
		cfg.Simulation.ViewerHeight,
		cfg.Simulation.ViewerSpeed)

	s.tree.SetReleaseFunc(func(n *quadtree.Node) {
		// A real renderer frees mesh buffers here. The sim cancels any
		// load still in flight for the discarded node; the geometry
		// snapshot stays so a re-attach at this position can blend.
		key := posKey(n.Center, n.LODLevel)
		if reqID, ok := s.pending[key]; ok {
			s.stream.CancelRequest(reqID)
			delete(s.pending, key)
		}
	})

	return s, nil
}

// Run drives the fixed-timestep loop until the configured duration passes
// or stop is closed.
func (s *Sim) Run(stop <-chan struct{}) {
	s.stream.Start()
	defer s.stream.Stop()

	tickRate := s.cfg.Simulation.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}
	dt := 1.0 / tickRate
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	lastReport := 0.0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		s.Tick(dt)

		if s.elapsed-lastReport >= 1.0 {
			lastReport = s.elapsed
			s.report()
		}
		if d := s.cfg.Simulation.DurationSec; d > 0 && s.elapsed >= d {
			return
		}
	}
}

// Tick advances the simulation one step.
func (s *Sim) Tick(dt float64) {
	s.elapsed += dt
	s.view.Advance(dt)
	vp := s.view.Position()

	s.tree.Update(vp)
	s.requestMissingTiles(vp)
	s.stream.Update(dt)
	s.collectLoadedTiles(vp)
	s.trans.UpdateTransitions(dt, vp)
}

// requestMissingTiles issues streaming requests for active leaves that do
// not yet have geometry and are not already in flight.
func (s *Sim) requestMissingTiles(vp geom.Vec3) {
	for _, id := range s.tree.ActiveNodes() {
		n := s.tree.Node(id)
		if n.Loaded || !n.Visible {
			continue
		}
		key := posKey(n.Center, n.LODLevel)
		if _, inFlight := s.pending[key]; inFlight {
			continue
		}

		dist := n.Center.Distance(vp.XY())
		reqID := s.stream.RequestTileLoad(
			n.Center, n.Size, n.LODLevel, s.cfg.QuadTree.TileResolution,
			s.cfg.Generation, s.priorityFor(dist), vp)
		if reqID == streaming.InvalidRequestID {
			// Table full; retry on a later tick.
			continue
		}
		s.pending[key] = reqID
	}
}

// priorityFor maps viewer distance to load priority: the nearest LOD band
// is critical, the farthest is low.
func (s *Sim) priorityFor(dist float32) streaming.Priority {
	d := s.cfg.QuadTree.LODDistances
	if len(d) == 0 {
		return streaming.PriorityNormal
	}
	switch {
	case dist < d[0]:
		return streaming.PriorityCritical
	case dist < d[len(d)/2]:
		return streaming.PriorityHigh
	case dist < d[len(d)-1]:
		return streaming.PriorityNormal
	default:
		return streaming.PriorityLow
	}
}

// collectLoadedTiles pulls completed tiles out of the streaming manager,
// attaches them to the tree, and starts LOD transitions where a tile at the
// same position previously showed different geometry.
func (s *Sim) collectLoadedTiles(vp geom.Vec3) {
	for key, reqID := range s.pending {
		if !s.stream.IsTileReady(reqID) {
			continue
		}
		delete(s.pending, key)

		tile, err := s.stream.GetLoadedTile(reqID)
		if err != nil {
			// Failed or stale; the leaf stays unloaded and a later tick
			// re-requests it.
			continue
		}
		if !s.tree.AttachTile(tile) {
			// Hierarchy changed while the tile was generating.
			continue
		}

		if prev := s.attached[posKeyOf(tile)]; prev != nil && prev.LODLevel != tile.LODLevel {
			s.trans.StartTransition(tile.Position, prev.LODLevel, tile.LODLevel, prev, tile, vp)
		}
		s.attached[posKeyOf(tile)] = tile
	}
}

func (s *Sim) report() {
	st := s.stream.Stats()
	s.log.Info("tick",
		zap.Float64("t", s.elapsed),
		zap.Int("active_tiles", s.tree.ActiveTileCount()),
		zap.Int("visible_tiles", len(s.tree.ActiveTiles())),
		zap.Int("pending_loads", len(s.pending)),
		zap.Int("cache", s.stream.CacheSize()),
		zap.Int64("completed", st.CompletedRequests),
		zap.Int64("failed", st.FailedRequests),
		zap.Int64("cache_hits", st.CacheHits),
		zap.Float64("avg_load_ms", st.AverageLoadTimeMs),
		zap.Int("transitions", s.trans.ActiveTransitionCount()),
	)
}

func posKey(pos geom.Vec2, lod int) string {
	return fmt.Sprintf("%.0f_%.0f_%d", pos.X, pos.Y, lod)
}

func posKeyOf(t *terrain.TileData) string {
	return fmt.Sprintf("%.0f_%.0f", t.Position.X, t.Position.Y)
}
