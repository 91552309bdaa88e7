package lod

import (
	"go.uber.org/zap"

	"github.com/helioforge/terrastream/internal/engine/terrain"
	"github.com/helioforge/terrastream/pkg/geom"
)

// Config controls LOD transitions.
type Config struct {
	EnableGeomorphing        bool    `yaml:"enable_geomorphing"`
	EnableDistanceFade       bool    `yaml:"enable_distance_fade"`
	TransitionDuration       float64 `yaml:"transition_duration"`
	FadeDistanceRange        float32 `yaml:"fade_distance_range"`
	MaxConcurrentTransitions int     `yaml:"max_concurrent_transitions"`
	InterpolateNormals       bool    `yaml:"interpolate_normals"`
	UseSmoothEasing          bool    `yaml:"use_smooth_easing"`
}

// DefaultConfig returns transition settings for unnoticeable LOD switches.
func DefaultConfig() Config {
	return Config{
		EnableGeomorphing:        true,
		EnableDistanceFade:       true,
		TransitionDuration:       0.75,
		FadeDistanceRange:        4000,
		MaxConcurrentTransitions: 32,
		InterpolateNormals:       true,
		UseSmoothEasing:          true,
	}
}

// Manager tracks the in-flight transitions, at most one per tile position.
// Single-threaded; call only from the update loop.
type Manager struct {
	cfg         Config
	log         *zap.Logger
	transitions map[string]*Transition
}

// NewManager creates a transition manager. Pass nil for logger to disable
// logging.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		cfg:         cfg,
		log:         log,
		transitions: make(map[string]*Transition),
	}
}

// StartTransition begins blending a tile from its old to its new geometry.
// Returns false when old and new LOD are equal (nothing to blend) or the
// concurrent-transition cap is reached. Starting a transition for a tile
// that is already transitioning replaces the previous blend.
func (m *Manager) StartTransition(pos geom.Vec2, oldLOD, newLOD int, oldTile, newTile *terrain.TileData, viewer geom.Vec3) bool {
	if oldLOD == newLOD {
		return false
	}

	key := transitionKey(pos)
	if _, exists := m.transitions[key]; !exists && len(m.transitions) >= m.cfg.MaxConcurrentTransitions {
		m.log.Warn("transition refused: concurrent cap reached",
			zap.Int("active", len(m.transitions)),
			zap.Int("max", m.cfg.MaxConcurrentTransitions))
		return false
	}

	tr := &Transition{
		Position: pos,
		OldLOD:   oldLOD,
		NewLOD:   newLOD,
		OldTile:  oldTile.Clone(),
		NewTile:  newTile.Clone(),
		Duration: m.cfg.TransitionDuration,
		Distance: pos.Distance(viewer.XY()),
	}

	if m.cfg.EnableGeomorphing {
		tr.State = StateGeomorphing
		n := len(tr.NewTile.Vertices)
		if o := len(tr.OldTile.Vertices); o > n {
			n = o
		}
		tr.geoVertices = make([]geom.Vec3, 0, n)
		tr.geoNormals = make([]geom.Vec3, 0, n)
	} else {
		tr.State = StateFadingIn
	}

	m.transitions[key] = tr
	return true
}

// UpdateTransitions advances every active transition and removes the ones
// that finished.
func (m *Manager) UpdateTransitions(deltaTime float64, viewer geom.Vec3) {
	for _, tr := range m.transitions {
		tr.Elapsed += deltaTime
		if tr.Duration > 0 {
			tr.Progress = geom.Clamp01(float32(tr.Elapsed / tr.Duration))
		} else {
			tr.Progress = 1
		}
		tr.Distance = tr.Position.Distance(viewer.XY())

		switch tr.State {
		case StateGeomorphing:
			m.updateGeomorph(tr)
			if tr.Progress >= 1 {
				tr.State = StateIdle
			}
		case StateFadingIn, StateFadingOut:
			// The renderer drives opacity from Progress; nothing to
			// compute here.
			if tr.Progress >= 1 {
				tr.State = StateIdle
			}
		case StateIdle:
		}
	}

	for key, tr := range m.transitions {
		if tr.IsComplete() {
			delete(m.transitions, key)
		}
	}
}

// updateGeomorph rebuilds the scratch vertex/normal buffers for the current
// progress. Matching vertex counts interpolate per vertex; mismatched
// counts (LOD boundary with different resolutions) sample the old tile's
// height grid bilinearly at the new mesh's UVs.
func (m *Manager) updateGeomorph(tr *Transition) {
	alpha := tr.Progress
	if m.cfg.UseSmoothEasing {
		alpha = geom.Smoothstep(alpha)
	}

	oldV := tr.OldTile.Vertices
	newV := tr.NewTile.Vertices
	tr.geoVertices = tr.geoVertices[:0]
	tr.geoNormals = tr.geoNormals[:0]

	if len(oldV) == len(newV) {
		for i := range newV {
			tr.geoVertices = append(tr.geoVertices, oldV[i].Lerp(newV[i], alpha))
		}
		if m.cfg.InterpolateNormals && len(tr.OldTile.Normals) == len(tr.NewTile.Normals) {
			for i := range tr.NewTile.Normals {
				n := tr.OldTile.Normals[i].Lerp(tr.NewTile.Normals[i], alpha).Normalize()
				tr.geoNormals = append(tr.geoNormals, n)
			}
		} else {
			tr.geoNormals = append(tr.geoNormals, tr.NewTile.Normals...)
		}
		return
	}

	// Mismatched resolutions: morph the new mesh's heights from the old
	// tile's surface, sampled at each vertex's UV.
	for i := range newV {
		v := newV[i]
		if tr.OldTile.Resolution >= 2 && i < len(tr.NewTile.UVs) {
			uv := tr.NewTile.UVs[i]
			oldZ := tr.OldTile.SampleHeightBilinear(uv.X, uv.Y)
			v.Z = geom.Lerp(oldZ, v.Z, alpha)
		}
		tr.geoVertices = append(tr.geoVertices, v)
	}
	tr.geoNormals = append(tr.geoNormals, tr.NewTile.Normals...)
}

// IsTransitioning reports whether the tile position has an active
// transition.
func (m *Manager) IsTransitioning(pos geom.Vec2) bool {
	_, ok := m.transitions[transitionKey(pos)]
	return ok
}

// TransitionProgress returns the progress in [0, 1] for the tile position,
// or -1 when nothing is transitioning there.
func (m *Manager) TransitionProgress(pos geom.Vec2) float32 {
	if tr, ok := m.transitions[transitionKey(pos)]; ok {
		return tr.Progress
	}
	return -1
}

// GeomorphedTileData returns the new tile's metadata with the vertex and
// normal arrays replaced by the current geomorph buffers. Only valid while
// the transition is geomorphing.
func (m *Manager) GeomorphedTileData(pos geom.Vec2) (*terrain.TileData, bool) {
	tr, ok := m.transitions[transitionKey(pos)]
	if !ok || tr.State != StateGeomorphing {
		return nil, false
	}

	out := tr.NewTile.Clone()
	out.Vertices = append([]geom.Vec3(nil), tr.geoVertices...)
	out.Normals = append([]geom.Vec3(nil), tr.geoNormals...)
	return out, true
}

// CalculateDistanceFade returns the proximity fade factor in [0, 1] for a
// tile: 0 at the viewer, 1 at FadeDistanceRange and beyond. Pure function,
// usable independently of the transition state machine.
func (m *Manager) CalculateDistanceFade(pos geom.Vec2, viewer geom.Vec3) float32 {
	if m.cfg.FadeDistanceRange <= 0 {
		return 1
	}
	return geom.Clamp01(pos.Distance(viewer.XY()) / m.cfg.FadeDistanceRange)
}

// ActiveTransitionCount returns the number of in-flight transitions.
func (m *Manager) ActiveTransitionCount() int {
	return len(m.transitions)
}
