// Package lod blends old and new tile geometry over time when a tile's
// level of detail changes, so LOD switches do not pop visually.
package lod

import (
	"fmt"
	"math"

	"github.com/helioforge/terrastream/internal/engine/terrain"
	"github.com/helioforge/terrastream/pkg/geom"
)

// State is the phase of one in-flight transition.
type State int

// Transition states. Idle is terminal; the manager removes idle transitions
// after each update pass.
const (
	StateIdle State = iota
	StateFadingIn
	StateFadingOut
	StateGeomorphing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFadingIn:
		return "fading-in"
	case StateFadingOut:
		return "fading-out"
	case StateGeomorphing:
		return "geomorphing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transition is one in-flight visual blend for a tile position.
type Transition struct {
	Position geom.Vec2
	OldLOD   int
	NewLOD   int
	OldTile  *terrain.TileData
	NewTile  *terrain.TileData

	Elapsed  float64
	Duration float64
	Progress float32 // clamped to [0, 1]
	State    State
	Distance float32 // to viewer, refreshed every update

	// Geomorph scratch buffers, rebuilt every update while geomorphing.
	geoVertices []geom.Vec3
	geoNormals  []geom.Vec3
}

// IsComplete reports whether the transition has finished.
func (t *Transition) IsComplete() bool {
	return t.State == StateIdle || t.Progress >= 1
}

// transitionKey derives the map key for a tile position.
func transitionKey(pos geom.Vec2) string {
	return fmt.Sprintf("%d_%d", int(math.Round(float64(pos.X))), int(math.Round(float64(pos.Y))))
}
