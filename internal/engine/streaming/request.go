// Package streaming decouples tile generation latency from the per-frame
// update loop: background workers generate tiles, a bounded LRU cache holds
// recent results, and completed tiles are handed back to the main thread
// under a per-frame time budget.
package streaming

import (
	"fmt"
	"math"

	"github.com/helioforge/terrastream/internal/engine/terrain"
	"github.com/helioforge/terrastream/pkg/geom"
)

// RequestID identifies a tile load request. IDs are monotonically increasing
// and never reused.
type RequestID int64

// InvalidRequestID is returned when a request is refused.
const InvalidRequestID RequestID = -1

// Priority orders pending tile loads. Higher values are served first;
// distance to the viewer breaks ties.
type Priority int

// Request priorities.
const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// String returns the priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Request tracks one tile load from submission to retrieval.
type Request struct {
	ID         RequestID
	Position   geom.Vec2
	Size       float32
	LODLevel   int
	Resolution int
	GenConfig  terrain.GenerationConfig
	Priority   Priority
	Distance   float32 // to viewer at submission, priority tie-break

	RequestedAt float64 // manager clock, seconds

	Complete bool
	Err      error
	Tile     *terrain.TileData
}

// result is what a worker hands back to the main thread.
type result struct {
	id         RequestID
	tile       *terrain.TileData
	err        error
	durationMs float64
}

// cacheKey derives the tile cache key from a rounded position and LOD level.
func cacheKey(pos geom.Vec2, lod int) string {
	return fmt.Sprintf("%d_%d_%d", int(math.Round(float64(pos.X))), int(math.Round(float64(pos.Y))), lod)
}
