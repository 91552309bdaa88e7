// Package terrain provides the tile data model and the procedural tile
// generator for the planetary surface.
package terrain

import (
	"github.com/helioforge/terrastream/pkg/geom"
)

// TileData holds one generated terrain patch: the height grid plus the mesh
// arrays a renderer needs to build GPU buffers. A tile is immutable after
// generation; holders that need to mutate it (cache, transitions) work on
// their own Clone.
type TileData struct {
	// Identity
	Position   geom.Vec2 // world-space center
	Size       float32   // world units per side
	Resolution int       // vertices per side
	LODLevel   int       // 0 = finest

	// Payload
	Heights   []float32 // Resolution*Resolution, row-major
	Vertices  []geom.Vec3
	Normals   []geom.Vec3
	Tangents  []geom.Vec3
	UVs       []geom.Vec2
	Triangles []uint32

	// Optional auxiliary layers (enhanced generation only)
	Biomes   []BiomeID
	Caves    []float32
	Minerals []float32
}

// HasGeometry reports whether the tile carries generated mesh data, as
// opposed to being a position/size stub created by the quadtree.
func (t *TileData) HasGeometry() bool {
	return t != nil && len(t.Vertices) > 0
}

// Clone returns a deep copy. Every holder of tile data owns its own copy;
// there is no shared mutable tile state anywhere in the engine.
func (t *TileData) Clone() *TileData {
	if t == nil {
		return nil
	}
	c := &TileData{
		Position:   t.Position,
		Size:       t.Size,
		Resolution: t.Resolution,
		LODLevel:   t.LODLevel,
	}
	if t.Heights != nil {
		c.Heights = append([]float32(nil), t.Heights...)
	}
	if t.Vertices != nil {
		c.Vertices = append([]geom.Vec3(nil), t.Vertices...)
	}
	if t.Normals != nil {
		c.Normals = append([]geom.Vec3(nil), t.Normals...)
	}
	if t.Tangents != nil {
		c.Tangents = append([]geom.Vec3(nil), t.Tangents...)
	}
	if t.UVs != nil {
		c.UVs = append([]geom.Vec2(nil), t.UVs...)
	}
	if t.Triangles != nil {
		c.Triangles = append([]uint32(nil), t.Triangles...)
	}
	if t.Biomes != nil {
		c.Biomes = append([]BiomeID(nil), t.Biomes...)
	}
	if t.Caves != nil {
		c.Caves = append([]float32(nil), t.Caves...)
	}
	if t.Minerals != nil {
		c.Minerals = append([]float32(nil), t.Minerals...)
	}
	return c
}

// SampleHeightBilinear returns the bilinearly interpolated height at
// normalized tile coordinates (u, v) in [0, 1]. Coordinates outside the
// range are clamped to the tile edge.
func (t *TileData) SampleHeightBilinear(u, v float32) float32 {
	res := t.Resolution
	if res < 2 || len(t.Heights) < res*res {
		return 0
	}

	fx := geom.Clamp01(u) * float32(res-1)
	fy := geom.Clamp01(v) * float32(res-1)

	x0 := int(fx)
	y0 := int(fy)
	if x0 >= res-1 {
		x0 = res - 2
	}
	if y0 >= res-1 {
		y0 = res - 2
	}

	tx := geom.Clamp01(fx - float32(x0))
	ty := geom.Clamp01(fy - float32(y0))

	h00 := t.Heights[y0*res+x0]
	h10 := t.Heights[y0*res+x0+1]
	h01 := t.Heights[(y0+1)*res+x0]
	h11 := t.Heights[(y0+1)*res+x0+1]

	south := geom.Lerp(h00, h10, tx)
	north := geom.Lerp(h01, h11, tx)
	return geom.Lerp(south, north, ty)
}

// GenerationConfig controls procedural tile generation. The zero value is
// not useful; start from DefaultGenerationConfig.
type GenerationConfig struct {
	Seed           int64   `yaml:"seed"`
	BaseElevation  float32 `yaml:"base_elevation"`
	ElevationRange float32 `yaml:"elevation_range"`
	NoiseScale     float64 `yaml:"noise_scale"`
	Octaves        int     `yaml:"octaves"`
	Persistence    float64 `yaml:"persistence"`
	Lacunarity     float64 `yaml:"lacunarity"`
	DomainWarping  bool    `yaml:"domain_warping"`
	WarpStrength   float64 `yaml:"warp_strength"`

	// Enhanced features
	BiomeScale    float64 `yaml:"biome_scale"`
	CraterDensity float64 `yaml:"crater_density"`
	TalusAngle    float32 `yaml:"talus_angle"`
	ErosionPasses int     `yaml:"erosion_passes"`
	EnableCaves   bool    `yaml:"enable_caves"`
	EnableMinerals bool   `yaml:"enable_minerals"`
}

// DefaultGenerationConfig returns generation settings for an earthlike
// planet surface.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Seed:           1337,
		BaseElevation:  0,
		ElevationRange: 800,
		NoiseScale:     0.0004,
		Octaves:        6,
		Persistence:    0.5,
		Lacunarity:     2.0,
		DomainWarping:  false,
		WarpStrength:   0.5,
		BiomeScale:     0.00008,
		CraterDensity:  0,
		TalusAngle:     0.6,
		ErosionPasses:  0,
	}
}
