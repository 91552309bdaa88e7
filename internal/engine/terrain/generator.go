package terrain

import (
	"fmt"

	"github.com/helioforge/terrastream/internal/engine/noise"
	"github.com/helioforge/terrastream/pkg/geom"
)

// Generate produces a tile mesh for the given world-space footprint. It is a
// pure function of its inputs and the noise field seed: repeated calls with
// identical arguments produce bit-identical tiles.
//
// Resolution must be at least 2 (one grid cell).
func Generate(pos geom.Vec2, size float32, lod, resolution int, cfg GenerationConfig, fields *noise.Fields) (*TileData, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("tile resolution %d below minimum of 2", resolution)
	}

	tile := &TileData{
		Position:   pos,
		Size:       size,
		Resolution: resolution,
		LODLevel:   lod,
	}

	tile.Heights = computeHeights(pos, size, resolution, cfg, fields)
	buildMesh(tile)
	return tile, nil
}

// computeHeights samples the elevation field across the tile footprint.
// Heights are row-major, resolution² samples.
func computeHeights(pos geom.Vec2, size float32, resolution int, cfg GenerationConfig, fields *noise.Fields) []float32 {
	heights := make([]float32, resolution*resolution)
	step := size / float32(resolution-1)
	originX := pos.X - size/2
	originY := pos.Y - size/2

	for j := 0; j < resolution; j++ {
		for i := 0; i < resolution; i++ {
			wx := float64(originX + float32(i)*step)
			wy := float64(originY + float32(j)*step)

			var n float64
			if cfg.DomainWarping {
				n = fields.Elevation.Warped2(wx*cfg.NoiseScale, wy*cfg.NoiseScale, cfg.WarpStrength)
			} else {
				n = fields.Elevation.Eval2(wx*cfg.NoiseScale, wy*cfg.NoiseScale)
			}

			heights[j*resolution+i] = cfg.BaseElevation + float32(n)*cfg.ElevationRange
		}
	}
	return heights
}

// buildMesh fills the vertex, normal, tangent, UV and triangle arrays from
// the tile's height grid. Vertices are centered on the tile origin in local
// space; world placement is the renderer's job.
func buildMesh(tile *TileData) {
	res := tile.Resolution
	step := tile.Size / float32(res-1)
	half := tile.Size / 2

	tile.Vertices = make([]geom.Vec3, res*res)
	tile.Normals = make([]geom.Vec3, res*res)
	tile.Tangents = make([]geom.Vec3, res*res)
	tile.UVs = make([]geom.Vec2, res*res)

	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			idx := j*res + i
			tile.Vertices[idx] = geom.Vec3{
				X: -half + float32(i)*step,
				Y: -half + float32(j)*step,
				Z: tile.Heights[idx],
			}
			tile.UVs[idx] = geom.Vec2{
				X: float32(i) / float32(res-1),
				Y: float32(j) / float32(res-1),
			}
		}
	}

	computeNormals(tile, step)

	// Two triangles per grid cell, consistent winding across the mesh.
	tile.Triangles = make([]uint32, 0, 6*(res-1)*(res-1))
	for j := 0; j < res-1; j++ {
		for i := 0; i < res-1; i++ {
			i0 := uint32(j*res + i)
			i1 := i0 + 1
			i2 := i0 + uint32(res)
			i3 := i2 + 1
			tile.Triangles = append(tile.Triangles,
				i0, i2, i1,
				i1, i2, i3,
			)
		}
	}
}

// computeNormals derives per-vertex normals from finite differences of the
// 4-neighborhood heights. Boundary samples clamp to the nearest interior
// neighbor; tiles do not wrap.
func computeNormals(tile *TileData, step float32) {
	res := tile.Resolution
	up := geom.Vec3{X: 0, Y: 1, Z: 0}

	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			il, ir := i-1, i+1
			if il < 0 {
				il = 0
			}
			if ir > res-1 {
				ir = res - 1
			}
			jd, ju := j-1, j+1
			if jd < 0 {
				jd = 0
			}
			if ju > res-1 {
				ju = res - 1
			}

			hL := tile.Heights[j*res+il]
			hR := tile.Heights[j*res+ir]
			hD := tile.Heights[jd*res+i]
			hU := tile.Heights[ju*res+i]

			dx := geom.Vec3{X: float32(ir-il) * step, Y: 0, Z: hR - hL}
			dy := geom.Vec3{X: 0, Y: float32(ju-jd) * step, Z: hU - hD}

			idx := j*res + i
			n := dx.Cross(dy).Normalize()
			if n.Length() == 0 {
				n = geom.Vec3{X: 0, Y: 0, Z: 1}
			}
			tile.Normals[idx] = n

			t := up.Cross(n).Normalize()
			if t.Length() == 0 {
				t = geom.Vec3{X: 1, Y: 0, Z: 0}
			}
			tile.Tangents[idx] = t
		}
	}
}
