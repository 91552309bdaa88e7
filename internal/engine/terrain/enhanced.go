package terrain

import (
	"fmt"

	"github.com/helioforge/terrastream/internal/engine/noise"
	"github.com/helioforge/terrastream/pkg/geom"
)

const (
	craterFieldScale  = 0.002
	craterDepthFactor = 0.25
	caveFieldScale    = 0.01
	mineralFieldScale = 0.005
	roughnessScale    = 8.0 // frequency multiplier for biome detail noise
)

// GenerateEnhanced runs the full generation pipeline: base elevation, biome
// classification and shaping, impact craters, thermal erosion, and the
// optional cave/mineral layers. Like Generate it is deterministic for a
// fixed seed.
func GenerateEnhanced(pos geom.Vec2, size float32, lod, resolution int, cfg GenerationConfig, fields *noise.Fields) (*TileData, error) {
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
	applyBiomes(tile, cfg, fields)
	if cfg.CraterDensity > 0 {
		applyCraters(tile, cfg, fields)
	}
	if cfg.ErosionPasses > 0 {
		applyThermalErosion(tile, cfg)
	}
	if cfg.EnableCaves || cfg.EnableMinerals {
		computeAuxLayers(tile, cfg, fields)
	}

	buildMesh(tile)
	return tile, nil
}

// applyBiomes classifies every height sample and reshapes local relief by
// the biome's height scale and roughness.
func applyBiomes(tile *TileData, cfg GenerationConfig, fields *noise.Fields) {
	res := tile.Resolution
	step := tile.Size / float32(res-1)
	originX := tile.Position.X - tile.Size/2
	originY := tile.Position.Y - tile.Size/2

	tile.Biomes = make([]BiomeID, res*res)

	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			idx := j*res + i
			wx := float64(originX + float32(i)*step)
			wy := float64(originY + float32(j)*step)

			temperature := fields.Temperature.Eval2(wx*cfg.BiomeScale, wy*cfg.BiomeScale)
			humidity := fields.Humidity.Eval2(wx*cfg.BiomeScale, wy*cfg.BiomeScale)

			h := tile.Heights[idx]
			altitude := float64((h - cfg.BaseElevation) / cfg.ElevationRange)

			// Higher ground is colder.
			temperature -= altitude * 0.4

			id := classifyBiome(temperature, humidity, altitude)
			tile.Biomes[idx] = id

			b := id.Params()
			relief := h - cfg.BaseElevation
			detail := fields.Elevation.Eval2(wx*cfg.NoiseScale*roughnessScale, wy*cfg.NoiseScale*roughnessScale)
			roughness := (float32(detail) - 0.5) * b.Roughness * cfg.ElevationRange * 0.1

			tile.Heights[idx] = cfg.BaseElevation + relief*b.HeightScale + roughness
		}
	}
}

// applyCraters depresses the height field where the crater noise exceeds the
// density threshold, with a raised rim just outside the bowl.
func applyCraters(tile *TileData, cfg GenerationConfig, fields *noise.Fields) {
	res := tile.Resolution
	step := tile.Size / float32(res-1)
	originX := tile.Position.X - tile.Size/2
	originY := tile.Position.Y - tile.Size/2

	threshold := 1 - geom.Clamp01(float32(cfg.CraterDensity))
	rimBand := float32(0.05)

	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			idx := j*res + i
			wx := float64(originX + float32(i)*step)
			wy := float64(originY + float32(j)*step)

			c := float32(fields.Crater.Eval2(wx*craterFieldScale, wy*craterFieldScale))
			switch {
			case c > threshold:
				// Inside the bowl: deeper toward the noise peak.
				depth := (c - threshold) / (1 - threshold + 1e-6)
				tile.Heights[idx] -= depth * cfg.ElevationRange * craterDepthFactor
			case c > threshold-rimBand:
				// Rim uplift.
				rim := (c - (threshold - rimBand)) / rimBand
				tile.Heights[idx] += rim * cfg.ElevationRange * craterDepthFactor * 0.2
			}
		}
	}
}

// applyThermalErosion relaxes slopes steeper than the talus angle by moving
// material downhill. Runs cfg.ErosionPasses sweeps over the grid.
func applyThermalErosion(tile *TileData, cfg GenerationConfig) {
	res := tile.Resolution
	step := tile.Size / float32(res-1)
	talus := cfg.TalusAngle * step

	neighbors := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

	for pass := 0; pass < cfg.ErosionPasses; pass++ {
		for j := 0; j < res; j++ {
			for i := 0; i < res; i++ {
				idx := j*res + i
				for _, d := range neighbors {
					ni, nj := i+d[0], j+d[1]
					if ni < 0 || nj < 0 || ni >= res || nj >= res {
						continue
					}
					nidx := nj*res + ni
					diff := tile.Heights[idx] - tile.Heights[nidx]
					if diff > talus {
						move := (diff - talus) * 0.25
						tile.Heights[idx] -= move
						tile.Heights[nidx] += move
					}
				}
			}
		}
	}
}

// computeAuxLayers samples cave and mineral density per grid point. Both are
// advisory fields for downstream gameplay systems; they do not affect the
// surface mesh.
func computeAuxLayers(tile *TileData, cfg GenerationConfig, fields *noise.Fields) {
	res := tile.Resolution
	step := tile.Size / float32(res-1)
	originX := tile.Position.X - tile.Size/2
	originY := tile.Position.Y - tile.Size/2

	if cfg.EnableCaves {
		tile.Caves = make([]float32, res*res)
	}
	if cfg.EnableMinerals {
		tile.Minerals = make([]float32, res*res)
	}

	for j := 0; j < res; j++ {
		for i := 0; i < res; i++ {
			idx := j*res + i
			wx := float64(originX + float32(i)*step)
			wy := float64(originY + float32(j)*step)

			if cfg.EnableCaves {
				h := float64(tile.Heights[idx])
				tile.Caves[idx] = float32(fields.Cave.Eval3(wx*caveFieldScale, wy*caveFieldScale, h*caveFieldScale))
			}
			if cfg.EnableMinerals {
				tile.Minerals[idx] = float32(fields.Mineral.Eval2(wx*mineralFieldScale, wy*mineralFieldScale))
			}
		}
	}
}
