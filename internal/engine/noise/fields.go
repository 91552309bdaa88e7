package noise

import "github.com/ojrac/opensimplex-go"

// Fields bundles the independent noise spaces consumed by the enhanced
// terrain generator. Each field derives from the world seed plus a fixed
// offset, so a single seed reproduces the whole planet.
type Fields struct {
	Elevation   *Fractal
	Temperature opensimplex.Noise
	Humidity    opensimplex.Noise
	Crater      opensimplex.Noise
	Cave        opensimplex.Noise
	Mineral     opensimplex.Noise
}

// NewFields returns the full field set for a world seed.
func NewFields(seed int64, octaves int, persistence, lacunarity float64) *Fields {
	return &Fields{
		Elevation:   New(seed, octaves, persistence, lacunarity),
		Temperature: opensimplex.NewNormalized(seed + seedOffsetTemperature),
		Humidity:    opensimplex.NewNormalized(seed + seedOffsetHumidity),
		Crater:      opensimplex.NewNormalized(seed + seedOffsetCrater),
		Cave:        opensimplex.NewNormalized(seed + seedOffsetCave),
		Mineral:     opensimplex.NewNormalized(seed + seedOffsetMineral),
	}
}
