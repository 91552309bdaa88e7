// Package noise wraps opensimplex with the fractal evaluators used by the
// terrain generator.
package noise

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// Seed offsets for the auxiliary fields so each samples an independent
// noise space from the same world seed.
const (
	seedOffsetTemperature = 1
	seedOffsetHumidity    = 2
	seedOffsetCrater      = 3
	seedOffsetCave        = 4
	seedOffsetMineral     = 5
	seedOffsetWarp        = 6
)

// Fractal is an octave-summed opensimplex noise field.
type Fractal struct {
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Seed        int64

	amplitudes []float64
	os         opensimplex.Noise
	warp       opensimplex.Noise
}

// New returns a fractal noise field for the given seed.
func New(seed int64, octaves int, persistence, lacunarity float64) *Fractal {
	n := &Fractal{
		Octaves:     octaves,
		Persistence: persistence,
		Lacunarity:  lacunarity,
		Seed:        seed,
		amplitudes:  make([]float64, octaves),
		os:          opensimplex.NewNormalized(seed),
		warp:        opensimplex.NewNormalized(seed + seedOffsetWarp),
	}
	for i := range n.amplitudes {
		n.amplitudes[i] = math.Pow(persistence, float64(i))
	}
	return n
}

// Eval2 returns the fractal noise value in [0, 1] at the given point.
func (n *Fractal) Eval2(x, y float64) float64 {
	var sum, sumOfAmplitudes float64
	frequency := 1.0
	for octave := 0; octave < n.Octaves; octave++ {
		sum += n.amplitudes[octave] * n.os.Eval2(x*frequency, y*frequency)
		sumOfAmplitudes += n.amplitudes[octave]
		frequency *= n.Lacunarity
	}
	return sum / sumOfAmplitudes
}

// Eval3 returns the fractal noise value in [0, 1] at the given point.
func (n *Fractal) Eval3(x, y, z float64) float64 {
	var sum, sumOfAmplitudes float64
	frequency := 1.0
	for octave := 0; octave < n.Octaves; octave++ {
		sum += n.amplitudes[octave] * n.os.Eval3(x*frequency, y*frequency, z*frequency)
		sumOfAmplitudes += n.amplitudes[octave]
		frequency *= n.Lacunarity
	}
	return sum / sumOfAmplitudes
}

// Warped2 evaluates Eval2 with the sample point displaced by a secondary
// noise field. Strength is in input-space units.
func (n *Fractal) Warped2(x, y, strength float64) float64 {
	wx := n.warp.Eval2(x, y)
	wy := n.warp.Eval2(x+517.31, y-291.77)
	return n.Eval2(x+(wx*2-1)*strength, y+(wy*2-1)*strength)
}

// Ridged2 returns ridged fractal noise in [0, 1]: sharp crests where the
// underlying field crosses its midline. Used for mountain chains and
// crater rims.
func (n *Fractal) Ridged2(x, y float64) float64 {
	v := n.Eval2(x, y)
	return 1 - math.Abs(v*2-1)
}
