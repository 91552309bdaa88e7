package terrain

// BiomeID identifies a surface biome.
type BiomeID uint8

// Surface biomes, classified from temperature/humidity/altitude.
const (
	BiomeOcean BiomeID = iota
	BiomePlains
	BiomeDesert
	BiomeForest
	BiomeTundra
	BiomeMountains
	BiomeVolcanic
)

// Biome describes terrain shaping parameters for a biome.
type Biome struct {
	ID          BiomeID
	Name        string
	HeightScale float32 // multiplier on local relief
	Roughness   float32 // extra high-frequency detail amplitude
	HasSnow     bool
}

var biomes = map[BiomeID]*Biome{
	BiomeOcean:     {ID: BiomeOcean, Name: "Ocean", HeightScale: 0.3, Roughness: 0.1},
	BiomePlains:    {ID: BiomePlains, Name: "Plains", HeightScale: 0.6, Roughness: 0.2},
	BiomeDesert:    {ID: BiomeDesert, Name: "Desert", HeightScale: 0.7, Roughness: 0.35},
	BiomeForest:    {ID: BiomeForest, Name: "Forest", HeightScale: 0.8, Roughness: 0.3},
	BiomeTundra:    {ID: BiomeTundra, Name: "Tundra", HeightScale: 0.5, Roughness: 0.15, HasSnow: true},
	BiomeMountains: {ID: BiomeMountains, Name: "Mountains", HeightScale: 1.4, Roughness: 0.8, HasSnow: true},
	BiomeVolcanic:  {ID: BiomeVolcanic, Name: "Volcanic", HeightScale: 1.1, Roughness: 0.6},
}

// Params returns the shaping parameters for a biome ID.
func (id BiomeID) Params() *Biome {
	if b, ok := biomes[id]; ok {
		return b
	}
	return biomes[BiomePlains]
}

// String returns the biome name.
func (id BiomeID) String() string {
	return id.Params().Name
}

// classifyBiome maps normalized temperature/humidity in [0, 1] and a
// normalized altitude in [0, 1] to a biome. Altitude wins over climate:
// high ground is mountains regardless of temperature.
func classifyBiome(temperature, humidity, altitude float64) BiomeID {
	switch {
	case altitude > 0.8:
		return BiomeMountains
	case altitude < 0.15:
		return BiomeOcean
	case temperature > 0.75 && humidity < 0.3:
		return BiomeDesert
	case temperature > 0.75 && humidity > 0.7:
		return BiomeVolcanic
	case temperature < 0.25:
		return BiomeTundra
	case humidity > 0.55:
		return BiomeForest
	default:
		return BiomePlains
	}
}
