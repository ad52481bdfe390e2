package terrain

import "math"

// Deterministic 2D value noise over an integer lattice, summed in octaves.

// fade is the quintic smoothstep 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// hash2 is a SplitMix64 mix of a lattice point and seed.
func hash2(x, y, seed int64) uint64 {
	v := uint64(x) + (uint64(y) << 1) + uint64(seed)*0x9E3779B97F4A7C15
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

// lattice maps a lattice point to [0,1].
func lattice(x, y, seed int64) float64 {
	return float64(hash2(x, y, seed)&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise(x, y float64, seed int64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := fade(x-x0), fade(y-y0)
	ix, iy := int64(x0), int64(y0)

	top := lerp(lattice(ix, iy, seed), lattice(ix+1, iy, seed), fx)
	bottom := lerp(lattice(ix, iy+1, seed), lattice(ix+1, iy+1, seed), fx)
	return lerp(top, bottom, fy)
}

// Octaves configures fractal noise.
type Octaves struct {
	Count       int
	Persistence float64
	Lacunarity  float64
	Frequency   float64
}

// DefaultOctaves gives rolling hills on a unit grid.
func DefaultOctaves() Octaves {
	return Octaves{Count: 5, Persistence: 0.5, Lacunarity: 2, Frequency: 4}
}

// fbm sums o.Count octaves of value noise, normalized to [0,1].
func fbm(x, y float64, seed int64, o Octaves) float64 {
	amplitude, frequency := 1.0, o.Frequency
	sum, norm := 0.0, 0.0
	for i := 0; i < o.Count; i++ {
		sum += valueNoise(x*frequency, y*frequency, seed+int64(i*131)) * amplitude
		norm += amplitude
		amplitude *= o.Persistence
		frequency *= o.Lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}
