// Package noise provides deterministic gradient noise for procedural meshes.
package noise

import (
	"github.com/chewxy/math32"
)

// Generator produces seeded 2D gradient noise. The zero value uses seed 0.
// A Generator holds no mutable state and is safe for concurrent use.
type Generator struct {
	seed int
}

// NewGenerator creates a new noise generator with the given seed
func NewGenerator(seed int64) Generator {
	return Generator{seed: int(seed)}
}

// Perlin2D generates 2D Perlin noise in roughly [-1, 1]
func (g Generator) Perlin2D(x, y float32) float32 {
	x0 := math32.Floor(x)
	y0 := math32.Floor(y)
	x1 := x0 + 1
	y1 := y0 + 1

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	ix0, iy0 := int(x0), int(y0)
	ix1, iy1 := ix0+1, iy0+1

	dp00 := dot(gradient(hash(ix0, iy0, g.seed)), x-x0, y-y0)
	dp10 := dot(gradient(hash(ix1, iy0, g.seed)), x-x1, y-y0)
	dp01 := dot(gradient(hash(ix0, iy1, g.seed)), x-x0, y-y1)
	dp11 := dot(gradient(hash(ix1, iy1, g.seed)), x-x1, y-y1)

	v0 := lerp(dp00, dp10, sx)
	v1 := lerp(dp01, dp11, sx)
	return lerp(v0, v1, sy)
}

// FBM2D sums octaves of Perlin noise. The result is normalised by the total
// amplitude so it stays in the same range as a single octave.
func (g Generator) FBM2D(x, y float32, octaves int, lacunarity, gain float32) float32 {
	if octaves < 1 {
		octaves = 1
	}
	var (
		result    float32
		amplitude float32 = 1
		frequency float32 = 1
		total     float32
	)
	for i := 0; i < octaves; i++ {
		octave := Generator{seed: g.seed + i}
		result += octave.Perlin2D(x*frequency, y*frequency) * amplitude
		total += amplitude
		amplitude *= gain
		frequency *= lacunarity
	}
	return result / total
}

// hash combines lattice coordinates and seed into a well-mixed integer.
func hash(x, y, seed int) int {
	h := seed + x*374761393 + y*668265263
	h = (h ^ (h >> 13)) * 1274126177
	return h ^ (h >> 16)
}

var gradients = [8][2]float32{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
}

func gradient(h int) [2]float32 {
	return gradients[h&7]
}

func dot(g [2]float32, x, y float32) float32 {
	return g[0]*x + g[1]*y
}

func lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

// smoothstep is the quintic fade 6t^5 - 15t^4 + 10t^3.
func smoothstep(t float32) float32 {
	return t * t * t * (t*(t*6-15) + 10)
}
