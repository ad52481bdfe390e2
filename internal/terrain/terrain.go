// Package terrain builds heightmaps and the terrain meshes drawn by the terrain pass.
package terrain

import (
	"compositor/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// Heightmap stores values in [0,1] on a Width x Height grid.
type Heightmap struct {
	Width  int
	Height int
	Data   []float32
}

// NewHeightmap allocates a zeroed heightmap.
func NewHeightmap(width, height int) *Heightmap {
	return &Heightmap{Width: width, Height: height, Data: make([]float32, width*height)}
}

// Constant returns a heightmap filled with v.
func Constant(width, height int, v float32) *Heightmap {
	h := NewHeightmap(width, height)
	for i := range h.Data {
		h.Data[i] = v
	}
	return h
}

// Generate fills a heightmap with fractal value noise.
func Generate(width, height int, seed int64, o Octaves) *Heightmap {
	h := NewHeightmap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			h.Set(x, y, float32(fbm(float64(x)/float64(width), float64(y)/float64(height), seed, o)))
		}
	}
	return h
}

// At returns the value at (x, y), clamping coordinates to the grid edge.
func (h *Heightmap) At(x, y int) float32 {
	x = max(0, min(x, h.Width-1))
	y = max(0, min(y, h.Height-1))
	return h.Data[x+y*h.Width]
}

func (h *Heightmap) Set(x, y int, v float32) {
	h.Data[x+y*h.Width] = v
}

// BuildMesh displaces a grid covering [-0.5,0.5]² by the heightmap.
// Elevation is the stored value minus 0.5. Vertices at or below waterLevel are
// flattened onto it with a +Z normal; the rest take finite-difference normals.
// Every grid cell emits two triangles.
func BuildMesh(name string, h *Heightmap, waterLevel float32) *gpu.Mesh {
	gw, gh := h.Width, h.Height
	m := &gpu.Mesh{
		Name:      name,
		Positions: make([]mgl32.Vec3, gw*gh),
		Normals:   make([]mgl32.Vec3, gw*gh),
		TexCoords: make([]mgl32.Vec2, gw*gh),
	}
	index := func(x, y int) int { return x + y*gw }

	for gy := 0; gy < gh; gy++ {
		for gx := 0; gx < gw; gx++ {
			i := index(gx, gy)
			elevation := h.At(gx, gy) - 0.5

			n := mgl32.Vec3{
				-(h.At(gx+1, gy) - h.At(gx-1, gy)) / (2 / float32(gw)),
				-(h.At(gx, gy+1) - h.At(gx, gy-1)) / (2 / float32(gh)),
				1,
			}.Normalize()

			vx := float32(gx)/float32(gw) - 0.5
			vy := float32(gy)/float32(gh) - 0.5
			vz := elevation
			if elevation <= waterLevel {
				vz = waterLevel
				n = mgl32.Vec3{0, 0, 1}
			}
			m.Positions[i] = mgl32.Vec3{vx, vy, vz}
			m.Normals[i] = n
			m.TexCoords[i] = mgl32.Vec2{float32(gx) / float32(max(1, gw-1)), float32(gy) / float32(max(1, gh-1))}
		}
	}

	for gy := 0; gy < gh-1; gy++ {
		for gx := 0; gx < gw-1; gx++ {
			a := uint32(index(gx, gy))
			b := uint32(index(gx+1, gy))
			c := uint32(index(gx, gy+1))
			d := uint32(index(gx+1, gy+1))
			m.Faces = append(m.Faces, [3]uint32{a, b, c}, [3]uint32{b, d, c})
		}
	}
	return m
}
