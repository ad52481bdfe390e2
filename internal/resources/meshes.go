package resources

import (
	"math"

	"compositor/internal/gpu"

	"github.com/go-gl/mathgl/mgl32"
)

// FullscreenQuad covers clip space with two triangles; uv spans [0,1]².
func FullscreenQuad() *gpu.Mesh {
	return &gpu.Mesh{
		Name: MeshFullscreenQuad,
		Positions: []mgl32.Vec3{
			{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0},
		},
		Normals: []mgl32.Vec3{
			{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1},
		},
		TexCoords: []mgl32.Vec2{
			{0, 0}, {1, 0}, {1, 1}, {0, 1},
		},
		Faces: [][3]uint32{{0, 1, 2}, {0, 2, 3}},
	}
}

// UVSphere builds a unit sphere with divisions segments in both angles.
func UVSphere(name string, divisions int) *gpu.Mesh {
	if divisions < 3 {
		divisions = 3
	}
	m := &gpu.Mesh{Name: name}
	rows := divisions + 1
	cols := 2*divisions + 1
	for r := 0; r < rows; r++ {
		v := float64(r) / float64(divisions)
		theta := v * math.Pi
		for c := 0; c < cols; c++ {
			u := float64(c) / float64(cols-1)
			phi := u * 2 * math.Pi
			p := mgl32.Vec3{
				float32(math.Sin(theta) * math.Cos(phi)),
				float32(math.Sin(theta) * math.Sin(phi)),
				float32(math.Cos(theta)),
			}
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, p)
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{float32(u), float32(1 - v)})
		}
	}
	for r := 0; r < divisions; r++ {
		for c := 0; c < cols-1; c++ {
			a := uint32(r*cols + c)
			b := a + 1
			d := uint32((r+1)*cols + c)
			e := d + 1
			m.Faces = append(m.Faces, [3]uint32{a, d, b}, [3]uint32{b, d, e})
		}
	}
	return m
}

// Cube builds an axis-aligned unit cube centered at the origin with flat normals.
func Cube(name string) *gpu.Mesh {
	m := &gpu.Mesh{Name: name}
	faces := []struct {
		n, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}},
	}
	for _, f := range faces {
		start := uint32(len(m.Positions))
		center := f.n.Mul(0.5)
		corners := [4][2]float32{{-0.5, -0.5}, {0.5, -0.5}, {0.5, 0.5}, {-0.5, 0.5}}
		for _, c := range corners {
			p := center.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1]))
			m.Positions = append(m.Positions, p)
			m.Normals = append(m.Normals, f.n)
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{c[0] + 0.5, c[1] + 0.5})
		}
		m.Faces = append(m.Faces,
			[3]uint32{start, start + 1, start + 2},
			[3]uint32{start, start + 2, start + 3},
		)
	}
	return m
}

// Plane builds a unit square in the XY plane facing +Z, split into n x n cells.
func Plane(name string, n int) *gpu.Mesh {
	if n < 1 {
		n = 1
	}
	m := &gpu.Mesh{Name: name}
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			u := float32(x) / float32(n)
			v := float32(y) / float32(n)
			m.Positions = append(m.Positions, mgl32.Vec3{u - 0.5, v - 0.5, 0})
			m.Normals = append(m.Normals, mgl32.Vec3{0, 0, 1})
			m.TexCoords = append(m.TexCoords, mgl32.Vec2{u, v})
		}
	}
	stride := uint32(n + 1)
	for y := uint32(0); y < uint32(n); y++ {
		for x := uint32(0); x < uint32(n); x++ {
			a := y*stride + x
			m.Faces = append(m.Faces, [3]uint32{a, a + 1, a + stride}, [3]uint32{a + 1, a + stride + 1, a + stride})
		}
	}
	return m
}
