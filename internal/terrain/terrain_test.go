package terrain

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestConstantHeightmapBelowWater(t *testing.T) {
	h := Constant(2, 2, 1.0)
	m := BuildMesh("flat", h, 0.5)

	if len(m.Faces) != 2 {
		t.Fatalf("2x2 grid: got %d triangles, want 2", len(m.Faces))
	}
	want := mgl32.Vec3{0, 0, 1}
	for i, n := range m.Normals {
		if n != want {
			t.Fatalf("vertex %d normal: got %v, want %v", i, n, want)
		}
	}
	for i, p := range m.Positions {
		if p.Z() != 0.5 {
			t.Fatalf("vertex %d height: got %v, want 0.5", i, p.Z())
		}
	}
}

func TestGridCoversUnitSquare(t *testing.T) {
	h := Constant(4, 4, 0.9)
	m := BuildMesh("grid", h, -1)

	if len(m.Faces) != 2*3*3 {
		t.Fatalf("4x4 grid: got %d triangles, want 18", len(m.Faces))
	}
	first, last := m.Positions[0], m.Positions[len(m.Positions)-1]
	if first.X() != -0.5 || first.Y() != -0.5 {
		t.Fatalf("first vertex: got %v", first)
	}
	if last.X() != 0.25 || last.Y() != 0.25 {
		t.Fatalf("last vertex: got %v", last)
	}
	if z := m.Positions[5].Z(); !mgl32.FloatEqual(z, 0.4) {
		t.Fatalf("elevation: got %v, want 0.4", z)
	}
}

func TestSlopeNormalLeansDownhill(t *testing.T) {
	h := NewHeightmap(3, 1)
	h.Set(0, 0, 0.6)
	h.Set(1, 0, 0.8)
	h.Set(2, 0, 1.0)
	m := BuildMesh("slope", h, -1)

	n := m.Normals[1]
	if n.X() >= 0 {
		t.Fatalf("normal should lean towards -X on a rising slope: got %v", n)
	}
	if !mgl32.FloatEqual(n.Len(), 1) {
		t.Fatalf("normal not unit length: %v", n.Len())
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate(8, 8, 42, DefaultOctaves())
	b := Generate(8, 8, 42, DefaultOctaves())
	for i := range a.Data {
		if a.Data[i] != b.Data[i] {
			t.Fatalf("value %d differs: %v vs %v", i, a.Data[i], b.Data[i])
		}
		if a.Data[i] < 0 || a.Data[i] > 1 {
			t.Fatalf("value %d out of range: %v", i, a.Data[i])
		}
	}
}
