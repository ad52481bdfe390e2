// Package resources provides meshes and textures to the render passes by name.
package resources

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"compositor/internal/gpu"
	"compositor/internal/logging"

	"golang.org/x/image/draw"
)

// Built-in mesh and image names.
const (
	MeshFullscreenQuad = "fullscreen_quad"
	MeshEnvSphere      = "mesh_sphere_env_map"
	MeshCube           = "cube"
	MeshSphere         = "sphere"
	MeshWater          = "mesh_water"

	ImageWhite = "white"
)

// MaxTextureSize bounds the larger side of loaded images.
const MaxTextureSize = 1024

var (
	ErrMeshNotFound  = errors.New("mesh not found")
	ErrImageNotFound = errors.New("image not found")
)

// Manager owns named meshes and images. It is not safe for concurrent use.
type Manager struct {
	meshes map[string]*gpu.Mesh
	images map[string]image.Image
}

// NewManager creates a manager preloaded with the built-in meshes and
// procedural textures.
func NewManager() *Manager {
	m := &Manager{
		meshes: make(map[string]*gpu.Mesh),
		images: make(map[string]image.Image),
	}
	m.AddMesh(MeshFullscreenQuad, FullscreenQuad())
	m.AddMesh(MeshEnvSphere, UVSphere(MeshEnvSphere, 16))
	m.AddMesh(MeshSphere, UVSphere(MeshSphere, 24))
	m.AddMesh(MeshCube, Cube(MeshCube))
	m.AddMesh(MeshWater, Plane(MeshWater, 8))

	m.AddImage(ImageWhite, solid(color.NRGBA{255, 255, 255, 255}))
	m.AddImage("sky_sunset", skyGradient(
		color.NRGBA{255, 150, 90, 255}, color.NRGBA{40, 60, 120, 255}))
	m.AddImage("sky_day", skyGradient(
		color.NRGBA{200, 225, 255, 255}, color.NRGBA{60, 120, 210, 255}))
	m.AddImage("water", solid(color.NRGBA{30, 100, 115, 255}))
	m.AddImage("water-normal", solid(color.NRGBA{128, 128, 255, 255}))
	return m
}

// AddMesh registers mesh under name, replacing any previous mesh.
func (m *Manager) AddMesh(name string, mesh *gpu.Mesh) {
	if mesh.Name == "" {
		mesh.Name = name
	}
	m.meshes[name] = mesh
}

// Mesh looks up a mesh by name.
func (m *Manager) Mesh(name string) (*gpu.Mesh, error) {
	mesh, ok := m.meshes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMeshNotFound, name)
	}
	return mesh, nil
}

// AddImage registers img under name.
func (m *Manager) AddImage(name string, img image.Image) {
	m.images[name] = img
}

// Image looks up an image by name.
func (m *Manager) Image(name string) (image.Image, error) {
	img, ok := m.images[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrImageNotFound, name)
	}
	return img, nil
}

// LoadImages decodes every PNG/JPEG file in dir, registering each under its
// file name without extension. Images larger than MaxTextureSize are scaled down.
func (m *Manager) LoadImages(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read texture dir: %w", err)
	}
	loaded := 0
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".png" && ext != ".jpg" && ext != ".jpeg") {
			continue
		}
		img, err := decodeFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		m.AddImage(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), Fit(img, MaxTextureSize))
		loaded++
	}
	logging.Info("loaded textures", "dir", dir, "count", loaded)
	return nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Fit scales img down so its larger side is at most maxSize. Smaller images
// are returned unchanged.
func Fit(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}
	scale := float64(maxSize) / math.Max(float64(w), float64(h))
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func solid(c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, c)
	return img
}

// skyGradient blends horizon to zenith along the v axis of the env sphere.
func skyGradient(horizon, zenith color.NRGBA) image.Image {
	const w, h = 4, 64
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		// Row 0 is the top of the image, which maps to v = 1 (zenith).
		t := 1 - math.Abs(float64(y)/float64(h-1)*2-1)
		c := color.NRGBA{
			R: mix8(zenith.R, horizon.R, t),
			G: mix8(zenith.G, horizon.G, t),
			B: mix8(zenith.B, horizon.B, t),
			A: 255,
		}
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func mix8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a)*(1-t) + float64(b)*t))
}
