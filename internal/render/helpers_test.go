package render

import (
	"errors"
	"io"
	"math"
	"testing"

	"compositor/internal/gpu"
	"compositor/internal/gpu/softgpu"
	"compositor/internal/logging"
	"compositor/internal/resources"
	"compositor/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

func init() {
	logging.SetOutput(io.Discard)
}

const (
	testWidth  = 16
	testHeight = 12
)

// testScene is a sky sphere, a gray ball at the origin and a mirror ball
// beside it, lit by one light.
func testScene(w, h int) *scene.Scene {
	sc := &scene.Scene{
		Name:    "test",
		Camera:  scene.NewTurntableCamera(w, h),
		Toggles: scene.DefaultToggles(),
		Lights:  []scene.Light{{Position: mgl32.Vec3{5, -5, 8}, Color: mgl32.Vec3{1, 1, 1}}},
	}
	sc.Add(
		scene.NewObject("sky", resources.MeshEnvSphere, scene.Sky, mgl32.Vec3{}, mgl32.Vec3{50, 50, 50}),
		scene.NewObject("ball", resources.MeshSphere, scene.Gray, mgl32.Vec3{}, mgl32.Vec3{2, 2, 2}),
		scene.NewObject("mirror", resources.MeshSphere, scene.Mirror, mgl32.Vec3{3, 0, 0}, mgl32.Vec3{1, 1, 1}),
	)
	return sc
}

func testState(sc *scene.Scene, w, h int) *scene.SceneState {
	return &scene.SceneState{Scene: sc, Frame: scene.Frame{Width: w, Height: h}}
}

func testOptions() Options {
	opts := DefaultOptions(testWidth, testHeight)
	opts.CaptureSize = 8
	opts.BloomIterations = 2
	return opts
}

func newTestRenderer(t *testing.T, opts Options) (*SceneRenderer, *softgpu.Device) {
	t.Helper()
	d := softgpu.New(opts.Width, opts.Height)
	r, err := NewSceneRenderer(d, resources.NewManager(), opts)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r, d
}

func allDisabled() scene.Toggles {
	t := scene.DefaultToggles()
	t.SSREnabled = false
	t.BloomEnabled = false
	t.SharpenEnabled = false
	t.GammaEnabled = false
	return t
}

func texture(t *testing.T, r *SceneRenderer, name string) gpu.Texture {
	t.Helper()
	tex, err := r.Texture(name)
	if err != nil {
		t.Fatalf("texture %s: %v", name, err)
	}
	return tex
}

func samePixels(t *testing.T, d *softgpu.Device, got, want gpu.Texture, what string) {
	t.Helper()
	a, b := d.Pixels(got), d.Pixels(want)
	if len(a) != len(b) {
		t.Fatalf("%s: size mismatch %d vs %d", what, len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("%s: component %d: got %v, want %v", what, i, a[i], b[i])
		}
	}
}

// expectConfigurationError runs fn and checks it panics with kind.
func expectConfigurationError(t *testing.T, kind string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		rec := recover()
		err, ok := rec.(error)
		var cfg *ConfigurationError
		if !ok || !errors.As(err, &cfg) {
			t.Fatalf("expected *ConfigurationError panic, got %v", rec)
		}
		if cfg.Kind != kind {
			t.Fatalf("error kind: got %q, want %q", cfg.Kind, kind)
		}
	}()
	fn()
}

func pow32(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}
