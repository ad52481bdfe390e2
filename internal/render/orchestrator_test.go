package render

import (
	"errors"
	"strings"
	"testing"

	"compositor/internal/gpu"
	"compositor/internal/gpu/softgpu"
	"compositor/internal/resources"
	"compositor/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

func TestRenderCreatesEveryTarget(t *testing.T) {
	r, _ := newTestRenderer(t, testOptions())
	names := r.Registry().Names()
	if len(names) != len(targetNames) {
		t.Fatalf("targets: got %v", names)
	}
	for i, name := range targetNames {
		if names[i] != name {
			t.Fatalf("target %d: got %s, want %s", i, names[i], name)
		}
	}
	if _, err := r.Texture("nope"); err == nil {
		t.Fatalf("unknown texture should fail")
	}
}

func TestRenderDrawsScene(t *testing.T) {
	r, d := newTestRenderer(t, testOptions())
	sc := testScene(testWidth, testHeight)
	r.Render(testState(sc, testWidth, testHeight))

	base := texture(t, r, TargetBase)
	center := d.Pixel(base, testWidth/2, testHeight/2)
	if center.Vec3().Len() == 0 {
		t.Fatalf("ball missing from base: %v", center)
	}
	corner := d.Pixel(base, 0, testHeight-1)
	if corner.Vec3().Len() == 0 {
		t.Fatalf("sky missing from base: %v", corner)
	}

	pos := d.Pixel(texture(t, r, TargetPosition), testWidth/2, testHeight/2)
	if pos.Z() >= 0 {
		t.Fatalf("view-space position should be in front of the camera: %v", pos)
	}

	w, h := d.Screen().Size()
	if w != testWidth || h != testHeight {
		t.Fatalf("screen size: got %dx%d", w, h)
	}
	samePixels(t, d, d.Screen(), texture(t, r, TargetGamma), "presented image")
}

func TestGatedPassesPassThroughWhenDisabled(t *testing.T) {
	r, d := newTestRenderer(t, testOptions())
	sc := testScene(testWidth, testHeight)
	sc.Toggles = allDisabled()
	r.Render(testState(sc, testWidth, testHeight))

	samePixels(t, d, texture(t, r, TargetBloom), texture(t, r, TargetFinalColor), "bloom")
	samePixels(t, d, texture(t, r, TargetSharpen), texture(t, r, TargetBloom), "sharpen")
	samePixels(t, d, texture(t, r, TargetGamma), texture(t, r, TargetSharpen), "gamma")

	for i, v := range d.Pixels(texture(t, r, TargetSSR)) {
		if v != 0 {
			t.Fatalf("ssr disabled: component %d is %v, want 0", i, v)
		}
	}
}

func TestFullyDisabledEqualsBaseCombine(t *testing.T) {
	r, d := newTestRenderer(t, testOptions())
	sc := testScene(testWidth, testHeight)
	sc.Toggles = allDisabled()
	r.Render(testState(sc, testWidth, testHeight))

	samePixels(t, d, texture(t, r, TargetGamma), texture(t, r, TargetFinalColor), "display image")
}

func TestEnabledGammaChangesImage(t *testing.T) {
	r, d := newTestRenderer(t, testOptions())
	sc := testScene(testWidth, testHeight)
	sc.Toggles = allDisabled()
	sc.Toggles.GammaEnabled = true
	r.Render(testState(sc, testWidth, testHeight))

	in := d.Pixel(texture(t, r, TargetSharpen), testWidth/2, testHeight/2)
	out := d.Pixel(texture(t, r, TargetGamma), testWidth/2, testHeight/2)
	want := pow32(in.X(), 1/sc.Toggles.Gamma)
	if !mgl32.FloatEqualThreshold(out.X(), want, 1e-5) {
		t.Fatalf("gamma: got %v, want %v", out.X(), want)
	}
}

func TestEnvironmentOnlyInBackground(t *testing.T) {
	r, d := newTestRenderer(t, testOptions())
	d.LogDraws(true)
	sc := testScene(testWidth, testHeight)
	r.Render(testState(sc, testWidth, testHeight))

	background := 0
	for _, rec := range d.Draws() {
		if rec.Label != "sky" {
			continue
		}
		switch rec.Program {
		case "flat_color":
			background++
		case "pre_processing":
		default:
			t.Fatalf("environment object drawn by %s into %s", rec.Program, rec.Framebuffer)
		}
	}
	if background == 0 {
		t.Fatalf("environment object missing from the background pass")
	}

	// The sky covers the top corner; the G-buffer keeps its clear value there.
	for _, name := range []string{TargetMask, TargetNormal, TargetSpecular} {
		if got := d.Pixel(texture(t, r, name), 0, testHeight-1); got != clearColor {
			t.Fatalf("%s at sky pixel: got %v, want cleared", name, got)
		}
	}
}

func TestMirrorCaptureIsOneBounce(t *testing.T) {
	r, d := newTestRenderer(t, testOptions())
	d.LogDraws(true)
	sc := testScene(testWidth, testHeight)
	r.Render(testState(sc, testWidth, testHeight))

	mirrorDraws, captureDraws := 0, 0
	for _, rec := range d.Draws() {
		if rec.Program == "mirror" {
			mirrorDraws++
			if rec.Framebuffer != TargetBase {
				t.Fatalf("mirror drawn into %s", rec.Framebuffer)
			}
		}
		if strings.HasPrefix(rec.Framebuffer, "env_capture/") {
			captureDraws++
			if rec.Label == "mirror" {
				t.Fatalf("mirror object drawn into its own capture")
			}
		}
	}
	if mirrorDraws != 1 {
		t.Fatalf("mirror draws: got %d, want 1", mirrorDraws)
	}
	if captureDraws == 0 {
		t.Fatalf("no draws into the environment capture")
	}
}

func TestMirrorToggleSkipsCapture(t *testing.T) {
	r, d := newTestRenderer(t, testOptions())
	d.LogDraws(true)
	sc := testScene(testWidth, testHeight)
	sc.Toggles.MirrorEnabled = false
	r.Render(testState(sc, testWidth, testHeight))

	for _, rec := range d.Draws() {
		if rec.Program == "mirror" || strings.HasPrefix(rec.Framebuffer, "env_capture/") {
			t.Fatalf("mirror disabled but got %+v", rec)
		}
	}
}

func TestShadowsBehindOccluder(t *testing.T) {
	opts := testOptions()
	opts.CaptureSize = 64
	r, d := newTestRenderer(t, opts)

	// A light above a wide slab hovering over a floor. The camera looks at
	// the floor under the slab from the side.
	sc := &scene.Scene{
		Camera:  scene.NewTurntableCamera(testWidth, testHeight),
		Toggles: allDisabled(),
		Lights:  []scene.Light{{Position: mgl32.Vec3{0, 0, 3}, Color: mgl32.Vec3{1, 1, 1}}},
	}
	sc.Add(
		scene.NewObject("floor", resources.MeshCube, scene.Sand, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{20, 20, 0.1}),
		scene.NewObject("slab", resources.MeshCube, scene.Gray, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{4, 4, 0.1}),
	)
	r.Render(testState(sc, testWidth, testHeight))

	shadows := texture(t, r, TargetShadows)
	var lit, occluded int
	for y := 0; y < testHeight; y++ {
		for x := 0; x < testWidth; x++ {
			if d.Pixel(shadows, x, y).X() > 0.5 {
				occluded++
			} else {
				lit++
			}
		}
	}
	if occluded == 0 || lit == 0 {
		t.Fatalf("expected both shadowed and lit pixels: occluded=%d lit=%d", occluded, lit)
	}

	// Darkening only removes light.
	base := d.Pixels(texture(t, r, TargetBase))
	mixed := d.Pixels(texture(t, r, TargetMapMixer))
	for i := range base {
		if i%4 != 3 && mixed[i] > base[i] {
			t.Fatalf("shadow composite brightened component %d: %v > %v", i, mixed[i], base[i])
		}
	}
}

func TestBloomBlurParity(t *testing.T) {
	for _, c := range []struct {
		iterations int
		want       string
	}{
		{0, TargetBloomExtract},
		{1, TargetBloomBlur0},
		{2, TargetBloomBlur1},
		{3, TargetBloomBlur0},
		{10, TargetBloomBlur1},
	} {
		opts := testOptions()
		opts.BloomIterations = c.iterations
		r, _ := newTestRenderer(t, opts)
		extract := texture(t, r, TargetBloomExtract)
		if got, want := r.blurBloom(extract), texture(t, r, c.want); got != want {
			t.Fatalf("%d iterations: final buffer is not %s", c.iterations, c.want)
		}
	}
}

func TestBloomBlurStartsHorizontal(t *testing.T) {
	opts := testOptions()
	opts.BloomIterations = 1
	r, d := newTestRenderer(t, opts)

	// A single bright texel in the extract buffer.
	_, fb := r.Registry().Get(TargetBloomExtract)
	prev := d.BindFramebuffer(fb)
	d.Clear(mgl32.Vec4{0, 0, 0, 1}, 1)
	d.BindFramebuffer(prev)
	d.RegisterKernel("dot", func(f *softgpu.Fragment) mgl32.Vec4 {
		if int(f.Coord.X()) == 8 && int(f.Coord.Y()) == 6 {
			return mgl32.Vec4{1, 1, 1, 1}
		}
		return mgl32.Vec4{0, 0, 0, 1}
	})
	dot, err := d.CompileProgram(gpu.ProgramSource{Name: "dot"})
	if err != nil {
		t.Fatal(err)
	}
	r.Registry().RenderInto(TargetBloomExtract, func() {
		d.Draw(gpu.DrawCommand{Program: dot, Mesh: resources.FullscreenQuad(), Depth: gpu.NoDepth()})
	})

	out := r.blurBloom(texture(t, r, TargetBloomExtract))
	if got := d.Pixel(out, 9, 6).X(); got == 0 {
		t.Fatalf("first blur should spread horizontally")
	}
	if got := d.Pixel(out, 8, 7).X(); got != 0 {
		t.Fatalf("first blur spread vertically: %v", got)
	}
}

func TestResizeMidRun(t *testing.T) {
	r, d := newTestRenderer(t, testOptions())
	sc := testScene(testWidth, testHeight)
	r.Render(testState(sc, testWidth, testHeight))

	r.Render(testState(sc, 10, 6))
	for _, name := range r.Registry().Names() {
		if w, h := texture(t, r, name).Size(); w != 10 || h != 6 {
			t.Fatalf("%s: got %dx%d, want 10x6", name, w, h)
		}
	}

	// A resize without a frame leaves every target cleared.
	if err := r.Registry().Resize(12, 8); err != nil {
		t.Fatal(err)
	}
	for _, name := range r.Registry().Names() {
		tex := texture(t, r, name)
		if got := d.Pixel(tex, 11, 7); got != clearColor {
			t.Fatalf("%s: stale pixel after resize: %v", name, got)
		}
	}
}

type failingDevice struct {
	*softgpu.Device
	program string
}

var errCompile = errors.New("syntax error")

func (d *failingDevice) CompileProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if src.Name == d.program {
		return nil, errCompile
	}
	return d.Device.CompileProgram(src)
}

func TestCompileFailureIsReturned(t *testing.T) {
	d := &failingDevice{Device: softgpu.New(4, 4), program: "bloom"}
	_, err := NewSceneRenderer(d, resources.NewManager(), testOptions())
	if !errors.Is(err, errCompile) {
		t.Fatalf("got %v, want wrapped compile error", err)
	}
	if !strings.Contains(err.Error(), "compile bloom") {
		t.Fatalf("error should name the program: %v", err)
	}
}
