package softgpu

import (
	"testing"

	"compositor/internal/gpu"
	"compositor/internal/resources"

	"github.com/go-gl/mathgl/mgl32"
)

func constantKernel(c mgl32.Vec4) Kernel {
	return func(*Fragment) mgl32.Vec4 { return c }
}

func compile(t testing.TB, d *Device, name string) gpu.Program {
	t.Helper()
	p, err := d.CompileProgram(gpu.ProgramSource{Name: name})
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return p
}

func newTarget(t testing.TB, d *Device, w, h int) gpu.Target {
	t.Helper()
	tg, err := d.CreateTarget("test", gpu.TargetOptions{}, w, h)
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	return tg
}

func TestCompileUnknownProgram(t *testing.T) {
	d := New(4, 4)
	if _, err := d.CompileProgram(gpu.ProgramSource{Name: "nope"}); err == nil {
		t.Fatalf("expected error for unknown program")
	}
}

func TestFullscreenQuadCoversEachPixelOnce(t *testing.T) {
	for _, size := range [][2]int{{8, 8}, {7, 5}, {1, 1}} {
		d := New(4, 4)
		d.RegisterKernel("quarter", constantKernel(mgl32.Vec4{0.25, 0.25, 0.25, 0.25}))
		p := compile(t, d, "quarter")
		tg := newTarget(t, d, size[0], size[1])

		d.BindFramebuffer(tg.Framebuffer())
		d.Clear(mgl32.Vec4{}, 1)
		d.Draw(gpu.DrawCommand{
			Program:  p,
			Mesh:     resources.FullscreenQuad(),
			Uniforms: gpu.Uniforms{},
			Depth:    gpu.NoDepth(),
			Blend:    gpu.Additive(),
		})

		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				if got := d.Pixel(tg.Texture(), x, y); got[0] != 0.25 {
					t.Fatalf("%dx%d pixel (%d,%d): got %v, want 0.25", size[0], size[1], x, y, got[0])
				}
			}
		}
	}
}

func TestDepthTestKeepsNearest(t *testing.T) {
	d := New(4, 4)
	d.RegisterKernel("red", constantKernel(mgl32.Vec4{1, 0, 0, 1}))
	d.RegisterKernel("green", constantKernel(mgl32.Vec4{0, 1, 0, 1}))
	tg := newTarget(t, d, 4, 4)
	d.BindFramebuffer(tg.Framebuffer())
	d.Clear(mgl32.Vec4{0, 0, 0, 1}, 1)

	near := gpu.Uniforms{"mat_model_view_projection": mgl32.Translate3D(0, 0, -0.5)}
	far := gpu.Uniforms{"mat_model_view_projection": mgl32.Translate3D(0, 0, 0.5)}
	quad := resources.FullscreenQuad()
	d.Draw(gpu.DrawCommand{Program: compile(t, d, "red"), Mesh: quad, Uniforms: near, Depth: gpu.DefaultDepth()})
	d.Draw(gpu.DrawCommand{Program: compile(t, d, "green"), Mesh: quad, Uniforms: far, Depth: gpu.DefaultDepth()})

	if got := d.Pixel(tg.Texture(), 1, 1); got != (mgl32.Vec4{1, 0, 0, 1}) {
		t.Fatalf("got %v, want red", got)
	}
}

func TestAlphaBlend(t *testing.T) {
	src := mgl32.Vec4{1, 1, 1, 0.25}
	dst := mgl32.Vec4{0, 0, 0, 1}
	got := applyBlend(gpu.AlphaBlend(), src, dst)
	want := mgl32.Vec4{0.25, 0.25, 0.25, 0.25}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestByteTargetQuantizes(t *testing.T) {
	d := New(4, 4)
	tg, err := d.CreateTarget("bytes", gpu.TargetOptions{Type: gpu.TypeUnsignedByte, Format: gpu.FormatRGB}, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	d.BindFramebuffer(tg.Framebuffer())
	d.Clear(mgl32.Vec4{2, -1, 0.5, 0}, 1)
	got := d.Pixel(tg.Texture(), 0, 0)
	want := mgl32.Vec4{1, 0, 128.0 / 255, 1}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBindFramebufferReturnsPrevious(t *testing.T) {
	d := New(4, 4)
	a := newTarget(t, d, 2, 2)
	b := newTarget(t, d, 2, 2)
	if prev := d.BindFramebuffer(a.Framebuffer()); prev != nil {
		t.Fatalf("initial binding: got %v, want screen", prev)
	}
	if prev := d.BindFramebuffer(b.Framebuffer()); prev != a.Framebuffer() {
		t.Fatalf("previous binding not returned")
	}
}

func TestNearPlaneClipping(t *testing.T) {
	d := New(4, 4)
	d.RegisterKernel("white", constantKernel(mgl32.Vec4{1, 1, 1, 1}))
	tg := newTarget(t, d, 16, 16)
	d.BindFramebuffer(tg.Framebuffer())
	d.Clear(mgl32.Vec4{0, 0, 0, 1}, 1)

	// A floor plane passing under and behind the camera.
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 10, 1}, mgl32.Vec3{0, 0, 1})
	model := mgl32.Scale3D(50, 50, 1)
	mv := view.Mul4(model)
	d.Draw(gpu.DrawCommand{
		Program:  compile(t, d, "white"),
		Mesh:     resources.Plane("floor", 2),
		Uniforms: gpu.Uniforms{"mat_model_view_projection": proj.Mul4(mv), "mat_model_view": mv},
		Depth:    gpu.DefaultDepth(),
	})

	if got := d.Pixel(tg.Texture(), 8, 0); got[0] != 1 {
		t.Fatalf("floor below horizon not drawn: %v", got)
	}
	if got := d.Pixel(tg.Texture(), 8, 15); got[0] != 0 {
		t.Fatalf("sky above horizon drawn: %v", got)
	}
}

func TestCubeSamplingMatchesFaceCameras(t *testing.T) {
	d := New(4, 4)
	cube, err := d.CreateCubeTarget("env", 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		d.BindFramebuffer(cube.Face(i))
		v := float32(i+1) / 10
		d.Clear(mgl32.Vec4{v, 0, 0, 1}, 1)
	}
	tex := cube.Texture().(*cubeTexture)
	dirs := []mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for i, dir := range dirs {
		want := float32(i+1) / 10
		if got := tex.sample(dir).X(); got != want {
			t.Fatalf("face %d: got %v, want %v", i, got, want)
		}
	}
}

func TestImageUploadFlipsRows(t *testing.T) {
	res := resources.NewManager()
	sky, err := res.Image("sky_day")
	if err != nil {
		t.Fatal(err)
	}
	d := New(4, 4)
	tex := d.upload(sky)
	top := tex.sample(mgl32.Vec2{0.5, 0.99})
	r, _, _, _ := sky.At(0, 0).RGBA()
	if want := float32(r) / 0xffff; top[0] != want {
		t.Fatalf("v=1 should map to image row 0: got %v, want %v", top[0], want)
	}
	if d.upload(sky) != tex {
		t.Fatalf("image uploaded twice")
	}
}

func TestDrawLog(t *testing.T) {
	d := New(4, 4)
	d.LogDraws(true)
	tg := newTarget(t, d, 2, 2)
	d.BindFramebuffer(tg.Framebuffer())
	d.Draw(gpu.DrawCommand{Program: compile(t, d, "pre_processing"), Label: "sphere"})
	got := d.Draws()
	if len(got) != 1 || got[0] != (DrawRecord{Framebuffer: "test", Program: "pre_processing", Label: "sphere"}) {
		t.Fatalf("draw log: got %+v", got)
	}
	d.ResetDraws()
	if len(d.Draws()) != 0 {
		t.Fatalf("draw log not reset")
	}
}

func BenchmarkFullscreenQuad(b *testing.B) {
	d := New(4, 4)
	tg := newTarget(b, d, 256, 256)
	p := compile(b, d, "gamma")
	cmd := gpu.DrawCommand{
		Program: p,
		Mesh:    resources.FullscreenQuad(),
		Uniforms: gpu.Uniforms{
			"u_texture":  tg.Texture(),
			"u_tex_size": gpu.TexSize(tg.Texture()),
			"u_enabled":  float32(1),
			"u_gamma":    float32(2.2),
		},
		Depth: gpu.NoDepth(),
	}
	d.BindFramebuffer(tg.Framebuffer())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Draw(cmd)
	}
}
