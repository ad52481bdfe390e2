package render

import (
	"testing"

	"compositor/internal/gpu"
	"compositor/internal/gpu/softgpu"
	"compositor/internal/render/shaders"
	"compositor/internal/resources"
	"compositor/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
)

func newTestEnv(t *testing.T, programs ...string) (*passEnv, *softgpu.Device) {
	t.Helper()
	d := softgpu.New(8, 8)
	env := &passEnv{device: d, resources: resources.NewManager(), programs: map[string]gpu.Program{}}
	for _, name := range programs {
		src, err := shaders.Program(name)
		if err != nil {
			t.Fatal(err)
		}
		p, err := d.CompileProgram(src)
		if err != nil {
			t.Fatal(err)
		}
		env.programs[name] = p
	}
	return env, d
}

func prepared(sc *scene.Scene) Context {
	sc.Camera.ComputeObjectMatrices(sc.Objects)
	return Context{State: testState(sc, 8, 8), Camera: sc.Camera}
}

func labels(records []softgpu.DrawRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Label
	}
	return out
}

func TestPipelineRejectsMissingBinding(t *testing.T) {
	env, _ := newTestEnv(t, "mask")
	p := env.newPass("mask", "u_is_reflective")
	expectConfigurationError(t, "uniform", func() {
		p.Pipeline([]Record{{Mesh: resources.FullscreenQuad(), Uniforms: gpu.Uniforms{}}})
	})
}

func TestPassDefaults(t *testing.T) {
	env, _ := newTestEnv(t, "position")
	p := env.newPass("position")
	if p.Depth != gpu.DefaultDepth() {
		t.Fatalf("depth: got %+v", p.Depth)
	}
	if p.Blend.Enabled {
		t.Fatalf("blending should default off")
	}
	if !p.Includes(scene.Sky) {
		t.Fatalf("nil filter should include everything")
	}
}

func TestFilterRunsBeforeMeshLookup(t *testing.T) {
	env, d := newTestEnv(t, "flat_color")
	d.LogDraws(true)
	sc := testScene(8, 8)
	sc.Add(scene.NewObject("ghost", "missing_mesh", scene.Gray, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}))
	ctx := prepared(sc)

	// The background pass only admits environment objects, so the ghost's
	// unknown mesh is never resolved.
	newBackgroundPass(env).Render(ctx)
	if got := labels(d.Draws()); len(got) != 1 || got[0] != "sky" {
		t.Fatalf("background draws: got %v, want [sky]", got)
	}

	env.programs["position"], _ = d.CompileProgram(gpu.ProgramSource{Name: "position"})
	expectConfigurationError(t, "mesh", func() { newPositionPass(env).Render(ctx) })
}

func TestMissingTransformSkipsObject(t *testing.T) {
	env, d := newTestEnv(t, "position")
	d.LogDraws(true)
	sc := testScene(8, 8)
	ctx := prepared(sc)
	// Added after the camera computed matrices for this frame.
	sc.Add(scene.NewObject("late", resources.MeshCube, scene.Gray, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}))

	newPositionPass(env).Render(ctx)
	got := labels(d.Draws())
	if len(got) != 2 || got[0] != "ball" || got[1] != "mirror" {
		t.Fatalf("position draws: got %v, want [ball mirror]", got)
	}
}

func TestExcludedObjectIsSkipped(t *testing.T) {
	env, d := newTestEnv(t, "pre_processing")
	d.LogDraws(true)
	sc := testScene(8, 8)
	ctx := prepared(sc)
	ctx.Exclude = sc.Find("mirror").ID

	newPreProcessingPass(env, nil).Render(ctx)
	for _, l := range labels(d.Draws()) {
		if l == "mirror" {
			t.Fatalf("excluded object drawn")
		}
	}
	if n := len(d.Draws()); n != 2 {
		t.Fatalf("draw count: got %d, want 2", n)
	}
}

func TestShadingEmitsOneRecordPerLight(t *testing.T) {
	env, d := newTestEnv(t, "blinn_phong")
	d.LogDraws(true)
	sc := testScene(8, 8)
	sc.Lights = append(sc.Lights, scene.Light{Position: mgl32.Vec3{-5, 5, 8}, Color: mgl32.Vec3{0.5, 0.5, 0.5}})
	ctx := prepared(sc)

	newShadingPass(env, 0.2).Render(ctx)
	// ball and mirror, two lights each; the sky is excluded.
	if got := labels(d.Draws()); len(got) != 4 {
		t.Fatalf("shading draws: got %v, want 4", got)
	}
}

func TestFilters(t *testing.T) {
	only := Only(scene.TagEnvironment)
	without := newShadingFilter()
	cases := []struct {
		m             *scene.Material
		only, without bool
	}{
		{scene.Sky, true, false},
		{scene.Gray, false, true},
		{scene.Terrain, false, false},
		{scene.Glass, false, false},
		{scene.Mirror, false, true},
	}
	for _, c := range cases {
		if got := only(c.m.Tags); got != c.only {
			t.Fatalf("%s only(environment): got %v, want %v", c.m.Name, got, c.only)
		}
		if got := without(c.m.Tags); got != c.without {
			t.Fatalf("%s shading filter: got %v, want %v", c.m.Name, got, c.without)
		}
	}
}
